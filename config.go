package downscale

import (
	"errors"
	"fmt"

	"github.com/gogpu/downscale/internal/filter"
	"github.com/gogpu/downscale/internal/tiles"
)

// Mode selects the filter support.
type Mode = filter.Mode

// Support modes.
const (
	// Fixed uses a 3x3 support for every output pixel.
	Fixed = filter.Fixed

	// Variable uses 3x3 on the first and last row and column of every output
	// superblock and 5x5 elsewhere.
	Variable = filter.Variable
)

// ParseMode parses "fixed" or "variable".
func ParseMode(s string) (Mode, error) {
	return filter.ParseMode(s)
}

// Config describes one verification run.
type Config struct {
	// Width and Height are the input frame size in pixels.
	Width  int
	Height int

	// SuperBlock is the input superblock edge in pixels.
	SuperBlock int

	// Mode is the filter support policy.
	Mode Mode

	// SupportBlock is the output superblock edge that decides between 3x3
	// and 5x5 in Variable mode. Zero means SuperBlock/2, the superblock edge
	// in output pixels. It must divide that edge.
	SupportBlock int

	// Verbose logs every tile at debug level.
	Verbose bool

	// FirstMismatchOnly stops comparing after the first mismatch.
	FirstMismatchOnly bool
}

// ConfigError reports an invalid configuration field.
type ConfigError struct {
	Field  string
	Value  int
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("downscale: invalid config.%s=%d: %s", e.Field, e.Value, e.Reason)
}

// Unwrap returns ErrInvalidConfig.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// withDefaults returns c with zero fields replaced by their defaults.
func (c Config) withDefaults() Config {
	if c.Mode == Variable && c.SupportBlock == 0 {
		c.SupportBlock = c.SuperBlock / 2
	}
	return c
}

// Validate checks c after applying defaults. Errors are *ConfigError.
func (c Config) Validate() error {
	_, err := c.geometry()
	return err
}

func (c Config) geometry() (tiles.Geometry, error) {
	c = c.withDefaults()

	g, err := tiles.NewGeometry(c.Width, c.Height, c.SuperBlock)
	if err != nil {
		var ge *tiles.GeometryError
		if errors.As(err, &ge) {
			return g, &ConfigError{Field: configField(ge.Field), Value: ge.Value, Reason: ge.Reason}
		}
		return g, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	switch c.Mode {
	case Fixed:
	case Variable:
		if edge := c.SuperBlock / 2; c.SupportBlock <= 0 || edge%c.SupportBlock != 0 {
			return g, &ConfigError{
				Field:  "SupportBlock",
				Value:  c.SupportBlock,
				Reason: fmt.Sprintf("must divide the superblock output edge %d", edge),
			}
		}
	default:
		return g, &ConfigError{Field: "Mode", Value: int(c.Mode), Reason: "unknown mode"}
	}
	return g, nil
}

func configField(geometryField string) string {
	switch geometryField {
	case "width":
		return "Width"
	case "height":
		return "Height"
	default:
		return "SuperBlock"
	}
}

// String renders c the way reports and logs name a run.
func (c Config) String() string {
	c = c.withDefaults()
	if c.Mode == Variable {
		return fmt.Sprintf("%dx%d/%d %v/%d", c.Width, c.Height, c.SuperBlock, c.Mode, c.SupportBlock)
	}
	return fmt.Sprintf("%dx%d/%d %v", c.Width, c.Height, c.SuperBlock, c.Mode)
}
