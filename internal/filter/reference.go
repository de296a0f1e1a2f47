package filter

import (
	"errors"
	"fmt"

	"github.com/gogpu/downscale/internal/prov"
)

// ErrInvalidParams is returned by NewReference for unusable frame geometry.
var ErrInvalidParams = errors.New("filter: invalid reference parameters")

// Params describes the frame the reference filter runs over.
type Params struct {
	// Width and Height are the input frame dimensions. Both must be even.
	Width  int
	Height int

	// Mode selects the support policy.
	Mode Mode

	// Block is the output superblock edge used by Variable mode.
	Block int
}

// OutputSize returns the downscaled frame dimensions.
func (p Params) OutputSize() (w, h int) {
	return p.Width / 2, p.Height / 2
}

// Reference is the materialized reference output: one contribution list per
// output coordinate. It is immutable once built.
type Reference struct {
	params Params
	outW   int
	outH   int
	lists  [][]prov.PixelCoord
}

// NewReference computes the reference contribution list for every output
// pixel of the frame.
func NewReference(p Params) (*Reference, error) {
	if p.Width <= 0 || p.Height <= 0 || p.Width%2 != 0 || p.Height%2 != 0 {
		return nil, fmt.Errorf("%w: frame %dx%d must be positive and even", ErrInvalidParams, p.Width, p.Height)
	}
	if p.Mode == Variable && p.Block <= 0 {
		return nil, fmt.Errorf("%w: variable support needs a positive block, got %d", ErrInvalidParams, p.Block)
	}

	outW, outH := p.OutputSize()
	r := &Reference{
		params: p,
		outW:   outW,
		outH:   outH,
		lists:  make([][]prov.PixelCoord, outW*outH),
	}

	for y := range outH {
		for x := range outW {
			radius := Radius(p.Mode, p.Block, x, y)
			r.lists[y*outW+x] = Sample(p.Width, p.Height, 2*x, 2*y, radius)
		}
	}

	return r, nil
}

// Sample returns the clamped taps of a square support of the given radius
// centered on input pixel (cx, cy). Rows are visited top to bottom and
// columns left to right; a clamped tap is appended once per offset that
// mapped onto it.
func Sample(width, height, cx, cy, radius int) []prov.PixelCoord {
	out := make([]prov.PixelCoord, 0, SupportSize(radius))
	for _, off := range Offsets(radius) {
		out = append(out, prov.Pt(cx+off[0], cy+off[1]).Clamp(width, height))
	}
	return out
}

// Params returns the parameters the reference was built with.
func (r *Reference) Params() Params {
	return r.params
}

// Size returns the output frame dimensions.
func (r *Reference) Size() (w, h int) {
	return r.outW, r.outH
}

// At returns the contribution list for output pixel (x, y), or nil when the
// coordinate is outside the output frame. The returned slice must not be
// modified.
func (r *Reference) At(x, y int) []prov.PixelCoord {
	if x < 0 || x >= r.outW || y < 0 || y >= r.outH {
		return nil
	}
	return r.lists[y*r.outW+x]
}

// Radius returns the support radius used for output pixel (x, y).
func (r *Reference) Radius(x, y int) int {
	return Radius(r.params.Mode, r.params.Block, x, y)
}
