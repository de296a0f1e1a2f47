package check

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Map colors.
var (
	ColorMatch     = color.NRGBA{R: 0x2e, G: 0x7d, B: 0x32, A: 0xff}
	ColorMismatch  = color.NRGBA{R: 0xc6, G: 0x28, B: 0x28, A: 0xff}
	ColorMissing   = color.NRGBA{R: 0x61, G: 0x61, B: 0x61, A: 0xff}
	ColorUnchecked = color.NRGBA{R: 0x21, G: 0x21, B: 0x21, A: 0xff}
)

const legendHeight = 18

// MapOptions configures RenderMap.
type MapOptions struct {
	// Scale is the edge of one output pixel in the map. Values below 1 are
	// treated as 1.
	Scale int

	// Legend adds a caption strip below the map.
	Legend bool
}

// RenderMap draws one cell per output pixel: green for a match, red for a
// mismatch, gray for an output that was never emitted. After a truncated
// comparison, outputs the check never reached are dark.
func RenderMap(r *Result, opts MapOptions) *image.NRGBA {
	scale := max(opts.Scale, 1)

	cells := image.NewNRGBA(image.Rect(0, 0, r.Width, r.Height))
	draw.Draw(cells, cells.Bounds(), image.NewUniform(ColorMatch), image.Point{}, draw.Src)
	if r.Truncated {
		for y := range r.Height {
			for x := range r.Width {
				if !r.checked(x, y) {
					cells.SetNRGBA(x, y, ColorUnchecked)
				}
			}
		}
	}
	for _, m := range r.Mismatches {
		if !image.Pt(m.X, m.Y).In(cells.Bounds()) {
			continue
		}
		c := ColorMismatch
		if m.Reason == ReasonMissing {
			c = ColorMissing
		}
		cells.SetNRGBA(m.X, m.Y, c)
	}

	w, h := r.Width*scale, r.Height*scale
	total := h
	if opts.Legend {
		total += legendHeight
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, total))
	draw.NearestNeighbor.Scale(dst, image.Rect(0, 0, w, h), cells, cells.Bounds(), draw.Src, nil)

	if opts.Legend {
		drawLegend(dst, h, r)
	}
	return dst
}

func drawLegend(dst *image.NRGBA, top int, r *Result) {
	strip := image.Rect(0, top, dst.Bounds().Dx(), dst.Bounds().Dy())
	draw.Draw(dst, strip, image.Black, image.Point{}, draw.Src)

	caption := "PASS"
	if !r.Pass() {
		caption = fmt.Sprintf("%d mismatches", len(r.Mismatches))
	}
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.White,
		Face: face,
		Dot:  fixed.P(2, top+face.Ascent+2),
	}
	d.DrawString(caption)
}

// WritePNG encodes the mismatch map of r as PNG.
func WritePNG(w io.Writer, r *Result, opts MapOptions) error {
	if err := png.Encode(w, RenderMap(r, opts)); err != nil {
		return fmt.Errorf("check: encode map: %w", err)
	}
	return nil
}
