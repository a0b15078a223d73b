package mask

import (
	"fmt"
	"image"
	"image/color"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Classifier decides whether a pixel color is foreground.
type Classifier func(c color.Color) bool

// HSVRange is an inclusive HSV box on the OpenCV 8-bit scale:
// hue 0-180, saturation 0-255, value 0-255.
type HSVRange struct {
	MinH float64 `yaml:"minH" json:"min_h"`
	MaxH float64 `yaml:"maxH" json:"max_h"`
	MinS float64 `yaml:"minS" json:"min_s"`
	MaxS float64 `yaml:"maxS" json:"max_s"`
	MinV float64 `yaml:"minV" json:"min_v"`
	MaxV float64 `yaml:"maxV" json:"max_v"`
}

// BrickRange is the HSV range tuned for the orange/red bricks in the
// reference photo set.
var BrickRange = HSVRange{
	MinH: 4, MaxH: 12,
	MinS: 140, MaxS: 220,
	MinV: 80, MaxV: 200,
}

// Contains reports whether an OpenCV-scale HSV triple falls inside the range.
func (r HSVRange) Contains(h, s, v float64) bool {
	if h < r.MinH || h > r.MaxH {
		return false
	}
	if s < r.MinS || s > r.MaxS {
		return false
	}
	if v < r.MinV || v > r.MaxV {
		return false
	}
	return true
}

// Validate checks that every bound is ordered and inside the OpenCV scale.
func (r HSVRange) Validate() error {
	check := func(name string, lo, hi, limit float64) error {
		if lo < 0 || hi > limit || lo > hi {
			return fmt.Errorf("%w: %s range [%g, %g] not within [0, %g]", ErrInvalidParameter, name, lo, hi, limit)
		}
		return nil
	}
	if err := check("hue", r.MinH, r.MaxH, 180); err != nil {
		return err
	}
	if err := check("saturation", r.MinS, r.MaxS, 255); err != nil {
		return err
	}
	return check("value", r.MinV, r.MaxV, 255)
}

// Classifier returns a predicate accepting colors whose HSV falls in r.
// Fully transparent pixels are never foreground.
func (r HSVRange) Classifier() Classifier {
	return func(c color.Color) bool {
		h, s, v, ok := OpenCVHSV(c)
		if !ok {
			return false
		}
		return r.Contains(h, s, v)
	}
}

// OpenCVHSV converts a color to the OpenCV 8-bit HSV scale, truncating each
// channel the way an 8-bit conversion would. ok is false for fully
// transparent colors.
func OpenCVHSV(c color.Color) (h, s, v float64, ok bool) {
	cf, ok := colorful.MakeColor(c)
	if !ok {
		return 0, 0, 0, false
	}
	hd, sf, vf := cf.Hsv()
	return trunc8(hd / 2), trunc8(sf * 255), trunc8(vf * 255), true
}

// trunc8 drops the fractional part, absorbing float noise from the 16-bit
// round trip so that e.g. 199.9999999 reads as 200.
func trunc8(f float64) float64 {
	return math.Floor(f + 1e-6)
}

// FromImage classifies every pixel of img. The resulting mask has one row per
// image row, with (0, 0) at img.Bounds().Min.
func FromImage(img image.Image, classify Classifier) *Mask {
	b := img.Bounds()
	m := New(b.Dy(), b.Dx())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := (y - b.Min.Y) * m.cols
		for x := b.Min.X; x < b.Max.X; x++ {
			m.bits[row+x-b.Min.X] = classify(img.At(x, y))
		}
	}
	return m
}
