package imaging

import (
	"fmt"
	"image"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/brick-finder/internal/mask"
)

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// HSVColor is a color in HSV space on a stated scale.
type HSVColor struct {
	H float64 `json:"h"`
	S float64 `json:"s"`
	V float64 `json:"v"`
}

// ColorSample describes one pixel for classifier calibration.
//
// HSV is given twice: on the 8-bit scale the classifier range uses
// (H 0-180, S and V 0-255) and on the conventional scale (H in degrees,
// S and V in percent) that photo editors show.
type ColorSample struct {
	X          int      `json:"x"`
	Y          int      `json:"y"`
	Hex        string   `json:"hex"`
	RGB        RGBColor `json:"rgb"`
	Alpha      uint8    `json:"alpha"`
	HSV        HSVColor `json:"hsv"`
	HSVDegrees HSVColor `json:"hsv_degrees"`

	// Brick is the classifier verdict for this pixel.
	Brick bool `json:"brick"`
}

// SampleColor reads the pixel at (x, y), relative to the image's top-left
// corner, and classifies it against r.
//
// Returns an error if the coordinates are outside the image.
func SampleColor(img image.Image, x, y int, r mask.HSVRange) (*ColorSample, error) {
	bounds := img.Bounds()
	if x < 0 || y < 0 || x >= bounds.Dx() || y >= bounds.Dy() {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds %dx%d", x, y, bounds.Dx(), bounds.Dy())
	}

	px := img.At(bounds.Min.X+x, bounds.Min.Y+y)
	cr, cg, cb, ca := px.RGBA()
	r8, g8, b8, a8 := uint8(cr>>8), uint8(cg>>8), uint8(cb>>8), uint8(ca>>8)

	sample := &ColorSample{
		X:     x,
		Y:     y,
		Hex:   fmt.Sprintf("#%02X%02X%02X", r8, g8, b8),
		RGB:   RGBColor{R: r8, G: g8, B: b8},
		Alpha: a8,
	}

	h, s, v, ok := mask.OpenCVHSV(px)
	if !ok {
		return sample, nil
	}
	sample.HSV = HSVColor{H: h, S: s, V: v}
	sample.Brick = r.Contains(h, s, v)

	if c, ok := colorful.MakeColor(px); ok {
		dh, ds, dv := c.Hsv()
		sample.HSVDegrees = HSVColor{H: round1(dh), S: round1(ds * 100), V: round1(dv * 100)}
	}
	return sample, nil
}

// ForegroundRatio returns the share of pixels in img that r classifies as
// brick, from 0 to 1. It gives a quick sense of whether a range is too wide.
func ForegroundRatio(img image.Image, r mask.HSVRange) float64 {
	m := mask.FromImage(img, r.Classifier())
	total := m.Rows() * m.Cols()
	if total == 0 {
		return 0
	}
	return float64(m.Count()) / float64(total)
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
