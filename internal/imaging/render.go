package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/brick-finder/internal/mask"
	"github.com/ironsheep/brick-finder/internal/segment"
)

// BoxStroke is the outline thickness used by DrawBoxes.
const BoxStroke = 2

// BoxColor is the default outline color for accepted bricks.
var BoxColor = color.NRGBA{R: 255, G: 0, B: 0, A: 255}

// DrawBoxes returns a copy of img with each box outlined in c. The outline is
// BoxStroke pixels thick and lies inside the box; parts outside the image are
// clipped.
func DrawBoxes(img image.Image, boxes []segment.Box, c color.Color) *image.NRGBA {
	out := imaging.Clone(img)
	nc := color.NRGBAModel.Convert(c).(color.NRGBA)
	for _, b := range boxes {
		drawBox(out, b, nc)
	}
	return out
}

func drawBox(img *image.NRGBA, b segment.Box, c color.NRGBA) {
	for s := 0; s < BoxStroke; s++ {
		drawHLine(img, b.MinRow+s, b.MinCol, b.MaxCol, c)
		drawHLine(img, b.MaxRow-s, b.MinCol, b.MaxCol, c)
		drawVLine(img, b.MinCol+s, b.MinRow, b.MaxRow, c)
		drawVLine(img, b.MaxCol-s, b.MinRow, b.MaxRow, c)
	}
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	for x := x0; x <= x1; x++ {
		setPixel(img, x, y, c)
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	for y := y0; y <= y1; y++ {
		setPixel(img, x, y, c)
	}
}

func setPixel(img *image.NRGBA, x, y int, c color.NRGBA) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.SetNRGBA(x, y, c)
	}
}

// PaintSegments returns a copy of img with every segment's pixels filled in
// a randomly chosen bright color, one color per segment.
func PaintSegments(img image.Image, segs []segment.Segment) *image.NRGBA {
	out := imaging.Clone(img)
	for _, s := range segs {
		r, g, b := colorful.FastHappyColor().RGB255()
		c := color.NRGBA{R: r, G: g, B: b, A: 255}
		for _, p := range s.Pixels {
			setPixel(out, p.Col, p.Row, c)
		}
	}
	return out
}

// MaskImage renders m as a grayscale image: 255 for foreground, 0 otherwise.
func MaskImage(m *mask.Mask) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, m.Cols(), m.Rows()))
	for r := 0; r < m.Rows(); r++ {
		for c := 0; c < m.Cols(); c++ {
			if m.At(r, c) {
				out.Pix[r*out.Stride+c] = 255
			}
		}
	}
	return out
}

// EncodeBase64PNG encodes img as PNG and returns it base64-encoded.
func EncodeBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Save writes img to path in the format named by its extension: .png,
// .jpg/.jpeg or .webp. quality (1-100) applies to JPEG and lossy WebP.
// Parent directories are created as needed.
func Save(img image.Image, path string, quality int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".webp":
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		defer f.Close()
		opts := &webp.Options{Lossless: false, Quality: float32(quality)}
		if err := webp.Encode(f, img, opts); err != nil {
			return fmt.Errorf("failed to encode webp: %w", err)
		}
		return f.Close()
	case ".jpg", ".jpeg":
		if err := imaging.Save(img, path, imaging.JPEGQuality(quality)); err != nil {
			return fmt.Errorf("failed to save %s: %w", path, err)
		}
		return nil
	case ".png":
		if err := imaging.Save(img, path); err != nil {
			return fmt.Errorf("failed to save %s: %w", path, err)
		}
		return nil
	}
	return fmt.Errorf("unsupported output format %q", filepath.Ext(path))
}
