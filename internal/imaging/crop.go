package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/brick-finder/internal/segment"
)

// CropResult contains the cropped image data
type CropResult struct {
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Crop extracts the region (x1,y1)-(x2,y2), x2/y2 exclusive, and optionally
// scales it with a Lanczos filter.
func Crop(img image.Image, x1, y1, x2, y2 int, scale float64) (*CropResult, error) {
	bounds := img.Bounds()

	if x1 < bounds.Min.X || y1 < bounds.Min.Y || x2 > bounds.Max.X || y2 > bounds.Max.Y {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			x1, y1, x2, y2, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	if x1 >= x2 || y1 >= y2 {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}

	cropped := imaging.Crop(img, image.Rect(x1, y1, x2, y2))

	if scale != 1.0 && scale > 0 {
		newWidth := max(1, int(float64(cropped.Bounds().Dx())*scale))
		newHeight := max(1, int(float64(cropped.Bounds().Dy())*scale))
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	encoded, err := EncodeBase64PNG(cropped)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cropped image: %w", err)
	}

	return &CropResult{
		X:           x1,
		Y:           y1,
		Width:       cropped.Bounds().Dx(),
		Height:      cropped.Bounds().Dy(),
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}

// CropBox crops a segment's bounding box, grown by padding pixels on every
// side and clipped to the image. Box coordinates are relative to the image's
// top-left corner, as produced by segmenting a mask of the image.
func CropBox(img image.Image, box segment.Box, padding int, scale float64) (*CropResult, error) {
	if padding < 0 {
		return nil, fmt.Errorf("padding must not be negative, got %d", padding)
	}

	bounds := img.Bounds()
	r := image.Rect(
		bounds.Min.X+box.MinCol-padding,
		bounds.Min.Y+box.MinRow-padding,
		bounds.Min.X+box.MaxCol+1+padding,
		bounds.Min.Y+box.MaxRow+1+padding,
	).Intersect(bounds)
	if r.Empty() {
		return nil, fmt.Errorf("box rows %d-%d cols %d-%d lies outside the image",
			box.MinRow, box.MaxRow, box.MinCol, box.MaxCol)
	}

	return Crop(img, r.Min.X, r.Min.Y, r.Max.X, r.Max.Y, scale)
}
