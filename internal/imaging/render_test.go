package imaging

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/ironsheep/brick-finder/internal/mask"
	"github.com/ironsheep/brick-finder/internal/segment"
)

func sameRGB(a, b color.Color) bool {
	ar, ag, ab, _ := a.RGBA()
	br, bg, bb, _ := b.RGBA()
	return ar>>8 == br>>8 && ag>>8 == bg>>8 && ab>>8 == bb>>8
}

func TestDenoise_RemovesSpeckle(t *testing.T) {
	img := createInMemoryImage(9, 9, color.Black)
	img.Set(4, 4, color.White)

	out := Denoise(img, 1)
	if out.Bounds().Dx() != 9 || out.Bounds().Dy() != 9 {
		t.Fatalf("dimensions changed: %v", out.Bounds())
	}
	if !sameRGB(out.At(4, 4), color.Black) {
		t.Errorf("isolated pixel survived median filter: %v", out.At(4, 4))
	}
}

func TestDenoise_UniformUnchanged(t *testing.T) {
	orange := color.RGBA{180, 70, 40, 255}
	out := Denoise(createInMemoryImage(12, 8, orange), 2)

	for y := 0; y < 8; y++ {
		for x := 0; x < 12; x++ {
			if !sameRGB(out.At(x, y), orange) {
				t.Fatalf("pixel (%d,%d) changed to %v", x, y, out.At(x, y))
			}
		}
	}
}

func TestDenoise_ZeroRadiusIsNoOp(t *testing.T) {
	img := createInMemoryImage(3, 3, color.White)
	if out := Denoise(img, 0); out != image.Image(img) {
		t.Error("radius 0 should return the input image")
	}
}

func TestDrawBoxes(t *testing.T) {
	img := createInMemoryImage(10, 10, color.White)
	box := segment.Box{MinRow: 2, MinCol: 2, MaxRow: 7, MaxCol: 7}

	out := DrawBoxes(img, []segment.Box{box}, BoxColor)

	outline := [][2]int{{2, 2}, {3, 3}, {7, 2}, {2, 7}, {6, 6}, {5, 2}, {2, 5}}
	for _, p := range outline {
		if !sameRGB(out.At(p[0], p[1]), BoxColor) {
			t.Errorf("(%d,%d) should be on the outline, got %v", p[0], p[1], out.At(p[0], p[1]))
		}
	}
	for _, p := range [][2]int{{4, 4}, {5, 5}, {1, 1}, {8, 8}} {
		if !sameRGB(out.At(p[0], p[1]), color.White) {
			t.Errorf("(%d,%d) should be untouched, got %v", p[0], p[1], out.At(p[0], p[1]))
		}
	}

	// The input is not modified.
	if !sameRGB(img.At(2, 2), color.White) {
		t.Error("DrawBoxes modified its input")
	}
}

func TestDrawBoxes_ClipsOutsideImage(t *testing.T) {
	img := createInMemoryImage(10, 10, color.White)
	box := segment.Box{MinRow: -5, MinCol: -5, MaxRow: 20, MaxCol: 4}

	out := DrawBoxes(img, []segment.Box{box}, BoxColor)
	if !sameRGB(out.At(4, 0), BoxColor) {
		t.Errorf("right edge inside the image should be drawn, got %v", out.At(4, 0))
	}
}

func TestPaintSegments(t *testing.T) {
	img := createInMemoryImage(10, 10, color.Black)
	seg := segment.Segment{ID: 1, Pixels: []segment.Pixel{{Row: 1, Col: 2}, {Row: 1, Col: 3}}}

	out := PaintSegments(img, []segment.Segment{seg})

	a := out.NRGBAAt(2, 1)
	b := out.NRGBAAt(3, 1)
	if a != b {
		t.Errorf("one segment should get one color: %v vs %v", a, b)
	}
	if a.A != 255 || (a.R == 0 && a.G == 0 && a.B == 0) {
		t.Errorf("segment pixel not painted: %v", a)
	}
	if !sameRGB(out.At(0, 0), color.Black) {
		t.Errorf("background pixel changed: %v", out.At(0, 0))
	}
}

func TestMaskImage(t *testing.T) {
	m, err := mask.FromRows([][]bool{
		{true, false, false},
		{false, false, true},
	})
	if err != nil {
		t.Fatal(err)
	}

	img := MaskImage(m)
	if img.Bounds() != image.Rect(0, 0, 3, 2) {
		t.Fatalf("bounds: got %v", img.Bounds())
	}
	if img.GrayAt(0, 0).Y != 255 || img.GrayAt(2, 1).Y != 255 {
		t.Error("foreground pixels should be 255")
	}
	if img.GrayAt(1, 0).Y != 0 || img.GrayAt(0, 1).Y != 0 {
		t.Error("background pixels should be 0")
	}
}

func TestEncodeBase64PNG(t *testing.T) {
	s, err := EncodeBase64PNG(createInMemoryImage(7, 3, color.White))
	if err != nil {
		t.Fatalf("EncodeBase64PNG failed: %v", err)
	}
	img := decodeBase64PNG(t, s)
	if img.Bounds().Dx() != 7 || img.Bounds().Dy() != 3 {
		t.Errorf("decoded dimensions: got %v", img.Bounds())
	}
}

func TestSave(t *testing.T) {
	img := createInMemoryImage(16, 12, color.RGBA{180, 70, 40, 255})
	dir := t.TempDir()

	for _, name := range []string{"out.png", "out.jpg", "nested/out.webp"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := Save(img, path, 90); err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			loaded, err := NewImageCache().Load(path)
			if err != nil {
				t.Fatalf("reloading %s failed: %v", name, err)
			}
			if loaded.Bounds().Dx() != 16 || loaded.Bounds().Dy() != 12 {
				t.Errorf("dimensions: got %v", loaded.Bounds())
			}
		})
	}
}

func TestSave_UnsupportedFormat(t *testing.T) {
	img := createInMemoryImage(4, 4, color.White)
	if err := Save(img, filepath.Join(t.TempDir(), "out.gif"), 90); err == nil {
		t.Error("expected error for unsupported extension")
	}
}
