package pipeline

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/brick-finder/internal/config"
	"github.com/ironsheep/brick-finder/internal/mask"
	"github.com/ironsheep/brick-finder/internal/moments"
	"github.com/ironsheep/brick-finder/internal/segment"
)

func fillRect(m *mask.Mask, row, col, height, width int) {
	for r := row; r < row+height; r++ {
		for c := col; c < col+width; c++ {
			m.Set(r, c, true)
		}
	}
}

// scene holds a 12x12 square (compact, accepted), a 60x3 bar (rejected on
// M1) and a 3x3 speck below the size limit.
func scene() *mask.Mask {
	m := mask.New(40, 80)
	fillRect(m, 2, 2, 12, 12)
	fillRect(m, 5, 30, 3, 3)
	fillRect(m, 20, 10, 3, 60)
	return m
}

func TestRun(t *testing.T) {
	m := scene()
	res, err := Run(m, Options{MinSegmentSize: 100})
	require.NoError(t, err)

	assert.Equal(t, 40, res.Rows)
	assert.Equal(t, 80, res.Cols)
	assert.Equal(t, 144+9+180, res.Foreground)
	assert.Equal(t, 2, res.Found)
	require.Len(t, res.Detections, 2)
	assert.Empty(t, res.Failures)

	square := res.Detections[0]
	assert.Equal(t, 1, square.ID)
	assert.Equal(t, 144, square.Size)
	assert.Equal(t, segment.Box{MinRow: 2, MinCol: 2, MaxRow: 13, MaxCol: 13}, square.Box)
	assert.True(t, square.Accepted)
	assert.Nil(t, square.Failed)
	assert.InDelta(t, 3432.0/20736.0, square.Moments[moments.M1], 1e-12)

	bar := res.Detections[1]
	assert.Equal(t, 3, bar.ID)
	assert.False(t, bar.Accepted)
	require.NotNil(t, bar.Failed)
	assert.Equal(t, moments.M1, bar.Failed.Descriptor)

	accepted := res.Accepted()
	require.Len(t, accepted, 1)
	assert.Equal(t, 1, accepted[0].ID)
	assert.Equal(t, []segment.Box{square.Box}, res.Boxes())

	recs := res.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, 3, recs[1].ID)
	assert.Equal(t, bar.Moments, recs[1].Set)

	// The input mask is untouched.
	assert.True(t, m.Equal(scene()))
}

func TestRun_MaxSegmentSize(t *testing.T) {
	res, err := Run(scene(), Options{MinSegmentSize: 5, MaxSegmentSize: 150})
	require.NoError(t, err)

	ids := make([]int, 0, len(res.Detections))
	for _, d := range res.Detections {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []int{1, 2}, ids)
}

func TestRun_AppliesMorphology(t *testing.T) {
	// A one-pixel gap splits the square until a 3x3 closing bridges it.
	m := mask.New(20, 20)
	fillRect(m, 2, 2, 10, 5)
	fillRect(m, 2, 8, 10, 5)

	res, err := Run(m, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Found)

	res, err = Run(m, Options{Steps: []mask.Step{{Op: mask.OpClosing, Width: 3, Height: 3}}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Found)
}

func TestRun_InvalidWindowFailsFast(t *testing.T) {
	var logged []string
	opts := Options{
		Steps: []mask.Step{{Op: mask.OpClosing, Width: 3, Height: 3}, {Op: mask.OpOpening, Width: 4, Height: 3}},
		Logf:  func(format string, args ...any) { logged = append(logged, fmt.Sprintf(format, args...)) },
	}

	res, err := Run(scene(), opts)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, mask.ErrInvalidParameter))
	assert.Empty(t, logged, "nothing should run after a rejected window")
}

func TestRun_NilMask(t *testing.T) {
	_, err := Run(nil, Options{})
	assert.Error(t, err)
}

func TestRun_EmptyMask(t *testing.T) {
	res, err := Run(mask.New(10, 10), Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Found)
	assert.Empty(t, res.Detections)
	assert.Empty(t, res.Accepted())
}

func TestRun_IsolatesFailures(t *testing.T) {
	orig := analyze
	t.Cleanup(func() { analyze = orig })
	analyze = func(seg segment.Segment) (Detection, error) {
		if seg.ID == 2 {
			return Detection{}, fmt.Errorf("segment %d: %w", seg.ID, moments.ErrDegenerateSegment)
		}
		return Analyze(seg)
	}

	res, err := Run(scene(), Options{MinSegmentSize: 1})
	require.NoError(t, err)

	require.Len(t, res.Failures, 1)
	assert.Equal(t, 2, res.Failures[0].ID)
	assert.True(t, errors.Is(res.Failures[0].Err, moments.ErrDegenerateSegment))
	assert.Contains(t, res.Failures[0].String(), "segment 2")

	require.Len(t, res.Detections, 2)
	assert.Equal(t, 1, res.Detections[0].ID)
	assert.Equal(t, 3, res.Detections[1].ID)
}

func TestRun_WorkerCountDoesNotChangeResult(t *testing.T) {
	m := mask.New(60, 60)
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			fillRect(m, 2+i*11, 2+j*11, 4+i, 4+j)
		}
	}

	want, err := Run(m, Options{Workers: 1})
	require.NoError(t, err)
	require.Len(t, want.Detections, 25)

	for _, w := range []int{0, 2, 7, 64} {
		got, err := Run(m, Options{Workers: w})
		require.NoError(t, err)
		assert.Equal(t, want.Detections, got.Detections, "workers=%d", w)
	}
}

func TestAnalyze_Degenerate(t *testing.T) {
	_, err := Analyze(segment.Segment{ID: 9})
	require.Error(t, err)
	assert.True(t, errors.Is(err, moments.ErrDegenerateSegment))
}

// photo draws an orange disc and a thick orange bar on white.
func photo() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 120, 140))
	orange := color.RGBA{180, 70, 40, 255}
	for y := 0; y < 140; y++ {
		for x := 0; x < 120; x++ {
			dx, dy := x-50, y-50
			switch {
			case dx*dx+dy*dy <= 20*20:
				img.Set(x, y, orange)
			case y >= 100 && y < 110 && x >= 20 && x < 80:
				img.Set(x, y, orange)
			default:
				img.Set(x, y, color.White)
			}
		}
	}
	return img
}

func TestDetector_Detect(t *testing.T) {
	var logged int
	d, err := NewDetector(config.Default(), func(string, ...any) { logged++ })
	require.NoError(t, err)

	res, cleaned, err := d.Detect(photo())
	require.NoError(t, err)
	require.NotNil(t, cleaned)
	assert.Equal(t, 140, cleaned.Rows())
	assert.Equal(t, 120, cleaned.Cols())
	assert.Greater(t, logged, 0)

	require.Len(t, res.Detections, 2)

	disc := res.Detections[0]
	assert.True(t, disc.Accepted, "disc rejected by %v", disc.Failed)
	assert.InDelta(t, 50, disc.Axes.CentroidX, 1)
	assert.InDelta(t, 50, disc.Axes.CentroidY, 1)
	assert.InDelta(t, 50, float64(disc.Box.MinRow+disc.Box.MaxRow)/2, 1)

	bar := res.Detections[1]
	assert.False(t, bar.Accepted)
	require.NotNil(t, bar.Failed)
	assert.Equal(t, moments.M1, bar.Failed.Descriptor)
}

func TestDetector_Classify(t *testing.T) {
	d, err := NewDetector(config.Default(), nil)
	require.NoError(t, err)

	m := d.Classify(photo())
	assert.True(t, m.At(50, 50))
	assert.True(t, m.At(105, 50))
	assert.False(t, m.At(5, 5))
}

func TestNewDetector_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Morphology[0].Width = 6

	_, err := NewDetector(cfg, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrInvalidConfig))
}

func TestDetector_OptionsCopy(t *testing.T) {
	d, err := NewDetector(nil, nil)
	require.NoError(t, err)

	opts := d.Options()
	require.Len(t, opts.Steps, 3)
	opts.Steps[0].Width = 4
	assert.Equal(t, 7, d.Options().Steps[0].Width)
}
