package shape

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/brick-finder/internal/moments"
	"github.com/ironsheep/brick-finder/internal/segment"
)

// passing is a descriptor set inside every bound.
func passing() moments.Set {
	var s moments.Set
	s[moments.M1] = 0.17
	s[moments.M2] = 0.001
	s[moments.M3] = 0.0005
	s[moments.M7] = 0.007
	s[moments.M8] = 0.001
	s[moments.M9] = 0.0001
	// Unchecked descriptors may hold anything.
	s[moments.M4] = 123
	s[moments.M10] = -99
	return s
}

func TestIsValid_Accepts(t *testing.T) {
	assert.True(t, IsValid(passing()))

	_, ok := Check(passing())
	assert.True(t, ok)
}

func TestIsValid_Boundaries(t *testing.T) {
	tests := []struct {
		name  string
		d     moments.Descriptor
		value float64
		want  bool
	}{
		{"M1 at lower bound", moments.M1, 0.15, true},
		{"M1 at upper bound", moments.M1, 0.2, true},
		{"M1 below", moments.M1, 0.1499, false},
		{"M1 above", moments.M1, 0.2001, false},
		{"M2 at bound", moments.M2, 0.002, true},
		{"M2 above", moments.M2, 0.0021, false},
		{"M2 negative", moments.M2, -1, true},
		{"M3 above", moments.M3, 0.0011, false},
		{"M7 at bound", moments.M7, 0.1, true},
		{"M7 above", moments.M7, 0.11, false},
		{"M8 above", moments.M8, 0.003, false},
		{"M9 at upper bound", moments.M9, 0.0005, true},
		{"M9 at lower bound", moments.M9, -0.0005, true},
		{"M9 above", moments.M9, 0.0006, false},
		{"M9 below", moments.M9, -0.0006, false},
		{"M1 NaN", moments.M1, math.NaN(), false},
		{"M9 NaN", moments.M9, math.NaN(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := passing()
			s[tt.d] = tt.value
			assert.Equal(t, tt.want, IsValid(s))
		})
	}
}

func TestCheck_ReportsFirstFailure(t *testing.T) {
	s := passing()
	s[moments.M3] = 1
	s[moments.M8] = 1

	failed, ok := Check(s)
	require.False(t, ok)
	assert.Equal(t, moments.M3, failed.Descriptor)
	assert.Equal(t, "M3 <= 0.001", failed.String())
}

func TestRules(t *testing.T) {
	rs := Rules()
	require.Len(t, rs, 6)

	used := make(map[moments.Descriptor]bool)
	for _, r := range rs {
		used[r.Descriptor] = true
	}
	for _, d := range []moments.Descriptor{moments.M1, moments.M2, moments.M3, moments.M7, moments.M8, moments.M9} {
		assert.True(t, used[d], "rule for %s missing", d)
	}

	// Mutating the copy must not affect validation.
	rs[0].Min = 100
	assert.True(t, IsValid(passing()))
}

func TestRule_String(t *testing.T) {
	assert.Equal(t, "0.15 <= M1 <= 0.2", Rule{Descriptor: moments.M1, Min: 0.15, Max: 0.2}.String())
	assert.Equal(t, "M4 >= 1", Rule{Descriptor: moments.M4, Min: 1, Max: math.Inf(1)}.String())
	assert.Equal(t, "M4 unbounded", Rule{Descriptor: moments.M4, Min: math.Inf(-1), Max: math.Inf(1)}.String())
}

func TestIsValid_RealSegments(t *testing.T) {
	// A filled disc is compact and symmetric: M1 ≈ 1/(2π) ≈ 0.159.
	disc := segment.Segment{ID: 1}
	const r = 20
	for y := -r; y <= r; y++ {
		for x := -r; x <= r; x++ {
			if x*x+y*y <= r*r {
				disc.Pixels = append(disc.Pixels, segment.Pixel{Row: y + 50, Col: x + 50})
			}
		}
	}
	set, err := moments.Compute(disc)
	require.NoError(t, err)
	assert.True(t, IsValid(set), "disc should pass: %v", set)

	// A long thin bar is far from compact.
	bar := segment.Segment{ID: 2}
	for c := 0; c < 60; c++ {
		for row := 0; row < 3; row++ {
			bar.Pixels = append(bar.Pixels, segment.Pixel{Row: row, Col: c})
		}
	}
	set, err = moments.Compute(bar)
	require.NoError(t, err)
	failed, ok := Check(set)
	assert.False(t, ok)
	assert.Equal(t, moments.M1, failed.Descriptor)
}
