// Package moments computes geometric moment descriptors for segments.
//
// Each pixel (row, col) of a segment is a unit mass at (x, y) = (col, row).
// From the raw moments m_pq = Σ x^p y^q the package derives central moments
// about the centroid and combines them into ten descriptors M1..M10, each
// normalized by a power of the pixel count.
//
// The descriptors are translation invariant but deliberately not the classical
// Hu invariants: several combinations (M5, M6, M9, M10) differ from the
// textbook forms and must stay as they are, because the brick validator's
// thresholds were tuned against exactly these values.
package moments

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/ironsheep/brick-finder/internal/segment"
)

// ErrDegenerateSegment is returned for a segment with no pixels.
var ErrDegenerateSegment = errors.New("degenerate segment")

// Descriptor names one of the ten moment descriptors.
type Descriptor int

// The descriptors, in export order.
const (
	M1 Descriptor = iota
	M2
	M3
	M4
	M5
	M6
	M7
	M8
	M9
	M10

	// Count is the number of descriptors in a Set.
	Count = int(M10) + 1
)

// String returns the descriptor name, e.g. "M7".
func (d Descriptor) String() string {
	if d < M1 || d > M10 {
		return fmt.Sprintf("Descriptor(%d)", int(d))
	}
	return fmt.Sprintf("M%d", int(d)+1)
}

// Descriptors lists all descriptors in order.
func Descriptors() []Descriptor {
	out := make([]Descriptor, Count)
	for i := range out {
		out[i] = Descriptor(i)
	}
	return out
}

// Set holds the ten descriptor values of one segment, indexed by Descriptor.
type Set [Count]float64

// Get returns the value of descriptor d.
func (s Set) Get(d Descriptor) float64 { return s[d] }

// MarshalJSON encodes the set as an object keyed "M1".."M10".
func (s Set) MarshalJSON() ([]byte, error) {
	m := make(map[string]float64, Count)
	for i, v := range s {
		m[Descriptor(i).String()] = v
	}
	return json.Marshal(m)
}

// Raw holds the raw moments m_pq up to third order.
type Raw struct {
	M00, M01, M10, M11, M20, M02, M21, M12, M30, M03 float64
}

// RawMoments accumulates raw moments over the pixels with x = col, y = row.
func RawMoments(pixels []segment.Pixel) Raw {
	var r Raw
	for _, p := range pixels {
		x := float64(p.Col)
		y := float64(p.Row)
		r.M00++
		r.M10 += x
		r.M01 += y
		r.M11 += x * y
		r.M20 += x * x
		r.M02 += y * y
		r.M21 += x * x * y
		r.M12 += y * y * x
		r.M30 += x * x * x
		r.M03 += y * y * y
	}
	return r
}

// Centroid returns (x̄, ȳ). The result is NaN for an empty point set.
func (r Raw) Centroid() (x, y float64) {
	return r.M10 / r.M00, r.M01 / r.M00
}

// Central holds moments about the centroid. First-order central moments are
// zero by construction and omitted.
type Central struct {
	M00, M11, M20, M02, M21, M12, M30, M03 float64
}

// Central derives the central moments from r.
func (r Raw) Central() Central {
	xc, yc := r.Centroid()
	return Central{
		M00: r.M00,
		M11: r.M11 - r.M10*r.M01/r.M00,
		M20: r.M20 - r.M10*r.M10/r.M00,
		M02: r.M02 - r.M01*r.M01/r.M00,
		M21: r.M21 - 2*r.M11*xc - r.M20*yc + 2*r.M01*xc*xc,
		M12: r.M12 - 2*r.M11*yc - r.M02*xc + 2*r.M10*yc*yc,
		M30: r.M30 - 3*r.M20*xc + 2*r.M10*xc*xc,
		M03: r.M03 - 3*r.M02*yc + 2*r.M01*yc*yc,
	}
}

// Compute returns the descriptor set of seg. A segment with no pixels yields
// an error wrapping ErrDegenerateSegment instead of NaN/Inf values.
func Compute(seg segment.Segment) (Set, error) {
	if len(seg.Pixels) == 0 {
		return Set{}, fmt.Errorf("segment %d: %w: no pixels", seg.ID, ErrDegenerateSegment)
	}
	return FromCentral(RawMoments(seg.Pixels).Central()), nil
}

// FromCentral combines central moments into the ten descriptors.
// c.M00 must be positive.
func FromCentral(c Central) Set {
	n := c.M00
	sq := func(v float64) float64 { return v * v }

	a := c.M30 + c.M12 // first third-order pair sum
	b := c.M21 + c.M03 // second third-order pair sum
	p := c.M30 - 3*c.M12
	q := 3*c.M21 - c.M03

	var s Set
	s[M1] = (c.M20 + c.M02) / sq(n)
	s[M2] = (sq(c.M20-c.M02) + 4*sq(c.M11)) / math.Pow(n, 4)
	s[M3] = (sq(p) + sq(q)) / math.Pow(n, 5)
	s[M4] = (sq(a) + sq(b)) / math.Pow(n, 5)
	s[M5] = (p*a*(sq(a)-3*sq(b)) + q*b*(3*sq(a)-sq(b))) / math.Pow(n, 10)
	s[M6] = ((c.M20-c.M02)*(sq(a)-sq(b)) + 4*c.M11*a*b) / math.Pow(n, 7)
	s[M7] = (c.M20*c.M02 - sq(c.M11)) / math.Pow(n, 4)
	s[M8] = (c.M30*c.M12 + c.M21*c.M03 - sq(c.M12) - sq(c.M21)) / math.Pow(n, 5)
	s[M9] = (c.M20*(c.M21*c.M03-sq(c.M12)) +
		c.M02*(c.M03*c.M12-sq(c.M21)) -
		c.M11*(c.M30*c.M03-c.M21*c.M12)) / math.Pow(n, 7)
	// The trailing "- M12" is linear, not squared.
	s[M10] = (sq(c.M30*c.M03-c.M12*c.M21) -
		4*(c.M30*c.M12-sq(c.M21))*(c.M03*c.M21-c.M12)) / math.Pow(n, 10)
	return s
}
