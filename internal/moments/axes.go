package moments

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/brick-finder/internal/segment"
)

// Axes describes the ellipse with the same second moments as a segment.
type Axes struct {
	// CentroidX and CentroidY are the segment's center of mass (x = col, y = row).
	CentroidX float64 `json:"centroid_x"`
	CentroidY float64 `json:"centroid_y"`

	// Major and Minor are the full axis lengths of the equivalent ellipse.
	Major float64 `json:"major"`
	Minor float64 `json:"minor"`

	// Orientation is the angle in radians from the +x axis to the major axis,
	// in (-π/2, π/2]. With y pointing down, positive angles turn clockwise
	// on screen.
	Orientation float64 `json:"orientation"`

	// Eccentricity is 0 for a circle and approaches 1 for a line.
	Eccentricity float64 `json:"eccentricity"`
}

// PrincipalAxes computes the equivalent-ellipse axes of seg from the
// eigen-decomposition of its normalized second-moment matrix.
func PrincipalAxes(seg segment.Segment) (Axes, error) {
	if len(seg.Pixels) == 0 {
		return Axes{}, fmt.Errorf("segment %d: %w: no pixels", seg.ID, ErrDegenerateSegment)
	}

	raw := RawMoments(seg.Pixels)
	c := raw.Central()
	xc, yc := raw.Centroid()

	n := c.M00
	cov := mat.NewSymDense(2, []float64{
		c.M20 / n, c.M11 / n,
		c.M11 / n, c.M02 / n,
	})

	var eig mat.EigenSym
	if ok := eig.Factorize(cov, true); !ok {
		return Axes{}, fmt.Errorf("segment %d: eigen-decomposition of second moments failed", seg.ID)
	}

	// Values are ascending: vals[1] belongs to the major axis.
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	minorVar := math.Max(vals[0], 0)
	majorVar := math.Max(vals[1], 0)

	axes := Axes{
		CentroidX: xc,
		CentroidY: yc,
		Major:     4 * math.Sqrt(majorVar),
		Minor:     4 * math.Sqrt(minorVar),
	}

	if majorVar > 0 {
		axes.Eccentricity = math.Sqrt(1 - minorVar/majorVar)
		axes.Orientation = normalizeAngle(math.Atan2(vecs.At(1, 1), vecs.At(0, 1)))
	}
	return axes, nil
}

// normalizeAngle folds an axis direction into (-π/2, π/2]; an axis and its
// opposite describe the same line.
func normalizeAngle(a float64) float64 {
	for a > math.Pi/2 {
		a -= math.Pi
	}
	for a <= -math.Pi/2 {
		a += math.Pi
	}
	return a
}
