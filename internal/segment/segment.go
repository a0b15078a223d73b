// Package segment groups the foreground pixels of a mask into maximal
// 4-connected regions.
//
// Find scans the mask in row-major order and grows each new region with a
// breadth-first flood fill. Region IDs start at 1 and follow discovery order,
// and pixels within a segment are listed in the order the fill reached them,
// so results are fully deterministic for a given mask.
package segment

import (
	"github.com/ironsheep/brick-finder/internal/mask"
)

// Pixel is a mask coordinate. Row is the vertical (y) axis, Col the
// horizontal (x) axis.
type Pixel struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Segment is one connected region of foreground pixels.
type Segment struct {
	// ID is unique within one Find call, starting at 1.
	ID int `json:"id"`

	// Pixels lists the region's coordinates in breadth-first discovery order.
	Pixels []Pixel `json:"pixels"`
}

// Len returns the number of pixels in the segment.
func (s Segment) Len() int { return len(s.Pixels) }

// Box is an inclusive bounding box in mask coordinates.
type Box struct {
	MinRow int `json:"min_row"`
	MinCol int `json:"min_col"`
	MaxRow int `json:"max_row"`
	MaxCol int `json:"max_col"`
}

// Width returns the number of columns covered by the box.
func (b Box) Width() int { return b.MaxCol - b.MinCol + 1 }

// Height returns the number of rows covered by the box.
func (b Box) Height() int { return b.MaxRow - b.MinRow + 1 }

// Bounds returns the smallest box enclosing every pixel of the segment.
// An empty segment yields the zero Box.
func (s Segment) Bounds() Box {
	if len(s.Pixels) == 0 {
		return Box{}
	}
	b := Box{
		MinRow: s.Pixels[0].Row, MaxRow: s.Pixels[0].Row,
		MinCol: s.Pixels[0].Col, MaxCol: s.Pixels[0].Col,
	}
	for _, p := range s.Pixels[1:] {
		if p.Row < b.MinRow {
			b.MinRow = p.Row
		}
		if p.Row > b.MaxRow {
			b.MaxRow = p.Row
		}
		if p.Col < b.MinCol {
			b.MinCol = p.Col
		}
		if p.Col > b.MaxCol {
			b.MaxCol = p.Col
		}
	}
	return b
}

// neighbors are the 4-connected offsets in the order they are enqueued:
// up, down, left, right.
var neighbors = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// Find returns the 4-connected foreground regions of m.
//
// The result is empty (never nil) when m has no foreground pixels. Every
// foreground pixel appears in exactly one segment.
func Find(m *mask.Mask) []Segment {
	rows, cols := m.Rows(), m.Cols()
	segments := make([]Segment, 0)

	// labels holds the segment ID per pixel; 0 means unassigned.
	labels := make([]int, rows*cols)
	queue := make([]Pixel, 0, 64)
	nextID := 0

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			if !m.At(row, col) || labels[row*cols+col] != 0 {
				continue
			}

			nextID++
			pixels := make([]Pixel, 0, 16)
			queue = append(queue[:0], Pixel{Row: row, Col: col})

			for head := 0; head < len(queue); head++ {
				cur := queue[head]
				idx := cur.Row*cols + cur.Col

				// A pixel may be queued by several neighbors; only the
				// first dequeue claims it.
				if labels[idx] != 0 {
					continue
				}
				labels[idx] = nextID
				pixels = append(pixels, cur)

				for _, d := range neighbors {
					nr, nc := cur.Row+d[0], cur.Col+d[1]
					if !m.Contains(nr, nc) {
						continue
					}
					if m.At(nr, nc) && labels[nr*cols+nc] == 0 {
						queue = append(queue, Pixel{Row: nr, Col: nc})
					}
				}
			}

			segments = append(segments, Segment{ID: nextID, Pixels: pixels})
		}
	}

	return segments
}

// FilterBySize keeps segments with more than minSize pixels and, when
// maxSize is positive, fewer than maxSize pixels. Order and IDs are kept.
func FilterBySize(segments []Segment, minSize, maxSize int) []Segment {
	out := make([]Segment, 0, len(segments))
	for _, s := range segments {
		n := s.Len()
		if n <= minSize {
			continue
		}
		if maxSize > 0 && n >= maxSize {
			continue
		}
		out = append(out, s)
	}
	return out
}
