package mask

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter is returned for malformed window dimensions.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrRaggedMask is returned when building a mask from rows of unequal length.
	ErrRaggedMask = errors.New("mask rows have unequal length")
)

// Mask is a rows × cols grid of foreground flags stored row-major.
//
// The zero value is an empty 0×0 mask.
type Mask struct {
	rows int
	cols int
	bits []bool
}

// New returns an all-background mask of the given size.
// Negative dimensions are treated as zero.
func New(rows, cols int) *Mask {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	return &Mask{
		rows: rows,
		cols: cols,
		bits: make([]bool, rows*cols),
	}
}

// FromRows builds a mask from a slice of rows. All rows must have the same
// length; the input is copied.
func FromRows(rows [][]bool) (*Mask, error) {
	if len(rows) == 0 {
		return New(0, 0), nil
	}

	cols := len(rows[0])
	m := New(len(rows), cols)
	for r, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrRaggedMask, r, len(row), cols)
		}
		copy(m.bits[r*cols:(r+1)*cols], row)
	}
	return m, nil
}

// Rows returns the number of rows (image height).
func (m *Mask) Rows() int { return m.rows }

// Cols returns the number of columns (image width).
func (m *Mask) Cols() int { return m.cols }

// Contains reports whether (row, col) lies inside the mask.
func (m *Mask) Contains(row, col int) bool {
	return row >= 0 && row < m.rows && col >= 0 && col < m.cols
}

// At reports whether (row, col) is foreground. Out-of-range coordinates
// are background.
func (m *Mask) At(row, col int) bool {
	if !m.Contains(row, col) {
		return false
	}
	return m.bits[row*m.cols+col]
}

// Set marks (row, col) as foreground or background. Out-of-range
// coordinates are ignored.
func (m *Mask) Set(row, col int, v bool) {
	if !m.Contains(row, col) {
		return
	}
	m.bits[row*m.cols+col] = v
}

// Count returns the number of foreground pixels.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.bits {
		if b {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the mask.
func (m *Mask) Clone() *Mask {
	c := &Mask{rows: m.rows, cols: m.cols, bits: make([]bool, len(m.bits))}
	copy(c.bits, m.bits)
	return c
}

// Equal reports whether two masks have the same size and contents.
func (m *Mask) Equal(o *Mask) bool {
	if m.rows != o.rows || m.cols != o.cols {
		return false
	}
	for i := range m.bits {
		if m.bits[i] != o.bits[i] {
			return false
		}
	}
	return true
}

// ToRows returns the mask as a freshly allocated slice of rows.
func (m *Mask) ToRows() [][]bool {
	out := make([][]bool, m.rows)
	for r := 0; r < m.rows; r++ {
		out[r] = make([]bool, m.cols)
		copy(out[r], m.bits[r*m.cols:(r+1)*m.cols])
	}
	return out
}

// String renders the mask with '#' for foreground and '.' for background,
// one line per row. Intended for test failure output.
func (m *Mask) String() string {
	buf := make([]byte, 0, m.rows*(m.cols+1))
	for r := 0; r < m.rows; r++ {
		for c := 0; c < m.cols; c++ {
			if m.bits[r*m.cols+c] {
				buf = append(buf, '#')
			} else {
				buf = append(buf, '.')
			}
		}
		buf = append(buf, '\n')
	}
	return string(buf)
}
