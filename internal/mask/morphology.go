package mask

import (
	"fmt"
	"strings"
)

// Op identifies a single-pass morphology operation.
type Op int

const (
	// OpClosing is the single dilation pass performed by Closing.
	OpClosing Op = iota + 1
	// OpOpening is the single erosion pass performed by Opening.
	OpOpening
)

// String returns the configuration name of the operation.
func (o Op) String() string {
	switch o {
	case OpClosing:
		return "closing"
	case OpOpening:
		return "opening"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// ParseOp maps a configuration name ("closing" or "opening", case-insensitive)
// to an Op.
func ParseOp(name string) (Op, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "closing", "close", "dilate":
		return OpClosing, nil
	case "opening", "open", "erode":
		return OpOpening, nil
	default:
		return 0, fmt.Errorf("%w: unknown morphology operation %q", ErrInvalidParameter, name)
	}
}

// Step is one morphology operation with its structuring window.
type Step struct {
	Op     Op
	Width  int
	Height int
}

// String formats the step as "closing 7x7".
func (s Step) String() string {
	return fmt.Sprintf("%s %dx%d", s.Op, s.Width, s.Height)
}

// Closing sets every interior pixel whose width × height window contains at
// least one foreground pixel. Border pixels are copied unchanged.
//
// width and height must be positive odd integers; otherwise an error wrapping
// ErrInvalidParameter is returned and no mask is produced.
func Closing(m *Mask, width, height int) (*Mask, error) {
	if err := ValidateWindow(width, height); err != nil {
		return nil, err
	}
	return sweep(m, width, height, true), nil
}

// Opening clears every interior pixel whose width × height window contains at
// least one background pixel. Border pixels are copied unchanged.
//
// width and height must be positive odd integers; otherwise an error wrapping
// ErrInvalidParameter is returned and no mask is produced.
func Opening(m *Mask, width, height int) (*Mask, error) {
	if err := ValidateWindow(width, height); err != nil {
		return nil, err
	}
	return sweep(m, width, height, false), nil
}

// Apply runs the steps in order and returns the final mask. The input mask is
// left untouched. Every step is validated before any pixel is processed.
func Apply(m *Mask, steps ...Step) (*Mask, error) {
	for i, s := range steps {
		if s.Op != OpClosing && s.Op != OpOpening {
			return nil, fmt.Errorf("step %d: %w: unknown operation %v", i, ErrInvalidParameter, s.Op)
		}
		if err := ValidateWindow(s.Width, s.Height); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, s, err)
		}
	}

	out := m
	for _, s := range steps {
		out = sweep(out, s.Width, s.Height, s.Op == OpClosing)
	}
	if out == m {
		out = m.Clone()
	}
	return out, nil
}

// ValidateWindow checks that a structuring window has positive odd sides.
func ValidateWindow(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: window %dx%d must be positive", ErrInvalidParameter, width, height)
	}
	if width%2 == 0 || height%2 == 0 {
		return fmt.Errorf("%w: window %dx%d must have odd sides", ErrInvalidParameter, width, height)
	}
	return nil
}

// sweep performs one window pass. When target is true the pass is a dilation
// (any true in window -> true); when false it is an erosion (any false in
// window -> false).
func sweep(m *Mask, width, height int, target bool) *Mask {
	out := m.Clone()
	hw, hh := width/2, height/2

	for row := hh; row < m.rows-hh; row++ {
		for col := hw; col < m.cols-hw; col++ {
			if windowHas(m, row, col, hw, hh, target) {
				out.bits[row*m.cols+col] = target
			} else {
				out.bits[row*m.cols+col] = !target
			}
		}
	}
	return out
}

// windowHas reports whether any pixel of the window centered at (row, col)
// equals v. The caller guarantees the window lies inside the mask.
func windowHas(m *Mask, row, col, hw, hh int, v bool) bool {
	for r := row - hh; r <= row+hh; r++ {
		base := r * m.cols
		for c := col - hw; c <= col+hw; c++ {
			if m.bits[base+c] == v {
				return true
			}
		}
	}
	return false
}
