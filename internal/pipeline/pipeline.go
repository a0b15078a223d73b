// Package pipeline turns a foreground mask into validated brick detections.
//
// Run applies the configured morphology, extracts 4-connected segments,
// drops segments outside the size limits and analyzes the rest on a bounded
// worker pool. Morphology and segmentation are sequential; only per-segment
// analysis runs in parallel, and every worker writes its own result slot so
// the output order is the segment ID order regardless of scheduling.
package pipeline

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/ironsheep/brick-finder/internal/mask"
	"github.com/ironsheep/brick-finder/internal/moments"
	"github.com/ironsheep/brick-finder/internal/segment"
	"github.com/ironsheep/brick-finder/internal/shape"
)

// Options controls a Run.
type Options struct {
	// Steps are applied to the mask in order before segmentation.
	Steps []mask.Step

	// MinSegmentSize drops segments with this many pixels or fewer.
	MinSegmentSize int

	// MaxSegmentSize drops segments with this many pixels or more; 0 disables it.
	MaxSegmentSize int

	// Workers bounds the analysis goroutines; <= 0 means runtime.NumCPU().
	Workers int

	// Logf receives debug messages when set.
	Logf func(format string, args ...any)
}

func (o Options) logf(format string, args ...any) {
	if o.Logf != nil {
		o.Logf(format, args...)
	}
}

// Detection is the analysis of one segment.
type Detection struct {
	ID       int             `json:"id"`
	Size     int             `json:"size"`
	Box      segment.Box     `json:"box"`
	Moments  moments.Set     `json:"moments"`
	Axes     moments.Axes    `json:"axes"`
	Accepted bool            `json:"accepted"`
	Failed   *shape.Rule     `json:"-"`
	Segment  segment.Segment `json:"-"`
}

// Failure records a segment whose analysis returned an error.
type Failure struct {
	ID  int   `json:"id"`
	Err error `json:"-"`
}

func (f Failure) String() string {
	return fmt.Sprintf("segment %d: %v", f.ID, f.Err)
}

// Result is the outcome of a Run.
type Result struct {
	Rows       int         `json:"rows"`
	Cols       int         `json:"cols"`
	Foreground int         `json:"foreground"`
	Found      int         `json:"found"`
	Detections []Detection `json:"detections"`
	Failures   []Failure   `json:"-"`
}

// Accepted returns the detections whose moments passed the shape rules,
// in segment ID order.
func (r *Result) Accepted() []Detection {
	out := make([]Detection, 0, len(r.Detections))
	for _, d := range r.Detections {
		if d.Accepted {
			out = append(out, d)
		}
	}
	return out
}

// Boxes returns the bounding boxes of the accepted detections.
func (r *Result) Boxes() []segment.Box {
	accepted := r.Accepted()
	boxes := make([]segment.Box, len(accepted))
	for i, d := range accepted {
		boxes[i] = d.Box
	}
	return boxes
}

// Records returns the moment sets of every analyzed segment, for CSV export.
func (r *Result) Records() []moments.Record {
	recs := make([]moments.Record, len(r.Detections))
	for i, d := range r.Detections {
		recs[i] = moments.Record{ID: d.ID, Set: d.Moments}
	}
	return recs
}

// analyze is swapped out by tests to inject per-segment failures.
var analyze = Analyze

// Analyze computes the moments and principal axes of seg and checks them
// against the shape rules. A rejected shape is not an error.
func Analyze(seg segment.Segment) (Detection, error) {
	set, err := moments.Compute(seg)
	if err != nil {
		return Detection{}, err
	}
	axes, err := moments.PrincipalAxes(seg)
	if err != nil {
		return Detection{}, err
	}

	d := Detection{
		ID:      seg.ID,
		Size:    seg.Len(),
		Box:     seg.Bounds(),
		Moments: set,
		Axes:    axes,
		Segment: seg,
	}
	if failed, ok := shape.Check(set); ok {
		d.Accepted = true
	} else {
		d.Failed = &failed
	}
	return d, nil
}

// Clean applies the morphology steps of opts to m. It fails before touching
// the mask when any step has an invalid window.
func Clean(m *mask.Mask, opts Options) (*mask.Mask, error) {
	cleaned, err := mask.Apply(m, opts.Steps...)
	if err != nil {
		return nil, fmt.Errorf("morphology failed: %w", err)
	}
	return cleaned, nil
}

// Segments cleans m and returns the segments that pass the size filter.
func Segments(m *mask.Mask, opts Options) (*mask.Mask, []segment.Segment, error) {
	cleaned, err := Clean(m, opts)
	if err != nil {
		return nil, nil, err
	}
	all := segment.Find(cleaned)
	kept := segment.FilterBySize(all, opts.MinSegmentSize, opts.MaxSegmentSize)
	opts.logf("found %d segments, %d within size limits (%d, %d)",
		len(all), len(kept), opts.MinSegmentSize, opts.MaxSegmentSize)
	return cleaned, kept, nil
}

// Run executes the full mask pipeline. The input mask is not modified.
func Run(m *mask.Mask, opts Options) (*Result, error) {
	res, _, err := run(m, opts)
	return res, err
}

func run(m *mask.Mask, opts Options) (*Result, *mask.Mask, error) {
	if m == nil {
		return nil, nil, errors.New("mask is nil")
	}

	cleaned, segs, err := Segments(m, opts)
	if err != nil {
		return nil, nil, err
	}

	res := &Result{
		Rows:       cleaned.Rows(),
		Cols:       cleaned.Cols(),
		Foreground: cleaned.Count(),
		Found:      len(segs),
	}

	type slot struct {
		det Detection
		err error
	}
	slots := make([]slot, len(segs))

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(segs) {
		workers = len(segs)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				det, err := analyze(segs[idx])
				slots[idx] = slot{det: det, err: err}
			}
		}()
	}
	for i := range segs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	res.Detections = make([]Detection, 0, len(segs))
	for i, s := range slots {
		if s.err != nil {
			opts.logf("segment %d analysis failed: %v", segs[i].ID, s.err)
			res.Failures = append(res.Failures, Failure{ID: segs[i].ID, Err: s.err})
			continue
		}
		if !s.det.Accepted {
			opts.logf("segment %d rejected by %s", s.det.ID, s.det.Failed)
		}
		res.Detections = append(res.Detections, s.det)
	}

	opts.logf("analyzed %d segments: %d accepted, %d failed",
		len(segs), len(res.Accepted()), len(res.Failures))
	return res, cleaned, nil
}
