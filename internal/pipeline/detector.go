package pipeline

import (
	"fmt"
	"image"

	"github.com/ironsheep/brick-finder/internal/config"
	"github.com/ironsheep/brick-finder/internal/imaging"
	"github.com/ironsheep/brick-finder/internal/mask"
)

// Detector runs the whole photo-to-detections chain with one configuration:
// median denoise, HSV classification, then Run.
type Detector struct {
	cfg  *config.Config
	opts Options
}

// NewDetector validates cfg and prepares a Detector. logf may be nil.
func NewDetector(cfg *config.Config, logf func(format string, args ...any)) (*Detector, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	steps, err := cfg.Steps()
	if err != nil {
		return nil, err
	}
	return &Detector{
		cfg: cfg,
		opts: Options{
			Steps:          steps,
			MinSegmentSize: cfg.Segments.MinSize,
			MaxSegmentSize: cfg.Segments.MaxSize,
			Workers:        cfg.Processing.Workers,
			Logf:           logf,
		},
	}, nil
}

// Options returns the Run options derived from the configuration.
func (d *Detector) Options() Options {
	opts := d.opts
	opts.Steps = append([]mask.Step(nil), d.opts.Steps...)
	return opts
}

// Classify denoises img and marks the pixels inside the configured HSV range.
// The returned mask has not been cleaned by morphology.
func (d *Detector) Classify(img image.Image) *mask.Mask {
	denoised := imaging.Denoise(img, d.cfg.Denoise.Radius)
	return mask.FromImage(denoised, d.cfg.Classifier.Classifier())
}

// Detect runs the full chain on img. It returns the result together with the
// cleaned mask the segments were extracted from.
func (d *Detector) Detect(img image.Image) (*Result, *mask.Mask, error) {
	if img == nil {
		return nil, nil, fmt.Errorf("image is nil")
	}
	raw := d.Classify(img)
	d.opts.logf("classified %dx%d image: %d foreground pixels", raw.Cols(), raw.Rows(), raw.Count())
	return run(raw, d.opts)
}
