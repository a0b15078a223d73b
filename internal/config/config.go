// Package config provides configuration loading and management for the brick
// finder. Configuration lives in a YAML file; every field has a default tuned
// for the reference photo set.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/brick-finder/internal/mask"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// MorphologyStep is one configured morphology pass.
type MorphologyStep struct {
	// Op is "closing" or "opening".
	Op string `yaml:"op" json:"op"`

	// Width and Height are the structuring window sides; both must be odd.
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// Config represents the application configuration loaded from YAML
type Config struct {
	// Classifier is the HSV range (OpenCV 8-bit scale) that marks brick pixels.
	Classifier mask.HSVRange `yaml:"classifier"`

	// Denoise controls the median filter applied before classification.
	Denoise struct {
		// Radius of the median window; 2 gives a 5x5 window, 0 disables it.
		Radius float64 `yaml:"radius"`
	} `yaml:"denoise"`

	// Morphology lists the passes applied to the mask, in order.
	Morphology []MorphologyStep `yaml:"morphology"`

	// Segments holds the size pre-filter applied before moment analysis.
	Segments struct {
		// MinSize drops segments with MinSize pixels or fewer.
		MinSize int `yaml:"minSize"`

		// MaxSize drops segments with MaxSize pixels or more; 0 disables it.
		MaxSize int `yaml:"maxSize"`
	} `yaml:"segments"`

	// Processing parameters
	Processing struct {
		// Workers is the number of goroutines analyzing segments of one image.
		Workers int `yaml:"workers"`

		// Images is how many images the CLI processes at once.
		Images int `yaml:"images"`
	} `yaml:"processing"`

	// Output parameters
	Output struct {
		// Format is the overlay format: png, jpg or webp.
		Format string `yaml:"format"`

		// Quality applies to jpg and webp output (1-100).
		Quality int `yaml:"quality"`

		// PaintSegments colors every analyzed segment in the overlay.
		PaintSegments bool `yaml:"paintSegments"`

		// Verbose enables debug logging.
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// Default returns a configuration with default values
func Default() *Config {
	cfg := &Config{}

	cfg.Classifier = mask.BrickRange
	cfg.Denoise.Radius = 2

	// Fill gaps, then strip the halo and finally the remaining speckle.
	cfg.Morphology = []MorphologyStep{
		{Op: "closing", Width: 7, Height: 7},
		{Op: "opening", Width: 7, Height: 7},
		{Op: "opening", Width: 3, Height: 3},
	}

	cfg.Segments.MinSize = 100
	cfg.Segments.MaxSize = 0

	cfg.Processing.Workers = runtime.NumCPU()
	cfg.Processing.Images = 2

	cfg.Output.Format = "png"
	cfg.Output.Quality = 90
	cfg.Output.PaintSegments = false
	cfg.Output.Verbose = false

	return cfg
}

// Load loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
// Fields missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file, creating parent directories.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// Steps converts the configured morphology passes into mask steps.
func (c *Config) Steps() ([]mask.Step, error) {
	steps := make([]mask.Step, 0, len(c.Morphology))
	for i, m := range c.Morphology {
		op, err := mask.ParseOp(m.Op)
		if err != nil {
			return nil, fmt.Errorf("morphology[%d]: %w", i, err)
		}
		steps = append(steps, mask.Step{Op: op, Width: m.Width, Height: m.Height})
	}
	return steps, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.Classifier.Validate(); err != nil {
		return fmt.Errorf("%w: classifier: %v", ErrInvalidConfig, err)
	}

	if c.Denoise.Radius < 0 {
		return fmt.Errorf("%w: denoise.radius must not be negative", ErrInvalidConfig)
	}

	steps, err := c.Steps()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	for i, s := range steps {
		if err := mask.ValidateWindow(s.Width, s.Height); err != nil {
			return fmt.Errorf("%w: morphology[%d]: %v", ErrInvalidConfig, i, err)
		}
	}

	if c.Segments.MinSize < 0 {
		return fmt.Errorf("%w: segments.minSize must not be negative", ErrInvalidConfig)
	}
	if c.Segments.MaxSize < 0 {
		return fmt.Errorf("%w: segments.maxSize must not be negative", ErrInvalidConfig)
	}
	if c.Segments.MaxSize > 0 && c.Segments.MaxSize <= c.Segments.MinSize {
		return fmt.Errorf("%w: segments.maxSize must exceed segments.minSize", ErrInvalidConfig)
	}

	if c.Processing.Workers < 0 || c.Processing.Images < 0 {
		return fmt.Errorf("%w: processing counts must not be negative", ErrInvalidConfig)
	}

	switch c.Output.Format {
	case "png", "jpg", "jpeg", "webp":
	default:
		return fmt.Errorf("%w: output.format %q must be png, jpg or webp", ErrInvalidConfig, c.Output.Format)
	}
	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("%w: output.quality must be between 1 and 100", ErrInvalidConfig)
	}

	return nil
}
