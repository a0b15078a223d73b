// Command brickfind runs the brick detector over a batch of photos and writes
// an overlay image (and optionally the cleaned mask and a moments CSV) for
// each one.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"

	"github.com/ironsheep/brick-finder/internal/config"
	"github.com/ironsheep/brick-finder/internal/imaging"
	"github.com/ironsheep/brick-finder/internal/moments"
	"github.com/ironsheep/brick-finder/internal/pipeline"
	"github.com/ironsheep/brick-finder/internal/segment"
)

var debug bool

func debugf(format string, args ...any) {
	if debug {
		log.Printf(format, args...)
	}
}

// outputOptions says what to write for each photo.
type outputOptions struct {
	Dir       string
	Ext       string
	Quality   int
	Paint     bool
	WriteMask bool
	WriteCSV  bool
}

// summary is the per-photo outcome printed to stdout.
type summary struct {
	Path     string
	Analyzed int
	Bricks   int
	Failures int
	Overlay  string
}

func (s summary) String() string {
	return fmt.Sprintf("%s: %d bricks among %d segments -> %s", s.Path, s.Bricks, s.Analyzed, s.Overlay)
}

func main() {
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	_ = godotenv.Load()

	var (
		cfgPath    = flag.String("config", os.Getenv("BRICK_MCP_CONFIG"), "YAML configuration file")
		initConfig = flag.String("init-config", "", "write the default configuration to this file and exit")
		outDir     = flag.String("out", "out", "directory for output images")
		writeCSV   = flag.Bool("csv", false, "write a ';'-separated moments CSV per photo")
		ext        = flag.String("ext", "", "overlay format: png, jpg or webp (default from config)")
		quality    = flag.Int("quality", 0, "JPEG/WebP quality 1-100 (default from config)")
		paint      = flag.Bool("paint", false, "paint every analyzed segment in the overlay")
		writeMask  = flag.Bool("mask", false, "also write the cleaned mask as PNG")
		workers    = flag.Int("workers", 0, "segment analysis goroutines per photo (default from config)")
		verbose    = flag.Bool("v", false, "enable debug logging")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: brickfind [flags] photo...\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *initConfig != "" {
		if err := config.Save(config.Default(), *initConfig); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("wrote default configuration to %s\n", *initConfig)
		return
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	debug = *verbose || cfg.Output.Verbose || os.Getenv("BRICK_MCP_LOG_LEVEL") == "debug"

	if *ext != "" {
		cfg.Output.Format = strings.TrimPrefix(strings.ToLower(*ext), ".")
	}
	if *quality != 0 {
		cfg.Output.Quality = *quality
	}
	if *workers != 0 {
		cfg.Processing.Workers = *workers
	}
	cfg.Output.PaintSegments = cfg.Output.PaintSegments || *paint

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	detector, err := pipeline.NewDetector(cfg, debugf)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	opts := outputOptions{
		Dir:       *outDir,
		Ext:       cfg.Output.Format,
		Quality:   cfg.Output.Quality,
		Paint:     cfg.Output.PaintSegments,
		WriteMask: *writeMask,
		WriteCSV:  *writeCSV,
	}

	if failed := processAll(flag.Args(), detector, opts, cfg.Processing.Images); failed > 0 {
		log.Printf("%d of %d photos failed", failed, flag.NArg())
		os.Exit(1)
	}
}

// processAll handles the photos with at most parallel of them in flight and
// returns how many failed. A failure is logged and does not stop the others.
func processAll(paths []string, d *pipeline.Detector, opts outputOptions, parallel int) int {
	if parallel <= 0 {
		parallel = 1
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	sem := make(chan struct{}, parallel)

	for _, p := range paths {
		wg.Add(1)
		sem <- struct{}{}
		go func(path string) {
			defer wg.Done()
			defer func() { <-sem }()

			s, err := processImage(path, d, opts)
			if err != nil {
				log.Printf("%s: %v", path, err)
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			fmt.Println(s)
		}(p)
	}
	wg.Wait()

	return failed
}

// processImage detects bricks in one photo and writes its outputs.
func processImage(path string, d *pipeline.Detector, opts outputOptions) (summary, error) {
	cache := imaging.NewImageCache()
	img, err := cache.Load(path)
	if err != nil {
		return summary{}, err
	}

	res, cleaned, err := d.Detect(img)
	if err != nil {
		return summary{}, fmt.Errorf("detection failed: %w", err)
	}
	for _, f := range res.Failures {
		log.Printf("%s: %s", path, f)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	outBase := filepath.Join(opts.Dir, base)

	canvas := img
	if opts.Paint {
		segs := make([]segment.Segment, len(res.Detections))
		for i, det := range res.Detections {
			segs[i] = det.Segment
		}
		canvas = imaging.PaintSegments(img, segs)
	}
	overlay := imaging.DrawBoxes(canvas, res.Boxes(), imaging.BoxColor)

	overlayPath := outBase + "_bricks." + opts.Ext
	if err := imaging.Save(overlay, overlayPath, opts.Quality); err != nil {
		return summary{}, err
	}
	debugf("%s: wrote %s", path, overlayPath)

	if opts.WriteMask {
		maskPath := outBase + "_mask.png"
		if err := imaging.Save(imaging.MaskImage(cleaned), maskPath, opts.Quality); err != nil {
			return summary{}, err
		}
		debugf("%s: wrote %s", path, maskPath)
	}

	if opts.WriteCSV {
		if err := writeMomentsCSV(outBase+"_moments.csv", res.Records()); err != nil {
			return summary{}, err
		}
	}

	return summary{
		Path:     path,
		Analyzed: len(res.Detections),
		Bricks:   len(res.Accepted()),
		Failures: len(res.Failures),
		Overlay:  overlayPath,
	}, nil
}

func writeMomentsCSV(path string, records []moments.Record) error {
	sets := make([]moments.Set, len(records))
	for i, r := range records {
		sets[i] = r.Set
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := moments.WriteCSV(f, sets); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
