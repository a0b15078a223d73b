package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log"

	"github.com/ironsheep/brick-finder/internal/config"
	"github.com/ironsheep/brick-finder/internal/imaging"
	"github.com/ironsheep/brick-finder/internal/mask"
	"github.com/ironsheep/brick-finder/internal/moments"
	"github.com/ironsheep/brick-finder/internal/pipeline"
	"github.com/ironsheep/brick-finder/internal/segment"
)

// errInvalidArgs marks argument problems; they map to JSON-RPC -32602.
var errInvalidArgs = errors.New("invalid arguments")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "brick_detect").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Malformed parameters, unknown tools and bad arguments return -32602; any
// other tool failure returns -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		if errors.Is(err, errInvalidArgs) {
			return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
		}
		return s.errorResponse(req.ID, codeToolFailed, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "brick_load":
		return s.handleBrickLoad(args)
	case "brick_sample_color":
		return s.handleBrickSampleColor(args)
	case "brick_mask":
		return s.handleBrickMask(args)
	case "brick_segments":
		return s.handleBrickSegments(args)
	case "brick_detect":
		return s.handleBrickDetect(args)
	case "brick_render":
		return s.handleBrickRender(args)
	case "brick_crop_segment":
		return s.handleBrickCropSegment(args)
	case "brick_moments_csv":
		return s.handleBrickMomentsCSV(args)
	default:
		return nil, fmt.Errorf("%w: unknown tool: %s", errInvalidArgs, name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments; a missing object counts as empty.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(bytes.TrimSpace(args)) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	return nil
}

func (s *Server) loadImage(path string) (image.Image, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: path is required", errInvalidArgs)
	}
	return s.cache.Load(path)
}

func (s *Server) logf() func(format string, args ...any) {
	if !s.debug {
		return nil
	}
	return log.Printf
}

// pipelineArgs are the per-call overrides shared by every pipeline tool.
// Unset fields fall back to the server's configuration.
type pipelineArgs struct {
	Path          string                  `json:"path"`
	HSV           *mask.HSVRange          `json:"hsv,omitempty"`
	DenoiseRadius *float64                `json:"denoise_radius,omitempty"`
	Morphology    []config.MorphologyStep `json:"morphology,omitempty"`
	MinSize       *int                    `json:"min_size,omitempty"`
	MaxSize       *int                    `json:"max_size,omitempty"`
}

// detector builds a Detector from the server configuration with a's
// overrides applied. Invalid overrides fail config validation.
func (s *Server) detector(a *pipelineArgs) (*pipeline.Detector, error) {
	cfg := *s.cfg
	cfg.Morphology = append([]config.MorphologyStep(nil), s.cfg.Morphology...)

	if a.HSV != nil {
		cfg.Classifier = *a.HSV
	}
	if a.DenoiseRadius != nil {
		cfg.Denoise.Radius = *a.DenoiseRadius
	}
	if a.Morphology != nil {
		cfg.Morphology = a.Morphology
	}
	if a.MinSize != nil {
		cfg.Segments.MinSize = *a.MinSize
	}
	if a.MaxSize != nil {
		cfg.Segments.MaxSize = *a.MaxSize
	}

	return pipeline.NewDetector(&cfg, s.logf())
}

// prepare loads the photo and builds the detector for a pipeline tool.
func (s *Server) prepare(a *pipelineArgs) (image.Image, *pipeline.Detector, error) {
	img, err := s.loadImage(a.Path)
	if err != nil {
		return nil, nil, err
	}
	d, err := s.detector(a)
	if err != nil {
		return nil, nil, err
	}
	return img, d, nil
}

// === Photo and Color Handlers ===

type brickLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleBrickLoad(args json.RawMessage) (interface{}, error) {
	var a brickLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("%w: path is required", errInvalidArgs)
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

type brickSampleColorArgs struct {
	Path string         `json:"path"`
	X    int            `json:"x"`
	Y    int            `json:"y"`
	HSV  *mask.HSVRange `json:"hsv,omitempty"`
}

func (s *Server) handleBrickSampleColor(args json.RawMessage) (interface{}, error) {
	var a brickSampleColorArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	r := s.cfg.Classifier
	if a.HSV != nil {
		if err := a.HSV.Validate(); err != nil {
			return nil, err
		}
		r = *a.HSV
	}

	img, err := s.loadImage(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.SampleColor(img, a.X, a.Y, r)
}

// === Pipeline Handlers ===

type brickMaskArgs struct {
	pipelineArgs
	Cleaned *bool `json:"cleaned,omitempty"`
}

type maskResult struct {
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	Cleaned         bool    `json:"cleaned"`
	Foreground      int     `json:"foreground"`
	ForegroundRatio float64 `json:"foreground_ratio"`
	ImageBase64     string  `json:"image_base64"`
	MimeType        string  `json:"mime_type"`
}

func (s *Server) handleBrickMask(args json.RawMessage) (interface{}, error) {
	var a brickMaskArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, d, err := s.prepare(&a.pipelineArgs)
	if err != nil {
		return nil, err
	}

	m := d.Classify(img)
	cleaned := a.Cleaned == nil || *a.Cleaned
	if cleaned {
		if m, err = pipeline.Clean(m, d.Options()); err != nil {
			return nil, err
		}
	}

	encoded, err := imaging.EncodeBase64PNG(imaging.MaskImage(m))
	if err != nil {
		return nil, fmt.Errorf("failed to encode mask: %w", err)
	}

	res := &maskResult{
		Width:       m.Cols(),
		Height:      m.Rows(),
		Cleaned:     cleaned,
		Foreground:  m.Count(),
		ImageBase64: encoded,
		MimeType:    "image/png",
	}
	if total := m.Rows() * m.Cols(); total > 0 {
		res.ForegroundRatio = float64(res.Foreground) / float64(total)
	}
	return res, nil
}

type segmentInfo struct {
	ID   int         `json:"id"`
	Size int         `json:"size"`
	Box  segment.Box `json:"box"`
}

type segmentsResult struct {
	Count    int           `json:"count"`
	Segments []segmentInfo `json:"segments"`
}

func (s *Server) handleBrickSegments(args json.RawMessage) (interface{}, error) {
	var a pipelineArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, d, err := s.prepare(&a)
	if err != nil {
		return nil, err
	}

	_, segs, err := pipeline.Segments(d.Classify(img), d.Options())
	if err != nil {
		return nil, err
	}

	infos := make([]segmentInfo, len(segs))
	for i, sg := range segs {
		infos[i] = segmentInfo{ID: sg.ID, Size: sg.Len(), Box: sg.Bounds()}
	}
	return &segmentsResult{Count: len(infos), Segments: infos}, nil
}

type detectionView struct {
	ID         int          `json:"id"`
	Size       int          `json:"size"`
	Box        segment.Box  `json:"box"`
	Accepted   bool         `json:"accepted"`
	FailedRule string       `json:"failed_rule,omitempty"`
	Moments    moments.Set  `json:"moments"`
	Axes       moments.Axes `json:"axes"`
}

type detectResult struct {
	Width      int             `json:"width"`
	Height     int             `json:"height"`
	Foreground int             `json:"foreground"`
	Analyzed   int             `json:"analyzed"`
	Accepted   int             `json:"accepted"`
	Detections []detectionView `json:"detections"`
	Failures   []string        `json:"failures,omitempty"`
}

type brickDetectArgs struct {
	pipelineArgs
	AcceptedOnly bool `json:"accepted_only"`
}

func (s *Server) handleBrickDetect(args json.RawMessage) (interface{}, error) {
	var a brickDetectArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, d, err := s.prepare(&a.pipelineArgs)
	if err != nil {
		return nil, err
	}

	res, _, err := d.Detect(img)
	if err != nil {
		return nil, err
	}

	out := &detectResult{
		Width:      res.Cols,
		Height:     res.Rows,
		Foreground: res.Foreground,
		Analyzed:   len(res.Detections),
		Accepted:   len(res.Accepted()),
		Detections: make([]detectionView, 0, len(res.Detections)),
	}
	for _, det := range res.Detections {
		if a.AcceptedOnly && !det.Accepted {
			continue
		}
		v := detectionView{
			ID:       det.ID,
			Size:     det.Size,
			Box:      det.Box,
			Accepted: det.Accepted,
			Moments:  det.Moments,
			Axes:     det.Axes,
		}
		if det.Failed != nil {
			v.FailedRule = det.Failed.String()
		}
		out.Detections = append(out.Detections, v)
	}
	for _, f := range res.Failures {
		out.Failures = append(out.Failures, f.String())
	}
	return out, nil
}

type brickRenderArgs struct {
	pipelineArgs
	Paint      bool   `json:"paint"`
	OutputPath string `json:"output_path"`
	Quality    int    `json:"quality"`
}

type renderResult struct {
	Width       int           `json:"width"`
	Height      int           `json:"height"`
	Bricks      int           `json:"bricks"`
	Boxes       []segment.Box `json:"boxes"`
	SavedTo     string        `json:"saved_to,omitempty"`
	ImageBase64 string        `json:"image_base64"`
	MimeType    string        `json:"mime_type"`
}

func (s *Server) handleBrickRender(args json.RawMessage) (interface{}, error) {
	var a brickRenderArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Quality < 0 || a.Quality > 100 {
		return nil, fmt.Errorf("%w: quality must be between 1 and 100", errInvalidArgs)
	}
	img, d, err := s.prepare(&a.pipelineArgs)
	if err != nil {
		return nil, err
	}

	res, _, err := d.Detect(img)
	if err != nil {
		return nil, err
	}

	base := img
	if a.Paint || s.cfg.Output.PaintSegments {
		segs := make([]segment.Segment, len(res.Detections))
		for i, det := range res.Detections {
			segs[i] = det.Segment
		}
		base = imaging.PaintSegments(img, segs)
	}
	boxes := res.Boxes()
	overlay := imaging.DrawBoxes(base, boxes, imaging.BoxColor)

	out := &renderResult{
		Width:    overlay.Bounds().Dx(),
		Height:   overlay.Bounds().Dy(),
		Bricks:   len(boxes),
		Boxes:    boxes,
		MimeType: "image/png",
	}

	if a.OutputPath != "" {
		quality := a.Quality
		if quality == 0 {
			quality = s.cfg.Output.Quality
		}
		if err := imaging.Save(overlay, a.OutputPath, quality); err != nil {
			return nil, err
		}
		out.SavedTo = a.OutputPath
	}

	if out.ImageBase64, err = imaging.EncodeBase64PNG(overlay); err != nil {
		return nil, fmt.Errorf("failed to encode overlay: %w", err)
	}
	return out, nil
}

type brickCropSegmentArgs struct {
	pipelineArgs
	ID      int      `json:"id"`
	Padding int      `json:"padding"`
	Scale   *float64 `json:"scale,omitempty"`
}

func (s *Server) handleBrickCropSegment(args json.RawMessage) (interface{}, error) {
	var a brickCropSegmentArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.ID <= 0 {
		return nil, fmt.Errorf("%w: id must be a positive segment ID", errInvalidArgs)
	}
	scale := 1.0
	if a.Scale != nil {
		scale = *a.Scale
	}

	img, d, err := s.prepare(&a.pipelineArgs)
	if err != nil {
		return nil, err
	}

	_, segs, err := pipeline.Segments(d.Classify(img), d.Options())
	if err != nil {
		return nil, err
	}
	for _, sg := range segs {
		if sg.ID == a.ID {
			return imaging.CropBox(img, sg.Bounds(), a.Padding, scale)
		}
	}
	return nil, fmt.Errorf("segment %d not found among %d segments", a.ID, len(segs))
}

type brickMomentsCSVArgs struct {
	pipelineArgs
	Labeled      bool `json:"labeled"`
	AcceptedOnly bool `json:"accepted_only"`
}

type momentsCSVResult struct {
	Rows int    `json:"rows"`
	CSV  string `json:"csv"`
}

func (s *Server) handleBrickMomentsCSV(args json.RawMessage) (interface{}, error) {
	var a brickMomentsCSVArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, d, err := s.prepare(&a.pipelineArgs)
	if err != nil {
		return nil, err
	}

	res, _, err := d.Detect(img)
	if err != nil {
		return nil, err
	}

	dets := res.Detections
	if a.AcceptedOnly {
		dets = res.Accepted()
	}
	records := make([]moments.Record, len(dets))
	for i, det := range dets {
		records[i] = moments.Record{ID: det.ID, Set: det.Moments}
	}

	var buf bytes.Buffer
	if a.Labeled {
		err = moments.WriteLabeledCSV(&buf, records)
	} else {
		sets := make([]moments.Set, len(records))
		for i, r := range records {
			sets[i] = r.Set
		}
		err = moments.WriteCSV(&buf, sets)
	}
	if err != nil {
		return nil, err
	}
	return &momentsCSVResult{Rows: len(records), CSV: buf.String()}, nil
}
