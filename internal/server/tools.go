package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the photo",
	}
}

// pipelineProperties are the optional per-call overrides accepted by every
// tool that runs the mask pipeline.
func pipelineProperties() map[string]interface{} {
	return map[string]interface{}{
		"path": pathProperty(),
		"hsv": map[string]interface{}{
			"type":        "object",
			"description": "HSV range on the 8-bit scale (H 0-180, S and V 0-255). Defaults to the configured brick range.",
			"properties": map[string]interface{}{
				"min_h": map[string]interface{}{"type": "number"},
				"max_h": map[string]interface{}{"type": "number"},
				"min_s": map[string]interface{}{"type": "number"},
				"max_s": map[string]interface{}{"type": "number"},
				"min_v": map[string]interface{}{"type": "number"},
				"max_v": map[string]interface{}{"type": "number"},
			},
		},
		"denoise_radius": map[string]interface{}{
			"type":        "number",
			"description": "Median filter radius applied before classification; 0 disables it",
		},
		"morphology": map[string]interface{}{
			"type":        "array",
			"description": "Morphology passes applied in order, replacing the configured sequence. Window sides must be odd and positive.",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"op": map[string]interface{}{
						"type": "string",
						"enum": []string{"closing", "opening"},
					},
					"width":  map[string]interface{}{"type": "integer"},
					"height": map[string]interface{}{"type": "integer"},
				},
				"required": []string{"op", "width", "height"},
			},
		},
		"min_size": map[string]interface{}{
			"type":        "integer",
			"description": "Segments with this many pixels or fewer are ignored",
		},
		"max_size": map[string]interface{}{
			"type":        "integer",
			"description": "Segments with this many pixels or more are ignored; 0 disables the limit",
		},
	}
}

func withProperties(base map[string]interface{}, extra map[string]interface{}) map[string]interface{} {
	for k, v := range extra {
		base[k] = v
	}
	return base
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "brick_load",
			Description: "Load a photo and return its dimensions, format and file size. The decoded photo is cached for later calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "brick_sample_color",
			Description: "Read the color at a pixel with its HSV values on the classifier's 8-bit scale and in degrees/percent, and report whether the brick classifier accepts it. Use this to tune the HSV range.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate (0-based column)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate (0-based row)",
					},
					"hsv": pipelineProperties()["hsv"],
				},
				"required": []string{"path", "x", "y"},
			},
		},
		{
			Name:        "brick_mask",
			Description: "Classify the photo by HSV range and return the foreground mask as a base64 PNG (white = brick color) with the foreground pixel count.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(pipelineProperties(), map[string]interface{}{
					"cleaned": map[string]interface{}{
						"type":        "boolean",
						"description": "Apply the morphology passes before returning the mask. Default true",
						"default":     true,
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "brick_segments",
			Description: "List the 4-connected foreground segments that pass the size filter, with ID, pixel count and bounding box.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": pipelineProperties(),
				"required":   []string{"path"},
			},
		},
		{
			Name:        "brick_detect",
			Description: "Run the full detection pipeline and return every analyzed segment with its ten moment descriptors, principal axes and whether it matches the brick shape. Rejected segments name the first rule they failed.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(pipelineProperties(), map[string]interface{}{
					"accepted_only": map[string]interface{}{
						"type":        "boolean",
						"description": "Only return segments that match the brick shape",
						"default":     false,
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "brick_render",
			Description: "Draw bounding boxes around the detected bricks and return the overlay as a base64 PNG. Optionally paints every analyzed segment and saves the overlay to disk.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(pipelineProperties(), map[string]interface{}{
					"paint": map[string]interface{}{
						"type":        "boolean",
						"description": "Fill every analyzed segment with a random color",
						"default":     false,
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional file to write (.png, .jpg or .webp)",
					},
					"quality": map[string]interface{}{
						"type":        "integer",
						"description": "JPEG/WebP quality 1-100. Defaults to the configured quality",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "brick_crop_segment",
			Description: "Crop one segment's bounding box out of the photo and return it as a base64 PNG. Segment IDs are those reported by brick_segments or brick_detect for the same parameters.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(pipelineProperties(), map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "integer",
						"description": "Segment ID",
					},
					"padding": map[string]interface{}{
						"type":        "integer",
						"description": "Extra pixels around the box. Default 0",
						"default":     0,
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
				}),
				"required": []string{"path", "id"},
			},
		},
		{
			Name:        "brick_moments_csv",
			Description: "Return the moment descriptors of the analyzed segments as CSV text: one row per segment, ten ';'-separated values M1..M10.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(pipelineProperties(), map[string]interface{}{
					"labeled": map[string]interface{}{
						"type":        "boolean",
						"description": "Prefix each row with the segment ID and add a header line",
						"default":     false,
					},
					"accepted_only": map[string]interface{}{
						"type":        "boolean",
						"description": "Only export segments that match the brick shape",
						"default":     false,
					},
				}),
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
