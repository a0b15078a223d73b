// Package server implements the MCP (Model Context Protocol) server for the
// brick finder.
//
// This package provides a JSON-RPC 2.0 server that exposes the detection
// pipeline through MCP, so an assistant can tune the color classifier on a
// photo, inspect the mask and segments, and retrieve detections.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Photo and color:
//   - brick_load: Load a photo and get metadata
//   - brick_sample_color: Color at a pixel with HSV and classifier verdict
//
// Pipeline stages:
//   - brick_mask: Classified (and optionally cleaned) mask as PNG
//   - brick_segments: Connected segments after the size filter
//   - brick_detect: Moments, axes and shape verdict per segment
//
// Outputs:
//   - brick_render: Overlay with boxes around accepted bricks
//   - brick_crop_segment: Crop of one segment's bounding box
//   - brick_moments_csv: Moment descriptors as ';'-separated CSV
//
// Every pipeline tool accepts per-call overrides (hsv, denoise_radius,
// morphology, min_size, max_size) on top of the server's configuration.
//
// # Image Caching
//
// Photos are decoded once and cached by path for the lifetime of the server
// process.
//
// # Error Handling
//
// Errors are returned as JSON-RPC error responses:
//   - -32601: unknown method
//   - -32602: malformed params, unknown tool or bad arguments
//   - -32000: tool execution failure, including invalid override values
//
// The data field carries the Go error string.
package server
