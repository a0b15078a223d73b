// Package imaging loads brick photos and produces the images the finder
// hands back to its callers.
//
// It covers the pixel-level work around the mask pipeline: decoding photos
// (with EXIF orientation applied), median denoising before classification,
// color sampling for tuning the HSV range, and rendering results as box
// overlays, painted segments, mask images and crops.
//
// # Coordinate System
//
// Pixel coordinates are 0-based relative to the image's top-left corner:
//   - X (column) increases rightward
//   - Y (row) increases downward
//
// segment.Box values use the same origin with Row = Y and Col = X, so boxes
// produced from a mask of an image can be drawn on or cropped from that image
// directly.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. All other functions are stateless
// and return new images; inputs are never modified.
//
// # Output Formats
//
// Save picks the encoder from the file extension: PNG and JPEG are written
// with disintegration/imaging, WebP with chai2010/webp. Base64 payloads for
// the MCP server are always PNG.
package imaging
