// Package imaging is the encoded-bytes boundary around the compositor.
//
// It turns uploaded person and garment files into image.Image values, encodes
// composited results back to JPEG, PNG or WebP, and provides the inspection
// helpers used by the MCP tools: image metadata, pixel sampling, palette
// extraction and placement previews.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based and relative to the
// image's top-left corner:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For rectangles, Min is inclusive and Max is exclusive
//
// # Supported Formats
//
// Decoding: JPEG (with EXIF orientation applied), PNG, GIF, BMP, TIFF, WebP.
// Encoding: JPEG (quality 1-100), PNG, WebP.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. All other functions are
// stateless and never modify their input images.
//
// # Error Handling
//
// Empty or undecodable inputs are reported as *compositor.DecodeError so the
// try-on pipeline can tell a bad upload apart from a placement failure.
// Everything else is wrapped with fmt.Errorf and %w.
package imaging
