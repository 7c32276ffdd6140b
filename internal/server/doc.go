// Package server implements the MCP (Model Context Protocol) server for the
// garment try-on compositor.
//
// This package provides a JSON-RPC 2.0 server that exposes placement,
// segmentation and compositing through the MCP protocol, so an assistant can
// dress a person photo and inspect the result.
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
// Image Inspection:
//   - image_load: Load image and get metadata
//   - image_sample_color: Get color at pixel
//   - image_dominant_colors: Extract color palette
//
// Try-on:
//   - tryon_region: Compute the placement region
//   - tryon_preview_region: Draw the region on the person photo
//   - tryon_segment: Person mask against a plain backdrop
//   - tryon_composite: Overlay the garment and encode the result
//
// # Image Caching
//
// Images are cached by path and reused across tool calls, so a person photo
// previewed, segmented and composited is decoded once. The cache persists for
// the lifetime of the server process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure), -32602 (malformed tools/call
//     params), -32601 (unknown method) or -32700 (unparseable line)
//   - message: Human-readable error description
//   - data: The Go error string, e.g. a decode failure naming the input
//
// # Usage
//
//	cfg, err := config.FromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	srv := server.New(cfg, server.WithVersion(Version))
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
