package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image"

	"github.com/ironsheep/tryon-compositor-mcp/internal/compositor"
	"github.com/ironsheep/tryon-compositor-mcp/internal/detection"
	"github.com/ironsheep/tryon-compositor-mcp/internal/imaging"
	"github.com/ironsheep/tryon-compositor-mcp/internal/tryon"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "tryon_composite").
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
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
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
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads images from cache as needed
//  4. Calls the imaging, detection or tryon function
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Image Inspection
	case "image_load":
		return s.handleImageLoad(args)
	case "image_sample_color":
		return s.handleImageSampleColor(args)
	case "image_dominant_colors":
		return s.handleImageDominantColors(args)

	// Try-on
	case "tryon_region":
		return s.handleTryonRegion(ctx, args)
	case "tryon_preview_region":
		return s.handleTryonPreviewRegion(ctx, args)
	case "tryon_segment":
		return s.handleTryonSegment(ctx, args)
	case "tryon_composite":
		return s.handleTryonComposite(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
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
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Image Inspection Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

type imageSampleColorArgs struct {
	Path string `json:"path"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

func (s *Server) handleImageSampleColor(args json.RawMessage) (interface{}, error) {
	var a imageSampleColorArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.SampleColor(img, a.X, a.Y)
}

type imageDominantColorsArgs struct {
	Path   string             `json:"path"`
	Count  int                `json:"count"`
	Region *compositor.Region `json:"region,omitempty"`
}

func (s *Server) handleImageDominantColors(args json.RawMessage) (interface{}, error) {
	var a imageDominantColorsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Count == 0 {
		a.Count = 5
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	var regions []image.Rectangle
	if a.Region != nil {
		if !a.Region.Valid() {
			return nil, fmt.Errorf("region width and height must be positive")
		}
		regions = append(regions, a.Region.Rect().Add(img.Bounds().Min))
	}
	return imaging.DominantColors(img, a.Count, regions...), nil
}

// === Try-on Handlers ===

// placementArgs are shared by the tools that resolve a placement region.
type placementArgs struct {
	PersonPath  string                `json:"person_path"`
	GarmentPath string                `json:"garment_path"`
	Landmarks   *compositor.Landmarks `json:"landmarks,omitempty"`
	Region      *compositor.Region    `json:"region,omitempty"`
}

// loadPair loads the person image and, when a path is given, the garment.
func (s *Server) loadPair(personPath, garmentPath string) (person, garment image.Image, err error) {
	if personPath == "" {
		return nil, nil, fmt.Errorf("person_path is required")
	}
	person, err = s.cache.Load(personPath)
	if err != nil {
		return nil, nil, err
	}
	if garmentPath != "" {
		garment, err = s.cache.Load(garmentPath)
		if err != nil {
			return nil, nil, err
		}
	}
	return person, garment, nil
}

func (s *Server) handleTryonRegion(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a placementArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	person, garment, err := s.loadPair(a.PersonPath, a.GarmentPath)
	if err != nil {
		return nil, err
	}
	return s.tryon.Region(ctx, person, garment, a.Landmarks)
}

type previewArgs struct {
	placementArgs
	Color string `json:"color"`
}

// PreviewResult is the response of tryon_preview_region.
type PreviewResult struct {
	Region   compositor.Region `json:"region"`
	Policy   string            `json:"policy"`
	Fallback string            `json:"fallback,omitempty"`
	*imaging.EncodedImage
}

func (s *Server) handleTryonPreviewRegion(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a previewArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	person, garment, err := s.loadPair(a.PersonPath, a.GarmentPath)
	if err != nil {
		return nil, err
	}

	res := &tryon.Result{Policy: tryon.PolicyExplicit}
	if a.Region != nil {
		res.Region = *a.Region
	} else {
		res, err = s.tryon.Region(ctx, person, garment, a.Landmarks)
		if err != nil {
			return nil, err
		}
	}

	preview := imaging.DrawRegionPreview(person, res.Region, a.Landmarks, a.Color)
	encoded, err := imaging.Encode(preview, "png", 0)
	if err != nil {
		return nil, err
	}
	return &PreviewResult{
		Region:       res.Region,
		Policy:       res.Policy,
		Fallback:     res.Fallback,
		EncodedImage: encoded,
	}, nil
}

type segmentArgs struct {
	Path        string   `json:"path"`
	Threshold   *int     `json:"threshold,omitempty"`
	Tolerance   float64  `json:"tolerance"`
	BlurRadius  *float64 `json:"blur_radius,omitempty"`
	KeepLargest *bool    `json:"keep_largest,omitempty"`
}

// SegmentResult is the response of tryon_segment.
type SegmentResult struct {
	Coverage  float64 `json:"coverage"`
	Threshold int     `json:"threshold"`
	*imaging.EncodedImage
}

func (s *Server) handleTryonSegment(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a segmentArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	cfg := s.tryon.Config().Mask
	if a.Tolerance != 0 {
		cfg.Tolerance = a.Tolerance
	}
	if a.BlurRadius != nil {
		cfg.BlurRadius = *a.BlurRadius
	}
	if a.KeepLargest != nil {
		cfg.KeepLargest = *a.KeepLargest
	}
	threshold := cfg.Threshold
	if a.Threshold != nil {
		threshold = *a.Threshold
	}
	if threshold < 0 || threshold > 255 {
		return nil, fmt.Errorf("threshold must be between 0 and 255, got %d", threshold)
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	var seg detection.Segmenter = tryon.NewSegmenter(cfg)
	conf, err := seg.Segment(ctx, img)
	if err != nil {
		return nil, err
	}
	mask, err := compositor.NewMask(conf, uint8(threshold))
	if err != nil {
		return nil, err
	}

	encoded, err := imaging.Encode(mask.Gray(), "png", 0)
	if err != nil {
		return nil, err
	}
	return &SegmentResult{
		Coverage:     mask.Coverage(),
		Threshold:    threshold,
		EncodedImage: encoded,
	}, nil
}

type compositeArgs struct {
	placementArgs
	UseMask    *bool  `json:"use_mask,omitempty"`
	Format     string `json:"format"`
	Quality    int    `json:"quality"`
	OutputPath string `json:"output_path"`
}

// CompositeResult is the response of tryon_composite.
type CompositeResult struct {
	*tryon.Result
	OutputPath string `json:"output_path,omitempty"`
}

func (s *Server) handleTryonComposite(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a compositeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.GarmentPath == "" {
		return nil, fmt.Errorf("garment_path is required")
	}
	person, garment, err := s.loadPair(a.PersonPath, a.GarmentPath)
	if err != nil {
		return nil, err
	}

	res, err := s.tryon.Run(ctx, tryon.Request{
		Person:    person,
		Garment:   garment,
		Landmarks: a.Landmarks,
		Region:    a.Region,
		UseMask:   a.UseMask,
		Format:    a.Format,
		Quality:   a.Quality,
	})
	if err != nil {
		return nil, err
	}

	if a.OutputPath != "" {
		if err := res.Output.WriteFile(a.OutputPath); err != nil {
			return nil, err
		}
	}
	return &CompositeResult{Result: res, OutputPath: a.OutputPath}, nil
}
