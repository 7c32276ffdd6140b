package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pointSchema(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": description,
		"properties": map[string]interface{}{
			"x": map[string]interface{}{"type": "number", "minimum": 0, "maximum": 1},
			"y": map[string]interface{}{"type": "number", "minimum": 0, "maximum": 1},
		},
		"required": []string{"x", "y"},
	}
}

// landmarksSchema describes compositor.Landmarks.
func landmarksSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": "Body keypoints normalized to [0,1] (x from the left, y from the top). When present, the garment is placed on the torso.",
		"properties": map[string]interface{}{
			"shoulder_left":  pointSchema("Left shoulder"),
			"shoulder_right": pointSchema("Right shoulder"),
			"hip_left":       pointSchema("Left hip"),
			"hip_right":      pointSchema("Right hip"),
		},
		"required": []string{"shoulder_left", "shoulder_right", "hip_left", "hip_right"},
	}
}

// regionSchema describes compositor.Region.
func regionSchema(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": description,
		"properties": map[string]interface{}{
			"x":      map[string]interface{}{"type": "integer", "description": "Left edge X coordinate (0-based, may be negative)"},
			"y":      map[string]interface{}{"type": "integer", "description": "Top edge Y coordinate (0-based, may be negative)"},
			"width":  map[string]interface{}{"type": "integer", "description": "Width in pixels (> 0)"},
			"height": map[string]interface{}{"type": "integer", "description": "Height in pixels (> 0)"},
		},
		"required": []string{"x", "y", "width", "height"},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Image Inspection
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format, alpha and file size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_sample_color",
			Description: "Get the color at a pixel. Use it to check a composite: pixels inside the placement region should carry garment colors.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate (0-based)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate (0-based)",
					},
				},
				"required": []string{"path", "x", "y"},
			},
		},
		{
			Name:        "image_dominant_colors",
			Description: "Extract the most common colors of an image or of one region of it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"count": map[string]interface{}{
						"type":        "integer",
						"description": "Number of colors to return. Default 5",
						"default":     5,
					},
					"region": regionSchema("Optional region to analyze"),
				},
				"required": []string{"path"},
			},
		},

		// Try-on
		{
			Name:        "tryon_region",
			Description: "Compute where a garment would be placed on a person photo. Uses the torso when landmarks are given, otherwise the configured proportional box.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"person_path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the person photo",
					},
					"garment_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path to the garment image (needed by the centered policy to keep its aspect ratio)",
					},
					"landmarks": landmarksSchema(),
				},
				"required": []string{"person_path"},
			},
		},
		{
			Name:        "tryon_preview_region",
			Description: "Draw the placement region (and landmarks, if given) on the person photo and return it as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"person_path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the person photo",
					},
					"garment_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path to the garment image",
					},
					"landmarks": landmarksSchema(),
					"region":    regionSchema("Explicit region to draw instead of computing one"),
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Outline color as hex (#RRGGBB or #RRGGBBAA). Default semi-transparent red",
					},
				},
				"required": []string{"person_path"},
			},
		},
		{
			Name:        "tryon_segment",
			Description: "Separate the person from a plain backdrop and return the binary mask as base64-encoded PNG (white = person).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the person photo",
					},
					"threshold": map[string]interface{}{
						"type":        "integer",
						"description": "Confidence above which a pixel is foreground (0-255). Default from server config",
					},
					"tolerance": map[string]interface{}{
						"type":        "number",
						"description": "Lab color distance from the backdrop that counts as fully foreground. Default from server config",
					},
					"blur_radius": map[string]interface{}{
						"type":        "number",
						"description": "Gaussian feathering radius applied before thresholding. 0 disables",
					},
					"keep_largest": map[string]interface{}{
						"type":        "boolean",
						"description": "Keep only the largest foreground blob",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "tryon_composite",
			Description: "Overlay a garment image onto a person photo. Transparent garments are alpha-blended; opaque garments replace the region, optionally only where the person mask is set. Returns the result as base64 and can write it to disk.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"person_path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the person photo",
					},
					"garment_path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the garment image (PNG with transparency recommended)",
					},
					"landmarks": landmarksSchema(),
					"region":    regionSchema("Explicit placement region; skips all placement policies"),
					"use_mask": map[string]interface{}{
						"type":        "boolean",
						"description": "Restrict an opaque garment to the person's silhouette. Default from server config",
					},
					"format": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"jpeg", "png", "webp"},
						"description": "Output format. Default from server config",
					},
					"quality": map[string]interface{}{
						"type":        "integer",
						"description": "JPEG/WebP quality 1-100. Default from server config",
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path to also write the encoded result to",
					},
				},
				"required": []string{"person_path", "garment_path"},
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
