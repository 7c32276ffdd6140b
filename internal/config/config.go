// Package config holds the try-on server configuration.
//
// Values come from three layers, later ones winning: Default(), an optional
// JSON file, and TRYON_* environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ironsheep/tryon-compositor-mcp/internal/compositor"
	"github.com/ironsheep/tryon-compositor-mcp/internal/imaging"
)

// Placement policy names.
const (
	PolicyFixedBox = "fixed_box"
	PolicyCentered = "centered"
)

// Config holds the application configuration.
type Config struct {
	Placement PlacementConfig `json:"placement"`
	Mask      MaskConfig      `json:"mask"`
	Output    OutputConfig    `json:"output"`
}

// PlacementConfig controls where the garment goes.
type PlacementConfig struct {
	// Policy is the proportional policy used when no landmarks are available
	// or the landmark region is rejected.
	Policy string `json:"policy"`

	// Box fractions for the fixed_box policy.
	BoxX      float64 `json:"box_x"`
	BoxY      float64 `json:"box_y"`
	BoxWidth  float64 `json:"box_width"`
	BoxHeight float64 `json:"box_height"`

	// Landmark policy scale factors.
	GarmentWidthFactor float64 `json:"garment_width_factor"`
	TorsoHeightFactor  float64 `json:"torso_height_factor"`
}

// MaskConfig controls person segmentation.
type MaskConfig struct {
	Enabled     bool    `json:"enabled"`
	Threshold   int     `json:"threshold"`
	Tolerance   float64 `json:"tolerance"`
	BlurRadius  float64 `json:"blur_radius"`
	KeepLargest bool    `json:"keep_largest"`
}

// OutputConfig controls how composites are encoded.
type OutputConfig struct {
	Format      string `json:"format"`
	JPEGQuality int    `json:"jpeg_quality"`
}

// Default returns a configuration with default values.
func Default() *Config {
	return &Config{
		Placement: PlacementConfig{
			Policy:             PolicyFixedBox,
			BoxX:               compositor.FixedBoxPolicy.XFrac,
			BoxY:               compositor.FixedBoxPolicy.YFrac,
			BoxWidth:           compositor.FixedBoxPolicy.WidthFrac,
			BoxHeight:          compositor.FixedBoxPolicy.HeightFrac,
			GarmentWidthFactor: compositor.DefaultLandmarkPolicy.WidthFactor,
			TorsoHeightFactor:  compositor.DefaultLandmarkPolicy.HeightFactor,
		},
		Mask: MaskConfig{
			Enabled:     false,
			Threshold:   int(compositor.DefaultMaskThreshold),
			Tolerance:   0.25,
			BlurRadius:  0,
			KeepLargest: true,
		},
		Output: OutputConfig{
			Format:      "jpeg",
			JPEGQuality: imaging.DefaultJPEGQuality,
		},
	}
}

// LoadFromFile reads a JSON configuration file on top of the defaults.
// Keys missing from the file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// FromEnv builds the configuration from the defaults, the file named by
// TRYON_CONFIG (if set), and TRYON_* overrides, then validates it.
func FromEnv() (*Config, error) {
	cfg := Default()
	if path := os.Getenv("TRYON_CONFIG"); path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables. lookup has the
// signature of os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	p := envParser{lookup: lookup}

	p.str("TRYON_POLICY", &c.Placement.Policy)
	p.float("TRYON_BOX_X", &c.Placement.BoxX)
	p.float("TRYON_BOX_Y", &c.Placement.BoxY)
	p.float("TRYON_BOX_WIDTH", &c.Placement.BoxWidth)
	p.float("TRYON_BOX_HEIGHT", &c.Placement.BoxHeight)
	p.float("TRYON_GARMENT_WIDTH_FACTOR", &c.Placement.GarmentWidthFactor)
	p.float("TRYON_TORSO_HEIGHT_FACTOR", &c.Placement.TorsoHeightFactor)

	p.boolean("TRYON_MASK_ENABLED", &c.Mask.Enabled)
	p.integer("TRYON_MASK_THRESHOLD", &c.Mask.Threshold)
	p.float("TRYON_MASK_TOLERANCE", &c.Mask.Tolerance)
	p.float("TRYON_MASK_BLUR_RADIUS", &c.Mask.BlurRadius)
	p.boolean("TRYON_MASK_KEEP_LARGEST", &c.Mask.KeepLargest)

	p.str("TRYON_OUTPUT_FORMAT", &c.Output.Format)
	p.integer("TRYON_JPEG_QUALITY", &c.Output.JPEGQuality)

	return p.err
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Placement.Policy {
	case PolicyFixedBox, PolicyCentered:
	default:
		return fmt.Errorf("placement.policy must be %q or %q, got %q", PolicyFixedBox, PolicyCentered, c.Placement.Policy)
	}

	fracs := []struct {
		name string
		v    float64
	}{
		{"placement.box_x", c.Placement.BoxX},
		{"placement.box_y", c.Placement.BoxY},
		{"placement.box_width", c.Placement.BoxWidth},
		{"placement.box_height", c.Placement.BoxHeight},
	}
	for _, f := range fracs {
		if f.v < 0 || f.v > 1 {
			return fmt.Errorf("%s must be between 0 and 1", f.name)
		}
	}
	if c.Placement.BoxWidth == 0 || c.Placement.BoxHeight == 0 {
		return fmt.Errorf("placement box must have a positive size")
	}

	if c.Placement.GarmentWidthFactor <= 0 {
		return fmt.Errorf("placement.garment_width_factor must be positive")
	}
	if c.Placement.TorsoHeightFactor <= 0 {
		return fmt.Errorf("placement.torso_height_factor must be positive")
	}

	if c.Mask.Threshold < 0 || c.Mask.Threshold > 255 {
		return fmt.Errorf("mask.threshold must be between 0 and 255")
	}
	if c.Mask.Tolerance <= 0 {
		return fmt.Errorf("mask.tolerance must be positive")
	}
	if c.Mask.BlurRadius < 0 {
		return fmt.Errorf("mask.blur_radius must not be negative")
	}

	switch strings.ToLower(c.Output.Format) {
	case "jpeg", "jpg", "png", "webp":
	default:
		return fmt.Errorf("output.format must be jpeg, png or webp, got %q", c.Output.Format)
	}
	if c.Output.JPEGQuality < 1 || c.Output.JPEGQuality > 100 {
		return fmt.Errorf("output.jpeg_quality must be between 1 and 100")
	}

	return nil
}

// ProportionalPolicy returns the configured fallback placement policy.
func (c *Config) ProportionalPolicy() compositor.ProportionalPolicy {
	if c.Placement.Policy == PolicyCentered {
		return compositor.CenteredPolicy
	}
	return compositor.ProportionalPolicy{
		XFrac:      c.Placement.BoxX,
		YFrac:      c.Placement.BoxY,
		WidthFrac:  c.Placement.BoxWidth,
		HeightFrac: c.Placement.BoxHeight,
	}
}

// LandmarkPolicy returns the configured torso placement policy.
func (c *Config) LandmarkPolicy() compositor.LandmarkPolicy {
	return compositor.LandmarkPolicy{
		WidthFactor:  c.Placement.GarmentWidthFactor,
		HeightFactor: c.Placement.TorsoHeightFactor,
	}
}

// envParser applies overrides and keeps the first parse error.
type envParser struct {
	lookup func(string) (string, bool)
	err    error
}

func (p *envParser) get(key string) (string, bool) {
	if p.err != nil {
		return "", false
	}
	v, ok := p.lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (p *envParser) str(key string, dst *string) {
	if v, ok := p.get(key); ok {
		*dst = strings.ToLower(v)
	}
}

func (p *envParser) float(key string, dst *float64) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.err = fmt.Errorf("invalid %s: %w", key, err)
		return
	}
	*dst = f
}

func (p *envParser) integer(key string, dst *int) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.err = fmt.Errorf("invalid %s: %w", key, err)
		return
	}
	*dst = n
}

func (p *envParser) boolean(key string, dst *bool) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.err = fmt.Errorf("invalid %s: %w", key, err)
		return
	}
	*dst = b
}
