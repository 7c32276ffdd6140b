package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/ironsheep/tryon-compositor-mcp/internal/compositor"
)

func TestDrawRegionPreview_Outline(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{0, 0, 0, 255})
	region := compositor.Region{X: 20, Y: 30, Width: 50, Height: 40}

	result := DrawRegionPreview(img, region, nil, "#00FF00")

	if result.Bounds() != image.Rect(0, 0, 100, 100) {
		t.Fatalf("bounds: got %v", result.Bounds())
	}

	// Right and bottom edges are away from the label.
	edges := []image.Point{{69, 50}, {68, 50}, {45, 69}, {45, 68}, {60, 30}}
	for _, p := range edges {
		if c := result.RGBAAt(p.X, p.Y); c != (color.RGBA{0, 255, 0, 255}) {
			t.Errorf("edge pixel %v: got %v, want green", p, c)
		}
	}

	// Interior and exterior are untouched.
	for _, p := range []image.Point{{60, 60}, {10, 10}, {80, 80}} {
		if c := result.RGBAAt(p.X, p.Y); c != (color.RGBA{0, 0, 0, 255}) {
			t.Errorf("pixel %v: got %v, want black", p, c)
		}
	}

	// Source image is not modified.
	if c := img.RGBAAt(69, 50); c != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("source mutated: got %v", c)
	}
}

func TestDrawRegionPreview_Label(t *testing.T) {
	img := createInMemoryImage(120, 120, color.RGBA{0, 0, 0, 255})
	region := compositor.Region{X: 10, Y: 10, Width: 100, Height: 100}

	result := DrawRegionPreview(img, region, nil, "#FF0000")

	hasWhite := false
	for y := 14; y < 30; y++ {
		for x := 14; x < 60; x++ {
			if c := result.RGBAAt(x, y); c.R > 200 && c.G > 200 && c.B > 200 {
				hasWhite = true
			}
		}
	}
	if !hasWhite {
		t.Error("label should have white text pixels")
	}
}

func TestDrawRegionPreview_Landmarks(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{0, 0, 0, 255})
	lm := &compositor.Landmarks{
		ShoulderLeft:  compositor.Point{X: 0.3, Y: 0.2},
		ShoulderRight: compositor.Point{X: 0.7, Y: 0.2},
		HipLeft:       compositor.Point{X: 0.35, Y: 0.6},
		HipRight:      compositor.Point{X: 0.65, Y: 0.6},
	}

	result := DrawRegionPreview(img, compositor.Region{X: 80, Y: 80, Width: 10, Height: 10}, lm, "#0000FF")

	if c := result.RGBAAt(70, 20); c != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("landmark center: got %v, want blue", c)
	}
	if c := result.RGBAAt(72, 20); c != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("landmark arm: got %v, want blue", c)
	}
}

func TestDrawRegionPreview_OverhangingRegion(t *testing.T) {
	img := createInMemoryImage(20, 20, color.RGBA{0, 0, 0, 255})

	// Should not panic
	DrawRegionPreview(img, compositor.Region{X: 15, Y: 15, Width: 30, Height: 30}, nil, "")
	DrawRegionPreview(img, compositor.Region{X: -10, Y: -10, Width: 5, Height: 5}, nil, "bogus")
}

func TestDrawRegionPreview_InvalidColorFallsBack(t *testing.T) {
	img := createInMemoryImage(50, 50, color.RGBA{0, 0, 0, 255})
	result := DrawRegionPreview(img, compositor.Region{X: 0, Y: 0, Width: 50, Height: 50}, nil, "#GG0000")

	if c := result.RGBAAt(49, 25); c.R == 0 || c.G != 0 || c.B != 0 {
		t.Errorf("fallback color: got %v, want reddish", c)
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		hex     string
		want    color.NRGBA
		wantErr bool
	}{
		{"#FF0000", color.NRGBA{255, 0, 0, 255}, false},
		{"00FF00", color.NRGBA{0, 255, 0, 255}, false},
		{"#FF000080", color.NRGBA{255, 0, 0, 128}, false},
		{"", color.NRGBA{}, true},
		{"#FFF", color.NRGBA{}, true},
		{"#GGGGGG", color.NRGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.hex, func(t *testing.T) {
			c, err := parseHexColor(tt.hex)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c != tt.want {
				t.Errorf("got %v, want %v", c, tt.want)
			}
		})
	}
}
