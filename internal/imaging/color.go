package imaging

import (
	"fmt"
	"image"
	"math"
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Colorful converts the color to go-colorful's float representation.
func (c RGBColor) Colorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255.0, G: float64(c.G) / 255.0, B: float64(c.B) / 255.0}
}

// Hex returns the color as "#RRGGBB".
func (c RGBColor) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// HSLColor represents a color in HSL space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees
	S int `json:"s"` // Saturation: 0-100 percent
	L int `json:"l"` // Lightness: 0-100 percent
}

// ColorResult contains a sampled pixel in several representations.
type ColorResult struct {
	Hex   string   `json:"hex"`
	RGB   RGBColor `json:"rgb"`
	Alpha uint8    `json:"alpha"`
	HSL   HSLColor `json:"hsl"`
}

// SampleColor returns the color of the pixel at (x, y), relative to the
// image's top-left corner.
//
// Used to spot-check composites: the region interior should carry garment
// colors and everything else the person photo's colors.
func SampleColor(img image.Image, x, y int) (*ColorResult, error) {
	bounds := img.Bounds()
	px, py := bounds.Min.X+x, bounds.Min.Y+y
	if !(image.Point{X: px, Y: py}).In(bounds) {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds %dx%d", x, y, bounds.Dx(), bounds.Dy())
	}

	r, g, b, a := img.At(px, py).RGBA()
	rgb := RGBColor{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}

	return &ColorResult{
		Hex:   rgb.Hex(),
		RGB:   rgb,
		Alpha: uint8(a >> 8),
		HSL:   toHSL(rgb),
	}, nil
}

func toHSL(c RGBColor) HSLColor {
	h, s, l := c.Colorful().Hsl()
	if math.IsNaN(h) {
		h = 0
	}
	return HSLColor{
		H: int(math.Round(h)) % 360,
		S: int(math.Round(s * 100)),
		L: int(math.Round(l * 100)),
	}
}

// ColorFrequency is one palette entry.
type ColorFrequency struct {
	// Hex and RGB are the mean color of all pixels in the bucket.
	Hex        string   `json:"hex"`
	RGB        RGBColor `json:"rgb"`
	Percentage float64  `json:"percentage"`
}

// DominantColorsResult contains palette entries sorted by frequency, most
// common first.
type DominantColorsResult struct {
	Colors []ColorFrequency `json:"colors"`
}

// DominantColors buckets pixel colors and returns the count most common buckets.
//
// Parameters:
//   - img: The source image.
//   - count: Maximum number of colors to return.
//   - regions: Rectangles to analyze, in image coordinates. Empty means the
//     whole image. Overlapping rectangles count shared pixels twice.
//
// # Color Quantization
//
// Each channel is divided by 16, so colors within the same 16-wide step
// per channel share a bucket. The reported color is the bucket's mean, which
// makes the result usable as a reference color (e.g. a studio background).
func DominantColors(img image.Image, count int, regions ...image.Rectangle) *DominantColorsResult {
	if len(regions) == 0 {
		regions = []image.Rectangle{img.Bounds()}
	}

	type bucket struct {
		n       int
		r, g, b int
	}
	buckets := make(map[uint16]*bucket)
	total := 0

	for _, rect := range regions {
		rect = rect.Intersect(img.Bounds())
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			for x := rect.Min.X; x < rect.Max.X; x++ {
				r, g, b, _ := img.At(x, y).RGBA()
				r8, g8, b8 := int(r>>8), int(g>>8), int(b>>8)
				key := uint16(r8>>4)<<8 | uint16(g8>>4)<<4 | uint16(b8>>4)
				bk, ok := buckets[key]
				if !ok {
					bk = &bucket{}
					buckets[key] = bk
				}
				bk.n++
				bk.r += r8
				bk.g += g8
				bk.b += b8
				total++
			}
		}
	}

	colors := make([]ColorFrequency, 0, len(buckets))
	for _, bk := range buckets {
		rgb := RGBColor{
			R: uint8(bk.r / bk.n),
			G: uint8(bk.g / bk.n),
			B: uint8(bk.b / bk.n),
		}
		colors = append(colors, ColorFrequency{
			Hex:        rgb.Hex(),
			RGB:        rgb,
			Percentage: float64(bk.n) / float64(total) * 100,
		})
	}

	sort.Slice(colors, func(i, j int) bool {
		if colors[i].Percentage != colors[j].Percentage {
			return colors[i].Percentage > colors[j].Percentage
		}
		return colors[i].Hex < colors[j].Hex
	})

	if count >= 0 && len(colors) > count {
		colors = colors[:count]
	}

	return &DominantColorsResult{Colors: colors}
}
