package compositor

import (
	"image"
	"image/draw"
)

// DefaultMaskThreshold splits a 0-255 confidence map at its midpoint.
const DefaultMaskThreshold uint8 = 127

// Mask is a binary foreground map. Foreground pixels hold 255, background 0.
// The mask origin is always (0,0) so it lines up with a composited output.
type Mask struct {
	gray *image.Gray

	// Threshold is the confidence level the mask was cut at. Pixels strictly
	// above it became foreground.
	Threshold uint8
}

// NewMask thresholds a confidence map into a binary mask. Color inputs are
// converted to grayscale first.
func NewMask(confidence image.Image, threshold uint8) (*Mask, error) {
	if isEmpty(confidence) {
		return nil, &DecodeError{Input: "mask"}
	}

	b := confidence.Bounds()
	gray, ok := confidence.(*image.Gray)
	if !ok || b.Min != (image.Point{}) {
		gray = image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(gray, gray.Bounds(), confidence, b.Min, draw.Src)
	}

	bin := image.NewGray(gray.Bounds())
	w, h := b.Dx(), b.Dy()
	for y := 0; y < h; y++ {
		src := gray.Pix[y*gray.Stride : y*gray.Stride+w]
		dst := bin.Pix[y*bin.Stride : y*bin.Stride+w]
		for x, v := range src {
			if v > threshold {
				dst[x] = 0xFF
			}
		}
	}

	return &Mask{gray: bin, Threshold: threshold}, nil
}

// Bounds returns the mask rectangle.
func (m *Mask) Bounds() image.Rectangle {
	return m.gray.Bounds()
}

// Foreground reports whether (x, y) is a foreground pixel. Coordinates outside
// the mask are background.
func (m *Mask) Foreground(x, y int) bool {
	if !(image.Point{X: x, Y: y}).In(m.gray.Rect) {
		return false
	}
	return m.gray.Pix[m.gray.PixOffset(x, y)] != 0
}

// Gray returns the binary mask image. Callers must not modify it.
func (m *Mask) Gray() *image.Gray {
	return m.gray
}

// Coverage returns the fraction of foreground pixels (0.0 to 1.0).
func (m *Mask) Coverage() float64 {
	b := m.gray.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return 0
	}
	fg := 0
	for y := 0; y < b.Dy(); y++ {
		for _, v := range m.gray.Pix[y*m.gray.Stride : y*m.gray.Stride+b.Dx()] {
			if v != 0 {
				fg++
			}
		}
	}
	return float64(fg) / float64(total)
}

// row returns the mask values for row y.
func (m *Mask) row(y int) []uint8 {
	return m.gray.Pix[y*m.gray.Stride : y*m.gray.Stride+m.gray.Rect.Dx()]
}
