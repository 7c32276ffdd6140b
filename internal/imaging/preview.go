package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/tryon-compositor-mcp/internal/compositor"
)

// DefaultPreviewColor is a semi-transparent red used when no color is given.
var DefaultPreviewColor = color.NRGBA{255, 0, 0, 200}

// DrawRegionPreview draws the placement region and optional landmarks on a
// copy of img, for checking placement before compositing.
//
// The region outline is 2 pixels wide and drawn inside the region; parts
// that fall outside the image are skipped. Each landmark is marked with a
// small cross and the region is labeled with its size. An invalid colorHex
// falls back to DefaultPreviewColor.
func DrawRegionPreview(img image.Image, region compositor.Region, lm *compositor.Landmarks, colorHex string) *image.RGBA {
	b := img.Bounds()
	result := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(result, result.Bounds(), img, b.Min, draw.Src)

	c, err := parseHexColor(colorHex)
	if err != nil {
		c = DefaultPreviewColor
	}

	r := region.Rect()
	const thickness = 2
	fillRect(result, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness), c)
	fillRect(result, image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y), c)
	fillRect(result, image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y), c)
	fillRect(result, image.Rect(r.Max.X-thickness, r.Min.Y, r.Max.X, r.Max.Y), c)

	if lm != nil {
		w, h := float64(b.Dx()), float64(b.Dy())
		for _, p := range []compositor.Point{lm.ShoulderLeft, lm.ShoulderRight, lm.HipLeft, lm.HipRight} {
			drawCross(result, int(p.X*w), int(p.Y*h), 4, c)
		}
	}

	label := fmt.Sprintf("%dx%d", region.Width, region.Height)
	drawLabel(result, r.Min.X+thickness+2, r.Min.Y+thickness+2, label, color.RGBA{255, 255, 255, 255}, color.RGBA{0, 0, 0, 180})

	return result
}

// fillRect blends c over the part of rect that lies inside img.
func fillRect(img *image.RGBA, rect image.Rectangle, c color.Color) {
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return
	}
	draw.Draw(img, rect, image.NewUniform(c), image.Point{}, draw.Over)
}

func drawCross(img *image.RGBA, x, y, arm int, c color.Color) {
	fillRect(img, image.Rect(x-arm, y, x+arm+1, y+1), c)
	fillRect(img, image.Rect(x, y-arm, x+1, y+arm+1), c)
}

// parseHexColor parses a non-premultiplied hex color string like "#FF0000"
// or "#FF000080"
func parseHexColor(hex string) (color.NRGBA, error) {
	if len(hex) == 0 {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b, a uint8 = 0, 0, 0, 255

	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, err
		}
		r = uint8(val >> 16)
		g = uint8(val >> 8)
		b = uint8(val)
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, err
		}
		r = uint8(val >> 24)
		g = uint8(val >> 16)
		b = uint8(val >> 8)
		a = uint8(val)
	default:
		return color.NRGBA{}, fmt.Errorf("invalid hex color length")
	}

	return color.NRGBA{R: r, G: g, B: b, A: a}, nil
}

// drawLabel draws text with basicfont on a translucent box whose top-left
// corner is (x, y).
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.Color) {
	if text == "" {
		return
	}
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	height := face.Metrics().Height.Ceil()

	fillRect(img, image.Rect(x-1, y-1, x+width+1, y+height+1), bg)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y + face.Metrics().Ascent.Ceil())},
	}
	d.DrawString(text)
}
