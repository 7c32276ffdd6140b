package compositor

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/disintegration/imaging"
)

// solidRGB creates an opaque image filled with c, decoded-JPEG style.
func solidRGB(width, height int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// solidNRGBA creates an image filled with a non-premultiplied color.
func solidNRGBA(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// gradientRGB creates an opaque image whose color varies by position.
func gradientRGB(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x * 5), uint8(y * 7), uint8((x + y) * 3), 255})
		}
	}
	return img
}

func rgbAt(img *image.NRGBA, x, y int) [3]uint8 {
	c := img.NRGBAAt(x, y)
	return [3]uint8{c.R, c.G, c.B}
}

func TestComposite_OpaqueOverlayReplacesRegion(t *testing.T) {
	base := gradientRGB(80, 60)
	overlay := gradientRGB(30, 20)
	region := Region{X: 10, Y: 15, Width: 40, Height: 25}

	out, err := Composite(base, overlay, region, nil)
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}

	want := imaging.Resize(overlay, region.Width, region.Height, imaging.Lanczos)
	rect := region.Rect()

	for y := 0; y < 60; y++ {
		for x := 0; x < 80; x++ {
			got := rgbAt(out, x, y)
			if (image.Point{X: x, Y: y}).In(rect) {
				w := want.NRGBAAt(x-region.X, y-region.Y)
				if got != [3]uint8{w.R, w.G, w.B} {
					t.Fatalf("inside region at (%d,%d): got %v, want %v", x, y, got, w)
				}
				continue
			}
			b := base.RGBAAt(x, y)
			if got != [3]uint8{b.R, b.G, b.B} {
				t.Fatalf("outside region at (%d,%d): got %v, want %v", x, y, got, b)
			}
		}
	}
}

func TestComposite_OutputShape(t *testing.T) {
	base := solidRGB(64, 48, color.RGBA{1, 2, 3, 255})
	overlay := solidRGB(10, 10, color.RGBA{9, 9, 9, 255})

	out, err := Composite(base, overlay, Region{X: 5, Y: 5, Width: 20, Height: 20}, nil)
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}

	if out.Bounds() != image.Rect(0, 0, 64, 48) {
		t.Errorf("bounds: got %v, want (0,0)-(64,48)", out.Bounds())
	}
	if !out.Opaque() {
		t.Error("output should be fully opaque")
	}
}

func TestComposite_DoesNotMutateInputs(t *testing.T) {
	base := solidRGB(20, 20, color.RGBA{50, 50, 50, 255})
	overlay := solidNRGBA(10, 10, color.NRGBA{200, 0, 0, 100})

	if _, err := Composite(base, overlay, Region{X: 0, Y: 0, Width: 20, Height: 20}, nil); err != nil {
		t.Fatalf("Composite failed: %v", err)
	}

	if c := base.RGBAAt(5, 5); c != (color.RGBA{50, 50, 50, 255}) {
		t.Errorf("base mutated: got %v", c)
	}
	if c := overlay.NRGBAAt(5, 5); c != (color.NRGBA{200, 0, 0, 100}) {
		t.Errorf("overlay mutated: got %v", c)
	}
}

func TestComposite_TransparentOverlayIsNoop(t *testing.T) {
	base := gradientRGB(40, 40)
	overlay := solidNRGBA(16, 16, color.NRGBA{255, 0, 255, 0})

	out, err := Composite(base, overlay, Region{X: 4, Y: 4, Width: 30, Height: 30}, nil)
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}

	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			b := base.RGBAAt(x, y)
			if got := rgbAt(out, x, y); got != [3]uint8{b.R, b.G, b.B} {
				t.Fatalf("pixel (%d,%d): got %v, want %v", x, y, got, b)
			}
		}
	}
}

func TestComposite_FullAlphaMatchesOverwrite(t *testing.T) {
	base := gradientRGB(50, 50)
	region := Region{X: 10, Y: 10, Width: 25, Height: 25}

	// Same colors, one carried in an NRGBA with every alpha at 255.
	opaque := gradientRGB(25, 25)
	withAlpha := imaging.Clone(opaque)

	blended, err := Composite(base, withAlpha, region, nil)
	if err != nil {
		t.Fatalf("Composite (alpha) failed: %v", err)
	}
	overwritten, err := Composite(base, opaque, region, nil)
	if err != nil {
		t.Fatalf("Composite (opaque) failed: %v", err)
	}

	for y := 0; y < 50; y++ {
		for x := 0; x < 50; x++ {
			if a, b := rgbAt(blended, x, y), rgbAt(overwritten, x, y); a != b {
				t.Fatalf("pixel (%d,%d): blend %v, overwrite %v", x, y, a, b)
			}
		}
	}

	// blendRow with alpha 255 must equal copyRow directly.
	src := []uint8{10, 20, 30, 255, 40, 50, 60, 255}
	d1 := []uint8{1, 2, 3, 255, 4, 5, 6, 255}
	d2 := append([]uint8(nil), d1...)
	blendRow(d1, src)
	copyRow(d2, src)
	for i := range d1 {
		if d1[i] != d2[i] {
			t.Fatalf("byte %d: blend %d, copy %d", i, d1[i], d2[i])
		}
	}
}

func TestComposite_HalfAlphaScenario(t *testing.T) {
	base := solidRGB(100, 100, color.RGBA{200, 200, 200, 255})
	overlay := solidNRGBA(50, 50, color.NRGBA{10, 20, 30, 128})

	out, err := Composite(base, overlay, Region{X: 25, Y: 25, Width: 50, Height: 50}, nil)
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}

	got := rgbAt(out, 50, 50)
	src := [3]float64{10, 20, 30}
	for ch := 0; ch < 3; ch++ {
		want := 128.0/255.0*src[ch] + 127.0/255.0*200.0
		if math.Abs(float64(got[ch])-want) > 1 {
			t.Errorf("channel %d: got %d, want %.2f (±1)", ch, got[ch], want)
		}
	}

	// Outside the region the base is untouched.
	if got := rgbAt(out, 10, 10); got != [3]uint8{200, 200, 200} {
		t.Errorf("outside region: got %v, want [200 200 200]", got)
	}
}

func TestComposite_MaskScenario(t *testing.T) {
	base := solidRGB(100, 100, color.RGBA{0, 0, 0, 255})
	overlay := solidRGB(100, 100, color.RGBA{255, 255, 255, 255})

	conf := image.NewGray(image.Rect(0, 0, 100, 100))
	for y := 25; y < 75; y++ {
		for x := 25; x < 75; x++ {
			conf.SetGray(x, y, color.Gray{255})
		}
	}
	mask, err := NewMask(conf, DefaultMaskThreshold)
	if err != nil {
		t.Fatalf("NewMask failed: %v", err)
	}

	out, err := Composite(base, overlay, Region{X: 0, Y: 0, Width: 100, Height: 100}, mask)
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}

	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			inside := x >= 25 && x < 75 && y >= 25 && y < 75
			want := [3]uint8{0, 0, 0}
			if inside {
				want = [3]uint8{255, 255, 255}
			}
			if got := rgbAt(out, x, y); got != want {
				t.Fatalf("pixel (%d,%d): got %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestComposite_MaskIgnoredForAlphaOverlay(t *testing.T) {
	base := solidRGB(20, 20, color.RGBA{0, 0, 0, 255})
	overlay := solidNRGBA(20, 20, color.NRGBA{255, 255, 255, 255})
	overlay.SetNRGBA(0, 0, color.NRGBA{0, 0, 0, 0})

	mask, err := NewMask(image.NewGray(image.Rect(0, 0, 20, 20)), DefaultMaskThreshold)
	if err != nil {
		t.Fatalf("NewMask failed: %v", err)
	}

	out, err := Composite(base, overlay, Region{X: 0, Y: 0, Width: 20, Height: 20}, mask)
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}
	if got := rgbAt(out, 10, 10); got != [3]uint8{255, 255, 255} {
		t.Errorf("alpha overlay should ignore mask: got %v", got)
	}
}

func TestComposite_ClipsRightAndBottom(t *testing.T) {
	base := solidRGB(50, 40, color.RGBA{10, 10, 10, 255})
	overlay := solidRGB(30, 30, color.RGBA{250, 0, 0, 255})

	out, err := Composite(base, overlay, Region{X: 35, Y: 25, Width: 30, Height: 30}, nil)
	if err != nil {
		t.Fatalf("Composite with overhanging region failed: %v", err)
	}

	if got := rgbAt(out, 49, 39); got != [3]uint8{250, 0, 0} {
		t.Errorf("in-bounds corner: got %v, want [250 0 0]", got)
	}
	if got := rgbAt(out, 34, 24); got != [3]uint8{10, 10, 10} {
		t.Errorf("outside region: got %v, want [10 10 10]", got)
	}
}

func TestComposite_ClipsNegativeOrigin(t *testing.T) {
	base := solidRGB(30, 30, color.RGBA{0, 0, 0, 255})
	overlay := gradientRGB(20, 20)
	region := Region{X: -5, Y: -8, Width: 20, Height: 20}

	out, err := Composite(base, overlay, region, nil)
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}

	want := imaging.Resize(overlay, 20, 20, imaging.Lanczos).NRGBAAt(5, 8)
	if got := rgbAt(out, 0, 0); got != [3]uint8{want.R, want.G, want.B} {
		t.Errorf("pixel (0,0): got %v, want %v", got, want)
	}
	if got := rgbAt(out, 15, 12); got != [3]uint8{0, 0, 0} {
		t.Errorf("pixel (15,12) outside region: got %v", got)
	}
}

func TestComposite_NotIdempotent(t *testing.T) {
	base := solidRGB(10, 10, color.RGBA{200, 200, 200, 255})
	overlay := solidNRGBA(10, 10, color.NRGBA{0, 0, 0, 128})
	region := Region{X: 0, Y: 0, Width: 10, Height: 10}

	once, err := Composite(base, overlay, region, nil)
	if err != nil {
		t.Fatalf("first Composite failed: %v", err)
	}
	twice, err := Composite(once, overlay, region, nil)
	if err != nil {
		t.Fatalf("second Composite failed: %v", err)
	}

	if rgbAt(once, 5, 5) == rgbAt(twice, 5, 5) {
		t.Error("compositing a translucent overlay twice should darken further")
	}
}

func TestComposite_InvalidRegion(t *testing.T) {
	base := solidRGB(100, 100, color.RGBA{0, 0, 0, 255})
	overlay := solidRGB(10, 10, color.RGBA{255, 0, 0, 255})

	tests := []struct {
		name   string
		region Region
	}{
		{"zero width", Region{X: 10, Y: 10, Width: 0, Height: 10}},
		{"zero height", Region{X: 10, Y: 10, Width: 10, Height: 0}},
		{"negative width", Region{X: 10, Y: 10, Width: -5, Height: 10}},
		{"starts right of image", Region{X: 100, Y: 10, Width: 10, Height: 10}},
		{"starts below image", Region{X: 10, Y: 150, Width: 10, Height: 10}},
		{"ends left of image", Region{X: -20, Y: 10, Width: 20, Height: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Composite(base, overlay, tt.region, nil)
			var re *InvalidRegionError
			if !errors.As(err, &re) {
				t.Fatalf("got %v, want *InvalidRegionError", err)
			}
			if !IsInvalidRegion(err) {
				t.Error("IsInvalidRegion should report true")
			}
		})
	}
}

func TestComposite_DecodeError(t *testing.T) {
	img := solidRGB(10, 10, color.RGBA{0, 0, 0, 255})
	region := Region{X: 0, Y: 0, Width: 5, Height: 5}
	var nilNRGBA *image.NRGBA

	tests := []struct {
		name          string
		base, overlay image.Image
		input         string
	}{
		{"nil base", nil, img, "base"},
		{"nil overlay", img, nil, "overlay"},
		{"typed nil overlay", img, nilNRGBA, "overlay"},
		{"empty base", image.NewRGBA(image.Rect(0, 0, 0, 0)), img, "base"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Composite(tt.base, tt.overlay, region, nil)
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("got %v, want *DecodeError", err)
			}
			if de.Input != tt.input {
				t.Errorf("Input: got %q, want %q", de.Input, tt.input)
			}
		})
	}
}

func TestComposite_MaskSizeMismatch(t *testing.T) {
	base := solidRGB(20, 20, color.RGBA{0, 0, 0, 255})
	overlay := solidRGB(5, 5, color.RGBA{255, 0, 0, 255})

	mask, err := NewMask(image.NewGray(image.Rect(0, 0, 10, 10)), DefaultMaskThreshold)
	if err != nil {
		t.Fatalf("NewMask failed: %v", err)
	}

	_, err = Composite(base, overlay, Region{X: 0, Y: 0, Width: 5, Height: 5}, mask)
	if !errors.Is(err, ErrMaskSize) {
		t.Errorf("got %v, want ErrMaskSize", err)
	}
}

func TestComposite_OffsetBaseOrigin(t *testing.T) {
	full := gradientRGB(40, 40)
	base := full.SubImage(image.Rect(10, 10, 30, 30))
	overlay := solidRGB(4, 4, color.RGBA{255, 255, 255, 255})

	out, err := Composite(base, overlay, Region{X: 0, Y: 0, Width: 4, Height: 4}, nil)
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}
	if out.Bounds() != image.Rect(0, 0, 20, 20) {
		t.Errorf("bounds: got %v, want (0,0)-(20,20)", out.Bounds())
	}
	if got := rgbAt(out, 0, 0); got != [3]uint8{255, 255, 255} {
		t.Errorf("pixel (0,0): got %v, want white", got)
	}
	b := full.RGBAAt(15, 15)
	if got := rgbAt(out, 5, 5); got != [3]uint8{b.R, b.G, b.B} {
		t.Errorf("pixel (5,5): got %v, want %v", got, b)
	}
}

func TestHasAlpha(t *testing.T) {
	translucent := solidNRGBA(4, 4, color.NRGBA{1, 2, 3, 255})
	translucent.SetNRGBA(1, 1, color.NRGBA{1, 2, 3, 10})

	tests := []struct {
		name string
		img  image.Image
		want bool
	}{
		{"opaque RGBA", solidRGB(4, 4, color.RGBA{1, 2, 3, 255}), false},
		{"opaque NRGBA", solidNRGBA(4, 4, color.NRGBA{1, 2, 3, 255}), false},
		{"one translucent pixel", translucent, true},
		{"gray", image.NewGray(image.Rect(0, 0, 4, 4)), false},
		{"ycbcr", image.NewYCbCr(image.Rect(0, 0, 4, 4), image.YCbCrSubsampleRatio420), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasAlpha(tt.img); got != tt.want {
				t.Errorf("HasAlpha: got %v, want %v", got, tt.want)
			}
		})
	}
}
