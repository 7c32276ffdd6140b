package detection

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/anthonynsimon/bild/blur"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/tryon-compositor-mcp/internal/compositor"
	"github.com/ironsheep/tryon-compositor-mcp/internal/imaging"
)

// Default parameters for BackgroundSegmenter.
const (
	DefaultSegmentTolerance  = 0.25
	DefaultSegmentBorderFrac = 0.05
)

// BackgroundSegmenter separates a person from a plain studio backdrop.
//
// It is a stand-in for a learned segmentation model: good enough to keep the
// garment off the backdrop around a person, useless on busy scenes.
type BackgroundSegmenter struct {
	// Tolerance is the CIE Lab distance from the backdrop color at which a
	// pixel reaches full foreground confidence. Zero means DefaultSegmentTolerance.
	Tolerance float64

	// BorderFrac is the width of the border strips sampled for the backdrop
	// color, as a fraction of the shorter image side. Zero means
	// DefaultSegmentBorderFrac.
	BorderFrac float64

	// BlurRadius feathers the confidence map with a Gaussian blur. Zero
	// disables feathering.
	BlurRadius float64

	// KeepLargest drops every foreground blob except the largest one.
	KeepLargest bool
}

// Segment returns a grayscale confidence map the size of img.
func (s BackgroundSegmenter) Segment(ctx context.Context, img image.Image) (image.Image, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, &compositor.DecodeError{Input: "person"}
	}
	tolerance := s.Tolerance
	if tolerance == 0 {
		tolerance = DefaultSegmentTolerance
	}
	if tolerance < 0 || math.IsNaN(tolerance) {
		return nil, fmt.Errorf("tolerance must be positive, got %v", s.Tolerance)
	}
	borderFrac := s.BorderFrac
	if borderFrac == 0 {
		borderFrac = DefaultSegmentBorderFrac
	}
	if borderFrac < 0 || borderFrac >= 0.5 {
		return nil, fmt.Errorf("border fraction must be in (0, 0.5), got %v", s.BorderFrac)
	}

	src := toNRGBA(img)
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	bg, err := backdropColor(src, borderFrac)
	if err != nil {
		return nil, err
	}

	conf := image.NewGray(bounds)
	cache := make(map[uint32]uint8)
	for y := 0; y < h; y++ {
		if y%64 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		out := conf.Pix[y*conf.Stride : y*conf.Stride+w]
		for x := 0; x < w; x++ {
			p := row[x*4 : x*4+3]
			key := uint32(p[0])<<16 | uint32(p[1])<<8 | uint32(p[2])
			v, ok := cache[key]
			if !ok {
				c := colorful.Color{R: float64(p[0]) / 255.0, G: float64(p[1]) / 255.0, B: float64(p[2]) / 255.0}
				v = confidence(bg.DistanceLab(c), tolerance)
				cache[key] = v
			}
			out[x] = v
		}
	}

	if s.KeepLargest {
		keepLargestComponent(conf, compositor.DefaultMaskThreshold)
	}

	if s.BlurRadius > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		blurred := blur.Gaussian(conf, s.BlurRadius)
		feathered := image.NewGray(bounds)
		draw.Draw(feathered, bounds, blurred, blurred.Bounds().Min, draw.Src)
		conf = feathered
	}

	return conf, nil
}

// backdropColor estimates the backdrop as the dominant color of the four
// border strips.
func backdropColor(img *image.NRGBA, borderFrac float64) (colorful.Color, error) {
	b := img.Bounds()
	short := b.Dx()
	if b.Dy() < short {
		short = b.Dy()
	}
	bw := int(math.Round(float64(short) * borderFrac))
	if bw < 1 {
		bw = 1
	}

	strips := []image.Rectangle{
		image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+bw),
		image.Rect(b.Min.X, b.Max.Y-bw, b.Max.X, b.Max.Y),
		image.Rect(b.Min.X, b.Min.Y+bw, b.Min.X+bw, b.Max.Y-bw),
		image.Rect(b.Max.X-bw, b.Min.Y+bw, b.Max.X, b.Max.Y-bw),
	}
	result := imaging.DominantColors(img, 1, strips...)
	if len(result.Colors) == 0 {
		return colorful.Color{}, errors.New("no border pixels to sample")
	}
	return result.Colors[0].RGB.Colorful(), nil
}

func confidence(dist, tolerance float64) uint8 {
	v := dist / tolerance
	if v >= 1 {
		return 255
	}
	if v <= 0 {
		return 0
	}
	return uint8(math.Round(v * 255))
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Bounds().Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// keepLargestComponent zeroes every pixel above threshold that does not
// belong to the largest 8-connected foreground component.
func keepLargestComponent(conf *image.Gray, threshold uint8) {
	b := conf.Bounds()
	w, h := b.Dx(), b.Dy()
	labels := make([]int32, w*h)

	fg := func(x, y int) bool {
		return conf.Pix[y*conf.Stride+x] > threshold
	}

	var sizes []int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if labels[y*w+x] != 0 || !fg(x, y) {
				continue
			}
			id := int32(len(sizes) + 1)
			sizes = append(sizes, floodFill(labels, id, x, y, w, h, fg))
		}
	}
	if len(sizes) < 2 {
		return
	}

	largest := int32(1)
	for i, n := range sizes {
		if n > sizes[largest-1] {
			largest = int32(i + 1)
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if l := labels[y*w+x]; l != 0 && l != largest {
				conf.Pix[y*conf.Stride+x] = 0
			}
		}
	}
}

// floodFill labels the 8-connected component containing (startX, startY)
// and returns its size. Iterative, so large blobs cannot overflow the stack.
func floodFill(labels []int32, id int32, startX, startY, width, height int, fg func(x, y int) bool) int {
	stack := []image.Point{{X: startX, Y: startY}}
	n := 0

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			continue
		}
		if labels[p.Y*width+p.X] != 0 || !fg(p.X, p.Y) {
			continue
		}

		labels[p.Y*width+p.X] = id
		n++

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, image.Point{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}
	return n
}
