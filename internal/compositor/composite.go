package compositor

import (
	"fmt"
	"image"
	"reflect"

	"github.com/disintegration/imaging"
)

// Composite resizes overlay to region and lays it over a copy of base.
//
// Parameters:
//   - base: The person image. Any alpha it carries is discarded.
//   - overlay: The garment image. If it contains any non-opaque pixel it is
//     alpha blended, otherwise it replaces base pixels.
//   - region: Target rectangle in base coordinates. It may extend past the
//     right or bottom edge (or start at a negative offset); the part outside
//     base is clipped.
//   - mask: Optional foreground mask the same size as base. Only consulted
//     for opaque overlays.
//
// Returns:
//   - *image.NRGBA: A new opaque image with the dimensions of base and its
//     origin at (0,0).
//   - error: *DecodeError for nil or empty images, *InvalidRegionError for a
//     degenerate region or one that misses base entirely, ErrMaskSize for a
//     mismatched mask.
//
// The overlay is resized with a Lanczos filter. Blending works on whole rows
// of the clipped rectangle rather than through image.At/Set.
func Composite(base, overlay image.Image, region Region, mask *Mask) (*image.NRGBA, error) {
	if isEmpty(base) {
		return nil, &DecodeError{Input: "base"}
	}
	if isEmpty(overlay) {
		return nil, &DecodeError{Input: "overlay"}
	}

	out := imaging.Clone(base)
	bounds := out.Bounds()

	clipped, err := region.validate(bounds)
	if err != nil {
		return nil, err
	}
	if mask != nil && mask.Bounds().Size() != bounds.Size() {
		return nil, fmt.Errorf("%w: mask %dx%d, base %dx%d", ErrMaskSize,
			mask.Bounds().Dx(), mask.Bounds().Dy(), bounds.Dx(), bounds.Dy())
	}

	flatten(out)

	translucent := hasAlpha(overlay)
	garment := imaging.Resize(overlay, region.Width, region.Height, imaging.Lanczos)

	// Column span shared by every row, in output and garment coordinates.
	dx0, dx1 := clipped.Min.X*4, clipped.Max.X*4
	sx0 := (clipped.Min.X - region.X) * 4
	sx1 := sx0 + (dx1 - dx0)

	for y := clipped.Min.Y; y < clipped.Max.Y; y++ {
		srcRow := garment.Pix[(y-region.Y)*garment.Stride:]
		dstRow := out.Pix[y*out.Stride:]
		src := srcRow[sx0:sx1]
		dst := dstRow[dx0:dx1]

		switch {
		case translucent:
			blendRow(dst, src)
		case mask != nil:
			maskedCopyRow(dst, src, mask.row(y)[clipped.Min.X:clipped.Max.X])
		default:
			copyRow(dst, src)
		}
	}

	return out, nil
}

// blendRow alpha blends src over dst. Both are NRGBA pixel runs of equal length.
func blendRow(dst, src []uint8) {
	for i := 0; i+3 < len(src); i += 4 {
		a := uint32(src[i+3])
		switch a {
		case 0:
			continue
		case 0xFF:
			dst[i+0] = src[i+0]
			dst[i+1] = src[i+1]
			dst[i+2] = src[i+2]
		default:
			na := 0xFF - a
			dst[i+0] = uint8((a*uint32(src[i+0]) + na*uint32(dst[i+0]) + 127) / 0xFF)
			dst[i+1] = uint8((a*uint32(src[i+1]) + na*uint32(dst[i+1]) + 127) / 0xFF)
			dst[i+2] = uint8((a*uint32(src[i+2]) + na*uint32(dst[i+2]) + 127) / 0xFF)
		}
	}
}

// maskedCopyRow copies src into dst where the mask value is non-zero.
func maskedCopyRow(dst, src, mask []uint8) {
	for x, m := range mask {
		if m == 0 {
			continue
		}
		i := x * 4
		dst[i+0] = src[i+0]
		dst[i+1] = src[i+1]
		dst[i+2] = src[i+2]
	}
}

// copyRow overwrites the color channels of dst with src.
func copyRow(dst, src []uint8) {
	for i := 0; i+3 < len(src); i += 4 {
		dst[i+0] = src[i+0]
		dst[i+1] = src[i+1]
		dst[i+2] = src[i+2]
	}
}

// flatten forces every pixel opaque.
func flatten(img *image.NRGBA) {
	b := img.Bounds()
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		for i := 3; i < len(row); i += 4 {
			row[i] = 0xFF
		}
	}
}

// hasAlpha reports whether img contains at least one non-opaque pixel.
func hasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xFFFF {
				return true
			}
		}
	}
	return false
}

// HasAlpha reports whether img would be alpha blended by Composite.
func HasAlpha(img image.Image) bool {
	if isEmpty(img) {
		return false
	}
	return hasAlpha(img)
}

// isEmpty reports whether img is nil, a typed nil pointer, or has no pixels.
func isEmpty(img image.Image) bool {
	if img == nil {
		return true
	}
	if v := reflect.ValueOf(img); v.Kind() == reflect.Ptr && v.IsNil() {
		return true
	}
	return img.Bounds().Empty()
}
