package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// DefaultJPEGQuality is used when no quality is requested.
const DefaultJPEGQuality = 90

// EncodedImage contains an encoded output image.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Format      string `json:"format"`
	MimeType    string `json:"mime_type"`
	ImageBase64 string `json:"image_base64"`
	Data        []byte `json:"-"`
}

// Encode serializes img as "jpeg" (or "jpg"), "png" or "webp".
//
// Quality applies to JPEG and lossy WebP and must be between 1 and 100;
// 0 selects DefaultJPEGQuality. An empty format means JPEG.
func Encode(img image.Image, format string, quality int) (*EncodedImage, error) {
	if quality == 0 {
		quality = DefaultJPEGQuality
	}
	if quality < 1 || quality > 100 {
		return nil, fmt.Errorf("invalid quality %d: must be between 1 and 100", quality)
	}

	var buf bytes.Buffer
	var mime string

	switch f := strings.ToLower(format); f {
	case "", "jpg", "jpeg":
		format, mime = "jpeg", "image/jpeg"
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return nil, fmt.Errorf("failed to encode jpeg: %w", err)
		}
	case "png":
		format, mime = "png", "image/png"
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, fmt.Errorf("failed to encode png: %w", err)
		}
	case "webp":
		format, mime = "webp", "image/webp"
		if err := webp.Encode(&buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
			return nil, fmt.Errorf("failed to encode webp: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	b := img.Bounds()
	return &EncodedImage{
		Width:       b.Dx(),
		Height:      b.Dy(),
		Format:      format,
		MimeType:    mime,
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		Data:        buf.Bytes(),
	}, nil
}

// WriteFile writes the encoded bytes to path, creating parent directories.
func (e *EncodedImage) WriteFile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, e.Data, 0644); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	return nil
}
