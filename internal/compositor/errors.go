package compositor

import (
	"errors"
	"fmt"
	"image"
)

// ErrMaskSize is returned when a mask does not cover the base image exactly.
var ErrMaskSize = errors.New("mask size does not match base image")

// DecodeError reports an input image that is missing, empty, or could not be
// parsed into pixel data.
type DecodeError struct {
	// Input names the offending input ("base", "overlay", or a file path).
	Input string

	// Err is the underlying cause. May be nil for empty inputs.
	Err error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("failed to decode %s image: empty image", e.Input)
	}
	return fmt.Sprintf("failed to decode %s image: %v", e.Input, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// InvalidRegionError reports a placement region that is degenerate or lies
// entirely outside the base image.
type InvalidRegionError struct {
	Region Region
	Bounds image.Rectangle
	Reason string
}

func (e *InvalidRegionError) Error() string {
	return fmt.Sprintf("invalid region (x=%d y=%d w=%d h=%d) for image %dx%d: %s",
		e.Region.X, e.Region.Y, e.Region.Width, e.Region.Height,
		e.Bounds.Dx(), e.Bounds.Dy(), e.Reason)
}

// IsInvalidRegion reports whether err is or wraps an *InvalidRegionError.
func IsInvalidRegion(err error) bool {
	var re *InvalidRegionError
	return errors.As(err, &re)
}
