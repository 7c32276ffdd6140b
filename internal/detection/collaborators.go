package detection

import (
	"context"
	"errors"
	"image"

	"github.com/ironsheep/tryon-compositor-mcp/internal/compositor"
)

// ErrNoPose is returned by a LandmarkDetector that finds no person.
var ErrNoPose = errors.New("no pose landmarks detected")

// Segmenter produces a person/background confidence map for an image.
//
// The returned image has the same size as the input; brighter pixels are
// more likely to belong to the person. Any color model is accepted, the
// pipeline converts it to grayscale before thresholding.
type Segmenter interface {
	Segment(ctx context.Context, img image.Image) (image.Image, error)
}

// SegmenterFunc adapts a function to the Segmenter interface.
type SegmenterFunc func(ctx context.Context, img image.Image) (image.Image, error)

// Segment calls f(ctx, img).
func (f SegmenterFunc) Segment(ctx context.Context, img image.Image) (image.Image, error) {
	return f(ctx, img)
}

// LandmarkDetector finds the shoulder and hip keypoints of the person in an image.
type LandmarkDetector interface {
	DetectLandmarks(ctx context.Context, img image.Image) (*compositor.Landmarks, error)
}

// StaticLandmarks is a LandmarkDetector that returns fixed landmarks, for
// callers that ran a pose model elsewhere. A nil value reports ErrNoPose.
type StaticLandmarks struct {
	Landmarks *compositor.Landmarks
}

// DetectLandmarks returns a copy of the configured landmarks.
func (s StaticLandmarks) DetectLandmarks(ctx context.Context, img image.Image) (*compositor.Landmarks, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Landmarks == nil {
		return nil, ErrNoPose
	}
	lm := *s.Landmarks
	return &lm, nil
}
