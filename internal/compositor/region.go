package compositor

import (
	"fmt"
	"image"
	"math"
)

// Region is a placement rectangle in base-image pixel coordinates.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect returns the region as an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Valid reports whether the region has a positive width and height.
func (r Region) Valid() bool {
	return r.Width > 0 && r.Height > 0
}

// validate checks the region against the base bounds and returns the clipped
// rectangle that compositing will touch.
func (r Region) validate(bounds image.Rectangle) (image.Rectangle, error) {
	if !r.Valid() {
		return image.Rectangle{}, &InvalidRegionError{Region: r, Bounds: bounds, Reason: "width and height must be positive"}
	}
	clipped := r.Rect().Add(bounds.Min).Intersect(bounds)
	if clipped.Empty() {
		return image.Rectangle{}, &InvalidRegionError{Region: r, Bounds: bounds, Reason: "region lies outside the image"}
	}
	return clipped, nil
}

// Point is a normalized image-relative coordinate. X and Y are in [0,1].
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Landmarks holds the body keypoints used to place a garment on the torso.
type Landmarks struct {
	ShoulderLeft  Point `json:"shoulder_left"`
	ShoulderRight Point `json:"shoulder_right"`
	HipLeft       Point `json:"hip_left"`
	HipRight      Point `json:"hip_right"`
}

// Validate checks that every landmark lies inside the unit square.
func (lm Landmarks) Validate() error {
	named := []struct {
		name string
		p    Point
	}{
		{"shoulder_left", lm.ShoulderLeft},
		{"shoulder_right", lm.ShoulderRight},
		{"hip_left", lm.HipLeft},
		{"hip_right", lm.HipRight},
	}
	for _, n := range named {
		if n.p.X < 0 || n.p.X > 1 || n.p.Y < 0 || n.p.Y > 1 ||
			math.IsNaN(n.p.X) || math.IsNaN(n.p.Y) {
			return fmt.Errorf("landmark %s (%.3f,%.3f) outside [0,1]", n.name, n.p.X, n.p.Y)
		}
	}
	return nil
}

// PoseMetrics are torso measurements in pixels derived from landmarks.
type PoseMetrics struct {
	ShoulderWidth float64 `json:"shoulder_width"`
	TorsoHeight   float64 `json:"torso_height"`
	CenterX       float64 `json:"center_x"`
	CenterY       float64 `json:"center_y"`
}

// MeasurePose converts normalized landmarks to pixel measurements for an
// image of the given size. CenterY sits halfway between the shoulder line
// and the hip line.
func MeasurePose(lm Landmarks, width, height int) PoseMetrics {
	w := float64(width)
	h := float64(height)

	shoulderY := (lm.ShoulderLeft.Y + lm.ShoulderRight.Y) / 2
	hipY := (lm.HipLeft.Y + lm.HipRight.Y) / 2

	return PoseMetrics{
		ShoulderWidth: math.Abs(lm.ShoulderRight.X-lm.ShoulderLeft.X) * w,
		TorsoHeight:   math.Abs(hipY-shoulderY) * h,
		CenterX:       (lm.ShoulderLeft.X + lm.ShoulderRight.X) / 2 * w,
		CenterY:       (shoulderY + hipY) / 2 * h,
	}
}

// ProportionalPolicy places the garment in a box defined as fractions of the
// base image size.
type ProportionalPolicy struct {
	XFrac      float64 `json:"x_frac"`
	YFrac      float64 `json:"y_frac"`
	WidthFrac  float64 `json:"width_frac"`
	HeightFrac float64 `json:"height_frac"`

	// CenterX ignores XFrac and centers the box horizontally.
	CenterX bool `json:"center_x"`

	// KeepAspect ignores HeightFrac and derives the height from the overlay's
	// aspect ratio.
	KeepAspect bool `json:"keep_aspect"`
}

// FixedBoxPolicy is a 60%x40% box starting at 20% from the left and 25% from the top.
var FixedBoxPolicy = ProportionalPolicy{XFrac: 0.20, YFrac: 0.25, WidthFrac: 0.60, HeightFrac: 0.40}

// CenteredPolicy is a horizontally centered box half the image wide, starting
// 25% from the top, with the overlay's aspect ratio preserved.
var CenteredPolicy = ProportionalPolicy{YFrac: 0.25, WidthFrac: 0.50, HeightFrac: 0.40, CenterX: true, KeepAspect: true}

// Region computes the placement box for a base of baseW x baseH. The overlay
// dimensions are only consulted when KeepAspect is set.
func (p ProportionalPolicy) Region(baseW, baseH, overlayW, overlayH int) (Region, error) {
	bounds := image.Rect(0, 0, baseW, baseH)
	if baseW <= 0 || baseH <= 0 {
		return Region{}, &InvalidRegionError{Bounds: bounds, Reason: "base image is empty"}
	}

	w := int(p.WidthFrac * float64(baseW))
	h := int(p.HeightFrac * float64(baseH))
	if p.KeepAspect && overlayW > 0 && overlayH > 0 {
		scale := float64(w) / float64(overlayW)
		h = int(float64(overlayH) * scale)
	}

	x := int(p.XFrac * float64(baseW))
	if p.CenterX {
		x = baseW/2 - w/2
	}
	y := int(p.YFrac * float64(baseH))

	r := Region{X: x, Y: y, Width: w, Height: h}
	if _, err := r.validate(bounds); err != nil {
		return Region{}, err
	}
	return r, nil
}

// LandmarkPolicy places the garment on the torso described by body landmarks.
type LandmarkPolicy struct {
	// WidthFactor scales the shoulder-to-shoulder distance to cover the
	// garment's drape. Typical values are 1.6 to 2.0.
	WidthFactor float64 `json:"width_factor"`

	// HeightFactor scales the shoulder-to-hip distance.
	HeightFactor float64 `json:"height_factor"`
}

// DefaultLandmarkPolicy widens the shoulder line by 1.8x and spans shoulders to hips.
var DefaultLandmarkPolicy = LandmarkPolicy{WidthFactor: 1.8, HeightFactor: 1.0}

// Region computes a box centered on the torso of a base of baseW x baseH.
func (p LandmarkPolicy) Region(baseW, baseH int, lm Landmarks) (Region, error) {
	bounds := image.Rect(0, 0, baseW, baseH)
	if baseW <= 0 || baseH <= 0 {
		return Region{}, &InvalidRegionError{Bounds: bounds, Reason: "base image is empty"}
	}
	if p.WidthFactor <= 0 || p.HeightFactor <= 0 {
		return Region{}, &InvalidRegionError{Bounds: bounds, Reason: "landmark scale factors must be positive"}
	}
	if err := lm.Validate(); err != nil {
		return Region{}, &InvalidRegionError{Bounds: bounds, Reason: err.Error()}
	}

	m := MeasurePose(lm, baseW, baseH)
	w := int(math.Round(m.ShoulderWidth * p.WidthFactor))
	h := int(math.Round(m.TorsoHeight * p.HeightFactor))

	r := Region{
		X:      int(math.Round(m.CenterX - float64(w)/2)),
		Y:      int(math.Round(m.CenterY - float64(h)/2)),
		Width:  w,
		Height: h,
	}
	if _, err := r.validate(bounds); err != nil {
		return Region{}, err
	}
	return r, nil
}
