// Package tryon runs the garment overlay pipeline: decode both photos, pick a
// placement region, optionally segment the person, composite and encode.
//
// The pipeline holds no global state. A Service is safe for concurrent use as
// long as its collaborators are.
package tryon

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"time"

	"github.com/ironsheep/tryon-compositor-mcp/internal/compositor"
	"github.com/ironsheep/tryon-compositor-mcp/internal/config"
	"github.com/ironsheep/tryon-compositor-mcp/internal/detection"
	"github.com/ironsheep/tryon-compositor-mcp/internal/imaging"
)

// Policy names reported in Result.Policy.
const (
	PolicyExplicit = "explicit"
	PolicyLandmark = "landmark"
)

// Service composites garments onto person photos.
type Service struct {
	cfg       *config.Config
	segmenter detection.Segmenter
	detector  detection.LandmarkDetector
	debug     bool
}

// Option configures a Service.
type Option func(*Service)

// WithSegmenter sets the person segmenter used for masked composites.
func WithSegmenter(seg detection.Segmenter) Option {
	return func(s *Service) { s.segmenter = seg }
}

// WithLandmarkDetector sets the detector consulted when a request carries no landmarks.
func WithLandmarkDetector(d detection.LandmarkDetector) Option {
	return func(s *Service) { s.detector = d }
}

// WithDebug enables per-stage timing logs.
func WithDebug(debug bool) Option {
	return func(s *Service) { s.debug = debug }
}

// New creates a Service. A nil cfg means config.Default().
func New(cfg *config.Config, opts ...Option) *Service {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Service{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewSegmenter builds the background segmenter described by the mask config.
func NewSegmenter(cfg config.MaskConfig) detection.BackgroundSegmenter {
	return detection.BackgroundSegmenter{
		Tolerance:   cfg.Tolerance,
		BlurRadius:  cfg.BlurRadius,
		KeepLargest: cfg.KeepLargest,
	}
}

// Config returns the service configuration.
func (s *Service) Config() *config.Config {
	return s.cfg
}

// Request describes one try-on.
//
// Each photo is given either decoded (Person, Garment) or as encoded bytes
// (PersonData, GarmentData). Decoded images take precedence.
type Request struct {
	Person      image.Image
	Garment     image.Image
	PersonData  []byte
	GarmentData []byte

	// Landmarks skips the landmark detector when set.
	Landmarks *compositor.Landmarks

	// Region skips all placement policies when set.
	Region *compositor.Region

	// UseMask overrides the configured mask setting when non-nil.
	UseMask *bool

	// Format and Quality override the configured output encoding when set.
	Format  string
	Quality int
}

// Result is the outcome of a try-on.
type Result struct {
	Image  *image.NRGBA            `json:"-"`
	Output *imaging.EncodedImage   `json:"output"`
	Region compositor.Region       `json:"region"`
	Policy string                  `json:"policy"`
	Masked bool                    `json:"masked"`
	Pose   *compositor.PoseMetrics `json:"pose,omitempty"`

	// Fallback explains why the landmark policy was not used, when it was
	// attempted and rejected.
	Fallback string `json:"fallback,omitempty"`

	Elapsed time.Duration `json:"elapsed_ns"`
}

// Run executes the pipeline.
//
// Decode failures are returned as *compositor.DecodeError. When landmarks are
// missing or yield an invalid region, the configured proportional policy is
// used instead; any other failure aborts the run.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	stage := start

	mark := func(name string) {
		if s.debug {
			now := time.Now()
			log.Printf("tryon: %s took %v", name, now.Sub(stage))
			stage = now
		}
	}

	person, err := decodeInput("person", req.Person, req.PersonData)
	if err != nil {
		return nil, err
	}
	garment, err := decodeInput("garment", req.Garment, req.GarmentData)
	if err != nil {
		return nil, err
	}
	mark("decode")
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{}
	region, err := s.place(ctx, person, garment, req, res)
	if err != nil {
		return nil, err
	}
	res.Region = region
	mark("placement")

	var mask *compositor.Mask
	useMask := s.cfg.Mask.Enabled
	if req.UseMask != nil {
		useMask = *req.UseMask
	}
	if useMask {
		if s.segmenter == nil {
			return nil, errors.New("masking requested but no segmenter is configured")
		}
		mask, err = s.Mask(ctx, person)
		if err != nil {
			return nil, err
		}
		res.Masked = true
		mark("segmentation")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := compositor.Composite(person, garment, region, mask)
	if err != nil {
		return nil, fmt.Errorf("composite failed: %w", err)
	}
	res.Image = out
	mark("composite")
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format := req.Format
	if format == "" {
		format = s.cfg.Output.Format
	}
	quality := req.Quality
	if quality == 0 {
		quality = s.cfg.Output.JPEGQuality
	}
	res.Output, err = imaging.Encode(out, format, quality)
	if err != nil {
		return nil, err
	}
	mark("encode")

	res.Elapsed = time.Since(start)
	if s.debug {
		log.Printf("tryon: %dx%d composite, policy=%s region=%+v masked=%v in %v",
			out.Bounds().Dx(), out.Bounds().Dy(), res.Policy, region, res.Masked, res.Elapsed)
	}
	return res, nil
}

// Region resolves the placement region for a person and garment without
// compositing. The returned Result carries only Region, Policy, Pose and Fallback.
func (s *Service) Region(ctx context.Context, person, garment image.Image, lm *compositor.Landmarks) (*Result, error) {
	if person == nil || person.Bounds().Empty() {
		return nil, &compositor.DecodeError{Input: "person"}
	}
	res := &Result{}
	region, err := s.place(ctx, person, garment, Request{Landmarks: lm}, res)
	if err != nil {
		return nil, err
	}
	res.Region = region
	return res, nil
}

// Mask segments the person and thresholds the confidence map.
func (s *Service) Mask(ctx context.Context, person image.Image) (*compositor.Mask, error) {
	if s.segmenter == nil {
		return nil, errors.New("no segmenter configured")
	}
	conf, err := s.segmenter.Segment(ctx, person)
	if err != nil {
		return nil, fmt.Errorf("segmentation failed: %w", err)
	}
	return compositor.NewMask(conf, uint8(s.cfg.Mask.Threshold))
}

// place picks the region: explicit, then landmarks, then the proportional
// fallback. It fills Policy, Pose and Fallback on res.
func (s *Service) place(ctx context.Context, person, garment image.Image, req Request, res *Result) (compositor.Region, error) {
	pb := person.Bounds()
	w, h := pb.Dx(), pb.Dy()

	if req.Region != nil {
		res.Policy = PolicyExplicit
		return *req.Region, nil
	}

	lm := req.Landmarks
	if lm == nil && s.detector != nil {
		detected, err := s.detector.DetectLandmarks(ctx, person)
		switch {
		case errors.Is(err, detection.ErrNoPose):
			res.Fallback = err.Error()
		case err != nil:
			return compositor.Region{}, fmt.Errorf("landmark detection failed: %w", err)
		default:
			lm = detected
		}
	}

	if lm != nil {
		region, err := s.cfg.LandmarkPolicy().Region(w, h, *lm)
		if err == nil {
			pose := compositor.MeasurePose(*lm, w, h)
			res.Policy = PolicyLandmark
			res.Pose = &pose
			return region, nil
		}
		if !compositor.IsInvalidRegion(err) {
			return compositor.Region{}, err
		}
		res.Fallback = err.Error()
		if s.debug {
			log.Printf("tryon: landmark placement rejected, falling back: %v", err)
		}
	}

	gw, gh := 0, 0
	if garment != nil {
		gw, gh = garment.Bounds().Dx(), garment.Bounds().Dy()
	}
	region, err := s.cfg.ProportionalPolicy().Region(w, h, gw, gh)
	if err != nil {
		return compositor.Region{}, err
	}
	res.Policy = s.cfg.Placement.Policy
	return region, nil
}

func decodeInput(name string, img image.Image, data []byte) (image.Image, error) {
	if img != nil {
		if img.Bounds().Empty() {
			return nil, &compositor.DecodeError{Input: name}
		}
		return img, nil
	}
	decoded, _, err := imaging.DecodeBytes(name, data)
	if err != nil {
		return nil, err
	}
	return decoded, nil
}
