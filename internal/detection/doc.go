// Package detection provides the optional collaborators of the try-on pipeline.
//
// The compositor itself never looks at image content. Two collaborators can
// feed it better inputs:
//
//   - Segmenter: produces a foreground confidence map of the person photo,
//     which the pipeline thresholds into a compositor.Mask.
//   - LandmarkDetector: finds shoulders and hips so the garment can be
//     placed on the torso instead of in a fixed proportional box.
//
// Either may be absent. Pose models and learned segmentation run outside this
// process; StaticLandmarks carries landmarks supplied by such a model, and
// BackgroundSegmenter handles the common studio case of a person in front of
// a plain backdrop.
//
// # Background Segmentation
//
// BackgroundSegmenter follows a simple pipeline:
//
//  1. Background estimation: the dominant color of thin strips along the
//     image border
//  2. Confidence: CIE Lab distance of each pixel from the background color,
//     scaled so Tolerance maps to full confidence
//  3. Cleanup: optionally keep only the largest connected foreground blob
//  4. Feathering: optional Gaussian blur of the confidence map
//
// # Limitations
//
// Busy or person-colored backgrounds defeat the background segmenter. Its
// output is a hint for the fallback fidelity tier, not a matte.
package detection
