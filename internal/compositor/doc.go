// Package compositor blends a garment image onto a person image.
//
// This is the geometric fallback tier of virtual try-on: the garment is resized
// to a placement rectangle and laid over the person photo, honoring the
// garment's alpha channel or, for opaque garments, an optional foreground mask.
// There is no warping, no perspective correction and no seam blending beyond
// alpha transparency.
//
// # Coordinate System
//
// Regions are expressed in base-image pixel coordinates with (0,0) at the
// top-left corner. Landmarks are expressed in normalized image-relative
// coordinates where (0,0) is top-left and (1,1) is bottom-right.
//
// # Blending Rules
//
// For every overlay pixel that lands inside the base image:
//   - Overlay with alpha: out = a*overlay + (1-a)*base, a = alpha/255
//   - Opaque overlay with mask: overlay replaces base where the mask is foreground
//   - Opaque overlay without mask: overlay replaces base
//
// Overlay pixels that fall outside the base image are skipped.
//
// # Thread Safety
//
// Composite is a pure function. It never mutates its inputs and allocates a
// fresh output per call, so it can be called concurrently.
//
// # Idempotence
//
// Compositing is not idempotent for translucent overlays: compositing the
// result a second time blends onto already-blended pixels.
package compositor
