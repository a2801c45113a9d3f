package model

import "github.com/rotisserie/eris"

// Pipeline failure sentinels. Every error surfaced by the clipping
// pipeline wraps exactly one of these, so callers discriminate with
// eris.Is (or ErrorKind) instead of matching message text.
var (
	// ErrInvalidGeometry marks a malformed, empty, or unrepairable AOI.
	ErrInvalidGeometry = eris.New("invalid geometry")
	// ErrReprojection marks a CRS transform that could not be built or applied.
	ErrReprojection = eris.New("reprojection failure")
	// ErrNoOverlap marks an AOI that does not intersect the raster extent.
	ErrNoOverlap = eris.New("no overlap")
	// ErrEmptyClipResult marks masking that produced a zero-sized array.
	ErrEmptyClipResult = eris.New("empty clip result")
	// ErrNoValidPixels marks masking that produced only nodata/invalid pixels.
	ErrNoValidPixels = eris.New("no valid pixels")
	// ErrNotFound marks a raster id the catalog cannot resolve.
	ErrNotFound = eris.New("not found")
	// ErrResourceFailure marks a raster that could not be opened or an
	// overlay that could not be written.
	ErrResourceFailure = eris.New("resource failure")
	// ErrInternalInvariant marks a defect in the pipeline itself, never
	// a problem with the caller's input.
	ErrInternalInvariant = eris.New("internal invariant violation")
)

// Kind labels, stable for serialization.
const (
	KindInvalidGeometry   = "invalid_geometry"
	KindReprojection      = "reprojection_failure"
	KindNoOverlap         = "no_overlap"
	KindEmptyClipResult   = "empty_clip_result"
	KindNoValidPixels     = "no_valid_pixels"
	KindNotFound          = "not_found"
	KindResourceFailure   = "resource_failure"
	KindInternalInvariant = "internal_invariant_violation"
	KindUnknown           = "unknown"
)

var kinds = []struct {
	sentinel error
	label    string
}{
	{ErrInvalidGeometry, KindInvalidGeometry},
	{ErrReprojection, KindReprojection},
	{ErrNoOverlap, KindNoOverlap},
	{ErrEmptyClipResult, KindEmptyClipResult},
	{ErrNoValidPixels, KindNoValidPixels},
	{ErrNotFound, KindNotFound},
	{ErrResourceFailure, KindResourceFailure},
	{ErrInternalInvariant, KindInternalInvariant},
}

// ErrorKind returns the stable label for the sentinel err wraps, or
// KindUnknown for errors from outside the closed set.
func ErrorKind(err error) string {
	for _, k := range kinds {
		if eris.Is(err, k.sentinel) {
			return k.label
		}
	}
	return KindUnknown
}

// IsUserError reports whether err is actionable by the caller (bad
// geometry, AOI outside the data, unknown raster id) as opposed to an
// internal or resource defect.
func IsUserError(err error) bool {
	switch ErrorKind(err) {
	case KindInvalidGeometry, KindNoOverlap, KindEmptyClipResult, KindNoValidPixels, KindNotFound:
		return true
	}
	return false
}
