// Package clip turns a reprojected AOI polygon and an open raster into
// masked pixel windows, and orchestrates the full clip request.
//
// Two variants of the same clip are produced: the stats variant masks
// with the exact AOI, the overlay variant pre-buffers the AOI by half a
// pixel so coarse rasters do not render with gnawed edges. The buffer
// must never leak into statistics, so the variants share code but no
// state.
package clip

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/vmrc/terraclip/internal/geometry"
	"github.com/vmrc/terraclip/internal/model"
	"github.com/vmrc/terraclip/internal/raster"
)

// Variant is one masked clip window. Pixels holds band-1 values in
// row-major order with excluded cells overwritten by Nodata; Valid
// marks cells that are inside the polygon, not nodata and finite.
type Variant struct {
	Pixels     []float64
	Valid      []bool
	Width      int
	Height     int
	Transform  raster.Affine
	Nodata     float64
	ValidCount int
}

// StatsClip masks the raster with the exact AOI geometry. Statistics
// and the histogram must only ever be computed from this variant.
func StatsClip(h *raster.Handle, g geom.T) (*Variant, error) {
	return newVariant(h, g)
}

// OverlayClip masks the raster with the AOI buffered outward by half
// the larger native pixel dimension. Visualization only.
func OverlayClip(h *raster.Handle, g geom.T) (*Variant, error) {
	pw, ph := h.Transform().PixelSize()
	buffered, err := geometry.Buffer(g, 0.5*math.Max(pw, ph))
	if err != nil {
		return nil, err
	}
	return newVariant(h, buffered)
}

func newVariant(h *raster.Handle, g geom.T) (*Variant, error) {
	b := g.Bounds()
	win, err := h.Transform().WindowFromBounds(b.Min(0), b.Min(1), b.Max(0), b.Max(1))
	if err != nil {
		return nil, err
	}
	win = win.Clamp(h.Width(), h.Height())
	if win.Empty() {
		return nil, eris.Wrap(model.ErrEmptyClipResult, "clip: geometry window has zero size")
	}

	pixels, err := h.ReadWindow(win)
	if err != nil {
		return nil, err
	}

	winT := h.Transform().WindowTransform(win)
	inv, err := winT.Invert()
	if err != nil {
		return nil, err
	}
	inside := allTouchedMask(g, inv, win.Width, win.Height)

	v := &Variant{
		Pixels:    pixels,
		Valid:     make([]bool, len(pixels)),
		Width:     win.Width,
		Height:    win.Height,
		Transform: winT,
		Nodata:    effectiveNodata(h),
	}
	for i, p := range pixels {
		if !inside[i] {
			v.Pixels[i] = v.Nodata
			continue
		}
		if p == v.Nodata || math.IsNaN(p) || math.IsInf(p, 0) {
			continue
		}
		v.Valid[i] = true
		v.ValidCount++
	}
	if v.ValidCount == 0 {
		return nil, eris.Wrap(model.ErrNoValidPixels, "clip: window contains only nodata pixels")
	}
	return v, nil
}

// effectiveNodata picks the sentinel used for excluded pixels: the
// declared nodata when present, otherwise a value outside the natural
// range of the sample type.
func effectiveNodata(h *raster.Handle) float64 {
	if nd := h.Nodata(); nd != nil {
		return *nd
	}
	switch h.DType() {
	case raster.DTypeUint8:
		return 255
	case raster.DTypeUint16:
		return 65535
	default:
		return -9999
	}
}
