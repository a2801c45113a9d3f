package clip

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vmrc/terraclip/internal/aoi"
	"github.com/vmrc/terraclip/internal/assets"
	"github.com/vmrc/terraclip/internal/catalog"
	"github.com/vmrc/terraclip/internal/geometry"
	"github.com/vmrc/terraclip/internal/model"
	"github.com/vmrc/terraclip/internal/raster"
	"github.com/vmrc/terraclip/internal/render"
	"github.com/vmrc/terraclip/internal/stats"
)

// Pipeline wires the clip request chain to its collaborators. Baseline
// may be nil.
type Pipeline struct {
	Catalog  catalog.Catalog
	Assets   *assets.Store
	Baseline *aoi.Baseline
}

// Request is one clip invocation.
type Request struct {
	RasterID string
	AOI      []byte // raw GeoJSON in geographic coordinates
}

// Run executes the full chain: resolve, normalize, reproject, check
// overlap, mask both variants, summarize, render, place. Every failure
// is terminal; nothing partial is ever returned.
func (p *Pipeline) Run(ctx context.Context, req Request) (*model.ClipResult, error) {
	log := zap.L().With(zap.String("raster_id", req.RasterID))

	layer, err := p.Catalog.Resolve(ctx, req.RasterID)
	if err != nil {
		return nil, err
	}

	h, err := raster.Open(layer.Path)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	g, err := geometry.Normalize(req.AOI)
	if err != nil {
		return nil, err
	}
	g, err = p.Baseline.Apply(g)
	if err != nil {
		return nil, err
	}

	proj4, err := resolveProj4(layer, h)
	if err != nil {
		return nil, err
	}
	native, err := geometry.Reproject(g, proj4)
	if err != nil {
		return nil, err
	}

	minX, minY, maxX, maxY := h.Bounds()
	overlap, err := geometry.Intersects(native, geometry.BoundsPolygon(minX, minY, maxX, maxY))
	if err != nil {
		return nil, err
	}
	if !overlap {
		return nil, eris.Wrap(model.ErrNoOverlap, "clip: AOI is outside the raster extent")
	}

	statsV, overlayV, err := maskVariants(ctx, h, native)
	if err != nil {
		return nil, err
	}
	log.Debug("clip: variants masked",
		zap.Int("stats_valid", statsV.ValidCount),
		zap.Int("overlay_valid", overlayV.ValidCount))

	img, err := render.Overlay(overlayV.Pixels, overlayV.Valid, overlayV.Width, overlayV.Height)
	if err != nil {
		return nil, err
	}
	data, err := render.EncodePNG(img)
	if err != nil {
		return nil, err
	}
	ref, err := p.Assets.SaveOverlay(data)
	if err != nil {
		return nil, err
	}

	bounds, err := TransformBounds(overlayV, proj4, g)
	if err != nil {
		return nil, err
	}

	result := &model.ClipResult{
		RasterID:   req.RasterID,
		OverlayRef: ref,
		Bounds:     bounds,
		Stats:      stats.Summarize(statsV.Pixels, statsV.Valid),
		Histogram:  stats.Histogram(statsV.Pixels, statsV.Valid),
	}
	log.Info("clip: request complete",
		zap.String("overlay", ref),
		zap.Int("pixel_count", result.Stats.Count))
	return result, nil
}

// resolveProj4 picks the raster's native projection: a catalog
// override is authoritative, otherwise the GeoTIFF's EPSG code must
// map to a known definition.
func resolveProj4(layer catalog.Layer, h *raster.Handle) (string, error) {
	if layer.Proj4 != "" {
		return layer.Proj4, nil
	}
	proj4, ok := raster.Proj4FromEPSG(h.EPSG())
	if !ok {
		return "", eris.Wrapf(model.ErrReprojection, "clip: no projection for EPSG %d", h.EPSG())
	}
	return proj4, nil
}

// maskVariants computes the two independent clips concurrently.
func maskVariants(ctx context.Context, h *raster.Handle, native geom.T) (*Variant, *Variant, error) {
	var statsV, overlayV *Variant
	grp, _ := errgroup.WithContext(ctx)
	grp.Go(func() error {
		var err error
		statsV, err = StatsClip(h, native)
		return err
	})
	grp.Go(func() error {
		var err error
		overlayV, err = OverlayClip(h, native)
		return err
	})
	if err := grp.Wait(); err != nil {
		return nil, nil, err
	}
	return statsV, overlayV, nil
}
