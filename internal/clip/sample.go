package clip

import (
	"context"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vmrc/terraclip/internal/geometry"
	"github.com/vmrc/terraclip/internal/model"
	"github.com/vmrc/terraclip/internal/raster"
)

// Sample reads the single pixel under a geographic point. The point is
// reprojected to the raster's native system and snapped to its cell;
// a point off the raster extent has no value to report.
func (p *Pipeline) Sample(ctx context.Context, rasterID string, lon, lat float64) (*model.SampleResult, error) {
	layer, err := p.Catalog.Resolve(ctx, rasterID)
	if err != nil {
		return nil, err
	}

	h, err := raster.Open(layer.Path)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	proj4, err := resolveProj4(layer, h)
	if err != nil {
		return nil, err
	}
	x, y, err := geometry.ReprojectPoint(lon, lat, proj4)
	if err != nil {
		return nil, err
	}

	inv, err := h.Transform().Invert()
	if err != nil {
		return nil, err
	}
	col, row := inv.Apply(x, y)
	c, r := int(math.Floor(col)), int(math.Floor(row))
	if c < 0 || c >= h.Width() || r < 0 || r >= h.Height() {
		return nil, eris.Wrap(model.ErrNoOverlap, "clip: point is outside the raster extent")
	}

	pixels, err := h.ReadWindow(raster.Window{Col: c, Row: r, Width: 1, Height: 1})
	if err != nil {
		return nil, err
	}
	v := pixels[0]
	nodata := v == effectiveNodata(h) || math.IsNaN(v) || math.IsInf(v, 0)

	zap.L().Debug("clip: point sampled",
		zap.String("raster_id", rasterID),
		zap.Float64("value", v),
		zap.Bool("is_nodata", nodata))

	return &model.SampleResult{
		RasterID: rasterID,
		Lon:      lon,
		Lat:      lat,
		Value:    v,
		IsNodata: nodata,
	}, nil
}
