// Package aoi restricts user polygons to a fixed study-area boundary
// loaded from a shapefile.
package aoi

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/vmrc/terraclip/internal/geometry"
	"github.com/vmrc/terraclip/internal/model"
)

// Baseline is the dissolved study-area boundary. A nil Baseline means
// no restriction is configured.
type Baseline struct {
	boundary geom.T
}

// Load reads every polygon record of the shapefile, repairs each and
// dissolves them into a single boundary. Non-polygon records are
// skipped; a file without usable polygons is an error.
func Load(path string) (*Baseline, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(model.ErrResourceFailure, "aoi: open shapefile %s: %v", path, err)
	}
	defer func() { _ = reader.Close() }()

	log := zap.L().With(zap.String("shapefile", path))

	var boundary geom.T
	for reader.Next() {
		n, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			continue
		}

		g, err := geometry.Repair(shapePolygon(poly))
		if err != nil {
			log.Warn("aoi: skipping unrepairable shape", zap.Int("record", n), zap.Error(err))
			continue
		}
		if boundary == nil {
			boundary = g
			continue
		}
		boundary, err = geometry.Union(boundary, g)
		if err != nil {
			return nil, err
		}
	}
	if boundary == nil {
		return nil, eris.Wrapf(model.ErrResourceFailure, "aoi: no polygon records in %s", path)
	}

	boundary, err = geometry.Repair(boundary)
	if err != nil {
		return nil, err
	}
	log.Info("aoi: baseline boundary loaded")
	return &Baseline{boundary: boundary}, nil
}

// Apply intersects the user AOI with the baseline boundary. A nil
// Baseline passes the AOI through untouched. A user polygon entirely
// outside the boundary has nothing to clip against.
func (b *Baseline) Apply(user geom.T) (geom.T, error) {
	if b == nil {
		return user, nil
	}

	ok, err := geometry.Intersects(b.boundary, user)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, eris.Wrap(model.ErrNoOverlap, "aoi: user polygon is outside the study area")
	}

	clipped, err := geometry.Intersection(b.boundary, user)
	if err != nil {
		return nil, err
	}
	return geometry.Repair(clipped)
}

// shapePolygon converts the record's parts into one polygon whose
// rings follow the even-odd convention; Repair untangles multiple
// outer rings into a MultiPolygon.
func shapePolygon(p *shp.Polygon) geom.T {
	var (
		flat []float64
		ends []int
	)
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}
		ends = append(ends, len(flat))
	}
	return geom.NewPolygonFlat(geom.XY, flat, ends)
}
