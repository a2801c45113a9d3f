package geometry

import (
	"math"

	"github.com/rotisserie/eris"
	tsgeom "github.com/terrascope/geometry"
	"github.com/terrascope/proj4go"
	"github.com/twpayne/go-geom"

	"github.com/vmrc/terraclip/internal/model"
	"github.com/vmrc/terraclip/internal/raster"
)

// Reproject transforms a lon/lat geometry into the coordinate system
// described by proj4. Output coordinates are always truncated to six
// decimals; geographic targets skip the projection and only truncate,
// so degree-space rasters see stable values.
func Reproject(g geom.T, proj4 string) (geom.T, error) {
	if raster.IsGeographic(proj4) {
		return truncateCoords(g)
	}
	return transform(g, proj4, func(pts []tsgeom.Point) {
		proj4go.Forwards(proj4, pts)
	})
}

// ReprojectInverse transforms a geometry in the proj4 coordinate
// system back to lon/lat.
func ReprojectInverse(g geom.T, proj4 string) (geom.T, error) {
	if raster.IsGeographic(proj4) {
		return truncateCoords(g)
	}
	return transform(g, proj4, func(pts []tsgeom.Point) {
		proj4go.Inverse(proj4, pts)
	})
}

// ReprojectPoint transforms a single lon/lat coordinate into the
// proj4 coordinate system, with the same truncation contract as
// Reproject.
func ReprojectPoint(lon, lat float64, proj4 string) (x, y float64, err error) {
	if raster.IsGeographic(proj4) {
		return truncate6(lon), truncate6(lat), nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = eris.Wrapf(model.ErrReprojection, "geometry: transform with %q: %v", proj4, r)
		}
	}()

	pts := []tsgeom.Point{{X: lon, Y: lat}}
	proj4go.Forwards(proj4, pts)
	if !finite(pts[0].X) || !finite(pts[0].Y) {
		return 0, 0, eris.Wrapf(model.ErrReprojection, "geometry: transform with %q produced a non-finite coordinate", proj4)
	}
	return truncate6(pts[0].X), truncate6(pts[0].Y), nil
}

// transform applies a point transform to a copy of g's coordinates,
// truncating the results to six decimals. proj4go panics on malformed
// projection strings, so the whole pass runs under a recover.
func transform(g geom.T, proj4 string, apply func([]tsgeom.Point)) (out geom.T, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = eris.Wrapf(model.ErrReprojection, "geometry: transform with %q: %v", proj4, r)
		}
	}()

	stride := g.Stride()
	flat := append([]float64(nil), g.FlatCoords()...)
	pts := make([]tsgeom.Point, len(flat)/stride)
	for i := range pts {
		pts[i] = tsgeom.Point{X: flat[i*stride], Y: flat[i*stride+1]}
	}
	apply(pts)
	for i, p := range pts {
		if !finite(p.X) || !finite(p.Y) {
			return nil, eris.Wrapf(model.ErrReprojection, "geometry: transform with %q produced a non-finite coordinate", proj4)
		}
		flat[i*stride] = truncate6(p.X)
		flat[i*stride+1] = truncate6(p.Y)
	}
	return rebuildFlat(g, flat)
}

// truncateCoords drops digits past the sixth decimal, about 0.1m of
// longitude, which is below the pixel size of any catalog raster.
func truncateCoords(g geom.T) (geom.T, error) {
	stride := g.Stride()
	flat := append([]float64(nil), g.FlatCoords()...)
	for i := 0; i+1 < len(flat); i += stride {
		flat[i] = truncate6(flat[i])
		flat[i+1] = truncate6(flat[i+1])
	}
	return rebuildFlat(g, flat)
}

func truncate6(v float64) float64 {
	return math.Trunc(v*1e6) / 1e6
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func rebuildFlat(g geom.T, flat []float64) (geom.T, error) {
	switch t := g.(type) {
	case *geom.Polygon:
		return geom.NewPolygonFlat(t.Layout(), flat, t.Ends()), nil
	case *geom.MultiPolygon:
		return geom.NewMultiPolygonFlat(t.Layout(), flat, t.Endss()), nil
	default:
		return nil, eris.Wrapf(model.ErrReprojection, "geometry: unsupported geometry type %T", g)
	}
}
