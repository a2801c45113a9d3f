// Package geometry normalizes raw GeoJSON AOI input into a valid
// Polygon/MultiPolygon and reprojects geometries between geographic
// and raster-native coordinate systems.
//
// Geometries are modeled with go-geom; topology operations (repair,
// union, buffer, intersection) run through GEOS, bridged over WKB.
package geometry

import (
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	"github.com/twpayne/go-geos"

	"github.com/rotisserie/eris"

	"github.com/vmrc/terraclip/internal/model"
)

var geosContext = geos.NewContext()

// toGEOS converts a go-geom geometry to a GEOS geometry.
func toGEOS(g geom.T) (*geos.Geom, error) {
	data, err := wkb.Marshal(g, wkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "geometry: encode WKB")
	}
	gg, err := geosContext.NewGeomFromWKB(data)
	if err != nil {
		return nil, eris.Wrap(err, "geometry: decode WKB into GEOS")
	}
	return gg, nil
}

// fromGEOS converts a GEOS geometry back to go-geom.
func fromGEOS(gg *geos.Geom) (geom.T, error) {
	g, err := wkb.Unmarshal(gg.ToWKB())
	if err != nil {
		return nil, eris.Wrap(err, "geometry: decode GEOS WKB")
	}
	return g, nil
}

// Buffer expands (or shrinks, for negative dist) a polygonal geometry
// by dist in its own coordinate units.
func Buffer(g geom.T, dist float64) (geom.T, error) {
	gg, err := toGEOS(g)
	if err != nil {
		return nil, err
	}
	defer gg.Destroy()
	buffered := gg.Buffer(dist, 8)
	defer buffered.Destroy()
	return fromGEOS(buffered)
}

// Intersects reports whether two geometries share any point.
func Intersects(a, b geom.T) (bool, error) {
	ga, err := toGEOS(a)
	if err != nil {
		return false, err
	}
	defer ga.Destroy()
	gb, err := toGEOS(b)
	if err != nil {
		return false, err
	}
	defer gb.Destroy()
	return ga.Intersects(gb), nil
}

// Intersection returns the geometric intersection of two geometries.
func Intersection(a, b geom.T) (geom.T, error) {
	ga, err := toGEOS(a)
	if err != nil {
		return nil, err
	}
	defer ga.Destroy()
	gb, err := toGEOS(b)
	if err != nil {
		return nil, err
	}
	defer gb.Destroy()
	out := ga.Intersection(gb)
	defer out.Destroy()
	return fromGEOS(out)
}

// Union merges two geometries.
func Union(a, b geom.T) (geom.T, error) {
	ga, err := toGEOS(a)
	if err != nil {
		return nil, err
	}
	defer ga.Destroy()
	gb, err := toGEOS(b)
	if err != nil {
		return nil, err
	}
	defer gb.Destroy()
	out := ga.Union(gb)
	defer out.Destroy()
	return fromGEOS(out)
}

// BoundsPolygon builds the rectangle polygon for a bounding box.
func BoundsPolygon(minX, minY, maxX, maxY float64) *geom.Polygon {
	return geom.NewPolygonFlat(geom.XY, []float64{
		minX, minY,
		maxX, minY,
		maxX, maxY,
		minX, maxY,
		minX, minY,
	}, []int{10})
}

// isPolygonal reports whether g is a Polygon or MultiPolygon.
func isPolygonal(g geom.T) bool {
	switch g.(type) {
	case *geom.Polygon, *geom.MultiPolygon:
		return true
	}
	return false
}

// ensurePolygonal validates that a GEOS geometry is a non-empty, valid
// Polygon or MultiPolygon, repairing it first if needed. The result may
// alias the input; the caller keeps ownership of both.
func ensurePolygonal(gg *geos.Geom) (*geos.Geom, error) {
	if gg.IsEmpty() {
		return nil, eris.Wrap(model.ErrInvalidGeometry, "geometry: empty geometry")
	}
	out := gg
	if !out.IsValid() {
		out = out.MakeValid()
		if out == nil || out.IsEmpty() {
			return nil, eris.Wrap(model.ErrInvalidGeometry, "geometry: unrepairable geometry")
		}
	}
	switch out.TypeID() {
	case geos.TypeIDPolygon, geos.TypeIDMultiPolygon:
		return out, nil
	}
	return nil, eris.Wrap(model.ErrInvalidGeometry, "geometry: result is not polygonal")
}
