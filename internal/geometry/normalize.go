package geometry

import (
	"encoding/json"

	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geos"

	"github.com/rotisserie/eris"

	"github.com/vmrc/terraclip/internal/model"
)

// geojsonEnvelope is the minimal shape needed to discriminate the
// GeoJSON tagged union before full decoding.
type geojsonEnvelope struct {
	Type     string            `json:"type"`
	Geometry json.RawMessage   `json:"geometry"`
	Features []json.RawMessage `json:"features"`
}

// Normalize decodes raw GeoJSON input of type Point, Polygon,
// MultiPolygon, Feature or FeatureCollection and resolves it to a
// single valid, non-empty Polygon or MultiPolygon in the input's
// coordinate system.
//
// Feature input contributes its geometry. FeatureCollection input is
// filtered to polygonal members: none fails, one is used as-is, and
// several are individually repaired and unioned. Any result that is
// not polygonal fails.
func Normalize(raw []byte) (geom.T, error) {
	var env geojsonEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, eris.Wrapf(model.ErrInvalidGeometry, "geometry: decode GeoJSON: %v", err)
	}

	switch env.Type {
	case "FeatureCollection":
		return normalizeCollection(env.Features)
	case "Feature":
		if len(env.Geometry) == 0 {
			return nil, eris.Wrap(model.ErrInvalidGeometry, "geometry: feature has no geometry")
		}
		return normalizeGeometry(env.Geometry)
	case "Point", "Polygon", "MultiPolygon", "LineString", "MultiPoint", "MultiLineString", "GeometryCollection":
		return normalizeGeometry(raw)
	case "":
		return nil, eris.Wrap(model.ErrInvalidGeometry, "geometry: missing GeoJSON type")
	default:
		return nil, eris.Wrapf(model.ErrInvalidGeometry, "geometry: unsupported GeoJSON type %q", env.Type)
	}
}

// normalizeGeometry decodes a single GeoJSON geometry and validates /
// repairs it into a Polygon or MultiPolygon.
func normalizeGeometry(raw []byte) (geom.T, error) {
	var g geom.T
	if err := geojson.Unmarshal(raw, &g); err != nil {
		return nil, eris.Wrapf(model.ErrInvalidGeometry, "geometry: decode geometry: %v", err)
	}
	return normalizeGeom(g)
}

// Repair validates an already decoded geometry and fixes invalid
// topology, with the same contract as Normalize.
func Repair(g geom.T) (geom.T, error) {
	return normalizeGeom(g)
}

// normalizeGeom validates / repairs a decoded geometry into a Polygon
// or MultiPolygon.
func normalizeGeom(g geom.T) (geom.T, error) {
	if !isPolygonal(g) {
		return nil, eris.Wrap(model.ErrInvalidGeometry, "geometry: geometry is not Polygon or MultiPolygon")
	}

	gg, err := toGEOS(g)
	if err != nil {
		return nil, eris.Wrap(model.ErrInvalidGeometry, err.Error())
	}
	defer gg.Destroy()

	valid, err := ensurePolygonal(gg)
	if err != nil {
		return nil, err
	}
	if valid != gg {
		defer valid.Destroy()
	}
	return fromGEOS(valid)
}

// normalizeCollection filters a FeatureCollection's members to
// polygonal geometries and unions them when several remain.
func normalizeCollection(features []json.RawMessage) (geom.T, error) {
	var polygonal []geom.T
	for _, raw := range features {
		var f geojson.Feature
		if err := json.Unmarshal(raw, &f); err != nil {
			continue // skip undecodable members, like non-polygons
		}
		if f.Geometry == nil || !isPolygonal(f.Geometry) {
			continue
		}
		polygonal = append(polygonal, f.Geometry)
	}
	if len(polygonal) == 0 {
		return nil, eris.Wrap(model.ErrInvalidGeometry, "geometry: no Polygon or MultiPolygon features in collection")
	}
	if len(polygonal) == 1 {
		return normalizeGeom(polygonal[0])
	}

	// Repair each part before unioning, then validate the union.
	var acc *geos.Geom
	destroyAcc := func() {
		if acc != nil {
			acc.Destroy()
		}
	}
	for _, part := range polygonal {
		gg, err := toGEOS(part)
		if err != nil {
			destroyAcc()
			return nil, eris.Wrap(model.ErrInvalidGeometry, err.Error())
		}
		repaired, err := ensurePolygonal(gg)
		if err != nil {
			gg.Destroy()
			destroyAcc()
			return nil, err
		}
		if repaired != gg {
			gg.Destroy()
		}
		if acc == nil {
			acc = repaired
			continue
		}
		union := acc.Union(repaired)
		acc.Destroy()
		repaired.Destroy()
		if union == nil {
			return nil, eris.Wrap(model.ErrInvalidGeometry, "geometry: union of features failed")
		}
		acc = union
	}
	defer destroyAcc()

	valid, err := ensurePolygonal(acc)
	if err != nil {
		return nil, err
	}
	if valid != acc {
		defer valid.Destroy()
	}
	return fromGEOS(valid)
}
