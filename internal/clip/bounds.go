package clip

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/vmrc/terraclip/internal/geometry"
	"github.com/vmrc/terraclip/internal/model"
)

// edgeDensity is the number of interior points inserted per rectangle
// edge before inverse projection, so curved projections do not clip
// the true extent.
const edgeDensity = 16

// TransformBounds maps the overlay window's native rectangle back to
// geographic coordinates for image placement. aoiGeo is the original
// AOI in geographic coordinates; the output must intersect its
// bounding box or the pipeline mishandled a coordinate system.
func TransformBounds(v *Variant, proj4 string, aoiGeo geom.T) (model.GeoBounds, error) {
	minX, minY, maxX, maxY := v.Transform.Bounds(v.Width, v.Height)

	rect := densifiedRect(minX, minY, maxX, maxY)
	back, err := geometry.ReprojectInverse(rect, proj4)
	if err != nil {
		return model.GeoBounds{}, err
	}

	b := back.Bounds()
	out := model.GeoBounds{West: b.Min(0), South: b.Min(1), East: b.Max(0), North: b.Max(1)}
	if out.West >= out.East || out.South >= out.North {
		return model.GeoBounds{}, eris.Wrapf(model.ErrInternalInvariant,
			"clip: degenerate geographic bounds %+v", out)
	}

	ab := aoiGeo.Bounds()
	if out.East < ab.Min(0) || out.West > ab.Max(0) || out.North < ab.Min(1) || out.South > ab.Max(1) {
		return model.GeoBounds{}, eris.Wrapf(model.ErrInternalInvariant,
			"clip: overlay bounds %+v do not touch the AOI bounding box", out)
	}
	return out, nil
}

// densifiedRect builds the rectangle ring with edgeDensity interior
// points per edge.
func densifiedRect(minX, minY, maxX, maxY float64) *geom.Polygon {
	type corner struct{ x, y float64 }
	corners := []corner{{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}}

	var flat []float64
	for i, c := range corners {
		next := corners[(i+1)%len(corners)]
		for s := 0; s <= edgeDensity; s++ {
			f := float64(s) / float64(edgeDensity+1)
			flat = append(flat, c.x+f*(next.x-c.x), c.y+f*(next.y-c.y))
		}
	}
	flat = append(flat, minX, minY)
	return geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)})
}
