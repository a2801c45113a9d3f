package clip

import (
	"math"
	"sort"

	"github.com/twpayne/go-geom"

	"github.com/vmrc/terraclip/internal/raster"
)

// allTouchedMask rasterizes a polygonal geometry onto a width x height
// pixel grid under the all-touched policy: a cell is set when the
// polygon covers its center or when any ring segment passes through
// it. The union of the two guarantees no boundary cell is dropped,
// since a cell intersecting the polygon either holds an interior
// center or is crossed by the boundary. inv maps native coordinates to
// fractional pixel coordinates of the window.
func allTouchedMask(g geom.T, inv raster.Affine, width, height int) []bool {
	mask := make([]bool, width*height)
	rings := pixelRings(g, inv)
	fillInterior(mask, width, height, rings)
	for _, ring := range rings {
		for i := 0; i+3 < len(ring); i += 2 {
			markSegment(mask, width, height, ring[i], ring[i+1], ring[i+2], ring[i+3])
		}
	}
	return mask
}

// pixelRings flattens every ring of a Polygon or MultiPolygon into
// pixel-space [x0 y0 x1 y1 ...] slices. Holes participate too; the
// even-odd fill keeps them open.
func pixelRings(g geom.T, inv raster.Affine) [][]float64 {
	var polys []*geom.Polygon
	switch t := g.(type) {
	case *geom.Polygon:
		polys = append(polys, t)
	case *geom.MultiPolygon:
		for i := 0; i < t.NumPolygons(); i++ {
			polys = append(polys, t.Polygon(i))
		}
	default:
		return nil
	}

	var rings [][]float64
	for _, p := range polys {
		for r := 0; r < p.NumLinearRings(); r++ {
			flat := p.LinearRing(r).FlatCoords()
			stride := p.Stride()
			ring := make([]float64, 0, len(flat)/stride*2)
			for i := 0; i+1 < len(flat); i += stride {
				col, row := inv.Apply(flat[i], flat[i+1])
				ring = append(ring, col, row)
			}
			rings = append(rings, ring)
		}
	}
	return rings
}

// fillInterior sets every cell whose center lies inside the rings by
// the even-odd rule, using one scanline per pixel row.
func fillInterior(mask []bool, width, height int, rings [][]float64) {
	for row := 0; row < height; row++ {
		y := float64(row) + 0.5
		var xs []float64
		for _, ring := range rings {
			for i := 0; i+3 < len(ring); i += 2 {
				y0, y1 := ring[i+1], ring[i+3]
				if (y0 <= y) == (y1 <= y) {
					continue
				}
				x0, x1 := ring[i], ring[i+2]
				xs = append(xs, x0+(y-y0)*(x1-x0)/(y1-y0))
			}
		}
		sort.Float64s(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			// Centers at col+0.5 within (xs[i], xs[i+1]).
			start := int(math.Ceil(xs[i] - 0.5))
			end := int(math.Ceil(xs[i+1]-0.5)) - 1
			if start < 0 {
				start = 0
			}
			if end >= width {
				end = width - 1
			}
			for col := start; col <= end; col++ {
				mask[row*width+col] = true
			}
		}
	}
}

// markSegment sets every cell a ring segment traverses, stepping from
// grid line to grid line along the segment.
func markSegment(mask []bool, width, height int, x0, y0, x1, y1 float64) {
	cx, cy := int(math.Floor(x0)), int(math.Floor(y0))
	ex, ey := int(math.Floor(x1)), int(math.Floor(y1))
	markCell(mask, width, height, cx, cy)

	dx, dy := x1-x0, y1-y0
	stepX, stepY := sign(dx), sign(dy)

	tMaxX, tDeltaX := axisCrossing(x0, dx)
	tMaxY, tDeltaY := axisCrossing(y0, dy)

	// Each step moves one cell along one axis, so the cell distance
	// between the endpoints bounds the traversal even when they lie
	// far outside the clamped window.
	maxSteps := iabs(ex-cx) + iabs(ey-cy) + 4
	for steps := 0; (cx != ex || cy != ey) && steps <= maxSteps; steps++ {
		if tMaxX < tMaxY {
			cx += stepX
			tMaxX += tDeltaX
		} else {
			cy += stepY
			tMaxY += tDeltaY
		}
		markCell(mask, width, height, cx, cy)
	}
}

// axisCrossing returns the segment parameter t of the first grid-line
// crossing along one axis and the t distance between crossings. A zero
// component never crosses, so both become +Inf.
func axisCrossing(start, delta float64) (tMax, tDelta float64) {
	if delta == 0 {
		return math.Inf(1), math.Inf(1)
	}
	cell := math.Floor(start)
	if delta > 0 {
		return (cell + 1 - start) / delta, 1 / delta
	}
	return (cell - start) / delta, -1 / delta
}

func markCell(mask []bool, width, height, col, row int) {
	if col < 0 || col >= width || row < 0 || row >= height {
		return
	}
	mask[row*width+col] = true
}

func iabs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
