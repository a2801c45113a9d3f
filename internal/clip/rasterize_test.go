package clip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/twpayne/go-geom"

	"github.com/vmrc/terraclip/internal/raster"
)

// identity maps native coordinates 1:1 onto pixel coordinates.
var identity = raster.Affine{A: 1, E: 1}

func rect(minX, minY, maxX, maxY float64) *geom.Polygon {
	return geom.NewPolygonFlat(geom.XY, []float64{
		minX, minY, maxX, minY, maxX, maxY, minX, maxY, minX, minY,
	}, []int{10})
}

func maskedCells(mask []bool, width int) [][2]int {
	var cells [][2]int
	for i, set := range mask {
		if set {
			cells = append(cells, [2]int{i % width, i / width})
		}
	}
	return cells
}

func TestAllTouchedMask_SmallSquare(t *testing.T) {
	// The square covers only one pixel center but its boundary passes
	// through the surrounding ring of cells.
	mask := allTouchedMask(rect(0.6, 0.6, 2.4, 2.4), identity, 4, 4)

	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			want := col <= 2 && row <= 2
			assert.Equal(t, want, mask[row*4+col], "cell (%d,%d)", col, row)
		}
	}
}

func TestAllTouchedMask_Hole(t *testing.T) {
	outer := []float64{0, 0, 7, 0, 7, 7, 0, 7, 0, 0}
	hole := []float64{2, 2, 5, 2, 5, 5, 2, 5, 2, 2}
	p := geom.NewPolygonFlat(geom.XY, append(outer, hole...), []int{10, 20})

	mask := allTouchedMask(p, identity, 7, 7)

	assert.True(t, mask[1*7+1], "interior cell")
	assert.True(t, mask[2*7+2], "cell on the hole boundary")
	assert.False(t, mask[3*7+3], "cell inside the hole")
}

func TestAllTouchedMask_MultiPolygon(t *testing.T) {
	mp := geom.NewMultiPolygonFlat(geom.XY, []float64{
		0.2, 0.2, 1.8, 0.2, 1.8, 1.8, 0.2, 1.8, 0.2, 0.2,
		4.2, 4.2, 5.8, 4.2, 5.8, 5.8, 4.2, 5.8, 4.2, 4.2,
	}, [][]int{{10}, {20}})

	mask := allTouchedMask(mp, identity, 6, 6)

	assert.True(t, mask[0])
	assert.True(t, mask[5*6+5])
	assert.False(t, mask[3*6+3], "gap between parts")
}

func TestAllTouchedMask_ThinSliver(t *testing.T) {
	// Too thin to contain any pixel center; the boundary traversal
	// alone must keep the crossed cells.
	mask := allTouchedMask(rect(0.1, 2.1, 3.9, 2.2), identity, 4, 4)

	assert.Equal(t, [][2]int{{0, 2}, {1, 2}, {2, 2}, {3, 2}}, maskedCells(mask, 4))
}

func TestAllTouchedMask_SegmentEndpointsFarOutside(t *testing.T) {
	// A boundary segment entering from far beyond the window must
	// still mark every in-window cell it crosses. Too thin for any
	// pixel center, so only the traversal can keep row 2.
	mask := allTouchedMask(rect(-30, 2.1, 30, 2.2), identity, 10, 10)

	want := make([][2]int, 0, 10)
	for col := 0; col < 10; col++ {
		want = append(want, [2]int{col, 2})
	}
	assert.Equal(t, want, maskedCells(mask, 10))
}

func TestAllTouchedMask_OutsideGrid(t *testing.T) {
	mask := allTouchedMask(rect(10, 10, 12, 12), identity, 4, 4)
	assert.Empty(t, maskedCells(mask, 4))
}
