package raster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// northUp is a 1-degree grid with its top-left corner at (0, 10).
var northUp = Affine{A: 1, C: 0, E: -1, F: 10}

func TestAffine_ApplyInvert(t *testing.T) {
	x, y := northUp.Apply(2.5, 3.5)
	assert.Equal(t, 2.5, x)
	assert.Equal(t, 6.5, y)

	inv, err := northUp.Invert()
	require.NoError(t, err)
	col, row := inv.Apply(x, y)
	assert.InDelta(t, 2.5, col, 1e-12)
	assert.InDelta(t, 3.5, row, 1e-12)
}

func TestAffine_InvertSingular(t *testing.T) {
	_, err := Affine{}.Invert()
	assert.Error(t, err)
}

func TestAffine_PixelSize(t *testing.T) {
	w, h := Affine{A: 27, E: -27}.PixelSize()
	assert.Equal(t, 27.0, w)
	assert.Equal(t, 27.0, h)
}

func TestWindowFromBounds(t *testing.T) {
	tests := []struct {
		name                   string
		minX, minY, maxX, maxY float64
		want                   Window
	}{
		{
			name: "fractional bounds expand outward",
			minX: 2.2, minY: 5.2, maxX: 4.8, maxY: 7.8,
			want: Window{Col: 2, Row: 2, Width: 3, Height: 3},
		},
		{
			name: "aligned bounds map exactly",
			minX: 1, minY: 6, maxX: 3, maxY: 9,
			want: Window{Col: 1, Row: 1, Width: 2, Height: 3},
		},
		{
			name: "sub-pixel rectangle still covers one cell",
			minX: 0.4, minY: 9.2, maxX: 0.6, maxY: 9.4,
			want: Window{Col: 0, Row: 0, Width: 1, Height: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := northUp.WindowFromBounds(tt.minX, tt.minY, tt.maxX, tt.maxY)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWindow_Clamp(t *testing.T) {
	w := Window{Col: -2, Row: 8, Width: 5, Height: 5}.Clamp(10, 10)
	assert.Equal(t, Window{Col: 0, Row: 8, Width: 3, Height: 2}, w)

	empty := Window{Col: 20, Row: 0, Width: 5, Height: 5}.Clamp(10, 10)
	assert.True(t, empty.Empty())
}

func TestWindowTransform(t *testing.T) {
	sub := northUp.WindowTransform(Window{Col: 2, Row: 3, Width: 4, Height: 4})

	x, y := sub.Apply(0, 0)
	assert.Equal(t, 2.0, x)
	assert.Equal(t, 7.0, y)
	assert.Equal(t, northUp.A, sub.A)
	assert.Equal(t, northUp.E, sub.E)
}

func TestAffine_Bounds(t *testing.T) {
	minX, minY, maxX, maxY := northUp.Bounds(10, 10)
	assert.Equal(t, 0.0, minX)
	assert.Equal(t, 0.0, minY)
	assert.Equal(t, 10.0, maxX)
	assert.Equal(t, 10.0, maxY)
}
