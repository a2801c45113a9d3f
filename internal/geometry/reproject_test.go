package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

const (
	longlatProj = "+proj=longlat +datum=WGS84 +no_defs"
	mercProj    = "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +no_defs"
)

func lonLatSquare(t *testing.T) geom.T {
	t.Helper()
	raw := `{"type":"Polygon","coordinates":[[[-121.1234567,38.5],[-121.0,38.5],[-121.0,38.6],[-121.1234567,38.6],[-121.1234567,38.5]]]}`
	g, err := Normalize([]byte(raw))
	require.NoError(t, err)
	return g
}

func TestReproject_GeographicTruncates(t *testing.T) {
	g := geom.NewPolygonFlat(geom.XY, []float64{
		-121.1234567, 38.5,
		-121.0, 38.5,
		-121.0, 38.6,
		-121.1234567, 38.6,
		-121.1234567, 38.5,
	}, []int{10})

	out, err := Reproject(g, longlatProj)
	require.NoError(t, err)

	flat := out.FlatCoords()
	assert.Equal(t, -121.123456, flat[0], "seventh decimal should be dropped, not rounded")
	assert.Equal(t, 38.5, flat[1])
}

func TestReproject_MercatorRoundTrip(t *testing.T) {
	g := lonLatSquare(t)

	projected, err := Reproject(g, mercProj)
	require.NoError(t, err)

	// Web mercator x spans meters, so values must leave degree range,
	// and projected output is truncated like the geographic path.
	for _, v := range projected.FlatCoords() {
		assert.Equal(t, truncate6(v), v, "coordinate %v carries digits past the sixth decimal", v)
	}
	assert.Greater(t, -projected.FlatCoords()[0], 1e6)

	back, err := ReprojectInverse(projected, mercProj)
	require.NoError(t, err)

	orig := g.FlatCoords()
	got := back.FlatCoords()
	require.Equal(t, len(orig), len(got))
	stride := g.Stride()
	for i := 0; i+1 < len(orig); i += stride {
		assert.InDelta(t, orig[i], got[i], 1e-4)
		assert.InDelta(t, orig[i+1], got[i+1], 1e-4)
	}
}

func TestReproject_UnsupportedGeometry(t *testing.T) {
	pt := geom.NewPointFlat(geom.XY, []float64{1, 2})

	_, err := Reproject(pt, mercProj)
	assert.Error(t, err)
}

func TestTruncate6(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{in: 1.23456789, want: 1.234567},
		{in: -1.23456789, want: -1.234567},
		{in: 100.0, want: 100.0},
		{in: 0.0000001, want: 0.0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, truncate6(tt.in))
	}
}
