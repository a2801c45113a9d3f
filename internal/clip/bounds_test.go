package clip

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmrc/terraclip/internal/model"
	"github.com/vmrc/terraclip/internal/raster"
)

const longlat = "+proj=longlat +datum=WGS84 +no_defs"

func TestTransformBounds_Geographic(t *testing.T) {
	v := &Variant{
		Width:     3,
		Height:    3,
		Transform: raster.Affine{A: 1, C: 2, E: -1, F: 8},
	}

	got, err := TransformBounds(v, longlat, rect(2.2, 5.2, 4.8, 7.8))
	require.NoError(t, err)

	assert.InDelta(t, 2, got.West, 1e-9)
	assert.InDelta(t, 5, got.South, 1e-9)
	assert.InDelta(t, 5, got.East, 1e-9)
	assert.InDelta(t, 8, got.North, 1e-9)
}

func TestTransformBounds_OutsideAOI(t *testing.T) {
	v := &Variant{
		Width:     3,
		Height:    3,
		Transform: raster.Affine{A: 1, C: 2, E: -1, F: 8},
	}

	_, err := TransformBounds(v, longlat, rect(100, 50, 101, 51))
	assert.True(t, eris.Is(err, model.ErrInternalInvariant))
}

func TestTransformBounds_Degenerate(t *testing.T) {
	v := &Variant{Transform: raster.Affine{A: 1, C: 2, E: -1, F: 8}}

	_, err := TransformBounds(v, longlat, rect(2.2, 5.2, 4.8, 7.8))
	assert.True(t, eris.Is(err, model.ErrInternalInvariant))
}
