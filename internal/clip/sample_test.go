package clip

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmrc/terraclip/internal/model"
	"github.com/vmrc/terraclip/internal/raster/rastertest"
)

func TestPipeline_Sample(t *testing.T) {
	// Pixel value encodes its grid position.
	pixels := make([]float64, 100)
	for i := range pixels {
		pixels[i] = float64(i)
	}
	nodata := -9999.0
	pixels[23] = -9999 // row 2, col 3
	p, _ := newTestPipeline(t, rastertest.Options{
		Width: 10, Height: 10,
		Pixels:  pixels,
		Float32: true,
		PixelScaleX: 1, PixelScaleY: 1,
		OriginX: 0, OriginY: 10,
		Nodata: &nodata,
		EPSG:   4326,
	})
	ctx := context.Background()

	// Lon 4.5, lat 6.5 lands in col 4, row 3.
	res, err := p.Sample(ctx, "veg-cover", 4.5, 6.5)
	require.NoError(t, err)
	assert.Equal(t, 34.0, res.Value)
	assert.False(t, res.IsNodata)
	assert.Equal(t, "veg-cover", res.RasterID)

	res, err = p.Sample(ctx, "veg-cover", 3.5, 7.5)
	require.NoError(t, err)
	assert.Equal(t, -9999.0, res.Value)
	assert.True(t, res.IsNodata)
}

func TestPipeline_SampleOutsideExtent(t *testing.T) {
	nodata := -9999.0
	p, _ := newTestPipeline(t, rastertest.Options{
		Width: 10, Height: 10,
		Pixels:  rastertest.Fill(100, 55),
		Float32: true,
		PixelScaleX: 1, PixelScaleY: 1,
		OriginY: 10,
		Nodata:  &nodata,
		EPSG:    4326,
	})

	_, err := p.Sample(context.Background(), "veg-cover", 50, 50)
	assert.True(t, eris.Is(err, model.ErrNoOverlap))
	assert.True(t, model.IsUserError(err))
}

func TestPipeline_SampleUnknownRaster(t *testing.T) {
	nodata := -9999.0
	p, _ := newTestPipeline(t, rastertest.Options{
		Width: 10, Height: 10,
		Pixels:  rastertest.Fill(100, 55),
		Float32: true,
		PixelScaleX: 1, PixelScaleY: 1,
		OriginY: 10,
		Nodata:  &nodata,
		EPSG:    4326,
	})

	_, err := p.Sample(context.Background(), "nope", 4.5, 6.5)
	assert.True(t, eris.Is(err, model.ErrNotFound))
}
