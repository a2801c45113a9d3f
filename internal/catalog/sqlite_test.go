package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmrc/terraclip/internal/model"
)

func newTestCatalog(t *testing.T) *SQLiteCatalog {
	t.Helper()
	c, err := NewSQLite(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	require.NoError(t, c.Migrate(context.Background()))
	return c
}

func TestSQLiteCatalog_RoundTrip(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	layer := Layer{
		ID:          "canopy",
		Name:        "Canopy cover",
		Path:        "/data/canopy.tif",
		Proj4:       "+proj=longlat +datum=WGS84 +no_defs",
		Description: "percent canopy cover",
	}
	require.NoError(t, c.Put(ctx, layer))

	got, err := c.Resolve(ctx, "canopy")
	require.NoError(t, err)
	assert.Equal(t, layer, got)
}

func TestSQLiteCatalog_PutUpserts(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, Layer{ID: "canopy", Path: "/old.tif"}))
	require.NoError(t, c.Put(ctx, Layer{ID: "canopy", Path: "/new.tif"}))

	got, err := c.Resolve(ctx, "canopy")
	require.NoError(t, err)
	assert.Equal(t, "/new.tif", got.Path)

	layers, err := c.List(ctx)
	require.NoError(t, err)
	assert.Len(t, layers, 1)
}

func TestSQLiteCatalog_ResolveNotFound(t *testing.T) {
	c := newTestCatalog(t)

	_, err := c.Resolve(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrNotFound))
}

func TestSQLiteCatalog_ListOrdered(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, Layer{ID: "b", Path: "/b.tif"}))
	require.NoError(t, c.Put(ctx, Layer{ID: "a", Path: "/a.tif"}))

	layers, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, layers, 2)
	assert.Equal(t, "a", layers[0].ID)
	assert.Equal(t, "b", layers[1].ID)
}

func TestLoadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
layers:
  - id: canopy
    name: Canopy cover
    path: /data/canopy.tif
    proj4: "+proj=longlat +datum=WGS84 +no_defs"
  - id: height
    path: /data/height.tif
`), 0o644))

	layers, err := LoadSeed(path)
	require.NoError(t, err)
	require.Len(t, layers, 2)
	assert.Equal(t, "canopy", layers[0].ID)
	assert.Equal(t, "Canopy cover", layers[0].Name)
	assert.Equal(t, "/data/height.tif", layers[1].Path)
}

func TestLoadSeed_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing path", body: "layers:\n  - id: canopy\n"},
		{name: "missing id", body: "layers:\n  - path: /data/x.tif\n"},
		{name: "not yaml", body: "{{nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "seed.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o644))

			_, err := LoadSeed(path)
			assert.Error(t, err)
		})
	}
}
