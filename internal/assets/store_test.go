package assets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveOverlay(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "overlays")
	s := NewStore(dir)

	name, err := s.SaveOverlay([]byte("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".png"))

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
}

func TestSaveOverlay_UniqueNames(t *testing.T) {
	s := NewStore(t.TempDir())

	a, err := s.SaveOverlay([]byte("a"))
	require.NoError(t, err)
	b, err := s.SaveOverlay([]byte("b"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestSaveOverlay_BadDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	s := NewStore(file)
	_, err := s.SaveOverlay([]byte("png"))
	assert.Error(t, err)
}
