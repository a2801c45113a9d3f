// Package assets persists overlay images under request-scoped names so
// a static file server can expose them.
package assets

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/vmrc/terraclip/internal/model"
)

// Store writes overlays into a single directory.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the overlay directory.
func (s *Store) Dir() string { return s.dir }

// SaveOverlay writes the encoded PNG under a fresh uuid-based name and
// returns that name. Collisions are impossible per request, so
// concurrent pipelines never overwrite each other.
func (s *Store) SaveOverlay(data []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", eris.Wrapf(model.ErrResourceFailure, "assets: create dir %s: %v", s.dir, err)
	}

	name := uuid.New().String() + ".png"
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", eris.Wrapf(model.ErrResourceFailure, "assets: write overlay %s: %v", name, err)
	}
	return name, nil
}
