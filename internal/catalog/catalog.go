// Package catalog resolves raster layer ids to openable files. Layers
// live in SQLite or Postgres and can be seeded from a YAML file.
package catalog

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Layer is one registered raster.
type Layer struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Path        string `yaml:"path" json:"path"`
	Proj4       string `yaml:"proj4,omitempty" json:"proj4,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Catalog defines the persistence interface for raster layers.
type Catalog interface {
	Resolve(ctx context.Context, id string) (Layer, error)
	List(ctx context.Context) ([]Layer, error)
	Put(ctx context.Context, l Layer) error

	Migrate(ctx context.Context) error
	Close() error
}

// seedFile is the on-disk shape of a catalog seed.
type seedFile struct {
	Layers []Layer `yaml:"layers"`
}

// LoadSeed reads layer definitions from a YAML file. Every entry needs
// at least an id and a path.
func LoadSeed(path string) ([]Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: read seed %s", path)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, eris.Wrapf(err, "catalog: parse seed %s", path)
	}
	for i, l := range seed.Layers {
		if l.ID == "" || l.Path == "" {
			return nil, eris.Errorf("catalog: seed entry %d missing id or path", i)
		}
	}
	return seed.Layers, nil
}
