package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/vmrc/terraclip/internal/model"
)

// SQLiteCatalog implements Catalog using modernc.org/sqlite.
type SQLiteCatalog struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteCatalog, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteCatalog{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS raster_layers (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL DEFAULT '',
	path        TEXT NOT NULL,
	proj4       TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

func (c *SQLiteCatalog) Migrate(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (c *SQLiteCatalog) Close() error {
	return c.db.Close()
}

func (c *SQLiteCatalog) Put(ctx context.Context, l Layer) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO raster_layers (id, name, path, proj4, description, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			path = excluded.path,
			proj4 = excluded.proj4,
			description = excluded.description,
			updated_at = excluded.updated_at`,
		l.ID, l.Name, l.Path, l.Proj4, l.Description, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: upsert layer %s", l.ID)
}

func (c *SQLiteCatalog) Resolve(ctx context.Context, id string) (Layer, error) {
	var l Layer
	err := c.db.QueryRowContext(ctx,
		`SELECT id, name, path, proj4, description FROM raster_layers WHERE id = ?`, id,
	).Scan(&l.ID, &l.Name, &l.Path, &l.Proj4, &l.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return Layer{}, eris.Wrapf(model.ErrNotFound, "sqlite: layer %s", id)
	}
	if err != nil {
		return Layer{}, eris.Wrapf(err, "sqlite: resolve layer %s", id)
	}
	return l, nil
}

func (c *SQLiteCatalog) List(ctx context.Context) ([]Layer, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, name, path, proj4, description FROM raster_layers ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list layers")
	}
	defer rows.Close()

	var layers []Layer
	for rows.Next() {
		var l Layer
		if err := rows.Scan(&l.ID, &l.Name, &l.Path, &l.Proj4, &l.Description); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan layer")
		}
		layers = append(layers, l)
	}
	return layers, eris.Wrap(rows.Err(), "sqlite: list layers")
}
