package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/vmrc/terraclip/internal/model"
)

// Pool is the subset of pgxpool.Pool the catalog uses, satisfied by
// pgxmock pools in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresCatalog implements Catalog using pgxpool.
type PostgresCatalog struct {
	pool Pool
}

// NewPostgres creates a PostgresCatalog with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresCatalog, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresCatalog{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool, mainly for tests.
func NewPostgresFromPool(pool Pool) *PostgresCatalog {
	return &PostgresCatalog{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS raster_layers (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL DEFAULT '',
	path        TEXT NOT NULL,
	proj4       TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

func (c *PostgresCatalog) Migrate(ctx context.Context) error {
	_, err := c.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (c *PostgresCatalog) Close() error {
	c.pool.Close()
	return nil
}

func (c *PostgresCatalog) Put(ctx context.Context, l Layer) error {
	_, err := c.pool.Exec(ctx,
		`INSERT INTO raster_layers (id, name, path, proj4, description, updated_at)
		 VALUES ($1, $2, $3, $4, $5, now())
		 ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			path = EXCLUDED.path,
			proj4 = EXCLUDED.proj4,
			description = EXCLUDED.description,
			updated_at = now()`,
		l.ID, l.Name, l.Path, l.Proj4, l.Description,
	)
	return eris.Wrapf(err, "postgres: upsert layer %s", l.ID)
}

func (c *PostgresCatalog) Resolve(ctx context.Context, id string) (Layer, error) {
	var l Layer
	err := c.pool.QueryRow(ctx,
		`SELECT id, name, path, proj4, description FROM raster_layers WHERE id = $1`, id,
	).Scan(&l.ID, &l.Name, &l.Path, &l.Proj4, &l.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return Layer{}, eris.Wrapf(model.ErrNotFound, "postgres: layer %s", id)
	}
	if err != nil {
		return Layer{}, eris.Wrapf(err, "postgres: resolve layer %s", id)
	}
	return l, nil
}

func (c *PostgresCatalog) List(ctx context.Context) ([]Layer, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT id, name, path, proj4, description FROM raster_layers ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list layers")
	}
	defer rows.Close()

	var layers []Layer
	for rows.Next() {
		var l Layer
		if err := rows.Scan(&l.ID, &l.Name, &l.Path, &l.Proj4, &l.Description); err != nil {
			return nil, eris.Wrap(err, "postgres: scan layer")
		}
		layers = append(layers, l)
	}
	return layers, eris.Wrap(rows.Err(), "postgres: list layers")
}
