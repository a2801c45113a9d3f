package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/vmrc/terraclip/internal/catalog"
)

func initCatalog(ctx context.Context) (catalog.Catalog, error) {
	switch cfg.Catalog.Driver {
	case "sqlite":
		dsn := cfg.Catalog.DSN
		if dsn == "" {
			dsn = "terraclip.db"
		}
		return catalog.NewSQLite(dsn)
	case "postgres":
		return catalog.NewPostgres(ctx, cfg.Catalog.DSN)
	default:
		return nil, eris.Errorf("unsupported catalog driver: %s", cfg.Catalog.Driver)
	}
}
