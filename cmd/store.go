package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/healthscore/internal/catalog"
	"github.com/sells-group/healthscore/internal/store"
)

// initStore opens the configured backend, runs migrations, and seeds empty
// catalogs with the defaults.
func initStore(ctx context.Context) (store.Store, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}

	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		st, err = store.NewSQLite(cfg.Store.Path)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	if err := store.SeedDefaults(ctx, st); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// initService opens the store and wraps it in the catalog service.
func initService(ctx context.Context) (*catalog.Service, store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	return catalog.New(st), st, nil
}
