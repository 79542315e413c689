package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/qwex/breedcheck/internal/store"
)

// initStore opens and migrates the run history database.
func initStore(ctx context.Context, dsn string) (store.Store, error) {
	if dsn == "" {
		return nil, eris.New("store.database_url is required (BREEDCHECK_STORE_DATABASE_URL)")
	}
	st, err := store.NewSQLite(dsn)
	if err != nil {
		return nil, eris.Wrap(err, "init sqlite store")
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}
