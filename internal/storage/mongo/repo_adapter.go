package mongo

import (
	"context"

	"jsonrows/internal/storage"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

type wrappedRepo struct {
	*Repository
	closeFn func()
}

var _ storage.Repository = (*wrappedRepo)(nil)

func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

// The DSN is the connection URI and the table is the collection. The
// database comes from the "database" option and insert ordering from
// "ordered". Collections need no DDL, so no bootstrapper is registered.
func init() {
	storage.Register("mongo", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{
			URI:        cfg.DSN,
			Database:   cfg.Options.String("database", DefaultDatabase),
			Ordered:    cfg.Options.Bool("ordered", true),
			Collection: cfg.Table,
			Columns:    cfg.Columns,
		})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
}
