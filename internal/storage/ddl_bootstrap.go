package storage

import (
	"context"
	"fmt"
	"sync"
)

// DDLBootstrapper derives a table definition from cfg.Schema and applies it
// through repo.Exec (typically CREATE TABLE IF NOT EXISTS). Backends register
// one per storage kind at init time.
type DDLBootstrapper func(ctx context.Context, repo Repository, cfg Config) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL registers (or replaces) the DDLBootstrapper for kind.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// EnsureTable runs the bootstrapper registered for cfg.Kind. Kinds without
// tables (console, mongo) register no bootstrapper and get an error here;
// callers only invoke it when auto_create_table is set.
func EnsureTable(ctx context.Context, cfg Config, repo Repository) error {
	ddlMu.RLock()
	fn, ok := ddlFns[cfg.Kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("no DDL bootstrapper registered for storage.kind=%q", cfg.Kind)
	}
	return fn(ctx, repo, cfg)
}

// HasDDL reports whether kind registered a DDL bootstrapper.
func HasDDL(kind string) bool {
	ddlMu.RLock()
	defer ddlMu.RUnlock()
	_, ok := ddlFns[kind]
	return ok
}
