// Package storage holds the backend-agnostic sink contracts: the Repository
// every backend implements, a registry of backend factories keyed by
// storage kind, and the batched loader that feeds emitted rows into a
// Repository.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"jsonrows/internal/schema"
)

// Repository is the write side of a storage backend.
type Repository interface {
	// CopyFrom bulk-inserts rows aligned to columns and reports how many
	// rows the backend accepted.
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)
	// Exec runs a backend statement, typically DDL.
	Exec(ctx context.Context, stmt string) error
	Close()
}

// Config selects and configures a backend.
type Config struct {
	Kind  string
	DSN   string
	Table string
	// Columns is the destination column order; it always matches
	// Schema.Names().
	Columns []string
	// Schema drives DDL inference and per-backend cell conversion.
	Schema schema.Schema
	// Options carries backend-specific extras (e.g. "database" for mongo).
	Options Options
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the factory for kind. Backends call it
// from init.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = f
}

// New opens the Repository registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	f, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds, sorted.
func ListKinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
