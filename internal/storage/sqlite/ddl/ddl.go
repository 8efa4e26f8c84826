// Package ddl renders SQLite DDL for a jsonrows schema.
//
// SQLite typing is by affinity, so the mapping prefers canonical affinities:
// booleans are stored as INTEGER 0/1, timestamps and json as TEXT.
package ddl

import (
	"context"
	"strings"

	gddl "jsonrows/internal/ddl"
	"jsonrows/internal/schema"
	"jsonrows/internal/storage"
)

// Dialect quotes identifiers with double quotes and uses IF NOT EXISTS.
var Dialect = gddl.Dialect{
	Name:        "sqlite ddl",
	QuoteIdent:  quoteIdent,
	IfNotExists: true,
}

// MapType maps a column type onto a SQLite type affinity.
func MapType(t schema.Type) string {
	switch t {
	case schema.TypeBoolean, schema.TypeLong:
		return "INTEGER"
	case schema.TypeDouble:
		return "REAL"
	default:
		return "TEXT"
	}
}

// FromSchema derives the table definition for table.
func FromSchema(table string, s schema.Schema) (gddl.TableDef, error) {
	return gddl.FromSchema(table, s, MapType)
}

// BuildCreateTableSQL returns a CREATE TABLE IF NOT EXISTS statement.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return gddl.BuildCreateTableSQL(t, Dialect)
}

// EnsureTable creates the table if it does not exist.
func EnsureTable(ctx context.Context, repo storage.Repository, def gddl.TableDef) error {
	sql, err := BuildCreateTableSQL(def)
	if err != nil {
		return err
	}
	return repo.Exec(ctx, sql)
}

func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
