// Package ddl contains Postgres-specific helpers for generating DDL.
package ddl

import (
	"context"
	"strings"

	gddl "jsonrows/internal/ddl"
	"jsonrows/internal/schema"
	"jsonrows/internal/storage"
)

// Dialect quotes identifiers with double quotes, escaping embedded quotes:
//
//	quoteIdent(`pcv`)        => `"pcv"`
//	quoteIdent(`weird"name`) => `"weird""name"`
var Dialect = gddl.Dialect{
	Name:        "postgres ddl",
	QuoteIdent:  quoteIdent,
	IfNotExists: true,
}

// MapType maps a column type onto a Postgres type.
//
//	boolean   -> BOOLEAN
//	long      -> BIGINT
//	double    -> DOUBLE PRECISION
//	string    -> TEXT
//	timestamp -> TIMESTAMPTZ
//	json      -> JSONB
func MapType(t schema.Type) string {
	switch t {
	case schema.TypeBoolean:
		return "BOOLEAN"
	case schema.TypeLong:
		return "BIGINT"
	case schema.TypeDouble:
		return "DOUBLE PRECISION"
	case schema.TypeTimestamp:
		return "TIMESTAMPTZ"
	case schema.TypeJSON:
		return "JSONB"
	default:
		return "TEXT"
	}
}

// FromSchema derives the table definition for table ("schema.table" or
// "table").
func FromSchema(table string, s schema.Schema) (gddl.TableDef, error) {
	return gddl.FromSchema(table, s, MapType)
}

// BuildCreateTableSQL returns a CREATE TABLE IF NOT EXISTS statement.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return gddl.BuildCreateTableSQL(t, Dialect)
}

// EnsureTable creates the target table if it does not exist. It is
// idempotent.
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
