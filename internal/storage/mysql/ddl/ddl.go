// Package ddl renders MySQL DDL for a jsonrows schema.
package ddl

import (
	"context"
	"strings"

	gddl "jsonrows/internal/ddl"
	"jsonrows/internal/schema"
	"jsonrows/internal/storage"
)

// Dialect quotes identifiers with backticks.
var Dialect = gddl.Dialect{
	Name:        "mysql ddl",
	QuoteIdent:  quoteIdent,
	IfNotExists: true,
}

// MapType maps a column type onto a MySQL type. Timestamps use DATETIME(6)
// rather than TIMESTAMP to avoid the 2038 limit and session time zone
// conversion; rows are written in UTC.
func MapType(t schema.Type) string {
	switch t {
	case schema.TypeBoolean:
		return "BOOLEAN"
	case schema.TypeLong:
		return "BIGINT"
	case schema.TypeDouble:
		return "DOUBLE"
	case schema.TypeTimestamp:
		return "DATETIME(6)"
	case schema.TypeJSON:
		return "JSON"
	default:
		return "LONGTEXT"
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
	return "`" + strings.ReplaceAll(id, "`", "``") + "`"
}
