// Package ddl provides MSSQL-specific helpers for generating CREATE TABLE
// statements.
//
// T-SQL has no CREATE TABLE IF NOT EXISTS, so the statement is wrapped in an
// IF OBJECT_ID(...) IS NULL guard. Identifiers use [bracket] quoting.
package ddl

import (
	"context"
	"fmt"
	"strings"

	gddl "jsonrows/internal/ddl"
	"jsonrows/internal/schema"
	"jsonrows/internal/storage"
)

// Dialect quotes identifiers with brackets, escaping any closing bracket:
//
//	name      -> [name]
//	weird]id  -> [weird]]id]
var Dialect = gddl.Dialect{
	Name:       "mssql ddl",
	QuoteIdent: quoteIdent,
}

// MapType maps a column type onto a SQL Server type. json is stored as
// NVARCHAR(MAX), which is what SQL Server's JSON functions operate on.
func MapType(t schema.Type) string {
	switch t {
	case schema.TypeBoolean:
		return "BIT"
	case schema.TypeLong:
		return "BIGINT"
	case schema.TypeDouble:
		return "FLOAT"
	case schema.TypeTimestamp:
		return "DATETIME2"
	default:
		return "NVARCHAR(MAX)"
	}
}

// FromSchema derives the table definition for table ("dbo.table" or
// "table").
func FromSchema(table string, s schema.Schema) (gddl.TableDef, error) {
	return gddl.FromSchema(table, s, MapType)
}

// BuildCreateTableSQL returns a T-SQL script of the form:
//
//	IF OBJECT_ID(N'[schema].[table]', N'U') IS NULL
//	BEGIN
//	  CREATE TABLE [schema].[table] (
//	    [col1] TYPE,
//	    [col2] TYPE
//	  );
//	END;
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	fqn, cols, err := gddl.RenderColumns(t, Dialect)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n  CREATE TABLE %s (\n    %s\n  );\nEND;",
		strings.ReplaceAll(fqn, "'", "''"),
		fqn,
		strings.Join(cols, ",\n    "),
	), nil
}

// EnsureTable creates the target table if it does not already exist. It is
// idempotent.
func EnsureTable(ctx context.Context, repo storage.Repository, def gddl.TableDef) error {
	sql, err := BuildCreateTableSQL(def)
	if err != nil {
		return err
	}
	return repo.Exec(ctx, sql)
}

func quoteIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}
