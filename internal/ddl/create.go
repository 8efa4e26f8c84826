// Package ddl defines a small, backend-agnostic model for SQL DDL and renders
// CREATE TABLE statements from it.
//
// Dialect differences that matter to jsonrows are identifier quoting and
// whether the dialect accepts CREATE TABLE IF NOT EXISTS. Backend packages
// (internal/storage/<kind>/ddl) supply a Dialect and a type mapping from
// schema.Type; SQL Server, which has no IF NOT EXISTS, wraps the rendered
// column list itself.
package ddl

import (
	"fmt"
	"strings"

	"jsonrows/internal/schema"
)

// Dialect controls rendering.
type Dialect struct {
	// Name prefixes error messages, e.g. "postgres ddl".
	Name string
	// QuoteIdent quotes one identifier segment; nil emits names verbatim.
	QuoteIdent func(string) string
	// IfNotExists renders CREATE TABLE IF NOT EXISTS.
	IfNotExists bool
}

// Plain renders names verbatim and plain CREATE TABLE.
var Plain = Dialect{Name: "ddl"}

func (d Dialect) quote(id string) string {
	if d.QuoteIdent == nil {
		return id
	}
	return d.QuoteIdent(id)
}

// QuoteFQN quotes each dotted segment of fqn, dropping empty segments.
func (d Dialect) QuoteFQN(fqn string) string {
	if d.QuoteIdent == nil {
		return fqn
	}
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, d.quote(p))
	}
	return strings.Join(out, ".")
}

// RenderColumns validates t and returns the quoted table name plus one
// "<Name> <SQLType>" entry per column. Duplicate names are rejected after
// trimming, case-insensitively, since most dialects fold identifiers.
func RenderColumns(t TableDef, d Dialect) (string, []string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", nil, fmt.Errorf("%s: table FQN must not be empty", d.Name)
	}
	if len(t.Columns) == 0 {
		return "", nil, fmt.Errorf("%s: at least one column is required", d.Name)
	}

	cols := make([]string, 0, len(t.Columns))
	seen := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", nil, fmt.Errorf("%s: column with empty name in table %s", d.Name, fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", nil, fmt.Errorf("%s: column %s missing SQLType", d.Name, name)
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return "", nil, fmt.Errorf("%s: duplicate column %s in table %s", d.Name, name, fqn)
		}
		seen[key] = struct{}{}
		cols = append(cols, d.quote(name)+" "+typ)
	}
	return d.QuoteFQN(fqn), cols, nil
}

// BuildCreateTableSQL renders
//
//	CREATE TABLE [IF NOT EXISTS] <FQN> (
//	  <col1> <type1>,
//	  ...
//	);
func BuildCreateTableSQL(t TableDef, d Dialect) (string, error) {
	fqn, cols, err := RenderColumns(t, d)
	if err != nil {
		return "", err
	}
	create := "CREATE TABLE "
	if d.IfNotExists {
		create += "IF NOT EXISTS "
	}
	return fmt.Sprintf("%s%s (\n  %s\n);", create, fqn, strings.Join(cols, ",\n  ")), nil
}

// FromSchema builds the table definition for a jsonrows schema, typing each
// column with mapType.
func FromSchema(table string, s schema.Schema, mapType func(schema.Type) string) (TableDef, error) {
	if strings.TrimSpace(table) == "" {
		return TableDef{}, fmt.Errorf("ddl: missing table")
	}
	if s.Len() == 0 {
		return TableDef{}, fmt.Errorf("ddl: schema has no columns")
	}
	defs := make([]ColumnDef, 0, s.Len())
	for _, c := range s.Columns() {
		defs = append(defs, ColumnDef{Name: c.Name, SQLType: mapType(c.Type)})
	}
	return TableDef{FQN: table, Columns: defs}, nil
}
