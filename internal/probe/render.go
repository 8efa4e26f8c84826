package probe

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"jsonrows/internal/config"
	gddl "jsonrows/internal/ddl"
	"jsonrows/internal/schema"
	mssqlddl "jsonrows/internal/storage/mssql/ddl"
	mysqlddl "jsonrows/internal/storage/mysql/ddl"
	pgddl "jsonrows/internal/storage/postgres/ddl"
	sqliteddl "jsonrows/internal/storage/sqlite/ddl"
)

type ddlBackend struct {
	fromSchema func(string, schema.Schema) (gddl.TableDef, error)
	build      func(gddl.TableDef) (string, error)
}

var ddlBackends = map[string]ddlBackend{
	"sqlite":   {sqliteddl.FromSchema, sqliteddl.BuildCreateTableSQL},
	"postgres": {pgddl.FromSchema, pgddl.BuildCreateTableSQL},
	"mssql":    {mssqlddl.FromSchema, mssqlddl.BuildCreateTableSQL},
	"mysql":    {mysqlddl.FromSchema, mysqlddl.BuildCreateTableSQL},
}

// RenderDDL returns the CREATE TABLE statement auto_create_table would apply
// for p, or "" when the storage kind has no DDL.
func RenderDDL(p config.Pipeline) (string, error) {
	b, ok := ddlBackends[p.Storage.Kind]
	if !ok {
		return "", nil
	}
	s, err := p.Schema()
	if err != nil {
		return "", fmt.Errorf("probe: schema: %w", err)
	}
	def, err := b.fromSchema(p.Storage.DB.Table, s)
	if err != nil {
		return "", fmt.Errorf("probe: ddl: %w", err)
	}
	return b.build(def)
}

// RenderJSON renders the drafted pipeline as indented JSON.
func RenderJSON(r Result) ([]byte, error) {
	b, err := json.MarshalIndent(r.Pipeline, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// RenderYAML renders the drafted pipeline as YAML. Each column's name carries
// a line comment with how often the key was seen in the sample.
func RenderYAML(r Result) ([]byte, error) {
	var doc yaml.Node
	if err := doc.Encode(r.Pipeline); err != nil {
		return nil, err
	}
	if cols := mappingValue(mappingValue(&doc, "parser"), "columns"); cols != nil {
		for i, item := range cols.Content {
			if i >= len(r.Sample.Columns) {
				break
			}
			if name := mappingValue(item, "name"); name != nil {
				name.LineComment = columnNote(r.Sample.Columns[i], r.Sample.Records)
			}
		}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func columnNote(c *Column, records int) string {
	note := fmt.Sprintf("seen in %d/%d records", c.Present(), records)
	if n := c.Nulls(); n > 0 {
		note += fmt.Sprintf(", %d null", n)
	}
	if miss := c.Missing(records, 3); len(miss) > 0 {
		note += fmt.Sprintf(", missing from %v", miss)
	}
	return note
}

// mappingValue returns the value node for key in a mapping node, or nil.
func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}
