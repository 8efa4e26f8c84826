package ddl

// ColumnDef is one table column. Name is unquoted; renderers quote it.
// Columns are always nullable: a missing key or JSON null is a null cell.
type ColumnDef struct {
	Name    string
	SQLType string
}

// TableDef is a table name in dotted form ("schema.table") and its columns in
// schema order.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}
