package ddl

import (
	"context"
	"errors"
	"strings"
	"testing"

	gddl "jsonrows/internal/ddl"
	"jsonrows/internal/schema"
	"jsonrows/internal/storage"
)

// fakeRepository is a test double for storage.Repository that records Exec
// calls.
type fakeRepository struct {
	storage.Repository
	execCalls int
	lastSQL   string
	err       error
}

func (f *fakeRepository) Exec(ctx context.Context, sql string) error {
	f.execCalls++
	f.lastSQL = sql
	return f.err
}

/*
TestMapType verifies the column type mapping for every schema type.
*/
func TestMapType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   schema.Type
		want string
	}{
		{schema.TypeBoolean, "BIT"},
		{schema.TypeLong, "BIGINT"},
		{schema.TypeDouble, "FLOAT"},
		{schema.TypeString, "NVARCHAR(MAX)"},
		{schema.TypeTimestamp, "DATETIME2"},
		{schema.TypeJSON, "NVARCHAR(MAX)"},
	}
	for _, tt := range tests {
		if got := MapType(tt.in); got != tt.want {
			t.Fatalf("MapType(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

/*
TestBuildCreateTableSQLFromSchema renders the statement for a small schema,
including an identifier that needs escaping.
*/
func TestBuildCreateTableSQLFromSchema(t *testing.T) {
	t.Parallel()

	s := schema.MustNew(
		schema.Column{Name: "id", Type: schema.TypeLong},
		schema.Column{Name: "we]ird", Type: schema.TypeString},
	)
	td, err := FromSchema("dbo.orders", s)
	if err != nil {
		t.Fatalf("FromSchema() error = %v", err)
	}
	got, err := BuildCreateTableSQL(td)
	if err != nil {
		t.Fatalf("BuildCreateTableSQL() error = %v", err)
	}
	want := "IF OBJECT_ID(N'[dbo].[orders]', N'U') IS NULL\nBEGIN\n  CREATE TABLE [dbo].[orders] (\n    [id] BIGINT,\n    [we]]ird] NVARCHAR(MAX)\n  );\nEND;"
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

/*
TestEnsureTable verifies that EnsureTable passes the built statement to
Exec, propagates Exec errors and skips Exec when the definition is invalid.
*/
func TestEnsureTable(t *testing.T) {
	t.Parallel()

	def := gddl.TableDef{
		FQN:     "events",
		Columns: []gddl.ColumnDef{{Name: "id", SQLType: MapType(schema.TypeLong)}},
	}

	var repo fakeRepository
	if err := EnsureTable(context.Background(), &repo, def); err != nil {
		t.Fatalf("EnsureTable() error = %v", err)
	}
	if repo.execCalls != 1 {
		t.Fatalf("Exec calls = %d; want 1", repo.execCalls)
	}
	if !strings.HasPrefix(repo.lastSQL, "IF OBJECT_ID") {
		t.Fatalf("Exec SQL = %q; want prefix %q", repo.lastSQL, "IF OBJECT_ID")
	}

	boom := errors.New("boom")
	failing := fakeRepository{err: boom}
	if err := EnsureTable(context.Background(), &failing, def); !errors.Is(err, boom) {
		t.Fatalf("EnsureTable() error = %v; want %v", err, boom)
	}

	var untouched fakeRepository
	if err := EnsureTable(context.Background(), &untouched, gddl.TableDef{}); err == nil {
		t.Fatalf("EnsureTable(empty) error = nil; want non-nil")
	}
	if untouched.execCalls != 0 {
		t.Fatalf("Exec calls = %d; want 0 when build fails", untouched.execCalls)
	}
}
