package all

import (
	"testing"

	"jsonrows/internal/storage"
)

/*
TestAllKindsRegistered verifies every built-in backend registers itself and
that exactly the SQL backends register DDL bootstrappers.
*/
func TestAllKindsRegistered(t *testing.T) {
	t.Parallel()

	want := map[string]bool{
		"console":  false,
		"mongo":    false,
		"mssql":    true,
		"mysql":    true,
		"postgres": true,
		"sqlite":   true,
	}
	got := map[string]bool{}
	for _, k := range storage.ListKinds() {
		got[k] = true
	}
	for kind, ddl := range want {
		if !got[kind] {
			t.Fatalf("kind %q not registered; got %v", kind, storage.ListKinds())
		}
		if storage.HasDDL(kind) != ddl {
			t.Fatalf("HasDDL(%q) = %v; want %v", kind, !ddl, ddl)
		}
	}
}
