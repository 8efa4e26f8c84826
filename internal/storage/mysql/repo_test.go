package mysql

import (
	"context"
	"strings"
	"testing"
	"time"

	"jsonrows/internal/storage"
)

/*
TestBuildInsertSQL verifies quoting and tuple repetition.
*/
func TestBuildInsertSQL(t *testing.T) {
	t.Parallel()

	got := buildInsertSQL("shop.orders", []string{"id", "we`ird"}, 2)
	want := "INSERT INTO `shop`.`orders` (`id`, `we``ird`) VALUES (?, ?), (?, ?)"
	if got != want {
		t.Fatalf("buildInsertSQL() = %q; want %q", got, want)
	}
}

/*
TestRowsPerStatement verifies batches are split under the placeholder limit.
*/
func TestRowsPerStatement(t *testing.T) {
	t.Parallel()

	tests := []struct {
		width, want int
	}{
		{1, 65535},
		{4, 16383},
		{70000, 1},
	}
	for _, tt := range tests {
		if got := rowsPerStatement(tt.width); got != tt.want {
			t.Fatalf("rowsPerStatement(%d) = %d; want %d", tt.width, got, tt.want)
		}
		if got := rowsPerStatement(tt.width); got*tt.width > maxPlaceholders && got != 1 {
			t.Fatalf("rowsPerStatement(%d) = %d exceeds the placeholder limit", tt.width, got)
		}
	}
}

/*
TestParseDSN verifies UTC pinning and DSN validation.
*/
func TestParseDSN(t *testing.T) {
	t.Parallel()

	mc, err := parseDSN("user:pw@tcp(127.0.0.1:3306)/shop")
	if err != nil {
		t.Fatalf("parseDSN() error = %v", err)
	}
	if mc.Loc != time.UTC || !mc.ParseTime {
		t.Fatalf("parseDSN() Loc = %v, ParseTime = %v; want UTC, true", mc.Loc, mc.ParseTime)
	}
	if mc.DBName != "shop" {
		t.Fatalf("parseDSN() DBName = %q; want %q", mc.DBName, "shop")
	}

	if _, err := parseDSN("not a dsn"); err == nil || !strings.Contains(err.Error(), "mysql dsn") {
		t.Fatalf("parseDSN(bad) error = %v; want mysql dsn error", err)
	}
}

/*
TestCopyFromValidatesRowsBeforeConnecting verifies that shape errors are
reported without touching the database handle.
*/
func TestCopyFromValidatesRowsBeforeConnecting(t *testing.T) {
	t.Parallel()

	r := &Repository{cfg: Config{Table: "t"}}
	ctx := context.Background()
	if n, err := r.CopyFrom(ctx, []string{"a"}, nil); err != nil || n != 0 {
		t.Fatalf("CopyFrom(no rows) = (%d, %v); want (0, nil)", n, err)
	}
	if _, err := r.CopyFrom(ctx, nil, [][]any{{1}}); err == nil {
		t.Fatalf("CopyFrom(no columns) error = nil; want non-nil")
	}
	if _, err := r.CopyFrom(ctx, []string{"a", "b"}, [][]any{{1}}); err == nil {
		t.Fatalf("CopyFrom(short row) error = nil; want non-nil")
	}
}

/*
TestMySQLRegistrationUsesNewRepositoryHook verifies the factory registered
in init. It swaps a package variable, so it does not run in parallel.
*/
func TestMySQLRegistrationUsesNewRepositoryHook(t *testing.T) {
	orig := newRepository
	defer func() { newRepository = orig }()

	var closed bool
	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) {
		return &Repository{cfg: cfg}, func() { closed = true }, nil
	}

	repo, err := storage.New(context.Background(), storage.Config{Kind: "mysql", Table: "orders"})
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	w, ok := repo.(*wrappedRepo)
	if !ok || w.cfg.Table != "orders" {
		t.Fatalf("storage.New() = %#v; want *wrappedRepo for table orders", repo)
	}
	repo.Close()
	if !closed {
		t.Fatalf("Close() did not invoke closeFn")
	}
	if !storage.HasDDL("mysql") {
		t.Fatalf("HasDDL(mysql) = false; want true")
	}
}
