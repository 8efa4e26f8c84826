package mongo

import (
	"context"
	"reflect"
	"testing"
	"time"

	"jsonrows/internal/storage"
	"jsonrows/internal/value"

	"go.mongodb.org/mongo-driver/v2/bson"
)

/*
TestDocumentsKeepsColumnAndMemberOrder verifies rows become ordered
documents and json cells become native BSON values.
*/
func TestDocumentsKeepsColumnAndMemberOrder(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	payload := value.Map(
		value.Member{Key: "z", Value: value.Int(1)},
		value.Member{Key: "a", Value: value.Array(value.Bool(true), value.Null(), value.Float(1.5))},
	)
	docs, err := Documents([]string{"id", "at", "payload", "note"}, [][]any{
		{int64(1), at, payload, nil},
	})
	if err != nil {
		t.Fatalf("Documents() error = %v", err)
	}
	want := bson.D{
		{Key: "id", Value: int64(1)},
		{Key: "at", Value: at},
		{Key: "payload", Value: bson.D{
			{Key: "z", Value: int64(1)},
			{Key: "a", Value: bson.A{true, nil, 1.5}},
		}},
		{Key: "note", Value: nil},
	}
	if len(docs) != 1 || !reflect.DeepEqual(docs[0], want) {
		t.Fatalf("Documents() = %#v; want %#v", docs, want)
	}

	// The document must be encodable by the driver.
	if _, err := bson.Marshal(docs[0]); err != nil {
		t.Fatalf("bson.Marshal() error = %v", err)
	}
}

/*
TestDocumentsRejectsShortRows verifies row width is checked.
*/
func TestDocumentsRejectsShortRows(t *testing.T) {
	t.Parallel()

	if _, err := Documents([]string{"a", "b"}, [][]any{{1}}); err == nil {
		t.Fatalf("Documents(short row) error = nil; want non-nil")
	}
}

/*
TestScalarJSONCells verifies scalar json cells map onto BSON scalars.
*/
func TestScalarJSONCells(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   value.Value
		want any
	}{
		{value.Null(), nil},
		{value.Bool(false), false},
		{value.Int(-3), int64(-3)},
		{value.Float(0.25), 0.25},
		{value.String("x"), "x"},
	}
	for _, tt := range tests {
		if got := cellValue(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("cellValue(%s) = %#v; want %#v", tt.in, got, tt.want)
		}
	}
}

/*
TestNewRepositoryRejectsBadConfig verifies required settings are checked
before connecting.
*/
func TestNewRepositoryRejectsBadConfig(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if _, _, err := NewRepository(ctx, Config{Collection: "c"}); err == nil {
		t.Fatalf("NewRepository(no URI) error = nil; want non-nil")
	}
	if _, _, err := NewRepository(ctx, Config{URI: "mongodb://localhost"}); err == nil {
		t.Fatalf("NewRepository(no collection) error = nil; want non-nil")
	}
}

/*
TestMongoRegistrationUsesOptions verifies the factory maps DSN, table and
the database and ordered options. It swaps a package variable, so it does not run in
parallel.
*/
func TestMongoRegistrationUsesOptions(t *testing.T) {
	orig := newRepository
	defer func() { newRepository = orig }()

	var gotCfg Config
	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) {
		gotCfg = cfg
		return &Repository{cfg: cfg}, func() {}, nil
	}

	repo, err := storage.New(context.Background(), storage.Config{
		Kind:    "mongo",
		DSN:     "mongodb://localhost:27017",
		Table:   "orders",
		Options: map[string]any{"database": "shop"},
	})
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	defer repo.Close()

	want := Config{URI: "mongodb://localhost:27017", Database: "shop", Collection: "orders", Ordered: true}
	if !reflect.DeepEqual(gotCfg, want) {
		t.Fatalf("hook cfg = %+v; want %+v", gotCfg, want)
	}

	unordered, err := storage.New(context.Background(), storage.Config{
		Kind:    "mongo",
		DSN:     "mongodb://localhost:27017",
		Table:   "orders",
		Options: map[string]any{"ordered": false},
	})
	if err != nil {
		t.Fatalf("storage.New(ordered=false) error = %v", err)
	}
	defer unordered.Close()
	if gotCfg.Ordered || gotCfg.Database != DefaultDatabase {
		t.Fatalf("hook cfg = %+v; want unordered inserts into %s", gotCfg, DefaultDatabase)
	}
	if err := repo.Exec(context.Background(), "CREATE TABLE x"); err == nil {
		t.Fatalf("Exec(DDL) error = nil; want non-nil")
	}
	if storage.HasDDL("mongo") {
		t.Fatalf("HasDDL(mongo) = true; want false")
	}
}
