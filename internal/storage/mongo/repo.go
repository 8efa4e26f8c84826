// Package mongo implements a MongoDB sink on the official v2 driver. Each
// emitted row becomes one document whose fields follow the schema's column
// order; json cells are stored as native BSON documents and arrays rather
// than JSON text.
package mongo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"jsonrows/internal/value"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DefaultDatabase is used when neither the options nor the URI name one.
const DefaultDatabase = "jsonrows"

// Config holds MongoDB repository configuration.
type Config struct {
	URI        string // mongodb:// or mongodb+srv:// connection string
	Database   string
	Collection string
	Columns    []string
	// Ordered stops a batch at the first failed document; unordered inserts
	// attempt every document.
	Ordered bool
}

// Repository is a MongoDB-backed implementation of storage.Repository.
type Repository struct {
	client *mongo.Client
	coll   *mongo.Collection
	cfg    Config
}

// NewRepository connects, pings and returns a Close function that
// disconnects the client.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.URI) == "" {
		return nil, nil, fmt.Errorf("mongo: URI must not be empty")
	}
	if strings.TrimSpace(cfg.Collection) == "" {
		return nil, nil, fmt.Errorf("mongo: collection must not be empty")
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo: connect: %w", err)
	}
	disconnect := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(ctx)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		disconnect()
		return nil, nil, fmt.Errorf("mongo: ping: %w", err)
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	return &Repository{client: client, coll: coll, cfg: cfg}, disconnect, nil
}

// CopyFrom inserts one document per row with one InsertMany per batch.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	docs, err := Documents(columns, rows)
	if err != nil {
		return 0, err
	}
	res, err := r.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(r.cfg.Ordered))
	if err != nil {
		var n int64
		if res != nil {
			n = int64(len(res.InsertedIDs))
		}
		return n, fmt.Errorf("mongo: insert many: %w", err)
	}
	return int64(len(res.InsertedIDs)), nil
}

// Exec has nothing to run against a schemaless collection; only an empty
// statement is accepted.
func (r *Repository) Exec(ctx context.Context, stmt string) error {
	if strings.TrimSpace(stmt) == "" {
		return nil
	}
	return fmt.Errorf("mongo: Exec is not supported")
}

// Documents converts rows into ordered BSON documents keyed by columns.
func Documents(columns []string, rows [][]any) ([]any, error) {
	docs := make([]any, len(rows))
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("mongo: row %d length %d != columns length %d", i, len(row), len(columns))
		}
		doc := make(bson.D, len(columns))
		for j, c := range columns {
			doc[j] = bson.E{Key: c, Value: cellValue(row[j])}
		}
		docs[i] = doc
	}
	return docs, nil
}

func cellValue(cell any) any {
	if v, ok := cell.(value.Value); ok {
		return toBSON(v)
	}
	return cell
}

// toBSON keeps object member order by mapping objects to bson.D.
func toBSON(v value.Value) any {
	switch v.Kind() {
	case value.KindBool:
		return v.AsBool()
	case value.KindInt:
		return v.AsInt()
	case value.KindFloat:
		return v.AsFloat()
	case value.KindString:
		return v.AsString()
	case value.KindArray:
		out := make(bson.A, 0, v.Len())
		for _, e := range v.Elems() {
			out = append(out, toBSON(e))
		}
		return out
	case value.KindMap:
		out := make(bson.D, 0, v.Len())
		for _, m := range v.Members() {
			out = append(out, bson.E{Key: m.Key, Value: toBSON(m.Value)})
		}
		return out
	}
	return nil
}
