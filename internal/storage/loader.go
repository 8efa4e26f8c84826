package storage

import (
	"context"
	"errors"
	"log"
	"time"
)

// CopyFn is a backend bulk insert; Repository.CopyFrom has this shape. It
// writes rows aligned to columns and returns how many the backend accepted.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// Row is one emitted row and the input chunk it was materialized from.
type Row struct {
	Chunk  string
	Values []any
}

// LoadStats counts what LoadBatches wrote. Chunks is the number of distinct
// input chunks whose rows reached the table.
type LoadStats struct {
	Rows    int64
	Batches int64
	Chunks  int64
}

// LoadBatches drains in, writes rows to table in batches of batchSize through
// copyFn, and logs one progress line per batch. Rows of one chunk may span
// batches and a batch may hold several chunks.
//
// It returns when in is closed, when copyFn fails, or with ctx.Err() when ctx
// is canceled. The stats are valid on every path.
func LoadBatches(ctx context.Context, table string, columns []string, in <-chan Row, batchSize int, copyFn CopyFn) (LoadStats, error) {
	var st LoadStats
	if batchSize <= 0 {
		return st, errors.New("loader: batch size must be > 0")
	}
	if copyFn == nil {
		return st, errors.New("loader: nil copy function")
	}

	var (
		batch = make([][]any, 0, batchSize)
		chunk string
		start = time.Now()
		last  = start
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := copyFn(ctx, columns, batch)
		st.Rows += n
		size := len(batch)
		batch = batch[:0]
		if err != nil {
			log.Printf("load %s: batch #%d failed in chunk %s after %d of %d rows: %v", table, st.Batches+1, chunk, n, size, err)
			return err
		}

		st.Batches++
		now := time.Now()
		rps := 0.0
		if d := now.Sub(last); d > 0 {
			rps = float64(n) / d.Seconds()
		}
		log.Printf("load %s: batch #%d chunk=%s rows=%d loaded=%d chunks=%d rps=%.0f elapsed=%s",
			table, st.Batches, chunk, n, st.Rows, st.Chunks, rps, now.Sub(start).Truncate(time.Millisecond))
		last = now
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return st, ctx.Err()

		case row, ok := <-in:
			if !ok {
				pending := len(batch)
				if err := flush(); err != nil {
					return st, err
				}
				log.Printf("load %s: input closed, final_flush=%d batches=%d chunks=%d loaded=%d",
					table, pending, st.Batches, st.Chunks, st.Rows)
				return st, nil
			}
			if st.Chunks == 0 || row.Chunk != chunk {
				st.Chunks++
				chunk = row.Chunk
			}
			batch = append(batch, row.Values)
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return st, err
				}
			}
		}
	}
}
