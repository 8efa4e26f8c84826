package emitter

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"jsonrows/internal/storage"
)

// BatchSink streams rows to a storage backend. Rows go through a bounded
// channel to a single loader goroutine that groups them into batches and
// calls copyFn per batch.
type BatchSink struct {
	in    chan storage.Row
	g     *errgroup.Group
	gctx  context.Context
	chunk string
	stats storage.LoadStats
	done  atomic.Bool
	close sync.Once
}

// NewBatchSink starts the loader for table. It stops when Finish is called,
// when ctx is canceled or when copyFn fails.
func NewBatchSink(ctx context.Context, table string, columns []string, batchSize, buffer int, copyFn storage.CopyFn) *BatchSink {
	if buffer < 0 {
		buffer = 0
	}
	g, gctx := errgroup.WithContext(ctx)
	s := &BatchSink{in: make(chan storage.Row, buffer), g: g, gctx: gctx}
	g.Go(func() error {
		st, err := storage.LoadBatches(gctx, table, columns, s.in, batchSize, copyFn)
		s.stats = st
		return err
	})
	return s
}

// StartChunk tags the rows appended after it with the chunk name.
func (s *BatchSink) StartChunk(name string) { s.chunk = name }

// Append copies row onto the channel.
func (s *BatchSink) Append(ctx context.Context, row []any) error {
	if s.done.Load() {
		return ErrFinished
	}
	cp := storage.Row{Chunk: s.chunk, Values: append([]any(nil), row...)}
	select {
	case s.in <- cp:
		return nil
	case <-s.gctx.Done():
		// The loader has stopped; report why.
		if err := s.g.Wait(); err != nil {
			return err
		}
		return s.gctx.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Finish closes the channel, waits for the final flush and returns the
// first load error.
func (s *BatchSink) Finish(context.Context) error {
	s.close.Do(func() {
		s.done.Store(true)
		close(s.in)
	})
	return s.g.Wait()
}

// Stats reports rows, batches and chunks written. Call it after Finish
// returns.
func (s *BatchSink) Stats() storage.LoadStats { return s.stats }
