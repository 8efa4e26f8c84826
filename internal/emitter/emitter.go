// Package emitter delivers materialized rows to an output sink.
package emitter

import (
	"context"
	"errors"
	"fmt"
)

// ErrFinished is returned by Append after Finish.
var ErrFinished = errors.New("emitter: sink already finished")

// Sink receives rows in order. Append must not keep row after it returns;
// Finish flushes and releases the sink.
type Sink interface {
	Append(ctx context.Context, row []any) error
	Finish(ctx context.Context) error
}

// ChunkSink is a Sink that wants to know which input chunk the following rows
// come from.
type ChunkSink interface {
	Sink
	StartChunk(name string)
}

// Emitter wraps a Sink: it counts rows, digests them, and finishes the sink
// exactly once.
type Emitter struct {
	sink      Sink
	rows      int64
	digest    *digest
	finished  bool
	finishErr error
}

// New wraps sink.
func New(sink Sink) *Emitter {
	return &Emitter{sink: sink, digest: newDigest()}
}

// Append forwards row to the sink.
func (e *Emitter) Append(ctx context.Context, row []any) error {
	if e.finished {
		return ErrFinished
	}
	if err := e.sink.Append(ctx, row); err != nil {
		return fmt.Errorf("emitter: append row %d: %w", e.rows+1, err)
	}
	e.rows++
	e.digest.add(row)
	return nil
}

// StartChunk tells a ChunkSink that the next rows come from chunk name.
func (e *Emitter) StartChunk(name string) {
	if cs, ok := e.sink.(ChunkSink); ok {
		cs.StartChunk(name)
	}
}

// Finish finishes the sink on the first call; later calls return the first
// result.
func (e *Emitter) Finish(ctx context.Context) error {
	if e.finished {
		return e.finishErr
	}
	e.finished = true
	if err := e.sink.Finish(ctx); err != nil {
		e.finishErr = fmt.Errorf("emitter: finish: %w", err)
	}
	return e.finishErr
}

// Rows is the number of rows the sink accepted.
func (e *Emitter) Rows() int64 { return e.rows }

// Digest is the xxh3 hash of the accepted row sequence.
func (e *Emitter) Digest() uint64 { return e.digest.sum() }
