package emitter

import (
	"context"
	"sync"
)

// MemorySink keeps copies of every row.
type MemorySink struct {
	mu       sync.Mutex
	rows     [][]any
	finished bool
}

// NewMemorySink returns an empty MemorySink.
func NewMemorySink() *MemorySink { return &MemorySink{} }

func (s *MemorySink) Append(_ context.Context, row []any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return ErrFinished
	}
	s.rows = append(s.rows, append([]any(nil), row...))
	return nil
}

func (s *MemorySink) Finish(context.Context) error {
	s.mu.Lock()
	s.finished = true
	s.mu.Unlock()
	return nil
}

// Rows returns the collected rows.
func (s *MemorySink) Rows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows
}

// Finished reports whether Finish was called.
func (s *MemorySink) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}
