// Package file implements local filesystem sources.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// Local opens one file on the local disk.
type Local struct{ path string }

// NewLocal returns a source for path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Open opens the file. A done context fails without touching the
// filesystem. Errors keep os.ErrNotExist and friends visible to errors.Is.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}

// Path returns the file path.
func (l *Local) Path() string { return l.path }

// StdinSource reads standard input. Closing what Open returns leaves
// os.Stdin open.
type StdinSource struct{}

// Stdin returns a StdinSource.
func Stdin() StdinSource { return StdinSource{} }

func (StdinSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return io.NopCloser(os.Stdin), nil
}

// Glob returns the regular files matching pattern in lexical order.
func Glob(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	out := matches[:0]
	for _, m := range matches {
		if fi, err := os.Stat(m); err == nil && fi.Mode().IsRegular() {
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out, nil
}
