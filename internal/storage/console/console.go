// Package console is a storage backend that prints emitted rows as
// tab-separated lines, for previewing a pipeline without a database. The
// header line is written before the first row. On a terminal, nulls and
// typed cells are colorized.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"jsonrows/internal/storage"
	"jsonrows/internal/value"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

const (
	colorReset  = "\x1b[0m"
	colorHeader = "\x1b[1m"
	colorNull   = "\x1b[2m"
	colorNumber = "\x1b[36m"
	colorBool   = "\x1b[35m"
	colorTime   = "\x1b[32m"
	colorJSON   = "\x1b[33m"
)

// Repository writes rows to a text stream.
type Repository struct {
	mu      sync.Mutex
	w       *bufio.Writer
	color   bool
	headed  bool
	columns []string
}

// New returns a Repository writing to w. color enables ANSI colors.
func New(w io.Writer, color bool, columns []string) *Repository {
	return &Repository{w: bufio.NewWriter(w), color: color, columns: columns}
}

// CopyFrom prints rows and flushes, so output appears batch by batch.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.headed {
		if len(columns) == 0 {
			columns = r.columns
		}
		r.paint(colorHeader, strings.Join(columns, "\t"))
		r.w.WriteByte('\n')
		r.headed = true
	}
	var n int64
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		for i, c := range row {
			if i > 0 {
				r.w.WriteByte('\t')
			}
			r.cell(c)
		}
		if err := r.w.WriteByte('\n'); err != nil {
			return n, fmt.Errorf("console: write: %w", err)
		}
		n++
	}
	if err := r.w.Flush(); err != nil {
		return n, fmt.Errorf("console: flush: %w", err)
	}
	return n, nil
}

// Exec is a no-op: there is nothing to create.
func (r *Repository) Exec(ctx context.Context, stmt string) error { return nil }

// Close flushes buffered output.
func (r *Repository) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.w.Flush()
}

func (r *Repository) cell(c any) {
	switch v := c.(type) {
	case nil:
		r.paint(colorNull, "NULL")
	case bool:
		r.paint(colorBool, strconv.FormatBool(v))
	case int64:
		r.paint(colorNumber, strconv.FormatInt(v, 10))
	case float64:
		r.paint(colorNumber, value.FormatFloat(v))
	case string:
		r.w.WriteString(escape(v))
	case time.Time:
		r.paint(colorTime, v.UTC().Format(time.RFC3339Nano))
	case value.Value:
		r.paint(colorJSON, escape(v.String()))
	default:
		r.w.WriteString(escape(fmt.Sprint(v)))
	}
}

func (r *Repository) paint(color, s string) {
	if r.color {
		r.w.WriteString(color)
		r.w.WriteString(s)
		r.w.WriteString(colorReset)
		return
	}
	r.w.WriteString(s)
}

var escaper = strings.NewReplacer("\\", `\\`, "\t", `\t`, "\n", `\n`, "\r", `\r`)

// escape keeps one row per line and one cell per tab-separated field.
func escape(s string) string { return escaper.Replace(s) }

// open resolves the DSN ("", "stdout" or "stderr"), the "color" option
// ("auto", "always" or "never") and the "header" option.
func open(cfg storage.Config) (*Repository, error) {
	f := os.Stdout
	switch cfg.DSN {
	case "", "stdout":
	case "stderr":
		f = os.Stderr
	default:
		return nil, fmt.Errorf("console: unknown stream %q (want stdout or stderr)", cfg.DSN)
	}

	var color bool
	switch mode := cfg.Options.String("color", "auto"); mode {
	case "auto":
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	case "always":
		color = true
	case "never":
	default:
		return nil, fmt.Errorf("console: unknown color mode %q", mode)
	}

	var w io.Writer = f
	if color {
		w = colorable.NewColorable(f)
	}
	r := New(w, color, cfg.Columns)
	r.headed = !cfg.Options.Bool("header", true)
	return r, nil
}

func init() {
	storage.Register("console", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return open(cfg)
	})
}
