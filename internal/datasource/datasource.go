// Package datasource supplies the raw input chunks a run consumes.
//
// A chunk is one physical input (a file, a URL response, stdin) read fully
// into memory, decompressed and converted to UTF-8.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"jsonrows/internal/datasource/charset"
	"jsonrows/internal/datasource/decompress"
	"jsonrows/internal/datasource/file"
	"jsonrows/internal/datasource/httpds"
)

// Source opens one raw byte stream.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Chunk is one unit of input.
type Chunk struct {
	Name string
	Data []byte
}

// Input hands out chunks in order. Next returns io.EOF when exhausted.
type Input interface {
	Next(ctx context.Context) (Chunk, error)
	Close() error
}

// Source kinds.
const (
	KindFile  = "file"
	KindGlob  = "glob"
	KindList  = "list"
	KindHTTP  = "http"
	KindStdin = "stdin"
)

var (
	ErrUnknownKind = errors.New("unknown source kind")
	ErrNoInput     = errors.New("source matched no input")
	ErrTooLarge    = errors.New("chunk exceeds size limit")
)

// Kinds lists the supported source kinds.
func Kinds() []string { return []string{KindFile, KindGlob, KindList, KindHTTP, KindStdin} }

// Spec selects and configures the inputs of a run.
type Spec struct {
	Kind string
	// Path is the file for KindFile and the list file for KindList.
	Path    string
	Pattern string
	URL     string
	Headers map[string]string
	Timeout time.Duration
	// MaxRetries is passed to the HTTP client for KindHTTP and URL entries
	// of KindList.
	MaxRetries  int
	Compression string
	Encoding    string
	// MaxChunkBytes limits the decompressed size of a chunk; 0 is no limit.
	MaxChunkBytes int64
}

// Named pairs a source with the name its chunk carries.
type Named struct {
	Name   string
	Source Source
}

// New resolves spec into an Input. Globs and lists are expanded here, so an
// empty match fails before the run starts.
func New(spec Spec) (Input, error) {
	if !decompress.Valid(spec.Compression) {
		return nil, fmt.Errorf("datasource: %w %q", decompress.ErrUnknownCompression, spec.Compression)
	}
	if _, err := charset.Lookup(spec.Encoding); err != nil {
		return nil, fmt.Errorf("datasource: %w", err)
	}

	var sources []Named
	switch strings.ToLower(spec.Kind) {
	case KindFile:
		sources = append(sources, Named{Name: spec.Path, Source: file.NewLocal(spec.Path)})
	case KindGlob:
		paths, err := file.Glob(spec.Pattern)
		if err != nil {
			return nil, fmt.Errorf("datasource: %w", err)
		}
		for _, p := range paths {
			sources = append(sources, Named{Name: p, Source: file.NewLocal(p)})
		}
	case KindList:
		entries, err := file.ReadList(spec.Path)
		if err != nil {
			return nil, fmt.Errorf("datasource: read list: %w", err)
		}
		var client *httpds.Client
		for _, e := range entries {
			if isURL(e) {
				if client == nil {
					client = newHTTPClient(spec)
				}
				sources = append(sources, Named{Name: e, Source: httpds.NewURL(client, e, nil)})
				continue
			}
			sources = append(sources, Named{Name: e, Source: file.NewLocal(e)})
		}
	case KindHTTP:
		h := make(http.Header, len(spec.Headers))
		for k, v := range spec.Headers {
			h.Set(k, v)
		}
		sources = append(sources, Named{Name: spec.URL, Source: httpds.NewURL(newHTTPClient(spec), spec.URL, h)})
	case KindStdin:
		sources = append(sources, Named{Name: "stdin", Source: file.Stdin()})
	default:
		return nil, fmt.Errorf("datasource: %w %q", ErrUnknownKind, spec.Kind)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("datasource: %s: %w", spec.Kind, ErrNoInput)
	}
	return NewSequence(sources, spec), nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func newHTTPClient(spec Spec) *httpds.Client {
	return httpds.NewClient(httpds.Config{Timeout: spec.Timeout, MaxRetries: spec.MaxRetries})
}

// Sequence reads its sources one after the other.
type Sequence struct {
	sources []Named
	spec    Spec
	pos     int
	closed  bool
}

// NewSequence returns an Input over sources. Only the Compression, Encoding
// and MaxChunkBytes fields of spec are used.
func NewSequence(sources []Named, spec Spec) *Sequence {
	return &Sequence{sources: sources, spec: spec}
}

// Next opens the next source and reads it through its decompressor, stopping
// one byte past MaxChunkBytes, then converts it to UTF-8.
func (s *Sequence) Next(ctx context.Context) (Chunk, error) {
	if s.closed || s.pos >= len(s.sources) {
		return Chunk{}, io.EOF
	}
	src := s.sources[s.pos]
	s.pos++

	rc, err := src.Source.Open(ctx)
	if err != nil {
		return Chunk{}, err
	}
	defer rc.Close()

	limit := s.spec.MaxChunkBytes
	var maxMemory uint64
	if limit > 0 {
		maxMemory = uint64(limit)
	}
	dr, err := decompress.NewReader(rc, src.Name, s.spec.Compression, maxMemory)
	if err != nil {
		return Chunk{}, err
	}
	defer dr.Close()

	// One byte past the limit is enough to tell an oversized chunk apart.
	var r io.Reader = dr
	if limit > 0 {
		r = io.LimitReader(dr, limit+1)
	}
	data, err := io.ReadAll(r)
	if errors.Is(err, decompress.ErrMemoryLimit) {
		return Chunk{}, fmt.Errorf("%s: %w: %v", src.Name, ErrTooLarge, err)
	}
	if err != nil {
		return Chunk{}, fmt.Errorf("read %s: %w", src.Name, err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return Chunk{}, fmt.Errorf("%s: %w (more than %d bytes)", src.Name, ErrTooLarge, limit)
	}
	data, err = charset.ToUTF8(data, s.spec.Encoding)
	if err != nil {
		return Chunk{}, fmt.Errorf("%s: %w", src.Name, err)
	}
	return Chunk{Name: src.Name, Data: data}, nil
}

// Close stops the sequence; later Next calls return io.EOF.
func (s *Sequence) Close() error {
	s.closed = true
	return nil
}

// Static is an Input over chunks already in memory.
type Static struct {
	chunks []Chunk
	pos    int
	closed bool
}

// NewStatic returns an Input yielding chunks in order.
func NewStatic(chunks ...Chunk) *Static { return &Static{chunks: chunks} }

func (s *Static) Next(ctx context.Context) (Chunk, error) {
	if err := ctx.Err(); err != nil {
		return Chunk{}, err
	}
	if s.closed || s.pos >= len(s.chunks) {
		return Chunk{}, io.EOF
	}
	c := s.chunks[s.pos]
	s.pos++
	return c, nil
}

func (s *Static) Close() error {
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *Static) Closed() bool { return s.closed }
