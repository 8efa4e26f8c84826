// Package config defines the pipeline file a jsonrows run is configured by.
// A pipeline names its input (source), how documents become rows (parser),
// where rows go (storage) and how the loader is sized (runtime).
//
// Pipelines are written in YAML or JSON. Load picks the decoder from the file
// extension: ".yaml" and ".yml" go through gopkg.in/yaml.v3, everything else
// through encoding/json.
//
// Example (trimmed):
//
//	job: orders
//	source:  { kind: file, file: { path: in/orders.json } }
//	parser:
//	  root: "$.data.items"
//	  columns:
//	    - { name: id, type: long }
//	    - { name: at, type: timestamp, format: "%Y-%m-%dT%H:%M:%S%z" }
//	storage: { kind: sqlite, db: { dsn: "file:out.db", table: orders, auto_create_table: true } }
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"jsonrows/internal/storage"
)

// Pipeline is the top-level object decoded from a pipeline file.
type Pipeline struct {
	// Job names the run in logs and metrics.
	Job     string        `json:"job" yaml:"job"`
	Source  Source        `json:"source" yaml:"source"`
	Parser  Parser        `json:"parser" yaml:"parser"`
	Storage Storage       `json:"storage" yaml:"storage"`
	Runtime RuntimeConfig `json:"runtime" yaml:"runtime"`
}

// RuntimeConfig sizes the batched loader.
type RuntimeConfig struct {
	BatchSize     int `json:"batch_size" yaml:"batch_size"`
	ChannelBuffer int `json:"channel_buffer" yaml:"channel_buffer"`
}

// Source identifies where input documents come from.
type Source struct {
	// Kind selects the source: file, glob, list, http or stdin.
	Kind string     `json:"kind" yaml:"kind"`
	File SourceFile `json:"file" yaml:"file,omitempty"`
	Glob SourceGlob `json:"glob" yaml:"glob,omitempty"`
	// List is a text file naming one path or URL per line.
	List SourceFile `json:"list" yaml:"list,omitempty"`
	HTTP SourceHTTP `json:"http" yaml:"http,omitempty"`

	// Compression is auto, none, gzip, zstd or lz4.
	Compression string `json:"compression" yaml:"compression,omitempty"`
	// Encoding is any IANA/WHATWG charset name; empty means UTF-8.
	Encoding string `json:"encoding" yaml:"encoding,omitempty"`
	// MaxChunkBytes caps the decompressed size of one input; 0 is no cap.
	MaxChunkBytes int64 `json:"max_chunk_bytes" yaml:"max_chunk_bytes,omitempty"`
}

// SourceFile holds a local filesystem path.
type SourceFile struct {
	Path string `json:"path" yaml:"path"`
}

// SourceGlob holds a filepath.Match pattern.
type SourceGlob struct {
	Pattern string `json:"pattern" yaml:"pattern"`
}

// SourceHTTP configures the "http" source kind and URL entries of a list.
type SourceHTTP struct {
	URL string `json:"url" yaml:"url"`
	// Timeout is a Go duration string such as "30s".
	Timeout    string            `json:"timeout" yaml:"timeout,omitempty"`
	MaxRetries int               `json:"max_retries" yaml:"max_retries,omitempty"`
	Headers    map[string]string `json:"headers" yaml:"headers,omitempty"`
}

// Parser configures how documents are turned into rows.
type Parser struct {
	// Kind is informational; "jsonpath" is the only parser.
	Kind string `json:"kind" yaml:"kind,omitempty"`
	// Root is the path expression selecting the array of records.
	Root string `json:"root" yaml:"root"`
	// DefaultTypecast applies to columns without their own typecast; nil
	// means true.
	DefaultTypecast        *bool  `json:"default_typecast" yaml:"default_typecast,omitempty"`
	StopOnInvalidRecord    bool   `json:"stop_on_invalid_record" yaml:"stop_on_invalid_record,omitempty"`
	MultiDocument          bool   `json:"multi_document" yaml:"multi_document,omitempty"`
	DefaultTimezone        string `json:"default_timezone" yaml:"default_timezone,omitempty"`
	DefaultTimestampFormat string `json:"default_timestamp_format" yaml:"default_timestamp_format,omitempty"`

	Columns []Column `json:"columns" yaml:"columns"`
}

// Column is one declared output column.
type Column struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
	// Typecast is left untyped so that a non-bool value surfaces as a
	// validation issue instead of a decode failure.
	Typecast any    `json:"typecast,omitempty" yaml:"typecast,omitempty"`
	Format   string `json:"format,omitempty" yaml:"format,omitempty"`
	Timezone string `json:"timezone,omitempty" yaml:"timezone,omitempty"`
}

// Storage selects the sink rows are written to.
type Storage struct {
	// Kind selects the backend: sqlite, postgres, mssql, mysql, mongo or console.
	Kind string   `json:"kind" yaml:"kind"`
	DB   DBConfig `json:"db" yaml:"db"`
	// Options carries backend-specific extras, e.g. "database" for mongo and
	// "color" for console.
	Options Options `json:"options" yaml:"options,omitempty"`
}

// DBConfig configures the destination.
type DBConfig struct {
	// DSN is the backend connection string. For console it is "stdout"
	// (default) or "stderr"; for mongo it is the connection URI.
	DSN string `json:"dsn" yaml:"dsn"`

	// Table is the destination table, optionally schema-qualified
	// ("public.orders"). For mongo it names the collection.
	Table string `json:"table" yaml:"table"`

	// AutoCreateTable derives a CREATE TABLE from the parser columns and
	// applies it before loading.
	AutoCreateTable bool `json:"auto_create_table" yaml:"auto_create_table"`
}

// Load reads and decodes the pipeline file at path. Missing option bags
// decode as empty Options.
func Load(path string) (Pipeline, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("read config: %w", err)
	}
	var p Pipeline
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		p, err = DecodeYAML(b)
	default:
		p, err = DecodeJSON(b)
	}
	if err != nil {
		return Pipeline{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return p, nil
}

// DecodeJSON decodes a JSON pipeline. Unknown fields are rejected.
func DecodeJSON(b []byte) (Pipeline, error) {
	var p Pipeline
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Pipeline{}, err
	}
	p.normalize()
	return p, nil
}

// DecodeYAML decodes a YAML pipeline. Unknown fields are rejected.
func DecodeYAML(b []byte) (Pipeline, error) {
	var p Pipeline
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return Pipeline{}, err
	}
	p.normalize()
	return p, nil
}

func (p *Pipeline) normalize() {
	if p.Storage.Options == nil {
		p.Storage.Options = Options{}
	}
}

// HTTPTimeout parses Source.HTTP.Timeout; an empty value yields 0.
func (s Source) HTTPTimeout() (time.Duration, error) {
	if strings.TrimSpace(s.HTTP.Timeout) == "" {
		return 0, nil
	}
	return time.ParseDuration(s.HTTP.Timeout)
}

// Options is the storage option bag; see storage.Options for the keys the
// bundled backends read.
type Options = storage.Options
