package config

// This file adds a linter for Pipeline values. It performs static checks over
// a decoded Pipeline and returns a list of issues (errors and warnings) that
// callers can surface in a CLI or tests.

import (
	"fmt"
	"strings"

	"jsonrows/internal/datasource"
	"jsonrows/internal/datasource/charset"
	"jsonrows/internal/datasource/decompress"
	"jsonrows/internal/jsonpath"
	"jsonrows/internal/schema"
	"jsonrows/internal/timestamp"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "parser.columns[1].timezone"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// sqlKinds need a DSN and a table and support auto_create_table.
var sqlKinds = map[string]struct{}{
	"sqlite":   {},
	"postgres": {},
	"mssql":    {},
	"mysql":    {},
}

// ValidatePipeline performs static validation of a Pipeline.
//
// It does not mutate the pipeline. Callers decide whether warnings are fatal.
//
// Example:
//
//	p, err := config.Load("pipeline.yaml")
//	if err != nil { ... }
//	for _, iss := range config.ValidatePipeline(p) {
//	    fmt.Printf("%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
//	}
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "job",
			Message:  "job is empty; metrics and logs will use a default name",
		})
	}
	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateParser(p.Parser)...)
	issues = append(issues, validateStorage(p.Storage)...)
	issues = append(issues, validateRuntime(p.Runtime)...)

	return issues
}

// validateSource validates Source configuration.
func validateSource(s Source) []Issue {
	var issues []Issue

	kind := strings.ToLower(strings.TrimSpace(s.Kind))
	if kind == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  "source.kind must not be empty",
		})
	}

	// Unknown kinds are warnings, matching the other sections.
	switch kind {
	case "":
	case datasource.KindFile:
		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.file.path",
				Message:  "file source requires a non-empty path",
			})
		}
	case datasource.KindGlob:
		if strings.TrimSpace(s.Glob.Pattern) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.glob.pattern",
				Message:  "glob source requires a non-empty pattern",
			})
		}
	case datasource.KindList:
		if strings.TrimSpace(s.List.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.list.path",
				Message:  "list source requires a non-empty path",
			})
		}
	case datasource.KindHTTP:
		if strings.TrimSpace(s.HTTP.URL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.http.url",
				Message:  "http source requires a non-empty url",
			})
		}
	case datasource.KindStdin:
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "source.kind",
			Message:  fmt.Sprintf("unknown source kind %q; known kinds: %s", s.Kind, strings.Join(datasource.Kinds(), ", ")),
		})
	}

	if _, err := s.HTTPTimeout(); err != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.http.timeout",
			Message:  fmt.Sprintf("invalid duration %q: %v", s.HTTP.Timeout, err),
		})
	}
	if s.HTTP.MaxRetries < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.http.max_retries",
			Message:  "max_retries must not be negative",
		})
	}
	if !decompress.Valid(s.Compression) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.compression",
			Message:  fmt.Sprintf("unknown compression %q; known: %s", s.Compression, strings.Join(decompress.Modes(), ", ")),
		})
	}
	if _, err := charset.Lookup(s.Encoding); err != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.encoding",
			Message:  err.Error(),
		})
	}
	if s.MaxChunkBytes < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.max_chunk_bytes",
			Message:  "max_chunk_bytes must not be negative",
		})
	}

	return issues
}

// validateParser validates the root expression, the task-wide defaults and
// every column.
func validateParser(p Parser) []Issue {
	var issues []Issue

	if k := strings.TrimSpace(p.Kind); k != "" && !strings.EqualFold(k, "jsonpath") {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "parser.kind",
			Message:  fmt.Sprintf("unknown parser kind %q; the jsonpath parser is used", p.Kind),
		})
	}

	if strings.TrimSpace(p.Root) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.root",
			Message:  "parser.root must not be empty",
		})
	} else if _, err := jsonpath.Compile(p.Root); err != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.root",
			Message:  fmt.Sprintf("cannot parse root expression: %v", err),
		})
	}

	if p.DefaultTimezone != "" {
		if _, err := timestamp.LoadLocation(p.DefaultTimezone); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "parser.default_timezone",
				Message:  err.Error(),
			})
		}
	}
	if p.DefaultTimestampFormat != "" {
		if _, err := timestamp.NewParser(p.DefaultTimestampFormat, ""); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "parser.default_timestamp_format",
				Message:  err.Error(),
			})
		}
	}

	if len(p.Columns) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.columns",
			Message:  "parser.columns must declare at least one column",
		})
		return issues
	}

	seen := make(map[string]int, len(p.Columns))
	for i, c := range p.Columns {
		issues = append(issues, validateColumn(i, c, seen)...)
	}
	return issues
}

func validateColumn(i int, c Column, seen map[string]int) []Issue {
	var issues []Issue
	at := func(field string) string {
		if field == "" {
			return fmt.Sprintf("parser.columns[%d]", i)
		}
		return fmt.Sprintf("parser.columns[%d].%s", i, field)
	}

	if c.Name == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     at("name"),
			Message:  "column name must not be empty",
		})
	} else if j, dup := seen[c.Name]; dup {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     at("name"),
			Message:  fmt.Sprintf("duplicate column name %q (first declared at parser.columns[%d])", c.Name, j),
		})
	} else {
		seen[c.Name] = i
	}

	typ, err := schema.ParseType(c.Type)
	if err != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     at("type"),
			Message:  err.Error(),
		})
	}

	if c.Typecast != nil {
		if _, ok := c.Typecast.(bool); !ok {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     at("typecast"),
				Message:  fmt.Sprintf("typecast must be true or false, got %v", c.Typecast),
			})
		}
	}

	// An unknown type already produced an error; format/timezone are only
	// checked against a known type.
	if err != nil {
		return issues
	}
	if typ != schema.TypeTimestamp {
		if c.Format != "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     at("format"),
				Message:  fmt.Sprintf("format only applies to timestamp columns, not %s", typ),
			})
		}
		if c.Timezone != "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     at("timezone"),
				Message:  fmt.Sprintf("timezone only applies to timestamp columns, not %s", typ),
			})
		}
		return issues
	}

	if c.Timezone != "" {
		if _, err := timestamp.LoadLocation(c.Timezone); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     at("timezone"),
				Message:  err.Error(),
			})
		}
	}
	if c.Format != "" {
		if _, err := timestamp.NewParser(c.Format, ""); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     at("format"),
				Message:  err.Error(),
			})
		}
	}
	return issues
}

// validateStorage validates storage configuration and DB settings.
func validateStorage(s Storage) []Issue {
	var issues []Issue

	kind := strings.ToLower(strings.TrimSpace(s.Kind))
	if kind == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  "storage.kind must not be empty",
		})
		return issues
	}

	_, isSQL := sqlKinds[kind]
	switch {
	case isSQL, kind == "mongo":
		if strings.TrimSpace(s.DB.DSN) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "storage.db.dsn",
				Message:  fmt.Sprintf("storage.db.dsn must not be empty for %s", kind),
			})
		}
		if strings.TrimSpace(s.DB.Table) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "storage.db.table",
				Message:  fmt.Sprintf("storage.db.table must not be empty for %s", kind),
			})
		}
	case kind == "console":
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", s.Kind),
		})
		return issues
	}

	if s.DB.AutoCreateTable && !isSQL {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.auto_create_table",
			Message:  fmt.Sprintf("auto_create_table is not supported by %s", kind),
		})
	}

	return issues
}

// validateRuntime validates RuntimeConfig for obvious misconfigurations.
// Zero values select the loader defaults.
func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue

	if r.BatchSize < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.batch_size",
			Message:  "batch_size must not be negative",
		})
	}
	if r.ChannelBuffer < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.channel_buffer",
			Message:  "channel_buffer must not be negative",
		})
	}

	return issues
}
