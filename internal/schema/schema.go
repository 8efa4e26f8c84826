// Package schema describes the typed, ordered column list that every record
// is materialized into.
package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Type is a column's declared type.
type Type string

const (
	TypeBoolean   Type = "boolean"
	TypeLong      Type = "long"
	TypeDouble    Type = "double"
	TypeString    Type = "string"
	TypeTimestamp Type = "timestamp"
	TypeJSON      Type = "json"
)

var (
	ErrDuplicateColumn = errors.New("duplicate column name")
	ErrEmptyColumnName = errors.New("empty column name")
	ErrUnknownType     = errors.New("unknown column type")
	ErrNoColumns       = errors.New("schema has no columns")
)

// Types lists the supported column types.
func Types() []Type {
	return []Type{TypeBoolean, TypeLong, TypeDouble, TypeString, TypeTimestamp, TypeJSON}
}

// ParseType maps a type name (case-insensitive) onto a Type.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Types() {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownType, s)
}

// Column is one entry of a Schema.
type Column struct {
	// Index is the 0-based position, assigned by New.
	Index int
	Name  string
	Type  Type
	// Typecast overrides the task-wide default when non-nil.
	Typecast *bool
	// Format and Timezone only apply to timestamp columns; empty means the
	// task-wide default.
	Format   string
	Timezone string
}

// Schema is an immutable, ordered list of uniquely named columns.
type Schema struct {
	cols []Column
}

// New validates cols and returns a Schema with indexes assigned in order.
func New(cols []Column) (Schema, error) {
	if len(cols) == 0 {
		return Schema{}, ErrNoColumns
	}
	s := Schema{cols: make([]Column, len(cols))}
	seen := make(map[string]struct{}, len(cols))
	for i, c := range cols {
		if c.Name == "" {
			return Schema{}, fmt.Errorf("column %d: %w", i, ErrEmptyColumnName)
		}
		if _, err := ParseType(string(c.Type)); err != nil {
			return Schema{}, fmt.Errorf("column %q: %w", c.Name, err)
		}
		if _, dup := seen[c.Name]; dup {
			return Schema{}, fmt.Errorf("column %q: %w", c.Name, ErrDuplicateColumn)
		}
		c.Index = i
		c.Type = Type(strings.ToLower(string(c.Type)))
		if c.Typecast != nil {
			tc := *c.Typecast
			c.Typecast = &tc
		}
		s.cols[i] = c
		seen[c.Name] = struct{}{}
	}
	return s, nil
}

// MustNew is like New but panics on error.
func MustNew(cols ...Column) Schema {
	s, err := New(cols)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of columns.
func (s Schema) Len() int { return len(s.cols) }

// Column returns the i-th column.
func (s Schema) Column(i int) Column { return s.cols[i] }

// Columns returns a copy of the column list.
func (s Schema) Columns() []Column {
	out := make([]Column, len(s.cols))
	copy(out, s.cols)
	return out
}

// Names returns the column names in order.
func (s Schema) Names() []string {
	out := make([]string, len(s.cols))
	for i, c := range s.cols {
		out[i] = c.Name
	}
	return out
}
