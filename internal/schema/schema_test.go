package schema

import (
	"errors"
	"reflect"
	"testing"
)

/*
TestNew_AssignsIndexes verifies indexes follow declaration order, type names
are normalized, and the schema keeps its own copy of a typecast override.
*/
func TestNew_AssignsIndexes(t *testing.T) {
	t.Parallel()

	off := false
	s, err := New([]Column{
		{Name: "id", Type: TypeLong},
		{Name: "at", Type: "Timestamp", Format: "%Y-%m-%d"},
		{Name: "raw", Type: TypeJSON, Typecast: &off},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.Len() != 3 {
		t.Fatalf("len got %d; want 3", s.Len())
	}
	if got := s.Names(); !reflect.DeepEqual(got, []string{"id", "at", "raw"}) {
		t.Fatalf("names got %v; want [id at raw]", got)
	}
	for i, c := range s.Columns() {
		if c.Index != i {
			t.Errorf("column %q index got %d; want %d", c.Name, c.Index, i)
		}
	}
	if at := s.Column(1); at.Type != TypeTimestamp {
		t.Fatalf("at type got %q; want %q", at.Type, TypeTimestamp)
	}

	off = true
	raw := s.Column(2)
	if raw.Typecast == nil || *raw.Typecast {
		t.Fatalf("raw typecast got %v; want false", raw.Typecast)
	}
}

/*
TestNew_Rejects verifies each validation error is reported.
*/
func TestNew_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cols []Column
		want error
	}{
		{"empty", nil, ErrNoColumns},
		{"duplicate", []Column{{Name: "a", Type: TypeLong}, {Name: "a", Type: TypeString}}, ErrDuplicateColumn},
		{"unnamed", []Column{{Name: "", Type: TypeLong}}, ErrEmptyColumnName},
		{"unknown type", []Column{{Name: "a", Type: "decimal"}}, ErrUnknownType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := New(tt.cols); !errors.Is(err, tt.want) {
				t.Fatalf("err got %v; want %v", err, tt.want)
			}
		})
	}
}

/*
TestColumns_ReturnsCopy verifies callers cannot mutate the schema through
Columns.
*/
func TestColumns_ReturnsCopy(t *testing.T) {
	t.Parallel()

	s := MustNew(Column{Name: "a", Type: TypeString})
	cols := s.Columns()
	cols[0].Name = "changed"
	if got := s.Column(0).Name; got != "a" {
		t.Fatalf("name got %q; want a", got)
	}
}

/*
TestParseType verifies every known type round-trips and unknown names fail.
*/
func TestParseType(t *testing.T) {
	t.Parallel()

	for _, typ := range Types() {
		got, err := ParseType(" " + string(typ) + " ")
		if err != nil {
			t.Fatalf("ParseType(%q): %v", typ, err)
		}
		if got != typ {
			t.Fatalf("ParseType got %q; want %q", got, typ)
		}
	}
	if _, err := ParseType("int"); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("err got %v; want ErrUnknownType", err)
	}
}
