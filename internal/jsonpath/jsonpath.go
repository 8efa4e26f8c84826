// Package jsonpath locates the record array inside a JSON document.
//
// Supported syntax: the root $, .name and ['name'] children, [index]
// (negative counts from the end), [start:end:step] slices, .* and [*]
// wildcards, ..name and ..* descendants, and [a,b] unions. Filters and
// functions are rejected by Compile.
//
// A query without wildcards, slices, unions or descendant segments is
// definite: it must resolve to exactly one node. Other queries collect their
// matches in document order; see Query.Resolve for the exact policy.
package jsonpath

import (
	"errors"
	"fmt"

	"jsonrows/internal/jsonpath/ast"
	"jsonrows/internal/jsonpath/parser"
	"jsonrows/internal/value"
)

var (
	// ErrInvalidPath is returned by Compile for expressions outside the
	// supported syntax.
	ErrInvalidPath = errors.New("invalid path expression")
	// ErrPathNotFound means the expression matched no node.
	ErrPathNotFound = errors.New("path not found")
	// ErrPathAmbiguous means the expression matched several arrays and
	// there is no single record array to return.
	ErrPathAmbiguous = errors.New("path matches more than one array")
)

// Query is a compiled path expression. It is immutable and safe for
// concurrent use.
type Query struct {
	expr     string
	q        ast.Query
	definite bool
}

// Compile parses expr.
func Compile(expr string) (*Query, error) {
	q, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("jsonpath: %q: %w: %v", expr, ErrInvalidPath, err)
	}
	return &Query{expr: expr, q: q, definite: q.IsSingular()}, nil
}

// String returns the expression as written.
func (q *Query) String() string { return q.expr }

// Normalized returns the expression in bracket notation.
func (q *Query) Normalized() string { return q.q.String() }

// Definite reports whether q can match at most one node.
func (q *Query) Definite() bool { return q.definite }

// Select returns every node q matches in doc, in document order.
func (q *Query) Select(doc value.Value) []value.Value {
	nodes := []value.Value{doc}
	for _, seg := range q.q.Segments {
		var next []value.Value
		for _, n := range nodes {
			if seg.Type == ast.DescendantSegmentType {
				next = selectDescendants(next, seg.Selectors, n)
			} else {
				next = applySelectors(next, seg.Selectors, n)
			}
		}
		if len(next) == 0 {
			return nil
		}
		nodes = next
	}
	return nodes
}

// Resolve applies the match policy and returns the single node the
// expression stands for:
//
//   - no match is ErrPathNotFound;
//   - a definite query returns its only match;
//   - an indefinite query with one array match returns that array;
//   - an indefinite query with several matches of which any is an array
//     is ErrPathAmbiguous;
//   - otherwise the matches are wrapped into a new array, so $.items[*]
//     selects the same elements as $.items.
func (q *Query) Resolve(doc value.Value) (value.Value, error) {
	matches := q.Select(doc)
	if len(matches) == 0 {
		return value.Value{}, fmt.Errorf("jsonpath: %s: %w", q.expr, ErrPathNotFound)
	}
	if q.definite {
		return matches[0], nil
	}
	if len(matches) == 1 && matches[0].Kind() == value.KindArray {
		return matches[0], nil
	}
	for _, m := range matches {
		if m.Kind() == value.KindArray {
			return value.Value{}, fmt.Errorf("jsonpath: %s: %w (%d matches)", q.expr, ErrPathAmbiguous, len(matches))
		}
	}
	return value.Array(matches...), nil
}

// Extract decodes raw as one JSON document, resolves q against it and
// returns the canonical JSON text of the result.
func (q *Query) Extract(raw []byte) ([]byte, error) {
	doc, err := value.Decode(raw)
	if err != nil {
		return nil, err
	}
	node, err := q.Resolve(doc)
	if err != nil {
		return nil, err
	}
	return value.AppendJSON(nil, node), nil
}

// ExtractAll is Extract for input holding several concatenated documents.
// Every document must resolve; results keep input order.
func (q *Query) ExtractAll(raw []byte) ([][]byte, error) {
	docs, err := value.DecodeAll(raw)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, 0, len(docs))
	for i, doc := range docs {
		node, err := q.Resolve(doc)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		out = append(out, value.AppendJSON(nil, node))
	}
	return out, nil
}

// Extract compiles expr and applies it to raw.
func Extract(raw []byte, expr string) ([]byte, error) {
	q, err := Compile(expr)
	if err != nil {
		return nil, err
	}
	return q.Extract(raw)
}
