// Package ast holds compiled path queries.
package ast

import (
	"strconv"
	"strings"
)

type Query struct {
	Segments []Segment
}

type SegmentType uint8

const (
	ChildSegmentType SegmentType = iota
	DescendantSegmentType
)

type Segment struct {
	Type      SegmentType
	Selectors []Selector
}

//
// Selectors
//

type Selector interface {
	// singular reports whether the selector picks at most one node.
	singular() bool
	appendTo(sb *strings.Builder)
}

type NameSelector struct {
	Name string
}

type WildcardSelector struct{}

type IndexSelector struct {
	Index int64
}

type SliceSelector struct {
	Start, End *int64
	Step       int64
}

func (NameSelector) singular() bool     { return true }
func (WildcardSelector) singular() bool { return false }
func (IndexSelector) singular() bool    { return true }
func (SliceSelector) singular() bool    { return false }

// IsSingular reports whether q can match at most one node: every segment is
// a child segment with a single name or index selector.
func (q Query) IsSingular() bool {
	for _, s := range q.Segments {
		if s.Type != ChildSegmentType || len(s.Selectors) != 1 || !s.Selectors[0].singular() {
			return false
		}
	}
	return true
}

// String renders q in normalized bracket notation, e.g. $['a'][0]..[*].
func (q Query) String() string {
	var sb strings.Builder
	sb.WriteByte('$')
	for _, s := range q.Segments {
		if s.Type == DescendantSegmentType {
			sb.WriteString("..")
		}
		sb.WriteByte('[')
		for i, sel := range s.Selectors {
			if i > 0 {
				sb.WriteByte(',')
			}
			sel.appendTo(&sb)
		}
		sb.WriteByte(']')
	}
	return sb.String()
}

func (s NameSelector) appendTo(sb *strings.Builder) {
	sb.WriteByte('\'')
	sb.WriteString(strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s.Name))
	sb.WriteByte('\'')
}

func (WildcardSelector) appendTo(sb *strings.Builder) { sb.WriteByte('*') }

func (s IndexSelector) appendTo(sb *strings.Builder) {
	sb.WriteString(strconv.FormatInt(s.Index, 10))
}

func (s SliceSelector) appendTo(sb *strings.Builder) {
	if s.Start != nil {
		sb.WriteString(strconv.FormatInt(*s.Start, 10))
	}
	sb.WriteByte(':')
	if s.End != nil {
		sb.WriteString(strconv.FormatInt(*s.End, 10))
	}
	if s.Step != 1 {
		sb.WriteByte(':')
		sb.WriteString(strconv.FormatInt(s.Step, 10))
	}
}
