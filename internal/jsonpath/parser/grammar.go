// Package parser implements a parser for the path subset used to locate
// record arrays: names, indexes, slices, wildcards, unions and descendant
// segments.
//
// The grammar follows https://datatracker.ietf.org/doc/rfc9535/ without
// filter expressions.
package parser

import (
	"fmt"

	"github.com/arnodel/grammar"

	"jsonrows/internal/jsonpath/ast"
)

type Token = grammar.SimpleToken

// Parse tokenises and parses s into a compiled query.
func Parse(s string) (ast.Query, error) {
	stream, err := TokeniseJsonPathString(s)
	if err != nil {
		return ast.Query{}, err
	}
	var query Query
	if perr := grammar.Parse(&query, stream); perr != nil {
		return ast.Query{}, fmt.Errorf("%v", perr)
	}
	if n := stream.Next(); n != grammar.EOF {
		return ast.Query{}, fmt.Errorf("unexpected %q after query", n.Value())
	}
	return query.CompileToQuery()
}

type Query struct {
	grammar.Seq
	RootIdentifier Token `tok:"op,$"`
	Segments       []Segment
}

func (q *Query) CompileToQuery() (ast.Query, error) {
	var compiledSegments = make([]ast.Segment, len(q.Segments))
	for i, s := range q.Segments {
		segment, err := s.CompileToSegment()
		if err != nil {
			return ast.Query{}, err
		}
		compiledSegments[i] = segment
	}
	return ast.Query{Segments: compiledSegments}, nil
}

type Segment struct {
	grammar.OneOf
	*ChildSegment
	*DescendantSegment
}

func (s *Segment) CompileToSegment() (ast.Segment, error) {
	switch {
	case s.ChildSegment != nil:
		return s.ChildSegment.CompileToSegment()
	case s.DescendantSegment != nil:
		return s.DescendantSegment.CompileToSegment()
	default:
		panic("invalid Segment")
	}
}

type ChildSegment struct {
	grammar.OneOf
	*BracketedSelection
	*DotSelection
}

func (s *ChildSegment) CompileToSegment() (ast.Segment, error) {
	var selectors []ast.Selector
	var err error
	switch {
	case s.BracketedSelection != nil:
		selectors, err = compileSelectors(s.BracketedSelection.FirstSelector, s.BracketedSelection.SelectorRest)
	case s.DotSelection != nil:
		selectors = s.DotSelection.CompileToSelectors()
	default:
		panic("invalid ChildSegment")
	}
	if err != nil {
		return ast.Segment{}, err
	}
	return ast.Segment{Type: ast.ChildSegmentType, Selectors: selectors}, nil
}

type DescendantSegment struct {
	grammar.OneOf
	*DescendantBracketedSelection
	DescendantWildcardSelector    *Token `tok:"op,..*"`
	DescendantMemberNameShorthand *Token `tok:"descendantmembernameshorthand"`
}

func (s *DescendantSegment) CompileToSegment() (ast.Segment, error) {
	var selectors []ast.Selector
	var err error
	switch {
	case s.DescendantBracketedSelection != nil:
		selectors, err = compileSelectors(s.DescendantBracketedSelection.FirstSelector, s.DescendantBracketedSelection.SelectorRest)
	case s.DescendantWildcardSelector != nil:
		selectors = []ast.Selector{ast.WildcardSelector{}}
	case s.DescendantMemberNameShorthand != nil:
		// The token is of the form '..name'
		selectors = []ast.Selector{ast.NameSelector{Name: s.DescendantMemberNameShorthand.TokValue[2:]}}
	default:
		panic("invalid DescendantSegment")
	}
	if err != nil {
		return ast.Segment{}, err
	}
	return ast.Segment{Type: ast.DescendantSegmentType, Selectors: selectors}, nil
}

type BracketedSelection struct {
	grammar.Seq
	OpenSquareBracket  Token `tok:"op,["`
	FirstSelector      Selector
	SelectorRest       []SelectorRest
	CloseSquareBracket Token `tok:"op,]"`
}

type DescendantBracketedSelection struct {
	grammar.Seq
	OpenSquareBracket  Token `tok:"op,..["`
	FirstSelector      Selector
	SelectorRest       []SelectorRest
	CloseSquareBracket Token `tok:"op,]"`
}

type SelectorRest struct {
	grammar.Seq
	Comma Token `tok:"op,,"`
	Selector
}

func compileSelectors(first Selector, rest []SelectorRest) ([]ast.Selector, error) {
	var selectors = make([]ast.Selector, len(rest)+1)
	firstSelector, err := first.CompileToSelector()
	if err != nil {
		return nil, fmt.Errorf("first selector invalid: %w", err)
	}
	selectors[0] = firstSelector
	for i, sel := range rest {
		selector, err := sel.CompileToSelector()
		if err != nil {
			return nil, fmt.Errorf("selector %d invalid: %w", i+2, err)
		}
		selectors[i+1] = selector
	}
	return selectors, nil
}

type DotSelection struct {
	grammar.OneOf
	WildcardSelector    *Token `tok:"op,.*"`
	MemberNameShorthand *Token `tok:"membernameshorthand"`
}

func (s *DotSelection) CompileToSelectors() []ast.Selector {
	var selector ast.Selector
	switch {
	case s.WildcardSelector != nil:
		selector = ast.WildcardSelector{}
	case s.MemberNameShorthand != nil:
		// s.MemberNameShorthand is of the form '.name'
		selector = ast.NameSelector{Name: s.MemberNameShorthand.TokValue[1:]}
	default:
		panic("invalid DotSelection")
	}
	return []ast.Selector{selector}
}

type Selector struct {
	grammar.OneOf
	NameSelector     *StringLiteral
	WildcardSelector *Token `tok:"op,*"`
	*SliceSelector
	IndexSelector *Token `tok:"int"`
}

func (s *Selector) CompileToSelector() (ast.Selector, error) {
	switch {
	case s.NameSelector != nil:
		name, err := s.NameSelector.CompileToString()
		if err != nil {
			return nil, err
		}
		return ast.NameSelector{Name: name}, nil
	case s.WildcardSelector != nil:
		return ast.WildcardSelector{}, nil
	case s.SliceSelector != nil:
		return s.SliceSelector.CompileToSelector()
	case s.IndexSelector != nil:
		index, err := parseInt(s.IndexSelector.TokValue)
		if err != nil {
			return nil, fmt.Errorf("invalid index: %w", err)
		}
		return ast.IndexSelector{Index: index}, nil
	default:
		panic("invalid Selector")
	}
}

type StringLiteral struct {
	grammar.OneOf
	DoubleQuotedString *Token `tok:"doublequotedstring"`
	SingleQuotedString *Token `tok:"singlequotedstring"`
}

func (s *StringLiteral) CompileToString() (string, error) {
	switch {
	case s.DoubleQuotedString != nil:
		return parseDoubleQuotedString(s.DoubleQuotedString.TokValue)
	case s.SingleQuotedString != nil:
		return parseSingleQuotedString(s.SingleQuotedString.TokValue)
	default:
		panic("invalid StringLiteral")
	}
}

type SliceSelector struct {
	grammar.Seq
	Start *Token `tok:"int"`
	Colon Token  `tok:"op,:"`
	End   *Token `tok:"int"`
	*SliceStep
}

func (s *SliceSelector) CompileToSelector() (ast.Selector, error) {
	var start, end *int64
	var step int64 = 1
	if s.Start != nil {
		startInt, err := parseInt(s.Start.TokValue)
		if err != nil {
			return nil, fmt.Errorf("invalid start index: %w", err)
		}
		start = &startInt
	}
	if s.End != nil {
		endInt, err := parseInt(s.End.TokValue)
		if err != nil {
			return nil, fmt.Errorf("invalid end index: %w", err)
		}
		end = &endInt
	}
	if s.SliceStep != nil {
		var err error
		step, err = parseInt(s.Step.TokValue)
		if err != nil {
			return nil, fmt.Errorf("invalid step: %w", err)
		}
	}
	return ast.SliceSelector{Start: start, End: end, Step: step}, nil
}

type SliceStep struct {
	grammar.Seq
	StepColon Token `tok:"op,:"`
	Step      Token `tok:"int"`
}
