package jsonpath

import (
	"jsonrows/internal/jsonpath/ast"
	"jsonrows/internal/value"
)

func applySelectors(dst []value.Value, sels []ast.Selector, n value.Value) []value.Value {
	for _, sel := range sels {
		dst = applySelector(dst, sel, n)
	}
	return dst
}

func applySelector(dst []value.Value, sel ast.Selector, n value.Value) []value.Value {
	switch s := sel.(type) {
	case ast.NameSelector:
		if v, ok := n.Get(s.Name); ok {
			dst = append(dst, v)
		}
	case ast.WildcardSelector:
		switch n.Kind() {
		case value.KindArray:
			dst = append(dst, n.Elems()...)
		case value.KindMap:
			for _, m := range n.Members() {
				dst = append(dst, m.Value)
			}
		}
	case ast.IndexSelector:
		if n.Kind() != value.KindArray {
			break
		}
		i := s.Index
		if i < 0 {
			i += int64(n.Len())
		}
		if i >= 0 && i < int64(n.Len()) {
			dst = append(dst, n.Index(int(i)))
		}
	case ast.SliceSelector:
		if n.Kind() != value.KindArray || s.Step == 0 {
			break
		}
		lower, upper := sliceBounds(s, int64(n.Len()))
		// Steps are compared against the remaining distance so that a huge
		// step ends the loop instead of overflowing i.
		if s.Step > 0 {
			for i := lower; i < upper; i += s.Step {
				dst = append(dst, n.Index(int(i)))
				if s.Step >= upper-i {
					break
				}
			}
		} else {
			for i := upper; lower < i; i += s.Step {
				dst = append(dst, n.Index(int(i)))
				if s.Step <= lower-i {
					break
				}
			}
		}
	}
	return dst
}

// selectDescendants applies sels to n and to every node below it, visiting
// nodes in document order.
func selectDescendants(dst []value.Value, sels []ast.Selector, n value.Value) []value.Value {
	dst = applySelectors(dst, sels, n)
	switch n.Kind() {
	case value.KindArray:
		for _, e := range n.Elems() {
			dst = selectDescendants(dst, sels, e)
		}
	case value.KindMap:
		for _, m := range n.Members() {
			dst = selectDescendants(dst, sels, m.Value)
		}
	}
	return dst
}

// sliceBounds computes the iteration bounds of RFC 9535 section 2.3.4.2.
// For a positive step iteration runs over [lower, upper); for a negative
// step over (lower, upper].
func sliceBounds(s ast.SliceSelector, length int64) (lower, upper int64) {
	normalize := func(i int64) int64 {
		if i >= 0 {
			return i
		}
		return length + i
	}
	if s.Step > 0 {
		start, end := int64(0), length
		if s.Start != nil {
			start = normalize(*s.Start)
		}
		if s.End != nil {
			end = normalize(*s.End)
		}
		return clamp(start, 0, length), clamp(end, 0, length)
	}
	start, end := length-1, -length-1
	if s.Start != nil {
		start = *s.Start
	}
	if s.End != nil {
		end = *s.End
	}
	return clamp(normalize(end), -1, length-1), clamp(normalize(start), -1, length-1)
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
