package probe

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"jsonrows/internal/bitmap"
	"jsonrows/internal/jsonpath"
	"jsonrows/internal/schema"
	"jsonrows/internal/timestamp"
	"jsonrows/internal/value"
)

// ErrNoRecords means no array of objects was found in the sample.
var ErrNoRecords = errors.New("probe: no record array found")

// maxStringSamples bounds the strings kept per column for format detection.
const maxStringSamples = 200

// maxRootDepth bounds the search for a record array in GuessRoot.
const maxRootDepth = 8

// timestampCandidates are tried in order; the first that parses every
// sampled string of a column wins.
var timestampCandidates = []string{
	time.RFC3339,
	timestamp.DefaultFormat,
	"%Y-%m-%d %H:%M:%S",
	"%Y-%m-%d",
}

type kindSet uint8

const (
	kBool kindSet = 1 << iota
	kInt
	kFloat
	kString
	kContainer
)

// Column is the inferred description of one record key.
type Column struct {
	Name   string
	Type   schema.Type
	Format string

	seen  *bitmap.Bitmap
	kinds kindSet
	strs  []string
	nulls int
}

// Present is the number of sampled records that carried the key.
func (c *Column) Present() int { return c.seen.Count() }

// Missing lists up to limit sampled record indexes that lacked the key.
func (c *Column) Missing(records, limit int) []int { return c.seen.Missing(records, limit) }

// Nulls is the number of explicit JSON nulls seen for the key.
func (c *Column) Nulls() int { return c.nulls }

func (c *Column) observe(v value.Value) {
	switch v.Kind() {
	case value.KindNull:
		c.nulls++
	case value.KindBool:
		c.kinds |= kBool
	case value.KindInt:
		c.kinds |= kInt
	case value.KindFloat:
		c.kinds |= kFloat
	case value.KindString:
		c.kinds |= kString
		if len(c.strs) < maxStringSamples {
			c.strs = append(c.strs, v.AsString())
		}
	default:
		c.kinds |= kContainer
	}
}

// resolve settles Type and Format from what was observed.
func (c *Column) resolve() {
	k := c.kinds
	switch {
	case k == 0:
		c.Type = schema.TypeString
	case k&kContainer != 0:
		c.Type = schema.TypeJSON
	case k == kBool:
		c.Type = schema.TypeBoolean
	case k == kInt:
		c.Type = schema.TypeLong
	case k&^(kInt|kFloat) == 0:
		c.Type = schema.TypeDouble
	case k == kString:
		if f := detectTimestampFormat(c.strs); f != "" {
			c.Type, c.Format = schema.TypeTimestamp, f
			return
		}
		c.Type = schema.TypeString
	default:
		c.Type = schema.TypeString
	}
}

func detectTimestampFormat(samples []string) string {
	if len(samples) == 0 {
		return ""
	}
	for _, f := range timestampCandidates {
		p, err := timestamp.NewParser(f, "UTC")
		if err != nil {
			continue
		}
		ok := true
		for _, s := range samples {
			if _, err := p.Parse(strings.TrimSpace(s)); err != nil {
				ok = false
				break
			}
		}
		if ok {
			return f
		}
	}
	return ""
}

// Sample is the result of inferring columns from sampled documents.
type Sample struct {
	Root string
	// Documents is the number of top-level documents in the sample.
	Documents int
	// Records counts sampled object elements; Skipped counts non-object
	// elements passed over.
	Records int
	Skipped int
	Columns []*Column
}

// Infer resolves root in every document (guessing it from the first when
// empty) and infers one column per distinct key, in first-seen order. At most
// limit records are sampled; limit <= 0 samples all.
func Infer(docs []value.Value, root string, limit int) (Sample, error) {
	if len(docs) == 0 {
		return Sample{}, ErrNoRecords
	}
	if root == "" {
		r, err := GuessRoot(docs[0])
		if err != nil {
			return Sample{}, err
		}
		root = r
	}
	q, err := jsonpath.Compile(root)
	if err != nil {
		return Sample{}, err
	}

	s := Sample{Root: root, Documents: len(docs)}
	byName := map[string]*Column{}
	for i, doc := range docs {
		arr, err := q.Resolve(doc)
		if err != nil {
			return Sample{}, fmt.Errorf("document %d: %w", i, err)
		}
		if arr.Kind() != value.KindArray {
			return Sample{}, fmt.Errorf("document %d: %s selects a %s, not an array", i, root, arr.Kind())
		}
		for _, rec := range arr.Elems() {
			if limit > 0 && s.Records >= limit {
				break
			}
			if rec.Kind() != value.KindMap {
				s.Skipped++
				continue
			}
			idx := s.Records
			s.Records++
			for _, m := range rec.Members() {
				c, ok := byName[m.Key]
				if !ok {
					c = &Column{Name: m.Key, seen: bitmap.New(limit)}
					byName[m.Key] = c
					s.Columns = append(s.Columns, c)
				}
				c.seen.Add(idx)
				c.observe(m.Value)
			}
		}
	}
	if s.Records == 0 {
		return Sample{}, fmt.Errorf("%w at %s", ErrNoRecords, root)
	}
	for _, c := range s.Columns {
		c.resolve()
	}
	return s, nil
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// childPath appends key to a path in dot or bracket notation. ok is false
// for keys that cannot be written without escapes.
func childPath(parent, key string) (string, bool) {
	if identRe.MatchString(key) {
		return parent + "." + key, true
	}
	if strings.ContainsAny(key, `'\`) {
		return "", false
	}
	return parent + "['" + key + "']", true
}

// GuessRoot finds the array with the most object elements, searching the
// document breadth first. A top-level array is "$". On ties the shallowest,
// then the first in document order, wins.
func GuessRoot(doc value.Value) (string, error) {
	type node struct {
		path  string
		v     value.Value
		depth int
	}
	best, bestN := "", 0
	queue := []node{{path: "$", v: doc}}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		switch n.v.Kind() {
		case value.KindArray:
			objs := 0
			for _, e := range n.v.Elems() {
				if e.Kind() == value.KindMap {
					objs++
				}
			}
			if objs > bestN {
				best, bestN = n.path, objs
			}
		case value.KindMap:
			if n.depth >= maxRootDepth {
				continue
			}
			for _, m := range n.v.Members() {
				p, ok := childPath(n.path, m.Key)
				if !ok {
					continue
				}
				queue = append(queue, node{path: p, v: m.Value, depth: n.depth + 1})
			}
		}
	}
	if best == "" {
		return "", ErrNoRecords
	}
	return best, nil
}
