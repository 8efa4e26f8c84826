// Package caster converts record values into typed row cells.
//
// A Plan is compiled once per schema: every column gets a small conversion
// closure so the per-record loop does one map lookup and one call per cell.
package caster

import (
	"fmt"

	"jsonrows/internal/schema"
	"jsonrows/internal/timestamp"
	"jsonrows/internal/value"
)

// Options are the task-wide defaults a column falls back to.
type Options struct {
	DefaultTypecast        bool
	DefaultTimestampFormat string
	DefaultTimezone        string
}

// DefaultOptions returns typecast on, the default timestamp format and UTC.
func DefaultOptions() Options {
	return Options{
		DefaultTypecast:        true,
		DefaultTimestampFormat: timestamp.DefaultFormat,
		DefaultTimezone:        timestamp.DefaultTimezone,
	}
}

type columnPlan struct {
	col      schema.Column
	typecast bool
	coerce   coerceFunc
}

// Plan is the immutable, compiled conversion of one schema.
type Plan struct {
	schema schema.Schema
	cols   []columnPlan
}

// Compile builds the plan for s. Timestamp formats and zones are resolved
// here, so a bad format surfaces before any record is read.
func Compile(s schema.Schema, opts Options) (*Plan, error) {
	p := &Plan{schema: s, cols: make([]columnPlan, s.Len())}
	for i := range p.cols {
		c := s.Column(i)
		cp := columnPlan{col: c, typecast: opts.DefaultTypecast}
		if c.Typecast != nil {
			cp.typecast = *c.Typecast
		}
		switch c.Type {
		case schema.TypeBoolean:
			cp.coerce = toBoolean
		case schema.TypeLong:
			cp.coerce = toLong
		case schema.TypeDouble:
			cp.coerce = toDouble
		case schema.TypeString:
			cp.coerce = toString
		case schema.TypeJSON:
			cp.coerce = toJSON
		case schema.TypeTimestamp:
			format, zone := c.Format, c.Timezone
			if format == "" {
				format = opts.DefaultTimestampFormat
			}
			if zone == "" {
				zone = opts.DefaultTimezone
			}
			tp, err := timestamp.NewParser(format, zone)
			if err != nil {
				return nil, fmt.Errorf("caster: column %q: %w", c.Name, err)
			}
			cp.coerce = toTimestamp(tp)
		default:
			return nil, fmt.Errorf("caster: column %q: %w %q", c.Name, schema.ErrUnknownType, c.Type)
		}
		p.cols[i] = cp
	}
	return p, nil
}

// Schema returns the schema the plan was compiled for.
func (p *Plan) Schema() schema.Schema { return p.schema }

// Width is the number of cells Cast fills.
func (p *Plan) Width() int { return len(p.cols) }

// Cast fills dst (len Width) from record. A missing key or a JSON null gives
// a nil cell. The first failing column aborts the cast with a
// *TypeMismatchError; dst is then only partially filled.
func (p *Plan) Cast(record value.Value, dst []any) error {
	if len(dst) != len(p.cols) {
		return fmt.Errorf("caster: row has %d cells, schema has %d columns", len(dst), len(p.cols))
	}
	for i := range p.cols {
		v, ok := record.Get(p.cols[i].col.Name)
		cell, err := p.cols[i].cast(v, ok)
		if err != nil {
			return err
		}
		dst[i] = cell
	}
	return nil
}

// CastValue converts a single value for column i.
func (p *Plan) CastValue(i int, v value.Value) (any, error) {
	return p.cols[i].cast(v, true)
}

func (cp *columnPlan) cast(v value.Value, present bool) (any, error) {
	if !present || v.IsNull() {
		return nil, nil
	}
	cell, err := cp.coerce(v, cp.typecast)
	if err != nil {
		return nil, &TypeMismatchError{Column: cp.col.Name, Type: cp.col.Type, Kind: v.Kind(), Err: err}
	}
	return cell, nil
}
