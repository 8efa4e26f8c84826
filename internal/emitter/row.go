package emitter

import "sync"

// Row is a pooled positional row aligned to a schema.
//
// The driver owns a Row from GetRow until Free. Sinks receive r.V and must
// copy it if they keep it past Append.
type Row struct {
	V []any
}

var rowPool sync.Pool

// GetRow returns a pooled Row of width cells, all nil.
func GetRow(width int) *Row {
	if v := rowPool.Get(); v != nil {
		r := v.(*Row)
		if cap(r.V) < width {
			r.V = make([]any, width)
		}
		r.V = r.V[:width]
		clear(r.V)
		return r
	}
	return &Row{V: make([]any, width)}
}

// Free returns the Row to the pool. r must not be used afterwards.
func (r *Row) Free() {
	clear(r.V)
	rowPool.Put(r)
}
