package storage

import (
	"jsonrows/internal/value"
)

// SQLValue converts one emitted cell into a driver argument. json cells
// (value.Value) become their canonical JSON text; every other cell type
// (nil, bool, int64, float64, string, time.Time) is already a valid
// database/sql argument and passes through.
func SQLValue(cell any) any {
	if v, ok := cell.(value.Value); ok {
		return v.String()
	}
	return cell
}

// SQLRows returns rows with SQLValue applied to every cell. The input rows
// are left untouched.
func SQLRows(rows [][]any) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		conv := make([]any, len(row))
		for j, c := range row {
			conv[j] = SQLValue(c)
		}
		out[i] = conv
	}
	return out
}
