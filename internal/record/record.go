// Package record walks the elements of a selected array and hands out the
// ones that are JSON objects.
package record

import (
	"errors"
	"fmt"
	"log"

	"jsonrows/internal/value"
)

// ErrInvalidRecord matches an element that is not a JSON object.
var ErrInvalidRecord = errors.New("invalid record")

// InvalidRecordError describes the offending element.
type InvalidRecordError struct {
	Index int
	Kind  value.Kind
	JSON  string
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("record %d: JSON %s is not an object: %s", e.Index, e.Kind, e.JSON)
}

func (e *InvalidRecordError) Is(target error) bool { return target == ErrInvalidRecord }

// Skipped is passed to the skip callback.
type Skipped struct {
	Index int
	Value value.Value
}

// LogSkipped is the default skip callback.
func LogSkipped(s Skipped) {
	log.Printf("Skipped invalid record %s", s.Value)
}

// Iterator yields the records of one array, once, in order.
type Iterator struct {
	elems  []value.Value
	pos    int
	stop   bool
	onSkip func(Skipped)
}

// Validate returns an iterator over arr. With stopOnInvalid a non-object
// element ends iteration with an *InvalidRecordError; otherwise it is
// reported to onSkip (LogSkipped when nil) and passed over. arr must be an
// array.
func Validate(arr value.Value, stopOnInvalid bool, onSkip func(Skipped)) *Iterator {
	if onSkip == nil {
		onSkip = LogSkipped
	}
	return &Iterator{elems: arr.Elems(), stop: stopOnInvalid, onSkip: onSkip}
}

// Next returns the next record. ok is false once the array is exhausted or
// after an error.
func (it *Iterator) Next() (rec value.Value, ok bool, err error) {
	for it.pos < len(it.elems) {
		i := it.pos
		v := it.elems[i]
		it.pos++
		if v.Kind() == value.KindMap {
			return v, true, nil
		}
		if it.stop {
			it.pos = len(it.elems)
			return value.Value{}, false, &InvalidRecordError{Index: i, Kind: v.Kind(), JSON: v.String()}
		}
		it.onSkip(Skipped{Index: i, Value: v})
	}
	return value.Value{}, false, nil
}

// Check returns an *InvalidRecordError for the first element of arr that is
// not an object, or nil.
func Check(arr value.Value) error {
	for i, v := range arr.Elems() {
		if v.Kind() != value.KindMap {
			return &InvalidRecordError{Index: i, Kind: v.Kind(), JSON: v.String()}
		}
	}
	return nil
}

// Len is the number of elements, valid or not.
func (it *Iterator) Len() int { return len(it.elems) }
