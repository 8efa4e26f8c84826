package driver

import (
	"errors"
	"fmt"
)

// ErrRootNotArray is returned when the path selects something other than an
// array.
var ErrRootNotArray = errors.New("selected node is not an array")

// Class groups run failures by what went wrong.
type Class string

const (
	ClassConfiguration Class = "configuration"
	ClassStructural    Class = "structural"
	ClassRecord        Class = "record"
	ClassCell          Class = "cell"
	ClassIO            Class = "io"
)

// RunError is the error Run returns when a run stops early.
type RunError struct {
	Class Class
	// Chunk names the input chunk being processed; empty for failures
	// outside a chunk.
	Chunk string
	State State
	Err   error
}

func (e *RunError) Error() string {
	if e.Chunk == "" {
		return fmt.Sprintf("driver: %s error while %s: %v", e.Class, e.State, e.Err)
	}
	return fmt.Sprintf("driver: %s error in %s while %s: %v", e.Class, e.Chunk, e.State, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// ClassOf returns the class of a *RunError in err's chain, or "" if there
// is none.
func ClassOf(err error) Class {
	var re *RunError
	if errors.As(err, &re) {
		return re.Class
	}
	return ""
}
