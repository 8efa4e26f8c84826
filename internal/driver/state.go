package driver

// State is the driver's position in its processing cycle.
type State int

const (
	StateAwaitingChunk State = iota
	StateExtractingPath
	StateDecodingDocument
	StateValidatingRecords
	StateCastingRecord
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateAwaitingChunk:     "awaiting chunk",
	StateExtractingPath:    "extracting path",
	StateDecodingDocument:  "decoding document",
	StateValidatingRecords: "validating records",
	StateCastingRecord:     "casting record",
	StateDone:              "done",
	StateFailed:            "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
