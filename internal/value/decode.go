package value

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrMalformedJSON is matched by every error the decoder returns.
var ErrMalformedJSON = errors.New("malformed json")

// SyntaxError reports where decoding stopped.
type SyntaxError struct {
	Offset int64
	Err    error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("malformed json at offset %d: %v", e.Offset, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrMalformedJSON) hold for every SyntaxError.
func (e *SyntaxError) Is(target error) bool { return target == ErrMalformedJSON }

// Decode parses exactly one JSON document from data. Trailing content other
// than whitespace is an error.
func Decode(data []byte) (Value, error) {
	dec := newDecoder(data)
	v, err := decodeValue(dec)
	if err != nil {
		if err == io.EOF {
			err = errors.New("empty document")
		}
		return Value{}, &SyntaxError{Offset: dec.InputOffset(), Err: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = errors.New("trailing data after document")
		}
		return Value{}, &SyntaxError{Offset: dec.InputOffset(), Err: err}
	}
	return v, nil
}

// DecodeAll parses a stream of concatenated JSON documents (for example
// newline-delimited JSON) and returns them in input order. An input holding
// only whitespace yields no documents.
func DecodeAll(data []byte) ([]Value, error) {
	dec := newDecoder(data)
	var docs []Value
	for {
		v, err := decodeValue(dec)
		if err == io.EOF {
			return docs, nil
		}
		if err != nil {
			return nil, &SyntaxError{Offset: dec.InputOffset(), Err: err}
		}
		docs = append(docs, v)
	}
}

func newDecoder(data []byte) *json.Decoder {
	dec := json.NewDecoder(bytes.NewReader(data))
	// Keep number literals intact so integers are not routed through float64.
	dec.UseNumber()
	return dec
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		return parseNumber(t)
	case json.Delim:
		switch t {
		case '[':
			var elems []Value
			for dec.More() {
				v, err := decodeValue(dec)
				if err != nil {
					return Value{}, unexpectedEOF(err)
				}
				elems = append(elems, v)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, unexpectedEOF(err)
			}
			return Array(elems...), nil
		case '{':
			var members []Member
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return Value{}, unexpectedEOF(err)
				}
				key, ok := kt.(string)
				if !ok {
					return Value{}, fmt.Errorf("object key is %v, not a string", kt)
				}
				v, err := decodeValue(dec)
				if err != nil {
					return Value{}, unexpectedEOF(err)
				}
				members = append(members, Member{Key: key, Value: v})
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, unexpectedEOF(err)
			}
			return Map(members...), nil
		}
	}
	return Value{}, fmt.Errorf("unexpected token %v", tok)
}

// unexpectedEOF turns io.EOF inside a container into a real error so callers
// do not mistake a truncated document for the end of the stream.
func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// parseNumber maps a JSON number literal onto Int when it is written without
// a fraction or exponent and fits in int64, and onto Float otherwise. An
// integer literal outside the int64 range keeps its text alongside the float.
func parseNumber(n json.Number) (Value, error) {
	s := string(n)
	integral := !strings.ContainsAny(s, ".eE")
	if integral {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Int(i), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, fmt.Errorf("number %s out of range", s)
	}
	if integral {
		return bigInt(f, s), nil
	}
	return Float(f), nil
}
