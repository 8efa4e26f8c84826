package caster

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"jsonrows/internal/timestamp"
	"jsonrows/internal/value"
)

// coerceFunc converts a non-null value into a cell. typecast reports whether
// conversions outside the natural match are allowed.
type coerceFunc func(v value.Value, typecast bool) (any, error)

func toBoolean(v value.Value, typecast bool) (any, error) {
	if v.Kind() == value.KindBool {
		return v.AsBool(), nil
	}
	if !typecast {
		return nil, errTypecastDisabled
	}
	switch v.Kind() {
	case value.KindInt:
		return v.AsInt() != 0, nil
	case value.KindFloat:
		return v.AsFloat() != 0, nil
	case value.KindString:
		s := strings.TrimSpace(v.AsString())
		switch {
		case strings.EqualFold(s, "true"):
			return true, nil
		case strings.EqualFold(s, "false"):
			return false, nil
		}
		return nil, fmt.Errorf("%q is not a boolean literal", v.AsString())
	}
	return nil, errNotCoercible
}

func toLong(v value.Value, typecast bool) (any, error) {
	if v.Kind() == value.KindInt {
		return v.AsInt(), nil
	}
	if !typecast {
		return nil, errTypecastDisabled
	}
	switch v.Kind() {
	case value.KindBool:
		if v.AsBool() {
			return int64(1), nil
		}
		return int64(0), nil
	case value.KindFloat:
		return floatToLong(v.AsFloat())
	case value.KindString:
		n, err := strconv.ParseInt(strings.TrimSpace(v.AsString()), 10, 64)
		if err != nil {
			return nil, err
		}
		return n, nil
	}
	return nil, errNotCoercible
}

// floatToLong truncates toward zero. -2^63 is exact in float64 while 2^63 is
// already out of range.
func floatToLong(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return nil, fmt.Errorf("%w: %s", errOutOfRange, value.FormatFloat(f))
	}
	return int64(f), nil
}

func toDouble(v value.Value, typecast bool) (any, error) {
	if v.Kind() == value.KindFloat {
		return v.AsFloat(), nil
	}
	if !typecast {
		return nil, errTypecastDisabled
	}
	switch v.Kind() {
	case value.KindBool:
		if v.AsBool() {
			return 1.0, nil
		}
		return 0.0, nil
	case value.KindInt:
		return float64(v.AsInt()), nil
	case value.KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.AsString()), 64)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: %q", errOutOfRange, v.AsString())
		}
		return f, nil
	}
	return nil, errNotCoercible
}

func toString(v value.Value, typecast bool) (any, error) {
	if v.Kind() == value.KindString {
		return v.AsString(), nil
	}
	if !typecast {
		return nil, errTypecastDisabled
	}
	switch v.Kind() {
	case value.KindBool:
		return strconv.FormatBool(v.AsBool()), nil
	case value.KindInt:
		return strconv.FormatInt(v.AsInt(), 10), nil
	case value.KindFloat:
		if lit, ok := v.Literal(); ok {
			return lit, nil
		}
		return value.FormatFloat(v.AsFloat()), nil
	case value.KindArray, value.KindMap:
		return v.String(), nil
	}
	return nil, errNotCoercible
}

func toJSON(v value.Value, typecast bool) (any, error) {
	if k := v.Kind(); k == value.KindArray || k == value.KindMap {
		return v, nil
	}
	if !typecast {
		return nil, errTypecastDisabled
	}
	return v, nil
}

// toTimestamp treats text as the natural form of a timestamp, so strings are
// parsed even when typecast is off. Numeric epochs need typecast.
func toTimestamp(p *timestamp.Parser) coerceFunc {
	return func(v value.Value, typecast bool) (any, error) {
		if v.Kind() == value.KindString {
			return p.Parse(strings.TrimSpace(v.AsString()))
		}
		if !typecast {
			return nil, errTypecastDisabled
		}
		switch v.Kind() {
		case value.KindInt:
			return timestamp.FromEpochSeconds(v.AsInt()), nil
		case value.KindFloat:
			return timestamp.FromEpochFloat(v.AsFloat())
		}
		return nil, errNotCoercible
	}
}
