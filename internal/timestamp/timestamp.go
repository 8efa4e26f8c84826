// Package timestamp parses timestamp cells.
//
// Formats are strftime patterns such as "%Y-%m-%d %H:%M:%S %z", converted to
// Go layouts with github.com/ncruces/go-strftime. A format that contains no
// '%' is taken to be a Go layout already. Fractional second directives
// (".%N", ".%L", ".%3N", ".%6N", ".%9N") right after the seconds are
// accepted: Go's parser reads an optional fraction after seconds on its own.
//
// Parsed instants are returned in UTC.
package timestamp

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/ncruces/go-strftime"
)

// DefaultFormat is used by columns and pipelines that set no format.
const DefaultFormat = "%Y-%m-%d %H:%M:%S.%N %z"

// DefaultTimezone is used when no zone is configured.
const DefaultTimezone = "UTC"

var (
	ErrInvalidFormat   = errors.New("invalid timestamp format")
	ErrUnknownTimezone = errors.New("unknown timezone")
	ErrOutOfRange      = errors.New("epoch value out of range")
)

var fractionDirectives = strings.NewReplacer(
	"%S.%N", "%S",
	"%S.%L", "%S",
	"%S.%3N", "%S",
	"%S.%6N", "%S",
	"%S.%9N", "%S",
)

// Parser converts strings in one format and zone into instants.
type Parser struct {
	format string
	layout string
	loc    *time.Location
}

// NewParser compiles format in timezone. Empty arguments select
// DefaultFormat and DefaultTimezone.
func NewParser(format, timezone string) (*Parser, error) {
	if format == "" {
		format = DefaultFormat
	}
	loc, err := LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	layout := format
	if strings.Contains(format, "%") {
		layout, err = strftime.Layout(fractionDirectives.Replace(format))
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidFormat, format, err)
		}
	}
	return &Parser{format: format, layout: layout, loc: loc}, nil
}

// LoadLocation resolves a zone name; "" is DefaultTimezone.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrUnknownTimezone, name, err)
	}
	return loc, nil
}

// Format returns the configured format string.
func (p *Parser) Format() string { return p.format }

// Location returns the zone used for input without an explicit offset.
func (p *Parser) Location() *time.Location { return p.loc }

// Parse reads s. An offset present in s wins over the parser's zone.
func (p *Parser) Parse(s string) (time.Time, error) {
	t, err := time.ParseInLocation(p.layout, s, p.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q does not match format %q: %w", s, p.format, err)
	}
	return t.UTC(), nil
}

// FromEpochSeconds converts whole seconds since the Unix epoch.
func FromEpochSeconds(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// FromEpochFloat converts fractional seconds since the Unix epoch; the
// fraction becomes nanoseconds.
func FromEpochFloat(f float64) (time.Time, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return time.Time{}, fmt.Errorf("%w: %v", ErrOutOfRange, f)
	}
	sec := math.Floor(f)
	nsec := math.Round((f - sec) * 1e9)
	if nsec >= 1e9 {
		sec++
		nsec -= 1e9
	}
	return time.Unix(int64(sec), int64(nsec)).UTC(), nil
}
