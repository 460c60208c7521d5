// Package timecodec converts parameter bags between their native form, holding
// time.Time and time.Duration values, and the JSON-safe form that is persisted,
// where those values are ISO-8601 strings.
package timecodec

import (
	"errors"
	"fmt"
	"time"
)

// Bag maps parameter names to values. The same type carries both the encoded
// (JSON primitives only) and the decoded (native time values) representation.
type Bag map[string]any

// Kind declares how a parameter must be decoded.
type Kind string

const (
	KindDuration  Kind = "duration"
	KindTimestamp Kind = "timestamp"
	KindInteger   Kind = "integer"
	KindNumber    Kind = "number"
	KindString    Kind = "string"
)

// TimestampLayout always carries a numeric offset, so UTC renders as +00:00.
const TimestampLayout = "2006-01-02T15:04:05.999999999-07:00"

var (
	ErrNaiveTimestamp      = errors.New("timestamp has no timezone offset")
	ErrMalformedTimeString = errors.New("malformed time string")
	ErrHostLocation        = errors.New("timezone depends on the host")
)

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
}

// FormatTimestamp renders t in RFC 3339 with an explicit offset.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// LoadLocation loads an IANA timezone by name. "Local" is refused: it
// resolves to whatever zone the host runs in.
func LoadLocation(name string) (*time.Location, error) {
	if name == "Local" {
		return nil, ErrHostLocation
	}
	return time.LoadLocation(name)
}

// ParseTimestamp parses an RFC 3339 timestamp. Timestamps without an offset
// are refused with ErrNaiveTimestamp rather than being assumed to be UTC.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t, nil
	}
	for _, layout := range naiveLayouts {
		if _, nerr := time.Parse(layout, s); nerr == nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrNaiveTimestamp, s)
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q is not an RFC 3339 timestamp", ErrMalformedTimeString, s)
}

// Encode returns a copy of bag with every time.Time and time.Duration replaced
// by its ISO-8601 string. Other values are copied unchanged.
func Encode(bag Bag) Bag {
	out := make(Bag, len(bag))
	for k, v := range bag {
		switch tv := v.(type) {
		case time.Time:
			out[k] = FormatTimestamp(tv)
		case *time.Time:
			if tv == nil {
				out[k] = nil
				continue
			}
			out[k] = FormatTimestamp(*tv)
		case time.Duration:
			out[k] = FormatDuration(tv)
		default:
			out[k] = v
		}
	}
	return out
}

// Decode returns a copy of bag in which every string that parses as an
// offset-bearing timestamp, or else as an ISO-8601 duration, is replaced by
// the native value. Anything else passes through unchanged.
//
// An ordinary string matching either grammar is decoded as well. Callers that
// know their parameter kinds should use DecodeTyped.
func Decode(bag Bag) Bag {
	out := make(Bag, len(bag))
	for k, v := range bag {
		out[k] = decodeValue(v)
	}
	return out
}

func decodeValue(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if d, err := ParseDuration(s); err == nil {
		return d
	}
	return v
}

// DecodeTyped decodes the keys listed in kinds strictly: a declared duration or
// timestamp that does not parse yields an error naming the key. Keys not listed
// are decoded with Decode semantics; other declared kinds pass through.
func DecodeTyped(bag Bag, kinds map[string]Kind) (Bag, error) {
	out := make(Bag, len(bag))
	for k, v := range bag {
		kind, declared := kinds[k]
		if !declared {
			out[k] = decodeValue(v)
			continue
		}

		switch kind {
		case KindDuration:
			d, err := decodeDuration(v)
			if err != nil {
				return nil, &KeyError{Key: k, Err: err}
			}
			out[k] = d
		case KindTimestamp:
			t, err := decodeTimestamp(v)
			if err != nil {
				return nil, &KeyError{Key: k, Err: err}
			}
			out[k] = t
		default:
			out[k] = v
		}
	}
	return out, nil
}

func decodeDuration(v any) (time.Duration, error) {
	switch tv := v.(type) {
	case time.Duration:
		return tv, nil
	case string:
		d, err := ParseDuration(tv)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrMalformedTimeString, err)
		}
		return d, nil
	default:
		return 0, fmt.Errorf("%w: expected an ISO-8601 duration string, got %T", ErrMalformedTimeString, v)
	}
}

func decodeTimestamp(v any) (time.Time, error) {
	switch tv := v.(type) {
	case time.Time:
		return tv, nil
	case string:
		return ParseTimestamp(tv)
	default:
		return time.Time{}, fmt.Errorf("%w: expected an RFC 3339 timestamp string, got %T", ErrMalformedTimeString, v)
	}
}

// KeyError reports which parameter failed to decode.
type KeyError struct {
	Key string
	Err error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("parameter %q: %v", e.Key, e.Err)
}

func (e *KeyError) Unwrap() error {
	return e.Err
}
