// Package codec converts between the editable text forms of a byte
// sequence (escaped ASCII, spaced hex, spaced decimal) and raw bytes.
package codec

import (
	"fmt"
	"strings"
)

// Encoding selects how sequence text maps to bytes.
type Encoding int

const (
	// ASCII text with backslash escapes, one byte per code point.
	ASCII Encoding = iota
	// HEX is whitespace separated tokens of one or two hex digits.
	HEX
	// Decimal is whitespace separated tokens in [0,255].
	Decimal
)

// Encodings lists every supported encoding in display order.
var Encodings = []Encoding{ASCII, HEX, Decimal}

func (e Encoding) String() string {
	switch e {
	case ASCII:
		return "ASCII"
	case HEX:
		return "HEX"
	case Decimal:
		return "Decimal"
	default:
		return fmt.Sprintf("Encoding(%d)", int(e))
	}
}

// ParseEncoding accepts the persisted names case-insensitively. An empty
// string means ASCII, matching files written without a mode.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ascii":
		return ASCII, nil
	case "hex":
		return HEX, nil
	case "decimal", "dec":
		return Decimal, nil
	}
	return ASCII, fmt.Errorf("unknown encoding %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (e Encoding) MarshalText() ([]byte, error) {
	switch e {
	case ASCII, HEX, Decimal:
		return []byte(e.String()), nil
	}
	return nil, fmt.Errorf("unknown encoding %d", int(e))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Encoding) UnmarshalText(b []byte) error {
	v, err := ParseEncoding(string(b))
	if err != nil {
		return err
	}
	*e = v
	return nil
}
