package codec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Encode converts sequence text to the bytes that go on the wire.
// Malformed or out-of-range tokens fail with a *FormatError; nothing is
// silently dropped.
func Encode(text string, mode Encoding) ([]byte, error) {
	switch mode {
	case ASCII:
		return encodeASCII(text)
	case HEX:
		return encodeTokens(HexTokens(text), 16, HEX)
	case Decimal:
		return encodeTokens(strings.Fields(text), 10, Decimal)
	}
	return nil, &FormatError{Mode: mode, Reason: "unsupported encoding"}
}

// HexTokens splits hex text into byte tokens, tolerating 0x prefixes and
// comma separators.
func HexTokens(text string) []string {
	r := strings.NewReplacer("0x", "", "0X", "", ",", " ")
	return strings.Fields(r.Replace(text))
}

func encodeTokens(tokens []string, base int, mode Encoding) ([]byte, error) {
	out := make([]byte, 0, len(tokens))
	for _, tok := range tokens {
		v, err := strconv.ParseUint(tok, base, 8)
		if err != nil {
			reason := "malformed token"
			if errors.Is(err, strconv.ErrRange) {
				reason = "value out of byte range"
			}
			return nil, &FormatError{Mode: mode, Token: tok, Reason: reason}
		}
		out = append(out, byte(v))
	}
	return out, nil
}

func encodeASCII(text string) ([]byte, error) {
	runes, err := Unescape(text)
	if err != nil {
		return nil, err
	}
	return latin1(runes)
}

// Latin1 maps text to ISO-8859-1 bytes without escape decoding.
func Latin1(text string) ([]byte, error) {
	return latin1([]rune(text))
}

func latin1(runes []rune) ([]byte, error) {
	out := make([]byte, 0, len(runes))
	for _, r := range runes {
		b, ok := charmap.ISO8859_1.EncodeRune(r)
		if !ok {
			return nil, &FormatError{
				Mode:   ASCII,
				Token:  string(r),
				Reason: "code point above 0xFF has no single-byte form",
			}
		}
		out = append(out, b)
	}
	return out, nil
}

var simpleEscapes = map[rune]rune{
	'\\': '\\',
	'\'': '\'',
	'"':  '"',
	'a':  '\a',
	'b':  '\b',
	'f':  '\f',
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
	'v':  '\v',
}

// Unescape decodes backslash escapes into code points. Unknown escapes
// are kept literally, backslash included.
func Unescape(text string) ([]rune, error) {
	src := []rune(text)
	out := make([]rune, 0, len(src))

	for i := 0; i < len(src); i++ {
		c := src[i]
		if c != '\\' {
			out = append(out, c)
			continue
		}
		if i+1 >= len(src) {
			return nil, &FormatError{Mode: ASCII, Token: `\`, Reason: "backslash at end of text"}
		}
		i++
		e := src[i]

		if v, ok := simpleEscapes[e]; ok {
			out = append(out, v)
			continue
		}

		switch {
		case e == '\n':
			// escaped newline is a line continuation
		case e >= '0' && e <= '7':
			v := int(e - '0')
			for n := 1; n < 3 && i+1 < len(src) && src[i+1] >= '0' && src[i+1] <= '7'; n++ {
				i++
				v = v*8 + int(src[i]-'0')
			}
			out = append(out, rune(v))
		case e == 'x' || e == 'u' || e == 'U':
			width := escapeWidth(e)
			if i+width > len(src)-1 {
				return nil, &FormatError{Mode: ASCII, Token: string(src[i-1:]), Reason: "truncated escape"}
			}
			digits := string(src[i+1 : i+1+width])
			v, err := strconv.ParseUint(digits, 16, 32)
			if err != nil {
				return nil, &FormatError{Mode: ASCII, Token: `\` + string(e) + digits, Reason: "malformed escape"}
			}
			out = append(out, rune(v))
			i += width
		default:
			out = append(out, '\\', e)
		}
	}
	return out, nil
}

func escapeWidth(e rune) int {
	switch e {
	case 'u':
		return 4
	case 'U':
		return 8
	default:
		return 2
	}
}

// Format renders bytes in the canonical text of an encoding so that
// Encode(Format(b, m), m) returns b.
func Format(data []byte, mode Encoding) string {
	switch mode {
	case HEX:
		parts := make([]string, len(data))
		for i, b := range data {
			parts[i] = fmt.Sprintf("%02X", b)
		}
		return strings.Join(parts, " ")
	case Decimal:
		parts := make([]string, len(data))
		for i, b := range data {
			parts[i] = strconv.Itoa(int(b))
		}
		return strings.Join(parts, " ")
	default:
		return formatASCII(data)
	}
}

func formatASCII(data []byte) string {
	var b strings.Builder
	for _, c := range data {
		switch {
		case c == '\\':
			b.WriteString(`\\`)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\r':
			b.WriteString(`\r`)
		case c == '\t':
			b.WriteString(`\t`)
		case c >= 0x20 && c < 0x7f, c >= 0xa0:
			b.WriteRune(charmap.ISO8859_1.DecodeByte(c))
		default:
			fmt.Fprintf(&b, `\x%02x`, c)
		}
	}
	return b.String()
}
