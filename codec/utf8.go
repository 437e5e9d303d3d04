package codec

import (
	"strings"
	"unicode/utf8"
)

// DecodeUTF8 decodes received bytes as UTF-8, replacing each byte that is
// not part of a valid sequence with U+FFFD.
func DecodeUTF8(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		sb.WriteRune(r)
		b = b[size:]
	}
	return sb.String()
}
