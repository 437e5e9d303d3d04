package codec

import (
	"strconv"
	"strings"
)

const (
	// MsgHexLength is reported when a hex token is longer than a byte.
	MsgHexLength = "HEX values must be 1 or 2 characters long."
	// MsgDecimalRange is reported when a decimal token is outside [0,255].
	MsgDecimalRange = "Decimal values must be between 0 and 255."
)

// Result is the outcome of live validation.
type Result struct {
	// Text is the normalized form that should replace the edited text.
	Text string
	// Valid is false when the text cannot be encoded as typed.
	Valid bool
	// Message explains an invalid result.
	Message string
}

// Normalize cleans and validates sequence text.
//
// HEX keeps only hex digits and spaces, upper-cases, splits every token
// into pairs and pads single digits, so the text is the one Format
// produces for the same bytes: "4 1" becomes "04 01". Validity is judged
// on the cleaned tokens before splitting, so "ABC" is reported invalid
// while its text becomes "AB 0C". Decimal keeps digits and spaces. ASCII
// is returned untouched. The returned text is a fixed point: normalizing
// it again yields the same text.
func Normalize(text string, mode Encoding) Result {
	switch mode {
	case HEX:
		return normalizeHex(text, false)
	case Decimal:
		return normalizeDecimal(text)
	default:
		return Result{Text: text, Valid: true}
	}
}

// NormalizeLive is Normalize for text that is still being typed. A
// trailing HEX nibble is left unpadded so the next digit completes the
// byte: "414" becomes "41 4", not "41 04".
func NormalizeLive(text string, mode Encoding) Result {
	if mode == HEX {
		return normalizeHex(text, true)
	}
	return Normalize(text, mode)
}

func normalizeHex(text string, keepTail bool) Result {
	clean := strings.Fields(strings.ToUpper(keep(text, isHexOrSpace)))

	valid := true
	for _, tok := range clean {
		if len(tok) > 2 {
			valid = false
			break
		}
	}

	pairs := make([]string, 0, len(clean))
	for _, tok := range clean {
		for i := 0; i < len(tok); i += 2 {
			pairs = append(pairs, tok[i:min(i+2, len(tok))])
		}
	}
	for i, p := range pairs {
		if len(p) == 1 && !(keepTail && i == len(pairs)-1) {
			pairs[i] = "0" + p
		}
	}

	res := Result{Text: strings.Join(pairs, " "), Valid: valid}
	if !valid {
		res.Message = MsgHexLength
	}
	return res
}

func normalizeDecimal(text string) Result {
	clean := strings.Fields(keep(text, isDigitOrSpace))

	valid := true
	for _, tok := range clean {
		n, err := strconv.Atoi(tok)
		if err != nil || n < 0 || n > 255 {
			valid = false
			break
		}
	}

	res := Result{Text: strings.Join(clean, " "), Valid: valid}
	if !valid {
		res.Message = MsgDecimalRange
	}
	return res
}

func keep(s string, ok func(rune) bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if ok(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isHexOrSpace(r rune) bool {
	return r == ' ' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isDigitOrSpace(r rune) bool {
	return r == ' ' || (r >= '0' && r <= '9')
}
