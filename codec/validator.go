package codec

import "unicode/utf8"

// Field is an editable text widget as seen by the live validator.
// Caret positions are counted in runes.
type Field interface {
	Text() string
	Caret() int
	// SetText replaces the text and moves the caret. Implementations may
	// report the change synchronously, re-entering Validator.Changed.
	SetText(text string, caret int)
}

// Validator normalizes a Field on every edit with NormalizeLive. When
// the normalized text differs it is written back with the caret clamped
// to the new length. The change notification caused by that write is
// swallowed so the field never re-normalizes itself in a loop.
type Validator struct {
	field   Field
	mode    Encoding
	last    Result
	pending int
}

// NewValidator binds a validator to a field and validates its text.
func NewValidator(field Field, mode Encoding) *Validator {
	v := &Validator{field: field, mode: mode}
	v.Changed()
	return v
}

// Mode returns the active encoding.
func (v *Validator) Mode() Encoding {
	return v.mode
}

// SetMode switches the encoding and re-validates the current text.
func (v *Validator) SetMode(mode Encoding) Result {
	v.mode = mode
	return v.Changed()
}

// Result returns the outcome of the last validation.
func (v *Validator) Result() Result {
	return v.last
}

// Changed is the change-notification entry point.
func (v *Validator) Changed() Result {
	if v.pending > 0 {
		v.pending--
		return v.last
	}

	text := v.field.Text()
	res := NormalizeLive(text, v.mode)
	v.last = res
	if res.Text == text {
		return res
	}

	caret := min(max(v.field.Caret(), 0), utf8.RuneCountInString(res.Text))
	release := v.suppress()
	v.field.SetText(res.Text, caret)
	release()
	return res
}

// suppress arms a token that swallows one re-entrant notification. The
// returned release disarms it whether or not the field notified.
func (v *Validator) suppress() func() {
	v.pending = 1
	return func() {
		v.pending = 0
	}
}
