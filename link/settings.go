package link

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.bug.st/serial"
)

// Settings describes how to open a serial port.
type Settings struct {
	Port     string `validate:"required"`
	BaudRate int    `validate:"gt=0"`
	DataBits int    `validate:"oneof=5 6 7 8"`
	// Parity is None, Even, Odd, Mark or Space, or their initials.
	Parity string `validate:"parity"`
	// StopBits is "1", "1.5" or "2".
	StopBits string `validate:"stopbits"`
	// Timeout is the port read timeout. It must be positive: a read
	// without one blocks until data arrives. The underlying driver has no
	// write timeout.
	Timeout time.Duration `validate:"gt=0"`
}

// DefaultSettings returns 115200 8N1 with a short read timeout so that
// drains and the continuous reader react quickly.
func DefaultSettings() Settings {
	return Settings{
		BaudRate: 115200,
		DataBits: 8,
		Parity:   "None",
		StopBits: "1",
		Timeout:  50 * time.Millisecond,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("parity", func(fl validator.FieldLevel) bool {
		_, err := ParseParity(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("stopbits", func(fl validator.FieldLevel) bool {
		_, err := ParseStopBits(fl.Field().String())
		return err == nil
	})
	return v
}

// Validator returns the validator used for Settings, with the "parity"
// and "stopbits" tags registered, so enclosing structs can be checked in
// one pass.
func Validator() *validator.Validate {
	return validate
}

// Validate checks every field and reports all failures at once.
func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s=%v fails %s", strings.ToLower(fe.Field()), fe.Value(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidSettings, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	return nil
}

// Mode converts validated settings to a driver mode.
func (s Settings) Mode() (*serial.Mode, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	parity, _ := ParseParity(s.Parity)
	stop, _ := ParseStopBits(s.StopBits)
	return &serial.Mode{
		BaudRate: s.BaudRate,
		DataBits: s.DataBits,
		Parity:   parity,
		StopBits: stop,
	}, nil
}

// String renders the settings the way terminals usually show them,
// e.g. "/dev/ttyUSB0 115200 8N1".
func (s Settings) String() string {
	p := "?"
	if parity, err := ParseParity(s.Parity); err == nil {
		p = parityInitial[parity]
	}
	return fmt.Sprintf("%s %d %d%s%s", s.Port, s.BaudRate, s.DataBits, p, s.StopBits)
}

var parityInitial = map[serial.Parity]string{
	serial.NoParity:    "N",
	serial.EvenParity:  "E",
	serial.OddParity:   "O",
	serial.MarkParity:  "M",
	serial.SpaceParity: "S",
}

// ParseParity accepts full names or initials, case-insensitively.
func ParseParity(s string) (serial.Parity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "n", "":
		return serial.NoParity, nil
	case "even", "e":
		return serial.EvenParity, nil
	case "odd", "o":
		return serial.OddParity, nil
	case "mark", "m":
		return serial.MarkParity, nil
	case "space", "s":
		return serial.SpaceParity, nil
	}
	return serial.NoParity, fmt.Errorf("unsupported parity %q", s)
}

// ParseStopBits accepts "1", "1.5" and "2".
func ParseStopBits(s string) (serial.StopBits, error) {
	switch strings.TrimSpace(s) {
	case "1", "":
		return serial.OneStopBit, nil
	case "1.5":
		return serial.OnePointFiveStopBits, nil
	case "2":
		return serial.TwoStopBits, nil
	}
	return serial.OneStopBit, fmt.Errorf("unsupported stop bits %q", s)
}
