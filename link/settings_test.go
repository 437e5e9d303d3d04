package link_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"

	"sophiatech.io/serialterm/link"
)

func TestSettingsMode(t *testing.T) {
	t.Parallel()

	s := link.DefaultSettings()
	s.Port = "/dev/ttyUSB0"
	s.Parity = "e"
	s.StopBits = "1.5"
	s.DataBits = 7

	mode, err := s.Mode()
	require.NoError(t, err)
	assert.Equal(t, &serial.Mode{
		BaudRate: 115200,
		DataBits: 7,
		Parity:   serial.EvenParity,
		StopBits: serial.OnePointFiveStopBits,
	}, mode)
	assert.Equal(t, "/dev/ttyUSB0 115200 7E1.5", s.String())
}

func TestSettingsValidate(t *testing.T) {
	t.Parallel()

	valid := link.Settings{Port: "COM3", BaudRate: 9600, DataBits: 8, Parity: "None", StopBits: "2", Timeout: time.Second}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*link.Settings)
		field  string
	}{
		{name: "no port", mutate: func(s *link.Settings) { s.Port = "" }, field: "port"},
		{name: "zero baud", mutate: func(s *link.Settings) { s.BaudRate = 0 }, field: "baudrate"},
		{name: "nine data bits", mutate: func(s *link.Settings) { s.DataBits = 9 }, field: "databits"},
		{name: "bad parity", mutate: func(s *link.Settings) { s.Parity = "X" }, field: "parity"},
		{name: "bad stop bits", mutate: func(s *link.Settings) { s.StopBits = "3" }, field: "stopbits"},
		{name: "negative timeout", mutate: func(s *link.Settings) { s.Timeout = -time.Second }, field: "timeout"},
		{name: "zero timeout blocks reads", mutate: func(s *link.Settings) { s.Timeout = 0 }, field: "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := valid
			tt.mutate(&s)
			err := s.Validate()
			require.ErrorIs(t, err, link.ErrInvalidSettings)
			assert.Contains(t, err.Error(), tt.field)

			_, err = s.Mode()
			require.ErrorIs(t, err, link.ErrInvalidSettings)
		})
	}
}

func TestParseParity(t *testing.T) {
	t.Parallel()

	tests := map[string]serial.Parity{
		"None": serial.NoParity, "n": serial.NoParity,
		"EVEN": serial.EvenParity, "O": serial.OddParity,
		"mark": serial.MarkParity, "S": serial.SpaceParity,
	}
	for in, expected := range tests {
		got, err := link.ParseParity(in)
		require.NoError(t, err, in)
		assert.Equal(t, expected, got, in)
	}

	_, err := link.ParseParity("odd-ish")
	assert.Error(t, err)
}
