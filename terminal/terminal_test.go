package terminal_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"sophiatech.io/serialterm/codec"
	"sophiatech.io/serialterm/terminal"
)

var at = time.Date(2026, 3, 14, 9, 26, 53, 589_000_000, time.UTC)

func plain(mode codec.Encoding) *terminal.Formatter {
	return terminal.NewFormatter(&bytes.Buffer{}, terminal.Style{Timestamps: true}, mode)
}

func TestRX(t *testing.T) {
	tests := []struct {
		name     string
		mode     codec.Encoding
		line     string
		expected string
	}{
		{name: "ASCII", mode: codec.ASCII, line: "hello\r\n", expected: "09:26:53.589 [RX] -> hello"},
		{name: "ASCII invalid UTF-8", mode: codec.ASCII, line: "a\xffb\n", expected: "09:26:53.589 [RX] -> a�b"},
		{name: "ASCII strips device colors", mode: codec.ASCII, line: "\x1b[32mOK\x1b[0m\n", expected: "09:26:53.589 [RX] -> OK"},
		{name: "HEX keeps CR", mode: codec.HEX, line: "OK\r\n", expected: "09:26:53.589 [RX] -> 4F 4B 0D"},
		{name: "Decimal", mode: codec.Decimal, line: "AB\n", expected: "09:26:53.589 [RX] -> 65 66"},
		{name: "Blank", mode: codec.HEX, line: " \r\n", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := plain(tt.mode).RX(at, []byte(tt.line))
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestTX(t *testing.T) {
	f := plain(codec.ASCII)
	assert.Equal(t, `09:26:53.589 [TX] -> AT\r\n`, f.TX(at, terminal.PrefixTX, []byte("AT\r\n")))
	assert.Equal(t, `09:26:53.589 [AUTO-TX] -> ack`, f.TX(at, terminal.PrefixAutoTX, []byte("ack")))

	f.SetMode(codec.HEX)
	assert.Equal(t, codec.HEX, f.Mode())
	assert.Equal(t, `09:26:53.589 [SCRIPT-TX] -> 0A FF`, f.TX(at, terminal.PrefixScriptTX, []byte{0x0a, 0xff}))
}

func TestMessage(t *testing.T) {
	f := terminal.NewFormatter(&bytes.Buffer{}, terminal.Style{}, codec.ASCII)
	assert.Equal(t, "[---] -> Connection open on /dev/ttyUSB0", f.Message(at, terminal.PrefixInfo, "Connection open on /dev/ttyUSB0"))
	assert.Equal(t, "[ERROR] -> read failed", f.Message(at, terminal.PrefixError, "read failed"))
}

func TestColorKeepsDeviceSequences(t *testing.T) {
	f := terminal.NewFormatter(&bytes.Buffer{}, terminal.DefaultStyle, codec.ASCII)
	got := f.RX(at, []byte("\x1b[32mOK\x1b[0m\n"))
	assert.Contains(t, got, "\x1b[32mOK\x1b[0m")
	assert.Contains(t, got, "[RX] ->")
}

func TestPrefixNames(t *testing.T) {
	names := map[terminal.Prefix]string{
		terminal.PrefixRX:       "RX",
		terminal.PrefixTX:       "TX",
		terminal.PrefixAutoTX:   "AUTO-TX",
		terminal.PrefixScriptTX: "SCRIPT-TX",
	}
	for p, name := range names {
		assert.Equal(t, name, p.String())
	}
}
