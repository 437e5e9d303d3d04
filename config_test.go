package main

import (
	"flag"
	"io"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sophiatech.io/serialterm/codec"
	"sophiatech.io/serialterm/device"
)

func TestDefaults(t *testing.T) {
	c, err := LoadConfig(WithDefaults())
	require.NoError(t, err)

	assert.Equal(t, 115200, c.Serial.BaudRate)
	assert.Equal(t, 8, c.Serial.DataBits)
	assert.Equal(t, "None", c.Serial.Parity)
	assert.Equal(t, "1", c.Serial.StopBits)
	assert.Equal(t, 50*time.Millisecond, c.Serial.Timeout.Duration)
	assert.Equal(t, "warn", c.LogLevel)
	assert.Equal(t, "receive_sequences.json", c.RulesFile)
	assert.Equal(t, "send_sequences.json", c.SequencesFile)
	assert.Equal(t, codec.ASCII, c.Display)

	dev, err := c.Device.Build()
	require.NoError(t, err)
	assert.Equal(t, device.DefaultCommandWindow, dev.CommandWindow())
}

func TestWithFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "serialterm.toml", []byte(`
log_level = "debug"
display = "hex"

[serial]
port = "/dev/ttyUSB1"
parity = "Even"
timeout = "20ms"

[device]
command_idle = "400ms"

[device.modules]
RADIO = "/radio"
`), 0o644))

	c, err := LoadConfig(WithDefaults(), WithFile(fs, "serialterm.toml"))
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB1", c.Serial.Port)
	assert.Equal(t, "Even", c.Serial.Parity)
	assert.Equal(t, 20*time.Millisecond, c.Serial.Timeout.Duration)
	assert.Equal(t, 115200, c.Serial.BaudRate, "absent keys keep their default")
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, codec.HEX, c.Display)
	assert.Equal(t, 400*time.Millisecond, c.Device.CommandIdle.Duration)
	assert.Equal(t, device.DefaultCommandWindow.Max, c.Device.CommandMax.Duration)

	dev, err := c.Device.Build()
	require.NoError(t, err)
	path, err := device.NewChannel(dev, nil).ModulePath("RADIO")
	require.NoError(t, err)
	assert.Equal(t, "/radio", path)
	assert.Equal(t, device.DefaultNavWindow, dev.NavWindow())
}

func TestWithFileErrors(t *testing.T) {
	fs := afero.NewMemMapFs()

	t.Run("empty path is ignored", func(t *testing.T) {
		_, err := LoadConfig(WithDefaults(), WithFile(fs, ""))
		assert.NoError(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(WithDefaults(), WithFile(fs, "nope.toml"))
		assert.ErrorContains(t, err, "read config")
	})

	t.Run("malformed file", func(t *testing.T) {
		require.NoError(t, afero.WriteFile(fs, "bad.toml", []byte("[serial\n"), 0o644))
		_, err := LoadConfig(WithDefaults(), WithFile(fs, "bad.toml"))
		assert.ErrorContains(t, err, "parse config bad.toml")
	})

	t.Run("bad duration", func(t *testing.T) {
		require.NoError(t, afero.WriteFile(fs, "dur.toml", []byte("[serial]\ntimeout = \"soon\"\n"), 0o644))
		_, err := LoadConfig(WithDefaults(), WithFile(fs, "dur.toml"))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"parity", func(c *Config) { c.Serial.Parity = "Sometimes" }},
		{"stop bits", func(c *Config) { c.Serial.StopBits = "3" }},
		{"data bits", func(c *Config) { c.Serial.DataBits = 9 }},
		{"baud rate", func(c *Config) { c.Serial.BaudRate = 0 }},
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"timeout", func(c *Config) { c.Serial.Timeout.Duration = -time.Second }},
		{"zero timeout", func(c *Config) { c.Serial.Timeout.Duration = 0 }},
		{"window", func(c *Config) { c.Device.NavMax.Duration = time.Millisecond }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(WithDefaults(), func(c *Config) error {
				tt.mutate(c)
				return nil
			})
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestWithEnv(t *testing.T) {
	t.Setenv("SERIAL_PORT", "COM4")
	t.Setenv("BAUD_RATE", "9600")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("RULES_FILE", "rules.json")
	t.Setenv("SEQUENCES_FILE", "seqs.json")
	t.Setenv("SCHEMA_FILE", "board.json")
	t.Setenv("NO_COLOR", "1")

	c, err := LoadConfig(WithDefaults(), WithEnv())
	require.NoError(t, err)

	assert.Equal(t, "COM4", c.Serial.Port)
	assert.Equal(t, 9600, c.Serial.BaudRate)
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, "rules.json", c.RulesFile)
	assert.Equal(t, "seqs.json", c.SequencesFile)
	assert.Equal(t, "board.json", c.SchemaFile)
	assert.True(t, c.NoColor)
}

func TestWithFlags(t *testing.T) {
	t.Run("only set flags apply", func(t *testing.T) {
		t.Setenv("SERIAL_PORT", "COM4")
		fSet := newFlagSet(io.Discard)
		require.NoError(t, fSet.Parse([]string{"-baud", "57600", "-display", "dec", "-no-timestamps", "get"}))

		c, err := LoadConfig(WithDefaults(), WithEnv(), WithFlags(fSet))
		require.NoError(t, err)

		assert.Equal(t, "COM4", c.Serial.Port, "unset -port keeps the environment value")
		assert.Equal(t, 57600, c.Serial.BaudRate)
		assert.Equal(t, codec.Decimal, c.Display)
		assert.True(t, c.NoTimestamps)
		assert.False(t, c.NoColor)
		assert.Equal(t, []string{"get"}, fSet.Args())
	})

	t.Run("flags win over the file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "c.toml", []byte("[serial]\nport = \"COM1\"\n"), 0o644))
		fSet := newFlagSet(io.Discard)
		require.NoError(t, fSet.Parse([]string{"-port", "COM2", "-parity", "odd"}))

		c, err := LoadConfig(WithDefaults(), WithFile(fs, "c.toml"), WithFlags(fSet))
		require.NoError(t, err)
		assert.Equal(t, "COM2", c.Serial.Port)
		assert.Equal(t, "odd", c.Serial.Parity)
	})

	t.Run("bad display", func(t *testing.T) {
		fSet := newFlagSet(io.Discard)
		require.NoError(t, fSet.Parse([]string{"-display", "octal"}))

		_, err := LoadConfig(WithDefaults(), WithFlags(fSet))
		assert.ErrorContains(t, err, "flag -display")
	})

	t.Run("help", func(t *testing.T) {
		fSet := newFlagSet(io.Discard)
		assert.ErrorIs(t, fSet.Parse([]string{"-h"}), flag.ErrHelp)
	})
}
