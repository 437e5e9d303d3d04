package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"

	"sophiatech.io/serialterm/codec"
	"sophiatech.io/serialterm/device"
	"sophiatech.io/serialterm/link"
)

// Duration is a time.Duration written as "120ms" in the config file.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// SerialConfig is the [serial] section.
type SerialConfig struct {
	// Port is the path of the serial device (e.g. "/dev/ttyUSB0").
	Port     string   `toml:"port"`
	BaudRate int      `toml:"baud_rate" validate:"gt=0"`
	DataBits int      `toml:"data_bits" validate:"oneof=5 6 7 8"`
	Parity   string   `toml:"parity" validate:"parity"`
	StopBits string   `toml:"stop_bits" validate:"stopbits"`
	Timeout  Duration `toml:"timeout"`
}

// Settings converts the section to link settings.
func (s SerialConfig) Settings() link.Settings {
	return link.Settings{
		Port:     s.Port,
		BaudRate: s.BaudRate,
		DataBits: s.DataBits,
		Parity:   s.Parity,
		StopBits: s.StopBits,
		Timeout:  s.Timeout.Duration,
	}
}

// DeviceConfig is the [device] section: drain windows of the command
// channel and extra module paths.
type DeviceConfig struct {
	NavIdle     Duration          `toml:"nav_idle"`
	NavMax      Duration          `toml:"nav_max"`
	CommandIdle Duration          `toml:"command_idle"`
	CommandMax  Duration          `toml:"command_max"`
	Modules     map[string]string `toml:"modules"`
}

// Build returns the command channel configuration.
func (d DeviceConfig) Build() (device.Config, error) {
	return device.NewConfigBuilder().
		WithNavWindow(d.NavIdle.Duration, d.NavMax.Duration).
		WithCommandWindow(d.CommandIdle.Duration, d.CommandMax.Duration).
		WithModulePaths(d.Modules).
		Build()
}

// Config holds the application configuration
type Config struct {
	Serial SerialConfig `toml:"serial"`
	Device DeviceConfig `toml:"device"`

	// LogLevel is one of trace, debug, info, warn, error.
	LogLevel string `toml:"log_level" validate:"oneof=trace debug info warn error"`
	// LogFile, when set, receives a rotated copy of the log.
	LogFile string `toml:"log_file"`

	RulesFile     string `toml:"rules_file"`
	SequencesFile string `toml:"sequences_file"`
	// SchemaFile is tried before the default schema locations.
	SchemaFile string `toml:"schema_file"`

	// Display is the encoding RX and TX lines are shown in.
	Display         codec.Encoding `toml:"display"`
	NoColor         bool           `toml:"no_color"`
	NoTimestamps    bool           `toml:"no_timestamps"`
	DecimalTriggers bool           `toml:"decimal_triggers"`
}

// ErrInvalidConfig is wrapped by validation failures.
var ErrInvalidConfig = errors.New("invalid configuration")

// Validate checks the fields that have a closed set of values. The port
// name is checked when the link is opened.
func (c *Config) Validate() error {
	if err := link.Validator().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Serial.Timeout.Duration <= 0 {
		return fmt.Errorf("%w: serial timeout must be positive", ErrInvalidConfig)
	}
	if _, err := c.Device.Build(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// ConfigOption is a function that modifies a Config
type ConfigOption func(*Config) error

// LoadConfig creates a new config by applying the given options in order
// and validates the result.
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		s := link.DefaultSettings()
		c.Serial = SerialConfig{
			BaudRate: s.BaudRate,
			DataBits: s.DataBits,
			Parity:   s.Parity,
			StopBits: s.StopBits,
			Timeout:  Duration{s.Timeout},
		}
		c.Device = DeviceConfig{
			NavIdle:     Duration{device.DefaultNavWindow.Idle},
			NavMax:      Duration{device.DefaultNavWindow.Max},
			CommandIdle: Duration{device.DefaultCommandWindow.Idle},
			CommandMax:  Duration{device.DefaultCommandWindow.Max},
		}
		c.LogLevel = "warn"
		c.RulesFile = "receive_sequences.json"
		c.SequencesFile = "send_sequences.json"
		c.Display = codec.ASCII
		return nil
	}
}

// WithFile loads a TOML file over the current values. Keys absent from
// the file keep their value. An empty path is ignored.
func WithFile(fs afero.Fs, path string) ConfigOption {
	return func(c *Config) error {
		if path == "" {
			return nil
		}
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
		return nil
	}
}

// WithEnv loads configuration from environment variables
func WithEnv() ConfigOption {
	return func(c *Config) error {
		if serial := os.Getenv("SERIAL_PORT"); serial != "" {
			c.Serial.Port = serial
		}

		if baud := os.Getenv("BAUD_RATE"); baud != "" {
			if b, err := strconv.Atoi(baud); err == nil {
				c.Serial.BaudRate = b
			}
		}

		if level := os.Getenv("LOG_LEVEL"); level != "" {
			c.LogLevel = strings.ToLower(level)
		}

		if rules := os.Getenv("RULES_FILE"); rules != "" {
			c.RulesFile = rules
		}

		if seqs := os.Getenv("SEQUENCES_FILE"); seqs != "" {
			c.SequencesFile = seqs
		}

		if schema := os.Getenv("SCHEMA_FILE"); schema != "" {
			c.SchemaFile = schema
		}

		if os.Getenv("NO_COLOR") != "" {
			c.NoColor = true
		}

		return nil
	}
}

// WithFlags loads configuration from command-line flags
func WithFlags(fSet *flag.FlagSet) ConfigOption {
	return func(c *Config) error {
		var errs []error
		fSet.Visit(func(f *flag.Flag) {
			v := f.Value.String()
			switch f.Name {
			case "port":
				c.Serial.Port = v
			case "baud":
				if b, err := strconv.Atoi(v); err == nil {
					c.Serial.BaudRate = b
				}
			case "data-bits":
				if b, err := strconv.Atoi(v); err == nil {
					c.Serial.DataBits = b
				}
			case "parity":
				c.Serial.Parity = v
			case "stop-bits":
				c.Serial.StopBits = v
			case "log-level":
				c.LogLevel = strings.ToLower(v)
			case "log-file":
				c.LogFile = v
			case "rules":
				c.RulesFile = v
			case "sequences":
				c.SequencesFile = v
			case "schema":
				c.SchemaFile = v
			case "display":
				if err := c.Display.UnmarshalText([]byte(v)); err != nil {
					errs = append(errs, fmt.Errorf("flag -display: %w", err))
				}
			case "no-color":
				c.NoColor = v == "true"
			case "no-timestamps":
				c.NoTimestamps = v == "true"
			case "decimal-triggers":
				c.DecimalTriggers = v == "true"
			}
		})
		return errors.Join(errs...)
	}
}
