package device

import (
	"maps"
	"time"

	"github.com/jonboulle/clockwork"
)

// Window bounds one drain: it ends after Idle without new data, or at
// Max regardless.
type Window struct {
	Idle time.Duration
	Max  time.Duration
}

var (
	// DefaultNavWindow bounds the drain after a cd command.
	DefaultNavWindow = Window{Idle: 120 * time.Millisecond, Max: 1500 * time.Millisecond}
	// DefaultCommandWindow bounds the drain after get and set.
	DefaultCommandWindow = Window{Idle: 250 * time.Millisecond, Max: 3000 * time.Millisecond}
)

// DefaultModulePaths maps module names to shell directories.
var DefaultModulePaths = map[string]string{
	"LoRaWAN":       "svc/net/lora",
	"LoRaWAN_at":    "svc/net/lora",
	"LoRaWAN_AT":    "svc/net/lora",
	"NVM":           "svc/nvm",
	"SYS":           "svc/sys",
	"GPS":           "svc/gps",
	"GPRS / GSM":    "svc/net/gprs",
	"GSM":           "svc/net/gprs",
	"MODBUS_Master": "svc/net/modbus/master",
	"MODBUS_Slave":  "svc/net/modbus/slave",
	"ZigBee":        "svc/net/zigbee",
}

type Config struct {
	navWindow     Window
	commandWindow Window
	modulePaths   map[string]string
	clock         clockwork.Clock
}

// NavWindow bounds the drain after a cd command.
func (c Config) NavWindow() Window { return c.navWindow }

// CommandWindow bounds the drain after get and set.
func (c Config) CommandWindow() Window { return c.commandWindow }

func (c *Config) setDefaults() {
	if c.navWindow == (Window{}) {
		c.navWindow = DefaultNavWindow
	}
	if c.commandWindow == (Window{}) {
		c.commandWindow = DefaultCommandWindow
	}
	if c.modulePaths == nil {
		c.modulePaths = maps.Clone(DefaultModulePaths)
	}
	if c.clock == nil {
		c.clock = clockwork.NewRealClock()
	}
}

func (c *Config) validate() error {
	for _, w := range []Window{c.navWindow, c.commandWindow} {
		if w.Idle <= 0 || w.Max < w.Idle {
			return ErrInvalidWindow
		}
	}
	return nil
}

// ConfigBuilder assembles a Config.
type ConfigBuilder struct {
	config Config
}

func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

// WithNavWindow sets the drain bounds after cd commands.
func (b *ConfigBuilder) WithNavWindow(idle, limit time.Duration) *ConfigBuilder {
	b.config.navWindow = Window{Idle: idle, Max: limit}
	return b
}

// WithCommandWindow sets the drain bounds after get and set.
func (b *ConfigBuilder) WithCommandWindow(idle, limit time.Duration) *ConfigBuilder {
	b.config.commandWindow = Window{Idle: idle, Max: limit}
	return b
}

// WithModulePaths merges extra module paths over the defaults.
func (b *ConfigBuilder) WithModulePaths(paths map[string]string) *ConfigBuilder {
	if b.config.modulePaths == nil {
		b.config.modulePaths = maps.Clone(DefaultModulePaths)
	}
	maps.Copy(b.config.modulePaths, paths)
	return b
}

// WithClock replaces the clock used to time drains.
func (b *ConfigBuilder) WithClock(clock clockwork.Clock) *ConfigBuilder {
	b.config.clock = clock
	return b
}

func (b *ConfigBuilder) Build() (Config, error) {
	cfg := b.config
	cfg.modulePaths = maps.Clone(cfg.modulePaths)
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
