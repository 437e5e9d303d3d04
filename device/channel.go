// Package device drives the command shell of an embedded device over the
// serial link: module navigation, get and set.
package device

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"sophiatech.io/serialterm/codec"
	"sophiatech.io/serialterm/link"
	"sophiatech.io/serialterm/shell"
	"sophiatech.io/serialterm/syncutil"
)

const (
	// OfflineGet is the reply of DoGet when no link is attached.
	OfflineGet = "[OFFLINE] GET ignored (no port connected)"
	// OfflineSet is the reply of DoSet when no link is attached.
	OfflineSet = "[OFFLINE] SET ignored (no port connected)"

	readSize  = 4096
	drainPoll = 5 * time.Millisecond
)

// Channel runs request/response exchanges with the device shell. Each
// exchange starts and ends in the root directory, so the remote working
// directory is never carried from one exchange to the next.
//
// The channel does not open ports: the terminal attaches the port it
// opened and detaches it on close.
type Channel struct {
	config Config
	exch   Exchanger
	port   Port
	mu     syncutil.Mutex
}

// NewChannel returns a detached channel. exch may be nil when nothing
// else reads the link.
func NewChannel(config Config, exch Exchanger) *Channel {
	config.setDefaults()
	return &Channel{config: config, exch: exch}
}

// Attach binds the channel to an open port.
func (c *Channel) Attach(port Port) {
	c.mu.Lock()
	c.port = port
	c.mu.Unlock()
}

// Detach unbinds the port; later exchanges report offline.
func (c *Channel) Detach() {
	c.mu.Lock()
	c.port = nil
	c.mu.Unlock()
}

// Online reports whether an open port is attached.
func (c *Channel) Online() bool {
	return c.current() != nil
}

func (c *Channel) current() Port {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.port == nil || !c.port.IsOpen() {
		return nil
	}
	return c.port
}

// ModulePath resolves a module name to its shell directory.
func (c *Channel) ModulePath(module string) (string, error) {
	name := strings.TrimSpace(module)
	path, ok := c.config.modulePaths[name]
	if !ok || path == "" {
		return "", &ConfigurationError{Module: module}
	}
	return path, nil
}

// DoGet reads key from module and returns the extracted value.
//
// An unknown module fails with a *ConfigurationError and an unattached
// link with ErrOffline (and the OfflineGet text); neither writes
// anything. Garbled or late replies are not errors: the best-effort
// extraction is returned.
func (c *Channel) DoGet(module, key string) (string, error) {
	path, err := c.ModulePath(module)
	if err != nil {
		return "", err
	}
	port := c.current()
	if port == nil {
		return OfflineGet, ErrOffline
	}
	return c.run(port, path, shell.Get(key))
}

// DoSet writes value to key in module and returns the extracted reply.
// When bare is true the command is "set <key>" and value is ignored;
// callers use it for parameters that take no value.
func (c *Channel) DoSet(module, key, value string, bare bool) (string, error) {
	path, err := c.ModulePath(module)
	if err != nil {
		return "", err
	}
	port := c.current()
	if port == nil {
		return OfflineSet, ErrOffline
	}
	if bare {
		value = ""
	}
	return c.run(port, path, shell.Set(key, value))
}

func (c *Channel) run(port Port, path, cmd string) (string, error) {
	var value string
	err := c.exchange(func() error {
		reply, err := c.sequence(port, path, cmd)
		value = shell.Extract(reply)
		return err
	})
	if err != nil {
		return value, err
	}
	log.Debug().Str("path", path).Str("cmd", cmd).Str("value", value).Msg("shell exchange")
	return value, nil
}

func (c *Channel) exchange(fn func() error) error {
	if c.exch == nil {
		return fn()
	}
	return c.exch.Exchange(fn)
}

// sequence performs cd /, cd <path>, cmd, cd / and returns the decoded
// reply to cmd.
func (c *Channel) sequence(port Port, path, cmd string) (string, error) {
	for _, dir := range []string{shell.Root, path} {
		if _, err := c.step(port, shell.Cd(dir), c.config.navWindow); err != nil {
			return "", err
		}
	}

	reply, err := c.step(port, cmd, c.config.commandWindow)
	if err != nil {
		return codec.DecodeUTF8(reply), err
	}

	if _, err := c.step(port, shell.Cd(shell.Root), c.config.navWindow); err != nil {
		return codec.DecodeUTF8(reply), err
	}
	return codec.DecodeUTF8(reply), nil
}

func (c *Channel) step(port Port, cmd string, w Window) ([]byte, error) {
	if err := writeLine(port, cmd); err != nil {
		return nil, err
	}
	data, capped, err := c.drain(port, w.Idle, w.Max)
	if capped {
		log.Debug().Str("cmd", cmd).Dur("max", w.Max).Msg("reply still streaming at drain cap")
	}
	return data, err
}

func writeLine(port Port, cmd string) error {
	if _, err := port.Write(shell.Wire(cmd)); err != nil {
		return fmt.Errorf("%w: write %q: %w", link.ErrIO, cmd, err)
	}
	if err := port.Flush(); err != nil {
		return fmt.Errorf("%w: flush %q: %w", link.ErrIO, cmd, err)
	}
	return nil
}

// Drain collects bytes from the attached port until idle passes without
// new data or limit elapses. capped reports that limit ended the drain.
func (c *Channel) Drain(idle, limit time.Duration) ([]byte, bool, error) {
	port := c.current()
	if port == nil {
		return nil, false, ErrOffline
	}
	return c.drain(port, idle, limit)
}

func (c *Channel) drain(port Port, idle, limit time.Duration) ([]byte, bool, error) {
	clock := c.config.clock
	start := clock.Now()
	last := start
	buf := make([]byte, readSize)
	var out []byte

	for {
		n, err := port.Read(buf)
		if err != nil {
			return out, false, fmt.Errorf("%w: read: %w", link.ErrIO, err)
		}

		now := clock.Now()
		if n > 0 {
			out = append(out, buf[:n]...)
			last = now
		} else if now.Sub(last) >= idle {
			return out, false, nil
		}
		if now.Sub(start) >= limit {
			return out, true, nil
		}
		if n == 0 {
			clock.Sleep(drainPoll)
		}
	}
}
