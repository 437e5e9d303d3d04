// Package calibrate reads and writes the schema-described parameters of
// a device through its command channel.
package calibrate

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"sophiatech.io/serialterm/device"
	"sophiatech.io/serialterm/schema"
)

// Reading is the outcome of a get. For a choice parameter Value is the
// choice key found at the end of the reply, and Choice is set when that
// key is known. For text parameters Value is the reply.
type Reading struct {
	Reply  string
	Value  string
	Choice *schema.Choice
}

// Result reports one parameter of a GetAll or SetAll. Value and Choice
// are only set by GetAll.
type Result struct {
	Key    string
	Label  string
	Reply  string
	Value  string
	Choice *schema.Choice
	Err    error
}

type Calibrator struct {
	ch Channel
}

func New(ch Channel) *Calibrator {
	return &Calibrator{ch: ch}
}

// Get reads one parameter.
func (c *Calibrator) Get(module string, p schema.ParamDef) (Reading, error) {
	if !p.Access.CanGet() {
		return Reading{}, fmt.Errorf("get %s.%s: %w", module, p.Key, ErrAccess)
	}

	reply, err := c.ch.DoGet(module, p.Key)
	if err != nil {
		return Reading{Reply: reply}, fmt.Errorf("get %s.%s: %w", module, p.Key, err)
	}

	r := Reading{Reply: reply, Value: reply}
	switch p.Kind {
	case schema.KindChoice:
		r.Value = lastField(reply)
		if choice, ok := p.Choice(r.Value); ok {
			r.Choice = &choice
		}
		log.Info().Str("module", module).Str("key", p.Key).Str("choice", r.Value).Msg("GET")
	case schema.KindText:
		log.Info().Str("module", module).Str("key", p.Key).Str("value", r.Value).Msg("GET")
	}
	return r, nil
}

func lastField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// Set writes one parameter. For a choice parameter value may be a key or
// a label; labels are mapped to their key. An empty value sends the bare
// "set <key>" on set-only parameters and fails with ErrValueRequired on
// the others.
func (c *Calibrator) Set(module string, p schema.ParamDef, value string) (string, error) {
	if !p.Access.CanSet() {
		return "", fmt.Errorf("set %s.%s: %w", module, p.Key, ErrAccess)
	}

	value = strings.TrimSpace(value)
	if p.Kind == schema.KindChoice {
		if _, ok := p.Choice(value); !ok {
			if choice, ok := p.ChoiceByLabel(value); ok {
				value = choice.Key
			}
		}
	}

	bare := value == ""
	if bare && !p.Access.SetOnly() {
		return "", fmt.Errorf("set %s.%s: %w", module, p.Key, ErrValueRequired)
	}

	reply, err := c.ch.DoSet(module, p.Key, value, bare)
	if err != nil {
		return reply, fmt.Errorf("set %s.%s: %w", module, p.Key, err)
	}
	log.Info().Str("module", module).Str("key", p.Key).Str("value", value).Str("reply", reply).Msg("SET")
	return reply, nil
}

// GetAll reads every readable parameter of m, in order. It fails with
// device.ErrOffline before reading anything when the channel is offline.
func (c *Calibrator) GetAll(m schema.Module) ([]Result, error) {
	if !c.ch.Online() {
		return nil, device.ErrOffline
	}

	var results []Result
	for _, p := range m.Params {
		if !p.Access.CanGet() {
			continue
		}
		r, err := c.Get(m.Name, p)
		results = append(results, Result{
			Key:    p.Key,
			Label:  p.Label,
			Reply:  r.Reply,
			Value:  r.Value,
			Choice: r.Choice,
			Err:    err,
		})
	}
	log.Info().Str("module", m.Name).Int("count", len(results)).Msg("get all")
	return results, nil
}

// SetAll writes every writable parameter of m with the value found in
// values, in order. Missing values follow the rules of Set.
func (c *Calibrator) SetAll(m schema.Module, values map[string]string) ([]Result, error) {
	if !c.ch.Online() {
		return nil, device.ErrOffline
	}

	var results []Result
	for _, p := range m.Params {
		if !p.Access.CanSet() {
			continue
		}
		reply, err := c.Set(m.Name, p, values[p.Key])
		results = append(results, Result{Key: p.Key, Label: p.Label, Reply: reply, Err: err})
	}
	log.Info().Str("module", m.Name).Int("count", len(results)).Msg("set all")
	return results, nil
}
