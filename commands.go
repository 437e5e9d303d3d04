package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"sophiatech.io/serialterm/calibrate"
	"sophiatech.io/serialterm/link"
	"sophiatech.io/serialterm/schema"
	"sophiatech.io/serialterm/session"
	"sophiatech.io/serialterm/store"
	"sophiatech.io/serialterm/terminal"
	"sophiatech.io/serialterm/trigger"
)

var errUsage = errors.New("wrong arguments")

type app struct {
	config *Config
	fs     afero.Fs
	stdin  io.Reader
	stdout io.Writer
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.stdout, format, args...)
}

func (a *app) formatter() *terminal.Formatter {
	style := terminal.Style{Color: !a.config.NoColor, Timestamps: !a.config.NoTimestamps}
	return terminal.NewFormatter(a.stdout, style, a.config.Display)
}

// loadRules binds the rule set to its file. A missing or broken file
// leaves an empty, unbound set.
func (a *app) loadRules() *trigger.Set {
	rules := store.NewList[trigger.Rule](a.fs)
	rules.Load(a.config.RulesFile)
	return rules
}

func (a *app) loadSequences() *store.List[store.Sequence] {
	seqs := store.NewList[store.Sequence](a.fs)
	seqs.Load(a.config.SequencesFile)
	return seqs
}

func (a *app) loadSchema() (*schema.Schema, error) {
	return schema.Load(a.fs, schema.Candidates(a.config.SchemaFile, schema.SearchDirs()...)...)
}

// openSession dials the configured port.
func (a *app) openSession(ctx context.Context, rules trigger.RuleSource) (*session.Session, error) {
	dialer, err := link.NewSerialDialer(a.config.Serial.Settings())
	if err != nil {
		return nil, err
	}
	devConfig, err := a.config.Device.Build()
	if err != nil {
		return nil, err
	}

	opts := []session.Option{session.WithDeviceConfig(devConfig)}
	if a.config.DecimalTriggers {
		opts = append(opts, session.WithEngineOptions(trigger.WithDecimalSubstring()))
	}
	s, err := session.New(dialer, rules, opts...)
	if err != nil {
		return nil, err
	}
	if err := s.Open(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// openCalibrator opens a session with the continuous reader held, so
// command replies are only read by the command channel.
func (a *app) openCalibrator(ctx context.Context) (*session.Session, error) {
	s, err := a.openSession(ctx, nil)
	if err != nil {
		return nil, err
	}
	s.ViewChanged(session.ViewCalibrator)
	return s, nil
}

func (a *app) ports() error {
	ports, err := link.ListPorts()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		a.printf("no serial ports found\n")
	}
	for _, p := range ports {
		a.printf("%s\n", p)
	}
	return nil
}

func (a *app) get(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: get MODULE KEY", errUsage)
	}
	s, err := a.openCalibrator(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	value, err := s.Channel().DoGet(args[0], args[1])
	if err != nil {
		return err
	}
	a.printf("%s\n", value)
	return nil
}

// setValue reads the value of MODULE KEY [VALUE]. Without VALUE the set
// is bare; an explicit VALUE must not be blank, or the device would get
// a bare set it did not ask for.
func setValue(args []string) (value string, bare bool, err error) {
	switch len(args) {
	case 2:
		return "", true, nil
	case 3:
		if strings.TrimSpace(args[2]) == "" {
			return "", false, fmt.Errorf("%w: empty VALUE, omit it for a bare set", errUsage)
		}
		return args[2], false, nil
	}
	return "", false, fmt.Errorf("%w: set MODULE KEY [VALUE]", errUsage)
}

func (a *app) set(ctx context.Context, args []string) error {
	value, bare, err := setValue(args)
	if err != nil {
		return err
	}

	s, err := a.openCalibrator(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	reply, err := s.Channel().DoSet(args[0], args[1], value, bare)
	if err != nil {
		return err
	}
	a.printf("%s\n", reply)
	return nil
}

func (a *app) schema() error {
	sc, err := a.loadSchema()
	if err != nil {
		return err
	}
	a.printf("# %s\n", sc.Source)
	for _, card := range sc.Cards {
		a.printf("%s\n", card.Name)
		for _, m := range card.Modules {
			a.printf("  %s\n", m.Name)
			for _, p := range m.Params {
				a.printf("    %-24s %-6s %-8s %s\n", p.Key, p.Access, p.Kind, p.Label)
				for _, c := range p.Choices {
					a.printf("      %s = %s\n", c.Key, c.Label)
				}
			}
		}
	}
	return nil
}

func (a *app) module(card, module string) (schema.Module, error) {
	sc, err := a.loadSchema()
	if err != nil {
		return schema.Module{}, err
	}
	m, ok := sc.Module(card, module)
	if !ok {
		return schema.Module{}, fmt.Errorf("%w: no module %s in card %s", schema.ErrConfiguration, module, card)
	}
	return m, nil
}

func (a *app) getAll(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: getall CARD MODULE", errUsage)
	}
	m, err := a.module(args[0], args[1])
	if err != nil {
		return err
	}

	s, err := a.openCalibrator(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	results, err := s.Calibrator().GetAll(m)
	if err != nil {
		return err
	}
	a.printResults(results)
	return nil
}

func (a *app) setAll(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: setall CARD MODULE KEY=VALUE...", errUsage)
	}
	m, err := a.module(args[0], args[1])
	if err != nil {
		return err
	}

	values := make(map[string]string, len(args)-2)
	for _, kv := range args[2:] {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("%w: %q is not KEY=VALUE", errUsage, kv)
		}
		values[k] = v
	}

	s, err := a.openCalibrator(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	results, err := s.Calibrator().SetAll(m, values)
	if err != nil {
		return err
	}
	a.printResults(results)
	return nil
}

func (a *app) printResults(results []calibrate.Result) {
	for _, r := range results {
		switch {
		case r.Err != nil:
			a.printf("%-24s ERROR %v\n", r.Key, r.Err)
		case r.Choice != nil:
			a.printf("%-24s %s (key=%s)\n", r.Key, r.Choice.Label, r.Value)
		default:
			a.printf("%-24s %s\n", r.Key, r.Reply)
		}
	}
}

func (a *app) script(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: script FILE", errUsage)
	}
	source, err := afero.ReadFile(a.fs, args[0])
	if err != nil {
		return err
	}

	s, err := a.openSession(ctx, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	printer := newPrinter(a.stdout, a.formatter())
	done := printer.start(ctx, s)
	defer done()

	job, err := s.RunScript(ctx, string(source))
	if err != nil {
		return err
	}
	if err := job.Err(); err != nil {
		return err
	}
	return s.WaitSent(ctx)
}

func (a *app) rules(args []string) error {
	rules := a.loadRules()

	if len(args) == 2 && args[0] == "toggle" {
		i, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("%w: rules toggle N", errUsage)
		}
		if rules.Path() == "" {
			return fmt.Errorf("no rule set loaded from %s", a.config.RulesFile)
		}
		if err := trigger.Toggle(rules, i); err != nil {
			return err
		}
	} else if len(args) != 0 {
		return fmt.Errorf("%w: rules [toggle N]", errUsage)
	}

	for i, r := range rules.Items() {
		state := "off"
		if r.Enabled {
			state = "on"
		}
		a.printf("%3d %-3s %-20s %s %q -> %s %q\n", i, state, r.Name, r.Mode, r.Trigger, r.ResponseMode, r.Response)
	}
	return nil
}

func (a *app) sequences() error {
	for i, seq := range a.loadSequences().Items() {
		a.printf("%3d %-20s %-7s %s\n", i, seq.Name, seq.Mode, seq.Sequence)
	}
	return nil
}
