package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/shlex"
	"github.com/spf13/afero"

	"sophiatech.io/serialterm/codec"
	"sophiatech.io/serialterm/link"
	"sophiatech.io/serialterm/session"
	"sophiatech.io/serialterm/store"
	"sophiatech.io/serialterm/terminal"
	"sophiatech.io/serialterm/trigger"
)

const termHelp = `Lines are sent followed by CRLF. Commands:
  /hex BYTES  /dec BYTES  /ascii TEXT   send a sequence
  /send NAME|N                           send a stored sequence
  /seqs  /rules                          list sequences or rules
  /toggle N  /reload                     toggle a rule, reload the rule file
  /display ASCII|HEX|Decimal             change the display encoding
  /script FILE  /stop                    run or stop a script
  /get MODULE KEY  /set MODULE KEY [V]   device parameters
  /view terminal|calibrator              hold or release the reader
  /quit`

// printer writes session events through a formatter.
type printer struct {
	out io.Writer
	f   *terminal.Formatter

	mu       sync.Mutex
	lost     chan struct{}
	lostOnce sync.Once
}

func newPrinter(out io.Writer, f *terminal.Formatter) *printer {
	return &printer{out: out, f: f, lost: make(chan struct{})}
}

// start prints events of s until the returned stop is called or ctx
// ends. stop prints what is still buffered before returning.
func (p *printer) start(ctx context.Context, s *session.Session) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case ev := <-s.Events():
				p.print(ev)
			case <-ctx.Done():
				for {
					select {
					case ev := <-s.Events():
						p.print(ev)
					default:
						return
					}
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

var txPrefixes = map[link.Source]terminal.Prefix{
	link.SourceUser:   terminal.PrefixTX,
	link.SourceAuto:   terminal.PrefixAutoTX,
	link.SourceScript: terminal.PrefixScriptTX,
}

func (p *printer) print(ev session.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch ev.Kind {
	case session.EventRX:
		fmt.Fprintln(p.out, p.f.RX(ev.Time, ev.Data))
	case session.EventTX:
		fmt.Fprintln(p.out, p.f.TX(ev.Time, txPrefixes[ev.Source], ev.Data))
	case session.EventInfo:
		fmt.Fprintln(p.out, p.f.Message(ev.Time, terminal.PrefixInfo, ev.Text))
	case session.EventError:
		fmt.Fprintln(p.out, p.f.Message(ev.Time, terminal.PrefixError, ev.Text))
	case session.EventDisconnected:
		fmt.Fprintln(p.out, p.f.Message(ev.Time, terminal.PrefixError, "Disconnected: "+ev.Text))
		p.lostOnce.Do(func() { close(p.lost) })
	case session.EventScriptLog:
		fmt.Fprintln(p.out, ev.Text)
	case session.EventScriptDone:
		msg := "Script finished"
		if ev.Text != "" {
			msg = "Script ended: " + ev.Text
		}
		fmt.Fprintln(p.out, p.f.Message(ev.Time, terminal.PrefixInfo, msg))
	}
}

// message prints a local line outside the event stream.
func (p *printer) message(prefix terminal.Prefix, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, p.f.Message(time.Now(), prefix, text))
}

func (p *printer) setMode(mode codec.Encoding) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.f.SetMode(mode)
}

func (a *app) term(ctx context.Context) error {
	rules := a.loadRules()
	seqs := a.loadSequences()

	s, err := a.openSession(ctx, rules)
	if err != nil {
		return err
	}
	defer s.Close()

	p := newPrinter(a.stdout, a.formatter())
	stop := p.start(ctx, s)
	defer stop()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(a.stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	t := &termCmd{app: a, s: s, p: p, rules: rules, seqs: seqs}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-p.lost:
			return errors.New("link lost")
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := t.handle(ctx, line)
			if err != nil {
				p.message(terminal.PrefixError, err.Error())
			}
			if quit {
				return nil
			}
		}
	}
}

type termCmd struct {
	*app
	s     *session.Session
	p     *printer
	rules *trigger.Set
	seqs  *store.List[store.Sequence]
}

// handle runs one input line. It reports true when the user quits.
func (t *termCmd) handle(ctx context.Context, line string) (bool, error) {
	if !strings.HasPrefix(line, "/") {
		return false, t.s.SendLine(line)
	}

	args, err := shlex.Split(line[1:])
	if err != nil {
		return false, err
	}
	if len(args) == 0 {
		return false, nil
	}
	// sequences keep their backslashes, so they are taken raw
	raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line[1:]), args[0]))

	switch args[0] {
	case "quit", "q":
		return true, nil
	case "help":
		t.p.message(terminal.PrefixInfo, termHelp)
	case "hex":
		return false, t.s.SendText(raw, codec.HEX)
	case "dec":
		return false, t.s.SendText(raw, codec.Decimal)
	case "ascii":
		return false, t.s.SendText(raw, codec.ASCII)
	case "send":
		seq, err := t.sequence(raw)
		if err != nil {
			return false, err
		}
		return false, t.s.Send(seq)
	case "seqs":
		for i, seq := range t.seqs.Items() {
			t.p.message(terminal.PrefixInfo, fmt.Sprintf("%d %s [%s] %s", i, seq.Name, seq.Mode, seq.Sequence))
		}
	case "rules":
		for i, r := range t.rules.Items() {
			t.p.message(terminal.PrefixInfo, fmt.Sprintf("%d %s enabled=%t %s %q -> %s %q",
				i, r.Name, r.Enabled, r.Mode, r.Trigger, r.ResponseMode, r.Response))
		}
	case "toggle":
		i, err := strconv.Atoi(raw)
		if err != nil {
			return false, fmt.Errorf("%w: /toggle N", errUsage)
		}
		if err := trigger.Toggle(t.rules, i); err != nil {
			return false, err
		}
		t.s.RulesChanged()
	case "reload":
		if !t.rules.Load(t.config.RulesFile) {
			t.p.message(terminal.PrefixError, "rule set could not be loaded, rules cleared")
		}
		t.s.RulesChanged()
	case "display":
		mode, err := codec.ParseEncoding(raw)
		if err != nil {
			return false, err
		}
		t.p.setMode(mode)
	case "script":
		source, err := afero.ReadFile(t.fs, raw)
		if err != nil {
			return false, err
		}
		_, err = t.s.RunScript(ctx, string(source))
		return false, err
	case "stop":
		t.s.StopScript()
	case "get":
		if len(args) != 3 {
			return false, fmt.Errorf("%w: /get MODULE KEY", errUsage)
		}
		value, err := t.s.Channel().DoGet(args[1], args[2])
		if err != nil {
			return false, err
		}
		t.p.message(terminal.PrefixInfo, fmt.Sprintf("%s.%s = %s", args[1], args[2], value))
	case "set":
		value, bare, err := setValue(args[1:])
		if err != nil {
			return false, err
		}
		reply, err := t.s.Channel().DoSet(args[1], args[2], value, bare)
		if err != nil {
			return false, err
		}
		t.p.message(terminal.PrefixInfo, fmt.Sprintf("%s.%s <- %s", args[1], args[2], reply))
	case "view":
		switch strings.ToLower(raw) {
		case "calibrator":
			t.s.ViewChanged(session.ViewCalibrator)
		case "terminal":
			t.s.ViewChanged(session.ViewTerminal)
		default:
			return false, fmt.Errorf("%w: /view terminal|calibrator", errUsage)
		}
	default:
		return false, fmt.Errorf("unknown command /%s, try /help", args[0])
	}
	return false, nil
}

// sequence finds a stored sequence by index or name.
func (t *termCmd) sequence(ref string) (store.Sequence, error) {
	if i, err := strconv.Atoi(ref); err == nil {
		return t.seqs.Get(i)
	}
	for _, seq := range t.seqs.Items() {
		if seq.Name == ref {
			return seq, nil
		}
	}
	return store.Sequence{}, fmt.Errorf("no sequence named %q", ref)
}
