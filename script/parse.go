// Package script runs small automation scripts against the link. A
// script is a list of steps, one per line:
//
//	# comment
//	log "starting"
//	repeat 3
//	    send 'AT+CMD?\n'
//	    sendhex 0A 0D
//	    senddec 13 10
//	    pause 500
//	end
//
// Arguments are split with shell quoting rules, so escape sequences meant
// for the device go in single quotes. Nothing is evaluated:
// the only effects are Log, Send and Pause.
package script

import (
	"bufio"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"

	"sophiatech.io/serialterm/codec"
)

type StepKind int

const (
	StepLog StepKind = iota
	StepSend
	StepPause
	StepRepeat
)

func (k StepKind) String() string {
	switch k {
	case StepLog:
		return "log"
	case StepSend:
		return "send"
	case StepPause:
		return "pause"
	case StepRepeat:
		return "repeat"
	}
	return "unknown"
}

// Step is one instruction. Data holds the encoded bytes of a send, Count
// and Body the iterations of a repeat.
type Step struct {
	Line     int
	Kind     StepKind
	Text     string
	Data     []byte
	Duration time.Duration
	Count    int
	Body     []Step
}

// Script is a parsed program.
type Script struct {
	Steps []Step
}

var sendModes = map[string]codec.Encoding{
	"send":    codec.ASCII,
	"sendhex": codec.HEX,
	"senddec": codec.Decimal,
}

type frame struct {
	line  int
	count int
	steps []Step
}

// Parse compiles source into a Script. Send payloads are encoded here so
// a malformed sequence is reported before anything runs.
func Parse(source string) (*Script, error) {
	stack := []frame{{}}
	scanner := bufio.NewScanner(strings.NewReader(source))

	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		args, err := shlex.Split(line)
		if err != nil {
			return nil, &SyntaxError{Line: n, Msg: err.Error()}
		}
		if len(args) == 0 {
			continue
		}

		cmd, rest := strings.ToLower(args[0]), args[1:]
		top := &stack[len(stack)-1]

		switch cmd {
		case "log":
			top.steps = append(top.steps, Step{Line: n, Kind: StepLog, Text: strings.Join(rest, " ")})

		case "send", "sendhex", "senddec":
			if len(rest) == 0 {
				return nil, &SyntaxError{Line: n, Msg: cmd + " needs a sequence"}
			}
			text := strings.Join(rest, " ")
			data, err := codec.Encode(text, sendModes[cmd])
			if err != nil {
				return nil, &SyntaxError{Line: n, Msg: err.Error()}
			}
			top.steps = append(top.steps, Step{Line: n, Kind: StepSend, Text: text, Data: data})

		case "pause":
			ms, err := single(rest)
			if err != nil || ms < 0 {
				return nil, &SyntaxError{Line: n, Msg: "pause needs a duration in milliseconds"}
			}
			top.steps = append(top.steps, Step{Line: n, Kind: StepPause, Duration: time.Duration(ms) * time.Millisecond})

		case "repeat":
			count, err := single(rest)
			if err != nil || count < 0 {
				return nil, &SyntaxError{Line: n, Msg: "repeat needs a count"}
			}
			stack = append(stack, frame{line: n, count: count})

		case "end":
			if len(stack) == 1 {
				return nil, &SyntaxError{Line: n, Msg: "end without repeat"}
			}
			done := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			parent := &stack[len(stack)-1]
			parent.steps = append(parent.steps, Step{Line: done.line, Kind: StepRepeat, Count: done.count, Body: done.steps})

		default:
			return nil, &SyntaxError{Line: n, Msg: "unknown command " + strconv.Quote(args[0])}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(stack) > 1 {
		open := stack[len(stack)-1]
		return nil, &SyntaxError{Line: open.line, Msg: "repeat without end"}
	}
	return &Script{Steps: stack[0].steps}, nil
}

func single(args []string) (int, error) {
	if len(args) != 1 {
		return 0, strconv.ErrSyntax
	}
	return strconv.Atoi(args[0])
}
