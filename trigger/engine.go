package trigger

import (
	"bytes"
	"strconv"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"

	"sophiatech.io/serialterm/codec"
)

// RuleSource supplies the current ordered rule set. The engine reads it
// on every check so edits take effect on the next line.
type RuleSource interface {
	Items() []Rule
}

// Option configures an Engine.
type Option func(*Engine)

// WithDecimalSubstring makes Decimal triggers match like HEX ones: the
// decoded bytes must occur somewhere in the line. Without it a Decimal
// trigger never matches.
func WithDecimalSubstring() Option {
	return func(e *Engine) {
		e.decimalSubstring = true
	}
}

// Engine matches framed lines against a rule set.
type Engine struct {
	source           RuleSource
	decimalSubstring bool
}

// NewEngine returns an engine reading rules from source.
func NewEngine(source RuleSource, opts ...Option) *Engine {
	e := &Engine{source: source}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Check returns the response of the first enabled rule matching line.
// It never fails: a rule whose trigger cannot be parsed does not match.
func (e *Engine) Check(line []byte) (Response, bool) {
	if e.source == nil {
		return Response{}, false
	}

	for i, rule := range e.source.Items() {
		if !rule.Enabled {
			continue
		}
		if !e.matches(rule, line) {
			continue
		}
		log.Debug().
			Int("rule", i).
			Str("name", rule.Name).
			Str("mode", rule.Mode.String()).
			Msg("trigger matched")
		return Response{
			Rule:     rule.Name,
			Sequence: rule.Response,
			Mode:     rule.ResponseMode,
		}, true
	}
	return Response{}, false
}

func (e *Engine) matches(rule Rule, line []byte) bool {
	if rule.Trigger == "" {
		return false
	}

	switch rule.Mode {
	case codec.ASCII:
		return rule.Trigger == decodeLine(line)
	case codec.HEX:
		return containsTokens(line, codec.HexTokens(rule.Trigger), 16)
	case codec.Decimal:
		if !e.decimalSubstring {
			return false
		}
		return containsTokens(line, strings.Fields(rule.Trigger), 10)
	default:
		return false
	}
}

// decodeLine decodes line as UTF-8 and trims trailing whitespace.
func decodeLine(line []byte) string {
	return strings.TrimRightFunc(codec.DecodeUTF8(line), unicode.IsSpace)
}

func containsTokens(line []byte, tokens []string, base int) bool {
	if len(tokens) == 0 {
		return false
	}
	needle := make([]byte, 0, len(tokens))
	for _, tok := range tokens {
		n, err := strconv.ParseUint(tok, base, 8)
		if err != nil {
			return false
		}
		needle = append(needle, byte(n))
	}
	return bytes.Contains(line, needle)
}
