// Package terminal renders link traffic as display lines:
//
//	12:04:31.250 [RX] -> hello
//	12:04:31.310 [AUTO-TX] -> ack\r\n
package terminal

import (
	"bytes"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"sophiatech.io/serialterm/codec"
)

// TimeLayout is the timestamp format of every line.
const TimeLayout = "15:04:05.000"

// Style selects how lines are decorated. Without Color, prefixes are
// plain and ANSI sequences sent by the device are stripped.
type Style struct {
	Color      bool
	Timestamps bool
}

// DefaultStyle has color and timestamps on.
var DefaultStyle = Style{Color: true, Timestamps: true}

// Prefix tags the origin of a line.
type Prefix int

const (
	PrefixRX Prefix = iota
	PrefixTX
	PrefixAutoTX
	PrefixScriptTX
	PrefixInfo
	PrefixError
)

func (p Prefix) String() string {
	switch p {
	case PrefixRX:
		return "RX"
	case PrefixTX:
		return "TX"
	case PrefixAutoTX:
		return "AUTO-TX"
	case PrefixScriptTX:
		return "SCRIPT-TX"
	case PrefixInfo:
		return "---"
	case PrefixError:
		return "ERROR"
	}
	return "?"
}

var prefixColors = map[Prefix]lipgloss.Color{
	PrefixRX:       lipgloss.Color("2"),
	PrefixTX:       lipgloss.Color("5"),
	PrefixAutoTX:   lipgloss.Color("6"),
	PrefixScriptTX: lipgloss.Color("3"),
	PrefixInfo:     lipgloss.Color("8"),
	PrefixError:    lipgloss.Color("1"),
}

// Formatter turns RX lines, TX payloads and messages into display lines
// in the current display encoding. It is not safe for concurrent use.
type Formatter struct {
	style  Style
	mode   codec.Encoding
	styles map[Prefix]lipgloss.Style
}

// NewFormatter returns a formatter for lines written to out. The color
// profile is detected from out.
func NewFormatter(out io.Writer, style Style, mode codec.Encoding) *Formatter {
	r := lipgloss.NewRenderer(out)
	styles := make(map[Prefix]lipgloss.Style, len(prefixColors))
	for p, c := range prefixColors {
		styles[p] = r.NewStyle().Bold(true).Foreground(c)
	}
	return &Formatter{style: style, mode: mode, styles: styles}
}

func (f *Formatter) Mode() codec.Encoding { return f.mode }

// SetMode switches the display encoding for the following lines.
func (f *Formatter) SetMode(mode codec.Encoding) { f.mode = mode }

// RX renders one framed line. Blank lines render as "" so the caller
// prints an empty row.
func (f *Formatter) RX(t time.Time, line []byte) string {
	if len(bytes.TrimSpace(line)) == 0 {
		return ""
	}

	var content string
	switch f.mode {
	case codec.ASCII:
		content = codec.DecodeUTF8(bytes.TrimRight(line, "\r\n"))
		if !f.style.Color {
			content = ansi.Strip(content)
		}
	default:
		content = codec.Format(bytes.TrimSuffix(line, []byte{'\n'}), f.mode)
	}
	return f.line(t, PrefixRX, content)
}

// TX renders bytes written to the link. ASCII mode shows them with
// control characters escaped.
func (f *Formatter) TX(t time.Time, p Prefix, data []byte) string {
	return f.line(t, p, codec.Format(data, f.mode))
}

// Message renders an informational or error line.
func (f *Formatter) Message(t time.Time, p Prefix, msg string) string {
	if !f.style.Color {
		msg = ansi.Strip(msg)
	}
	return f.line(t, p, msg)
}

func (f *Formatter) line(t time.Time, p Prefix, content string) string {
	tag := "[" + p.String() + "] ->"
	if f.style.Color {
		tag = f.styles[p].Render(tag)
	}

	if !f.style.Timestamps {
		return tag + " " + content
	}
	return t.Format(TimeLayout) + " " + tag + " " + content
}
