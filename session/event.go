package session

import (
	"fmt"
	"time"

	"sophiatech.io/serialterm/link"
)

// EventKind classifies an Event.
type EventKind int

const (
	// EventRX carries one framed line in Data, terminator included.
	EventRX EventKind = iota
	// EventTX carries bytes written to the link in Data; Source says who
	// queued them.
	EventTX
	// EventInfo carries a status message in Text.
	EventInfo
	// EventError carries an error message in Text.
	EventError
	// EventDisconnected is sent once when the link is lost.
	EventDisconnected
	// EventScriptLog carries a message logged by a script.
	EventScriptLog
	// EventScriptDone is sent when a script ends; Text is empty on success.
	EventScriptDone
)

func (k EventKind) String() string {
	switch k {
	case EventRX:
		return "rx"
	case EventTX:
		return "tx"
	case EventInfo:
		return "info"
	case EventError:
		return "error"
	case EventDisconnected:
		return "disconnected"
	case EventScriptLog:
		return "script-log"
	case EventScriptDone:
		return "script-done"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is an output of the session for the display.
type Event struct {
	Kind   EventKind
	Time   time.Time
	Source link.Source
	Data   []byte
	Text   string
}

// View is the screen the user is on.
type View int

const (
	// ViewTerminal shows live traffic; the continuous reader runs.
	ViewTerminal View = iota
	// ViewCalibrator holds the continuous reader so command replies are
	// read by the command channel alone.
	ViewCalibrator
)
