package link

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// PortInfo describes a serial port present on the system.
type PortInfo struct {
	Name        string
	Description string
	USB         bool
	VID         string
	PID         string
	Serial      string
}

func (p PortInfo) String() string {
	var b strings.Builder
	b.WriteString(p.Name)
	if p.Description != "" {
		b.WriteString(" - ")
		b.WriteString(p.Description)
	}
	if p.USB {
		fmt.Fprintf(&b, " [%s:%s]", p.VID, p.PID)
	}
	return b.String()
}

// ListPorts enumerates serial ports sorted by name. USB details are
// filled in when the platform enumerator provides them.
func ListPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		log.Debug().Err(err).Msg("detailed port enumeration failed, using plain list")
		return listPlain()
	}

	out := make([]PortInfo, 0, len(details))
	for _, d := range details {
		out = append(out, PortInfo{
			Name:        d.Name,
			Description: d.Product,
			USB:         d.IsUSB,
			VID:         d.VID,
			PID:         d.PID,
			Serial:      d.SerialNumber,
		})
	}
	sortPorts(out)
	return out, nil
}

func listPlain() ([]PortInfo, error) {
	names, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	out := make([]PortInfo, 0, len(names))
	for _, n := range names {
		out = append(out, PortInfo{Name: n})
	}
	sortPorts(out)
	return out, nil
}

func sortPorts(ports []PortInfo) {
	slices.SortFunc(ports, func(a, b PortInfo) int {
		return strings.Compare(a.Name, b.Name)
	})
}
