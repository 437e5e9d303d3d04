// Package schema loads the read-only description of the calibration
// parameters a device offers: cards, their modules and each parameter's
// label, kind, access and choices. Document order is preserved throughout.
package schema

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Kind is the closed set of parameter kinds.
type Kind int

const (
	// KindText is a free-form value.
	KindText Kind = iota
	// KindChoice is one key out of a fixed set.
	KindChoice
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindChoice:
		return "choice"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps the document's "type" field. Empty means text.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return KindText, nil
	case "choice":
		return KindChoice, nil
	}
	return KindText, fmt.Errorf("unknown parameter type %q", s)
}

// Access says which operations a parameter offers.
type Access int

const (
	AccessGetSet Access = iota
	AccessGet
	AccessSet
)

func (a Access) String() string {
	switch a {
	case AccessGet:
		return "get"
	case AccessSet:
		return "set"
	case AccessGetSet:
		return "getset"
	default:
		return fmt.Sprintf("Access(%d)", int(a))
	}
}

// ParseAccess maps the document's "access" field. Empty means getset.
func ParseAccess(s string) (Access, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "getset", "get/set", "setget":
		return AccessGetSet, nil
	case "get":
		return AccessGet, nil
	case "set":
		return AccessSet, nil
	}
	return AccessGetSet, fmt.Errorf("unknown access %q", s)
}

func (a Access) CanGet() bool { return a != AccessSet }

func (a Access) CanSet() bool { return a != AccessGet }

// SetOnly parameters may be set without a value.
func (a Access) SetOnly() bool { return a == AccessSet }

// Choice is one selectable value: Key is sent to the device, Label is
// shown to the user.
type Choice struct {
	Key   string
	Label string
}

// ParamDef describes one parameter of a module.
type ParamDef struct {
	Key     string
	Label   string
	Kind    Kind
	Access  Access
	Choices []Choice
}

// Choice looks up a choice by key.
func (p ParamDef) Choice(key string) (Choice, bool) {
	for _, c := range p.Choices {
		if c.Key == key {
			return c, true
		}
	}
	return Choice{}, false
}

// ChoiceByLabel looks up a choice by its label.
func (p ParamDef) ChoiceByLabel(label string) (Choice, bool) {
	for _, c := range p.Choices {
		if c.Label == label {
			return c, true
		}
	}
	return Choice{}, false
}

// SortChoices orders choices with integer keys first, numerically, then
// the remaining keys lexically.
func SortChoices(choices []Choice) {
	slices.SortStableFunc(choices, func(a, b Choice) int {
		an, aerr := strconv.Atoi(a.Key)
		bn, berr := strconv.Atoi(b.Key)
		switch {
		case aerr == nil && berr == nil:
			return an - bn
		case aerr == nil:
			return -1
		case berr == nil:
			return 1
		}
		return strings.Compare(a.Key, b.Key)
	})
}

type Module struct {
	Name   string
	Params []ParamDef
}

// Param looks up a parameter by key.
func (m Module) Param(key string) (ParamDef, bool) {
	for _, p := range m.Params {
		if p.Key == key {
			return p, true
		}
	}
	return ParamDef{}, false
}

type Card struct {
	Name    string
	Modules []Module
}

// Module looks up a module by name.
func (c Card) Module(name string) (Module, bool) {
	for _, m := range c.Modules {
		if m.Name == name {
			return m, true
		}
	}
	return Module{}, false
}

// Schema is the whole parameter tree. Source is the file it came from.
type Schema struct {
	Source string
	Cards  []Card
}

// Card looks up a card by name.
func (s *Schema) Card(name string) (Card, bool) {
	for _, c := range s.Cards {
		if c.Name == name {
			return c, true
		}
	}
	return Card{}, false
}

// Module finds a module by card and module name.
func (s *Schema) Module(card, module string) (Module, bool) {
	c, ok := s.Card(card)
	if !ok {
		return Module{}, false
	}
	return c.Module(module)
}
