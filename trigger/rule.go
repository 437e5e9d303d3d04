// Package trigger decides which scripted reply, if any, answers a framed
// line of received data.
package trigger

import (
	"encoding/json"

	"sophiatech.io/serialterm/codec"
	"sophiatech.io/serialterm/store"
)

// Rule is one entry of a rule set. Its identity is its position in the
// set; the first enabled rule that matches wins.
type Rule struct {
	Name         string         `json:"name"`
	Enabled      bool           `json:"enabled"`
	Trigger      string         `json:"trigger"`
	Mode         codec.Encoding `json:"mode"`
	Response     string         `json:"response"`
	ResponseMode codec.Encoding `json:"response_mode"`
}

// UnmarshalJSON decodes a rule, treating an absent "enabled" as true.
func (r *Rule) UnmarshalJSON(data []byte) error {
	type plain Rule
	p := plain{Enabled: true}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = Rule(p)
	return nil
}

// Toggled returns a copy of the rule with Enabled flipped.
func (r Rule) Toggled() Rule {
	r.Enabled = !r.Enabled
	return r
}

// Response is the reply configured on a matching rule. The text is still
// in its pattern form and is encoded only when it is transmitted.
type Response struct {
	Rule     string
	Sequence string
	Mode     codec.Encoding
}

// Set is a persisted rule set.
type Set = store.List[Rule]

// Toggle flips the enabled flag of the rule at i.
func Toggle(set *Set, i int) error {
	return set.Update(i, Rule.Toggled)
}
