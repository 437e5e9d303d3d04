package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
)

// wrapperKeys are the top-level keys a schema may be nested under, in
// the order they are tried. A document without any of them is taken as
// the card mapping itself.
var wrapperKeys = []string{"cartes", "boards", "cards"}

type member struct {
	key   string
	value json.RawMessage
}

// members decodes a JSON object keeping its key order.
func members(data []byte) ([]member, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: expected an object", ErrShape)
	}

	var out []member
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		out = append(out, member{key: key, value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

// Parse decodes a schema document. It accepts the cards nested under
// "cartes", "boards" or "cards", or given directly as the top-level
// object. Cards, modules or parameters that are not objects are skipped
// with a warning, as are parameters with an unknown type or access.
func Parse(data []byte) (*Schema, error) {
	top, err := members(data)
	if err != nil {
		return nil, err
	}

	cards := top
	for _, key := range wrapperKeys {
		if m, ok := find(top, key); ok && isObject(m.value) {
			if cards, err = members(m.value); err != nil {
				return nil, err
			}
			break
		}
	}

	s := &Schema{}
	for _, cm := range cards {
		if !isObject(cm.value) {
			log.Warn().Str("card", cm.key).Msg("schema: card is not an object, skipped")
			continue
		}
		card, err := parseCard(cm)
		if err != nil {
			return nil, err
		}
		s.Cards = append(s.Cards, card)
	}
	return s, nil
}

func find(ms []member, key string) (member, bool) {
	for _, m := range ms {
		if m.key == key {
			return m, true
		}
	}
	return member{}, false
}

func parseCard(cm member) (Card, error) {
	modules, err := members(cm.value)
	if err != nil {
		return Card{}, fmt.Errorf("card %q: %w", cm.key, err)
	}

	card := Card{Name: cm.key}
	for _, mm := range modules {
		if !isObject(mm.value) {
			log.Warn().Str("card", cm.key).Str("module", mm.key).Msg("schema: module is not an object, skipped")
			continue
		}
		module, err := parseModule(mm)
		if err != nil {
			return Card{}, fmt.Errorf("card %q: %w", cm.key, err)
		}
		card.Modules = append(card.Modules, module)
	}
	return card, nil
}

func parseModule(mm member) (Module, error) {
	params, err := members(mm.value)
	if err != nil {
		return Module{}, fmt.Errorf("module %q: %w", mm.key, err)
	}

	module := Module{Name: mm.key}
	for _, pm := range params {
		if !isObject(pm.value) {
			log.Warn().Str("module", mm.key).Str("param", pm.key).Msg("schema: parameter is not an object, skipped")
			continue
		}
		p, err := parseParam(pm)
		if err != nil {
			log.Warn().Err(err).Str("module", mm.key).Str("param", pm.key).Msg("schema: parameter skipped")
			continue
		}
		module.Params = append(module.Params, p)
	}
	return module, nil
}

type paramDoc struct {
	Label   string          `json:"label"`
	Type    string          `json:"type"`
	Access  string          `json:"access"`
	Choices json.RawMessage `json:"choices"`
}

func parseParam(pm member) (ParamDef, error) {
	var doc paramDoc
	if err := json.Unmarshal(pm.value, &doc); err != nil {
		return ParamDef{}, err
	}

	kind, err := ParseKind(doc.Type)
	if err != nil {
		return ParamDef{}, err
	}
	access, err := ParseAccess(doc.Access)
	if err != nil {
		return ParamDef{}, err
	}

	p := ParamDef{Key: pm.key, Label: doc.Label, Kind: kind, Access: access}
	if p.Label == "" {
		p.Label = pm.key
	}

	if kind == KindChoice {
		if isObject(doc.Choices) {
			if p.Choices, err = parseChoices(doc.Choices); err != nil {
				return ParamDef{}, err
			}
		}
		// A choice without choices is edited as text.
		if len(p.Choices) == 0 {
			p.Kind = KindText
		}
	}
	return p, nil
}

func parseChoices(raw json.RawMessage) ([]Choice, error) {
	ms, err := members(raw)
	if err != nil {
		return nil, fmt.Errorf("choices: %w", err)
	}

	choices := make([]Choice, 0, len(ms))
	for _, m := range ms {
		var label any
		if err := json.Unmarshal(m.value, &label); err != nil {
			return nil, fmt.Errorf("choice %q: %w", m.key, err)
		}
		text, ok := label.(string)
		if !ok {
			text = string(bytes.TrimSpace(m.value))
		}
		choices = append(choices, Choice{Key: m.key, Label: text})
	}
	SortChoices(choices)
	return choices, nil
}
