package session

import (
	"slices"

	"sophiatech.io/serialterm/syncutil"
	"sophiatech.io/serialterm/trigger"
)

// ruleSnapshot is the rule list the engine matches against. It only
// changes on RulesChanged, so an edit in progress is never half seen.
type ruleSnapshot struct {
	mu    syncutil.RWMutex
	items []trigger.Rule
}

func (r *ruleSnapshot) Items() []trigger.Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.items
}

func (r *ruleSnapshot) reload(src trigger.RuleSource) int {
	var items []trigger.Rule
	if src != nil {
		items = slices.Clone(src.Items())
	}
	r.mu.Lock()
	r.items = items
	r.mu.Unlock()
	return len(items)
}
