package conditions

import (
	"slices"

	"github.com/reoring/schemaform/internal/values"
)

// Gate is one condition under which a field is kept.
type Gate struct {
	Condition Condition
	Inverse   bool
}

// Matches evaluates the gate against obj by comparing stringified values.
// A normal gate needs every key to match; an inverse gate needs none to.
func (g Gate) Matches(obj map[string]any) bool {
	for key := range g.Condition {
		hit := false
		if got, ok := obj[key]; ok {
			hit = slices.Contains(g.Condition.Values(key), values.Stringify(got))
		}
		if hit == g.Inverse {
			return false
		}
	}
	return true
}

// FieldEntry is either a control field (read by some condition, never
// filtered) or a list of gates.
type FieldEntry struct {
	Control bool
	Gates   []Gate
}

// FieldConditionMap is the per-field view of a rule list.
type FieldConditionMap map[string]*FieldEntry

// IsControl reports whether field is read by a condition.
func (m FieldConditionMap) IsControl(field string) bool {
	e := m[field]
	return e != nil && e.Control
}

// Gated lists the gated (non-control) fields.
func (m FieldConditionMap) Gated() []string {
	var out []string
	for f, e := range m {
		if !e.Control {
			out = append(out, f)
		}
	}
	slices.Sort(out)
	return out
}

// BuildFieldConditionMap inverts rules into a per-field table.
func BuildFieldConditionMap(rules []Rule) FieldConditionMap {
	m := FieldConditionMap{}
	for _, r := range rules {
		for _, f := range r.Required {
			e := m[f]
			if e == nil {
				e = &FieldEntry{}
				m[f] = e
			}
			if !e.Control {
				e.Gates = append(e.Gates, Gate{Condition: r.Condition, Inverse: r.Inverse})
			}
		}
		for key := range r.Condition {
			if slices.Contains(r.Required, key) {
				continue
			}
			m[key] = &FieldEntry{Control: true}
		}
	}
	return m
}
