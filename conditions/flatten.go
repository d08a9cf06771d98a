package conditions

import (
	"slices"
	"sort"

	"github.com/reoring/schemaform/internal/values"
	"github.com/reoring/schemaform/schema"
)

// Condition maps a field name to the stringified literal it must equal
// (string) or the literals it may equal ([]string). Keys are ANDed.
type Condition map[string]any

// Values returns the accepted literals for field.
func (c Condition) Values(field string) []string {
	switch v := c[field].(type) {
	case string:
		return []string{v}
	case []string:
		return v
	}
	return nil
}

// Keys returns the condition fields in sorted order.
func (c Condition) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Rule says that Required fields are required when Condition holds, or when
// it does not hold if Inverse is set.
type Rule struct {
	Condition Condition `json:"condition"`
	Required  []string  `json:"required"`
	Inverse   bool      `json:"inverse,omitempty"`
}

// Flatten walks the if/then/else chain of s and returns one rule per branch
// that requires something.
func Flatten(s schema.Schema) []Rule {
	_, hasIf := s["if"]
	_, hasThen := s["then"]
	if !hasIf && !hasThen {
		return nil
	}
	var rules []Rule
	flattenLink(s, nil, &rules)
	return rules
}

func flattenLink(s schema.Schema, chain []Condition, rules *[]Rule) {
	ifs, _ := s.Sub("if")
	cond := extractCondition(ifs)
	if len(cond) == 0 {
		return
	}
	if then, ok := s.Sub("then"); ok {
		if req := then.Required(); len(req) > 0 {
			*rules = append(*rules, Rule{Condition: cond, Required: req})
		}
	}
	chain = append(chain, cond)

	els, ok := s.Sub("else")
	if !ok {
		return
	}
	_, nestedIf := els["if"]
	_, nestedThen := els["then"]
	if nestedIf && nestedThen {
		flattenLink(els, chain, rules)
		return
	}
	req := els.Required()
	if len(req) == 0 {
		return
	}
	inv := cond
	if len(chain) > 1 {
		inv = union(chain)
	}
	*rules = append(*rules, Rule{Condition: inv, Required: req, Inverse: true})
}

// extractCondition reads const/enum discriminators from the properties of s.
func extractCondition(s schema.Schema) Condition {
	props := s.Properties()
	if len(props) == 0 {
		return nil
	}
	cond := Condition{}
	for name, raw := range props {
		p, ok := schema.As(raw)
		if !ok {
			continue
		}
		if c, ok := p["const"]; ok {
			cond[name] = values.Stringify(c)
			continue
		}
		enum, ok := p["enum"].([]any)
		if !ok || len(enum) == 0 {
			continue
		}
		if len(enum) == 1 {
			cond[name] = values.Stringify(enum[0])
			continue
		}
		lits := make([]string, len(enum))
		for i, e := range enum {
			lits[i] = values.Stringify(e)
		}
		cond[name] = lits
	}
	return cond
}

// union merges the conditions of a chain field by field; fields that end up
// with several distinct literals become lists.
func union(chain []Condition) Condition {
	merged := map[string][]string{}
	for _, c := range chain {
		for _, k := range c.Keys() {
			for _, v := range c.Values(k) {
				if !slices.Contains(merged[k], v) {
					merged[k] = append(merged[k], v)
				}
			}
		}
	}
	out := make(Condition, len(merged))
	for k, vs := range merged {
		if len(vs) == 1 {
			out[k] = vs[0]
		} else {
			out[k] = vs
		}
	}
	return out
}

// FlattenOneOf derives rules from oneOf variants that discriminate on
// const/enum properties. The gated fields of a variant are its required
// fields plus its other declared properties.
func FlattenOneOf(s schema.Schema) []Rule {
	var rules []Rule
	for _, variant := range s.OneOf() {
		if variant == nil {
			continue
		}
		cond := extractCondition(variant)
		if len(cond) == 0 {
			continue
		}
		var gated []string
		add := func(f string) {
			if _, isKey := cond[f]; !isKey && !slices.Contains(gated, f) {
				gated = append(gated, f)
			}
		}
		for _, f := range variant.Required() {
			add(f)
		}
		names := make([]string, 0, len(variant.Properties()))
		for name := range variant.Properties() {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, f := range names {
			add(f)
		}
		if len(gated) > 0 {
			rules = append(rules, Rule{Condition: cond, Required: gated})
		}
	}
	return rules
}
