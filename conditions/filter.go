package conditions

import (
	"github.com/reoring/schemaform/internal/values"
	"github.com/reoring/schemaform/schema"
)

// ValueWithCondition returns a copy of value without the gated properties
// whose gates all fail. Control fields and fields unknown to fcm pass
// through. A gated virtual field of s gates its backing fields the same way
// unless they carry entries of their own.
func ValueWithCondition(value map[string]any, s schema.Schema, fcm FieldConditionMap) map[string]any {
	if value == nil {
		return nil
	}
	fcm = expandVirtual(fcm, s)
	out := make(map[string]any, len(value))
	for k, v := range value {
		e := fcm[k]
		if e == nil || e.Control || anyGate(e.Gates, value) {
			out[k] = v
		}
	}
	return out
}

func anyGate(gates []Gate, obj map[string]any) bool {
	for _, g := range gates {
		if g.Matches(obj) {
			return true
		}
	}
	return false
}

func expandVirtual(fcm FieldConditionMap, s schema.Schema) FieldConditionMap {
	virtual := s.Virtual()
	if len(virtual) == 0 {
		return fcm
	}
	var out FieldConditionMap
	for name, fields := range virtual {
		e := fcm[name]
		if e == nil || e.Control {
			continue
		}
		for _, f := range fields {
			if _, own := fcm[f]; own {
				continue
			}
			if out == nil {
				out = make(FieldConditionMap, len(fcm)+len(fields))
				for k, v := range fcm {
					out[k] = v
				}
			}
			out[f] = e
		}
	}
	if out == nil {
		return fcm
	}
	return out
}

// FilterOptions configures a Filter.
type FilterOptions struct {
	// OneOf adds rules derived from oneOf discriminators.
	OneOf bool
	// Recursive descends into properties, items and prefixItems.
	Recursive bool
}

// DefaultFilterOptions enables every rule source and recursion.
var DefaultFilterOptions = FilterOptions{OneOf: true, Recursive: true}

type resultKey struct {
	schema uintptr
	value  uintptr
}

// Cache entries hold the keyed documents. That keeps them reachable, so an
// address in the key cannot be reused by another document while cached.
type mapEntry struct {
	schema schema.Schema
	fcm    FieldConditionMap
}

type resultEntry struct {
	schema schema.Schema
	value  any
	out    any
}

// Filter is a filtering session. It caches field condition maps by schema
// identity and results by (schema, value) identity. Not safe for concurrent
// use.
type Filter struct {
	opts    FilterOptions
	maps    map[uintptr]mapEntry
	results map[resultKey]resultEntry
}

// NewFilter returns an empty session.
func NewFilter(opts FilterOptions) *Filter {
	f := &Filter{opts: opts}
	f.Reset()
	return f
}

// Reset drops every cached map and result.
func (f *Filter) Reset() {
	f.maps = make(map[uintptr]mapEntry)
	f.results = make(map[resultKey]resultEntry)
}

// FieldConditionMap returns the (cached) field condition map of s.
func (f *Filter) FieldConditionMap(s schema.Schema) FieldConditionMap {
	id := values.Identity(s)
	if e, ok := f.maps[id]; ok && id != 0 && sameDocument(e.schema, s) {
		return e.fcm
	}
	rules := Flatten(s)
	if f.opts.OneOf {
		rules = append(rules, FlattenOneOf(s)...)
	}
	m := BuildFieldConditionMap(rules)
	if id != 0 {
		f.maps[id] = mapEntry{schema: s, fcm: m}
	}
	return m
}

// sameDocument reports whether a and b are the same map or the same slice
// (same backing array and length).
func sameDocument(a, b any) bool {
	if values.Identity(a) != values.Identity(b) {
		return false
	}
	switch x := a.(type) {
	case []any:
		y, ok := b.([]any)
		return ok && len(x) == len(y)
	case schema.Schema:
		_, ok := b.(schema.Schema)
		return ok
	case map[string]any:
		_, ok := b.(map[string]any)
		return ok
	}
	return false
}

// DataWithSchema filters value against s. Objects and arrays yield new
// values; repeated calls with the same schema and value return the cached
// result.
func (f *Filter) DataWithSchema(value any, s schema.Schema) any {
	if s == nil {
		return value
	}
	key := resultKey{schema: values.Identity(s), value: values.Identity(value)}
	cacheable := key.schema != 0 && key.value != 0
	if cacheable {
		if e, ok := f.results[key]; ok && sameDocument(e.schema, s) && sameDocument(e.value, value) {
			return e.out
		}
	}
	var out any
	switch v := value.(type) {
	case map[string]any:
		obj := ValueWithCondition(v, s, f.FieldConditionMap(s))
		if f.opts.Recursive {
			for k, child := range obj {
				if ps, ok := s.Property(k); ok {
					obj[k] = f.DataWithSchema(child, ps)
				}
			}
		}
		out = obj
	case []any:
		if !f.opts.Recursive {
			return value
		}
		prefix, _ := s.PrefixItems()
		items, _ := s.Items()
		arr := make([]any, len(v))
		for i, el := range v {
			sub := items
			if i < len(prefix) {
				sub = prefix[i]
			}
			arr[i] = f.DataWithSchema(el, sub)
		}
		out = arr
	default:
		return value
	}
	if cacheable {
		f.results[key] = resultEntry{schema: s, value: value, out: out}
	}
	return out
}

// DataWithSchema filters value with a one-off session using
// DefaultFilterOptions.
func DataWithSchema(value any, s schema.Schema) any {
	return NewFilter(DefaultFilterOptions).DataWithSchema(value, s)
}
