package schema

import (
	"slices"

	"github.com/reoring/schemaform/internal/values"
)

// JSON Schema type names, plus the form-only "virtual" type.
const (
	TypeObject  = "object"
	TypeArray   = "array"
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
	TypeNull    = "null"
	TypeVirtual = "virtual"
)

// Schema is a decoded JSON Schema document extended with the form keywords
// (computed, &<field> aliases, virtual, nullable). Nested schemas stay plain
// map[string]any values; wrap them with As to use the accessors.
type Schema map[string]any

// As converts a decoded value into a Schema when it is a JSON object.
func As(v any) (Schema, bool) {
	switch t := v.(type) {
	case Schema:
		return t, t != nil
	case map[string]any:
		return Schema(t), t != nil
	}
	return nil, false
}

// Map exposes the underlying document.
func (s Schema) Map() map[string]any { return map[string]any(s) }

// Clone deep-copies the document.
func (s Schema) Clone() Schema { return Schema(values.CopyMap(s)) }

// Sub returns the sub-schema stored under key.
func (s Schema) Sub(key string) (Schema, bool) { return As(s[key]) }

// Types returns the declared types: one entry for `type: "x"`, every entry for
// the array form, nil when untyped.
func (s Schema) Types() []string {
	switch t := s["type"].(type) {
	case string:
		return []string{t}
	case []any, []string:
		return values.Strings(t)
	}
	return nil
}

// Type returns the primary type: the single declared type, or the first
// non-null member of the array form.
func (s Schema) Type() string {
	ts := s.Types()
	for _, t := range ts {
		if t != TypeNull {
			return t
		}
	}
	if len(ts) > 0 {
		return ts[0]
	}
	return ""
}

// HasType reports whether t is among the declared types.
func (s Schema) HasType(t string) bool { return slices.Contains(s.Types(), t) }

// Nullable reports `nullable: true` or a null member in the type array.
func (s Schema) Nullable() bool {
	if b, _ := s["nullable"].(bool); b {
		return true
	}
	ts := s.Types()
	return len(ts) > 1 && slices.Contains(ts, TypeNull)
}

// Properties returns the properties map (nil when absent).
func (s Schema) Properties() map[string]any {
	m, _ := s["properties"].(map[string]any)
	return m
}

// Property returns the sub-schema of a named property.
func (s Schema) Property(name string) (Schema, bool) {
	return As(s.Properties()[name])
}

// Required returns the required property names.
func (s Schema) Required() []string { return values.Strings(s["required"]) }

// Items returns the items schema when it is an object.
func (s Schema) Items() (Schema, bool) { return As(s["items"]) }

// ItemsFalse reports the closed-tuple form `items: false`.
func (s Schema) ItemsFalse() bool {
	b, ok := s["items"].(bool)
	return ok && !b
}

// PrefixItems returns the tuple schemas; ok is false when prefixItems is absent.
func (s Schema) PrefixItems() ([]Schema, bool) {
	arr, ok := s["prefixItems"].([]any)
	if !ok {
		return nil, false
	}
	out := make([]Schema, 0, len(arr))
	for _, it := range arr {
		sub, _ := As(it)
		out = append(out, sub)
	}
	return out, true
}

// List returns the sub-schemas of a combinator keyword (allOf/anyOf/oneOf).
// Non-object members are returned as nil entries to keep indices aligned.
func (s Schema) List(keyword string) []Schema {
	arr, _ := s[keyword].([]any)
	if len(arr) == 0 {
		return nil
	}
	out := make([]Schema, len(arr))
	for i, it := range arr {
		out[i], _ = As(it)
	}
	return out
}

// OneOf returns the oneOf variants.
func (s Schema) OneOf() []Schema { return s.List("oneOf") }

// AnyOf returns the anyOf variants.
func (s Schema) AnyOf() []Schema { return s.List("anyOf") }

// AllOf returns the allOf fragments.
func (s Schema) AllOf() []Schema { return s.List("allOf") }

// Computed returns the computed keyword map.
func (s Schema) Computed() map[string]any {
	m, _ := s["computed"].(map[string]any)
	return m
}

// Alias returns the `&<field>` shorthand value.
func (s Schema) Alias(field string) (any, bool) {
	v, ok := s["&"+field]
	return v, ok
}

// Virtual returns the virtual field definitions as name -> backing fields.
func (s Schema) Virtual() map[string][]string {
	m, _ := s["virtual"].(map[string]any)
	if len(m) == 0 {
		return nil
	}
	out := make(map[string][]string, len(m))
	for name, raw := range m {
		def, _ := raw.(map[string]any)
		out[name] = values.Strings(def["fields"])
	}
	return out
}

// Int reads an integer-valued keyword such as minItems.
func (s Schema) Int(key string) (int, bool) {
	f, ok := values.ToFloat(s[key])
	if !ok {
		return 0, false
	}
	return int(f), true
}

// Number reads a numeric keyword such as minimum.
func (s Schema) Number(key string) (float64, bool) {
	return values.ToFloat(s[key])
}
