package allof

import (
	"strings"

	schemaform "github.com/reoring/schemaform"
	"github.com/reoring/schemaform/pointer"
	"github.com/reoring/schemaform/schema"
)

// Resolve folds the allOf fragments of s into one schema without allOf.
// Nested fragments left by distribution stay in the sub-schemas; resolve
// them with ResolveProperty, ResolveItems or ResolveDeep.
func Resolve(s schema.Schema) (schema.Schema, error) {
	return resolve(s, nil)
}

// ResolveWithDiag is Resolve recording ignored fragment keywords in d.
func ResolveWithDiag(s schema.Schema, d *schema.Diag) (schema.Schema, error) {
	return resolve(s, d)
}

func resolve(s schema.Schema, d *schema.Diag) (schema.Schema, error) {
	frags := s.AllOf()
	if len(frags) == 0 {
		return s, nil
	}
	out := make(schema.Schema, len(s))
	for k, v := range s {
		if k != "allOf" {
			out[k] = v
		}
	}
	for i, frag := range frags {
		if frag == nil {
			continue
		}
		at := pointer.Root().Keyword("allOf").Index(i)
		resolved, err := resolve(frag, d)
		if err != nil {
			return nil, prefixPath(err, at)
		}
		merged, err := merge(out, resolved, d)
		if err != nil {
			return nil, prefixPath(err, at)
		}
		out = merged
	}
	return out, nil
}

// ResolveProperty resolves the named property schema of s. ok is false when
// the property is not declared.
func ResolveProperty(s schema.Schema, name string) (schema.Schema, bool, error) {
	p, ok := s.Property(name)
	if !ok {
		return nil, false, nil
	}
	r, err := Resolve(p)
	if err != nil {
		return nil, true, prefixPath(err, pointer.Root().Keyword("properties", name))
	}
	return r, true, nil
}

// ResolveItems resolves the schema of the array element at index: the
// matching prefixItems entry, else items. It returns nil when the element
// has no schema.
func ResolveItems(s schema.Schema, index int) (schema.Schema, error) {
	at := pointer.Root().Keyword("items")
	sub, ok := s.Items()
	if prefix, has := s.PrefixItems(); has && index < len(prefix) {
		at = pointer.Root().Keyword("prefixItems").Index(index)
		sub, ok = prefix[index], prefix[index] != nil
	}
	if !ok {
		return nil, nil
	}
	r, err := Resolve(sub)
	if err != nil {
		return nil, prefixPath(err, at)
	}
	return r, nil
}

// ResolveDeep resolves s and every nested schema reachable through
// properties, items, prefixItems, oneOf and anyOf.
func ResolveDeep(s schema.Schema) (schema.Schema, error) {
	return resolveDeep(s, nil)
}

// ResolveDeepWithDiag is ResolveDeep recording ignored keywords in d.
func ResolveDeepWithDiag(s schema.Schema, d *schema.Diag) (schema.Schema, error) {
	return resolveDeep(s, d)
}

func resolveDeep(s schema.Schema, d *schema.Diag) (schema.Schema, error) {
	out, err := resolve(s, d)
	if err != nil {
		return nil, err
	}
	copied := false
	set := func(k string, v any) {
		if !copied {
			c := make(schema.Schema, len(out))
			for k, v := range out {
				c[k] = v
			}
			out, copied = c, true
		}
		out[k] = v
	}

	if props := out.Properties(); len(props) > 0 {
		np := make(map[string]any, len(props))
		for name, raw := range props {
			p, ok := schema.As(raw)
			if !ok {
				np[name] = raw
				continue
			}
			r, err := resolveDeep(p, d)
			if err != nil {
				return nil, prefixPath(err, pointer.Root().Keyword("properties", name))
			}
			np[name] = map[string]any(r)
		}
		set("properties", np)
	}
	if items, ok := out.Items(); ok {
		r, err := resolveDeep(items, d)
		if err != nil {
			return nil, prefixPath(err, pointer.Root().Keyword("items"))
		}
		set("items", map[string]any(r))
	}
	for _, kw := range []string{"prefixItems", "oneOf", "anyOf"} {
		list, ok := out[kw].([]any)
		if !ok {
			continue
		}
		nl := make([]any, len(list))
		for i, raw := range list {
			sub, ok := schema.As(raw)
			if !ok {
				nl[i] = raw
				continue
			}
			r, err := resolveDeep(sub, d)
			if err != nil {
				return nil, prefixPath(err, pointer.Root().Keyword(kw).Index(i))
			}
			nl[i] = map[string]any(r)
		}
		set(kw, nl)
	}
	return out, nil
}

// prefixPath prepends at to the location of an engine error.
func prefixPath(err error, at pointer.Ref) error {
	e, ok := schemaform.AsError(err)
	if !ok {
		return err
	}
	rest := strings.TrimPrefix(e.Path, "#")
	e.Path = at.Fragment() + rest
	return e
}
