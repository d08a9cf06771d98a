package schema

import (
	"strings"

	"github.com/reoring/schemaform/internal/values"
	"github.com/reoring/schemaform/pointer"
)

// subschemaMaps are keywords whose value is a map of schemas.
var subschemaMaps = []string{"properties", "patternProperties", "$defs", "definitions", "dependentSchemas"}

// subschemaLists are keywords whose value is a list of schemas.
var subschemaLists = []string{"allOf", "anyOf", "oneOf", "prefixItems"}

// subschemaSingles are keywords whose value is a single schema.
var subschemaSingles = []string{"items", "additionalProperties", "not", "if", "then", "else", "contains", "propertyNames"}

// ResolveRefs expands local $refs in place. The referenced definition is
// deep-copied and merged shallowly under the referencing schema, keeping the
// referencing schema's explicit keywords. Remote and unknown references stay
// as they are and are reported through d.
func ResolveRefs(root Schema, d *Diag) {
	r := &refResolver{root: root, d: d, visiting: map[string]bool{}}
	r.walk(root)
}

type refResolver struct {
	root     Schema
	d        *Diag
	visiting map[string]bool
}

func (r *refResolver) walk(node map[string]any) {
	if node == nil {
		return
	}
	if ref, ok := node["$ref"].(string); ok {
		r.expand(node, ref)
	}
	for _, kw := range subschemaMaps {
		if kw == "$defs" || kw == "definitions" {
			// definitions are expanded where referenced
			continue
		}
		if m, ok := node[kw].(map[string]any); ok {
			for _, v := range m {
				if sub, ok := v.(map[string]any); ok {
					r.walk(sub)
				}
			}
		}
	}
	for _, kw := range subschemaLists {
		if arr, ok := node[kw].([]any); ok {
			for _, v := range arr {
				if sub, ok := v.(map[string]any); ok {
					r.walk(sub)
				}
			}
		}
	}
	for _, kw := range subschemaSingles {
		if sub, ok := node[kw].(map[string]any); ok {
			r.walk(sub)
		}
	}
}

func (r *refResolver) expand(node map[string]any, ref string) {
	if !strings.HasPrefix(ref, "#/$defs/") && !strings.HasPrefix(ref, "#/definitions/") {
		r.d.Warnf("$ref %q not supported (local $defs/definitions only)", ref)
		return
	}
	target, ok := pointer.Find(map[string]any(r.root), ref)
	def, isMap := target.(map[string]any)
	if !ok || !isMap {
		r.d.Warnf("$ref to unknown definition %s", ref)
		return
	}
	if r.visiting[ref] {
		r.d.Warnf("cyclic $ref detected at %s (skipping expansion)", ref)
		return
	}
	r.visiting[ref] = true
	expanded := values.CopyMap(def)
	r.walk(expanded)
	delete(r.visiting, ref)
	delete(node, "$ref")
	for k, v := range expanded {
		if _, exists := node[k]; !exists {
			node[k] = v
		}
	}
}
