package allof

import (
	"sort"

	schemaform "github.com/reoring/schemaform"
	"github.com/reoring/schemaform/internal/values"
	"github.com/reoring/schemaform/schema"
)

// firstWin keywords keep the value of the first fragment that sets them.
var firstWin = map[string]bool{
	"title":                true,
	"description":          true,
	"$comment":             true,
	"examples":             true,
	"default":              true,
	"readOnly":             true,
	"writeOnly":            true,
	"format":               true,
	"additionalProperties": true,
	"patternProperties":    true,
}

// ignored keywords are never copied from a fragment.
var ignored = map[string]bool{
	"allOf":             true,
	"anyOf":             true,
	"oneOf":             true,
	"not":               true,
	"if":                true,
	"then":              true,
	"else":              true,
	"dependencies":      true,
	"dependentSchemas":  true,
	"dependentRequired": true,
	"$defs":             true,
	"definitions":       true,
	"$id":               true,
	"$schema":           true,
	"$ref":              true,
}

// lower bounds map to their upper counterparts.
var ranges = []struct{ min, max string }{
	{"minimum", "maximum"},
	{"exclusiveMinimum", "exclusiveMaximum"},
	{"minLength", "maxLength"},
	{"minItems", "maxItems"},
	{"minProperties", "maxProperties"},
	{"minContains", "maxContains"},
}

var (
	lowerBounds = map[string]bool{}
	upperBounds = map[string]bool{}
)

func init() {
	for _, r := range ranges {
		lowerBounds[r.min] = true
		upperBounds[r.max] = true
	}
}

// Merge intersects source into base and returns the result. Neither input is
// modified: nested schemas that change are copied first. Conflicting
// properties, items and prefixItems are not merged eagerly; the source
// sub-schema is appended to the sub-schema's own allOf.
func Merge(base, source schema.Schema) (schema.Schema, error) {
	return merge(base, source, nil)
}

func merge(base, source schema.Schema, d *schema.Diag) (schema.Schema, error) {
	if !ValidateCompatibility(base, source) {
		return nil, schemaform.NewError(schemaform.CodeIncompatibleType, "base", base["type"], "source", source["type"])
	}
	out := make(schema.Schema, len(base)+len(source))
	for k, v := range base {
		out[k] = v
	}

	keys := make([]string, 0, len(source))
	for k := range source {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		sv := source[k]
		bv, has := out[k]
		switch {
		case ignored[k]:
			if k != "allOf" {
				d.Warnf("allOf: ignoring %q in fragment", k)
			}
		case firstWin[k], k == "type":
			if !has {
				out[k] = sv
			}
		case !has:
			out[k] = sv
		case k == "properties":
			out[k] = distributeMap(bv, sv)
		case k == "items":
			out[k] = distribute(bv, sv)
		case k == "prefixItems":
			out[k] = distributeList(bv, sv)
		case k == "enum":
			a, _ := bv.([]any)
			b, _ := sv.([]any)
			merged, err := IntersectEnum(a, b)
			if err != nil {
				return nil, err
			}
			out[k] = merged
		case k == "const":
			if !values.DeepEqual(bv, sv) {
				return nil, schemaform.NewError(schemaform.CodeConstConflict, "base", bv, "source", sv)
			}
		case k == "required":
			out[k] = IntersectRequired(bv, sv)
		case lowerBounds[k]:
			out[k] = IntersectMinimum(bv, sv)
		case upperBounds[k]:
			out[k] = IntersectMaximum(bv, sv)
		case k == "uniqueItems":
			out[k] = values.Truthy(bv) || values.Truthy(sv)
		case k == "multipleOf":
			out[k] = IntersectMultipleOf(bv, sv)
		case k == "pattern":
			a, _ := bv.(string)
			b, _ := sv.(string)
			out[k] = IntersectPattern(a, b)
		default:
			out[k] = sv
		}
	}

	if c, ok := out["const"]; ok {
		if enum, ok := out["enum"].([]any); ok {
			filtered, err := IntersectEnum(enum, []any{c})
			if err != nil {
				return nil, schemaform.NewError(schemaform.CodeConstConflict, "const", c, "enum", enum)
			}
			out["enum"] = filtered
		}
	}
	if err := validateRanges(out); err != nil {
		return nil, err
	}
	return out, nil
}

func validateRanges(s schema.Schema) error {
	typ := s.Type()
	if typ == "" {
		typ = "schema"
	}
	for _, r := range ranges {
		lo, okLo := values.ToFloat(s[r.min])
		hi, okHi := values.ToFloat(s[r.max])
		if okLo && okHi && lo > hi {
			return schemaform.Errorf(schemaform.CodeInvalidRange, "Invalid %s constraints: %s (%s > %s)",
				typ, r.min, values.Stringify(s[r.min]), values.Stringify(s[r.max])).
				WithDetails("field", r.min, r.min, s[r.min], r.max, s[r.max])
		}
	}
	return nil
}

// distribute defers the merge of two sub-schemas by appending source to a
// copy of base's allOf.
func distribute(base, source any) any {
	bs, ok := schema.As(base)
	if !ok {
		// boolean schemas: true accepts anything, false stays false
		if b, isBool := base.(bool); isBool && b {
			return source
		}
		return base
	}
	if _, ok := schema.As(source); !ok {
		if b, isBool := source.(bool); isBool && !b {
			return false
		}
		return base
	}
	out := make(schema.Schema, len(bs)+1)
	for k, v := range bs {
		out[k] = v
	}
	prev, _ := bs["allOf"].([]any)
	allOf := make([]any, len(prev), len(prev)+1)
	copy(allOf, prev)
	out["allOf"] = append(allOf, source)
	return map[string]any(out)
}

func distributeMap(base, source any) any {
	bm, ok := base.(map[string]any)
	if !ok {
		return source
	}
	sm, ok := source.(map[string]any)
	if !ok {
		return base
	}
	out := make(map[string]any, len(bm)+len(sm))
	for k, v := range bm {
		out[k] = v
	}
	for k, v := range sm {
		if prev, ok := out[k]; ok {
			out[k] = distribute(prev, v)
		} else {
			out[k] = v
		}
	}
	return out
}

func distributeList(base, source any) any {
	bl, ok := base.([]any)
	if !ok {
		return source
	}
	sl, ok := source.([]any)
	if !ok {
		return base
	}
	n := max(len(bl), len(sl))
	out := make([]any, n)
	for i := 0; i < n; i++ {
		switch {
		case i >= len(bl):
			out[i] = sl[i]
		case i >= len(sl):
			out[i] = bl[i]
		default:
			out[i] = distribute(bl[i], sl[i])
		}
	}
	return out
}
