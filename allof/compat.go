package allof

import (
	"slices"

	"github.com/reoring/schemaform/internal/values"
	"github.com/reoring/schemaform/schema"
)

// ValidateCompatibility reports whether source may be merged into base. A
// side without a type is compatible with anything; otherwise the declared
// types must be equal as sets. number and integer are distinct.
func ValidateCompatibility(base, source schema.Schema) bool {
	st := typeSet(source["type"])
	if st == nil {
		return true
	}
	bt := typeSet(base["type"])
	if bt == nil {
		return true
	}
	if len(bt) != len(st) {
		return false
	}
	for _, t := range st {
		if !slices.Contains(bt, t) {
			return false
		}
	}
	return true
}

func typeSet(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any, []string:
		out := values.Strings(t)
		slices.Sort(out)
		return slices.Compact(out)
	}
	return nil
}
