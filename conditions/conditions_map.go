package conditions

import (
	"strings"

	"github.com/reoring/schemaform/expr"
	"github.com/reoring/schemaform/internal/values"
	"github.com/reoring/schemaform/pointer"
)

// ConditionsMap renders every gate of every gated field as an expression
// over parent (default "."). The result compiles with the expr package.
func ConditionsMap(fcm FieldConditionMap, parent string) map[string][]string {
	if parent == "" {
		parent = "."
	}
	parent = strings.TrimSuffix(parent, "/")
	out := make(map[string][]string)
	for _, field := range fcm.Gated() {
		for _, g := range fcm[field].Gates {
			out[field] = append(out[field], gateExpression(g, parent))
		}
	}
	return out
}

func gateExpression(g Gate, parent string) string {
	keys := g.Condition.Keys()
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		path := parent + "/" + pointer.Escape(key)
		switch v := g.Condition[key].(type) {
		case string:
			op := "==="
			if g.Inverse {
				op = "!=="
			}
			parts = append(parts, path+op+quote(v))
		case []string:
			lits := make([]string, len(v))
			for i, s := range v {
				lits[i] = quote(s)
			}
			e := "[" + strings.Join(lits, ",") + "].includes(" + path + ")"
			if g.Inverse {
				e = "!" + e
			}
			parts = append(parts, e)
		}
	}
	return strings.Join(parts, "&&")
}

func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`)
	return `"` + r.Replace(s) + `"`
}

// CompileConditionsMap compiles cm into one predicate per field that holds
// when any of its gates holds. Dependency values are stringified before
// evaluation, so predicates agree with Gate.Matches.
func CompileConditionsMap(pm expr.Registry, cm map[string][]string) (map[string]expr.Func, error) {
	out := make(map[string]expr.Func, len(cm))
	for field, gates := range cm {
		if len(gates) == 0 {
			continue
		}
		wrapped := make([]string, len(gates))
		for i, g := range gates {
			wrapped[i] = "(" + g + ")"
		}
		f, err := expr.Compile(pm, field, strings.Join(wrapped, "||"), true)
		if err != nil {
			return nil, err
		}
		out[field] = stringifyDeps(f)
	}
	return out, nil
}

func stringifyDeps(f expr.Func) expr.Func {
	return func(deps []any) any {
		sd := make([]any, len(deps))
		for i, d := range deps {
			if d != nil {
				sd[i] = values.Stringify(d)
			}
		}
		return f(sd)
	}
}
