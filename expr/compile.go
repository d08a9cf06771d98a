package expr

import (
	"errors"
	"strings"

	schemaform "github.com/reoring/schemaform"
	"github.com/reoring/schemaform/internal/values"
)

// Func evaluates a compiled expression against the dependency values, which
// are ordered by PathManager slot.
type Func func(deps []any) any

// Bool evaluates f and applies truthiness; a nil Func reports ok=false.
func (f Func) Bool(deps []any) (v bool, ok bool) {
	if f == nil {
		return false, false
	}
	return values.Truthy(f(deps)), true
}

// Program is a parsed expression, independent of any PathManager.
type Program struct {
	src  string
	root node
	refs []*pathRef
}

// Parse parses an expression. Trailing semicolons are ignored; a blank
// expression yields (nil, nil).
func Parse(raw string) (*Program, error) {
	src := trimExpression(raw)
	if src == "" {
		return nil, nil
	}
	root, refs, err := parse(src)
	if err != nil {
		return nil, err
	}
	return &Program{src: src, root: root, refs: refs}, nil
}

func trimExpression(raw string) string {
	src := strings.TrimSpace(raw)
	for strings.HasSuffix(src, ";") {
		src = strings.TrimSpace(strings.TrimSuffix(src, ";"))
	}
	return src
}

// String returns the normalized source.
func (p *Program) String() string { return p.src }

// Paths returns the distinct dependency paths in order of first use.
func (p *Program) Paths() []string {
	seen := make(map[string]bool, len(p.refs))
	var out []string
	for _, r := range p.refs {
		if !seen[r.path] {
			seen[r.path] = true
			out = append(out, r.path)
		}
	}
	return out
}

// Bind registers the program's paths in pm and returns the evaluator.
func (p *Program) Bind(pm Registry, coerce bool) Func {
	slots := make([]int, len(p.refs))
	for i, r := range p.refs {
		slots[i] = pm.Add(r.path)
	}
	root := p.root
	if coerce {
		return func(deps []any) any {
			return values.Truthy(root.eval(&env{deps: deps, slots: slots}))
		}
	}
	return func(deps []any) any {
		return root.eval(&env{deps: deps, slots: slots})
	}
}

// Compile parses raw and binds it to pm. Paths are registered only when the
// expression is valid. field names the schema keyword being compiled and is
// reported in errors. coerce applies boolean truthiness to the result.
func Compile(pm Registry, field, raw string, coerce bool) (Func, error) {
	p, err := Parse(raw)
	if err != nil {
		return nil, expressionError(field, raw, err)
	}
	if p == nil {
		return nil, nil
	}
	return p.Bind(pm, coerce), nil
}

// CompileList compiles a watch-style list: a single expression string or an
// array of expression strings, each returning its raw value.
func CompileList(pm Registry, field string, raw any) ([]Func, error) {
	var exprs []string
	switch t := raw.(type) {
	case nil:
		return nil, nil
	case string:
		exprs = []string{t}
	case []string:
		exprs = t
	case []any:
		for _, it := range t {
			s, ok := it.(string)
			if !ok {
				return nil, schemaform.NewError(schemaform.CodeObservedValues, "field", field, "value", raw)
			}
			exprs = append(exprs, s)
		}
	default:
		return nil, schemaform.NewError(schemaform.CodeObservedValues, "field", field, "value", raw)
	}
	out := make([]Func, 0, len(exprs))
	for _, s := range exprs {
		f, err := Compile(pm, field, s, false)
		if err != nil {
			return nil, err
		}
		if f == nil {
			f = func([]any) any { return nil }
		}
		out = append(out, f)
	}
	return out, nil
}

// Constant returns a Func that always yields v.
func Constant(v any) Func { return func([]any) any { return v } }

func expressionError(field, raw string, err error) error {
	e := schemaform.NewError(schemaform.CodeInvalidExpression, "field", field, "expression", raw)
	var se *SyntaxError
	if errors.As(err, &se) {
		e.WithDetails("offset", se.Offset)
	}
	e.Cause = err
	return e
}
