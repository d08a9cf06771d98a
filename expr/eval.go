package expr

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/reoring/schemaform/internal/values"
)

// env carries the dependencies of one evaluation and the slot -> index
// mapping of the program being evaluated.
type env struct {
	deps  []any
	slots []int
}

func (e *env) lookup(slot int) any {
	i := e.slots[slot]
	if i < 0 || i >= len(e.deps) {
		return nil
	}
	return e.deps[i]
}

type node interface {
	eval(e *env) any
}

type literal struct{ v any }

func (n *literal) eval(*env) any { return n.v }

type pathRef struct {
	path string
	slot int
}

func (n *pathRef) eval(e *env) any { return e.lookup(n.slot) }

type arrayLit struct{ elems []node }

func (n *arrayLit) eval(e *env) any {
	out := make([]any, len(n.elems))
	for i, el := range n.elems {
		out[i] = el.eval(e)
	}
	return out
}

type unary struct {
	op string
	x  node
}

func (n *unary) eval(e *env) any {
	v := n.x.eval(e)
	switch n.op {
	case "!":
		return !values.Truthy(v)
	case "-":
		return -toNumber(v)
	default:
		return toNumber(v)
	}
}

// logical short-circuits and yields the deciding operand, as && and || do.
type logical struct {
	op   string
	l, r node
}

func (n *logical) eval(e *env) any {
	l := n.l.eval(e)
	if n.op == "&&" {
		if !values.Truthy(l) {
			return l
		}
		return n.r.eval(e)
	}
	if values.Truthy(l) {
		return l
	}
	return n.r.eval(e)
}

type binary struct {
	op   string
	l, r node
}

func (n *binary) eval(e *env) any {
	l, r := n.l.eval(e), n.r.eval(e)
	switch n.op {
	case "===":
		return values.StrictEqual(l, r)
	case "!==":
		return !values.StrictEqual(l, r)
	case "==":
		return looseEqual(l, r)
	case "!=":
		return !looseEqual(l, r)
	case "<", "<=", ">", ">=":
		return compareOrdered(n.op, l, r)
	case "+":
		if _, ok := l.(string); ok {
			return values.Stringify(l) + values.Stringify(r)
		}
		if _, ok := r.(string); ok {
			return values.Stringify(l) + values.Stringify(r)
		}
		return toNumber(l) + toNumber(r)
	case "-":
		return toNumber(l) - toNumber(r)
	case "*":
		return toNumber(l) * toNumber(r)
	case "%":
		return math.Mod(toNumber(l), toNumber(r))
	}
	return nil
}

type conditional struct{ cond, then, els node }

func (n *conditional) eval(e *env) any {
	if values.Truthy(n.cond.eval(e)) {
		return n.then.eval(e)
	}
	return n.els.eval(e)
}

type member struct {
	x    node
	name string
}

func (n *member) eval(e *env) any {
	return property(n.x.eval(e), n.name)
}

type index struct{ x, idx node }

func (n *index) eval(e *env) any {
	target := n.x.eval(e)
	key := n.idx.eval(e)
	if arr, ok := target.([]any); ok {
		if f, ok := values.ToFloat(key); ok && values.IsIntegral(f) {
			i := int(f)
			if i >= 0 && i < len(arr) {
				return arr[i]
			}
			return nil
		}
	}
	return property(target, values.Stringify(key))
}

type call struct {
	x      node
	method string
	args   []node
}

func (n *call) eval(e *env) any {
	target := n.x.eval(e)
	arg := n.args[0].eval(e)
	switch t := target.(type) {
	case []any:
		i := indexOf(t, arg)
		if n.method == "includes" {
			return i >= 0
		}
		if n.method == "indexOf" {
			return float64(i)
		}
	case []string:
		i := indexOf(values.Normalize(t).([]any), arg)
		if n.method == "includes" {
			return i >= 0
		}
		if n.method == "indexOf" {
			return float64(i)
		}
	case string:
		s := values.Stringify(arg)
		switch n.method {
		case "includes":
			return strings.Contains(t, s)
		case "indexOf":
			i := strings.Index(t, s)
			if i < 0 {
				return float64(-1)
			}
			return float64(utf8.RuneCountInString(t[:i]))
		case "startsWith":
			return strings.HasPrefix(t, s)
		case "endsWith":
			return strings.HasSuffix(t, s)
		}
	}
	if n.method == "indexOf" {
		return float64(-1)
	}
	return false
}

func indexOf(arr []any, v any) int {
	for i, it := range arr {
		if values.StrictEqual(it, v) {
			return i
		}
	}
	return -1
}

func property(target any, name string) any {
	switch t := target.(type) {
	case map[string]any:
		return t[name]
	case []any:
		if name == "length" {
			return float64(len(t))
		}
	case []string:
		if name == "length" {
			return float64(len(t))
		}
	case string:
		if name == "length" {
			return float64(utf8.RuneCountInString(t))
		}
	}
	return nil
}

// toNumber follows Number(v) for JSON values.
func toNumber(v any) float64 {
	switch t := v.(type) {
	case nil:
		return 0
	case bool:
		if t {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	}
	if f, ok := values.ToFloat(v); ok {
		return f
	}
	return math.NaN()
}

func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	_, as := a.(string)
	_, bs := b.(string)
	if as && bs {
		return a == b
	}
	if isPrimitive(a) && isPrimitive(b) {
		return toNumber(a) == toNumber(b)
	}
	return values.StrictEqual(a, b)
}

func isPrimitive(v any) bool {
	switch v.(type) {
	case string, bool:
		return true
	}
	return values.IsNumber(v)
}

func compareOrdered(op string, l, r any) bool {
	ls, lok := l.(string)
	rs, rok := r.(string)
	if lok && rok {
		switch op {
		case "<":
			return ls < rs
		case "<=":
			return ls <= rs
		case ">":
			return ls > rs
		default:
			return ls >= rs
		}
	}
	a, b := toNumber(l), toNumber(r)
	switch op {
	case "<":
		return a < b
	case "<=":
		return a <= b
	case ">":
		return a > b
	default:
		return a >= b
	}
}
