package allof

import (
	"math"
	"math/big"
	"slices"
	"strconv"

	schemaform "github.com/reoring/schemaform"
	"github.com/reoring/schemaform/internal/values"
)

// IntersectEnum keeps the members of a that also appear in b, in a's order.
// Members compare by value, structurally for arrays and objects.
func IntersectEnum(a, b []any) ([]any, error) {
	out := make([]any, 0, len(a))
	for _, x := range a {
		if slices.ContainsFunc(b, func(y any) bool { return values.DeepEqual(x, y) }) {
			out = append(out, x)
		}
	}
	if len(out) == 0 {
		return nil, schemaform.NewError(schemaform.CodeEmptyEnumIntersection, "base", a, "source", b)
	}
	return out, nil
}

// IntersectMinimum returns the stricter (larger) lower bound. A non-numeric
// side is treated as absent.
func IntersectMinimum(a, b any) any {
	return pickBound(a, b, func(x, y float64) bool { return x >= y })
}

// IntersectMaximum returns the stricter (smaller) upper bound.
func IntersectMaximum(a, b any) any {
	return pickBound(a, b, func(x, y float64) bool { return x <= y })
}

func pickBound(a, b any, keepA func(x, y float64) bool) any {
	fa, okA := values.ToFloat(a)
	fb, okB := values.ToFloat(b)
	switch {
	case !okA && !okB:
		return nil
	case !okB:
		return a
	case !okA:
		return b
	case keepA(fa, fb):
		return a
	default:
		return b
	}
}

// IntersectRequired returns the union of two required lists.
func IntersectRequired(a, b any) []any {
	var out []any
	seen := map[string]bool{}
	for _, list := range [][]string{values.Strings(a), values.Strings(b)} {
		for _, f := range list {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out
}

// IntersectMultipleOf returns the least common multiple of a and b, so a
// value matching the result matches both. Decimal divisors are compared as
// exact rationals (0.5 and 0.3 give 1.5).
func IntersectMultipleOf(a, b any) any {
	fa, okA := values.ToFloat(a)
	fb, okB := values.ToFloat(b)
	switch {
	case !okA || fa == 0:
		return b
	case !okB || fb == 0:
		return a
	}
	ra, okA := decimal(fa)
	rb, okB := decimal(fb)
	if !okA || !okB {
		return math.Max(math.Abs(fa), math.Abs(fb))
	}
	// lcm(p1/q1, p2/q2) = lcm(p1, p2) / gcd(q1, q2)
	num := lcm(ra.Num(), rb.Num())
	den := new(big.Int).GCD(nil, nil, ra.Denom(), rb.Denom())
	f, _ := new(big.Rat).SetFrac(num, den).Float64()
	return f
}

// decimal reads f through its shortest decimal form, the way it was written
// in the schema.
func decimal(f float64) (*big.Rat, bool) {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, false
	}
	r, ok := new(big.Rat).SetString(strconv.FormatFloat(math.Abs(f), 'g', -1, 64))
	return r, ok
}

func lcm(a, b *big.Int) *big.Int {
	g := new(big.Int).GCD(nil, nil, a, b)
	out := new(big.Int).Quo(a, g)
	return out.Mul(out, b)
}

// IntersectPattern combines two patterns so a string must match both.
func IntersectPattern(a, b string) string {
	switch {
	case a == "" || a == b:
		return b
	case b == "":
		return a
	}
	return "^(?=.*(?:" + a + "))(?=.*(?:" + b + "))"
}
