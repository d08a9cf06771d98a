package expr_test

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	schemaform "github.com/reoring/schemaform"
	"github.com/reoring/schemaform/expr"
)

func TestCompile_RegistersPathsInOrder(t *testing.T) {
	pm := expr.NewPathManager()

	visible, err := expr.Compile(pm, "visible", `../status === "active" && /flags/beta`, true)
	require.NoError(t, err)
	disabled, err := expr.Compile(pm, "disabled", `#/locked || ../status === "closed";`, true)
	require.NoError(t, err)

	assert.Equal(t, []string{"../status", "/flags/beta", "#/locked"}, pm.Paths())

	deps := []any{"active", true, false}
	assert.Equal(t, true, visible(deps))
	assert.Equal(t, false, disabled(deps))

	deps = []any{"closed", true, false}
	assert.Equal(t, false, visible(deps))
	assert.Equal(t, true, disabled(deps))
}

func TestCompile_EmptyExpression(t *testing.T) {
	pm := expr.NewPathManager()
	for _, raw := range []string{"", "   ", ";", " ; ;"} {
		f, err := expr.Compile(pm, "visible", raw, true)
		require.NoError(t, err)
		assert.Nil(t, f, "raw %q", raw)
	}
	assert.Equal(t, 0, pm.Len())
}

func TestCompile_RawValuesWithoutCoercion(t *testing.T) {
	pm := expr.NewPathManager()
	f, err := expr.Compile(pm, "derived", `../price * ../qty + 1`, false)
	require.NoError(t, err)
	assert.Equal(t, float64(31), f([]any{json.Number("10"), 3}))

	label, err := expr.Compile(pm, "derived", `"#" + ../qty`, false)
	require.NoError(t, err)
	assert.Equal(t, "#3", label([]any{json.Number("10"), 3}))

	pick, err := expr.Compile(pm, "derived", `../qty > 2 ? 'many' : 'few'`, false)
	require.NoError(t, err)
	assert.Equal(t, "many", pick([]any{nil, 3}))
	assert.Equal(t, "few", pick([]any{nil, 1}))
}

func TestCompile_IncludesAndMembers(t *testing.T) {
	pm := expr.NewPathManager()
	f, err := expr.Compile(pm, "visible", `["a", "b"].includes(../kind) && ../tags.length > 1 && ../user.name !== null`, true)
	require.NoError(t, err)

	deps := []any{"b", []any{"x", "y"}, map[string]any{"name": "kim"}}
	assert.Equal(t, true, f(deps))

	deps = []any{"c", []any{"x", "y"}, map[string]any{"name": "kim"}}
	assert.Equal(t, false, f(deps))

	g, err := expr.Compile(pm, "visible", `../tags.includes("y") && ../tags[0] === "x" && ../kind.startsWith("b")`, true)
	require.NoError(t, err)
	assert.Equal(t, true, g([]any{"bee", []any{"x", "y"}, nil}))
}

func TestCompile_StrictAndLooseEquality(t *testing.T) {
	pm := expr.NewPathManager()
	strict, err := expr.Compile(pm, "active", `../n === 1`, true)
	require.NoError(t, err)
	loose, err := expr.Compile(pm, "active", `../n == 1`, true)
	require.NoError(t, err)

	assert.Equal(t, true, strict([]any{json.Number("1")}))
	assert.Equal(t, false, strict([]any{"1"}))
	assert.Equal(t, true, loose([]any{"1"}))
	// missing dependency reads as undefined
	assert.Equal(t, false, strict(nil))
}

func TestCompile_RelativeChains(t *testing.T) {
	pm := expr.NewPathManager()
	_, err := expr.Compile(pm, "visible", `../../a/b === ./c && !../a/../d`, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"../../a/b", "./c", "../a/../d"}, pm.Paths())
}

func TestCompile_SyntaxErrorsDoNotRegister(t *testing.T) {
	pm := expr.NewPathManager()
	cases := []string{
		`../a ===`,
		`../a / 2`,
		`(../a`,
		`unknownFn(../a)`,
		`../a.map(1)`,
		`"unterminated`,
		`../a # 1`,
	}
	for _, raw := range cases {
		f, err := expr.Compile(pm, "visible", raw, true)
		require.Error(t, err, "raw %q", raw)
		assert.Nil(t, f)
		e, ok := schemaform.AsError(err)
		require.True(t, ok)
		assert.Equal(t, schemaform.CodeInvalidExpression, e.Code)
		assert.Equal(t, "visible", e.Details["field"])
	}
	assert.Equal(t, 0, pm.Len())
}

func TestCompileList_Watch(t *testing.T) {
	pm := expr.NewPathManager()
	fns, err := expr.CompileList(pm, "watch", []any{"../a", "/b"})
	require.NoError(t, err)
	require.Len(t, fns, 2)
	deps := []any{1, "two"}
	assert.Equal(t, 1, fns[0](deps))
	assert.Equal(t, "two", fns[1](deps))

	single, err := expr.CompileList(pm, "watch", "../a")
	require.NoError(t, err)
	require.Len(t, single, 1)
	assert.Equal(t, 2, pm.Len(), "re-registering a path must reuse its slot")

	_, err = expr.CompileList(pm, "watch", []any{"../a", 3})
	assert.True(t, schemaform.HasCode(err, schemaform.CodeObservedValues))
	_, err = expr.CompileList(pm, "watch", map[string]any{})
	assert.True(t, schemaform.HasCode(err, schemaform.CodeObservedValues))
}

func TestProgram_ReusableAcrossManagers(t *testing.T) {
	p, err := expr.Parse(`../a === ../b || ../a === 3`)
	require.NoError(t, err)
	assert.Equal(t, []string{"../a", "../b"}, p.Paths())

	pm1 := expr.NewPathManager()
	pm1.Add("/other")
	f1 := p.Bind(pm1, true)

	pm2 := expr.NewPathManager()
	f2 := p.Bind(pm2, true)

	assert.Equal(t, true, f1([]any{nil, 3, 0}))
	assert.Equal(t, true, f2([]any{3, 0}))
	assert.Equal(t, false, f2([]any{1, 0}))
}

func TestPathManager_Collect(t *testing.T) {
	pm := expr.NewPathManager()
	pm.Add("/a")
	pm.Add("/b")
	assert.Equal(t, 0, pm.Add("/a"))
	deps := pm.Collect(func(p string) any { return p + "!" })
	assert.Equal(t, []any{"/a!", "/b!"}, deps)
	i, ok := pm.Index("/b")
	assert.True(t, ok)
	assert.Equal(t, 1, i)
}

func TestFunc_Bool(t *testing.T) {
	var nilFn expr.Func
	_, ok := nilFn.Bool(nil)
	assert.False(t, ok)
	v, ok := expr.Constant("x").Bool(nil)
	assert.True(t, ok)
	assert.True(t, v)
}

func TestScope_ResolvesRelativePaths(t *testing.T) {
	pm := expr.NewPathManager()
	name, err := expr.Compile(pm.At("/user/name"), "visible", `../age > 17 && #/enabled`, true)
	require.NoError(t, err)
	email, err := expr.Compile(pm.At("/user/email"), "visible", `../age > 17`, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"/user/age", "/enabled"}, pm.Paths())

	deps := []any{21, true}
	assert.Equal(t, true, name(deps))
	assert.Equal(t, true, email(deps))
	assert.Equal(t, false, email([]any{3, true}))
}
