package allof_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	schemaform "github.com/reoring/schemaform"
	"github.com/reoring/schemaform/allof"
	"github.com/reoring/schemaform/schema"
)

func TestValidateCompatibility(t *testing.T) {
	cases := []struct {
		name         string
		base, source schema.Schema
		want         bool
	}{
		{"number vs integer", schema.Schema{"type": "number"}, schema.Schema{"type": "integer"}, false},
		{"same type", schema.Schema{"type": "string"}, schema.Schema{"type": "string"}, true},
		{"nullable any order", schema.Schema{"type": []any{"string", "null"}}, schema.Schema{"type": []any{"null", "string"}}, true},
		{"nullable vs plain", schema.Schema{"type": []any{"string", "null"}}, schema.Schema{"type": "string"}, false},
		{"nullable member differs", schema.Schema{"type": []any{"string", "null"}}, schema.Schema{"type": []any{"null", "number"}}, false},
		{"untyped source", schema.Schema{"type": "object"}, schema.Schema{"minProperties": 1}, true},
		{"untyped base", schema.Schema{}, schema.Schema{"type": "array"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, allof.ValidateCompatibility(tc.base, tc.source))
		})
	}
}

func TestIntersectEnum(t *testing.T) {
	a := []any{"a", "b", 1, []any{1, 2}, map[string]any{"k": "v"}}
	got, err := allof.IntersectEnum(a, a)
	require.NoError(t, err)
	assert.Equal(t, a, got)

	got, err = allof.IntersectEnum([]any{"a", "b", "c"}, []any{"c", "a", "z"})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "c"}, got)

	got, err = allof.IntersectEnum([]any{[]any{1, 2}, []any{3}}, []any{[]any{float64(1), float64(2)}})
	require.NoError(t, err)
	assert.Equal(t, []any{[]any{1, 2}}, got)

	_, err = allof.IntersectEnum([]any{"a"}, []any{"b"})
	assert.True(t, schemaform.HasCode(err, schemaform.CodeEmptyEnumIntersection))
}

func TestIntersectBounds(t *testing.T) {
	assert.Equal(t, 3, allof.IntersectMinimum(1, 3))
	assert.Equal(t, 3, allof.IntersectMinimum(3, 1))
	assert.Equal(t, 5, allof.IntersectMaximum(10, 5))
	assert.Equal(t, 5, allof.IntersectMaximum(5, 10))
	assert.Equal(t, 2, allof.IntersectMinimum(nil, 2))
	assert.Equal(t, float64(12), allof.IntersectMultipleOf(4, 6))
	assert.Equal(t, 1.5, allof.IntersectMultipleOf(0.5, 1.5))
	assert.Equal(t, 0.6, allof.IntersectMultipleOf(0.2, 0.3))
	assert.Equal(t, 1.5, allof.IntersectMultipleOf(0.5, 0.3))
	assert.Equal(t, 0.5, allof.IntersectMultipleOf(nil, 0.5))
	assert.Equal(t, "^(?=.*(?:^a))(?=.*(?:z$))", allof.IntersectPattern("^a", "z$"))
	assert.Equal(t, "^a", allof.IntersectPattern("^a", "^a"))
}

func TestMerge_MultipleOfImpliesBoth(t *testing.T) {
	merged, err := allof.Merge(
		schema.Schema{"type": "number", "multipleOf": 0.5},
		schema.Schema{"multipleOf": 0.3},
	)
	require.NoError(t, err)
	got, ok := merged["multipleOf"].(float64)
	require.True(t, ok)
	assert.Equal(t, 1.5, got)
	for _, d := range []float64{0.5, 0.3} {
		q := got / d
		assert.InDelta(t, math.Round(q), q, 1e-9, "%v is not a multiple of %v", got, d)
	}
}

func TestMerge_RangeOrderIndependent(t *testing.T) {
	wide := schema.Schema{"type": "number", "minimum": 1, "maximum": 10}
	narrow := schema.Schema{"type": "number", "minimum": 3, "maximum": 5}

	ab, err := allof.Merge(wide, narrow)
	require.NoError(t, err)
	ba, err := allof.Merge(narrow, wide)
	require.NoError(t, err)

	want := schema.Schema{"type": "number", "minimum": 3, "maximum": 5}
	if diff := cmp.Diff(want, ab); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, ba); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	// inputs untouched
	assert.Equal(t, 1, wide["minimum"])
}

func TestMerge_InvalidRange(t *testing.T) {
	_, err := allof.Merge(schema.Schema{"type": "number", "minimum": 10}, schema.Schema{"maximum": 5})
	require.Error(t, err)
	e, ok := schemaform.AsError(err)
	require.True(t, ok)
	assert.Equal(t, schemaform.CodeInvalidRange, e.Code)
	assert.Equal(t, "Invalid number constraints: minimum (10 > 5)", e.Message)

	_, err = allof.Merge(schema.Schema{"type": "string", "minLength": 4}, schema.Schema{"type": "string", "maxLength": 2})
	e, _ = schemaform.AsError(err)
	require.NotNil(t, e)
	assert.Equal(t, "Invalid string constraints: minLength (4 > 2)", e.Message)
}

func TestMerge_FieldPolicies(t *testing.T) {
	base := schema.Schema{
		"type":        "object",
		"title":       "Base",
		"required":    []any{"a"},
		"uniqueItems": false,
		"enum":        []any{"x", "y", "z"},
		"formType":    "card",
	}
	source := schema.Schema{
		"type":        "object",
		"title":       "Source",
		"description": "from source",
		"required":    []any{"b", "a"},
		"uniqueItems": true,
		"enum":        []any{"z", "y"},
		"formType":    "panel",
		"oneOf":       []any{map[string]any{"title": "ignored"}},
		"$ref":        "#/$defs/x",
	}
	d := &schema.Diag{}
	got, err := allof.ResolveWithDiag(schema.Schema{"allOf": []any{map[string]any(base), map[string]any(source)}}, d)
	require.NoError(t, err)
	want := schema.Schema{
		"type":        "object",
		"title":       "Base",
		"description": "from source",
		"required":    []any{"a", "b"},
		"uniqueItems": true,
		"enum":        []any{"y", "z"},
		"formType":    "panel",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	assert.Len(t, d.Warnings(), 2)
}

func TestMerge_Const(t *testing.T) {
	got, err := allof.Merge(schema.Schema{"enum": []any{"a", "b"}}, schema.Schema{"const": "b"})
	require.NoError(t, err)
	assert.Equal(t, []any{"b"}, got["enum"])

	_, err = allof.Merge(schema.Schema{"const": "a"}, schema.Schema{"const": "b"})
	assert.True(t, schemaform.HasCode(err, schemaform.CodeConstConflict))

	_, err = allof.Merge(schema.Schema{"enum": []any{"a"}}, schema.Schema{"const": "b"})
	assert.True(t, schemaform.HasCode(err, schemaform.CodeConstConflict))
}

func TestMerge_LazyDistribution(t *testing.T) {
	base := schema.Schema{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{"type": "string", "maxLength": 10},
		},
		"items": map[string]any{"type": "string"},
	}
	source := schema.Schema{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{"minLength": 2},
			"age":  map[string]any{"type": "integer"},
		},
	}
	got, err := allof.Merge(base, source)
	require.NoError(t, err)

	wantProps := map[string]any{
		"name": map[string]any{
			"type":      "string",
			"maxLength": 10,
			"allOf":     []any{map[string]any{"minLength": 2}},
		},
		"age": map[string]any{"type": "integer"},
	}
	if diff := cmp.Diff(wantProps, got["properties"]); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	// base is copied on write
	_, hasAllOf := base["properties"].(map[string]any)["name"].(map[string]any)["allOf"]
	assert.False(t, hasAllOf)

	name, ok, err := allof.ResolveProperty(got, "name")
	require.NoError(t, err)
	require.True(t, ok)
	if diff := cmp.Diff(schema.Schema{"type": "string", "maxLength": 10, "minLength": 2}, name); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestResolve_IncompatibleType(t *testing.T) {
	s := schema.Schema{"type": "number", "allOf": []any{
		map[string]any{"minimum": 1},
		map[string]any{"type": "integer"},
	}}
	_, err := allof.Resolve(s)
	e, ok := schemaform.AsError(err)
	require.True(t, ok)
	assert.Equal(t, schemaform.CodeIncompatibleType, e.Code)
	assert.Equal(t, "#/allOf/1", e.Path)
}

func TestResolveItems_Lazy(t *testing.T) {
	s := schema.Schema{
		"type": "array",
		"prefixItems": []any{
			map[string]any{"type": "string", "allOf": []any{map[string]any{"enum": []any{"a"}}}},
		},
		"items": map[string]any{"type": "number", "allOf": []any{
			map[string]any{"minimum": 5},
			map[string]any{"maximum": 1},
		}},
	}
	first, err := allof.ResolveItems(s, 0)
	require.NoError(t, err)
	assert.Equal(t, schema.Schema{"type": "string", "enum": []any{"a"}}, first)

	// the conflict only surfaces when the open items schema is materialised
	_, err = allof.ResolveItems(s, 1)
	e, ok := schemaform.AsError(err)
	require.True(t, ok)
	assert.Equal(t, schemaform.CodeInvalidRange, e.Code)
	assert.Equal(t, "#/items/allOf/1", e.Path)

	none, err := allof.ResolveItems(schema.Schema{"type": "array", "prefixItems": []any{}, "items": false}, 0)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestResolveDeep(t *testing.T) {
	s := schema.Schema{
		"allOf": []any{
			map[string]any{"type": "object", "properties": map[string]any{"n": map[string]any{"type": "integer", "minimum": 0}}},
			map[string]any{"properties": map[string]any{"n": map[string]any{"maximum": 9}}},
		},
	}
	got, err := allof.ResolveDeep(s)
	require.NoError(t, err)
	want := schema.Schema{
		"type": "object",
		"properties": map[string]any{
			"n": map[string]any{"type": "integer", "minimum": 0, "maximum": 9},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}

	bad := schema.Schema{"properties": map[string]any{
		"n": map[string]any{"allOf": []any{map[string]any{"minimum": 3}, map[string]any{"maximum": 1}}},
	}}
	_, err = allof.ResolveDeep(bad)
	e, ok := schemaform.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "#/properties/n/allOf/1", e.Path)
}
