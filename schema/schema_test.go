package schema_test

import (
	"errors"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	schemaform "github.com/reoring/schemaform"
	"github.com/reoring/schemaform/schema"
)

func TestLoadJSON_KeepsNumbersAndAccessors(t *testing.T) {
	s, _, err := schema.LoadJSON([]byte(`{
		"type": ["string", "null"],
		"minLength": 2,
		"computed": {"visible": "../a === 1"},
		"&active": "../b",
		"virtual": {"period": {"fields": ["start", "end"]}}
	}`), schema.LoadOptions{})
	if err != nil {
		t.Fatalf("load err: %v", err)
	}
	if _, ok := s["minLength"].(json.Number); !ok {
		t.Fatalf("minLength should be json.Number, got %T", s["minLength"])
	}
	if s.Type() != "string" || !s.Nullable() || !s.HasType("null") {
		t.Fatalf("type accessors mismatch: %v", s.Types())
	}
	if n, ok := s.Int("minLength"); !ok || n != 2 {
		t.Fatalf("minLength = %d %v", n, ok)
	}
	if s.Computed()["visible"] != "../a === 1" {
		t.Fatalf("computed mismatch: %#v", s.Computed())
	}
	if v, ok := s.Alias("active"); !ok || v != "../b" {
		t.Fatalf("alias mismatch: %v", v)
	}
	if diff := cmp.Diff(map[string][]string{"period": {"start", "end"}}, s.Virtual()); diff != "" {
		t.Fatalf("virtual mismatch:\n%s", diff)
	}
}

func TestLoad_DetectsYAML(t *testing.T) {
	s, _, err := schema.Load([]byte("type: object\nproperties:\n  age:\n    type: integer\n    minimum: 3\nrequired: [age]\n"), schema.LoadOptions{})
	if err != nil {
		t.Fatalf("load err: %v", err)
	}
	age, ok := s.Property("age")
	if !ok || age.Type() != "integer" {
		t.Fatalf("age property mismatch: %#v", s.Properties())
	}
	if v, _ := age.Number("minimum"); v != 3 {
		t.Fatalf("minimum = %v", v)
	}
	if diff := cmp.Diff([]string{"age"}, s.Required()); diff != "" {
		t.Fatalf("required mismatch:\n%s", diff)
	}
}

func TestLoadYAML_NumbersMatchJSON(t *testing.T) {
	src := "minimum: 3\nmaximum: 0x10\nmultipleOf: 0.5\nconst: .inf\nnote: 012abc\ndefault: ~\nflag: true\n"
	s, _, err := schema.LoadYAML([]byte(src), schema.LoadOptions{})
	if err != nil {
		t.Fatalf("load err: %v", err)
	}
	want := schema.Schema{
		"minimum":    json.Number("3"),
		"maximum":    json.Number("16"),
		"multipleOf": json.Number("0.5"),
		"const":      ".inf",
		"note":       "012abc",
		"default":    nil,
		"flag":       true,
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}

	fromJSON, _, err := schema.LoadJSON([]byte(`{"minimum": 3, "multipleOf": 0.5}`), schema.LoadOptions{})
	if err != nil {
		t.Fatalf("load err: %v", err)
	}
	if fromJSON["minimum"] != s["minimum"] || fromJSON["multipleOf"] != s["multipleOf"] {
		t.Fatalf("JSON %#v and YAML %#v numbers differ", fromJSON, s)
	}
}

func TestLoadYAML_StrictDuplicateKey(t *testing.T) {
	_, _, err := schema.LoadYAML([]byte("type: object\ntype: string\n"), schema.LoadOptions{Strict: true})
	if err == nil {
		t.Fatalf("expected duplicate key error")
	}
	var de *schema.DuplicateKeyError
	if !errors.As(err, &de) {
		t.Fatalf("expected DuplicateKeyError, got %T %v", err, err)
	}
	if de.Key != "type" || de.Line != 2 || de.FirstLine != 1 {
		t.Fatalf("unexpected positions: %+v", de)
	}
	if !schemaform.HasCode(err, schemaform.CodeDuplicateKey) {
		t.Fatalf("expected DUPLICATE_KEY code, got %v", err)
	}

	// lenient mode keeps the last value
	s, _, err := schema.LoadYAML([]byte("type: object\ntype: string\n"), schema.LoadOptions{})
	if err != nil || s.Type() != "string" {
		t.Fatalf("lenient load mismatch: %v %v", s, err)
	}
}

func TestLoadJSON_Invalid(t *testing.T) {
	_, _, err := schema.LoadJSON([]byte(`{"type":`), schema.LoadOptions{})
	if !schemaform.HasCode(err, schemaform.CodeInvalidSchema) {
		t.Fatalf("expected INVALID_SCHEMA, got %v", err)
	}
}

func TestResolveRefs_LocalDefs(t *testing.T) {
	s, d, err := schema.LoadJSON([]byte(`{
		"$defs": {
			"name": {"type": "string", "minLength": 1},
			"loop": {"type": "object", "properties": {"next": {"$ref": "#/$defs/loop"}}}
		},
		"type": "object",
		"properties": {
			"first": {"$ref": "#/$defs/name", "title": "First"},
			"node": {"$ref": "#/$defs/loop"},
			"remote": {"$ref": "https://example.com/x.json"}
		}
	}`), schema.LoadOptions{ResolveRefs: true})
	if err != nil {
		t.Fatalf("load err: %v", err)
	}
	first, _ := s.Property("first")
	if first.Type() != "string" || first["title"] != "First" {
		t.Fatalf("first not expanded: %#v", first)
	}
	if _, ok := first["$ref"]; ok {
		t.Fatalf("$ref should be removed after expansion")
	}
	if !d.HasWarnings() {
		t.Fatalf("expected warnings for cycle and remote refs")
	}
	joined := strings.Join(d.Warnings(), "\n")
	if !strings.Contains(joined, "cyclic") || !strings.Contains(joined, "not supported") {
		t.Fatalf("unexpected warnings: %s", joined)
	}
}

func TestValidateArray(t *testing.T) {
	ok := []schema.Schema{
		{"type": "array", "items": map[string]any{"type": "string"}},
		{"type": "array", "prefixItems": []any{map[string]any{}}},
		{"type": "array", "prefixItems": []any{map[string]any{}}, "items": map[string]any{}},
		{"type": "array", "prefixItems": []any{map[string]any{}, map[string]any{}}, "items": false, "minItems": 2, "maxItems": 2},
	}
	for i, s := range ok {
		if valid, err := schema.ValidateArray(s); !valid || err != nil {
			t.Fatalf("case %d: expected valid, got %v", i, err)
		}
	}

	bad := []struct {
		s   schema.Schema
		msg string
	}{
		{schema.Schema{"type": "array"}, "Array schema must define either 'items' or 'prefixItems'"},
		{schema.Schema{"type": "array", "items": false}, "Array schema with 'items: false' must define 'prefixItems'"},
		{schema.Schema{"type": "array", "prefixItems": []any{map[string]any{}}, "items": false, "minItems": 2},
			"Array schema 'minItems' (2) exceeds 'prefixItems' length (1) while 'items' is false"},
		{schema.Schema{"type": "array", "prefixItems": []any{map[string]any{}}, "items": false, "maxItems": 3},
			"Array schema 'maxItems' (3) exceeds 'prefixItems' length (1) while 'items' is false"},
	}
	for i, c := range bad {
		valid, err := schema.ValidateArray(c.s)
		if valid || err == nil {
			t.Fatalf("case %d: expected error", i)
		}
		e, ok := schemaform.AsError(err)
		if !ok || e.Code != schemaform.CodeInvalidArraySchema || e.Message != c.msg {
			t.Fatalf("case %d: unexpected error %v", i, err)
		}
	}

	if err := schema.Check(schema.Schema{"type": "array"}); err == nil {
		t.Fatalf("Check should reject array without items")
	}
	if err := schema.Check(schema.Schema{"type": "string"}); err != nil {
		t.Fatalf("Check should accept string schema: %v", err)
	}
}

func TestCheckDeep_ReportsLocation(t *testing.T) {
	s := schema.Schema{
		"type": "object",
		"properties": map[string]any{
			"tags": map[string]any{
				"type": "array",
				"items": map[string]any{
					"oneOf": []any{
						map[string]any{"type": "string"},
						map[string]any{"type": "array", "items": false},
					},
				},
			},
		},
	}
	err := schema.CheckDeep(s)
	e, ok := schemaform.AsError(err)
	if !ok {
		t.Fatalf("expected engine error, got %v", err)
	}
	if e.Path != "#/properties/tags/items/oneOf/1" {
		t.Fatalf("path = %q", e.Path)
	}
	if err := schema.CheckDeep(schema.Schema{"type": "array", "prefixItems": []any{map[string]any{}}, "items": false}); err != nil {
		t.Fatalf("closed tuple should pass: %v", err)
	}
}

func TestLoadJSON_StrictDuplicateKey(t *testing.T) {
	doc := []byte(`{"properties": {"list": {"items": [{"a": 1}, {"b": 1, "b": 2}]}}}`)
	if _, _, err := schema.LoadJSON(doc, schema.LoadOptions{}); err != nil {
		t.Fatalf("lenient load should succeed: %v", err)
	}
	_, _, err := schema.LoadJSON(doc, schema.LoadOptions{Strict: true})
	if !schemaform.HasCode(err, schemaform.CodeDuplicateKey) {
		t.Fatalf("expected DUPLICATE_KEY, got %v", err)
	}
	var de *schema.JSONDuplicateKeyError
	if !errors.As(err, &de) {
		t.Fatalf("expected JSONDuplicateKeyError in chain: %v", err)
	}
	if de.Key != "b" || de.Pointer != "/properties/list/items/1" {
		t.Fatalf("unexpected duplicate %+v", de)
	}
	if err := schema.DetectJSONDuplicateKeys([]byte(`{"a": {"x": 1}, "b": {"x": 2}}`)); err != nil {
		t.Fatalf("keys in sibling objects are not duplicates: %v", err)
	}
}
