package pointer_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/reoring/schemaform/pointer"
)

func TestFind_RootForms(t *testing.T) {
	root := map[string]any{"a": 1}
	for _, p := range []string{"", "#", "/", "#/"} {
		v, ok := pointer.Find(root, p)
		if !ok {
			t.Fatalf("%q: expected root", p)
		}
		if diff := cmp.Diff(root, v); diff != "" {
			t.Fatalf("%q: root mismatch (-want +got):\n%s", p, diff)
		}
	}
}

func TestFind_NestedAndEscaped(t *testing.T) {
	doc := map[string]any{
		"properties": map[string]any{
			"a/b": map[string]any{"type": "string"},
			"m~n": map[string]any{"type": "number"},
		},
		"items": []any{"x", map[string]any{"y": true}},
	}
	if v, ok := pointer.Find(doc, "#/properties/a~1b/type"); !ok || v != "string" {
		t.Fatalf("escaped slash lookup failed: %v %v", v, ok)
	}
	if v, ok := pointer.Find(doc, "/properties/m~0n/type"); !ok || v != "number" {
		t.Fatalf("escaped tilde lookup failed: %v %v", v, ok)
	}
	if v, ok := pointer.Find(doc, "/items/1/y"); !ok || v != true {
		t.Fatalf("array index lookup failed: %v %v", v, ok)
	}
}

func TestFind_MissingNeverPanics(t *testing.T) {
	doc := map[string]any{"a": map[string]any{"b": 1}, "arr": []any{1}}
	for _, p := range []string{"/x", "/a/c", "/a/b/c", "/arr/5", "/arr/-1", "/arr/x"} {
		if v, ok := pointer.Find(doc, p); ok || v != nil {
			t.Fatalf("%q: expected absence, got %v", p, v)
		}
	}
	if pointer.Get(nil, "/a") != nil {
		t.Fatalf("nil root should yield nil")
	}
}

func TestMatchesSchemaPath(t *testing.T) {
	cases := []struct {
		candidate, target string
		want              bool
	}{
		{"#/properties/user/properties/name", "#/properties/user", true},
		{"/properties/username", "/properties/user", false},
		{"/properties/user", "/properties/user", true},
		{"/properties/user/", "/properties/user/", true},
		{"/properties", "/properties/user", false},
	}
	for _, c := range cases {
		if got := pointer.MatchesSchemaPath(c.candidate, c.target); got != c.want {
			t.Fatalf("MatchesSchemaPath(%q, %q) = %v, want %v", c.candidate, c.target, got, c.want)
		}
	}
}

func TestSplitJoin_RoundTrip(t *testing.T) {
	segs := []string{"properties", "a/b", "m~n"}
	p := pointer.Join(segs...)
	if p != "/properties/a~1b/m~0n" {
		t.Fatalf("unexpected join %q", p)
	}
	if diff := cmp.Diff(segs, pointer.Split(p)); diff != "" {
		t.Fatalf("split mismatch (-want +got):\n%s", diff)
	}
	if pointer.Split("#") != nil {
		t.Fatalf("bare # has no segments")
	}
}

func TestParentAndEqual(t *testing.T) {
	if got := pointer.Parent("/a/b"); got != "/a" {
		t.Fatalf("parent of /a/b = %q", got)
	}
	if got := pointer.Parent("/a"); got != "" {
		t.Fatalf("parent of /a = %q", got)
	}
	if got := pointer.Parent("#/a"); got != "#" {
		t.Fatalf("parent of #/a = %q", got)
	}
	if !pointer.Equal("#/a/b", "/a/b/") {
		t.Fatalf("expected equal pointers")
	}
}

func TestRef_Builder(t *testing.T) {
	base := pointer.Root().Keyword("properties", "user")
	a := base.Keyword("properties", "a/b")
	b := base.Field("items").Index(2)
	if a.Pointer() != "/properties/user/properties/a~1b" {
		t.Fatalf("unexpected %q", a.Pointer())
	}
	if b.Fragment() != "#/properties/user/items/2" {
		t.Fatalf("unexpected %q", b.Fragment())
	}
	if pointer.Root().Pointer() != "/" || pointer.Root().Fragment() != "#" {
		t.Fatalf("root rendering mismatch")
	}
	if diff := cmp.Diff([]string{"properties", "user", "properties", "a/b"}, pointer.At(a.Pointer()).Segments()); diff != "" {
		t.Fatalf("segments mismatch:\n%s", diff)
	}
}

func TestResolve(t *testing.T) {
	cases := []struct{ base, path, want string }{
		{"/user/name", "../age", "/user/age"},
		{"/user/name", "./first", "/user/name/first"},
		{"/user/name", "../../flags/beta", "/flags/beta"},
		{"/user/name", "/a/b", "/a/b"},
		{"/user/name", "#/a~1b", "/a~1b"},
		{"/x", "../../../y", "/y"},
		{"/rows/0/qty", "../price", "/rows/0/price"},
	}
	for _, tc := range cases {
		if got := pointer.Resolve(tc.base, tc.path); got != tc.want {
			t.Errorf("Resolve(%q, %q) = %q, want %q", tc.base, tc.path, got, tc.want)
		}
	}
}
