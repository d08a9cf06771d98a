package schema

import (
	schemaform "github.com/reoring/schemaform"
	"github.com/reoring/schemaform/pointer"
)

// ValidateArray checks the shape of an array schema: items must be a schema,
// or prefixItems must be present (with items absent, a schema, or false).
// A closed tuple (items: false) cannot ask for more elements than prefixItems
// provides.
func ValidateArray(s Schema) (bool, error) {
	prefix, hasPrefix := s.PrefixItems()
	_, itemsIsSchema := s.Items()
	_, itemsSet := s["items"]

	if itemsIsSchema {
		return true, nil
	}
	if !hasPrefix {
		if s.ItemsFalse() {
			return false, arrayError("Array schema with 'items: false' must define 'prefixItems'", s)
		}
		return false, arrayError("Array schema must define either 'items' or 'prefixItems'", s)
	}
	if itemsSet && !s.ItemsFalse() {
		return false, arrayError("Array schema 'items' must be a schema or false", s)
	}
	if s.ItemsFalse() {
		n := len(prefix)
		if v, ok := s.Int("minItems"); ok && v > n {
			return false, schemaform.Errorf(schemaform.CodeInvalidArraySchema,
				"Array schema 'minItems' (%d) exceeds 'prefixItems' length (%d) while 'items' is false", v, n).
				WithDetails("schema", s)
		}
		if v, ok := s.Int("maxItems"); ok && v > n {
			return false, schemaform.Errorf(schemaform.CodeInvalidArraySchema,
				"Array schema 'maxItems' (%d) exceeds 'prefixItems' length (%d) while 'items' is false", v, n).
				WithDetails("schema", s)
		}
	}
	return true, nil
}

func arrayError(msg string, s Schema) error {
	return schemaform.Errorf(schemaform.CodeInvalidArraySchema, "%s", msg).WithDetails("schema", s)
}

// Check validates the shape of s itself (not its sub-schemas). Nested schemas
// are checked when they are materialized.
func Check(s Schema) error {
	if s == nil {
		return schemaform.Errorf(schemaform.CodeInvalidSchema, "schema is nil")
	}
	if s.HasType(TypeArray) {
		if _, err := ValidateArray(s); err != nil {
			return err
		}
	}
	return nil
}

// CheckDeep runs Check on s and every sub-schema reachable through
// properties, items, prefixItems and the combinators. The error carries the
// location of the offending schema.
func CheckDeep(s Schema) error {
	return checkDeep(s, pointer.Root())
}

func checkDeep(s Schema, at pointer.Ref) error {
	if err := Check(s); err != nil {
		if e, ok := schemaform.AsError(err); ok {
			return e.At(at.Fragment())
		}
		return err
	}
	for name, raw := range s.Properties() {
		if p, ok := As(raw); ok {
			if err := checkDeep(p, at.Keyword("properties", name)); err != nil {
				return err
			}
		}
	}
	for _, kw := range []string{"items", "not", "if", "then", "else"} {
		if sub, ok := s.Sub(kw); ok {
			if err := checkDeep(sub, at.Keyword(kw)); err != nil {
				return err
			}
		}
	}
	for _, kw := range []string{"prefixItems", "allOf", "anyOf", "oneOf"} {
		for i, sub := range s.List(kw) {
			if sub == nil {
				continue
			}
			if err := checkDeep(sub, at.Keyword(kw).Index(i)); err != nil {
				return err
			}
		}
	}
	return nil
}
