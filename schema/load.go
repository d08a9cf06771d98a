package schema

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"

	schemaform "github.com/reoring/schemaform"
)

// LoadOptions controls schema document loading.
type LoadOptions struct {
	// Strict rejects duplicate object keys.
	Strict bool
	// ResolveRefs expands local "#/$defs/..." and "#/definitions/..." references.
	ResolveRefs bool
}

// Load decodes a JSON or YAML schema document, choosing the format from the
// first significant byte.
func Load(data []byte, opts LoadOptions) (Schema, *Diag, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return LoadJSON(data, opts)
	}
	return LoadYAML(data, opts)
}

// LoadJSON decodes a JSON schema document. Numbers are kept as json.Number.
func LoadJSON(data []byte, opts LoadOptions) (Schema, *Diag, error) {
	d := &Diag{}
	if opts.Strict {
		if err := DetectJSONDuplicateKeys(data); err != nil {
			return nil, d, &schemaform.Error{Code: schemaform.CodeDuplicateKey, Message: err.Error(), Cause: err}
		}
	}
	var root map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&root); err != nil {
		return nil, d, &schemaform.Error{Code: schemaform.CodeInvalidSchema, Message: "invalid JSON", Cause: err}
	}
	if root == nil {
		return nil, d, schemaform.Errorf(schemaform.CodeInvalidSchema, "schema document must be an object")
	}
	return finish(Schema(root), opts, d)
}

// LoadYAML decodes the first document of a YAML stream.
func LoadYAML(data []byte, opts LoadOptions) (Schema, *Diag, error) {
	d := &Diag{}
	r := NewYAMLReader(bytes.NewReader(data), opts.Strict)
	v, err := r.Next()
	if err != nil {
		return nil, d, err
	}
	root, ok := v.(map[string]any)
	if !ok {
		return nil, d, schemaform.Errorf(schemaform.CodeInvalidSchema, "schema document must be a mapping, got %T", v)
	}
	return finish(Schema(root), opts, d)
}

// DecodeValue decodes a JSON data document (form value) with numbers kept as
// json.Number.
func DecodeValue(data []byte) (any, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return v, nil
}

func finish(s Schema, opts LoadOptions, d *Diag) (Schema, *Diag, error) {
	if opts.ResolveRefs {
		ResolveRefs(s, d)
	}
	return s, d, nil
}
