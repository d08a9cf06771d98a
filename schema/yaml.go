package schema

import (
	"errors"
	"io"
	"math"
	"strconv"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	schemaform "github.com/reoring/schemaform"
)

// DuplicateKeyError reports a duplicate key found in a YAML mapping with both
// the first occurrence position and the duplicate occurrence position.
type DuplicateKeyError struct {
	Key       string
	FirstLine int
	FirstCol  int
	Line      int
	Col       int
}

func (e *DuplicateKeyError) Error() string {
	return "duplicate YAML key " + strconv.Quote(e.Key) + " at " + pos(e.Line, e.Col) + " (first at " + pos(e.FirstLine, e.FirstCol) + ")"
}

func pos(line, col int) string { return strconv.Itoa(line) + ":" + strconv.Itoa(col) }

// YAMLReader decodes a multi-document YAML stream through yaml.Node and returns
// JSON-like Go values (map[string]any, []any, json.Number, strings, bools).
// In strict mode duplicate keys are rejected with their positions.
type YAMLReader struct {
	dec    *yaml.Decoder
	strict bool
}

// NewYAMLReader constructs a YAMLReader.
func NewYAMLReader(r io.Reader, strict bool) *YAMLReader {
	return &YAMLReader{dec: yaml.NewDecoder(r), strict: strict}
}

// Next returns the next document. It returns (nil, io.EOF) when the stream is
// exhausted.
func (s *YAMLReader) Next() (any, error) {
	var root yaml.Node
	if err := s.dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, &schemaform.Error{Code: schemaform.CodeInvalidSchema, Message: "invalid YAML", Cause: err}
	}
	if len(root.Content) == 0 {
		return nil, nil
	}
	return s.convert(root.Content[0])
}

// ReadAll reads all documents from the stream.
func (s *YAMLReader) ReadAll() ([]any, error) {
	var out []any
	for {
		v, err := s.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, err
		}
		out = append(out, v)
	}
}

// convert maps a yaml.Node onto the value shapes LoadJSON produces, so both
// loaders hand the engine the same representation: numbers become
// json.Number.
func (s *YAMLReader) convert(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return s.convert(n.Content[0])
	case yaml.AliasNode:
		return s.convert(n.Alias)
	case yaml.MappingNode:
		return s.mapping(n)
	case yaml.SequenceNode:
		arr := make([]any, len(n.Content))
		for i, c := range n.Content {
			v, err := s.convert(c)
			if err != nil {
				return nil, err
			}
			arr[i] = v
		}
		return arr, nil
	case yaml.ScalarNode:
		return scalar(n), nil
	}
	return nil, nil
}

func (s *YAMLReader) mapping(n *yaml.Node) (map[string]any, error) {
	m := make(map[string]any, len(n.Content)/2)
	seen := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := n.Content[i]
		if first, dup := seen[k.Value]; dup && s.strict {
			de := &DuplicateKeyError{Key: k.Value, FirstLine: first.Line, FirstCol: first.Column, Line: k.Line, Col: k.Column}
			return nil, &schemaform.Error{Code: schemaform.CodeDuplicateKey, Message: de.Error(), Cause: de}
		}
		seen[k.Value] = k
		v, err := s.convert(n.Content[i+1])
		if err != nil {
			return nil, err
		}
		m[k.Value] = v
	}
	return m, nil
}

// scalar resolves a tagged scalar. Integers and finite floats become
// json.Number in decimal form; values yaml cannot parse stay strings.
func scalar(n *yaml.Node) any {
	switch n.ShortTag() {
	case "!!null":
		return nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err == nil {
			return b
		}
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return json.Number(strconv.FormatInt(i, 10))
		}
	case "!!float":
		var f float64
		if err := n.Decode(&f); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			return json.Number(strconv.FormatFloat(f, 'g', -1, 64))
		}
	}
	return n.Value
}
