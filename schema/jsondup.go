package schema

import (
	"bytes"
	"errors"
	"io"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/reoring/schemaform/pointer"
)

// JSONDuplicateKeyError reports a key that appears twice in one JSON object.
type JSONDuplicateKeyError struct {
	Key     string
	Pointer string // object containing the duplicate
}

func (e *JSONDuplicateKeyError) Error() string {
	at := e.Pointer
	if at == "" {
		at = "/"
	}
	return "duplicate JSON key " + strconv.Quote(e.Key) + " in " + at
}

type dupFrame struct {
	object       bool
	keys         map[string]struct{}
	expectingKey bool
	key          string // last key (objects) or next index (arrays)
	index        int
}

// DetectJSONDuplicateKeys scans data token by token and returns the first
// duplicate object key, or nil. Malformed input is left to the decoder.
func DetectJSONDuplicateKeys(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var stack []dupFrame

	// valueDone marks the end of a value inside the enclosing container.
	valueDone := func() {
		if len(stack) == 0 {
			return
		}
		top := &stack[len(stack)-1]
		if top.object {
			top.expectingKey = true
		} else {
			top.index++
		}
	}
	path := func() string {
		segs := make([]string, 0, len(stack))
		for _, f := range stack[:len(stack)-1] {
			if f.object {
				segs = append(segs, f.key)
			} else {
				segs = append(segs, strconv.Itoa(f.index))
			}
		}
		return pointer.Join(segs...)
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return nil
		}
		switch v := tok.(type) {
		case json.Delim:
			switch v {
			case '{':
				stack = append(stack, dupFrame{object: true, keys: map[string]struct{}{}, expectingKey: true})
			case '[':
				stack = append(stack, dupFrame{})
			case '}', ']':
				if len(stack) > 0 {
					stack = stack[:len(stack)-1]
				}
				valueDone()
			}
		case string:
			if len(stack) > 0 {
				top := &stack[len(stack)-1]
				if top.object && top.expectingKey {
					if _, dup := top.keys[v]; dup {
						return &JSONDuplicateKeyError{Key: v, Pointer: path()}
					}
					top.keys[v] = struct{}{}
					top.key = v
					top.expectingKey = false
					continue
				}
			}
			valueDone()
		default:
			valueDone()
		}
	}
}
