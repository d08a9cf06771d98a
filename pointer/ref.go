package pointer

import (
	"strconv"
	"strings"
)

// Ref builds JSON Pointer paths in a chain-safe way. Every call returns a new
// Ref, so a shared prefix can be extended in several directions.
type Ref struct {
	parts []string // escaped
}

// Root returns the empty pointer.
func Root() Ref { return Ref{} }

// At parses an existing pointer into a Ref.
func At(ptr string) Ref {
	segs := Split(ptr)
	parts := make([]string, len(segs))
	for i, s := range segs {
		parts[i] = Escape(s)
	}
	return Ref{parts: parts}
}

// Field appends an object key.
func (r Ref) Field(name string) Ref {
	return Ref{parts: append(append([]string{}, r.parts...), Escape(name))}
}

// Index appends an array index.
func (r Ref) Index(i int) Ref {
	return Ref{parts: append(append([]string{}, r.parts...), strconv.Itoa(i))}
}

// Keyword appends a schema keyword followed by an optional key, e.g.
// Keyword("properties", "name") -> /properties/name.
func (r Ref) Keyword(keyword string, keys ...string) Ref {
	out := r.Field(keyword)
	for _, k := range keys {
		out = out.Field(k)
	}
	return out
}

// Pointer renders the path ("/" for the root).
func (r Ref) Pointer() string {
	if len(r.parts) == 0 {
		return Separator
	}
	return Separator + strings.Join(r.parts, Separator)
}

// Fragment renders the path as a URI fragment ("#" for the root).
func (r Ref) Fragment() string {
	if len(r.parts) == 0 {
		return "#"
	}
	return "#" + r.Pointer()
}

// Segments returns the unescaped segments.
func (r Ref) Segments() []string {
	out := make([]string, len(r.parts))
	for i, p := range r.parts {
		out[i] = Unescape(p)
	}
	return out
}
