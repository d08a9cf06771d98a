package pointer

import (
	"strconv"
	"strings"
)

// Separator delimits pointer segments.
const Separator = "/"

// Escape encodes a single segment per RFC 6901 ('~' -> '~0', '/' -> '~1').
func Escape(segment string) string {
	if !strings.ContainsAny(segment, "~/") {
		return segment
	}
	return strings.ReplaceAll(strings.ReplaceAll(segment, "~", "~0"), "/", "~1")
}

// Unescape decodes a single segment ('~1' -> '/', '~0' -> '~').
func Unescape(segment string) string {
	if !strings.Contains(segment, "~") {
		return segment
	}
	return strings.ReplaceAll(strings.ReplaceAll(segment, "~1", "/"), "~0", "~")
}

// trimRoot drops the optional '#' fragment marker and the leading separator.
func trimRoot(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	return strings.TrimPrefix(ptr, Separator)
}

// Split returns the unescaped segments of ptr. "", "#", "/" and "#/" yield
// no segments.
func Split(ptr string) []string {
	rest := trimRoot(ptr)
	if rest == "" {
		return nil
	}
	parts := strings.Split(rest, Separator)
	for i := range parts {
		parts[i] = Unescape(parts[i])
	}
	return parts
}

// Join builds an absolute pointer from raw (unescaped) segments.
func Join(segments ...string) string {
	if len(segments) == 0 {
		return ""
	}
	b := &strings.Builder{}
	for _, s := range segments {
		b.WriteString(Separator)
		b.WriteString(Escape(s))
	}
	return b.String()
}

// IsAbsolute reports whether ptr is rooted ('/' or '#').
func IsAbsolute(ptr string) bool {
	return strings.HasPrefix(ptr, Separator) || strings.HasPrefix(ptr, "#")
}

// Parent returns ptr without its last segment.
func Parent(ptr string) string {
	i := strings.LastIndex(ptr, Separator)
	if i <= 0 {
		if strings.HasPrefix(ptr, "#") {
			return "#"
		}
		return ""
	}
	return ptr[:i]
}

// Find resolves ptr against a decoded JSON tree (objects and arrays).
// It never panics: the first missing segment yields (nil, false).
func Find(root any, ptr string) (any, bool) {
	cur := root
	for _, seg := range Split(ptr) {
		next, ok := child(cur, seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Get is Find without the presence flag, mirroring an undefined result.
func Get(root any, ptr string) any {
	v, _ := Find(root, ptr)
	return v
}

func child(cur any, seg string) (any, bool) {
	switch t := cur.(type) {
	case map[string]any:
		v, ok := t[seg]
		return v, ok
	case []any:
		idx, err := strconv.Atoi(seg)
		if err != nil || idx < 0 || idx >= len(t) {
			return nil, false
		}
		return t[idx], true
	case []string:
		idx, err := strconv.Atoi(seg)
		if err != nil || idx < 0 || idx >= len(t) {
			return nil, false
		}
		return t[idx], true
	default:
		if m, ok := asMap(cur); ok {
			v, ok := m[seg]
			return v, ok
		}
		return nil, false
	}
}

// asMap accepts named map types (such as schema.Schema) without importing them.
func asMap(v any) (map[string]any, bool) {
	type mapper interface{ Map() map[string]any }
	if m, ok := v.(mapper); ok {
		return m.Map(), true
	}
	return nil, false
}

// MatchesSchemaPath reports whether target is a segment-aligned prefix of
// candidate: "#/properties/user" matches "#/properties/user/properties/name"
// but "/properties/user" does not match "/properties/username".
func MatchesSchemaPath(candidate, target string) bool {
	if !strings.HasPrefix(candidate, target) {
		return false
	}
	if len(candidate) == len(target) {
		return true
	}
	if strings.HasSuffix(target, Separator) {
		return true
	}
	return candidate[len(target)] == Separator[0]
}

// Equal compares two pointers ignoring the optional '#' marker and a
// trailing separator.
func Equal(a, b string) bool {
	return normalize(a) == normalize(b)
}

func normalize(p string) string {
	p = strings.TrimPrefix(p, "#")
	p = strings.TrimSuffix(p, Separator)
	return p
}

// Resolve turns a dependency path into an absolute pointer. "#/x" and "/x"
// are rooted; "./x" and "../x" are relative to the node at base, so "../x"
// names a sibling. ".." above the root stays at the root.
func Resolve(base, path string) string {
	var segs []string
	rest := path
	switch {
	case strings.HasPrefix(path, "./"), strings.HasPrefix(path, "../"):
		segs = Split(base)
	default:
		rest = trimRoot(path)
	}
	for _, seg := range strings.Split(rest, Separator) {
		switch seg {
		case "", ".":
		case "..":
			if len(segs) > 0 {
				segs = segs[:len(segs)-1]
			}
		default:
			segs = append(segs, Unescape(seg))
		}
	}
	return Join(segs...)
}
