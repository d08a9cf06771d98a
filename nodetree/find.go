package nodetree

import "strings"

// Group tells branch nodes (with children) from terminal ones.
type Group string

const (
	Branch   Group = "branch"
	Terminal Group = "terminal"
)

// Node is the view of a schema node the navigator needs. Implementations
// return a nil interface (not a typed nil) for a missing parent or root.
type Node interface {
	Group() Group
	EscapedName() string
	ParentNode() Node
	RootNode() Node
	Subnodes() []Node
}

// ScopeDetector reports whether candidate lives in the oneOf scope that
// source currently sees. It disambiguates children sharing a name.
type ScopeDetector func(source, candidate Node) bool

// FindNode follows segments from source. "#" jumps to the root, ".." to the
// parent and "." stays; any other segment selects the child with that
// escaped name. Reaching a terminal node ends the walk. A missing node
// yields nil; nil segments yield source.
func FindNode(source Node, segments []string, detect ScopeDetector) Node {
	cursor := source
	for _, seg := range segments {
		if cursor == nil {
			return nil
		}
		switch seg {
		case "#":
			cursor = cursor.RootNode()
		case "..":
			cursor = cursor.ParentNode()
		case ".", "":
		default:
			cursor = child(source, cursor, seg, detect)
			if cursor != nil && cursor.Group() == Terminal {
				return cursor
			}
		}
	}
	return cursor
}

func child(source, cursor Node, name string, detect ScopeDetector) Node {
	if cursor.Group() != Branch {
		return nil
	}
	var first Node
	for _, c := range cursor.Subnodes() {
		if c.EscapedName() != name {
			continue
		}
		if detect == nil || detect(source, c) {
			return c
		}
		if first == nil {
			first = c
		}
	}
	return first
}

// FindNodeByPointer splits ptr into segments and calls FindNode. A leading
// "#" or "/" starts from the root.
func FindNodeByPointer(source Node, ptr string, detect ScopeDetector) Node {
	return FindNode(source, Segments(ptr), detect)
}

// Segments splits a navigation pointer into FindNode segments. Names stay
// escaped.
func Segments(ptr string) []string {
	if ptr == "" {
		return nil
	}
	var out []string
	switch {
	case strings.HasPrefix(ptr, "#"):
		out = append(out, "#")
		ptr = strings.TrimPrefix(ptr[1:], "/")
	case strings.HasPrefix(ptr, "/"):
		out = append(out, "#")
		ptr = ptr[1:]
	}
	if ptr == "" {
		return out
	}
	return append(out, strings.Split(ptr, "/")...)
}
