package nodetree

import (
	"fmt"
	"sort"
	"strconv"

	schemaform "github.com/reoring/schemaform"
	"github.com/reoring/schemaform/allof"
	"github.com/reoring/schemaform/pointer"
	"github.com/reoring/schemaform/schema"
)

// Handle addresses a node in a Tree.
type Handle int

// NoHandle marks a missing parent.
const NoHandle Handle = -1

type entry struct {
	name     string // escaped
	group    Group
	parent   Handle
	children []Handle
	variant  int // oneOf variant of the parent, -1 outside any variant
	schema   schema.Schema
	ptr      pointer.Ref // data location
}

// Tree is an arena of schema nodes. Parent and root links are handles, so
// the tree owns every node and nodes never reference each other directly.
type Tree struct {
	nodes  []entry
	active map[Handle]int
}

// Build creates the tree of s. Object properties and the properties of
// oneOf variants become children; arrays get one child per prefixItems
// entry and more through AppendItem. allOf is resolved and the shape is
// checked per node.
func Build(s schema.Schema) (*Tree, error) {
	t := &Tree{active: map[Handle]int{}}
	if _, err := t.add(s, "", NoHandle, -1, pointer.Root()); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tree) add(raw schema.Schema, name string, parent Handle, variant int, at pointer.Ref) (Handle, error) {
	s, err := allof.Resolve(raw)
	if err != nil {
		return NoHandle, atData(err, at)
	}
	if err := schema.Check(s); err != nil {
		return NoHandle, atData(err, at)
	}
	h := Handle(len(t.nodes))
	t.nodes = append(t.nodes, entry{
		name:    name,
		group:   groupOf(s),
		parent:  parent,
		variant: variant,
		schema:  s,
		ptr:     at,
	})
	if parent != NoHandle {
		t.nodes[parent].children = append(t.nodes[parent].children, h)
	}

	if err := t.addProperties(h, s, -1); err != nil {
		return NoHandle, err
	}
	for i, v := range s.OneOf() {
		if v == nil {
			continue
		}
		if err := t.addProperties(h, v, i); err != nil {
			return NoHandle, err
		}
	}
	if prefix, ok := s.PrefixItems(); ok {
		for i, p := range prefix {
			if p == nil {
				continue
			}
			if _, err := t.add(p, strconv.Itoa(i), h, -1, at.Index(i)); err != nil {
				return NoHandle, err
			}
		}
	}
	return h, nil
}

func (t *Tree) addProperties(h Handle, s schema.Schema, variant int) error {
	props := s.Properties()
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p, ok := schema.As(props[name])
		if !ok {
			continue
		}
		at := t.nodes[h].ptr.Field(name)
		if _, err := t.add(p, pointer.Escape(name), h, variant, at); err != nil {
			return err
		}
	}
	return nil
}

func groupOf(s schema.Schema) Group {
	switch {
	case s.HasType(schema.TypeObject), s.HasType(schema.TypeArray):
		return Branch
	case s.Type() == "" && (s["properties"] != nil || s["oneOf"] != nil):
		return Branch
	}
	return Terminal
}

// atData records the data location of a schema error in its details.
func atData(err error, at pointer.Ref) error {
	if e, ok := schemaform.AsError(err); ok {
		e.WithDetails("node", at.Pointer())
	}
	return err
}

// AppendItem materialises the next element of an array node from its
// items (or prefixItems) schema. Schema conflicts in that element surface
// here.
func (t *Tree) AppendItem(array Handle) (Handle, error) {
	if !t.valid(array) || !t.nodes[array].schema.HasType(schema.TypeArray) {
		return NoHandle, fmt.Errorf("nodetree: node %d is not an array", array)
	}
	e := t.nodes[array]
	idx := len(e.children)
	sub, err := allof.ResolveItems(e.schema, idx)
	if err != nil {
		return NoHandle, atData(err, e.ptr.Index(idx))
	}
	if sub == nil {
		return NoHandle, schemaform.Errorf(schemaform.CodeInvalidArraySchema,
			"array at %s accepts no element %d", e.ptr.Pointer(), idx)
	}
	n := len(t.nodes)
	h, err := t.add(sub, strconv.Itoa(idx), array, -1, e.ptr.Index(idx))
	if err != nil {
		t.nodes = t.nodes[:n]
		t.nodes[array].children = t.nodes[array].children[:idx]
		return NoHandle, err
	}
	return h, nil
}

func (t *Tree) valid(h Handle) bool { return h >= 0 && int(h) < len(t.nodes) }

// Root returns the root handle.
func (t *Tree) Root() Handle { return 0 }

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns the Node view of h, or nil for an invalid handle.
func (t *Tree) Node(h Handle) Node {
	if !t.valid(h) {
		return nil
	}
	return nodeRef{t: t, h: h}
}

// HandleOf returns the handle of a node of t.
func (t *Tree) HandleOf(n Node) (Handle, bool) {
	r, ok := n.(nodeRef)
	if !ok || r.t != t {
		return NoHandle, false
	}
	return r.h, true
}

// Schema returns the resolved schema of h.
func (t *Tree) Schema(h Handle) schema.Schema {
	if !t.valid(h) {
		return nil
	}
	return t.nodes[h].schema
}

// Pointer returns the data pointer of h ("" for the root).
func (t *Tree) Pointer(h Handle) string {
	if !t.valid(h) || h == t.Root() {
		return ""
	}
	return t.nodes[h].ptr.Pointer()
}

// Variant returns the oneOf variant index h belongs to, -1 outside variants.
func (t *Tree) Variant(h Handle) int {
	if !t.valid(h) {
		return -1
	}
	return t.nodes[h].variant
}

// SetActiveVariant records the selected oneOf variant of a branch node;
// -1 clears the selection.
func (t *Tree) SetActiveVariant(h Handle, variant int) { t.active[h] = variant }

// ActiveVariant returns the selected oneOf variant of h, -1 when none.
func (t *Tree) ActiveVariant(h Handle) int {
	if v, ok := t.active[h]; ok {
		return v
	}
	return -1
}

// VariantScope is a ScopeDetector accepting candidates outside any oneOf
// variant and candidates in their parent's active variant.
func (t *Tree) VariantScope(_, candidate Node) bool {
	h, ok := t.HandleOf(candidate)
	if !ok {
		return false
	}
	e := t.nodes[h]
	if e.variant < 0 {
		return true
	}
	return e.parent != NoHandle && t.ActiveVariant(e.parent) == e.variant
}

// Find navigates from h with FindNodeByPointer using VariantScope.
func (t *Tree) Find(h Handle, ptr string) (Handle, bool) {
	n := FindNodeByPointer(t.Node(h), ptr, t.VariantScope)
	if n == nil {
		return NoHandle, false
	}
	return t.HandleOf(n)
}

type nodeRef struct {
	t *Tree
	h Handle
}

func (n nodeRef) Group() Group        { return n.t.nodes[n.h].group }
func (n nodeRef) EscapedName() string { return n.t.nodes[n.h].name }

func (n nodeRef) ParentNode() Node {
	p := n.t.nodes[n.h].parent
	if p == NoHandle {
		return nil
	}
	return nodeRef{t: n.t, h: p}
}

func (n nodeRef) RootNode() Node { return nodeRef{t: n.t, h: n.t.Root()} }

func (n nodeRef) Subnodes() []Node {
	kids := n.t.nodes[n.h].children
	if len(kids) == 0 {
		return nil
	}
	out := make([]Node, len(kids))
	for i, k := range kids {
		out[i] = nodeRef{t: n.t, h: k}
	}
	return out
}
