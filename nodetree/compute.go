package nodetree

import (
	"github.com/reoring/schemaform/computed"
	"github.com/reoring/schemaform/expr"
	"github.com/reoring/schemaform/pointer"
)

// Session couples a Tree with one computed.Manager per node. All managers
// compile into one PathManager, with paths resolved against each node's data
// pointer, so a dependency read by several nodes occupies one slot.
type Session struct {
	Tree     *Tree
	Paths    *expr.PathManager
	managers []*computed.Manager
}

// Compute compiles the computed properties of every node of t.
func Compute(t *Tree) (*Session, error) {
	s := &Session{Tree: t, Paths: expr.NewPathManager()}
	if err := s.compilePending(); err != nil {
		return nil, err
	}
	return s, nil
}

// compilePending compiles managers for nodes that have none yet.
func (s *Session) compilePending() error {
	t := s.Tree
	root := t.Schema(t.Root())
	for i := len(s.managers); i < t.Len(); i++ {
		h := Handle(i)
		sch := t.Schema(h)
		m, err := computed.New(sch.Type(), sch, root, s.Paths.At(t.Pointer(h)))
		if err != nil {
			return atData(err, pointer.At(t.Pointer(h)))
		}
		s.managers = append(s.managers, m)
	}
	return nil
}

// AppendItem adds an array element to the tree and compiles its managers.
func (s *Session) AppendItem(array Handle) (Handle, error) {
	h, err := s.Tree.AppendItem(array)
	if err != nil {
		return NoHandle, err
	}
	if err := s.compilePending(); err != nil {
		return NoHandle, err
	}
	return h, nil
}

// Manager returns the manager of h.
func (s *Session) Manager(h Handle) *computed.Manager {
	if int(h) < 0 || int(h) >= len(s.managers) {
		return nil
	}
	return s.managers[h]
}

// Recalculate reads every dependency from data once, recalculates all
// managers and feeds each node's oneOf selection into the tree.
func (s *Session) Recalculate(data any) []any {
	deps := s.Paths.Collect(func(p string) any { return pointer.Get(data, p) })
	for i, m := range s.managers {
		m.Recalculate(deps)
		if s.Tree.Schema(Handle(i)).OneOf() != nil {
			s.Tree.SetActiveVariant(Handle(i), m.OneOfIndex)
		}
	}
	return deps
}
