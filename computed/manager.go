package computed

import (
	schemaform "github.com/reoring/schemaform"
	"github.com/reoring/schemaform/expr"
	"github.com/reoring/schemaform/pointer"
	"github.com/reoring/schemaform/schema"
)

// Keywords of the computed map (also usable as "&<keyword>" aliases).
const (
	KeyActive   = "active"
	KeyVisible  = "visible"
	KeyReadOnly = "readOnly"
	KeyDisabled = "disabled"
	KeyPristine = "pristine"
	KeyWatch    = "watch"
	KeyDerived  = "derived"
	KeyIf       = "if"
)

// Manager holds the compiled computed properties of one node and their
// latest values.
type Manager struct {
	Type string

	Active       bool
	Visible      bool
	ReadOnly     bool
	Disabled     bool
	Pristine     bool
	OneOfIndex   int
	AnyOfIndices []int
	WatchValues  []any

	reg expr.Registry

	active, visible, readOnly, disabled, pristine expr.Func

	oneOf   []expr.Func
	anyOf   []expr.Func
	watch   []expr.Func
	derived expr.Func
}

// State is a snapshot of the published values.
type State struct {
	Active       bool  `json:"active"`
	Visible      bool  `json:"visible"`
	ReadOnly     bool  `json:"readOnly"`
	Disabled     bool  `json:"disabled"`
	Pristine     bool  `json:"pristine"`
	OneOfIndex   int   `json:"oneOfIndex"`
	AnyOfIndices []int `json:"anyOfIndices"`
	WatchValues  []any `json:"watchValues,omitempty"`
}

// New compiles the computed properties of s. root is the form's root schema;
// its literal booleans override everything. Paths are registered in reg
// (usually a PathManager scoped with At), or in a fresh PathManager when reg
// is nil.
func New(typ string, s, root schema.Schema, reg expr.Registry) (*Manager, error) {
	if reg == nil {
		reg = expr.NewPathManager()
	}
	m := &Manager{
		Type:         typ,
		Active:       true,
		Visible:      true,
		OneOfIndex:   -1,
		AnyOfIndices: []int{},
		reg:          reg,
	}
	states := []struct {
		key string
		dst *expr.Func
	}{
		{KeyActive, &m.active},
		{KeyVisible, &m.visible},
		{KeyReadOnly, &m.readOnly},
		{KeyDisabled, &m.disabled},
		{KeyPristine, &m.pristine},
	}
	for _, st := range states {
		f, err := m.compileState(st.key, s, root)
		if err != nil {
			return nil, err
		}
		*st.dst = f
	}

	var err error
	if m.oneOf, err = m.compileVariants("oneOf", s.OneOf()); err != nil {
		return nil, err
	}
	if m.anyOf, err = m.compileVariants("anyOf", s.AnyOf()); err != nil {
		return nil, err
	}
	if raw, ok := lookup(s, KeyWatch); ok {
		if m.watch, err = expr.CompileList(reg, KeyWatch, raw); err != nil {
			return nil, m.annotate(err, pointer.Root().Keyword("computed", KeyWatch))
		}
	}
	if raw, ok := lookup(s, KeyDerived); ok {
		if src, isString := raw.(string); isString {
			if m.derived, err = expr.Compile(reg, KeyDerived, src, false); err != nil {
				return nil, m.annotate(err, pointer.Root().Keyword("computed", KeyDerived))
			}
		} else {
			m.derived = expr.Constant(raw)
		}
	}
	return m, nil
}

// compileState resolves a boolean state from the first populated source:
// root literal, schema literal, computed.<key>, then the &<key> alias. A
// populated source that is not a usable expression yields no function.
func (m *Manager) compileState(key string, s, root schema.Schema) (expr.Func, error) {
	if b, ok := root[key].(bool); ok {
		return expr.Constant(b), nil
	}
	if b, ok := s[key].(bool); ok {
		return expr.Constant(b), nil
	}
	if raw, ok := s.Computed()[key]; ok {
		return m.compileSource(key, raw, pointer.Root().Keyword("computed", key))
	}
	if raw, ok := s.Alias(key); ok {
		return m.compileSource(key, raw, pointer.Root().Field("&"+key))
	}
	return nil, nil
}

func (m *Manager) compileSource(key string, raw any, at pointer.Ref) (expr.Func, error) {
	src, ok := raw.(string)
	if !ok {
		return nil, nil
	}
	f, err := expr.Compile(m.reg, key, src, true)
	return f, m.annotate(err, at)
}

// compileVariants compiles the computed.if / &if condition of each variant.
// Variants without a condition get a nil entry.
func (m *Manager) compileVariants(keyword string, variants []schema.Schema) ([]expr.Func, error) {
	if len(variants) == 0 {
		return nil, nil
	}
	out := make([]expr.Func, len(variants))
	found := false
	for i, v := range variants {
		raw, ok := lookup(v, KeyIf)
		if !ok {
			continue
		}
		src, ok := raw.(string)
		if !ok {
			continue
		}
		f, err := expr.Compile(m.reg, KeyIf, src, true)
		if err != nil {
			return nil, m.annotate(err, pointer.Root().Keyword(keyword).Index(i))
		}
		out[i] = f
		found = found || f != nil
	}
	if !found {
		return nil, nil
	}
	return out, nil
}

// lookup reads computed.<key>, falling back to the &<key> alias.
func lookup(s schema.Schema, key string) (any, bool) {
	if v, ok := s.Computed()[key]; ok {
		return v, true
	}
	return s.Alias(key)
}

func (m *Manager) annotate(err error, at pointer.Ref) error {
	if err == nil {
		return nil
	}
	if e, ok := schemaform.AsError(err); ok {
		return e.At(at.Fragment()).WithDetails("type", m.Type)
	}
	return err
}

// Recalculate re-evaluates every compiled function against deps and
// publishes the results. Properties without a function keep their values.
func (m *Manager) Recalculate(deps []any) {
	setBool(&m.Active, m.active, deps)
	setBool(&m.Visible, m.visible, deps)
	setBool(&m.ReadOnly, m.readOnly, deps)
	setBool(&m.Disabled, m.disabled, deps)
	setBool(&m.Pristine, m.pristine, deps)

	if m.oneOf != nil {
		m.OneOfIndex = -1
		for i, f := range m.oneOf {
			if ok, _ := f.Bool(deps); ok {
				m.OneOfIndex = i
				break
			}
		}
	}
	if m.anyOf != nil {
		idx := []int{}
		for i, f := range m.anyOf {
			if ok, _ := f.Bool(deps); ok {
				idx = append(idx, i)
			}
		}
		m.AnyOfIndices = idx
	}
	if m.watch != nil {
		vals := make([]any, len(m.watch))
		for i, f := range m.watch {
			vals[i] = f(deps)
		}
		m.WatchValues = vals
	}
}

func setBool(dst *bool, f expr.Func, deps []any) {
	if v, ok := f.Bool(deps); ok {
		*dst = v
	}
}

// Derived evaluates computed.derived; nil when the schema has none.
func (m *Manager) Derived(deps []any) any {
	if m.derived == nil {
		return nil
	}
	return m.derived(deps)
}

// HasDerived reports whether a derived expression was compiled.
func (m *Manager) HasDerived() bool { return m.derived != nil }

// Dependencies returns the registered dependency paths in slot order.
func (m *Manager) Dependencies() []string { return m.reg.Paths() }

// Collect reads the dependency values from a data document. Paths registered
// through a scoped registry are absolute; relative ones resolve from the root.
func (m *Manager) Collect(data any) []any {
	paths := m.reg.Paths()
	deps := make([]any, len(paths))
	for i, p := range paths {
		deps[i] = pointer.Get(data, pointer.Resolve("", p))
	}
	return deps
}

// State returns a snapshot of the published values.
func (m *Manager) State() State {
	return State{
		Active:       m.Active,
		Visible:      m.Visible,
		ReadOnly:     m.ReadOnly,
		Disabled:     m.Disabled,
		Pristine:     m.Pristine,
		OneOfIndex:   m.OneOfIndex,
		AnyOfIndices: append([]int{}, m.AnyOfIndices...),
		WatchValues:  m.WatchValues,
	}
}
