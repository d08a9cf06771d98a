package expr

import "github.com/reoring/schemaform/pointer"

// Registry assigns dependency slots to paths at compile time.
type Registry interface {
	Add(path string) int
	Paths() []string
}

// PathManager is the ordered, deduplicated registry of dependency paths read
// by the expressions compiled against it. A path's index is the position of
// its value in the dependencies slice passed to compiled functions.
type PathManager struct {
	paths []string
	index map[string]int
}

// NewPathManager returns an empty registry.
func NewPathManager() *PathManager {
	return &PathManager{index: map[string]int{}}
}

// Add registers path and returns its index. Registering an existing path
// returns the original index.
func (pm *PathManager) Add(path string) int {
	if pm.index == nil {
		pm.index = map[string]int{}
	}
	if i, ok := pm.index[path]; ok {
		return i
	}
	i := len(pm.paths)
	pm.paths = append(pm.paths, path)
	pm.index[path] = i
	return i
}

// Index returns the slot of a registered path.
func (pm *PathManager) Index(path string) (int, bool) {
	i, ok := pm.index[path]
	return i, ok
}

// Paths returns the registered paths in registration order.
func (pm *PathManager) Paths() []string { return append([]string(nil), pm.paths...) }

// Len returns the number of registered paths.
func (pm *PathManager) Len() int { return len(pm.paths) }

// Collect reads the current value of every registered path through get and
// returns them in slot order, ready to pass to compiled functions.
func (pm *PathManager) Collect(get func(path string) any) []any {
	deps := make([]any, len(pm.paths))
	for i, p := range pm.paths {
		deps[i] = get(p)
	}
	return deps
}

// At returns a Registry for the node at base. Paths are resolved to absolute
// pointers before registration, so nodes reading the same location share a
// slot and Collect can read values with pointer.Get.
func (pm *PathManager) At(base string) *Scope { return &Scope{pm: pm, base: base} }

// Scope registers node-relative paths into a shared PathManager.
type Scope struct {
	pm   *PathManager
	base string
}

// Add resolves path against the scope's base and registers it.
func (s *Scope) Add(path string) int { return s.pm.Add(pointer.Resolve(s.base, path)) }

// Paths returns the paths of the underlying PathManager.
func (s *Scope) Paths() []string { return s.pm.Paths() }

// Base returns the node pointer paths are resolved against.
func (s *Scope) Base() string { return s.base }

// Manager returns the underlying PathManager.
func (s *Scope) Manager() *PathManager { return s.pm }
