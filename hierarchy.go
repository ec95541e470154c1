package inherit

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrLevelNameRequired indicates a level spec without a name.
	ErrLevelNameRequired = errors.New("hierarchy: level name must be provided")
	// ErrDuplicateLevelName indicates two specs with the same name.
	ErrDuplicateLevelName = errors.New("hierarchy: level names must be unique")
	// ErrUnknownParent indicates a spec naming a parent that is not declared.
	ErrUnknownParent = errors.New("hierarchy: parent level is not declared")
	// ErrMultipleRoots indicates more than one spec without a parent.
	ErrMultipleRoots = errors.New("hierarchy: exactly one root level is allowed")
	// ErrNoRoot indicates specs were given but none is a root.
	ErrNoRoot = errors.New("hierarchy: no root level declared")
	// ErrParentCycle indicates specs whose parents form a cycle.
	ErrParentCycle = errors.New("hierarchy: parent links form a cycle")
)

// LevelSpec declares one named level of a hierarchy. An empty Parent makes
// the level the root.
type LevelSpec struct {
	Name         string
	Parent       string
	Interception *bool
}

// Hierarchy is a tree of named levels sharing one root and therefore one lock.
type Hierarchy struct {
	root   *Level
	levels map[string]*Level
	order  []string
}

// NewHierarchy validates specs and creates their levels, parents before
// children. opts apply to the root and are inherited by every descendant.
func NewHierarchy(specs []LevelSpec, opts ...LevelOption) (*Hierarchy, error) {
	if len(specs) == 0 {
		return nil, ErrNoRoot
	}

	byName := make(map[string]LevelSpec, len(specs))
	children := make(map[string][]string, len(specs))
	rootName := ""
	for _, spec := range specs {
		if spec.Name == "" {
			return nil, ErrLevelNameRequired
		}
		if _, ok := byName[spec.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateLevelName, spec.Name)
		}
		byName[spec.Name] = spec
		if spec.Parent == "" {
			if rootName != "" {
				return nil, fmt.Errorf("%w: %s and %s", ErrMultipleRoots, rootName, spec.Name)
			}
			rootName = spec.Name
			continue
		}
		children[spec.Parent] = append(children[spec.Parent], spec.Name)
	}
	for _, spec := range specs {
		if spec.Parent == "" {
			continue
		}
		if _, ok := byName[spec.Parent]; !ok {
			return nil, fmt.Errorf("%w: %s (parent of %s)", ErrUnknownParent, spec.Parent, spec.Name)
		}
	}
	if rootName == "" {
		return nil, ErrNoRoot
	}

	h := &Hierarchy{levels: make(map[string]*Level, len(specs))}
	rootSpec := byName[rootName]
	h.root = NewLevel(None, append(append([]LevelOption{}, opts...), specOptions(rootSpec)...)...)
	h.levels[rootName] = h.root
	h.order = append(h.order, rootName)

	queue := []string{rootName}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		parent := h.levels[name]
		for _, childName := range children[name] {
			child := NewLevel(parent, specOptions(byName[childName])...)
			h.levels[childName] = child
			h.order = append(h.order, childName)
			queue = append(queue, childName)
		}
	}

	if len(h.levels) != len(specs) {
		var missing []string
		for name := range byName {
			if _, ok := h.levels[name]; !ok {
				missing = append(missing, name)
			}
		}
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %v", ErrParentCycle, missing)
	}
	return h, nil
}

func specOptions(spec LevelSpec) []LevelOption {
	opts := []LevelOption{WithName(spec.Name)}
	if spec.Interception != nil {
		opts = append(opts, WithInterception(*spec.Interception))
	}
	return opts
}

// Root returns the root level.
func (h *Hierarchy) Root() *Level {
	if h == nil {
		return nil
	}
	return h.root
}

// Level returns the level registered under name.
func (h *Hierarchy) Level(name string) (*Level, bool) {
	if h == nil {
		return nil, false
	}
	l, ok := h.levels[name]
	return l, ok
}

// Names returns level names, parents before children.
func (h *Hierarchy) Names() []string {
	if h == nil || len(h.order) == 0 {
		return nil
	}
	out := make([]string, len(h.order))
	copy(out, h.order)
	return out
}

// Len returns the number of levels.
func (h *Hierarchy) Len() int {
	if h == nil {
		return 0
	}
	return len(h.order)
}

// Lock returns the lock shared by every level of the hierarchy.
func (h *Hierarchy) Lock() *Lock {
	return h.root.Lock()
}

// Sweep sweeps reservations on every level and returns the total removed.
func (h *Hierarchy) Sweep() int {
	total := 0
	for _, name := range h.order {
		total += h.levels[name].Sweep()
	}
	return total
}
