package inherit

const (
	// Conventional level names for a container with overrides and tests.
	LevelNameRoot     = "root"
	LevelNameModule   = "module"
	LevelNameOverride = "override"
	LevelNameTest     = "test"
)

// NewChain builds a linear hierarchy: the first name is the root and each
// following name is the child of the one before it.
func NewChain(names []string, opts ...LevelOption) (*Hierarchy, error) {
	specs := make([]LevelSpec, len(names))
	for i, name := range names {
		specs[i] = LevelSpec{Name: name}
		if i > 0 {
			specs[i].Parent = names[i-1]
		}
	}
	return NewHierarchy(specs, opts...)
}

// RootModuleOverrideTest assembles the canonical four-level chain
// (root → module → override → test) and returns the leaf level.
func RootModuleOverrideTest(opts ...LevelOption) (*Hierarchy, *Level, error) {
	h, err := NewChain([]string{LevelNameRoot, LevelNameModule, LevelNameOverride, LevelNameTest}, opts...)
	if err != nil {
		return nil, nil, err
	}
	leaf, _ := h.Level(LevelNameTest)
	return h, leaf, nil
}
