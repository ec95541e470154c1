// Package layering derives read-only views over a chain of levels: the chain
// itself, the bindings a level overrides and the effective binding set a
// level sees. Lookups on the levels still delegate; these views are for
// validation and inspection.
package layering

import inherit "github.com/goliatone/go-inherit"

// LevelChain is the sequence of levels from a leaf up to its root.
type LevelChain struct {
	ordered []*inherit.Level
}

// Chain walks from level to its root. Index 0 is level itself (strongest),
// the last entry is the root (weakest). A nil level yields an empty chain.
func Chain(level *inherit.Level) LevelChain {
	var ordered []*inherit.Level
	for l := level; l != nil; l = parentOf(l) {
		ordered = append(ordered, l)
	}
	return LevelChain{ordered: ordered}
}

func parentOf(l *inherit.Level) *inherit.Level {
	parent, ok := l.Parent().(*inherit.Level)
	if !ok {
		return nil
	}
	return parent
}

// Ordered returns the levels from strongest (index 0) to weakest.
func (c LevelChain) Ordered() []*inherit.Level {
	out := make([]*inherit.Level, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Len returns the number of levels in the chain.
func (c LevelChain) Len() int { return len(c.ordered) }

// Strongest returns the leaf (nil if empty).
func (c LevelChain) Strongest() *inherit.Level {
	if len(c.ordered) == 0 {
		return nil
	}
	return c.ordered[0]
}

// Weakest returns the root (nil if empty).
func (c LevelChain) Weakest() *inherit.Level {
	if len(c.ordered) == 0 {
		return nil
	}
	return c.ordered[len(c.ordered)-1]
}

// Names returns level names from root to leaf, the order a reader expects
// in a path such as "root/module/test".
func (c LevelChain) Names() []string {
	names := make([]string, len(c.ordered))
	for i, l := range c.ordered {
		names[len(c.ordered)-1-i] = l.Name()
	}
	return names
}
