package layering

import inherit "github.com/goliatone/go-inherit"

// Entry is one binding in an effective view together with the level that
// declared it.
type Entry struct {
	Key     inherit.Key
	Binding inherit.Binding
	Level   *inherit.Level
}

// Override describes a key bound at a level that shadows bindings for the
// same key further up the chain. Shadowed is ordered nearest ancestor first.
type Override struct {
	Key      inherit.Key
	Binding  inherit.Binding
	Level    *inherit.Level
	Shadowed []Entry
}

// Effective returns every binding visible from level, one per key, with the
// strongest declaration winning. Keys appear in the order they were first
// declared walking from the root down, so a root binding overridden by the
// leaf keeps the root's position.
func Effective(level *inherit.Level) []Entry {
	chain := Chain(level).Ordered()
	var (
		entries []Entry
		index   = map[inherit.Key]int{}
	)
	for i := len(chain) - 1; i >= 0; i-- {
		l := chain[i]
		for key, binding := range l.ExplicitBindingsThisLevel().All() {
			entry := Entry{Key: key, Binding: binding, Level: l}
			if pos, ok := index[key]; ok {
				entries[pos] = entry
				continue
			}
			index[key] = len(entries)
			entries = append(entries, entry)
		}
	}
	return entries
}

// Overrides lists the keys bound at level itself that are also bound by an
// ancestor, in level's put order.
func Overrides(level *inherit.Level) []Override {
	if level == nil {
		return nil
	}
	ancestors := Chain(level).Ordered()[1:]
	var out []Override
	for key, binding := range level.ExplicitBindingsThisLevel().All() {
		var shadowed []Entry
		for _, a := range ancestors {
			if b, ok := a.ExplicitBindingsThisLevel().Get(key); ok {
				shadowed = append(shadowed, Entry{Key: key, Binding: b, Level: a})
			}
		}
		if len(shadowed) > 0 {
			out = append(out, Override{Key: key, Binding: binding, Level: level, Shadowed: shadowed})
		}
	}
	return out
}

// ChainOverrides collects Overrides for every level from level up to the
// root, strongest level first.
func ChainOverrides(level *inherit.Level) []Override {
	var out []Override
	for _, l := range Chain(level).Ordered() {
		out = append(out, Overrides(l)...)
	}
	return out
}
