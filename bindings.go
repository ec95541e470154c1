package inherit

import "iter"

// bindingTable is an insertion-ordered Key→Binding map. A later put for the
// same key replaces the value but keeps the original position.
type bindingTable struct {
	order []Key
	index map[Key]Binding
}

func newBindingTable() *bindingTable {
	return &bindingTable{index: make(map[Key]Binding)}
}

func (t *bindingTable) put(key Key, binding Binding) {
	if _, exists := t.index[key]; !exists {
		t.order = append(t.order, key)
	}
	t.index[key] = binding
}

func (t *bindingTable) get(key Key) (Binding, bool) {
	if t == nil {
		return nil, false
	}
	b, ok := t.index[key]
	return b, ok
}

// BindingsView is a read-only, insertion-ordered view over the bindings
// declared at exactly one level.
type BindingsView struct {
	table *bindingTable
}

// Len returns the number of bindings in the view.
func (v BindingsView) Len() int {
	if v.table == nil {
		return 0
	}
	return len(v.table.order)
}

// Get returns the binding stored for key at this level only.
func (v BindingsView) Get(key Key) (Binding, bool) {
	return v.table.get(key)
}

// Has reports whether key was put at this level.
func (v BindingsView) Has(key Key) bool {
	_, ok := v.table.get(key)
	return ok
}

// Keys returns the keys in put order.
func (v BindingsView) Keys() []Key {
	if v.table == nil || len(v.table.order) == 0 {
		return nil
	}
	out := make([]Key, len(v.table.order))
	copy(out, v.table.order)
	return out
}

// All iterates key/binding pairs in put order.
func (v BindingsView) All() iter.Seq2[Key, Binding] {
	return func(yield func(Key, Binding) bool) {
		if v.table == nil {
			return
		}
		for _, key := range v.table.order {
			if !yield(key, v.table.index[key]) {
				return
			}
		}
	}
}
