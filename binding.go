package inherit

import "fmt"

// Binding is the opaque record a level stores for a Key. Levels never inspect
// bindings beyond storing and returning them.
type Binding interface {
	Key() Key
	Source() any
}

// Scope is an opaque lifecycle policy registered under a Marker.
type Scope interface {
	String() string
}

// Declared is a minimal Binding carrying the declared target and the source
// that declared it. Binding construction lives outside this package; Declared
// exists for tooling and tests that only need a value to store.
type Declared struct {
	BoundKey Key
	Target   any
	Origin   any
}

// NewDeclared builds a Declared binding.
func NewDeclared(key Key, target, source any) *Declared {
	return &Declared{BoundKey: key, Target: target, Origin: source}
}

func (d *Declared) Key() Key    { return d.BoundKey }
func (d *Declared) Source() any { return d.Origin }

func (d *Declared) String() string {
	return fmt.Sprintf("%s -> %v (at %v)", d.BoundKey, d.Target, d.Origin)
}

// NamedScope is a Scope identified only by its name.
type NamedScope string

func (s NamedScope) String() string { return string(s) }
