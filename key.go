package inherit

import (
	"fmt"
	"reflect"
)

// Key identifies an injection point: a type plus an optional qualifier.
// Keys are comparable and used directly as map keys.
type Key struct {
	typ       reflect.Type
	qualifier string
}

// KeyOf returns the key for T with the given qualifier ("" for none).
func KeyOf[T any](qualifier string) Key {
	return Key{typ: reflect.TypeFor[T](), qualifier: qualifier}
}

// KeyFor returns the key for t with the given qualifier.
func KeyFor(t reflect.Type, qualifier string) Key {
	return Key{typ: t, qualifier: qualifier}
}

// Type returns the bound type.
func (k Key) Type() reflect.Type { return k.typ }

// Qualifier returns the qualifier, empty when unqualified.
func (k Key) Qualifier() string { return k.qualifier }

// IsZero reports whether k was never initialised.
func (k Key) IsZero() bool { return k.typ == nil && k.qualifier == "" }

func (k Key) String() string {
	name := "<nil>"
	if k.typ != nil {
		name = k.typ.String()
	}
	if k.qualifier == "" {
		return fmt.Sprintf("Key[type=%s]", name)
	}
	return fmt.Sprintf("Key[type=%s, qualifier=%s]", name, k.qualifier)
}

// Marker names a scope annotation. Scopes are registered and looked up by
// marker, one scope per marker per level.
type Marker struct {
	typ reflect.Type
}

// MarkerFor returns the marker for the tag type T.
//
//	type RequestScoped struct{}
//	level.PutScope(inherit.MarkerFor[RequestScoped](), requestScope)
func MarkerFor[T any]() Marker {
	return Marker{typ: reflect.TypeFor[T]()}
}

// MarkerOf returns the marker for t.
func MarkerOf(t reflect.Type) Marker {
	return Marker{typ: t}
}

// Type returns the tag type backing the marker.
func (m Marker) Type() reflect.Type { return m.typ }

func (m Marker) String() string {
	if m.typ == nil {
		return "@<nil>"
	}
	return "@" + m.typ.String()
}
