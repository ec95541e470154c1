package manifest

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"
)

// TypeRegistry maps the type names used in manifests to Go types. Scope
// markers are looked up here too.
type TypeRegistry struct {
	mu    sync.RWMutex
	types map[string]reflect.Type
}

// NewTypeRegistry returns a registry with the built-in scalar types
// registered under their Go names, plus "duration" and "[]string".
func NewTypeRegistry() *TypeRegistry {
	r := &TypeRegistry{types: make(map[string]reflect.Type)}
	for _, t := range []reflect.Type{
		reflect.TypeFor[string](),
		reflect.TypeFor[bool](),
		reflect.TypeFor[int](),
		reflect.TypeFor[int8](),
		reflect.TypeFor[int16](),
		reflect.TypeFor[int32](),
		reflect.TypeFor[int64](),
		reflect.TypeFor[uint](),
		reflect.TypeFor[uint8](),
		reflect.TypeFor[uint16](),
		reflect.TypeFor[uint32](),
		reflect.TypeFor[uint64](),
		reflect.TypeFor[float32](),
		reflect.TypeFor[float64](),
		reflect.TypeFor[time.Duration](),
		reflect.TypeFor[[]string](),
	} {
		r.types[t.String()] = t
	}
	r.types["duration"] = reflect.TypeFor[time.Duration]()
	return r
}

// Register adds t under name.
func (r *TypeRegistry) Register(name string, t reflect.Type) error {
	if name == "" {
		return ErrTypeRequired
	}
	if t == nil {
		return fmt.Errorf("manifest: nil type for %q", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.types[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateType, name)
	}
	r.types[name] = t
	return nil
}

// RegisterType adds T under name.
func RegisterType[T any](r *TypeRegistry, name string) error {
	return r.Register(name, reflect.TypeFor[T]())
}

// Lookup returns the type registered under name.
func (r *TypeRegistry) Lookup(name string) (reflect.Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}
	return t, nil
}

// Names returns the registered names sorted.
func (r *TypeRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
