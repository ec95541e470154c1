// Package matcher provides type and method predicates for converter and
// aspect registrations. Plain matchers are built from Go values; Expression
// matchers evaluate a predicate written in expr, CEL or JavaScript against a
// description of the candidate type.
package matcher

import (
	"fmt"
	"reflect"
	"strings"
)

// TypeMatcher reports whether it applies to a type.
type TypeMatcher interface {
	Matches(t reflect.Type) bool
}

type typeFunc struct {
	name string
	fn   func(reflect.Type) bool
}

func (m typeFunc) Matches(t reflect.Type) bool {
	if t == nil {
		return false
	}
	return m.fn(t)
}

func (m typeFunc) String() string { return m.name }

// Any matches every type.
func Any() TypeMatcher {
	return typeFunc{name: "any()", fn: func(reflect.Type) bool { return true }}
}

// Only matches exactly t.
func Only(t reflect.Type) TypeMatcher {
	return typeFunc{
		name: fmt.Sprintf("only(%v)", t),
		fn:   func(candidate reflect.Type) bool { return candidate == t },
	}
}

// OnlyType matches exactly T.
func OnlyType[T any]() TypeMatcher {
	return Only(reflect.TypeFor[T]())
}

// AssignableTo matches types whose values can be assigned to t. For an
// interface t this is every implementing type.
func AssignableTo(t reflect.Type) TypeMatcher {
	return typeFunc{
		name: fmt.Sprintf("assignableTo(%v)", t),
		fn: func(candidate reflect.Type) bool {
			return t != nil && candidate.AssignableTo(t)
		},
	}
}

// Implements matches types implementing the interface I, including pointer
// receivers: *T matches when only *T has the methods.
func Implements[I any]() TypeMatcher {
	iface := reflect.TypeFor[I]()
	return typeFunc{
		name: fmt.Sprintf("implements(%v)", iface),
		fn: func(candidate reflect.Type) bool {
			return iface.Kind() == reflect.Interface && candidate.Implements(iface)
		},
	}
}

// Kind matches types of any of the given kinds.
func Kind(kinds ...reflect.Kind) TypeMatcher {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return typeFunc{
		name: "kind(" + strings.Join(names, ", ") + ")",
		fn: func(candidate reflect.Type) bool {
			for _, k := range kinds {
				if candidate.Kind() == k {
					return true
				}
			}
			return false
		},
	}
}

// InPackage matches named types declared in the package with import path
// path.
func InPackage(path string) TypeMatcher {
	return typeFunc{
		name: fmt.Sprintf("inPackage(%q)", path),
		fn:   func(candidate reflect.Type) bool { return candidate.PkgPath() == path },
	}
}

// Not inverts m.
func Not(m TypeMatcher) TypeMatcher {
	return typeFunc{
		name: fmt.Sprintf("not(%v)", m),
		fn:   func(candidate reflect.Type) bool { return m != nil && !m.Matches(candidate) },
	}
}

// And matches when every matcher matches. And() matches everything.
func And(matchers ...TypeMatcher) TypeMatcher {
	return typeFunc{
		name: "and(" + joinMatchers(matchers) + ")",
		fn: func(candidate reflect.Type) bool {
			for _, m := range matchers {
				if m == nil || !m.Matches(candidate) {
					return false
				}
			}
			return true
		},
	}
}

// Or matches when at least one matcher matches.
func Or(matchers ...TypeMatcher) TypeMatcher {
	return typeFunc{
		name: "or(" + joinMatchers(matchers) + ")",
		fn: func(candidate reflect.Type) bool {
			for _, m := range matchers {
				if m != nil && m.Matches(candidate) {
					return true
				}
			}
			return false
		},
	}
}

func joinMatchers[M any](matchers []M) string {
	parts := make([]string, len(matchers))
	for i, m := range matchers {
		parts[i] = fmt.Sprint(m)
	}
	return strings.Join(parts, ", ")
}
