package matcher

import (
	"fmt"
	"reflect"
	"strings"
)

// MethodMatcher selects methods of a matched type.
type MethodMatcher interface {
	Matches(m reflect.Method) bool
}

type methodFunc struct {
	name string
	fn   func(reflect.Method) bool
}

func (m methodFunc) Matches(method reflect.Method) bool { return m.fn(method) }

func (m methodFunc) String() string { return m.name }

// AnyMethod matches every method.
func AnyMethod() MethodMatcher {
	return methodFunc{name: "anyMethod()", fn: func(reflect.Method) bool { return true }}
}

// Named matches methods called name.
func Named(name string) MethodMatcher {
	return methodFunc{
		name: fmt.Sprintf("named(%q)", name),
		fn:   func(m reflect.Method) bool { return m.Name == name },
	}
}

// Prefixed matches methods whose name starts with prefix.
func Prefixed(prefix string) MethodMatcher {
	return methodFunc{
		name: fmt.Sprintf("prefixed(%q)", prefix),
		fn:   func(m reflect.Method) bool { return strings.HasPrefix(m.Name, prefix) },
	}
}

// ReturnsError matches methods whose last result is error.
func ReturnsError() MethodMatcher {
	errType := reflect.TypeFor[error]()
	return methodFunc{
		name: "returnsError()",
		fn: func(m reflect.Method) bool {
			if m.Type == nil || m.Type.NumOut() == 0 {
				return false
			}
			return m.Type.Out(m.Type.NumOut()-1) == errType
		},
	}
}

// NotMethod inverts m.
func NotMethod(m MethodMatcher) MethodMatcher {
	return methodFunc{
		name: fmt.Sprintf("not(%v)", m),
		fn:   func(method reflect.Method) bool { return m != nil && !m.Matches(method) },
	}
}

// AllMethods matches when every matcher matches.
func AllMethods(matchers ...MethodMatcher) MethodMatcher {
	return methodFunc{
		name: "and(" + joinMatchers(matchers) + ")",
		fn: func(method reflect.Method) bool {
			for _, m := range matchers {
				if m == nil || !m.Matches(method) {
					return false
				}
			}
			return true
		},
	}
}

// MethodsOf returns the methods of t selected by m, in reflect order.
func MethodsOf(t reflect.Type, m MethodMatcher) []reflect.Method {
	if t == nil || m == nil {
		return nil
	}
	var out []reflect.Method
	for i := 0; i < t.NumMethod(); i++ {
		method := t.Method(i)
		if m.Matches(method) {
			out = append(out, method)
		}
	}
	return out
}
