package inherit

import (
	"fmt"
	"reflect"
)

// MethodMatcher selects methods of a matched type.
type MethodMatcher interface {
	Matches(m reflect.Method) bool
}

// MethodAspect describes interception to apply to methods of matching types.
// Interceptors are opaque to this package; weaving happens elsewhere.
type MethodAspect struct {
	TypeMatcher   TypeMatcher
	MethodMatcher MethodMatcher
	Interceptors  []any
	Source        any
}

func (a MethodAspect) String() string {
	return fmt.Sprintf("aspect{types=%v, methods=%v, interceptors=%d, source=%v}",
		a.TypeMatcher, a.MethodMatcher, len(a.Interceptors), a.Source)
}
