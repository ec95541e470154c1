package inherit

import (
	"fmt"
	"reflect"
)

// TypeMatcher reports whether it applies to a type. Implementations live in
// the matcher package; any value with this method works.
type TypeMatcher interface {
	Matches(t reflect.Type) bool
}

// TypeConverter turns an external string value into a value of type to.
type TypeConverter interface {
	Convert(value string, to reflect.Type) (any, error)
}

// ConverterFunc adapts a function to TypeConverter.
type ConverterFunc func(value string, to reflect.Type) (any, error)

// Convert implements TypeConverter.
func (f ConverterFunc) Convert(value string, to reflect.Type) (any, error) {
	if f == nil {
		return nil, fmt.Errorf("inherit: nil converter func")
	}
	return f(value, to)
}

// MatcherAndConverter is one converter registration: the matcher deciding
// which target types the converter applies to, the converter itself and the
// source that registered it.
type MatcherAndConverter struct {
	TypeMatcher TypeMatcher
	Converter   TypeConverter
	Source      any
}

// Matches reports whether the registration applies to t. A registration
// without a matcher never matches.
func (mc MatcherAndConverter) Matches(t reflect.Type) bool {
	if mc.TypeMatcher == nil {
		return false
	}
	return mc.TypeMatcher.Matches(t)
}

func (mc MatcherAndConverter) String() string {
	return fmt.Sprintf("%v which matches %v (bound at %v)", mc.Converter, mc.TypeMatcher, mc.Source)
}
