package inherit

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/goliatone/go-inherit/matcher"
	"github.com/spf13/cast"
)

// BuiltInSource is the Source recorded on built-in converter registrations.
const BuiltInSource = "builtin"

var (
	// ErrNotDecimal is returned for integer input that is not a plain base 10
	// number, such as "0x10" or "1e3".
	ErrNotDecimal = errors.New("inherit: integer value must be decimal")
	// ErrOutOfRange is returned when a parsed number does not fit the target.
	ErrOutOfRange = errors.New("inherit: value out of range")
)

type builtInConverter struct {
	name string
	fn   func(string) (any, error)
}

func (c builtInConverter) Convert(value string, to reflect.Type) (any, error) {
	out, err := c.fn(value)
	if err != nil {
		return nil, fmt.Errorf("inherit: convert %q to %s: %w", value, to, err)
	}
	return out, nil
}

func (c builtInConverter) String() string { return c.name + "Converter" }

// RegisterBuiltInConverters adds string converters for the numeric kinds,
// bool and time.Duration to level.
func RegisterBuiltInConverters(level *Level) {
	for _, entry := range builtInConverters() {
		level.AddConverter(MatcherAndConverter{
			TypeMatcher: matcher.Only(entry.t),
			Converter:   entry.conv,
			Source:      BuiltInSource,
		})
	}
}

type builtInEntry struct {
	t    reflect.Type
	conv builtInConverter
}

func builtInConverters() []builtInEntry {
	number := func(t reflect.Type) builtInEntry {
		return builtInEntry{t, builtInConverter{t.Name(), func(s string) (any, error) { return ParseNumber(s, t) }}}
	}
	return []builtInEntry{
		number(reflect.TypeFor[int]()),
		number(reflect.TypeFor[int8]()),
		number(reflect.TypeFor[int16]()),
		number(reflect.TypeFor[int32]()),
		number(reflect.TypeFor[int64]()),
		number(reflect.TypeFor[uint]()),
		number(reflect.TypeFor[uint8]()),
		number(reflect.TypeFor[uint16]()),
		number(reflect.TypeFor[uint32]()),
		number(reflect.TypeFor[uint64]()),
		number(reflect.TypeFor[float32]()),
		number(reflect.TypeFor[float64]()),
		{reflect.TypeFor[bool](), builtInConverter{"bool", func(s string) (any, error) { return cast.ToBoolE(s) }}},
		{reflect.TypeFor[time.Duration](), builtInConverter{"duration", func(s string) (any, error) { return cast.ToDurationE(s) }}},
	}
}

// ParseNumber parses value into a number of type to, which must have an
// integer or float kind. Integers are read in base 10 only, so "010" is ten.
// Values that do not fit to are rejected with ErrOutOfRange.
func ParseNumber(value string, to reflect.Type) (any, error) {
	if to == nil {
		return nil, fmt.Errorf("inherit: parse %q: nil target type", value)
	}
	target := reflect.New(to).Elem()
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		digits, err := decimal(value, true)
		if err != nil {
			return nil, err
		}
		n, err := cast.ToInt64E(digits)
		if err != nil {
			return nil, fmt.Errorf("%w: %q as %s", ErrOutOfRange, value, to)
		}
		if target.OverflowInt(n) {
			return nil, fmt.Errorf("%w: %q as %s", ErrOutOfRange, value, to)
		}
		target.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		digits, err := decimal(value, false)
		if err != nil {
			return nil, err
		}
		n, err := cast.ToUint64E(digits)
		if err != nil {
			return nil, fmt.Errorf("%w: %q as %s", ErrOutOfRange, value, to)
		}
		if target.OverflowUint(n) {
			return nil, fmt.Errorf("%w: %q as %s", ErrOutOfRange, value, to)
		}
		target.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := cast.ToFloat64E(strings.TrimSpace(value))
		if err != nil {
			return nil, err
		}
		if target.OverflowFloat(f) {
			return nil, fmt.Errorf("%w: %q as %s", ErrOutOfRange, value, to)
		}
		target.SetFloat(f)
	default:
		return nil, fmt.Errorf("inherit: %s is not a numeric type", to)
	}
	return target.Interface(), nil
}

// decimal validates a base 10 integer and strips leading zeros so the
// result cannot be read as octal.
func decimal(value string, signed bool) (string, error) {
	s := strings.TrimSpace(value)
	sign := ""
	if s != "" && (s[0] == '+' || s[0] == '-') {
		if s[0] == '-' {
			if !signed {
				return "", fmt.Errorf("%w: %q is negative", ErrOutOfRange, value)
			}
			sign = "-"
		}
		s = s[1:]
	}
	if s == "" {
		return "", fmt.Errorf("%w: %q", ErrNotDecimal, value)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: %q", ErrNotDecimal, value)
		}
	}
	s = strings.TrimLeft(s, "0")
	if s == "" {
		return "0", nil
	}
	return sign + s, nil
}

// Convert finds the converter for to on the chain of level and runs it. ok is
// false when no converter matches. Ambiguities are reported to errs.
func Convert(level State, value string, to reflect.Type, errs ErrorSink, source any) (out any, ok bool, err error) {
	mc, found := level.Converter(value, to, errs, source)
	if !found {
		return nil, false, nil
	}
	if mc.Converter == nil {
		return nil, true, fmt.Errorf("inherit: converter registered at %v is nil", mc.Source)
	}
	out, err = mc.Converter.Convert(value, to)
	if err != nil {
		return nil, true, err
	}
	return out, true, nil
}
