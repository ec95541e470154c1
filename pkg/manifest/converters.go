package manifest

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	inherit "github.com/goliatone/go-inherit"
	"github.com/spf13/cast"
)

// Converter kinds accepted in ConverterDecl.Using.
const (
	UsingCast    = "cast"
	UsingLiteral = "literal"
	UsingSplit   = "split"
)

var converterKinds = map[string]struct{}{
	UsingCast:    {},
	UsingLiteral: {},
	UsingSplit:   {},
}

// castConverter coerces by the target's kind. Numbers go through
// inherit.ParseNumber, so they are read in base 10 and range checked.
type castConverter struct{}

func (castConverter) Convert(value string, to reflect.Type) (any, error) {
	if to == nil {
		return nil, fmt.Errorf("manifest: cast needs a target type")
	}
	if to == reflect.TypeFor[time.Duration]() {
		return cast.ToDurationE(value)
	}
	var out any
	switch to.Kind() {
	case reflect.String:
		out = value
	case reflect.Bool:
		b, err := cast.ToBoolE(value)
		if err != nil {
			return nil, err
		}
		out = b
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return inherit.ParseNumber(value, to)
	case reflect.Slice:
		if to.Elem().Kind() == reflect.String {
			return cast.ToStringSliceE(value)
		}
		return nil, fmt.Errorf("manifest: cast cannot produce %s", to)
	default:
		return nil, fmt.Errorf("manifest: cast cannot produce %s", to)
	}
	// named string and bool types (e.g. type Mode string)
	return reflect.ValueOf(out).Convert(to).Interface(), nil
}

func (castConverter) String() string { return "castConverter" }

// literalConverter ignores the input and returns a fixed value.
type literalConverter struct {
	value string
}

func (c literalConverter) Convert(_ string, to reflect.Type) (any, error) {
	return castConverter{}.Convert(c.value, to)
}

func (c literalConverter) String() string { return fmt.Sprintf("literalConverter(%q)", c.value) }

type splitConverter struct {
	separator string
}

func (c splitConverter) Convert(value string, to reflect.Type) (any, error) {
	if to.Kind() != reflect.Slice || to.Elem().Kind() != reflect.String {
		return nil, fmt.Errorf("manifest: split cannot produce %s", to)
	}
	parts := strings.Split(value, c.separator)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	out := reflect.MakeSlice(to, len(parts), len(parts))
	for i, p := range parts {
		out.Index(i).SetString(p)
	}
	return out.Interface(), nil
}

func (c splitConverter) String() string { return fmt.Sprintf("splitConverter(%q)", c.separator) }

func newConverter(decl ConverterDecl) (inherit.TypeConverter, error) {
	switch decl.Using {
	case UsingCast:
		return castConverter{}, nil
	case UsingLiteral:
		return literalConverter{value: decl.Value}, nil
	case UsingSplit:
		sep := decl.Separator
		if sep == "" {
			sep = ","
		}
		return splitConverter{separator: sep}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownConverter, decl.Using)
	}
}
