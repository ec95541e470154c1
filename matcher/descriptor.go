package matcher

import "reflect"

// Describe flattens t into the variables visible to expression matchers:
//
//	name       type name, empty for unnamed types
//	fullName   reflect's string form, e.g. "*http.Client"
//	kind       kind name, e.g. "struct", "ptr", "int"
//	pkg        import path of a named type
//	elem       string form of the element type for ptr, slice, array, map, chan
//	methods    exported method names
//	fields     struct field names (empty unless kind == "struct")
//	numMethod  len(methods)
//	comparable whether values of t are comparable
func Describe(t reflect.Type) map[string]any {
	if t == nil {
		return map[string]any{
			"name":       "",
			"fullName":   "<nil>",
			"kind":       reflect.Invalid.String(),
			"pkg":        "",
			"elem":       "",
			"methods":    []string{},
			"fields":     []string{},
			"numMethod":  0,
			"comparable": false,
		}
	}

	methods := make([]string, 0, t.NumMethod())
	for i := 0; i < t.NumMethod(); i++ {
		methods = append(methods, t.Method(i).Name)
	}
	fields := []string{}
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			fields = append(fields, t.Field(i).Name)
		}
	}
	elem := ""
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
		elem = t.Elem().String()
	}

	return map[string]any{
		"name":       t.Name(),
		"fullName":   t.String(),
		"kind":       t.Kind().String(),
		"pkg":        t.PkgPath(),
		"elem":       elem,
		"methods":    methods,
		"fields":     fields,
		"numMethod":  len(methods),
		"comparable": t.Comparable(),
	}
}

// descriptorKeys lists the variables Describe always sets.
var descriptorKeys = []string{"name", "fullName", "kind", "pkg", "elem", "methods", "fields", "numMethod", "comparable"}
