package form

import (
	"reflect"
	"strings"
)

// binding maps a form field name to a string field of the values struct.
type binding struct {
	name        string // form tag, dot-joined for nested structs
	label       string // label tag, falls back to name
	index       []int  // reflect index path into the struct
	validateTag string
}

// bindStruct walks t and returns a binding for every exported string field.
// Field names come from the `form` tag or the lower-cased Go name; "-" skips
// a field. Nested structs are flattened with dot notation.
func bindStruct(t reflect.Type) []binding {
	return appendBindings(nil, t, "", nil)
}

func appendBindings(out []binding, t reflect.Type, prefix string, parent []int) []binding {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return out
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name := field.Tag.Get("form")
		if name == "" {
			name = strings.ToLower(field.Name)
		}
		if name == "-" {
			continue
		}
		if prefix != "" {
			name = prefix + "." + name
		}

		index := make([]int, len(parent)+1)
		copy(index, parent)
		index[len(parent)] = i

		switch field.Type.Kind() {
		case reflect.String:
			label := field.Tag.Get("label")
			if label == "" {
				label = name
			}
			out = append(out, binding{
				name:        name,
				label:       label,
				index:       index,
				validateTag: field.Tag.Get("validate"),
			})
		case reflect.Struct:
			out = appendBindings(out, field.Type, name, index)
		}
	}
	return out
}

// getString reads the bound field from values.
func getString[T any](values *T, b binding) string {
	return reflect.ValueOf(values).Elem().FieldByIndex(b.index).String()
}

// setString writes the bound field in values.
func setString[T any](values *T, b binding, value string) {
	reflect.ValueOf(values).Elem().FieldByIndex(b.index).SetString(value)
}
