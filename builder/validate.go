package builder

import (
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v2"
)

// MaxStringLength bounds each string inside an in/not_in collection.
const MaxStringLength = 120

func validateScalar(value any) error {
	switch value.(type) {
	case nil:
		return argumentError(KindValueShape, value, "value must not be null, use the 'null' operator instead")
	case string, bool, time.Time:
		return nil
	}
	if isNumber(value) {
		return nil
	}
	return argumentError(KindValueShape, value, "value must be a string, number, boolean or time, got '%v'", value)
}

func validateBoolean(value any) (bool, error) {
	b, ok := value.(bool)
	if !ok {
		return false, argumentError(KindValueShape, value, "value must be a boolean, got '%v'", value)
	}
	return b, nil
}

// validateArray checks an in/not_in operand and returns its items.
func validateArray(value any) ([]any, error) {
	items, ok := toSlice(value)
	if !ok {
		return nil, argumentError(KindValueShape, value, "value must be an array, got '%T'", value)
	}
	if len(items) == 0 {
		return nil, argumentError(KindValueShape, value, "array must have at least 1 item, got '0'")
	}

	families := make([]string, len(items))
	for i, item := range items {
		if isMapLike(item) {
			return nil, argumentError(KindValueShape, value, "array values cannot be hashes")
		}
		if _, nested := toSlice(item); nested {
			return nil, argumentError(KindValueShape, value, "array values cannot be arrays")
		}
		families[i] = typeFamily(item)
	}

	for _, f := range families[1:] {
		if f != families[0] {
			return nil, argumentError(KindValueShape, value,
				"array values must be a single consistent type, got '%s'", strings.Join(families, ", "))
		}
	}

	for _, item := range items {
		if s, ok := item.(string); ok && utf8.RuneCountInString(s) > MaxStringLength {
			return nil, argumentError(KindValueShape, value,
				"array values that are strings must be '%d' characters or less", MaxStringLength)
		}
	}

	return items, nil
}

func toSlice(v any) ([]any, bool) {
	if items, ok := v.([]any); ok {
		return items, true
	}
	if v == nil {
		return nil, false
	}
	if _, ok := v.(yaml.MapSlice); ok {
		return nil, false
	}
	if _, ok := v.(Map); ok {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

func isMapLike(v any) bool {
	switch v.(type) {
	case Map, yaml.MapSlice:
		return true
	}
	return v != nil && reflect.TypeOf(v).Kind() == reflect.Map
}

func isNumber(v any) bool {
	if v == nil {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// typeFamily names the type used for homogeneity checks; all numeric kinds
// share one family so JSON integers and floats can be mixed.
func typeFamily(v any) string {
	switch {
	case v == nil:
		return "nil"
	case isNumber(v):
		return "number"
	default:
		return reflect.TypeOf(v).String()
	}
}
