package assoc

import (
	"fmt"
	"reflect"
)

// Ptr returns a pointer to a copy of v. Generated accessors use it to wrap
// default expressions of pointer-typed properties.
func Ptr[T any](v T) *T {
	return &v
}

// Coerce converts value to T. Beyond a plain type assertion it converts
// between numeric kinds, wraps values into pointers, and converts []any and
// map[string]any element-wise, which is what expression engines return.
func Coerce[T any](value any) (T, error) {
	var zero T
	if value == nil {
		return zero, nil
	}
	if typed, ok := value.(T); ok {
		return typed, nil
	}
	target := reflect.TypeOf((*T)(nil)).Elem()
	converted, err := convertValue(reflect.ValueOf(value), target)
	if err != nil {
		return zero, err
	}
	return converted.Interface().(T), nil
}

// MustCoerce is Coerce that panics when value cannot be converted. Generated
// getters use it for defaults of pointer-typed properties.
func MustCoerce[T any](value any) T {
	converted, err := Coerce[T](value)
	if err != nil {
		panic(err)
	}
	return converted
}

func convertValue(v reflect.Value, target reflect.Type) (reflect.Value, error) {
	if !v.IsValid() {
		return reflect.Zero(target), nil
	}
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Zero(target), nil
		}
		v = v.Elem()
	}
	source := v.Type()
	if source == target || source.AssignableTo(target) {
		out := reflect.New(target).Elem()
		out.Set(v)
		return out, nil
	}

	switch {
	case target.Kind() == reflect.Pointer:
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Zero(target), nil
			}
			v = v.Elem()
		}
		inner, err := convertValue(v, target.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		out := reflect.New(target.Elem())
		out.Elem().Set(inner)
		return out, nil
	case v.Kind() == reflect.Pointer && !v.IsNil():
		return convertValue(v.Elem(), target)
	case isNumeric(source.Kind()) && isNumeric(target.Kind()):
		return v.Convert(target), nil
	case source.Kind() == reflect.String && target.Kind() == reflect.String:
		return v.Convert(target), nil
	case source.Kind() == reflect.Bool && target.Kind() == reflect.Bool:
		return v.Convert(target), nil
	case target.Kind() == reflect.Slice && (source.Kind() == reflect.Slice || source.Kind() == reflect.Array):
		out := reflect.MakeSlice(target, v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			elem, err := convertValue(v.Index(i), target.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			out.Index(i).Set(elem)
		}
		return out, nil
	case target.Kind() == reflect.Map && source.Kind() == reflect.Map:
		out := reflect.MakeMapWithSize(target, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			key, err := convertValue(iter.Key(), target.Key())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("key %v: %w", iter.Key(), err)
			}
			elem, err := convertValue(iter.Value(), target.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("key %v: %w", iter.Key(), err)
			}
			out.SetMapIndex(key, elem)
		}
		return out, nil
	}
	return reflect.Value{}, fmt.Errorf("assoc: cannot convert %s to %s", source, target)
}

func isNumeric(kind reflect.Kind) bool {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func isNilableKind(kind reflect.Kind) bool {
	switch kind {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan, reflect.Func:
		return true
	}
	return false
}

// isNilValue reports whether value is nil or a typed nil.
func isNilValue(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	return isNilableKind(rv.Kind()) && rv.IsNil()
}
