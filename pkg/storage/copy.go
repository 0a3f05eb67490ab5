package storage

import (
	"reflect"

	"github.com/goliatone/go-assoc/layering"
)

// Copier is implemented by values that know how to copy themselves for the
// copy policies.
type Copier interface {
	Copy() any
}

func copyValue(value any) any {
	if copier, ok := value.(Copier); ok {
		return copier.Copy()
	}
	return layering.CloneAny(value)
}

// isNil reports whether value is nil or a typed nil.
func isNil(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan, reflect.Func:
		return rv.IsNil()
	default:
		return false
	}
}
