package assoc

import (
	"reflect"
	"testing"
)

type label string

func TestCoerce(t *testing.T) {
	if got, err := Coerce[int](95); err != nil || got != 95 {
		t.Fatalf("identity: %v %v", got, err)
	}
	if got, err := Coerce[int](float64(7)); err != nil || got != 7 {
		t.Fatalf("numeric: %v %v", got, err)
	}
	got, err := Coerce[*int](95)
	if err != nil || got == nil || *got != 95 {
		t.Fatalf("pointer wrap: %v %v", got, err)
	}
	other, _ := Coerce[*int](95)
	if other == got {
		t.Fatalf("each coercion must allocate a new pointer")
	}
	if got, err := Coerce[*int64](Ptr(3)); err != nil || *got != 3 {
		t.Fatalf("pointer to pointer: %v %v", got, err)
	}
	if got, err := Coerce[*string](nil); err != nil || got != nil {
		t.Fatalf("nil: %v %v", got, err)
	}
	if got, err := Coerce[label]("x"); err != nil || got != "x" {
		t.Fatalf("named string: %v %v", got, err)
	}
	if got, err := Coerce[[]int]([]any{1, 2.0}); err != nil || !reflect.DeepEqual(got, []int{1, 2}) {
		t.Fatalf("slice: %v %v", got, err)
	}
	if got, err := Coerce[map[string]int](map[string]any{"a": 1}); err != nil || got["a"] != 1 {
		t.Fatalf("map: %v %v", got, err)
	}
	if got, err := Coerce[any](5); err != nil || got != 5 {
		t.Fatalf("interface: %v %v", got, err)
	}
	if _, err := Coerce[int]("five"); err == nil {
		t.Fatalf("expected string to int to fail")
	}
	if _, err := Coerce[string](65); err == nil {
		t.Fatalf("expected int to string to fail")
	}
}

func TestIsNilValue(t *testing.T) {
	var p *int
	var m map[string]int
	if !isNilValue(nil) || !isNilValue(p) || !isNilValue(m) {
		t.Fatalf("expected nils")
	}
	if isNilValue(0) || isNilValue("") || isNilValue(Ptr(0)) {
		t.Fatalf("expected non-nils")
	}
}
