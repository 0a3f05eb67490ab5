package layering

import (
	"reflect"
	"testing"
)

type directiveParams struct {
	Policy  *string
	Default *string
	Tags    []string
	Extra   map[string]int
}

type nested struct {
	Name   string
	Inner  *nested
	Values []int
	hidden int
}

func strPtr(s string) *string { return &s }

func TestMergeLayersPrefersStrongerLayers(t *testing.T) {
	cases := []struct {
		name   string
		layers []directiveParams
		expect directiveParams
	}{
		{
			name:   "group policy fills missing spec policy",
			layers: []directiveParams{{Default: strPtr("95")}, {Policy: strPtr("retain")}},
			expect: directiveParams{Policy: strPtr("retain"), Default: strPtr("95")},
		},
		{
			name:   "spec policy overrides group policy",
			layers: []directiveParams{{Policy: strPtr("copy")}, {Policy: strPtr("retain")}},
			expect: directiveParams{Policy: strPtr("copy")},
		},
		{
			name:   "slices are replaced not appended",
			layers: []directiveParams{{Tags: []string{"a"}}, {Tags: []string{"b", "c"}}},
			expect: directiveParams{Tags: []string{"a"}},
		},
		{
			name: "maps are merged key by key",
			layers: []directiveParams{
				{Extra: map[string]int{"x": 1}},
				{Extra: map[string]int{"x": 9, "y": 2}},
			},
			expect: directiveParams{Extra: map[string]int{"x": 1, "y": 2}},
		},
		{
			name:   "three layers",
			layers: []directiveParams{{}, {Default: strPtr("nil")}, {Policy: strPtr("assign"), Default: strPtr("1")}},
			expect: directiveParams{Policy: strPtr("assign"), Default: strPtr("nil")},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MergeLayers(tc.layers...)
			if !reflect.DeepEqual(tc.expect, got) {
				t.Fatalf("merged mismatch:\nwant: %#v\n got: %#v", tc.expect, got)
			}
		})
	}
}

func TestMergeLayersDoesNotAliasInputs(t *testing.T) {
	weak := directiveParams{Policy: strPtr("retain"), Extra: map[string]int{"a": 1}}
	got := MergeLayers(directiveParams{}, weak)
	*got.Policy = "copy"
	got.Extra["a"] = 5
	if *weak.Policy != "retain" || weak.Extra["a"] != 1 {
		t.Fatalf("expected weak layer untouched, got %#v", weak)
	}
}

func TestMergeLayersZeroInput(t *testing.T) {
	type sample struct {
		Value int
	}
	var zero sample
	if got := MergeLayers[sample](); got != zero {
		t.Fatalf("expected MergeLayers() to return zero value, got %+v", got)
	}
}

func TestCloneDeepCopies(t *testing.T) {
	original := &nested{
		Name:   "root",
		Inner:  &nested{Name: "child", Values: []int{1, 2}},
		Values: []int{3},
		hidden: 7,
	}
	clone := Clone(original)
	if clone == original || clone.Inner == original.Inner {
		t.Fatalf("expected new pointers")
	}
	if !reflect.DeepEqual(original, clone) {
		t.Fatalf("clone mismatch:\nwant: %#v\n got: %#v", original, clone)
	}
	clone.Inner.Values[0] = 100
	clone.Values[0] = 200
	if original.Inner.Values[0] != 1 || original.Values[0] != 3 {
		t.Fatalf("expected original slices untouched, got %#v", original)
	}
	if clone.hidden != 7 {
		t.Fatalf("expected unexported field copied, got %d", clone.hidden)
	}
}

func TestCloneAny(t *testing.T) {
	if CloneAny(nil) != nil {
		t.Fatalf("expected nil clone")
	}
	src := map[string][]int{"a": {1}}
	got, ok := CloneAny(src).(map[string][]int)
	if !ok {
		t.Fatalf("expected map clone, got %T", CloneAny(src))
	}
	got["a"][0] = 9
	if src["a"][0] != 1 {
		t.Fatalf("expected source untouched")
	}
	if CloneAny(42) != 42 {
		t.Fatalf("expected scalar clone")
	}
}
