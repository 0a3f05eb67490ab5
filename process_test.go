package assoc

import (
	"errors"
	"fmt"
	"testing"
)

func processInputs() []Input {
	inputs := []Input{
		{Decl: variable("string", "*string"), Config: Config{Policy: "retain_nonatomic"}},
		{Decl: variable("anotherString", "*string"), Config: Config{Policy: "retain_nonatomic", Default: strPtr(`"anotherString"`)}},
		{Decl: variable("notNilString", "string"), Config: Config{Policy: "retain_nonatomic"}},
		{Decl: variable("int", "int"), Config: Config{Policy: "retain_nonatomic", Default: strPtr("10")}},
		{Decl: variable("point", "*int"), Config: Config{Default: strPtr("95")}},
	}
	for i := 0; i < 20; i++ {
		inputs = append(inputs, Input{
			Decl:   variable(fmt.Sprintf("extra%d", i), "*int"),
			Config: Config{Policy: "assign"},
		})
	}
	return inputs
}

func TestProcessIsolatesFailures(t *testing.T) {
	for _, workers := range []int{1, 4, 64} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			reporter := &CollectReporter{}
			inputs := processInputs()
			results, err := Process(inputs, WithWorkers(workers), WithProcessReporter(reporter))
			if len(results) != len(inputs) {
				t.Fatalf("expected %d results, got %d", len(inputs), len(results))
			}
			if err == nil {
				t.Fatalf("expected joined error")
			}
			if !errors.Is(err, &Diagnostic{Kind: RequireNonNilDefaultValue}) || !errors.Is(err, &Diagnostic{Kind: RequireTypePolicy}) {
				t.Fatalf("expected both rejections joined, got %v", err)
			}
			if reporter.Len() != 2 {
				t.Fatalf("expected two reported diagnostics, got %d", reporter.Len())
			}

			for i, result := range results {
				failed := i == 2 || i == 4
				if failed != (result.Err != nil) || failed == (result.Accessor != nil) {
					t.Fatalf("result %d: unexpected %+v", i, result)
				}
				if result.Accessor != nil && result.Accessor.Spec.Name != inputs[i].Decl.Names[0] {
					t.Fatalf("result %d out of order: %s", i, result.Accessor.Spec.Name)
				}
			}
			if results[1].Accessor.Read.Strategy != ReadSettedFlag {
				t.Fatalf("anotherString should read through the setted flag")
			}
		})
	}
}

func TestProcessAllValid(t *testing.T) {
	results, err := Process([]Input{
		{Decl: variable("a", "*int"), Config: Config{Policy: "assign"}},
		{Decl: variable("b", "*int"), Config: Config{Policy: "assign"}},
	}, WithWorkers(2))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if results[0].Accessor.Keys.Value == results[1].Accessor.Keys.Value {
		t.Fatalf("siblings must not share keys")
	}
	empty, err := Process(nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty result, got %v %v", empty, err)
	}
}

func TestProcessSerializesReporter(t *testing.T) {
	var inputs []Input
	for i := 0; i < 64; i++ {
		inputs = append(inputs, Input{Decl: variable(fmt.Sprintf("missing%d", i), "*int")})
	}

	active := 0
	overlapped := false
	var kinds []DiagnosticKind
	reporter := ReporterFunc(func(d Diagnostic) {
		active++
		if active > 1 {
			overlapped = true
		}
		kinds = append(kinds, d.Kind)
		active--
	})

	_, err := Process(inputs, WithWorkers(16), WithProcessReporter(reporter))
	if err == nil {
		t.Fatalf("expected rejections")
	}
	if overlapped {
		t.Fatalf("reporter calls overlapped")
	}
	if len(kinds) != len(inputs) {
		t.Fatalf("expected %d reports, got %d", len(inputs), len(kinds))
	}
	for _, kind := range kinds {
		if kind != RequireTypePolicy {
			t.Fatalf("unexpected kind %v", kind)
		}
	}
}
