package assoc

import (
	"errors"
	"go/token"
	"testing"
)

func strPtr(s string) *string { return &s }

func variable(name, typ string) Declaration {
	return Declaration{
		Kind:  DeclVariable,
		Owner: "Widget",
		Names: []string{name},
		Type:  typ,
		Pos:   token.Position{Filename: "widget.go", Line: 12, Column: 2},
	}
}

func TestExtractValidationOrder(t *testing.T) {
	cases := []struct {
		name string
		decl Declaration
		cfg  Config
		want DiagnosticKind
	}{
		{
			name: "not a variable",
			decl: Declaration{Kind: DeclFunc, Names: []string{"count"}, Initializer: "1"},
			cfg:  Config{},
			want: RequireVariableDeclaration,
		},
		{
			name: "multiple names",
			decl: Declaration{Kind: DeclVariable, Names: []string{"a", "b"}, Type: "*int"},
			cfg:  Config{Policy: "retain"},
			want: RequireVariableDeclaration,
		},
		{
			name: "blank identifier",
			decl: variable("_", "*int"),
			cfg:  Config{Policy: "retain"},
			want: RequireVariableDeclaration,
		},
		{
			name: "missing policy beats initializer",
			decl: func() Declaration { d := variable("count", ""); d.Initializer = "5"; return d }(),
			cfg:  Config{},
			want: RequireTypePolicy,
		},
		{
			name: "unknown policy",
			decl: variable("count", "*int"),
			cfg:  Config{Policy: "sticky"},
			want: RequireTypePolicy,
		},
		{
			name: "initializer beats missing type",
			decl: func() Declaration { d := variable("count", ""); d.Initializer = "5"; return d }(),
			cfg:  Config{Policy: "retain"},
			want: DefaultValueAssignmentError,
		},
		{
			name: "missing type",
			decl: variable("count", ""),
			cfg:  Config{Policy: "retain", Default: strPtr("5")},
			want: RequireValueType,
		},
		{
			name: "non-optional without default",
			decl: variable("count", "int"),
			cfg:  Config{Policy: "retain"},
			want: RequireNonNilDefaultValue,
		},
		{
			name: "non-optional with nil default",
			decl: variable("count", "int"),
			cfg:  Config{Policy: "retain", Default: strPtr("nil")},
			want: RequireNonNilDefaultValue,
		},
		{
			name: "non-optional check beats bad hooks",
			decl: func() Declaration {
				d := variable("count", "int")
				d.Accessors = []AccessorClause{{Kind: AccessorWillSet}, {Kind: AccessorWillSet}}
				return d
			}(),
			cfg:  Config{Policy: "retain"},
			want: RequireNonNilDefaultValue,
		},
		{
			name: "duplicate willSet",
			decl: func() Declaration {
				d := variable("count", "*int")
				d.Accessors = []AccessorClause{{Kind: AccessorWillSet}, {Kind: AccessorWillSet}}
				return d
			}(),
			cfg:  Config{Policy: "retain"},
			want: SetActionBlocksInvalidate,
		},
		{
			name: "duplicate didSet",
			decl: func() Declaration {
				d := variable("count", "*int")
				d.Accessors = []AccessorClause{{Kind: AccessorDidSet}, {Kind: AccessorWillSet}, {Kind: AccessorDidSet}}
				return d
			}(),
			cfg:  Config{Policy: "retain"},
			want: SetActionBlocksInvalidate,
		},
		{
			name: "malformed hook beats unsupported clause",
			decl: func() Declaration {
				d := variable("count", "*int")
				d.Accessors = []AccessorClause{{Kind: "get"}, {Kind: AccessorDidSet, Malformed: true}}
				return d
			}(),
			cfg:  Config{Policy: "retain"},
			want: SetActionBlocksInvalidate,
		},
		{
			name: "unsupported clause",
			decl: func() Declaration {
				d := variable("count", "*int")
				d.Accessors = []AccessorClause{{Kind: AccessorWillSet}, {Kind: "get"}}
				return d
			}(),
			cfg:  Config{Policy: "retain"},
			want: OnlySupportSetActionInClosure,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reporter := &CollectReporter{}
			_, err := Extract(tc.decl, tc.cfg, WithReporter(reporter))
			var diag *Diagnostic
			if !errors.As(err, &diag) {
				t.Fatalf("expected *Diagnostic, got %v", err)
			}
			if diag.Kind != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, diag.Kind)
			}
			if !errors.Is(err, &Diagnostic{Kind: tc.want}) {
				t.Fatalf("expected errors.Is to match kind %v", tc.want)
			}
			reported := reporter.Diagnostics()
			if len(reported) != 1 || reported[0].Kind != tc.want {
				t.Fatalf("expected diagnostic reported once, got %+v", reported)
			}
			if reported[0].Pos != tc.decl.Pos {
				t.Fatalf("expected source position carried, got %v", reported[0].Pos)
			}
		})
	}
}

func TestExtractBuildsSpec(t *testing.T) {
	decl := variable("count", "*int")
	decl.Accessors = []AccessorClause{
		{Kind: AccessorWillSet, Body: `fmt.Println("will change")`},
		{Kind: AccessorDidSet, Param: "previous", Body: "clamp(previous)"},
	}
	spec, err := Extract(decl, Config{Policy: ".OBJC_ASSOCIATION_RETAIN_NONATOMIC", Default: strPtr(" 95 ")})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if spec.Owner != "Widget" || spec.Name != "count" || spec.Type != "*int" || spec.ValueType != "int" {
		t.Fatalf("unexpected identity fields: %+v", spec)
	}
	if !spec.Optional || spec.Policy != PolicyRetain {
		t.Fatalf("unexpected optional/policy: %+v", spec)
	}
	if spec.Default != (DefaultValue{Kind: DefaultExpr, Expr: "95"}) {
		t.Fatalf("unexpected default: %+v", spec.Default)
	}
	if spec.WillSet == nil || spec.WillSet.Param != DefaultWillSetParam {
		t.Fatalf("expected default willSet param, got %+v", spec.WillSet)
	}
	if spec.DidSet == nil || spec.DidSet.Param != "previous" || spec.DidSet.Body != "clamp(previous)" {
		t.Fatalf("expected renamed didSet param, got %+v", spec.DidSet)
	}
	if !spec.NeedsSettedFlag() {
		t.Fatalf("optional property with default needs the setted flag")
	}
}

func TestExtractDefaultKinds(t *testing.T) {
	cases := []struct {
		name     string
		typ      string
		def      *string
		wantKind DefaultKind
		wantFlag bool
	}{
		{name: "optional without default", typ: "*string", def: nil, wantKind: DefaultNone},
		{name: "optional with nil default", typ: "*string", def: strPtr("nil"), wantKind: DefaultNil},
		{name: "optional with empty default", typ: "[]string", def: strPtr("  "), wantKind: DefaultNone},
		{name: "optional with default", typ: "map[string]int", def: strPtr(`{"a": 1}`), wantKind: DefaultExpr, wantFlag: true},
		{name: "non-optional with default", typ: "string", def: strPtr(`"x"`), wantKind: DefaultExpr},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec, err := Extract(variable("value", tc.typ), Config{Policy: "copy", Default: tc.def})
			if err != nil {
				t.Fatalf("extract: %v", err)
			}
			if spec.Default.Kind != tc.wantKind {
				t.Fatalf("expected %v, got %v", tc.wantKind, spec.Default.Kind)
			}
			if spec.NeedsSettedFlag() != tc.wantFlag {
				t.Fatalf("expected setted flag %v", tc.wantFlag)
			}
		})
	}
}

func TestExtractNilableOverride(t *testing.T) {
	decl := variable("reader", "io.Reader")
	if _, err := Extract(decl, Config{Policy: "retain"}); !errors.Is(err, &Diagnostic{Kind: RequireNonNilDefaultValue}) {
		t.Fatalf("named interface is not nilable from text alone, got %v", err)
	}
	nilable := true
	decl.Nilable = &nilable
	spec, err := Extract(decl, Config{Policy: "retain"})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !spec.Optional || spec.ValueType != "io.Reader" {
		t.Fatalf("unexpected spec %+v", spec)
	}
}

func TestIsNilableType(t *testing.T) {
	nilable := []string{"*int", "[]byte", "map[string]any", "chan int", "<-chan int", "chan<- int", "func()", "func (int) error", "interface{}", "any", "error"}
	for _, typ := range nilable {
		if !IsNilableType(typ) {
			t.Fatalf("expected %q to be nilable", typ)
		}
	}
	for _, typ := range []string{"int", "string", "time.Time", "[4]int", "Point"} {
		if IsNilableType(typ) {
			t.Fatalf("expected %q not to be nilable", typ)
		}
	}
	if UnwrapType("**int") != "*int" || UnwrapType("[]int") != "[]int" {
		t.Fatalf("unexpected unwrap")
	}
}
