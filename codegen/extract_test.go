package codegen

import (
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-assoc"
)

const widgetSource = `//go:build assocgen

//assoc:property Policy: retain_nonatomic
package widgets

import "fmt"

//assoc:extend Widget
var (
	//assoc:property
	string *string

	//assoc:property Default: "anotherString"
	anotherString *string

	//assoc:property Default: 10
	int int

	//assoc:property Policy: copy, Default: []string{"a", "b"}
	tags []string

	//assoc:property Default: 95
	count *int

	untouched *int
)

//assoc:willSet count
func announceCount(self *Widget, newValue *int) {
	fmt.Println("will change")
}

//assoc:didSet count
func clampCount(self *Widget, oldValue *int) {
	if c := self.Count(); c != nil && (*c < 0 || *c > 100) {
		self.SetCount(oldValue)
	}
}

func helper() {}
`

func parseWidget(t *testing.T, src string) *Package {
	t.Helper()
	decls, err := ParseSource(token.NewFileSet(), "widget_assoc.go", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	pkg, err := Resolve(".", decls)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return pkg
}

func TestExtractDeclarations(t *testing.T) {
	pkg := parseWidget(t, widgetSource)
	if pkg.Name != "widgets" {
		t.Fatalf("unexpected package %q", pkg.Name)
	}
	if diff := cmp.Diff([]Import{{Path: "fmt"}}, pkg.Imports); diff != "" {
		t.Fatalf("imports mismatch (-want +got):\n%s", diff)
	}

	type summary struct {
		Name, Owner, Type, Policy string
		Default                   *string
	}
	var got []summary
	for _, c := range pkg.Candidates {
		got = append(got, summary{
			Name:    strings.Join(c.Decl.Names, ","),
			Owner:   c.Decl.Owner,
			Type:    c.Decl.Type,
			Policy:  c.Config.Policy,
			Default: c.Config.Default,
		})
	}
	want := []summary{
		{Name: "string", Owner: "Widget", Type: "*string", Policy: "retain_nonatomic"},
		{Name: "anotherString", Owner: "Widget", Type: "*string", Policy: "retain_nonatomic", Default: strPtr(`"anotherString"`)},
		{Name: "int", Owner: "Widget", Type: "int", Policy: "retain_nonatomic", Default: strPtr("10")},
		{Name: "tags", Owner: "Widget", Type: "[]string", Policy: "copy", Default: strPtr(`[]string{"a", "b"}`)},
		{Name: "count", Owner: "Widget", Type: "*int", Policy: "retain_nonatomic", Default: strPtr("95")},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("candidates mismatch (-want +got):\n%s", diff)
	}

	count := pkg.Candidates[4]
	wantClauses := []assoc.AccessorClause{
		{Kind: assoc.AccessorWillSet, Param: "newValue", Body: "{\n\tfmt.Println(\"will change\")\n}"},
		{Kind: assoc.AccessorDidSet, Param: "oldValue"},
	}
	if diff := cmp.Diff(wantClauses, count.Decl.Accessors, cmpopts.IgnoreFields(assoc.AccessorClause{}, "Pos", "Body")); diff != "" {
		t.Fatalf("clauses mismatch (-want +got):\n%s", diff)
	}
	if count.Decl.Accessors[0].Body != wantClauses[0].Body {
		t.Fatalf("unexpected willSet body %q", count.Decl.Accessors[0].Body)
	}
	if !strings.Contains(count.Decl.Accessors[1].Body, "self.SetCount(oldValue)") {
		t.Fatalf("unexpected didSet body %q", count.Decl.Accessors[1].Body)
	}
	if count.Receivers[assoc.AccessorDidSet] != "self" {
		t.Fatalf("unexpected receivers %v", count.Receivers)
	}
	if count.Decl.Pos.Filename != "widget_assoc.go" || count.Decl.Pos.Line != 23 {
		t.Fatalf("unexpected position %v", count.Decl.Pos)
	}
}

func TestExtractDeclarationKinds(t *testing.T) {
	src := `package widgets

//assoc:extend Widget
//assoc:property Policy: retain
var a, b *int

//assoc:extend Widget
//assoc:property Policy: retain
var c = 5

//assoc:extend Widget
//assoc:property Policy: retain
type d int

//assoc:extend Widget
//assoc:property Policy: retain
const e = 1

//assoc:extend Widget
//assoc:property Policy: retain
func f() {}
`
	pkg := parseWidget(t, src)
	kinds := map[string]assoc.DeclKind{}
	for _, c := range pkg.Candidates {
		kinds[strings.Join(c.Decl.Names, ",")] = c.Decl.Kind
	}
	want := map[string]assoc.DeclKind{
		"a,b": assoc.DeclVariable,
		"c":   assoc.DeclVariable,
		"d":   assoc.DeclType,
		"e":   assoc.DeclUnknown,
		"f":   assoc.DeclFunc,
	}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	if pkg.Candidates[1].Decl.Initializer != "5" || pkg.Candidates[1].Decl.Type != "" {
		t.Fatalf("unexpected initializer decl %+v", pkg.Candidates[1].Decl)
	}
}

func TestHookShapes(t *testing.T) {
	src := `package widgets

//assoc:extend Widget
var (
	//assoc:property Policy: retain
	count *int
)

//assoc:willSet Widget.count
func wrongOwner(self *Gadget, v *int) {}

//assoc:didSet count
func wrongArity(self *Widget) {}

//assoc:get count
func getter(self *Widget, v *int) {}
`
	pkg := parseWidget(t, src)
	clauses := pkg.Candidates[0].Decl.Accessors
	if len(clauses) != 3 {
		t.Fatalf("expected 3 clauses, got %d", len(clauses))
	}
	if !clauses[0].Malformed || !clauses[1].Malformed || clauses[2].Malformed {
		t.Fatalf("unexpected malformed flags %+v", clauses)
	}
	if clauses[2].Kind != "get" {
		t.Fatalf("unexpected kind %q", clauses[2].Kind)
	}
}

func TestResolveErrors(t *testing.T) {
	cases := map[string]struct {
		src  string
		want string
	}{
		"missing owner": {
			src:  "package p\n\n//assoc:property Policy: retain\nvar x *int\n",
			want: "no //assoc:extend owner",
		},
		"unknown target": {
			src:  "package p\n\n//assoc:extend W\n//assoc:property Policy: retain\nvar x *int\n\n//assoc:willSet y\nfunc h(self *W, v *int) {}\n",
			want: "unknown property y",
		},
		"ambiguous target": {
			src:  "package p\n\n//assoc:extend A\n//assoc:property Policy: retain\nvar x *int\n\n//assoc:extend B\n//assoc:property Policy: retain\nvar x *int\n\n//assoc:willSet x\nfunc h(self *A, v *int) {}\n",
			want: "ambiguous",
		},
		"hook without target": {
			src:  "package p\n\n//assoc:willSet\nfunc h() {}\n",
			want: "requires a property name",
		},
		"bad argument": {
			src:  "package p\n\n//assoc:extend W\n//assoc:property Sticky: yes\nvar x *int\n",
			want: "unknown //assoc:property argument",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			decls, err := ParseSource(token.NewFileSet(), "p.go", []byte(tc.src))
			if err == nil {
				_, err = Resolve(".", decls)
			}
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestResolveAcrossFiles(t *testing.T) {
	fset := token.NewFileSet()
	a, err := ParseSource(fset, "a.go", []byte("package p\n\nimport \"fmt\"\n\n//assoc:extend W\n//assoc:property Policy: retain\nvar x *int\n"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := ParseSource(fset, "b.go", []byte("package p\n\nimport \"fmt\"\n\n//assoc:didSet W.x\nfunc h(self *W, old *int) { fmt.Println(old) }\n"))
	if err != nil {
		t.Fatal(err)
	}
	pkg, err := Resolve("dir", a, b)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(pkg.Imports) != 1 || len(pkg.Candidates[0].Decl.Accessors) != 1 || pkg.Dir != "dir" {
		t.Fatalf("unexpected package %+v", pkg)
	}

	other, _ := ParseSource(fset, "c.go", []byte("package q\n"))
	if _, err := Resolve("dir", a, other); err == nil {
		t.Fatalf("expected package mismatch error")
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"widget.go":       "package widgets\n\ntype Widget struct{}\n",
		"widget_assoc.go": widgetSource,
		"other_assoc.go":  "//go:build assocgen && !assocgen\n\npackage widgets\n",
		"notes.txt":       "not go",
		"widget_test.go":  "//go:build assocgen\n\npackage widgets\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	pkg, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if pkg.Name != "widgets" || len(pkg.Candidates) != 5 {
		t.Fatalf("unexpected package %s with %d candidates", pkg.Name, len(pkg.Candidates))
	}

	if _, err := LoadDir(t.TempDir()); err == nil {
		t.Fatalf("expected error for a directory without declaration files")
	}
}

func TestIsDeclarationFile(t *testing.T) {
	cases := map[string]bool{
		"//go:build assocgen\n\npackage p\n":             true,
		"// header\n//go:build assocgen\n\npackage p\n": true,
		"//go:build !assocgen\n\npackage p\n":            false,
		"//go:build linux\n\npackage p\n":                false,
		"package p\n\n//go:build assocgen\n":             false,
	}
	for src, want := range cases {
		got, err := isDeclarationFile([]byte(src))
		if err != nil || got != want {
			t.Fatalf("isDeclarationFile(%q) = %v, %v; want %v", src, got, err, want)
		}
	}
}

func strPtr(s string) *string { return &s }
