package codegen

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-assoc"
)

const widgetManifest = `package: widgets
imports:
  - path: fmt
policy: retain_nonatomic
owners:
  - type: Widget
    properties:
      - name: count
        type: "*int"
        default: 95
        hooks:
          - kind: willSet
            body: fmt.Println("will change")
          - kind: didSet
            param: previous
            body: |
              if c := self.Count(); c != nil && *c > 100 {
                  self.SetCount(previous)
              }
      - name: tags
        type: "[]string"
        policy: copy
---
package: widgets
owners:
  - type: Gadget
    policy: weak
    properties:
      - name: handler
        type: Handler
        optional: true
`

func TestParseManifest(t *testing.T) {
	pkg, err := ParseManifest("widgets.yaml", strings.NewReader(widgetManifest))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if pkg.Name != "widgets" || len(pkg.Candidates) != 3 {
		t.Fatalf("unexpected package %+v", pkg)
	}

	type summary struct {
		Owner, Name, Type, Policy string
		Default                   *string
		Nilable                   *bool
		Hooks                     int
	}
	var got []summary
	for _, c := range pkg.Candidates {
		got = append(got, summary{
			Owner:   c.Decl.Owner,
			Name:    c.Decl.Names[0],
			Type:    c.Decl.Type,
			Policy:  c.Config.Policy,
			Default: c.Config.Default,
			Nilable: c.Decl.Nilable,
			Hooks:   len(c.Decl.Accessors),
		})
	}
	yes := true
	want := []summary{
		{Owner: "Widget", Name: "count", Type: "*int", Policy: "retain_nonatomic", Default: strPtr("95"), Hooks: 2},
		{Owner: "Widget", Name: "tags", Type: "[]string", Policy: "copy"},
		{Owner: "Gadget", Name: "handler", Type: "Handler", Policy: "weak", Nilable: &yes},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("candidates mismatch (-want +got):\n%s", diff)
	}

	didSet := pkg.Candidates[0].Decl.Accessors[1]
	if didSet.Param != "previous" || didSet.Malformed || !strings.HasPrefix(didSet.Body, "{\n") {
		t.Fatalf("unexpected didSet clause %+v", didSet)
	}
	if pkg.Candidates[0].Receivers[assoc.AccessorWillSet] != "self" {
		t.Fatalf("hooks default their receiver to self")
	}
}

func TestManifestGenerates(t *testing.T) {
	pkg, err := ParseManifest("widgets.yaml", strings.NewReader(widgetManifest))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out, err := Generate(pkg)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, fragment := range []string{
		"func (obj *Widget) Count() *int {",
		"func(self *Widget, previous *int) {",
		"func (obj *Gadget) Handler() Handler {",
		"gadgetAssociations.Set(obj, __associated_Gadget_handler_Key, newValue, assoc.PolicyWeak)",
	} {
		if !strings.Contains(string(out), fragment) {
			t.Fatalf("generated code is missing %q:\n%s", fragment, out)
		}
	}
}

func TestParseManifestErrors(t *testing.T) {
	cases := map[string]struct {
		src  string
		want string
	}{
		"empty":          {src: "", want: "manifest is empty"},
		"no package":     {src: "owners: []\n", want: "package is required"},
		"bad owner":      {src: "package: p\nowners:\n  - type: pkg.Type\n", want: "not an identifier"},
		"unknown field":  {src: "package: p\nowner: []\n", want: "unknown field"},
		"hook kind":      {src: "package: p\nowners:\n  - type: W\n    properties:\n      - name: x\n        type: int\n        hooks:\n          - body: x\n", want: "hook without kind"},
		"mixed packages": {src: "package: p\n---\npackage: q\n", want: "package q, want p"},
		"invalid yaml":   {src: "package: [\n", want: "widgets.yaml"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseManifest("widgets.yaml", strings.NewReader(tc.src))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "widgets.json")
	src := `{"package": "widgets", "owners": [{"type": "Widget", "properties": [{"name": "count", "type": "*int", "policy": "assign"}]}]}`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	pkg, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if pkg.Dir != filepath.Dir(path) || pkg.Candidates[0].Config.Policy != "assign" {
		t.Fatalf("unexpected package %+v", pkg)
	}
	if _, err := LoadManifest(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing manifest")
	}
}
