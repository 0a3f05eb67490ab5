// Package codegen reads associated property declarations from Go source files
// guarded by the assocgen build tag, or from YAML/JSON manifests, and
// generates getter and setter methods backed by a storage.Table.
//
// A declaration file looks like:
//
//	//go:build assocgen
//
//	package widgets
//
//	//assoc:extend Widget
//	var (
//		//assoc:property Policy: retain, Default: 95
//		count *int
//	)
//
//	//assoc:didSet count
//	func clampCount(self *Widget, oldValue *int) {
//		if c := self.Count(); c != nil && *c > 100 {
//			self.SetCount(oldValue)
//		}
//	}
//
// Hook functions are spliced into the generated setter, so they may call the
// generated accessors.
package codegen

import (
	"go/token"

	"github.com/goliatone/go-assoc"
)

// BuildTag guards declaration files from regular builds.
const BuildTag = "assocgen"

// Import is an import of a declaration file, carried into generated code so
// hook bodies keep compiling.
type Import struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	Path string `json:"path" yaml:"path"`
}

// Candidate is a declaration marked with //assoc:property together with the
// directive configuration that applies to it.
type Candidate struct {
	Decl   assoc.Declaration
	Config assoc.Config
	// Receivers names the first parameter of each attached hook.
	Receivers map[assoc.AccessorKind]string
}

// Hook is a function annotated with an accessor directive such as
// //assoc:willSet.
type Hook struct {
	Kind      assoc.AccessorKind
	Target    string
	Func      string
	Self      string
	SelfType  string
	Param     string
	ParamType string
	Body      string
	// Shaped reports a plain two-parameter function without results.
	Shaped bool
	Pos    token.Position
}

// FileDecls is what ExtractDeclarations finds in one file.
type FileDecls struct {
	Path       string
	Package    string
	Imports    []Import
	Candidates []Candidate
	Hooks      []Hook
}

// Package is the resolved input of one generator run.
type Package struct {
	Name       string
	Dir        string
	Imports    []Import
	Candidates []Candidate
}
