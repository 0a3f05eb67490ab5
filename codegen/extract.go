package codegen

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"strconv"
	"strings"

	"github.com/goliatone/go-assoc"
	"github.com/goliatone/go-assoc/layering"
)

// ParseSource parses src as the file filename and extracts its declarations.
func ParseSource(fset *token.FileSet, filename string, src []byte) (*FileDecls, error) {
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("codegen: parse %q: %w", filename, err)
	}
	return ExtractDeclarations(fset, file, src)
}

// ExtractDeclarations collects //assoc:property candidates and accessor hooks
// from file. src must be the bytes file was parsed from; hook bodies are cut
// from it verbatim.
func ExtractDeclarations(fset *token.FileSet, file *ast.File, src []byte) (*FileDecls, error) {
	path := fset.Position(file.Package).Filename
	out := &FileDecls{
		Path:    path,
		Package: file.Name.Name,
		Imports: ExtractImports(file),
	}

	fileParams, _, err := ParseParams(ParseDirectives(file.Doc))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			candidates, err := extractGenDecl(fset, d, path, fileParams)
			if err != nil {
				return nil, err
			}
			out.Candidates = append(out.Candidates, candidates...)
		case *ast.FuncDecl:
			candidate, hooks, err := extractFuncDecl(fset, d, src, path, fileParams)
			if err != nil {
				return nil, err
			}
			if candidate != nil {
				out.Candidates = append(out.Candidates, *candidate)
			}
			out.Hooks = append(out.Hooks, hooks...)
		}
	}
	return out, nil
}

// ExtractImports lists the imports of file.
func ExtractImports(file *ast.File) []Import {
	imports := make([]Import, 0, len(file.Imports))
	for _, spec := range file.Imports {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		imp := Import{Path: path}
		if spec.Name != nil {
			imp.Name = spec.Name.Name
		}
		imports = append(imports, imp)
	}
	return imports
}

func extractGenDecl(fset *token.FileSet, d *ast.GenDecl, path string, fileParams Params) ([]Candidate, error) {
	if d.Tok == token.IMPORT {
		return nil, nil
	}
	groupParams, groupMarked, err := ParseParams(ParseDirectives(d.Doc))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fset.Position(d.Pos()), err)
	}

	var out []Candidate
	for _, spec := range d.Specs {
		var (
			doc  *ast.CommentGroup
			decl = assoc.Declaration{Pos: fset.Position(spec.Pos())}
		)
		switch s := spec.(type) {
		case *ast.ValueSpec:
			doc = s.Doc
			for _, name := range s.Names {
				decl.Names = append(decl.Names, name.Name)
			}
			if d.Tok == token.VAR {
				decl.Kind = assoc.DeclVariable
			}
			if s.Type != nil {
				decl.Type = types.ExprString(s.Type)
			}
			if len(s.Values) > 0 {
				values := make([]string, len(s.Values))
				for i, value := range s.Values {
					values[i] = types.ExprString(value)
				}
				decl.Initializer = strings.Join(values, ", ")
			}
		case *ast.TypeSpec:
			doc = s.Doc
			decl.Kind = assoc.DeclType
			decl.Names = []string{s.Name.Name}
		default:
			continue
		}

		specParams, specMarked, err := ParseParams(ParseDirectives(doc))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", decl.Pos, err)
		}
		if !groupMarked && !specMarked {
			continue
		}
		label := strings.Join(decl.Names, ",")
		params := layering.NewChain(
			layering.Layer[Params]{Level: layering.LevelFile, Source: path, Value: fileParams},
			layering.Layer[Params]{Level: layering.LevelGroup, Source: path, Value: groupParams},
			layering.Layer[Params]{Level: layering.LevelProperty, Source: label, Value: specParams},
		).Resolve()

		candidate, err := newCandidate(decl, params)
		if err != nil {
			return nil, err
		}
		out = append(out, candidate)
	}
	return out, nil
}

func extractFuncDecl(fset *token.FileSet, fn *ast.FuncDecl, src []byte, path string, fileParams Params) (*Candidate, []Hook, error) {
	directives := ParseDirectives(fn.Doc)
	if len(directives) == 0 {
		return nil, nil, nil
	}
	pos := fset.Position(fn.Pos())
	funcParams, marked, err := ParseParams(directives)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", pos, err)
	}

	var candidate *Candidate
	if marked {
		params := layering.NewChain(
			layering.Layer[Params]{Level: layering.LevelFile, Source: path, Value: fileParams},
			layering.Layer[Params]{Level: layering.LevelProperty, Source: fn.Name.Name, Value: funcParams},
		).Resolve()
		c, err := newCandidate(assoc.Declaration{
			Kind:  assoc.DeclFunc,
			Names: []string{fn.Name.Name},
			Pos:   pos,
		}, params)
		if err != nil {
			return nil, nil, err
		}
		candidate = &c
	}

	var hooks []Hook
	for _, d := range directives {
		if d.Kind == directiveExtend || d.Kind == directiveProperty {
			continue
		}
		if d.Arg == "" {
			return nil, nil, fmt.Errorf("codegen: %s: //assoc:%s requires a property name", pos, d.Kind)
		}
		hook := Hook{
			Kind:   assoc.AccessorKind(d.Kind),
			Target: d.Arg,
			Func:   fn.Name.Name,
			Pos:    pos,
		}
		describeHook(&hook, fset, fn, src)
		hooks = append(hooks, hook)
	}
	return candidate, hooks, nil
}

func newCandidate(decl assoc.Declaration, params Params) (Candidate, error) {
	if params.Owner != nil {
		decl.Owner = *params.Owner
	}
	if decl.Kind == assoc.DeclVariable && decl.Owner == "" {
		return Candidate{}, fmt.Errorf("codegen: %s: %s has no //assoc:extend owner", decl.Pos, strings.Join(decl.Names, ", "))
	}
	cfg := assoc.Config{Default: params.Default}
	if params.Policy != nil {
		cfg.Policy = *params.Policy
	}
	return Candidate{Decl: decl, Config: cfg, Receivers: map[assoc.AccessorKind]string{}}, nil
}

// describeHook records the signature and body of fn. Shaped stays false when
// fn is not a plain func(self *Owner, v T).
func describeHook(hook *Hook, fset *token.FileSet, fn *ast.FuncDecl, src []byte) {
	if fn.Body != nil {
		hook.Body = sourceText(fset, src, fn.Body.Lbrace, fn.Body.Rbrace+1)
	}
	if fn.Recv != nil || fn.Type.TypeParams != nil || (fn.Type.Results != nil && len(fn.Type.Results.List) > 0) || fn.Body == nil {
		return
	}
	type param struct{ name, typ string }
	var params []param
	for _, field := range fn.Type.Params.List {
		typ := types.ExprString(field.Type)
		if len(field.Names) == 0 {
			params = append(params, param{typ: typ})
			continue
		}
		for _, name := range field.Names {
			params = append(params, param{name: name.Name, typ: typ})
		}
	}
	if len(params) != 2 {
		return
	}
	hook.Self, hook.SelfType = params[0].name, params[0].typ
	hook.Param, hook.ParamType = params[1].name, params[1].typ
	if hook.Self == "" {
		hook.Self = "_"
	}
	if hook.Param == "_" {
		hook.Param = ""
	}
	hook.Shaped = true
}

func sourceText(fset *token.FileSet, src []byte, from, to token.Pos) string {
	start := fset.Position(from).Offset
	end := fset.Position(to).Offset
	if src == nil || start < 0 || end > len(src) || start >= end {
		return ""
	}
	return string(src[start:end])
}

// Resolve merges the declarations of files belonging to one package and
// attaches every hook to the property it targets.
func Resolve(dir string, files ...*FileDecls) (*Package, error) {
	pkg := &Package{Dir: dir}
	seenImports := map[Import]struct{}{}
	var hooks []Hook
	for _, file := range files {
		if file == nil {
			continue
		}
		if pkg.Name == "" {
			pkg.Name = file.Package
		} else if pkg.Name != file.Package {
			return nil, fmt.Errorf("codegen: %s: package %s, want %s", file.Path, file.Package, pkg.Name)
		}
		for _, imp := range file.Imports {
			if _, ok := seenImports[imp]; ok {
				continue
			}
			seenImports[imp] = struct{}{}
			pkg.Imports = append(pkg.Imports, imp)
		}
		pkg.Candidates = append(pkg.Candidates, file.Candidates...)
		hooks = append(hooks, file.Hooks...)
	}

	for _, hook := range hooks {
		index, err := pkg.target(hook)
		if err != nil {
			return nil, err
		}
		attachHook(&pkg.Candidates[index], hook)
	}
	return pkg, nil
}

func (p *Package) target(hook Hook) (int, error) {
	owner, name := "", hook.Target
	if i := strings.LastIndex(hook.Target, "."); i >= 0 {
		owner, name = hook.Target[:i], hook.Target[i+1:]
	}
	found := -1
	for i, candidate := range p.Candidates {
		if len(candidate.Decl.Names) != 1 || candidate.Decl.Names[0] != name {
			continue
		}
		if owner != "" && candidate.Decl.Owner != owner {
			continue
		}
		if found >= 0 {
			return 0, fmt.Errorf("codegen: %s: //assoc:%s %s is ambiguous, qualify it as Owner.%s", hook.Pos, hook.Kind, hook.Target, name)
		}
		found = i
	}
	if found < 0 {
		return 0, fmt.Errorf("codegen: %s: //assoc:%s targets unknown property %s", hook.Pos, hook.Kind, hook.Target)
	}
	return found, nil
}

func attachHook(candidate *Candidate, hook Hook) {
	malformed := !hook.Shaped ||
		hook.SelfType != "*"+candidate.Decl.Owner ||
		hook.ParamType != candidate.Decl.Type
	candidate.Decl.Accessors = append(candidate.Decl.Accessors, assoc.AccessorClause{
		Kind:      hook.Kind,
		Param:     hook.Param,
		Body:      hook.Body,
		Malformed: malformed,
		Pos:       hook.Pos,
	})
	if candidate.Receivers == nil {
		candidate.Receivers = map[assoc.AccessorKind]string{}
	}
	candidate.Receivers[hook.Kind] = hook.Self
}
