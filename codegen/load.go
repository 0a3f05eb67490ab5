package codegen

import (
	"fmt"
	"go/build/constraint"
	"go/token"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// LoadDir parses the declaration files of dir, the .go files whose build
// constraint holds with the assocgen tag set.
func LoadDir(dir string) (*Package, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("codegen: read dir %q: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	fset := token.NewFileSet()
	var files []*FileDecls
	for _, name := range names {
		path := filepath.Join(dir, name)
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("codegen: read %q: %w", path, err)
		}
		ok, err := isDeclarationFile(src)
		if err != nil {
			return nil, fmt.Errorf("codegen: %s: %w", path, err)
		}
		if !ok {
			continue
		}
		decls, err := ParseSource(fset, path, src)
		if err != nil {
			return nil, err
		}
		files = append(files, decls)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("codegen: no //go:build %s files in %q", BuildTag, dir)
	}
	return Resolve(dir, files...)
}

// isDeclarationFile reports whether the //go:build line of src requires the
// assocgen tag and holds once it is set.
func isDeclarationFile(src []byte) (bool, error) {
	for _, line := range strings.Split(string(src), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "//") && !constraint.IsGoBuild(line) {
			continue
		}
		if !constraint.IsGoBuild(line) {
			return false, nil
		}
		expr, err := constraint.Parse(line)
		if err != nil {
			return false, err
		}
		mentioned := false
		holds := expr.Eval(func(tag string) bool {
			switch tag {
			case BuildTag:
				mentioned = true
				return true
			case runtime.GOOS, runtime.GOARCH:
				return true
			}
			return false
		})
		return mentioned && holds, nil
	}
	return false, nil
}
