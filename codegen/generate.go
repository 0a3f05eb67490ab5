package codegen

import (
	"bytes"
	"fmt"
	"go/token"
	"strings"
	"text/template"
	"unicode"
	"unicode/utf8"

	"golang.org/x/tools/imports"

	"github.com/goliatone/go-assoc"
)

const (
	assocImport   = "github.com/goliatone/go-assoc"
	storageImport = "github.com/goliatone/go-assoc/pkg/storage"
	uuidImport    = "github.com/google/uuid"

	receiverName = "obj"
	newValueName = "newValue"
	oldValueName = "oldValue"
)

// DefaultFilename is the output file name used when none is configured.
const DefaultFilename = "assoc_gen.go"

// Option configures Generate.
type Option func(*config)

type config struct {
	reporter assoc.Reporter
	workers  int
	filename string
}

// WithReporter receives every diagnostic raised while validating candidates.
func WithReporter(reporter assoc.Reporter) Option {
	return func(cfg *config) {
		cfg.reporter = reporter
	}
}

// WithWorkers validates candidates on n goroutines. The reporter still
// receives one diagnostic at a time.
func WithWorkers(n int) Option {
	return func(cfg *config) {
		cfg.workers = n
	}
}

// WithFilename names the output file, used by the import fixer to resolve
// the package directory.
func WithFilename(name string) Option {
	return func(cfg *config) {
		cfg.filename = name
	}
}

// Generate validates every candidate of pkg and renders the accessors. Any
// diagnostic fails the whole run; the returned error joins them.
func Generate(pkg *Package, opts ...Option) ([]byte, error) {
	cfg := config{reporter: assoc.NopReporter{}, workers: 1, filename: DefaultFilename}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if pkg == nil || pkg.Name == "" {
		return nil, fmt.Errorf("codegen: package name is required")
	}

	inputs := make([]assoc.Input, len(pkg.Candidates))
	for i, candidate := range pkg.Candidates {
		inputs[i] = assoc.Input{Decl: candidate.Decl, Config: candidate.Config}
	}
	results, err := assoc.Process(inputs, assoc.WithWorkers(cfg.workers), assoc.WithProcessReporter(cfg.reporter))
	if err != nil {
		return nil, err
	}

	model, err := buildModel(pkg, results)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, model); err != nil {
		return nil, fmt.Errorf("codegen: render: %w", err)
	}
	out, err := imports.Process(cfg.filename, buf.Bytes(), &imports.Options{
		Comments:  true,
		TabIndent: true,
		TabWidth:  8,
	})
	if err != nil {
		return nil, fmt.Errorf("codegen: format generated code: %w", err)
	}
	return out, nil
}

type fileModel struct {
	Package string
	Imports []Import
	Keys    []keyModel
	Owners  []*ownerModel
}

type keyModel struct {
	Name string
	ID   string
}

type ownerModel struct {
	Name       string
	Table      string
	Properties []propertyModel
}

type propertyModel struct {
	Owner     string
	Name      string
	Type      string
	Receiver  string
	Getter    string
	Setter    string
	Param     string
	Table     string
	ValueKey  string
	SettedKey string
	Fallback  string
	Steps     []string
}

func buildModel(pkg *Package, results []assoc.Result) (fileModel, error) {
	model := fileModel{
		Package: pkg.Name,
		Imports: mergeImports(pkg.Imports),
	}
	owners := map[string]*ownerModel{}
	tables := map[string]string{}
	keys := map[string]string{}
	methods := map[string]string{}

	for i, result := range results {
		accessor := result.Accessor
		if accessor == nil {
			continue
		}
		spec := accessor.Spec
		qualified := spec.Owner + "." + spec.Name
		if !token.IsIdentifier(spec.Owner) {
			return fileModel{}, fmt.Errorf("codegen: %s: owner %q must be a type declared in package %s", spec.Pos, spec.Owner, pkg.Name)
		}

		owner, ok := owners[spec.Owner]
		if !ok {
			table := lowerFirst(spec.Owner) + "Associations"
			if other, taken := tables[table]; taken {
				return fileModel{}, fmt.Errorf("codegen: owners %s and %s share table name %s", other, spec.Owner, table)
			}
			tables[table] = spec.Owner
			owner = &ownerModel{Name: spec.Owner, Table: table}
			owners[spec.Owner] = owner
			model.Owners = append(model.Owners, owner)
		}

		for _, key := range []*assoc.Key{&accessor.Keys.Value, accessor.Keys.Setted} {
			if key == nil {
				continue
			}
			if other, taken := keys[key.Name]; taken {
				return fileModel{}, fmt.Errorf("codegen: %s: key %s of %s collides with %s", spec.Pos, key.Name, qualified, other)
			}
			keys[key.Name] = qualified
			model.Keys = append(model.Keys, keyModel{Name: key.Name, ID: key.ID.String()})
		}

		prop := propertyModel{
			Owner:    spec.Owner,
			Name:     spec.Name,
			Type:     spec.Type,
			Receiver: receiverName,
			Getter:   exported(spec.Name),
			Setter:   "Set" + exported(spec.Name),
			Param:    newValueName,
			Table:    owner.Table,
			ValueKey: accessor.Keys.Value.Name,
			Fallback: fallbackExpr(accessor.Read, spec.Type),
		}
		if accessor.Read.Strategy == assoc.ReadSettedFlag && accessor.Read.SettedKey != nil {
			prop.SettedKey = accessor.Read.SettedKey.Name
		}
		for _, method := range []string{prop.Getter, prop.Setter} {
			id := spec.Owner + "." + method
			if other, taken := methods[id]; taken {
				return fileModel{}, fmt.Errorf("codegen: %s: method %s of %s collides with %s", spec.Pos, id, qualified, other)
			}
			methods[id] = qualified
		}

		steps, err := renderSteps(prop, accessor.Write, pkg.Candidates[i].Receivers)
		if err != nil {
			return fileModel{}, fmt.Errorf("codegen: %s: %w", spec.Pos, err)
		}
		prop.Steps = steps
		owner.Properties = append(owner.Properties, prop)
	}
	return model, nil
}

func renderSteps(prop propertyModel, write assoc.WriteLogic, receivers map[assoc.AccessorKind]string) ([]string, error) {
	steps := make([]string, 0, len(write.Steps))
	for _, step := range write.Steps {
		switch step.Kind {
		case assoc.StepWillSet:
			steps = append(steps, hookCall(prop, receivers[assoc.AccessorWillSet], step, newValueName))
		case assoc.StepCaptureOld:
			steps = append(steps, fmt.Sprintf("%s := %s.%s()", oldValueName, prop.Receiver, prop.Getter))
		case assoc.StepStoreValue:
			steps = append(steps, fmt.Sprintf("%s.Set(%s, %s, %s, assoc.%s)", prop.Table, prop.Receiver, step.Key.Name, prop.Param, step.Policy.GoName()))
		case assoc.StepMarkSetted:
			steps = append(steps, fmt.Sprintf("%s.Set(%s, %s, true, assoc.%s)", prop.Table, prop.Receiver, step.Key.Name, step.Policy.GoName()))
		case assoc.StepDidSet:
			steps = append(steps, hookCall(prop, receivers[assoc.AccessorDidSet], step, oldValueName))
		default:
			return nil, fmt.Errorf("unknown write step %v", step.Kind)
		}
	}
	return steps, nil
}

// hookCall splices the hook body into an immediately invoked function
// literal so the hook keeps its own parameter names.
func hookCall(prop propertyModel, self string, step assoc.WriteStep, arg string) string {
	if self == "" {
		self = "_"
	}
	return fmt.Sprintf("func(%s *%s, %s %s) %s(%s, %s)", self, prop.Owner, step.Param, prop.Type, step.Body, prop.Receiver, arg)
}

func fallbackExpr(read assoc.ReadLogic, typ string) string {
	switch read.Default.Kind {
	case assoc.DefaultExpr:
		if strings.HasPrefix(typ, "*") {
			return fmt.Sprintf("assoc.MustCoerce[%s](%s)", typ, read.Default.Expr)
		}
		return read.Default.Expr
	case assoc.DefaultNil:
		return "nil"
	}
	if read.Optional {
		return "nil"
	}
	return "*new(" + typ + ")"
}

func mergeImports(extra []Import) []Import {
	out := []Import{
		{Name: "assoc", Path: assocImport},
		{Path: storageImport},
		{Path: uuidImport},
	}
	seen := map[string]bool{assocImport: true, storageImport: true, uuidImport: true}
	for _, imp := range extra {
		if seen[imp.Path] && imp.Name == "" {
			continue
		}
		seen[imp.Path] = true
		out = append(out, imp)
	}
	return out
}

func exported(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[size:]
}

func lowerFirst(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToLower(r)) + name[size:]
}

var fileTemplate = template.Must(template.New("assoc").Parse(`// Code generated by assocgen. DO NOT EDIT.

//go:build !assocgen

package {{.Package}}

import (
{{- range .Imports}}
	{{if .Name}}{{.Name}} {{end}}{{printf "%q" .Path}}
{{- end}}
)
{{range .Owners}}
var {{.Table}} = storage.NewTable[{{.Name}}]()
{{end}}
{{range .Keys}}
var {{.Name}} = assoc.Key{Name: {{printf "%q" .Name}}, ID: uuid.MustParse({{printf "%q" .ID}})}
{{- end}}
{{range .Owners}}{{range .Properties}}
// {{.Getter}} returns the associated {{.Name}} of {{.Receiver}}.
func ({{.Receiver}} *{{.Owner}}) {{.Getter}}() {{.Type}} {
	if value, ok := {{.Table}}.Get({{.Receiver}}, {{.ValueKey}}); ok {
		if typed, ok := value.({{.Type}}); ok {
			return typed
		}
	}
{{- if .SettedKey}}
	if flag, ok := {{.Table}}.Get({{.Receiver}}, {{.SettedKey}}); ok && flag == true {
		return nil
	}
{{- end}}
	return {{.Fallback}}
}

// {{.Setter}} stores {{.Param}} as the associated {{.Name}} of {{.Receiver}}.
func ({{.Receiver}} *{{.Owner}}) {{.Setter}}({{.Param}} {{.Type}}) {
{{- range .Steps}}
	{{.}}
{{- end}}
}
{{end}}{{end}}`))
