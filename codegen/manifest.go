package codegen

import (
	"errors"
	"fmt"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-assoc"
	"github.com/goliatone/go-assoc/internal/hydrate"
	"github.com/goliatone/go-assoc/layering"
)

// Manifest declares associated properties without Go source. JSON documents
// are accepted as well since they are valid YAML.
type Manifest struct {
	Package string          `json:"package"`
	Imports []Import        `json:"imports,omitempty"`
	Policy  *string         `json:"policy,omitempty"`
	Owners  []ManifestOwner `json:"owners"`
}

// ManifestOwner groups the properties added to one type.
type ManifestOwner struct {
	Type       string             `json:"type"`
	Policy     *string            `json:"policy,omitempty"`
	Properties []ManifestProperty `json:"properties"`
}

// ManifestProperty mirrors a //assoc:property declaration.
type ManifestProperty struct {
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Policy      *string        `json:"policy,omitempty"`
	Default     *string        `json:"default,omitempty"`
	Initializer string         `json:"initializer,omitempty"`
	Optional    *bool          `json:"optional,omitempty"`
	Hooks       []ManifestHook `json:"hooks,omitempty"`
}

// ManifestHook is an accessor hook given as source text.
type ManifestHook struct {
	Kind  string `json:"kind"`
	Self  string `json:"self,omitempty"`
	Param string `json:"param,omitempty"`
	Body  string `json:"body"`
}

// LoadManifest reads the manifest at path.
func LoadManifest(path string) (*Package, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("codegen: open manifest: %w", err)
	}
	defer f.Close()
	return ParseManifest(path, f)
}

// ParseManifest decodes every YAML document of r. All documents must
// declare the same package.
func ParseManifest(source string, r io.Reader) (*Package, error) {
	decoder := hydrate.NewDecoder(
		hydrate.WithPreHook[Manifest](stringifyDefaults),
		hydrate.WithDisallowUnknownFields[Manifest](),
		hydrate.WithPostHook[Manifest](validateManifest),
	)

	yamlDecoder := yaml.NewDecoder(r)
	var files []*FileDecls
	for index := 0; ; index++ {
		var payload map[string]any
		err := yamlDecoder.Decode(&payload)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("codegen: %s: %w", source, err)
		}
		if payload == nil {
			continue
		}
		manifest, err := decoder.Decode(hydrate.Context{Source: source, Document: index}, payload)
		if err != nil {
			return nil, fmt.Errorf("codegen: %w", err)
		}
		files = append(files, manifest.declarations(source, index))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("codegen: %s: manifest is empty", source)
	}
	return Resolve(filepath.Dir(source), files...)
}

func (m Manifest) declarations(source string, index int) *FileDecls {
	out := &FileDecls{Path: source, Package: m.Package, Imports: m.Imports}
	line := 0
	for _, owner := range m.Owners {
		for _, prop := range owner.Properties {
			line++
			pos := token.Position{Filename: source, Line: line}
			params := layering.NewChain(
				layering.Layer[Params]{Level: layering.LevelFile, Source: fmt.Sprint(index), Value: Params{Policy: m.Policy}},
				layering.Layer[Params]{Level: layering.LevelGroup, Source: owner.Type, Value: Params{Policy: owner.Policy}},
				layering.Layer[Params]{Level: layering.LevelProperty, Source: prop.Name, Value: Params{Policy: prop.Policy, Default: prop.Default}},
			).Resolve()

			candidate := Candidate{
				Decl: assoc.Declaration{
					Kind:        assoc.DeclVariable,
					Owner:       owner.Type,
					Names:       []string{prop.Name},
					Type:        prop.Type,
					Nilable:     prop.Optional,
					Initializer: prop.Initializer,
					Pos:         pos,
				},
				Config:    assoc.Config{Default: params.Default},
				Receivers: map[assoc.AccessorKind]string{},
			}
			if params.Policy != nil {
				candidate.Config.Policy = *params.Policy
			}
			for _, hook := range prop.Hooks {
				attachHook(&candidate, Hook{
					Kind:      assoc.AccessorKind(hook.Kind),
					Target:    prop.Name,
					Self:      orDefault(hook.Self, "self"),
					SelfType:  "*" + owner.Type,
					Param:     hook.Param,
					ParamType: prop.Type,
					Body:      "{\n" + strings.TrimRight(hook.Body, "\n") + "\n}",
					Shaped:    true,
					Pos:       pos,
				})
			}
			out.Candidates = append(out.Candidates, candidate)
		}
	}
	return out
}

// stringifyDefaults lets manifests write `default: 95` instead of quoting
// every Go expression.
func stringifyDefaults(_ hydrate.Context, payload map[string]any) (map[string]any, error) {
	owners, _ := payload["owners"].([]any)
	for _, owner := range owners {
		ownerMap, ok := owner.(map[string]any)
		if !ok {
			continue
		}
		props, _ := ownerMap["properties"].([]any)
		for _, prop := range props {
			propMap, ok := prop.(map[string]any)
			if !ok {
				continue
			}
			if value, ok := propMap["default"]; ok && value != nil {
				if _, isString := value.(string); !isString {
					propMap["default"] = fmt.Sprint(value)
				}
			}
		}
	}
	return payload, nil
}

func validateManifest(ctx hydrate.Context, m *Manifest) error {
	if m.Package == "" {
		return fmt.Errorf("%s: package is required", ctx)
	}
	for _, owner := range m.Owners {
		if !token.IsIdentifier(owner.Type) {
			return fmt.Errorf("%s: owner type %q is not an identifier", ctx, owner.Type)
		}
		for _, prop := range owner.Properties {
			for _, hook := range prop.Hooks {
				if hook.Kind == "" {
					return fmt.Errorf("%s: %s.%s has a hook without kind", ctx, owner.Type, prop.Name)
				}
			}
		}
	}
	return nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
