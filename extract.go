package assoc

import (
	"go/token"
	"strings"
)

const (
	// DefaultWillSetParam is bound to the incoming value when a willSet hook
	// does not name its parameter.
	DefaultWillSetParam = "newValue"
	// DefaultDidSetParam is bound to the previous value when a didSet hook
	// does not name its parameter.
	DefaultDidSetParam = "oldValue"
)

// ExtractOption configures Extract.
type ExtractOption func(*extractConfig)

type extractConfig struct {
	reporter Reporter
}

// WithReporter sends every rejection to reporter in addition to returning it.
func WithReporter(reporter Reporter) ExtractOption {
	return func(cfg *extractConfig) {
		if reporter == nil {
			cfg.reporter = NopReporter{}
			return
		}
		cfg.reporter = reporter
	}
}

// Extract validates decl and cfg and normalizes them into a PropertySpec.
// Checks run in a fixed order and the first failure wins; the failure is
// returned as a *Diagnostic.
func Extract(decl Declaration, cfg Config, opts ...ExtractOption) (PropertySpec, error) {
	config := extractConfig{reporter: NopReporter{}}
	for _, opt := range opts {
		if opt != nil {
			opt(&config)
		}
	}
	spec, diag := extract(decl, cfg)
	if diag != nil {
		config.reporter.Report(*diag)
		return PropertySpec{}, diag
	}
	return spec, nil
}

func extract(decl Declaration, cfg Config) (PropertySpec, *Diagnostic) {
	if decl.Kind != DeclVariable || len(decl.Names) != 1 || !validIdentifier(decl.Names[0]) {
		return PropertySpec{}, newDiagnostic(RequireVariableDeclaration, decl)
	}
	if strings.TrimSpace(cfg.Policy) == "" {
		return PropertySpec{}, newDiagnostic(RequireTypePolicy, decl)
	}
	policy, err := ParsePolicy(cfg.Policy)
	if err != nil {
		return PropertySpec{}, newDiagnostic(RequireTypePolicy, decl)
	}
	if strings.TrimSpace(decl.Initializer) != "" {
		return PropertySpec{}, newDiagnostic(DefaultValueAssignmentError, decl)
	}
	typ := strings.TrimSpace(decl.Type)
	if typ == "" {
		return PropertySpec{}, newDiagnostic(RequireValueType, decl)
	}
	optional := IsNilableType(typ)
	if decl.Nilable != nil {
		optional = *decl.Nilable
	}
	def := parseDefault(cfg.Default)
	if !optional && def.Kind != DefaultExpr {
		return PropertySpec{}, newDiagnostic(RequireNonNilDefaultValue, decl)
	}

	var willSet, didSet *SetAction
	for _, clause := range decl.Accessors {
		switch clause.Kind {
		case AccessorWillSet:
			if willSet != nil || clause.Malformed {
				return PropertySpec{}, newDiagnostic(SetActionBlocksInvalidate, decl)
			}
			willSet = &SetAction{Param: paramOrDefault(clause.Param, DefaultWillSetParam), Body: clause.Body}
		case AccessorDidSet:
			if didSet != nil || clause.Malformed {
				return PropertySpec{}, newDiagnostic(SetActionBlocksInvalidate, decl)
			}
			didSet = &SetAction{Param: paramOrDefault(clause.Param, DefaultDidSetParam), Body: clause.Body}
		}
	}
	for _, clause := range decl.Accessors {
		if clause.Kind != AccessorWillSet && clause.Kind != AccessorDidSet {
			return PropertySpec{}, newDiagnostic(OnlySupportSetActionInClosure, decl)
		}
	}

	return PropertySpec{
		Owner:     decl.Owner,
		Name:      decl.Names[0],
		Type:      typ,
		ValueType: UnwrapType(typ),
		Optional:  optional,
		Policy:    policy,
		Default:   def,
		WillSet:   willSet,
		DidSet:    didSet,
		Pos:       decl.Pos,
	}, nil
}

func parseDefault(raw *string) DefaultValue {
	if raw == nil {
		return DefaultValue{Kind: DefaultNone}
	}
	expr := strings.TrimSpace(*raw)
	switch expr {
	case "":
		return DefaultValue{Kind: DefaultNone}
	case NilLiteral:
		return DefaultValue{Kind: DefaultNil}
	default:
		return DefaultValue{Kind: DefaultExpr, Expr: expr}
	}
}

func paramOrDefault(param, fallback string) string {
	param = strings.TrimSpace(param)
	if param == "" {
		return fallback
	}
	return param
}

func validIdentifier(name string) bool {
	return name != "_" && token.IsIdentifier(name)
}

// IsNilableType reports whether the Go type expression typ admits nil.
// Named interface types cannot be recognized from text alone; front-ends
// with type information set Declaration.Nilable instead.
func IsNilableType(typ string) bool {
	typ = strings.TrimSpace(typ)
	switch {
	case typ == "any", typ == "error":
		return true
	case strings.HasPrefix(typ, "*"),
		strings.HasPrefix(typ, "[]"),
		strings.HasPrefix(typ, "map["),
		strings.HasPrefix(typ, "chan "),
		strings.HasPrefix(typ, "chan<-"),
		strings.HasPrefix(typ, "<-chan"),
		strings.HasPrefix(typ, "func("),
		strings.HasPrefix(typ, "func ("),
		strings.HasPrefix(typ, "interface{"),
		strings.HasPrefix(typ, "interface {"):
		return true
	}
	return false
}

// UnwrapType strips one pointer indirection from typ.
func UnwrapType(typ string) string {
	typ = strings.TrimSpace(typ)
	if strings.HasPrefix(typ, "*") {
		return strings.TrimSpace(typ[1:])
	}
	return typ
}
