package assoc

import (
	"go/token"
	"time"

	"github.com/google/uuid"
)

// DeclKind classifies the raw declaration an annotation was attached to.
type DeclKind int

const (
	// DeclUnknown marks anything the parser could not classify.
	DeclUnknown DeclKind = iota
	// DeclVariable is a variable/property declaration.
	DeclVariable
	// DeclType is a type declaration.
	DeclType
	// DeclFunc is a function declaration.
	DeclFunc
)

// AccessorKind names an accessor-like clause attached to a declaration.
type AccessorKind string

const (
	AccessorWillSet AccessorKind = "willSet"
	AccessorDidSet  AccessorKind = "didSet"
)

// AccessorClause is one accessor-like clause as written by the user. Body is
// the clause source (empty for closures bound at runtime). Malformed is set by
// front-ends when the clause cannot be expressed as a single-parameter hook.
type AccessorClause struct {
	Kind      AccessorKind
	Param     string
	Body      string
	Malformed bool
	Pos       token.Position
}

// Declaration is the raw, unvalidated form of an annotated property. Nilable,
// when set, overrides the nilability Extract infers from Type.
type Declaration struct {
	Kind        DeclKind
	Owner       string
	Names       []string
	Type        string
	Nilable     *bool
	Initializer string
	Accessors   []AccessorClause
	Pos         token.Position
}

// Config is the raw annotation configuration. Default is nil when no default
// argument was supplied; the literal "nil" is the explicit nil default.
type Config struct {
	Policy  string
	Default *string
}

// DefaultKind distinguishes the three mutually exclusive default states.
type DefaultKind int

const (
	DefaultNone DefaultKind = iota
	DefaultNil
	DefaultExpr
)

func (k DefaultKind) String() string {
	switch k {
	case DefaultNil:
		return "nil"
	case DefaultExpr:
		return "expr"
	default:
		return "none"
	}
}

// NilLiteral is the default expression treated as an explicit nil default.
const NilLiteral = "nil"

// DefaultValue is the fallback a read produces when the value slot is empty.
// Expr is only meaningful when Kind is DefaultExpr.
type DefaultValue struct {
	Kind DefaultKind
	Expr string
}

// SetAction is a willSet or didSet hook with the name its value is bound to.
type SetAction struct {
	Param string
	Body  string
}

// PropertySpec is the validated specification of one associated property.
// Values are produced by Extract and never mutated afterwards.
type PropertySpec struct {
	Owner     string
	Name      string
	Type      string
	ValueType string
	Optional  bool
	Policy    Policy
	Default   DefaultValue
	WillSet   *SetAction
	DidSet    *SetAction
	Pos       token.Position
}

// NeedsSettedFlag reports whether a second slot is required to tell "never
// assigned" apart from "assigned nil".
func (s PropertySpec) NeedsSettedFlag() bool {
	return s.Optional && s.Default.Kind == DefaultExpr
}

// Key addresses one slot of associated storage. Name is the identifier
// emitted for the key; ID is the deterministic token used at runtime.
type Key struct {
	Name string
	ID   uuid.UUID
}

// IsZero reports whether k was never allocated.
func (k Key) IsZero() bool {
	return k.Name == "" && k.ID == uuid.Nil
}

func (k Key) String() string {
	return k.Name
}

// StorageKeys are the keys allocated for one property. Setted is nil unless
// the property needs the setted flag.
type StorageKeys struct {
	Value  Key
	Setted *Key
}

// Storage is the associated-storage primitive accessors are synthesized
// against: a side table keyed by object identity and Key.
type Storage[O any] interface {
	Get(obj *O, key Key) (any, bool)
	Set(obj *O, key Key, value any, policy Policy)
}

// RuleContext carries inputs needed when evaluating a default expression.
type RuleContext struct {
	Snapshot any
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
	Property string
}

func (ctx RuleContext) withDefaultNow() RuleContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx RuleContext) withDefaultMaps() RuleContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) withDefaults() RuleContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

func (ctx RuleContext) label() string {
	if ctx.Property != "" {
		return ctx.Property
	}
	return "unknown"
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}
