package assoc

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/goliatone/go-assoc/pkg/activity"
)

var (
	// ErrNoStorage is returned by Declare when store is nil.
	ErrNoStorage = errors.New("assoc: storage not configured")
	// ErrDefaultFuncType is returned when a WithDefaultFunc function does not
	// produce the declared value type.
	ErrDefaultFuncType = errors.New("assoc: default func does not match property type")
)

// Property is an associated property of objects of type O holding values of
// type T. It executes the synthesized read and write logic against a
// Storage[O].
type Property[O, T any] struct {
	accessor    Accessor
	store       Storage[O]
	eval        *evaluation
	defaultFunc func() T
	willSet     func(obj *O, newValue T)
	didSet      func(obj *O, oldValue T)
	emitter     *activity.Emitter
}

// Declare validates and synthesizes a property named name. T's nilability
// decides whether the property is optional. Rejections are returned as
// *Diagnostic and sent to the configured reporter.
func Declare[O, T any](store Storage[O], name string, opts ...PropertyOption) (*Property[O, T], error) {
	if store == nil {
		return nil, ErrNoStorage
	}
	cfg := bindConfig{reporter: NopReporter{}}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.reporter == nil {
		cfg.reporter = NopReporter{}
	}
	owner := cfg.owner
	if owner == "" {
		owner = typeLabel[O]()
	}

	valueType := reflect.TypeOf((*T)(nil)).Elem()
	nilable := isNilableKind(valueType.Kind())
	decl := Declaration{
		Kind:    DeclVariable,
		Owner:   owner,
		Names:   []string{name},
		Type:    valueType.String(),
		Nilable: &nilable,
		Pos:     cfg.pos,
	}

	var willSet func(*O, T)
	for _, hook := range cfg.willSets {
		fn, ok := hook.(func(*O, T))
		decl.Accessors = append(decl.Accessors, AccessorClause{Kind: AccessorWillSet, Malformed: !ok || fn == nil, Pos: cfg.pos})
		willSet = fn
	}
	var didSet func(*O, T)
	for _, hook := range cfg.didSets {
		fn, ok := hook.(func(*O, T))
		decl.Accessors = append(decl.Accessors, AccessorClause{Kind: AccessorDidSet, Malformed: !ok || fn == nil, Pos: cfg.pos})
		didSet = fn
	}

	spec, err := Extract(decl, Config{Policy: cfg.policy, Default: cfg.defaultExpr}, WithReporter(cfg.reporter))
	if err != nil {
		return nil, err
	}

	var defaultFunc func() T
	if cfg.defaultFunc != nil {
		fn, ok := cfg.defaultFunc.(func() T)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s has %T, want func() %s", ErrDefaultFuncType, owner, name, cfg.defaultFunc, valueType)
		}
		defaultFunc = fn
	}

	p := &Property[O, T]{
		accessor:    Synthesize(spec, Allocate(spec)),
		store:       store,
		defaultFunc: defaultFunc,
		willSet:     willSet,
		didSet:      didSet,
		eval: &evaluation{
			evaluator: cfg.evaluator,
			engine:    cfg.engine,
			functions: cfg.functions,
			cache:     cfg.cache,
			logger:    cfg.logger,
			args:      cfg.args,
			metadata:  cfg.metadata,
		},
	}
	if len(cfg.hooks) > 0 {
		p.emitter = activity.NewEmitter(cfg.hooks, activity.Config{Enabled: true, Channel: cfg.channel})
	}
	return p, nil
}

// MustDeclare is Declare that panics on error.
func MustDeclare[O, T any](store Storage[O], name string, opts ...PropertyOption) *Property[O, T] {
	p, err := Declare[O, T](store, name, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Name returns the property name.
func (p *Property[O, T]) Name() string {
	return p.accessor.Spec.Name
}

// Spec returns the validated specification.
func (p *Property[O, T]) Spec() PropertySpec {
	return p.accessor.Spec
}

// Keys returns the allocated storage keys.
func (p *Property[O, T]) Keys() StorageKeys {
	return p.accessor.Keys
}

// Accessor returns the synthesized read and write logic.
func (p *Property[O, T]) Accessor() Accessor {
	return p.accessor
}

// Get reads the property of obj. A miss falls back to the default, which is
// recomputed on every call; once the property was explicitly set to nil the
// default is no longer consulted.
func (p *Property[O, T]) Get(obj *O) T {
	read := p.accessor.Read
	if stored, ok := p.store.Get(obj, read.ValueKey); ok && !isNilValue(stored) {
		value, err := Coerce[T](stored)
		if err == nil {
			return value
		}
		p.eval.evaluatorLogger().LogEvaluation(EvaluatorLogEvent{
			Engine:   "storage",
			Property: p.label(),
			Err:      fmt.Errorf("assoc: stored value for %s: %w", p.label(), err),
		})
	}
	if read.Strategy == ReadSettedFlag && read.SettedKey != nil {
		if flag, ok := p.store.Get(obj, *read.SettedKey); ok && flag == true {
			var zero T
			return zero
		}
	}
	return p.fallback(obj)
}

// Set writes v to the property of obj, running willSet and didSet hooks. A
// didSet hook may call Set again; the nested write runs in full.
func (p *Property[O, T]) Set(obj *O, v T) {
	_ = p.SetContext(context.Background(), obj, v)
}

// SetContext is Set that returns activity hook failures. The write itself
// never fails.
func (p *Property[O, T]) SetContext(ctx context.Context, obj *O, v T) error {
	var old T
	captured := false
	for _, step := range p.accessor.Write.Steps {
		switch step.Kind {
		case StepWillSet:
			p.willSet(obj, v)
		case StepCaptureOld:
			old = p.Get(obj)
			captured = true
		case StepStoreValue:
			p.store.Set(obj, step.Key, boxValue(v), step.Policy)
		case StepMarkSetted:
			p.store.Set(obj, step.Key, true, step.Policy)
		case StepDidSet:
			p.didSet(obj, old)
		default:
			panic(invariantError{msg: fmt.Sprintf("unknown write step %v", step.Kind)})
		}
	}
	return p.emit(ctx, obj, old, captured, v)
}

// Reset empties both slots of obj so the next read falls back to the
// default again.
func (p *Property[O, T]) Reset(obj *O) {
	p.store.Set(obj, p.accessor.Keys.Value, nil, p.accessor.Spec.Policy)
	if p.accessor.Keys.Setted != nil {
		p.store.Set(obj, *p.accessor.Keys.Setted, nil, PolicyRetain)
	}
}

func (p *Property[O, T]) fallback(obj *O) T {
	var zero T
	def := p.accessor.Read.Default
	if def.Kind != DefaultExpr {
		return zero
	}
	if p.defaultFunc != nil {
		return p.defaultFunc()
	}
	raw, err := p.eval.Evaluate(p.label(), def.Expr, map[string]any{"self": obj})
	if err != nil {
		return zero
	}
	value, err := Coerce[T](raw)
	if err != nil {
		p.eval.evaluatorLogger().LogEvaluation(EvaluatorLogEvent{
			Engine:   evaluatorEngineName(p.eval.evaluator),
			Expr:     def.Expr,
			Property: p.label(),
			Err:      wrapEvaluationError("", def.Expr, p.label(), err),
		})
		return zero
	}
	return value
}

func (p *Property[O, T]) emit(ctx context.Context, obj *O, old T, captured bool, v T) error {
	if p.emitter == nil || !p.emitter.Enabled() {
		return nil
	}
	input := activity.PropertyEventInput{
		ObjectID: fmt.Sprintf("%s@%p", p.label(), obj),
		Owner:    p.accessor.Spec.Owner,
		Property: p.accessor.Spec.Name,
		Policy:   p.accessor.Spec.Policy.String(),
		Key:      p.accessor.Keys.Value.Name,
		NewValue: boxValue(v),
	}
	if captured {
		input.OldValue = boxValue(old)
	}
	return p.emitter.Emit(ctx, activity.BuildPropertyUpdatedEvent(input))
}

func (p *Property[O, T]) label() string {
	return qualifiedName(p.accessor.Spec.Owner, p.accessor.Spec.Name)
}

// boxValue turns typed nils into an untyped nil so storage sees an empty slot.
func boxValue(v any) any {
	if isNilValue(v) {
		return nil
	}
	return v
}

func typeLabel[O any]() string {
	t := reflect.TypeOf((*O)(nil)).Elem()
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
