package assoc

import (
	"go/token"

	"github.com/goliatone/go-assoc/pkg/activity"
)

// FuncDefaultExpr is the default expression recorded for properties whose
// default comes from WithDefaultFunc.
const FuncDefaultExpr = "<func>"

// PropertyOption configures Declare.
type PropertyOption func(*bindConfig)

type bindConfig struct {
	owner       string
	policy      string
	defaultExpr *string
	defaultFunc any
	willSets    []any
	didSets     []any
	pos         token.Position
	reporter    Reporter
	evaluator   Evaluator
	engine      Engine
	functions   *FunctionRegistry
	cache       ProgramCache
	logger      EvaluatorLogger
	args        map[string]any
	metadata    map[string]any
	hooks       activity.Hooks
	channel     string
}

// WithOwner names the declaring type used for keys and diagnostics. It
// defaults to the Go type name of O.
func WithOwner(owner string) PropertyOption {
	return func(cfg *bindConfig) {
		cfg.owner = owner
	}
}

// WithPolicy sets the storage policy. A property without a policy is
// rejected.
func WithPolicy(policy Policy) PropertyOption {
	return func(cfg *bindConfig) {
		cfg.policy = policy.String()
	}
}

// WithPolicyToken sets the storage policy from a token accepted by
// ParsePolicy.
func WithPolicyToken(token string) PropertyOption {
	return func(cfg *bindConfig) {
		cfg.policy = token
	}
}

// WithDefault sets the default expression evaluated on every read miss.
func WithDefault(expr string) PropertyOption {
	return func(cfg *bindConfig) {
		cfg.defaultExpr = &expr
		cfg.defaultFunc = nil
	}
}

// WithNilDefault records an explicit nil default.
func WithNilDefault() PropertyOption {
	return WithDefault(NilLiteral)
}

// WithDefaultFunc computes the default with fn on every read miss. fn must
// be a func() T for the declared T.
func WithDefaultFunc[T any](fn func() T) PropertyOption {
	return func(cfg *bindConfig) {
		if fn == nil {
			return
		}
		expr := FuncDefaultExpr
		cfg.defaultExpr = &expr
		cfg.defaultFunc = fn
	}
}

// WithWillSet registers the hook run with the candidate value before it is
// stored. Registering twice rejects the property.
func WithWillSet[O, T any](fn func(obj *O, newValue T)) PropertyOption {
	return func(cfg *bindConfig) {
		cfg.willSets = append(cfg.willSets, fn)
	}
}

// WithDidSet registers the hook run with the previous value after the new
// value is stored. Registering twice rejects the property.
func WithDidSet[O, T any](fn func(obj *O, oldValue T)) PropertyOption {
	return func(cfg *bindConfig) {
		cfg.didSets = append(cfg.didSets, fn)
	}
}

// WithPosition attaches a source position to diagnostics.
func WithPosition(pos token.Position) PropertyOption {
	return func(cfg *bindConfig) {
		cfg.pos = pos
	}
}

// WithDiagnosticReporter receives the diagnostic when Declare rejects the
// property.
func WithDiagnosticReporter(reporter Reporter) PropertyOption {
	return func(cfg *bindConfig) {
		cfg.reporter = reporter
	}
}

// WithEvaluator sets the engine used for default expressions. The expr
// engine is used when none is set.
func WithEvaluator(e Evaluator) PropertyOption {
	return func(cfg *bindConfig) {
		cfg.evaluator = e
	}
}

// WithEngine selects the built-in engine for default expressions. Unlike
// WithEvaluator, the engine is built with the property's function registry
// and program cache. WithEvaluator takes precedence when both are set.
func WithEngine(engine Engine) PropertyOption {
	return func(cfg *bindConfig) {
		cfg.engine = engine
	}
}

// WithFunctionRegistry exposes registry to the default evaluator.
func WithFunctionRegistry(registry *FunctionRegistry) PropertyOption {
	return func(cfg *bindConfig) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

// WithCustomFunction registers fn under name for the default evaluator.
func WithCustomFunction(name string, fn Function) PropertyOption {
	return func(cfg *bindConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}

// WithProgramCache reuses compiled default expressions across reads.
func WithProgramCache(cache ProgramCache) PropertyOption {
	return func(cfg *bindConfig) {
		cfg.cache = cache
	}
}

// WithEvaluatorLogger records every default evaluation.
func WithEvaluatorLogger(logger EvaluatorLogger) PropertyOption {
	return func(cfg *bindConfig) {
		if logger == nil {
			cfg.logger = noopEvaluatorLogger{}
			return
		}
		cfg.logger = logger
	}
}

// WithDefaultArgs exposes args and metadata to default expressions as the
// "args" and "metadata" variables.
func WithDefaultArgs(args, metadata map[string]any) PropertyOption {
	return func(cfg *bindConfig) {
		cfg.args = args
		cfg.metadata = metadata
	}
}

// WithActivityHooks emits a property.updated event after every write.
// Hooks are cloned and nil entries dropped.
func WithActivityHooks(hooks activity.Hooks) PropertyOption {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *bindConfig) {
		cfg.hooks = normalized
	}
}

// WithActivityChannel overrides the channel stamped on emitted events.
func WithActivityChannel(channel string) PropertyOption {
	return func(cfg *bindConfig) {
		cfg.channel = channel
	}
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]activity.ActivityHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}
