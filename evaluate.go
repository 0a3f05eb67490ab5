package assoc

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNoEvaluator is returned when no evaluator can be resolved for a default
// expression.
var ErrNoEvaluator = errors.New("assoc: evaluator not configured")

// Engine names a built-in expression engine.
type Engine string

const (
	EngineExpr Engine = "expr"
	EngineCEL  Engine = "cel"
	// EngineJS requires the js_eval build tag.
	EngineJS Engine = "js"
)

// evaluation holds the expression machinery a property uses to compute its
// default on a read miss.
type evaluation struct {
	mu        sync.Mutex
	evaluator Evaluator
	engine    Engine
	functions *FunctionRegistry
	cache     ProgramCache
	logger    EvaluatorLogger
	args      map[string]any
	metadata  map[string]any
}

func (e *evaluation) evaluatorLogger() EvaluatorLogger {
	if e.logger == nil {
		return noopEvaluatorLogger{}
	}
	return e.logger
}

// Evaluate runs expr for property, logging the attempt.
func (e *evaluation) Evaluate(property, expr string, snapshot any) (any, error) {
	if expr == "" {
		return nil, fmt.Errorf("assoc: expression must not be empty")
	}
	evaluator, err := e.resolveEvaluator()
	if err != nil {
		e.evaluatorLogger().LogEvaluation(EvaluatorLogEvent{
			Engine:   string(e.engine),
			Expr:     expr,
			Property: property,
			Err:      err,
		})
		return nil, err
	}
	ctx := RuleContext{
		Snapshot: snapshot,
		Args:     e.args,
		Metadata: e.metadata,
		Property: property,
	}.withDefaults()
	engine := evaluatorEngineName(evaluator)
	start := time.Now()
	value, evalErr := evaluator.Evaluate(ctx, expr)
	duration := time.Since(start)
	evalErr = wrapEvaluationError(engine, expr, ctx.label(), evalErr)
	e.evaluatorLogger().LogEvaluation(EvaluatorLogEvent{
		Engine:   engine,
		Expr:     expr,
		Property: ctx.label(),
		Duration: duration,
		Err:      evalErr,
	})
	if evalErr != nil {
		return nil, evalErr
	}
	return value, nil
}

func (e *evaluation) resolveEvaluator() (Evaluator, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.evaluator != nil {
		return e.evaluator, nil
	}
	evaluator, err := newEngine(e.engine, e.functions, e.cache)
	if err != nil {
		return nil, err
	}
	e.evaluator = evaluator
	return evaluator, nil
}

func newEngine(engine Engine, functions *FunctionRegistry, cache ProgramCache) (Evaluator, error) {
	var evaluator Evaluator
	switch engine {
	case "", EngineExpr:
		evaluator = NewExprEvaluator(ExprWithProgramCache(cache), ExprWithFunctionRegistry(functions))
	case EngineCEL:
		evaluator = NewCELEvaluator(CELWithProgramCache(cache), CELWithFunctionRegistry(functions))
	case EngineJS:
		if !jsEvaluatorAvailable() {
			return nil, fmt.Errorf("%w: engine %q requires the js_eval build tag", ErrNoEvaluator, engine)
		}
		evaluator = NewJSEvaluator(JSWithProgramCache(cache), JSWithFunctionRegistry(functions))
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", ErrNoEvaluator, engine)
	}
	if evaluator == nil {
		return nil, ErrNoEvaluator
	}
	return evaluator, nil
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", e) {
	case "*assoc.exprEvaluator":
		return "expr"
	case "*assoc.celEvaluator":
		return "cel"
	case "*assoc.jsEvaluator":
		return "js"
	default:
		return "custom"
	}
}
