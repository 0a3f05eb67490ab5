// Package assoc attaches named, typed properties to values of a type you do
// not own, backed by a side table instead of struct fields.
//
// A property is declared once with a storage Policy, a value type and an
// optional default expression plus willSet/didSet hooks. Extract validates
// the declaration and reports at most one Diagnostic from a closed taxonomy.
// Allocate derives the storage keys. Synthesize produces the read and
// write logic.
//
// The logic can be executed at runtime through Declare:
//
//	table := storage.NewTable[Widget]()
//	count := assoc.MustDeclare[Widget, *int](table, "count",
//		assoc.WithPolicy(assoc.PolicyRetain),
//		assoc.WithDefault("95"),
//	)
//	count.Get(w) // 95 until written
//
// or rendered into Go methods by the codegen package and cmd/assocgen.
//
// Default expressions are evaluated on every read miss with the expr engine
// unless WithEvaluator selects another one (CEL, or JavaScript behind the
// js_eval build tag). Evaluation failures are wrapped in *EvaluationError and
// sent to the configured EvaluatorLogger; the read then yields the zero value.
package assoc
