package assoc

import (
	"fmt"
	"go/token"
	"sync"
)

// DiagnosticKind is the closed set of reasons a declaration is rejected.
type DiagnosticKind int

const (
	RequireVariableDeclaration DiagnosticKind = iota + 1
	RequireTypePolicy
	RequireValueType
	RequireNonNilDefaultValue
	DefaultValueAssignmentError
	SetActionBlocksInvalidate
	OnlySupportSetActionInClosure
)

var diagnosticKindNames = map[DiagnosticKind]string{
	RequireVariableDeclaration:    "requireVariableDeclaration",
	RequireTypePolicy:             "requireTypePolicy",
	RequireValueType:              "requireValueType",
	RequireNonNilDefaultValue:     "requireNonNilDefaultValue",
	DefaultValueAssignmentError:   "defaultValueAssignmentError",
	SetActionBlocksInvalidate:     "setActionBlocksInvalidate",
	OnlySupportSetActionInClosure: "onlySupportSetActionInClosure",
}

var diagnosticMessages = map[DiagnosticKind]string{
	RequireVariableDeclaration:    "`//assoc:property` must be attached to a single variable declaration.",
	RequireTypePolicy:             "`//assoc:property` must specify the storage `Policy` explicitly.",
	RequireValueType:              "`//assoc:property` must specify the value type explicitly.",
	RequireNonNilDefaultValue:     "`//assoc:property` must specify a non-nil `Default` for a non-nil value type.",
	DefaultValueAssignmentError:   "`//assoc:property` must provide the default value in its params. Move the initializer to `//assoc:property Default: <expr>`.",
	SetActionBlocksInvalidate:     "`//assoc:property` received invalid willSet/didSet hooks.",
	OnlySupportSetActionInClosure: "`//assoc:property` only supports willSet/didSet hooks.",
}

// String returns the diagnostic identifier suffix for k.
func (k DiagnosticKind) String() string {
	if name, ok := diagnosticKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("diagnosticKind(%d)", int(k))
}

// Message returns the fixed user-facing message for k.
func (k DiagnosticKind) Message() string {
	return diagnosticMessages[k]
}

// Severity classifies a diagnostic. Every kind in the taxonomy is an error.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityNote
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityNote:
		return "note"
	default:
		return "error"
	}
}

// DiagnosticDomain prefixes every diagnostic ID.
const DiagnosticDomain = "AssociatedObject"

// Diagnostic is a rejected declaration: the kind plus where it happened.
type Diagnostic struct {
	Kind     DiagnosticKind
	Pos      token.Position
	Owner    string
	Property string
}

// Message returns the fixed message for the diagnostic kind.
func (d *Diagnostic) Message() string {
	return d.Kind.Message()
}

// Severity is always SeverityError.
func (d *Diagnostic) Severity() Severity {
	return SeverityError
}

// ID returns "AssociatedObject.<kind>".
func (d *Diagnostic) ID() string {
	return DiagnosticDomain + "." + d.Kind.String()
}

func (d *Diagnostic) Error() string {
	if d == nil {
		return "<nil>"
	}
	target := d.Property
	if d.Owner != "" && d.Property != "" {
		target = d.Owner + "." + d.Property
	}
	prefix := "assoc"
	if d.Pos.IsValid() {
		prefix = d.Pos.String()
	}
	if target == "" {
		return fmt.Sprintf("%s: %s [%s]", prefix, d.Message(), d.ID())
	}
	return fmt.Sprintf("%s: %s: %s [%s]", prefix, target, d.Message(), d.ID())
}

// Is matches another *Diagnostic of the same kind, so errors.Is can compare
// against a bare &Diagnostic{Kind: ...}.
func (d *Diagnostic) Is(target error) bool {
	other, ok := target.(*Diagnostic)
	if !ok || d == nil || other == nil {
		return false
	}
	return d.Kind == other.Kind
}

func newDiagnostic(kind DiagnosticKind, decl Declaration) *Diagnostic {
	diag := &Diagnostic{
		Kind:  kind,
		Pos:   decl.Pos,
		Owner: decl.Owner,
	}
	if len(decl.Names) == 1 {
		diag.Property = decl.Names[0]
	}
	return diag
}

// Reporter receives diagnostics. Implementations render and must not abort.
type Reporter interface {
	Report(Diagnostic)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Diagnostic)

// Report implements Reporter.
func (f ReporterFunc) Report(d Diagnostic) {
	if f != nil {
		f(d)
	}
}

// NopReporter discards diagnostics.
type NopReporter struct{}

// Report implements Reporter.
func (NopReporter) Report(Diagnostic) {}

// CollectReporter accumulates diagnostics and is safe for concurrent use.
type CollectReporter struct {
	mu          sync.Mutex
	diagnostics []Diagnostic
}

// Report implements Reporter.
func (r *CollectReporter) Report(d Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diagnostics = append(r.diagnostics, d)
}

// Diagnostics returns a copy of everything reported so far.
func (r *CollectReporter) Diagnostics() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Diagnostic, len(r.diagnostics))
	copy(out, r.diagnostics)
	return out
}

// Len returns the number of collected diagnostics.
func (r *CollectReporter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.diagnostics)
}
