package assoc

import "fmt"

// ReadStrategy selects how a read resolves an empty value slot.
type ReadStrategy int

const (
	// ReadFallback resolves get(value) ?? default ?? zero.
	ReadFallback ReadStrategy = iota + 1
	// ReadSettedFlag resolves get(value) ?? (get(flag) == true ? nil : default).
	ReadSettedFlag
)

func (s ReadStrategy) String() string {
	switch s {
	case ReadFallback:
		return "fallback"
	case ReadSettedFlag:
		return "setted-flag"
	default:
		return fmt.Sprintf("readStrategy(%d)", int(s))
	}
}

// ReadLogic is the synthesized body of the getter.
type ReadLogic struct {
	Strategy  ReadStrategy
	ValueKey  Key
	SettedKey *Key
	Default   DefaultValue
	Optional  bool
}

// StepKind identifies one effect of the setter.
type StepKind int

const (
	StepWillSet StepKind = iota + 1
	StepCaptureOld
	StepStoreValue
	StepMarkSetted
	StepDidSet
)

func (k StepKind) String() string {
	switch k {
	case StepWillSet:
		return "willSet"
	case StepCaptureOld:
		return "captureOld"
	case StepStoreValue:
		return "storeValue"
	case StepMarkSetted:
		return "markSetted"
	case StepDidSet:
		return "didSet"
	default:
		return fmt.Sprintf("stepKind(%d)", int(k))
	}
}

// WriteStep is one effect of the setter. Key and Policy are set for store
// steps; Param and Body for hook and capture steps.
type WriteStep struct {
	Kind   StepKind
	Key    Key
	Policy Policy
	Param  string
	Body   string
}

// WriteLogic is the synthesized body of the setter, in execution order.
type WriteLogic struct {
	Steps []WriteStep
}

// Has reports whether the setter contains a step of kind.
func (w WriteLogic) Has(kind StepKind) bool {
	for _, step := range w.Steps {
		if step.Kind == kind {
			return true
		}
	}
	return false
}

// Accessor is the synthesized getter/setter pair for one property.
type Accessor struct {
	Spec  PropertySpec
	Keys  StorageKeys
	Read  ReadLogic
	Write WriteLogic
}

// invariantError marks a synthesizer input that Extract would never produce.
type invariantError struct {
	msg string
}

func (e invariantError) Error() string {
	return "assoc: internal invariant violated: " + e.msg
}

// Synthesize builds the read and write logic for spec. spec must come from
// Extract and keys from Allocate; anything else panics.
func Synthesize(spec PropertySpec, keys StorageKeys) Accessor {
	checkInvariants(spec, keys)

	read := ReadLogic{
		Strategy: ReadFallback,
		ValueKey: keys.Value,
		Default:  spec.Default,
		Optional: spec.Optional,
	}
	if spec.NeedsSettedFlag() {
		read.Strategy = ReadSettedFlag
		read.SettedKey = keys.Setted
	}

	steps := make([]WriteStep, 0, 5)
	if spec.WillSet != nil {
		steps = append(steps, WriteStep{Kind: StepWillSet, Param: spec.WillSet.Param, Body: spec.WillSet.Body})
	}
	if spec.DidSet != nil {
		steps = append(steps, WriteStep{Kind: StepCaptureOld, Param: spec.DidSet.Param})
	}
	steps = append(steps, WriteStep{Kind: StepStoreValue, Key: keys.Value, Policy: spec.Policy})
	if spec.NeedsSettedFlag() {
		steps = append(steps, WriteStep{Kind: StepMarkSetted, Key: *keys.Setted, Policy: PolicyRetain})
	}
	if spec.DidSet != nil {
		steps = append(steps, WriteStep{Kind: StepDidSet, Param: spec.DidSet.Param, Body: spec.DidSet.Body})
	}

	return Accessor{
		Spec:  spec,
		Keys:  keys,
		Read:  read,
		Write: WriteLogic{Steps: steps},
	}
}

func checkInvariants(spec PropertySpec, keys StorageKeys) {
	switch {
	case !spec.Policy.Valid():
		panic(invariantError{msg: fmt.Sprintf("unknown policy %v for %s", spec.Policy, spec.Name)})
	case !spec.Optional && spec.Default.Kind != DefaultExpr:
		panic(invariantError{msg: fmt.Sprintf("non-optional %s without default", spec.Name)})
	case keys.Value.IsZero():
		panic(invariantError{msg: fmt.Sprintf("missing value key for %s", spec.Name)})
	case spec.NeedsSettedFlag() && keys.Setted == nil:
		panic(invariantError{msg: fmt.Sprintf("missing setted key for %s", spec.Name)})
	case !spec.NeedsSettedFlag() && keys.Setted != nil:
		panic(invariantError{msg: fmt.Sprintf("unexpected setted key for %s", spec.Name)})
	}
}
