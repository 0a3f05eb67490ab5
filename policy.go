package assoc

import (
	"fmt"
	"strings"
)

// Policy is the ownership discipline associated storage applies when a value
// is written into a slot.
type Policy int

const (
	// PolicyInvalid is the zero value and never accepted by Extract.
	PolicyInvalid Policy = iota
	// PolicyAssign stores the value as-is.
	PolicyAssign
	// PolicyRetain holds a strong reference.
	PolicyRetain
	// PolicyRetainAtomic holds a strong reference, written atomically.
	PolicyRetainAtomic
	// PolicyCopy stores a deep copy of the value.
	PolicyCopy
	// PolicyCopyAtomic stores a deep copy, cloned and written atomically.
	PolicyCopyAtomic
	// PolicyWeak holds the value without copying or ownership.
	PolicyWeak
	// PolicyWeakAtomic is PolicyWeak written atomically.
	PolicyWeakAtomic
)

var policyNames = map[Policy]string{
	PolicyAssign:       "assign",
	PolicyRetain:       "retain",
	PolicyRetainAtomic: "retain_atomic",
	PolicyCopy:         "copy",
	PolicyCopyAtomic:   "copy_atomic",
	PolicyWeak:         "weak",
	PolicyWeakAtomic:   "weak_atomic",
}

var policyAliases = map[string]Policy{
	"assign":                         PolicyAssign,
	"retain":                         PolicyRetain,
	"retainnonatomic":                PolicyRetain,
	"retainatomic":                   PolicyRetainAtomic,
	"copy":                           PolicyCopy,
	"copynonatomic":                  PolicyCopy,
	"copyatomic":                     PolicyCopyAtomic,
	"weak":                           PolicyWeak,
	"weaknonatomic":                  PolicyWeak,
	"weakatomic":                     PolicyWeakAtomic,
	"objcassociationassign":          PolicyAssign,
	"objcassociationretainnonatomic": PolicyRetain,
	"objcassociationretain":          PolicyRetainAtomic,
	"objcassociationcopynonatomic":   PolicyCopy,
	"objcassociationcopy":            PolicyCopyAtomic,
	"policyassign":                   PolicyAssign,
	"policyretain":                   PolicyRetain,
	"policyretainatomic":             PolicyRetainAtomic,
	"policycopy":                     PolicyCopy,
	"policycopyatomic":               PolicyCopyAtomic,
	"policyweak":                     PolicyWeak,
	"policyweakatomic":               PolicyWeakAtomic,
}

// ParsePolicy resolves a policy token. Tokens are matched case-insensitively
// ignoring separators and an optional package qualifier, so "retain",
// "assoc.PolicyRetain", "retain_nonatomic" and ".OBJC_ASSOCIATION_RETAIN_NONATOMIC"
// all resolve to PolicyRetain.
func ParsePolicy(token string) (Policy, error) {
	normalized := strings.TrimSpace(token)
	if idx := strings.LastIndex(normalized, "."); idx >= 0 {
		normalized = normalized[idx+1:]
	}
	normalized = strings.ToLower(normalized)
	normalized = strings.NewReplacer("_", "", "-", "", " ", "").Replace(normalized)
	if normalized == "" {
		return PolicyInvalid, fmt.Errorf("assoc: empty policy token")
	}
	if policy, ok := policyAliases[normalized]; ok {
		return policy, nil
	}
	return PolicyInvalid, fmt.Errorf("assoc: unknown policy %q", token)
}

// String returns the canonical token for p.
func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// GoName returns the exported identifier of p within this package, used when
// emitting source.
func (p Policy) GoName() string {
	switch p {
	case PolicyAssign:
		return "PolicyAssign"
	case PolicyRetain:
		return "PolicyRetain"
	case PolicyRetainAtomic:
		return "PolicyRetainAtomic"
	case PolicyCopy:
		return "PolicyCopy"
	case PolicyCopyAtomic:
		return "PolicyCopyAtomic"
	case PolicyWeak:
		return "PolicyWeak"
	case PolicyWeakAtomic:
		return "PolicyWeakAtomic"
	default:
		return ""
	}
}

// Valid reports whether p is one of the known policies.
func (p Policy) Valid() bool {
	_, ok := policyNames[p]
	return ok
}

// Atomic reports whether writes under p must be performed atomically.
func (p Policy) Atomic() bool {
	return p == PolicyRetainAtomic || p == PolicyCopyAtomic || p == PolicyWeakAtomic
}

// Copies reports whether p stores a copy of the written value.
func (p Policy) Copies() bool {
	return p == PolicyCopy || p == PolicyCopyAtomic
}

// Weak reports whether p holds the value without ownership.
func (p Policy) Weak() bool {
	return p == PolicyWeak || p == PolicyWeakAtomic
}
