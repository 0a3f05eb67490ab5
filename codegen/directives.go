package codegen

import (
	"fmt"
	"go/ast"
	"strings"
)

// DirectivePrefix starts every generator directive comment.
const DirectivePrefix = "//assoc:"

const (
	directiveExtend   = "extend"
	directiveProperty = "property"
)

// Directive is one //assoc:<Kind> <Arg> comment line.
type Directive struct {
	Kind string
	Arg  string
}

// Params holds the values of //assoc:extend and //assoc:property directives.
// Nil fields are unset so weaker layers can fill them.
type Params struct {
	Owner   *string
	Policy  *string
	Default *string
}

// ParseDirectives returns the directives found in doc, in source order.
func ParseDirectives(doc *ast.CommentGroup) []Directive {
	if doc == nil {
		return nil
	}
	var out []Directive
	for _, comment := range doc.List {
		text, ok := strings.CutPrefix(comment.Text, DirectivePrefix)
		if !ok {
			continue
		}
		kind, arg, _ := strings.Cut(strings.TrimSpace(text), " ")
		if kind == "" {
			continue
		}
		out = append(out, Directive{Kind: kind, Arg: strings.TrimSpace(arg)})
	}
	return out
}

// ParseParams folds extend and property directives into Params. marked
// reports whether a property directive was present.
func ParseParams(directives []Directive) (params Params, marked bool, err error) {
	for _, d := range directives {
		switch d.Kind {
		case directiveExtend:
			if d.Arg == "" {
				return Params{}, false, fmt.Errorf("codegen: //assoc:extend requires a type name")
			}
			owner := d.Arg
			params.Owner = &owner
		case directiveProperty:
			marked = true
			parsed, err := parsePropertyArgs(d.Arg)
			if err != nil {
				return Params{}, false, err
			}
			if parsed.Policy != nil {
				params.Policy = parsed.Policy
			}
			if parsed.Default != nil {
				params.Default = parsed.Default
			}
		}
	}
	return params, marked, nil
}

// parsePropertyArgs reads "Policy: <token>, Default: <expr>". Values may
// contain commas inside brackets or string literals.
func parsePropertyArgs(arg string) (Params, error) {
	var params Params
	for _, field := range splitTopLevel(arg) {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		key, value, ok := strings.Cut(field, ":")
		if !ok {
			return Params{}, fmt.Errorf("codegen: //assoc:property argument %q is not key: value", field)
		}
		value = strings.TrimSpace(value)
		if value == "" {
			return Params{}, fmt.Errorf("codegen: //assoc:property %s has no value", strings.TrimSpace(key))
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "policy":
			params.Policy = &value
		case "default", "defaultvalue":
			params.Default = &value
		default:
			return Params{}, fmt.Errorf("codegen: unknown //assoc:property argument %q", strings.TrimSpace(key))
		}
	}
	return params, nil
}

func splitTopLevel(s string) []string {
	var (
		parts []string
		depth int
		quote rune
		start int
		skip  bool
	)
	for i, r := range s {
		if quote != 0 {
			switch {
			case skip:
				skip = false
			case r == '\\' && quote != '`':
				skip = true
			case r == quote:
				quote = 0
			}
			continue
		}
		switch r {
		case '"', '\'', '`':
			quote = r
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
