package grammar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrEmptyGrammar   = errors.New("grammar has no rules")
	ErrDuplicateRule  = errors.New("rule defined more than once")
	ErrUndefinedRule  = errors.New("reference to undefined rule")
	ErrInvalidFlags   = errors.New("invalid pattern flags")
	ErrInvalidRuleArg = errors.New("invalid rule argument")
)

// RuleError is a structural problem with a grammar, found in a particular
// rule.
type RuleError struct {
	Rule   string
	Detail string
	Err    error
}

func (e *RuleError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("rule %q: %s", e.Rule, e.Err.Error())
	}
	return fmt.Sprintf("rule %q: %s: %s", e.Rule, e.Err.Error(), e.Detail)
}

func (e *RuleError) Unwrap() error {
	return e.Err
}

// ValueKind is the type of a literal argument value.
type ValueKind int

const (
	KindNone ValueKind = iota
	KindString
	KindNumber
	KindBool
)

func (vk ValueKind) String() string {
	switch vk {
	case KindNone:
		return "none"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return fmt.Sprintf("ValueKind(%d)", int(vk))
	}
}

// Value is a literal given as an argument to a rule or pattern.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
}

// Str creates a string Value.
func Str(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// Num creates a number Value.
func Num(f float64) Value {
	return Value{Kind: KindNumber, Num: f}
}

// Bool creates a boolean Value.
func Bool(b bool) Value {
	return Value{Kind: KindBool, Bool: b}
}

// None is the absent value.
var None = Value{Kind: KindNone}

// String gives the value as it would be written in grammar source.
func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return strconv.Quote(v.Str)
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	default:
		return "none"
	}
}

// Arg is one key=value argument.
type Arg struct {
	Key   string
	Value Value
}

// Args is an ordered argument list.
type Args []Arg

// Get returns the value of the last argument with the given key.
func (a Args) Get(key string) (Value, bool) {
	for i := len(a) - 1; i >= 0; i-- {
		if a[i].Key == key {
			return a[i].Value, true
		}
	}
	return None, false
}

// Without returns a copy of a with every argument of the given key removed.
func (a Args) Without(key string) Args {
	var out Args
	for _, arg := range a {
		if arg.Key != key {
			out = append(out, arg)
		}
	}
	return out
}

// String gives the parenthesized argument block, without the leading '@'.
func (a Args) String() string {
	parts := make([]string, len(a))
	for i := range a {
		parts[i] = a[i].Key + "=" + a[i].Value.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Rule is one named production of a grammar.
type Rule struct {
	Name string
	Body Node
	Args Args
}

func (r Rule) String() string {
	s := r.Name
	if len(r.Args) > 0 {
		s += " @" + r.Args.String()
	}
	return s + " : " + r.Body.String()
}

// Grammar is an ordered list of rules. The first rule is the default entry
// point.
type Grammar struct {
	Rules []Rule
}

// Rule returns the rule with the given name.
func (g Grammar) Rule(name string) (Rule, bool) {
	for i := range g.Rules {
		if g.Rules[i].Name == name {
			return g.Rules[i], true
		}
	}
	return Rule{}, false
}

// Names returns the name of every rule in declaration order.
func (g Grammar) Names() []string {
	names := make([]string, len(g.Rules))
	for i := range g.Rules {
		names[i] = g.Rules[i].Name
	}
	return names
}

// Start returns the name of the first declared rule, or "" for an empty
// grammar.
func (g Grammar) Start() string {
	if len(g.Rules) == 0 {
		return ""
	}
	return g.Rules[0].Name
}

// Patterns returns every distinct PatternInfo used in the grammar, sorted by
// (length, text).
func (g Grammar) Patterns() []PatternInfo {
	var all []PatternInfo
	seen := map[PatternInfo]bool{}
	for _, r := range g.Rules {
		for _, p := range CollectPatterns(r.Body) {
			if !seen[p] {
				seen[p] = true
				all = append(all, p)
			}
		}
	}
	return SortPatterns(all)
}

// Validate checks g for structural errors: no rules, duplicate rule names,
// references to undefined rules and malformed pattern flags. All errors found
// are returned joined together, in declaration order.
func (g Grammar) Validate() error {
	if len(g.Rules) == 0 {
		return ErrEmptyGrammar
	}

	var errs []error
	defined := map[string]bool{}
	for _, r := range g.Rules {
		if defined[r.Name] {
			errs = append(errs, &RuleError{Rule: r.Name, Err: ErrDuplicateRule})
		}
		defined[r.Name] = true
	}

	for _, r := range g.Rules {
		if r.Body == nil {
			errs = append(errs, &RuleError{Rule: r.Name, Detail: "empty body", Err: ErrInvalidRuleArg})
			continue
		}
		for _, ref := range CollectRuleRefs(r.Body) {
			if !defined[ref] {
				errs = append(errs, &RuleError{Rule: r.Name, Detail: ref, Err: ErrUndefinedRule})
			}
		}
		for _, p := range CollectPatterns(r.Body) {
			canon, err := CanonicalFlags(p.Flags)
			if err != nil || canon != p.Flags {
				errs = append(errs, &RuleError{Rule: r.Name, Detail: fmt.Sprintf("%q on %s", p.Flags, p), Err: ErrInvalidFlags})
			}
		}
		if v, ok := r.Args.Get("flags"); ok && v.Kind != KindString {
			errs = append(errs, &RuleError{Rule: r.Name, Detail: "flags must be a string", Err: ErrInvalidRuleArg})
		}
	}

	return joinErrors(errs)
}

// String gives the grammar as source text, one rule per line.
func (g Grammar) String() string {
	var sb strings.Builder
	for _, r := range g.Rules {
		sb.WriteString(r.String())
		sb.WriteRune('\n')
	}
	return sb.String()
}

// multiError holds several errors. errors.Is and errors.As match any of them.
type multiError []error

func (me multiError) Error() string {
	msgs := make([]string, len(me))
	for i := range me {
		msgs[i] = me[i].Error()
	}
	return strings.Join(msgs, "\n")
}

func (me multiError) Is(target error) bool {
	for _, e := range me {
		if errors.Is(e, target) {
			return true
		}
	}
	return false
}

func (me multiError) As(target any) bool {
	for _, e := range me {
		if errors.As(e, target) {
			return true
		}
	}
	return false
}

func joinErrors(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return multiError(errs)
	}
}

// Errors splits an error returned by Validate into its individual errors.
func Errors(err error) []error {
	if err == nil {
		return nil
	}
	if me, ok := err.(multiError); ok {
		return []error(me)
	}
	return []error{err}
}
