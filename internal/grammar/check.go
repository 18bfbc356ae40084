package grammar

import (
	"errors"
	"fmt"

	"github.com/dekarrin/remora/internal/util"
)

var (
	ErrNullableRepetition = errors.New("repeated expression can match empty input")
	ErrLeftRecursion      = errors.New("rule is left-recursive")
)

// CheckDescent returns an error for each construct of g that a recursive
// descent parser cannot run: a '*' or '+' whose body can match empty input,
// which would loop forever, and a rule that can invoke itself before any
// input is consumed, which would recurse forever. first must be the FIRST
// table of g.
//
// Each left-recursive cycle is reported once, on the first rule of g that is
// part of it.
func CheckDescent(g Grammar, first FirstTable) error {
	var errs []error

	for _, r := range g.Rules {
		Walk(r.Body, func(n Node) {
			var body Node
			switch v := n.(type) {
			case *ZeroOrMore:
				body = v.Body
			case *OneOrMore:
				body = v.Body
			default:
				return
			}
			if Nullable(First(body, first)) {
				errs = append(errs, &RuleError{Rule: r.Name, Detail: n.String(), Err: ErrNullableRepetition})
			}
		})
	}

	calls := map[string][]string{}
	for _, r := range g.Rules {
		calls[r.Name] = util.Dedupe(leftCalls(r.Body, first), func(s string) string { return s })
	}

	reported := util.StringSet{}
	for _, r := range g.Rules {
		if reported.Has(r.Name) {
			continue
		}
		path, ok := cycleFrom(r.Name, calls)
		if !ok {
			continue
		}
		reported.Add(r.Name)
		reported.AddAll(util.KeySetOf(path))

		detail := "invokes itself before consuming input"
		if len(path) > 0 {
			detail = fmt.Sprintf("invokes itself through %s before consuming input", util.MakeTextList(path, "and"))
		}
		errs = append(errs, &RuleError{Rule: r.Name, Detail: detail, Err: ErrLeftRecursion})
	}

	return joinErrors(errs)
}

// leftCalls gives the rules n can invoke at the position it starts at,
// looking past any prefix that can match empty input.
func leftCalls(n Node, first FirstTable) []string {
	switch v := n.(type) {
	case *RuleRef:
		return []string{v.Name}
	case *Sequence:
		var calls []string
		for _, it := range v.Items {
			calls = append(calls, leftCalls(it, first)...)
			if !Nullable(First(it, first)) {
				break
			}
		}
		return calls
	case *Alternation:
		var calls []string
		for _, alt := range v.Alts {
			calls = append(calls, leftCalls(alt, first)...)
		}
		return calls
	case *Optional:
		return leftCalls(v.Body, first)
	case *ZeroOrMore:
		return leftCalls(v.Body, first)
	case *OneOrMore:
		return leftCalls(v.Body, first)
	default:
		return nil
	}
}

// cycleFrom searches calls for a way back to start. The rules passed through
// on the way, not including start, are returned.
func cycleFrom(start string, calls map[string][]string) ([]string, bool) {
	var path util.Stack[string]
	visited := util.StringSet{}

	var visit func(name string) bool
	visit = func(name string) bool {
		for _, next := range calls[name] {
			if next == start {
				return true
			}
			if visited.Has(next) {
				continue
			}
			visited.Add(next)
			path.Push(next)
			if visit(next) {
				return true
			}
			path.Pop()
		}
		return false
	}

	if !visit(start) {
		return nil, false
	}
	return path.Of, true
}
