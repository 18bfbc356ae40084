package grammar

import (
	"strings"
)

// Node is a node of a rule body. The set of variants is closed: Pattern, Code,
// RuleRef, Sequence, Alternation, Optional, ZeroOrMore and OneOrMore. Code
// that dispatches on a Node uses a type switch over exactly these types.
type Node interface {
	// String gives the node as it would be written in grammar source.
	String() string

	node()
}

// Pattern matches one lexical pattern.
type Pattern struct {
	Info PatternInfo

	// Args holds arguments given to the pattern other than its flags, which
	// are folded into Info.
	Args Args
}

// Code is a verbatim semantic-action fragment. It matches nothing.
type Code struct {
	Text string
}

// RuleRef invokes another rule by name.
type RuleRef struct {
	Name string
}

// Sequence matches each of its items in order.
type Sequence struct {
	Items []Node
}

// Alternation matches the first of its alternatives that succeeds. Order
// matters.
type Alternation struct {
	Alts []Node
}

// Optional matches its body zero or one times.
type Optional struct {
	Body Node
}

// ZeroOrMore matches its body any number of times.
type ZeroOrMore struct {
	Body Node
}

// OneOrMore matches its body at least once.
type OneOrMore struct {
	Body Node
}

func (*Pattern) node()     {}
func (*Code) node()        {}
func (*RuleRef) node()     {}
func (*Sequence) node()    {}
func (*Alternation) node() {}
func (*Optional) node()    {}
func (*ZeroOrMore) node()  {}
func (*OneOrMore) node()   {}

func (n *Pattern) String() string {
	args := n.Args
	if n.Info.Flags != "" {
		args = append(Args{{Key: "flags", Value: Str(n.Info.Flags)}}, n.Args...)
	}
	s := n.Info.quoted()
	if len(args) > 0 {
		s += "@" + args.String()
	}
	return s
}

func (n *Code) String() string {
	return "`" + n.Text + "`"
}

func (n *RuleRef) String() string {
	return n.Name
}

func (n *Sequence) String() string {
	parts := make([]string, len(n.Items))
	for i := range n.Items {
		s := n.Items[i].String()
		if _, ok := n.Items[i].(*Alternation); ok {
			s = "(" + s + ")"
		}
		if inner, ok := n.Items[i].(*Sequence); ok && len(inner.Items) != 1 {
			s = "(" + s + ")"
		}
		parts[i] = s
	}
	if len(parts) == 0 {
		return "()"
	}
	return strings.Join(parts, " ")
}

func (n *Alternation) String() string {
	parts := make([]string, len(n.Alts))
	for i := range n.Alts {
		s := n.Alts[i].String()
		if _, ok := n.Alts[i].(*Alternation); ok {
			s = "(" + s + ")"
		}
		parts[i] = s
	}
	return strings.Join(parts, " | ")
}

func (n *Optional) String() string {
	return suffixed(n.Body, "?")
}

func (n *ZeroOrMore) String() string {
	return suffixed(n.Body, "*")
}

func (n *OneOrMore) String() string {
	return suffixed(n.Body, "+")
}

func suffixed(body Node, suffix string) string {
	switch body.(type) {
	case *Pattern, *Code, *RuleRef:
		return body.String() + suffix
	default:
		return "(" + body.String() + ")" + suffix
	}
}

// quoted gives only the literal part of the pattern.
func (pi PatternInfo) quoted() string {
	if pi.IsEpsilon() {
		return "''"
	}
	return quoteLiteral(pi.Text)
}

// Walk calls fn on n and then on each of its descendants, depth first in
// source order. Walk does not follow RuleRefs.
func Walk(n Node, fn func(Node)) {
	fn(n)
	switch v := n.(type) {
	case *Sequence:
		for _, it := range v.Items {
			Walk(it, fn)
		}
	case *Alternation:
		for _, alt := range v.Alts {
			Walk(alt, fn)
		}
	case *Optional:
		Walk(v.Body, fn)
	case *ZeroOrMore:
		Walk(v.Body, fn)
	case *OneOrMore:
		Walk(v.Body, fn)
	}
}

// CollectPatterns returns every PatternInfo used by a Pattern node in n, in
// source order and without duplicates.
func CollectPatterns(n Node) []PatternInfo {
	var pats []PatternInfo
	seen := map[PatternInfo]bool{}
	Walk(n, func(sub Node) {
		if p, ok := sub.(*Pattern); ok && !seen[p.Info] {
			seen[p.Info] = true
			pats = append(pats, p.Info)
		}
	})
	return pats
}

// CollectRuleRefs returns the name of every rule referenced in n, in source
// order and without duplicates.
func CollectRuleRefs(n Node) []string {
	var refs []string
	seen := map[string]bool{}
	Walk(n, func(sub Node) {
		if r, ok := sub.(*RuleRef); ok && !seen[r.Name] {
			seen[r.Name] = true
			refs = append(refs, r.Name)
		}
	})
	return refs
}

// SinglePattern returns the lone Pattern of a rule body that is either a
// Pattern itself or a Sequence whose only non-Code item is one Pattern. Such
// rules bind their match under the rule's own name. ok is false for any other
// body.
func SinglePattern(body Node) (p *Pattern, ok bool) {
	switch v := body.(type) {
	case *Pattern:
		return v, true
	case *Sequence:
		for _, it := range v.Items {
			switch item := it.(type) {
			case *Code:
				continue
			case *Pattern:
				if p != nil {
					return nil, false
				}
				p = item
			default:
				return nil, false
			}
		}
		return p, p != nil
	}
	return nil, false
}
