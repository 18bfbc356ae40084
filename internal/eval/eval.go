// Package eval runs a grammar directly on the scan runtime, without
// generating code. An Interpreter makes the same decisions the parser gen
// emits for the grammar would, in either emission mode, so it can be used to
// try a grammar out before generating it. Semantic actions are not run.
package eval

import (
	"fmt"

	"github.com/dekarrin/remora/internal/grammar"
	"github.com/dekarrin/remora/internal/rmerrors"
	"github.com/dekarrin/remora/scan"
)

// Options configures an Interpreter.
type Options struct {
	// Backtrack selects backtracking decisions instead of FIRST-set
	// lookahead.
	Backtrack bool

	// Entry is the rule parsing starts from when none is given. Empty means
	// the first declared rule.
	Entry string

	// Whitespace is the pattern skipped around rules and before patterns.
	// Empty disables skipping.
	Whitespace string

	// Partial allows a parse to succeed without consuming all input.
	Partial bool
}

// Interpreter parses input with a grammar. It is not modified by parsing
// and may be used from several goroutines at once.
type Interpreter struct {
	g     grammar.Grammar
	opts  Options
	entry string

	ws    *scan.Pattern
	pats  map[grammar.PatternInfo]*scan.Pattern
	rules map[string]scan.RuleFunc

	// FIRST-set patterns of every node that a predictive decision is made
	// on, sorted, with and without the empty pattern.
	look   map[grammar.Node][]*scan.Pattern
	expect map[grammar.Node][]*scan.Pattern
}

// New creates an Interpreter for g. first must be the FIRST table of g.
func New(g grammar.Grammar, first grammar.FirstTable, opts Options) (*Interpreter, error) {
	if err := g.Validate(); err != nil {
		return nil, rmerrors.Wrap(err, "invalid grammar", "")
	}
	if err := grammar.CheckDescent(g, first); err != nil {
		return nil, rmerrors.Wrap(err, "grammar cannot be parsed by recursive descent", "")
	}

	in := &Interpreter{
		g:      g,
		opts:   opts,
		entry:  opts.Entry,
		pats:   map[grammar.PatternInfo]*scan.Pattern{},
		rules:  map[string]scan.RuleFunc{},
		look:   map[grammar.Node][]*scan.Pattern{},
		expect: map[grammar.Node][]*scan.Pattern{},
	}
	if in.entry == "" {
		in.entry = g.Start()
	}
	if _, ok := g.Rule(in.entry); !ok {
		return nil, rmerrors.New(fmt.Sprintf("entry rule %q is not defined", in.entry), "")
	}

	if opts.Whitespace != "" {
		ws, err := scan.Compile(opts.Whitespace, "")
		if err != nil {
			return nil, rmerrors.Wrap(err, "whitespace pattern does not compile", "")
		}
		in.ws = ws
	}

	in.pats[grammar.Epsilon] = scan.MustCompile("", "")
	for _, pi := range g.Patterns() {
		pat, err := scan.Compile(pi.Text, pi.Flags)
		if err != nil {
			return nil, rmerrors.Wrap(err, fmt.Sprintf("pattern %s does not compile", pi), "")
		}
		in.pats[pi] = pat
	}

	for i := range g.Rules {
		r := g.Rules[i]
		bind := ""
		if _, ok := grammar.SinglePattern(r.Body); ok {
			bind = r.Name
		}
		in.rules[r.Name] = func(p *scan.Parser, ctx *scan.Context) error {
			return in.node(p, r.Body, bind)
		}

		if !opts.Backtrack {
			grammar.Walk(r.Body, func(n grammar.Node) {
				in.prepare(n, first)
			})
		}
	}

	return in, nil
}

// Entry returns the name of the default entry rule.
func (in *Interpreter) Entry() string {
	return in.entry
}

// Parse parses input starting at rule, or at the entry rule if rule is empty.
// It returns the parser that was used, the result of the rule on success and
// the structural failure or fatal error otherwise.
func (in *Interpreter) Parse(input, rule string, debug bool) (*scan.Parser, interface{}, error) {
	if rule == "" {
		rule = in.entry
	}
	p := scan.New(input, in.rules,
		scan.WithWhitespace(in.ws),
		scan.WithDebug(debug),
		scan.WithPartial(in.opts.Partial),
	)
	result, err := p.Run(rule)
	return p, result, err
}

// prepare records the lookahead sets the predictive decision at n needs.
func (in *Interpreter) prepare(n grammar.Node, first grammar.FirstTable) {
	var decide []grammar.Node
	switch v := n.(type) {
	case *grammar.Alternation:
		decide = v.Alts
		all := grammar.FirstSet{}
		for _, alt := range v.Alts {
			all.AddAll(grammar.First(alt, first))
		}
		in.expect[n] = in.compiled(grammar.WithoutEpsilon(all))
	case *grammar.Optional:
		decide = []grammar.Node{v.Body}
	case *grammar.ZeroOrMore:
		decide = []grammar.Node{v.Body}
	case *grammar.OneOrMore:
		decide = []grammar.Node{v.Body}
	}

	for _, d := range decide {
		if _, ok := in.look[d]; ok {
			continue
		}
		fs := grammar.First(d, first)
		in.look[d] = in.compiled(fs)
		in.expect[d] = in.compiled(grammar.WithoutEpsilon(fs))
	}
}

func (in *Interpreter) compiled(fs grammar.FirstSet) []*scan.Pattern {
	var pats []*scan.Pattern
	for _, pi := range grammar.Sorted(fs) {
		pats = append(pats, in.pats[pi])
	}
	return pats
}

// node parses n, returning the first error of any part of it.
func (in *Interpreter) node(p *scan.Parser, n grammar.Node, bind string) error {
	switch v := n.(type) {
	case *grammar.Pattern:
		return p.Match(in.pats[v.Info], bind)
	case *grammar.Code:
		return nil
	case *grammar.RuleRef:
		return p.Invoke(v.Name)
	case *grammar.Sequence:
		for _, it := range v.Items {
			if err := in.node(p, it, bind); err != nil {
				return err
			}
		}
		return nil
	case *grammar.Alternation:
		if in.opts.Backtrack {
			alts := make([]func() error, len(v.Alts))
			for i := range v.Alts {
				alt := v.Alts[i]
				alts[i] = func() error { return in.node(p, alt, bind) }
			}
			return p.Choice(alts...)
		}
		for _, alt := range v.Alts {
			if p.Lookahead(in.look[alt]...) {
				return in.node(p, alt, bind)
			}
		}
		return p.Expect(in.expect[v]...)
	case *grammar.Optional:
		if in.opts.Backtrack {
			return p.Repeat(0, 1, in.body(p, v.Body, bind))
		}
		if p.Lookahead(in.look[v.Body]...) {
			return in.node(p, v.Body, bind)
		}
		return nil
	case *grammar.ZeroOrMore:
		if in.opts.Backtrack {
			return p.Repeat(0, 0, in.body(p, v.Body, bind))
		}
		return in.loop(p, v.Body, bind, false)
	case *grammar.OneOrMore:
		if in.opts.Backtrack {
			return p.Repeat(1, 0, in.body(p, v.Body, bind))
		}
		return in.loop(p, v.Body, bind, true)
	default:
		panic(fmt.Sprintf("unknown node type %T", n))
	}
}

func (in *Interpreter) body(p *scan.Parser, n grammar.Node, bind string) func() error {
	return func() error {
		return in.node(p, n, bind)
	}
}

// loop is a predictive repetition of body.
func (in *Interpreter) loop(p *scan.Parser, body grammar.Node, bind string, atLeastOnce bool) error {
	la := in.look[body]
	if atLeastOnce && !p.Lookahead(la...) {
		return p.Expect(in.expect[body]...)
	}
	for p.Lookahead(la...) {
		m := p.Mark()
		if err := in.node(p, body, bind); err != nil {
			return err
		}
		if err := p.Progressed(m); err != nil {
			return err
		}
	}
	return nil
}
