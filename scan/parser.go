// Package scan is the runtime shared by every generated parser and by the
// bootstrap parser for grammar source. It tracks the scan position, invokes
// rule routines inside a chain of contexts, matches patterns and builds
// diagnostics from structural failures.
//
// A Parser is not safe for concurrent use, but separate Parsers share no
// state and may run in parallel.
package scan

import (
	"errors"
	"fmt"
)

// RuleFunc is the routine for one grammar rule. It returns nil on success, a
// *Failure on a structural mismatch, and any other error for fatal
// conditions.
type RuleFunc func(p *Parser, ctx *Context) error

// Option configures a Parser.
type Option func(p *Parser)

// WithWhitespace sets the pattern that is skipped before every pattern match
// and around every rule invocation. A nil pattern skips nothing.
func WithWhitespace(ws *Pattern) Option {
	return func(p *Parser) {
		p.ws = ws
	}
}

// WithDebug enables recording of a DebugRecord for every rule invocation.
func WithDebug(on bool) Option {
	return func(p *Parser) {
		p.debug = on
	}
}

// WithPartial allows Run to succeed without consuming all of the input.
func WithPartial(on bool) Option {
	return func(p *Parser) {
		p.partial = on
	}
}

// Parser holds the state of one parse of one input.
type Parser struct {
	source string
	input  []rune
	rules  map[string]RuleFunc

	pos int
	row int
	col int

	ws      *Pattern
	debug   bool
	partial bool

	// arena[0] is the root context; arena[1:top+1] is the active chain.
	arena []*Context
	top   int

	branches []*Branch
	records  []DebugRecord

	// every failure at the farthest position reached so far
	farthest []*Failure
}

// New creates a Parser for input using the given rule routines.
func New(input string, rules map[string]RuleFunc, opts ...Option) *Parser {
	p := &Parser{
		source: input,
		input:  []rune(input),
		rules:  rules,
	}
	for _, o := range opts {
		o(p)
	}
	p.arena = []*Context{{p: p}}
	return p
}

// Run parses the whole input starting at the given rule and returns the
// rule's result. Unless the Parser allows partial input, anything but
// whitespace left after the rule is a failure. A structural failure is
// returned as the *Failure at the farthest position reached, with the other
// failures seen there as its siblings.
func (p *Parser) Run(rule string) (interface{}, error) {
	p.pos, p.row, p.col = 0, 0, 0
	p.top = 0
	p.arena[0].reset("")
	p.branches = nil
	p.records = nil
	p.farthest = nil

	err := p.Invoke(rule)
	if err == nil && !p.partial {
		p.skip()
		if p.pos < len(p.input) {
			err = p.newFailure(nil, "expected end of input")
		}
	}

	if err != nil {
		var f *Failure
		if errors.As(err, &f) {
			return nil, p.report(f)
		}
		return nil, err
	}

	return p.arena[0].Get(rule), nil
}

// Invoke runs the named rule in a new context chained to the current one. The
// result of the rule is bound in the caller's context under the rule's name.
// The context is unwound whether the rule succeeds or fails.
func (p *Parser) Invoke(name string) (err error) {
	fn, ok := p.rules[name]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownRule, name)
	}

	p.skip()

	caller := p.arena[p.top]
	ctx := p.push(name)

	rec := -1
	if p.debug {
		rec = len(p.records)
		p.records = append(p.records, DebugRecord{
			Rule:  name,
			Rest:  snapshot(p.input[p.pos:]),
			Row:   p.row,
			Col:   p.col,
			Depth: ctx.depth,
		})
	}

	defer func() {
		if rec >= 0 {
			p.records[rec].Success = err == nil
		}
		p.pop()
	}()

	if err = fn(p, ctx); err != nil {
		return err
	}

	p.skip()
	caller.Bind(name, ctx.result())
	return nil
}

// Match matches pat at the current position, after skipping whitespace. On
// success the matched text is bound in the current context under bind ("" for
// anonymous) and the position advances past it.
func (p *Parser) Match(pat *Pattern, bind string) error {
	p.skip()

	n, err := pat.matchAt(p.input, p.pos)
	if err != nil {
		return fmt.Errorf("match %s: %w", pat, err)
	}
	if n < 0 {
		return p.newFailure(pat, "")
	}

	text := string(p.input[p.pos : p.pos+n])
	p.advance(n)
	p.arena[p.top].Bind(bind, text)
	return nil
}

// Lookahead returns whether any of pats matches at the current position,
// after whitespace. Nothing is consumed.
func (p *Parser) Lookahead(pats ...*Pattern) bool {
	at := p.pos + p.wsLen()
	for _, pat := range pats {
		n, err := pat.matchAt(p.input, at)
		if err == nil && n >= 0 {
			return true
		}
	}
	return false
}

// Fail returns a structural failure at the current position with the given
// reason. Failures of alternatives already rejected at the innermost open
// branch become its siblings.
func (p *Parser) Fail(reason string) error {
	f := p.newFailure(nil, reason)
	if len(p.branches) > 0 {
		f.Siblings = append(f.Siblings, p.branches[len(p.branches)-1].rejected...)
	}
	return f
}

// Expect returns a structural failure at the current position for the first
// of pats, with a sibling failure for each of the rest. It is used when no
// alternative's lookahead matched.
func (p *Parser) Expect(pats ...*Pattern) error {
	if len(pats) == 0 {
		return p.Fail("no alternative matched")
	}

	p.skip()
	f := p.newFailure(pats[0], "")
	for _, pat := range pats[1:] {
		f.Siblings = append(f.Siblings, &Failure{
			Row:     f.Row,
			Col:     f.Col,
			Pos:     f.Pos,
			Pattern: pat,
			Chain:   f.Chain,
		})
	}
	return f
}

// Mark is a saved scan position and binding count, for rewinding after a
// failed attempt.
type Mark struct {
	pos   int
	row   int
	col   int
	top   int
	binds int
}

// Mark saves the current position.
func (p *Parser) Mark() Mark {
	return Mark{
		pos:   p.pos,
		row:   p.row,
		col:   p.col,
		top:   p.top,
		binds: len(p.arena[p.top].binds),
	}
}

// Reset rewinds to m, dropping anything bound in the current context since m
// was taken. m must have been taken in the current context.
func (p *Parser) Reset(m Mark) {
	p.pos, p.row, p.col = m.pos, m.row, m.col
	if m.top == p.top {
		ctx := p.arena[p.top]
		for i := m.binds; i < len(ctx.binds); i++ {
			ctx.binds[i] = binding{}
		}
		ctx.binds = ctx.binds[:m.binds]
	}
}

// Progressed returns an error wrapping ErrZeroWidth if nothing has been
// consumed since m was taken. Repetitions call it after each successful
// iteration so that an empty match cannot loop forever.
func (p *Parser) Progressed(m Mark) error {
	if p.pos != m.pos {
		return nil
	}
	return fmt.Errorf("%w: in %s at line %d, char %d", ErrZeroWidth, p.arena[p.top].Name, p.row+1, p.col+1)
}

// Pos returns the current rune offset into the input.
func (p *Parser) Pos() int {
	return p.pos
}

// Row returns the current 0-based line.
func (p *Parser) Row() int {
	return p.row
}

// Col returns the current 0-based column.
func (p *Parser) Col() int {
	return p.col
}

// Rest returns the input not yet consumed.
func (p *Parser) Rest() string {
	return string(p.input[p.pos:])
}

// Input returns the complete input.
func (p *Parser) Input() string {
	return p.source
}

// Depth returns the number of active rule invocations.
func (p *Parser) Depth() int {
	return p.top
}

// Context returns the context of the innermost active rule invocation.
func (p *Parser) Context() *Context {
	return p.arena[p.top]
}

// Chain returns the names of the active rules, outermost first.
func (p *Parser) Chain() []string {
	chain := make([]string, p.top)
	for i := 1; i <= p.top; i++ {
		chain[i-1] = p.arena[i].Name
	}
	return chain
}

func (p *Parser) push(name string) *Context {
	p.top++
	if p.top == len(p.arena) {
		p.arena = append(p.arena, &Context{p: p, depth: p.top})
	}
	ctx := p.arena[p.top]
	ctx.reset(name)
	return ctx
}

func (p *Parser) pop() {
	p.arena[p.top].reset("")
	p.top--
}

// advance consumes n runes, updating row and col.
func (p *Parser) advance(n int) {
	for _, ch := range p.input[p.pos : p.pos+n] {
		if ch == '\n' {
			p.row++
			p.col = 0
		} else {
			p.col++
		}
	}
	p.pos += n
}

func (p *Parser) wsLen() int {
	if p.ws == nil {
		return 0
	}
	n, err := p.ws.matchAt(p.input, p.pos)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func (p *Parser) skip() {
	if n := p.wsLen(); n > 0 {
		p.advance(n)
	}
}

func (p *Parser) newFailure(pat *Pattern, reason string) *Failure {
	f := &Failure{
		Row:     p.row,
		Col:     p.col,
		Pos:     p.pos,
		Pattern: pat,
		Chain:   p.Chain(),
		Reason:  reason,
	}
	p.note(f)
	return f
}

// note keeps track of the failures at the farthest position reached.
func (p *Parser) note(f *Failure) {
	if len(p.farthest) > 0 && p.farthest[0].Pos > f.Pos {
		return
	}
	if len(p.farthest) > 0 && p.farthest[0].Pos < f.Pos {
		p.farthest = p.farthest[:0]
	}
	p.farthest = append(p.farthest, f)
}

// report picks the failure to return from Run: the one with the longest rule
// chain among those at the farthest position, with the rest as siblings.
func (p *Parser) report(last *Failure) *Failure {
	cands := p.farthest
	if len(cands) == 0 || cands[0].Pos < last.Pos {
		return last
	}
	if cands[0].Pos == last.Pos {
		cands = append([]*Failure{last}, cands...)
	}

	primary := cands[0]
	for _, c := range cands[1:] {
		if len(c.Chain) > len(primary.Chain) {
			primary = c
		}
	}

	out := *primary
	out.Siblings = nil
	out.Siblings = append(out.Siblings, primary.Siblings...)
	for _, c := range cands {
		if c == primary || c.sameSpot(primary) {
			continue
		}
		out.Siblings = append(out.Siblings, c)
	}
	return &out
}
