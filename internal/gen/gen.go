// Package gen emits the Go source of a recursive-descent parser for a grammar.
// The generated parser runs on the scan package.
//
// Two emission strategies exist. Predictive emission decides every
// alternative and repetition by testing the FIRST-set patterns of each
// choice without consuming input; it never backtracks. Backtracking emission
// attempts each choice in order and rewinds on structural failure, using the
// choice and repeat helpers it adds to the generated file.
package gen

import (
	"bytes"
	_ "embed"
	"fmt"
	"go/format"
	"strings"
	"text/template"

	"github.com/dekarrin/remora/internal/grammar"
	"github.com/dekarrin/remora/internal/logging"
	"github.com/dekarrin/remora/internal/rmerrors"
	"github.com/dekarrin/remora/internal/version"
	"github.com/dekarrin/remora/scan"
)

//go:embed templates/parser.go.tmpl
var defaultTemplate string

//go:embed templates/helpers.go.tmpl
var helpersBlock string

// TemplateData is what a template is executed with. Each field is a complete
// block of Go source.
type TemplateData struct {
	// Header is the "generated code" comment.
	Header string

	Package string

	// Entry is the name of the default entry rule.
	Entry string

	// Whitespace declares the var whitespace.
	Whitespace string

	// Patterns declares every compiled pattern.
	Patterns string

	// RuleTable declares the var rules mapping rule names to routines.
	RuleTable string

	// Rules is every rule routine.
	Rules string

	// Helpers holds the backtracking helpers; it is empty in predictive mode.
	Helpers string
}

// Generator generates parser source. The zero value is not usable; Options
// must be set, normally starting from Defaults.
type Generator struct {
	Options Options
	Log     logging.Logger
}

// Generate generates parser source for g with the given options, logging
// nothing.
func Generate(g grammar.Grammar, first grammar.FirstTable, opts Options) ([]byte, error) {
	return Generator{Options: opts, Log: logging.NewNop()}.Generate(g, first)
}

// Generate returns gofmt-formatted Go source of a parser for g. first must be
// the FIRST table of g. No output is produced if any error occurs.
func (gn Generator) Generate(g grammar.Grammar, first grammar.FirstTable) ([]byte, error) {
	log := gn.Log
	if log == nil {
		log = logging.NewNop()
	}
	opts := gn.Options

	if err := opts.Validate(); err != nil {
		return nil, rmerrors.Wrap(err, "invalid options", "")
	}
	if err := g.Validate(); err != nil {
		return nil, rmerrors.Wrap(err, "invalid grammar", "")
	}
	if err := grammar.CheckDescent(g, first); err != nil {
		return nil, rmerrors.Wrap(err, "grammar cannot be parsed by recursive descent", "")
	}
	for _, p := range patternTable(g) {
		if _, err := scan.Compile(p.Text, p.Flags); err != nil {
			return nil, rmerrors.Wrap(err, fmt.Sprintf("pattern %s does not compile", p), "")
		}
	}

	entry := opts.Entry
	if entry == "" {
		entry = g.Start()
	}
	if _, ok := g.Rule(entry); !ok {
		return nil, rmerrors.New(fmt.Sprintf("entry rule %q is not defined", entry), fmt.Sprintf("undefined entry rule %q", entry))
	}

	fnNames, err := funcNames(g, opts)
	if err != nil {
		return nil, rmerrors.Wrap(err, "cannot name rule routines", "")
	}

	tmplText := opts.Template
	if tmplText == "" {
		tmplText = defaultTemplate
	}
	tmpl, err := template.New("parser").Parse(tmplText)
	if err != nil {
		return nil, rmerrors.Wrap(err, "template could not be parsed", "")
	}

	e := &emitter{
		log:      log,
		opts:     opts,
		first:    first,
		patNames: PatternNames(g),
		fnNames:  fnNames,
	}

	data := TemplateData{
		Header:     fmt.Sprintf("// Code generated by remora %s. DO NOT EDIT.", version.Current),
		Package:    opts.Package,
		Entry:      entry,
		Whitespace: e.whitespaceDecl(),
		Patterns:   e.patternDecls(g),
		RuleTable:  e.ruleTable(g),
		Rules:      e.rules(g),
	}
	if opts.Backtrack {
		data.Helpers = helpersBlock
	}

	log.Debug("emitted parser", "rules", len(g.Rules), "patterns", len(e.patNames), "backtrack", opts.Backtrack, "entry", entry)

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, rmerrors.Wrap(err, "template could not be filled", "")
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, rmerrors.Wrap(err, "generated code is not valid Go; check the semantic actions and template", fmt.Sprintf("format generated source: %v%s", err, offendingLine(buf.Bytes(), err)))
	}

	return src, nil
}

// offendingLine extracts the line a go/scanner error points to, formatted to
// append to a message.
func offendingLine(src []byte, err error) string {
	var lineNo int
	// go/format errors start with "line:col: "
	if _, scanErr := fmt.Sscanf(err.Error(), "%d:", &lineNo); scanErr != nil || lineNo < 1 {
		return ""
	}
	lines := strings.Split(string(src), "\n")
	if lineNo > len(lines) {
		return ""
	}
	return fmt.Sprintf("\n%d: %s", lineNo, lines[lineNo-1])
}

type emitter struct {
	log      logging.Logger
	opts     Options
	first    grammar.FirstTable
	patNames map[grammar.PatternInfo]string
	fnNames  map[string]string

	// rule is the name of the rule being emitted.
	rule   string
	sb     strings.Builder
	indent int
}

func (e *emitter) line(format string, a ...interface{}) {
	e.sb.WriteString(strings.Repeat("\t", e.indent))
	if len(a) > 0 {
		e.sb.WriteString(fmt.Sprintf(format, a...))
	} else {
		e.sb.WriteString(format)
	}
	e.sb.WriteRune('\n')
}

// text writes verbatim text, one line at a time at the current indent.
func (e *emitter) text(s string) {
	if s == "" {
		return
	}
	for _, l := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		e.line("%s", strings.TrimRight(l, " \t"))
	}
}

func (e *emitter) take() string {
	s := e.sb.String()
	e.sb.Reset()
	return s
}

func (e *emitter) whitespaceDecl() string {
	if e.opts.Whitespace == "" {
		return "var whitespace *scan.Pattern"
	}
	return fmt.Sprintf("var whitespace = scan.MustCompile(%s, \"\")", goString(e.opts.Whitespace))
}

func (e *emitter) patternDecls(g grammar.Grammar) string {
	e.line("// patterns, ordered by length then text")
	e.line("var (")
	e.indent++
	for _, p := range patternTable(g) {
		e.line("%s = scan.MustCompile(%s, %s)", e.patNames[p], goString(p.Text), goString(p.Flags))
	}
	e.indent--
	e.line(")")
	return e.take()
}

func (e *emitter) ruleTable(g grammar.Grammar) string {
	e.line("var rules = map[string]scan.RuleFunc{")
	e.indent++
	for _, r := range g.Rules {
		e.line("%q: %s,", r.Name, e.fnNames[r.Name])
	}
	e.indent--
	e.line("}")
	return e.take()
}

func (e *emitter) rules(g grammar.Grammar) string {
	for i, r := range g.Rules {
		if i > 0 {
			e.line("")
		}
		e.emitRule(r)
	}
	return e.take()
}

func (e *emitter) emitRule(r grammar.Rule) {
	e.rule = r.Name
	bind := ""
	if _, ok := grammar.SinglePattern(r.Body); ok {
		bind = r.Name
	}

	e.line("// %s parses rule %s:", e.fnNames[r.Name], r.Name)
	e.line("//")
	for _, l := range strings.Split(r.String(), "\n") {
		e.line("//\t%s", l)
	}
	e.line("func %s(p *scan.Parser, ctx *scan.Context) error {", e.fnNames[r.Name])
	e.indent++
	e.text(e.opts.RulePrefix)
	e.node(r.Body, bind)
	e.text(e.opts.RuleSuffix)
	e.line("return nil")
	e.indent--
	e.line("}")
}

// node emits the statements for n. Failure of any statement returns its error
// from the enclosing function. bind is the name pattern matches bind under.
func (e *emitter) node(n grammar.Node, bind string) {
	switch v := n.(type) {
	case *grammar.Pattern:
		e.check("p.Match(%s, %q)", e.patNames[v.Info], bind)
	case *grammar.Code:
		e.text(e.opts.CodePrefix)
		e.text(v.Text)
		e.text(e.opts.CodeSuffix)
	case *grammar.RuleRef:
		e.check("p.Invoke(%q)", v.Name)
	case *grammar.Sequence:
		for _, it := range v.Items {
			e.node(it, bind)
		}
	case *grammar.Alternation:
		if e.opts.Backtrack {
			e.choice(v, bind)
		} else {
			e.predictAlternation(v, bind)
		}
	case *grammar.Optional:
		if e.opts.Backtrack {
			e.repeat(0, 1, v.Body, bind)
		} else {
			e.predictOptional(v.Body, bind)
		}
	case *grammar.ZeroOrMore:
		if e.opts.Backtrack {
			e.repeat(0, 0, v.Body, bind)
		} else {
			e.predictLoop(v.Body, bind, false)
		}
	case *grammar.OneOrMore:
		if e.opts.Backtrack {
			e.repeat(1, 0, v.Body, bind)
		} else {
			e.predictLoop(v.Body, bind, true)
		}
	default:
		panic(fmt.Sprintf("unknown node type %T", n))
	}
}

// check emits a call whose error is returned.
func (e *emitter) check(format string, a ...interface{}) {
	e.line("if err := "+format+"; err != nil {", a...)
	e.indent++
	e.line("return err")
	e.indent--
	e.line("}")
}

// lookahead gives the argument list naming the FIRST-set patterns of n.
// withEpsilon controls whether the empty pattern is kept.
func (e *emitter) lookahead(n grammar.Node, withEpsilon bool) string {
	fs := grammar.First(n, e.first)
	var names []string
	for _, p := range grammar.Sorted(fs) {
		if p.IsEpsilon() && !withEpsilon {
			continue
		}
		names = append(names, e.patNames[p])
	}
	return strings.Join(names, ", ")
}

func (e *emitter) predictAlternation(v *grammar.Alternation, bind string) {
	expect := grammar.FirstSet{}
	var seen []grammar.FirstSet
	for i, alt := range v.Alts {
		fs := grammar.WithoutEpsilon(grammar.First(alt, e.first))
		for j := range seen {
			if !fs.DisjointWith(seen[j]) {
				e.log.Warn("alternatives share lookahead; the earlier one always wins",
					"rule", e.rule,
					"alternatives", fmt.Sprintf("%d and %d", j+1, i+1),
					"patterns", fs.Intersection(seen[j]).StringOrdered(),
				)
			}
		}
		seen = append(seen, fs)
		expect = expect.Union(fs)
	}
	var expectNames []string
	for _, p := range grammar.Sorted(expect) {
		expectNames = append(expectNames, e.patNames[p])
	}

	e.line("switch {")
	for _, alt := range v.Alts {
		e.line("case p.Lookahead(%s):", e.lookahead(alt, true))
		e.indent++
		e.node(alt, bind)
		e.indent--
	}
	e.line("default:")
	e.indent++
	e.line("return p.Expect(%s)", strings.Join(expectNames, ", "))
	e.indent--
	e.line("}")
}

func (e *emitter) predictOptional(body grammar.Node, bind string) {
	e.line("if p.Lookahead(%s) {", e.lookahead(body, true))
	e.indent++
	e.node(body, bind)
	e.indent--
	e.line("}")
}

func (e *emitter) predictLoop(body grammar.Node, bind string, atLeastOnce bool) {
	la := e.lookahead(body, true)
	if atLeastOnce {
		e.line("if !p.Lookahead(%s) {", la)
		e.indent++
		e.line("return p.Expect(%s)", e.lookahead(body, false))
		e.indent--
		e.line("}")
		e.line("for {")
	} else {
		e.line("for p.Lookahead(%s) {", la)
	}
	e.indent++
	e.line("m := p.Mark()")
	e.node(body, bind)
	e.check("p.Progressed(m)")
	if atLeastOnce {
		e.line("if !p.Lookahead(%s) {", la)
		e.indent++
		e.line("break")
		e.indent--
		e.line("}")
	}
	e.indent--
	e.line("}")
}

// closure emits "func() error { ... }" for n, ending with suffix after the
// closing brace.
func (e *emitter) closure(n grammar.Node, bind, suffix string) {
	e.line("func() error {")
	e.indent++
	e.node(n, bind)
	e.line("return nil")
	e.indent--
	e.line("}" + suffix)
}

func (e *emitter) choice(v *grammar.Alternation, bind string) {
	e.line("if err := choice(p,")
	e.indent++
	for _, alt := range v.Alts {
		e.closure(alt, bind, ",")
	}
	e.indent--
	e.line("); err != nil {")
	e.indent++
	e.line("return err")
	e.indent--
	e.line("}")
}

func (e *emitter) repeat(min, max int, body grammar.Node, bind string) {
	e.line("if err := repeat(p, %d, %d,", min, max)
	e.indent++
	e.closure(body, bind, ",")
	e.indent--
	e.line("); err != nil {")
	e.indent++
	e.line("return err")
	e.indent--
	e.line("}")
}
