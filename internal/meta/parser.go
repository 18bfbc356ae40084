package meta

import (
	"strconv"

	"github.com/dekarrin/remora/internal/grammar"
	"github.com/dekarrin/remora/scan"
)

// The routines below are what gen emits in predictive mode for Source, with
// the semantic actions that build the grammar written in. They are maintained
// by hand; a change to Source must be made here too.

var whitespace = scan.MustCompile(`(?:\s|#[^\n]*)*`, "")

// patterns, ordered by length then text
var (
	pat0  = scan.MustCompile("", "")
	pat1  = scan.MustCompile(`,`, "")
	pat2  = scan.MustCompile(`:`, "")
	pat3  = scan.MustCompile(`;`, "")
	pat4  = scan.MustCompile(`=`, "")
	pat5  = scan.MustCompile(`@`, "")
	pat6  = scan.MustCompile(`\(`, "")
	pat7  = scan.MustCompile(`\)`, "")
	pat8  = scan.MustCompile(`\|`, "")
	pat9  = scan.MustCompile(`[?*+]`, "")
	pat10 = scan.MustCompile(`\x60[^\x60]*\x60`, "")
	pat11 = scan.MustCompile(`(?:true|false|none)\b`, "")
	pat12 = scan.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`, "")
	pat13 = scan.MustCompile(`[A-Za-z_][A-Za-z0-9_]*\b(?!\s*[:@])`, "")
	pat14 = scan.MustCompile(`-?[0-9]+(?:\.[0-9]+)?(?:[eE][-+]?[0-9]+)?`, "")
	pat15 = scan.MustCompile(`[rR]?(?:\'\'\'(?:[^\\]|\\.)*?\'\'\'|"""(?:[^\\]|\\.)*?"""|\'(?:[^\'\\\n]|\\.)*\'|"(?:[^"\\\n]|\\.)*")`, "")
)

var rules = map[string]scan.RuleFunc{
	"grammar": ruleGrammar,
	"rule":    ruleRule,
	"args":    ruleArgs,
	"arg":     ruleArg,
	"value":   ruleValue,
	"expr":    ruleExpr,
	"seq":     ruleSeq,
	"item":    ruleItem,
	"atom":    ruleAtom,
	"pattern": rulePattern,
	"name":    ruleName,
	"key":     ruleKey,
	"ref":     ruleRef,
	"string":  ruleString,
	"number":  ruleNumber,
	"keyword": ruleKeyword,
	"code":    ruleCode,
	"suffix":  ruleSuffix,
}

// ruleGrammar parses rule grammar:
//
//	grammar : rule+
func ruleGrammar(p *scan.Parser, ctx *scan.Context) error {
	if !p.Lookahead(pat12) {
		return p.Expect(pat12)
	}
	for {
		m := p.Mark()
		if err := p.Invoke("rule"); err != nil {
			return err
		}
		if err := p.Progressed(m); err != nil {
			return err
		}
		if !p.Lookahead(pat12) {
			break
		}
	}

	g := grammar.Grammar{}
	for _, r := range ctx.All("rule") {
		g.Rules = append(g.Rules, r.(grammar.Rule))
	}
	ctx.Value = g
	return nil
}

// ruleRule parses rule rule:
//
//	rule : name args? ':' expr ';'?
func ruleRule(p *scan.Parser, ctx *scan.Context) error {
	if err := p.Invoke("name"); err != nil {
		return err
	}
	if p.Lookahead(pat5) {
		if err := p.Invoke("args"); err != nil {
			return err
		}
	}
	if err := p.Match(pat2, ""); err != nil {
		return err
	}
	if err := p.Invoke("expr"); err != nil {
		return err
	}
	if p.Lookahead(pat3) {
		if err := p.Match(pat3, ""); err != nil {
			return err
		}
	}

	r := grammar.Rule{
		Name: ctx.Str("name"),
		Body: ctx.Get("expr").(grammar.Node),
	}
	if args, _ := ctx.Get("args").(grammar.Args); len(args) > 0 {
		r.Args = args
		if v, ok := args.Get("flags"); ok {
			flags, err := patternFlags(v)
			if err != nil {
				return p.Fail("rule " + r.Name + ": " + err.Error())
			}
			applyFlags(r.Body, flags)
		}
	}
	ctx.Value = r
	return nil
}

// ruleArgs parses rule args:
//
//	args : '@' (r'\(' (arg (',' arg)*)? r'\)' | arg)
func ruleArgs(p *scan.Parser, ctx *scan.Context) error {
	if err := p.Match(pat5, ""); err != nil {
		return err
	}
	switch {
	case p.Lookahead(pat6):
		if err := p.Match(pat6, ""); err != nil {
			return err
		}
		if p.Lookahead(pat12) {
			if err := p.Invoke("arg"); err != nil {
				return err
			}
			for p.Lookahead(pat1) {
				m := p.Mark()
				if err := p.Match(pat1, ""); err != nil {
					return err
				}
				if err := p.Invoke("arg"); err != nil {
					return err
				}
				if err := p.Progressed(m); err != nil {
					return err
				}
			}
		}
		if err := p.Match(pat7, ""); err != nil {
			return err
		}
	case p.Lookahead(pat12):
		if err := p.Invoke("arg"); err != nil {
			return err
		}
	default:
		return p.Expect(pat6, pat12)
	}

	args := grammar.Args{}
	for _, a := range ctx.All("arg") {
		args = append(args, a.(grammar.Arg))
	}
	ctx.Value = args
	return nil
}

// ruleArg parses rule arg:
//
//	arg : key '=' value
func ruleArg(p *scan.Parser, ctx *scan.Context) error {
	if err := p.Invoke("key"); err != nil {
		return err
	}
	if err := p.Match(pat4, ""); err != nil {
		return err
	}
	if err := p.Invoke("value"); err != nil {
		return err
	}

	ctx.Value = grammar.Arg{Key: ctx.Str("key"), Value: ctx.Get("value").(grammar.Value)}
	return nil
}

// ruleValue parses rule value:
//
//	value : string | number | keyword
func ruleValue(p *scan.Parser, ctx *scan.Context) error {
	switch {
	case p.Lookahead(pat15):
		if err := p.Invoke("string"); err != nil {
			return err
		}
	case p.Lookahead(pat14):
		if err := p.Invoke("number"); err != nil {
			return err
		}
	case p.Lookahead(pat11):
		if err := p.Invoke("keyword"); err != nil {
			return err
		}
	default:
		return p.Expect(pat11, pat14, pat15)
	}

	switch {
	case ctx.Has("string"):
		ctx.Value = grammar.Str(ctx.Str("string"))
	case ctx.Has("number"):
		ctx.Value = ctx.Get("number")
	default:
		ctx.Value = ctx.Get("keyword")
	}
	return nil
}

// ruleExpr parses rule expr:
//
//	expr : seq (r'\|' seq)*
func ruleExpr(p *scan.Parser, ctx *scan.Context) error {
	if err := p.Invoke("seq"); err != nil {
		return err
	}
	for p.Lookahead(pat8) {
		m := p.Mark()
		if err := p.Match(pat8, ""); err != nil {
			return err
		}
		if err := p.Invoke("seq"); err != nil {
			return err
		}
		if err := p.Progressed(m); err != nil {
			return err
		}
	}

	alts := ctx.All("seq")
	if len(alts) == 1 {
		ctx.Value = alts[0]
		return nil
	}
	alt := &grammar.Alternation{}
	for _, a := range alts {
		alt.Alts = append(alt.Alts, a.(grammar.Node))
	}
	ctx.Value = alt
	return nil
}

// ruleSeq parses rule seq:
//
//	seq : item*
func ruleSeq(p *scan.Parser, ctx *scan.Context) error {
	for p.Lookahead(pat6, pat10, pat13, pat15) {
		m := p.Mark()
		if err := p.Invoke("item"); err != nil {
			return err
		}
		if err := p.Progressed(m); err != nil {
			return err
		}
	}

	items := ctx.All("item")
	if len(items) == 1 {
		ctx.Value = items[0]
		return nil
	}
	seq := &grammar.Sequence{}
	for _, it := range items {
		seq.Items = append(seq.Items, it.(grammar.Node))
	}
	ctx.Value = seq
	return nil
}

// ruleItem parses rule item:
//
//	item : atom suffix?
func ruleItem(p *scan.Parser, ctx *scan.Context) error {
	if err := p.Invoke("atom"); err != nil {
		return err
	}
	if p.Lookahead(pat9) {
		if err := p.Invoke("suffix"); err != nil {
			return err
		}
	}

	n := ctx.Get("atom").(grammar.Node)
	switch ctx.Str("suffix") {
	case "?":
		n = &grammar.Optional{Body: n}
	case "*":
		n = &grammar.ZeroOrMore{Body: n}
	case "+":
		n = &grammar.OneOrMore{Body: n}
	}
	ctx.Value = n
	return nil
}

// ruleAtom parses rule atom:
//
//	atom : pattern | code | ref | r'\(' expr r'\)'
func ruleAtom(p *scan.Parser, ctx *scan.Context) error {
	switch {
	case p.Lookahead(pat15):
		if err := p.Invoke("pattern"); err != nil {
			return err
		}
	case p.Lookahead(pat10):
		if err := p.Invoke("code"); err != nil {
			return err
		}
	case p.Lookahead(pat13):
		if err := p.Invoke("ref"); err != nil {
			return err
		}
	case p.Lookahead(pat6):
		if err := p.Match(pat6, ""); err != nil {
			return err
		}
		if err := p.Invoke("expr"); err != nil {
			return err
		}
		if err := p.Match(pat7, ""); err != nil {
			return err
		}
	default:
		return p.Expect(pat6, pat10, pat13, pat15)
	}

	switch {
	case ctx.Has("pattern"):
		ctx.Value = ctx.Get("pattern")
	case ctx.Has("code"):
		text := ctx.Str("code")
		ctx.Value = &grammar.Code{Text: text[1 : len(text)-1]}
	case ctx.Has("ref"):
		ctx.Value = &grammar.RuleRef{Name: ctx.Str("ref")}
	default:
		ctx.Value = ctx.Get("expr")
	}
	return nil
}

// rulePattern parses rule pattern:
//
//	pattern : string args?
func rulePattern(p *scan.Parser, ctx *scan.Context) error {
	if err := p.Invoke("string"); err != nil {
		return err
	}
	if p.Lookahead(pat5) {
		if err := p.Invoke("args"); err != nil {
			return err
		}
	}

	args, _ := ctx.Get("args").(grammar.Args)
	var flags string
	if v, ok := args.Get("flags"); ok {
		var err error
		if flags, err = patternFlags(v); err != nil {
			return p.Fail(err.Error())
		}
		args = args.Without("flags")
	}
	if len(args) == 0 {
		args = nil
	}
	ctx.Value = &grammar.Pattern{
		Info: grammar.NewPatternInfo(ctx.Str("string"), flags),
		Args: args,
	}
	return nil
}

// ruleName parses rule name:
//
//	name : r'[A-Za-z_][A-Za-z0-9_]*'
func ruleName(p *scan.Parser, ctx *scan.Context) error {
	if err := p.Match(pat12, "name"); err != nil {
		return err
	}
	return nil
}

// ruleKey parses rule key:
//
//	key : r'[A-Za-z_][A-Za-z0-9_]*'
func ruleKey(p *scan.Parser, ctx *scan.Context) error {
	if err := p.Match(pat12, "key"); err != nil {
		return err
	}
	return nil
}

// ruleRef parses rule ref:
//
//	ref : r'[A-Za-z_][A-Za-z0-9_]*\b(?!\s*[:@])'
func ruleRef(p *scan.Parser, ctx *scan.Context) error {
	if err := p.Match(pat13, "ref"); err != nil {
		return err
	}
	return nil
}

// ruleString parses rule string, a quoted literal. Its value is the decoded
// contents.
func ruleString(p *scan.Parser, ctx *scan.Context) error {
	if err := p.Match(pat15, "string"); err != nil {
		return err
	}

	ctx.Value = decodeString(ctx.Str("string"))
	return nil
}

// ruleNumber parses rule number:
//
//	number : r'-?[0-9]+(?:\.[0-9]+)?(?:[eE][-+]?[0-9]+)?'
func ruleNumber(p *scan.Parser, ctx *scan.Context) error {
	if err := p.Match(pat14, "number"); err != nil {
		return err
	}

	f, err := strconv.ParseFloat(ctx.Str("number"), 64)
	if err != nil {
		return p.Fail("number " + ctx.Str("number") + " is out of range")
	}
	ctx.Value = grammar.Num(f)
	return nil
}

// ruleKeyword parses rule keyword:
//
//	keyword : r'(?:true|false|none)\b'
func ruleKeyword(p *scan.Parser, ctx *scan.Context) error {
	if err := p.Match(pat11, "keyword"); err != nil {
		return err
	}

	switch ctx.Str("keyword") {
	case "true":
		ctx.Value = grammar.Bool(true)
	case "false":
		ctx.Value = grammar.Bool(false)
	default:
		ctx.Value = grammar.None
	}
	return nil
}

// ruleCode parses rule code:
//
//	code : r'\x60[^\x60]*\x60'
func ruleCode(p *scan.Parser, ctx *scan.Context) error {
	if err := p.Match(pat10, "code"); err != nil {
		return err
	}
	return nil
}

// ruleSuffix parses rule suffix:
//
//	suffix : r'[?*+]'
func ruleSuffix(p *scan.Parser, ctx *scan.Context) error {
	if err := p.Match(pat9, "suffix"); err != nil {
		return err
	}
	return nil
}
