// Package meta reads grammar source into a grammar.Grammar. Its parser is a
// hand-maintained predictive parser on the scan runtime, laid out the way gen
// lays out the parsers it emits.
//
// Grammar source is a list of rules:
//
//	name : expr
//	name @(key=value, ...) : expr
//
// An expr is a sequence of items separated by '|' into alternatives. An item
// is a quoted pattern, a rule name, a semantic action in backquotes or a
// parenthesized expr, optionally followed by '?', '*' or '+'. Patterns may be
// single, double or triple quoted, with an optional r prefix that turns off
// escape processing, and take an argument block like rules do. Everything
// from '#' to the end of a line is a comment.
package meta

import (
	"fmt"
	"strings"

	"github.com/dekarrin/remora/internal/grammar"
	"github.com/dekarrin/remora/scan"
)

// Source is the syntax of grammar source written in itself, without the
// semantic actions that build the grammar.
const Source = `# grammar source syntax

grammar : rule+
rule    : name args? ':' expr ';'?
args    : '@' (r'\(' (arg (',' arg)*)? r'\)' | arg)
arg     : key '=' value
value   : string | number | keyword
expr    : seq (r'\|' seq)*
seq     : item*
item    : atom suffix?
atom    : pattern | code | ref | r'\(' expr r'\)'
pattern : string args?

name    : r'[A-Za-z_][A-Za-z0-9_]*'
key     : r'[A-Za-z_][A-Za-z0-9_]*'
ref     : r'[A-Za-z_][A-Za-z0-9_]*\b(?!\s*[:@])'
string  : r'[rR]?(?:\'\'\'(?:[^\\]|\\.)*?\'\'\'|"""(?:[^\\]|\\.)*?"""|\'(?:[^\'\\\n]|\\.)*\'|"(?:[^"\\\n]|\\.)*")'
number  : r'-?[0-9]+(?:\.[0-9]+)?(?:[eE][-+]?[0-9]+)?'
keyword : r'(?:true|false|none)\b'
code    : r'\x60[^\x60]*\x60'
suffix  : r'[?*+]'
`

// Parse reads grammar source. A syntax error is returned as a *scan.Failure;
// use its FullMessage with src to show it. The grammar is not validated.
func Parse(src string) (grammar.Grammar, error) {
	_, g, err := ParseDebug(src, false)
	return g, err
}

// ParseDebug is like Parse but also returns the parser used, which holds the
// trace of rule invocations if debug is set.
func ParseDebug(src string, debug bool) (*scan.Parser, grammar.Grammar, error) {
	p := scan.New(src, rules, scan.WithWhitespace(whitespace), scan.WithDebug(debug))

	v, err := p.Run("grammar")
	if err != nil {
		return p, grammar.Grammar{}, err
	}
	return p, v.(grammar.Grammar), nil
}

// decodeString gives the contents of a string literal. Unless the literal is
// raw, the escapes \n, \t, \r, \\, \' and \" are replaced; any other
// backslash sequence is kept for the pattern engine.
func decodeString(lit string) string {
	raw := false
	if lit[0] == 'r' || lit[0] == 'R' {
		raw = true
		lit = lit[1:]
	}

	q := 1
	if strings.HasPrefix(lit, `'''`) || strings.HasPrefix(lit, `"""`) {
		q = 3
	}
	body := lit[q : len(lit)-q]

	if raw {
		return body
	}
	return unescape(body)
}

func unescape(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			sb.WriteByte(s[i])
			continue
		}

		i++
		switch s[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '\\', '\'', '"':
			sb.WriteByte(s[i])
		default:
			sb.WriteByte('\\')
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

// patternFlags gives the canonical flags from the value of a flags argument.
func patternFlags(v grammar.Value) (string, error) {
	if v.Kind != grammar.KindString {
		return "", fmt.Errorf("%w: flags must be a string, not %s", grammar.ErrInvalidFlags, v.Kind)
	}
	flags, err := grammar.CanonicalFlags(v.Str)
	if err != nil {
		return "", fmt.Errorf("%w: %v", grammar.ErrInvalidFlags, err)
	}
	return flags, nil
}

// applyFlags gives flags to every non-empty pattern in n that has none.
func applyFlags(n grammar.Node, flags string) {
	grammar.Walk(n, func(sub grammar.Node) {
		if pat, ok := sub.(*grammar.Pattern); ok && pat.Info.Flags == "" && !pat.Info.IsEpsilon() {
			pat.Info.Flags = flags
		}
	})
}
