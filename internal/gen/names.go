package gen

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/dekarrin/remora/internal/grammar"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.Und, cases.NoLower)

// camelName converts a rule name such as "rule_a" or "top-level" into
// "RuleA" / "TopLevel".
func camelName(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var sb strings.Builder
	for _, w := range words {
		sb.WriteString(titleCaser.String(w))
	}
	return sb.String()
}

// funcNames assigns the name of the routine for every rule of g. Two rules
// that would get the same name are an error.
func funcNames(g grammar.Grammar, opts Options) (map[string]string, error) {
	names := map[string]string{}
	owner := map[string]string{}

	for _, r := range g.Rules {
		fn := opts.FuncPrefix + camelName(r.Name) + opts.FuncSuffix
		if opts.FuncPrefix == "" {
			// keep routines unexported
			fn = lowerFirst(fn)
		}
		if !isGoIdent(fn) {
			return nil, fmt.Errorf("rule %q: routine name %q is not a valid Go identifier", r.Name, fn)
		}
		if other, ok := owner[fn]; ok {
			return nil, fmt.Errorf("rules %q and %q both map to routine name %q", other, r.Name, fn)
		}
		owner[fn] = r.Name
		names[r.Name] = fn
	}

	return names, nil
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

func isGoIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	// reserved words and names the template uses
	switch s {
	case "break", "case", "chan", "const", "continue", "default", "defer", "else",
		"fallthrough", "for", "func", "go", "goto", "if", "import", "interface",
		"map", "package", "range", "return", "select", "struct", "switch", "type", "var",
		"choice", "repeat", "rules", "whitespace", "Parse", "EntryRule":
		return false
	}
	return true
}

// PatternNames returns the identifier of every pattern declared for g: the
// epsilon pattern and every pattern of the grammar, sorted by length then
// text and numbered from pat0. The result depends only on the set of patterns,
// not on rule order.
func PatternNames(g grammar.Grammar) map[grammar.PatternInfo]string {
	names := map[grammar.PatternInfo]string{}
	for i, p := range patternTable(g) {
		names[p] = "pat" + strconv.Itoa(i)
	}
	return names
}

func patternTable(g grammar.Grammar) []grammar.PatternInfo {
	pats := g.Patterns()
	if len(pats) == 0 || !pats[0].IsEpsilon() {
		pats = append([]grammar.PatternInfo{grammar.Epsilon}, pats...)
	}
	return pats
}

// goString quotes s as a Go string literal, preferring a raw literal so that
// regular expressions stay readable.
func goString(s string) string {
	if s == "" {
		return `""`
	}
	if !strings.ContainsAny(s, "`\r") {
		return "`" + s + "`"
	}
	return strconv.Quote(s)
}
