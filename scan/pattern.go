package scan

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
)

// Pattern is a compiled lexical pattern. The empty pattern matches zero-width
// input at any position.
type Pattern struct {
	Text  string
	Flags string

	re *regexp2.Regexp
}

var flagOptions = map[string]regexp2.RegexOptions{
	"i": regexp2.IgnoreCase, "ignorecase": regexp2.IgnoreCase,
	"m": regexp2.Multiline, "multiline": regexp2.Multiline,
	"s": regexp2.Singleline, "dotall": regexp2.Singleline, "singleline": regexp2.Singleline,
	"x": regexp2.IgnorePatternWhitespace, "verbose": regexp2.IgnorePatternWhitespace,
	"u": regexp2.Unicode, "unicode": regexp2.Unicode,
}

// ParseFlags converts a flags string to regexp2 options. Flags are runs of
// the letters i, m, s, x and u, or their long names separated by '|' or ','.
// Case is ignored.
func ParseFlags(flags string) (regexp2.RegexOptions, error) {
	opts := regexp2.None

	fields := strings.FieldsFunc(flags, func(r rune) bool {
		return r == '|' || r == ',' || r == ' ' || r == '\t'
	})
	for _, f := range fields {
		f = strings.TrimPrefix(strings.ToLower(f), "re.")
		if o, ok := flagOptions[f]; ok {
			opts |= o
			continue
		}
		for i := 0; i < len(f); i++ {
			o, ok := flagOptions[f[i:i+1]]
			if !ok {
				return regexp2.None, fmt.Errorf("unknown pattern flag %q", f)
			}
			opts |= o
		}
	}

	return opts, nil
}

// Compile compiles a pattern. The pattern only ever matches starting exactly
// at the scan position.
func Compile(text, flags string) (*Pattern, error) {
	opts, err := ParseFlags(flags)
	if err != nil {
		return nil, err
	}

	p := &Pattern{Text: text, Flags: flags}
	if text == "" {
		return p, nil
	}

	expr := `\G(?:` + text
	if opts&regexp2.IgnorePatternWhitespace != 0 {
		// a trailing comment would otherwise swallow the closing paren
		expr += "\n"
	}
	expr += ")"

	p.re, err = regexp2.Compile(expr, opts)
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", text, err)
	}
	return p, nil
}

// MustCompile is like Compile but panics if the pattern cannot be compiled.
// It is intended for pattern tables of generated parsers.
func MustCompile(text, flags string) *Pattern {
	p, err := Compile(text, flags)
	if err != nil {
		panic(err.Error())
	}
	return p
}

// Empty returns whether p is the zero-width empty pattern.
func (p *Pattern) Empty() bool {
	return p.Text == ""
}

// matchAt returns the number of runes p matches at position pos of input, or
// -1 if it does not match there.
func (p *Pattern) matchAt(input []rune, pos int) (int, error) {
	if p.re == nil {
		return 0, nil
	}
	m, err := p.re.FindRunesMatchStartingAt(input, pos)
	if err != nil {
		return -1, err
	}
	if m == nil || m.Index != pos {
		return -1, nil
	}
	return m.Length, nil
}

// String gives the pattern in the form used by diagnostics.
func (p *Pattern) String() string {
	if p.Empty() {
		return "''"
	}
	s := "/" + p.Text + "/"
	if p.Flags != "" {
		s += p.Flags
	}
	return s
}
