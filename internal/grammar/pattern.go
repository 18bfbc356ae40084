package grammar

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// PatternInfo identifies one lexical pattern of a grammar: the text of a
// regular expression plus the flags it is compiled with. It is comparable and
// is used directly as a map key.
type PatternInfo struct {
	Text  string
	Flags string
}

// Epsilon is the canonical empty pattern. It matches zero-width input
// everywhere and marks nullability in FIRST sets.
var Epsilon = PatternInfo{}

// flagNames maps every accepted spelling of a flag to its canonical letter.
var flagNames = map[string]byte{
	"i": 'i', "ignorecase": 'i',
	"m": 'm', "multiline": 'm',
	"s": 's', "dotall": 's', "singleline": 's',
	"x": 'x', "verbose": 'x',
	"u": 'u', "unicode": 'u',
}

// CanonicalFlags converts a flags specification into its canonical form: the
// distinct flag letters in sorted order. Flags may be given as runs of letters
// ("im") or as names separated by '|' or ',' ("IGNORECASE|MULTILINE"), in any
// case.
func CanonicalFlags(flags string) (string, error) {
	seen := map[byte]bool{}

	fields := strings.FieldsFunc(flags, func(r rune) bool {
		return r == '|' || r == ',' || r == ' ' || r == '\t'
	})
	for _, f := range fields {
		f = strings.ToLower(f)
		f = strings.TrimPrefix(f, "re.")

		if letter, ok := flagNames[f]; ok {
			seen[letter] = true
			continue
		}

		// a run of single letters
		for i := 0; i < len(f); i++ {
			letter, ok := flagNames[f[i:i+1]]
			if !ok {
				return "", fmt.Errorf("unknown pattern flag %q", f)
			}
			seen[letter] = true
		}
	}

	letters := make([]byte, 0, len(seen))
	for l := range seen {
		letters = append(letters, l)
	}
	sort.Slice(letters, func(i, j int) bool { return letters[i] < letters[j] })
	return string(letters), nil
}

// NewPatternInfo creates a PatternInfo. Any empty text, regardless of flags,
// normalizes to Epsilon. Flags must already be canonical; use CanonicalFlags
// on user input first.
func NewPatternInfo(text, flags string) PatternInfo {
	if text == "" {
		return Epsilon
	}
	return PatternInfo{Text: text, Flags: flags}
}

// IsEpsilon returns whether pi is the empty pattern.
func (pi PatternInfo) IsEpsilon() bool {
	return pi.Text == ""
}

// Less orders PatternInfos by length of text, then by text, then by flags.
// This is the order used to number patterns in generated parsers.
func (pi PatternInfo) Less(o PatternInfo) bool {
	if len(pi.Text) != len(o.Text) {
		return len(pi.Text) < len(o.Text)
	}
	if pi.Text != o.Text {
		return pi.Text < o.Text
	}
	return pi.Flags < o.Flags
}

// String gives the pattern as it would be written in grammar source.
func (pi PatternInfo) String() string {
	if pi.IsEpsilon() {
		return "''"
	}
	s := quoteLiteral(pi.Text)
	if pi.Flags != "" {
		s += "@flags=" + strconv.Quote(pi.Flags)
	}
	return s
}

// quoteLiteral writes text as a raw grammar literal when it can be, so that
// regex escapes survive a round trip unchanged.
func quoteLiteral(text string) string {
	switch {
	case !strings.ContainsAny(text, "'\n\r") && !strings.HasSuffix(text, `\`):
		return "r'" + text + "'"
	case !strings.ContainsAny(text, "\"\n\r") && !strings.HasSuffix(text, `\`):
		return `r"` + text + `"`
	case !strings.Contains(text, "'''") && !strings.HasSuffix(text, `'`) && !strings.HasSuffix(text, `\`):
		return "r'''" + text + "'''"
	}

	var sb strings.Builder
	sb.WriteRune('\'')
	for _, ch := range text {
		switch ch {
		case '\'':
			sb.WriteString(`\'`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\\':
			sb.WriteString(`\\`)
		default:
			sb.WriteRune(ch)
		}
	}
	sb.WriteRune('\'')
	return sb.String()
}

// SortPatterns returns the given PatternInfos sorted by Less.
func SortPatterns(pats []PatternInfo) []PatternInfo {
	sorted := make([]PatternInfo, len(pats))
	copy(sorted, pats)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Less(sorted[j])
	})
	return sorted
}
