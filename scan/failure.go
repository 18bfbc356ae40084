package scan

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dekarrin/remora/internal/util"
	"github.com/dekarrin/rosed"
)

// reasonWidth is the width possible reasons are wrapped to in FullMessage.
const reasonWidth = 76

var (
	// ErrZeroWidth is returned when the body of a repetition succeeds without
	// consuming any input. It is not a structural failure; no enclosing
	// alternative or repetition recovers from it.
	ErrZeroWidth = errors.New("repetition matched empty input")

	// ErrUnknownRule is returned when a rule is invoked that the parser has no
	// routine for.
	ErrUnknownRule = errors.New("unknown rule")
)

// Failure is a structural parse failure: an expected pattern or rule did not
// match at a position. Enclosing alternations and repetitions recover from
// it.
type Failure struct {
	// Row and Col are the 0-based line and column of the failure.
	Row int
	Col int

	// Pos is the 0-based rune offset of the failure.
	Pos int

	// Pattern is the pattern that failed to match, if the failure was a
	// pattern mismatch.
	Pattern *Pattern

	// Chain is the names of the active rules when the failure happened,
	// outermost first.
	Chain []string

	// Reason describes failures that are not a single pattern mismatch.
	Reason string

	// Siblings are failures of other alternatives at the same decision
	// point.
	Siblings []*Failure
}

// IsFailure returns whether err is or wraps a structural *Failure.
func IsFailure(err error) bool {
	var f *Failure
	return errors.As(err, &f)
}

// Rule returns the innermost rule active at the failure.
func (f *Failure) Rule() string {
	if len(f.Chain) == 0 {
		return ""
	}
	return f.Chain[len(f.Chain)-1]
}

// Expected gives the short description of the failure, without position.
func (f *Failure) Expected() string {
	if f.Reason != "" {
		return f.Reason
	}
	if f.Pattern != nil {
		return "expected " + f.Pattern.String()
	}
	return "no match"
}

func (f *Failure) Error() string {
	msg := fmt.Sprintf("syntax error: around line %d, char %d", f.Row+1, f.Col+1)
	if r := f.Rule(); r != "" {
		msg += " in " + r
	}
	return msg + ": " + f.Expected()
}

// Reasons returns the distinct descriptions of the sibling failures, skipping
// any that repeat the failure's own description. Order of first occurrence is
// kept.
func (f *Failure) Reasons() []string {
	descs := []string{f.Expected()}

	var collect func(sibs []*Failure)
	collect = func(sibs []*Failure) {
		for _, s := range sibs {
			if s == nil {
				continue
			}
			descs = append(descs, s.Expected())
			collect(s.Siblings)
		}
	}
	collect(f.Siblings)

	reasons := util.Dedupe(descs, func(s string) string { return s })[1:]
	if len(reasons) == 0 {
		return nil
	}
	return reasons
}

// SourceLineWithCursor returns the line of input the failure is on and
// directly under it a cursor pointing at the failing column.
func (f *Failure) SourceLineWithCursor(input string) string {
	lines := strings.Split(input, "\n")
	if f.Row >= len(lines) {
		return ""
	}
	line := strings.TrimRight(lines[f.Row], "\r")

	var cursor strings.Builder
	col := 0
	for _, ch := range line {
		if col >= f.Col {
			break
		}
		// keep tabs so the cursor lines up in a terminal
		if ch == '\t' {
			cursor.WriteRune('\t')
		} else {
			cursor.WriteRune(' ')
		}
		col++
	}
	for ; col < f.Col; col++ {
		cursor.WriteRune(' ')
	}
	cursor.WriteRune('^')

	return line + "\n" + cursor.String()
}

// FullMessage renders the failure against the input that was parsed: the
// message, the rule chain, the offending line with a cursor and the possible
// reasons drawn from sibling failures.
func (f *Failure) FullMessage(input string) string {
	var sb strings.Builder

	sb.WriteString(f.Error())
	if len(f.Chain) > 1 {
		sb.WriteString("\n  rule chain: ")
		sb.WriteString(strings.Join(f.Chain, " > "))
	}
	if src := f.SourceLineWithCursor(input); src != "" {
		sb.WriteString("\n\n")
		sb.WriteString(src)
	}
	if reasons := f.Reasons(); len(reasons) > 0 {
		sb.WriteString("\n\npossible reasons:")
		for _, r := range reasons {
			wrapped := rosed.Edit(r).Wrap(reasonWidth).String()
			sb.WriteString("\n  - ")
			sb.WriteString(strings.ReplaceAll(wrapped, "\n", "\n    "))
		}
	}

	return sb.String()
}

// sameSpot returns whether the failures describe the same thing at the same
// place.
func (f *Failure) sameSpot(o *Failure) bool {
	return f.Pos == o.Pos && f.Expected() == o.Expected()
}
