package scan

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dekarrin/rosed"
)

const (
	snapshotLen = 24
	traceWidth  = 100
)

// DebugRecord is the trace of one rule invocation.
type DebugRecord struct {
	Rule string

	// Rest is the start of the remaining input when the rule was entered.
	Rest string

	Row     int
	Col     int
	Depth   int
	Success bool
}

func (r DebugRecord) status() string {
	if r.Success {
		return "OK"
	}
	return "FAIL"
}

// String gives the record as a single line, with the rule indented by depth.
func (r DebugRecord) String() string {
	return fmt.Sprintf("%-4s %s%s @%d:%d %q", r.status(), strings.Repeat("  ", r.Depth-1), r.Rule, r.Row+1, r.Col+1, r.Rest)
}

// Records returns the trace of the last run, in invocation order. It is empty
// unless the Parser was created WithDebug(true).
func (p *Parser) Records() []DebugRecord {
	return p.records
}

// TraceLines gives the String of every record of the last run.
func (p *Parser) TraceLines() []string {
	lines := make([]string, len(p.records))
	for i := range p.records {
		lines[i] = p.records[i].String()
	}
	return lines
}

// Trace renders the trace of the last run as a table with one row per rule
// invocation. Positions are 1-based. It is empty if nothing was recorded.
func (p *Parser) Trace() string {
	if len(p.records) == 0 {
		return ""
	}

	data := [][]string{{"Status", "Depth", "Rule", "At", "Input"}}
	for _, r := range p.records {
		data = append(data, []string{
			r.status(),
			strconv.Itoa(r.Depth),
			r.Rule,
			fmt.Sprintf("%d:%d", r.Row+1, r.Col+1),
			strconv.Quote(r.Rest),
		})
	}

	return rosed.Edit("").
		InsertTableOpts(0, data, traceWidth, rosed.Options{
			TableHeaders:             true,
			NoTrailingLineSeparators: true,
		}).
		String()
}

func snapshot(rest []rune) string {
	if len(rest) > snapshotLen {
		return string(rest[:snapshotLen]) + "..."
	}
	return string(rest)
}
