package gen

import (
	"fmt"
	"go/token"

	"github.com/dekarrin/remora/scan"
)

// DefaultWhitespace is the whitespace pattern generated parsers skip when no
// other is configured.
const DefaultWhitespace = `\s*`

// Options configures one generation run. The zero value is not valid; start
// from Defaults.
type Options struct {
	// Package is the Go package name of the generated file.
	Package string

	// Backtrack selects backtracking emission. When false, alternatives and
	// repetitions are decided by FIRST-set lookahead.
	Backtrack bool

	// Entry is the rule the generated Parse starts from. Empty means the
	// first declared rule.
	Entry string

	// Whitespace is the pattern skipped before patterns and around rule
	// invocations. Empty disables skipping.
	Whitespace string

	// FuncPrefix and FuncSuffix surround the camel-cased rule name to give
	// the name of each rule routine.
	FuncPrefix string
	FuncSuffix string

	// RulePrefix and RuleSuffix are Go statements placed at the start and end
	// of every rule routine.
	RulePrefix string
	RuleSuffix string

	// CodePrefix and CodeSuffix are placed before and after every semantic
	// action fragment.
	CodePrefix string
	CodeSuffix string

	// Template is the text/template source of the generated file. Empty uses
	// the built-in template.
	Template string
}

// Defaults returns the default options.
func Defaults() Options {
	return Options{
		Package:    "parser",
		Whitespace: DefaultWhitespace,
		FuncPrefix: "rule",
	}
}

// Validate returns an error if o cannot be used to generate a parser. The
// entry rule is checked against the grammar at generation time instead.
func (o Options) Validate() error {
	if !token.IsIdentifier(o.Package) {
		return fmt.Errorf("package: %q is not a valid Go package name", o.Package)
	}
	if o.FuncPrefix != "" && !token.IsIdentifier(o.FuncPrefix) {
		return fmt.Errorf("func prefix: %q is not a valid Go identifier", o.FuncPrefix)
	}
	if o.FuncSuffix != "" && !token.IsIdentifier("x"+o.FuncSuffix) {
		return fmt.Errorf("func suffix: %q cannot end a Go identifier", o.FuncSuffix)
	}
	if o.Whitespace != "" {
		if _, err := scan.Compile(o.Whitespace, ""); err != nil {
			return fmt.Errorf("whitespace: %w", err)
		}
	}
	return nil
}
