// Package remora generates recursive-descent parsers from grammar source. A
// grammar is loaded into a Spec, which can then generate Go source for a
// parser or parse input directly without generating anything.
//
// Grammar source can be given as-is or in a markdown file, in which case only
// the fenced code blocks labelled "remora" are read.
package remora

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dekarrin/remora/internal/eval"
	"github.com/dekarrin/remora/internal/gen"
	"github.com/dekarrin/remora/internal/grammar"
	"github.com/dekarrin/remora/internal/logging"
	"github.com/dekarrin/remora/internal/meta"
	"github.com/dekarrin/remora/scan"
)

// Options configures parser generation. Start from DefaultOptions.
type Options = gen.Options

// ParseOptions configures parsing input directly with a Spec.
type ParseOptions = eval.Options

// DefaultOptions returns the default generation options.
func DefaultOptions() Options {
	return gen.Defaults()
}

// SourceError is a syntax error in grammar source.
type SourceError struct {
	// File is the file the source was read from, if any.
	File string

	// Source is the grammar source that was parsed. For a markdown file this
	// is the extracted code, which is what Failure positions refer to.
	Source string

	Failure *scan.Failure
}

func (e *SourceError) Error() string {
	if e.File != "" {
		return e.File + ": " + e.Failure.Error()
	}
	return e.Failure.Error()
}

// FullMessage renders the error with the offending source line.
func (e *SourceError) FullMessage() string {
	msg := e.Failure.FullMessage(e.Source)
	if e.File != "" {
		msg = e.File + ": " + msg
	}
	return msg
}

func (e *SourceError) Unwrap() error {
	return e.Failure
}

// Spec is a loaded and analyzed grammar.
type Spec struct {
	Grammar grammar.Grammar
	First   grammar.FirstTable

	// Log receives debug output of generation. Nil logs nothing.
	Log logging.Logger
}

// LoadGrammar reads grammar source, validates it and computes its FIRST sets.
// A syntax error is returned as a *SourceError.
func LoadGrammar(src string) (*Spec, error) {
	return loadGrammar(src, "")
}

// LoadGrammarFile is like LoadGrammar but reads the source from the file at
// path. Files ending in ".md" are read as markdown.
func LoadGrammarFile(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading grammar file: %w", err)
	}

	src := string(data)
	if strings.EqualFold(filepath.Ext(path), ".md") {
		src = meta.ExtractMarkdown(data)
		if strings.TrimSpace(src) == "" {
			return nil, fmt.Errorf("%s: no %q code blocks in markdown file", path, meta.FenceLabel)
		}
	}

	return loadGrammar(src, path)
}

func loadGrammar(src, file string) (*Spec, error) {
	g, err := meta.Parse(src)
	if err != nil {
		if f, ok := err.(*scan.Failure); ok {
			return nil, &SourceError{File: file, Source: src, Failure: f}
		}
		return nil, err
	}

	if err := g.Validate(); err != nil {
		if file != "" {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		return nil, err
	}

	first, err := grammar.ComputeFirst(g)
	if err != nil {
		return nil, err
	}

	if err := grammar.CheckDescent(g, first); err != nil {
		if file != "" {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		return nil, err
	}

	return &Spec{Grammar: g, First: first}, nil
}

// Generate returns the Go source of a parser for the grammar.
func (s *Spec) Generate(opts Options) ([]byte, error) {
	gn := gen.Generator{Options: opts, Log: s.Log}
	return gn.Generate(s.Grammar, s.First)
}

// Interpreter returns an interpreter that parses with the grammar directly.
func (s *Spec) Interpreter(opts ParseOptions) (*eval.Interpreter, error) {
	return eval.New(s.Grammar, s.First, opts)
}

// Parse parses input from the entry rule of opts and returns the result of
// the rule. A structural failure is returned as a *scan.Failure.
func (s *Spec) Parse(input string, opts ParseOptions) (interface{}, error) {
	in, err := s.Interpreter(opts)
	if err != nil {
		return nil, err
	}
	_, result, err := in.Parse(input, "", false)
	return result, err
}

// FirstTable renders the FIRST set of every rule as a text table no wider
// than width.
func (s *Spec) FirstTable(width int) string {
	return s.First.Table(s.Grammar, width)
}
