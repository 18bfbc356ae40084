/*
Remora generates recursive-descent parsers in Go from grammar source.

A grammar file holds rules written as name : expression, where expressions are
built from quoted regular-expression patterns, rule names, backquoted
semantic actions, grouping, alternation with |, and the ?, * and + suffixes.
Files ending in .md are read as markdown and only the fenced code blocks
labelled "remora" are used.

Usage:

	remora [command] [flags]

The commands are:

	generate GRAMMAR
		Write Go source of a parser for the grammar to stdout or to the file
		given with -o. Options may come from a TOML options file given with
		--options and from flags, flags taking precedence.

	first GRAMMAR
		Show the FIRST set of every rule.

	check GRAMMAR
		Read and analyze the grammar and report any problem with it.

	parse GRAMMAR [INPUT]
		Parse INPUT (a file, or stdin if absent or "-") with the grammar
		directly and show the result or the syntax error.

	try GRAMMAR
		Start an interactive session that parses each line typed.

	options
		Print the default generation options as an options file.

	version
		Give the current version of remora and then exit.

The global flags are:

	--log-level LEVEL
		Log messages of LEVEL (debug, info, warn or error) and above to
		stderr. Defaults to warn.

	--log-format FORMAT
		Write log messages as "plain" text or "json".
*/
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dekarrin/remora"
	"github.com/dekarrin/remora/internal/logging"
	"github.com/dekarrin/remora/internal/rmerrors"
	"github.com/dekarrin/remora/scan"
	"github.com/spf13/cobra"
)

const (
	// ExitSuccess indicates a successful program execution.
	ExitSuccess = iota

	// ExitGrammarError indicates the grammar could not be read or used.
	ExitGrammarError

	// ExitRejected indicates that parse was given input the grammar does
	// not accept.
	ExitRejected
)

var (
	flagLogLevel  string
	flagLogFormat string

	log = logging.NewNop()

	// set by a command when it fails in a way that has its own exit code.
	returnCode = ExitGrammarError
)

var rootCmd = &cobra.Command{
	Use:   "remora",
	Short: "Generate recursive-descent parsers from grammar source",
	Long: `Remora reads a grammar of regular-expression patterns, rule references and
semantic actions and generates a Go parser for it, either deciding between
alternatives by FIRST-set lookahead or by backtracking. Grammars can also be
tried out directly without generating anything.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(cmd.ErrOrStderr(), flagLogFormat, flagLogLevel)
		if err != nil {
			return err
		}
		log = l
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", logging.LevelWarn, "minimum level of log messages written to stderr")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", logging.FormatPlain, "format of log messages, plain or json")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(firstCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(tryCmd)
	rootCmd.AddCommand(optionsCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", errorMessage(err))
		os.Exit(returnCode)
	}
}

// errorMessage gives the text to show the user for err.
func errorMessage(err error) string {
	var srcErr *remora.SourceError
	if errors.As(err, &srcErr) {
		return srcErr.FullMessage()
	}
	if scan.IsFailure(err) {
		return err.Error()
	}
	return rmerrors.Human(err)
}

// loadSpec loads the grammar file at path and attaches the logger to it.
func loadSpec(path string) (*remora.Spec, error) {
	spec, err := remora.LoadGrammarFile(path)
	if err != nil {
		return nil, err
	}
	spec.Log = log.With("grammar", path)
	log.Debug("loaded grammar", "file", path, "rules", len(spec.Grammar.Rules))
	return spec, nil
}
