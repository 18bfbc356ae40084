package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dekarrin/remora"
	"github.com/dekarrin/remora/scan"
	"github.com/spf13/cobra"
)

var (
	flagParse        remora.ParseOptions
	flagParseRule    string
	flagParseDebug   bool
	flagTryDirect    bool
	flagTryHistory   string
	flagTryBacktrack bool
)

var parseCmd = &cobra.Command{
	Use:   "parse GRAMMAR [INPUT]",
	Short: "Parse input with a grammar without generating a parser",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := loadSpec(args[0])
		if err != nil {
			return err
		}

		var data []byte
		if len(args) < 2 || args[1] == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(args[1])
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		input := string(data)

		interp, err := spec.Interpreter(flagParse)
		if err != nil {
			return err
		}
		p, result, err := interp.Parse(input, flagParseRule, flagParseDebug)

		out := cmd.OutOrStdout()
		if flagParseDebug {
			fmt.Fprintln(out, p.Trace())
		}

		var f *scan.Failure
		if errors.As(err, &f) {
			fmt.Fprintln(out, f.FullMessage(input))
			returnCode = ExitRejected
			return errors.New("input rejected")
		}
		if err != nil {
			return err
		}

		fmt.Fprintln(out, remora.FormatValue(result))
		return nil
	},
}

var tryCmd = &cobra.Command{
	Use:   "try GRAMMAR",
	Short: "Start an interactive session that parses each line typed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := loadSpec(args[0])
		if err != nil {
			return err
		}

		sess, err := remora.NewSession(spec, os.Stdin, os.Stdout, remora.SessionOptions{
			Parse: remora.ParseOptions{
				Backtrack:  flagTryBacktrack,
				Entry:      flagParse.Entry,
				Whitespace: flagParse.Whitespace,
			},
			ForceDirect: flagTryDirect,
			HistoryFile: flagTryHistory,
		})
		if err != nil {
			return err
		}
		defer sess.Close()

		return sess.RunUntilQuit()
	},
}

func init() {
	pf := parseCmd.Flags()
	pf.BoolVarP(&flagParse.Backtrack, "backtrack", "b", false, "decide alternatives by backtracking instead of lookahead")
	pf.StringVarP(&flagParse.Entry, "entry", "e", "", "default rule to parse from (default the first rule)")
	pf.StringVarP(&flagParseRule, "rule", "r", "", "rule to parse from, overriding --entry")
	pf.StringVar(&flagParse.Whitespace, "whitespace", `\s*`, "pattern skipped between tokens; empty disables skipping")
	pf.BoolVar(&flagParse.Partial, "partial", false, "accept input that has text left after the rule matches")
	pf.BoolVarP(&flagParseDebug, "debug", "d", false, "show the trace of rule invocations")

	tf := tryCmd.Flags()
	tf.BoolVarP(&flagTryBacktrack, "backtrack", "b", false, "start in backtracking mode")
	tf.StringVarP(&flagParse.Entry, "entry", "e", "", "rule to parse from (default the first rule)")
	tf.StringVar(&flagParse.Whitespace, "whitespace", `\s*`, "pattern skipped between tokens; empty disables skipping")
	tf.BoolVarP(&flagTryDirect, "direct", "d", false, "read directly from stdin instead of through GNU readline")
	tf.StringVar(&flagTryHistory, "history", "", "file to keep the line history of the session in")
}
