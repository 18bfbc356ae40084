package main

import (
	"fmt"

	"github.com/dekarrin/remora"
	"github.com/dekarrin/remora/internal/config"
	"github.com/dekarrin/remora/internal/version"
	"github.com/spf13/cobra"
)

const tableWidth = 100

var firstCmd = &cobra.Command{
	Use:   "first GRAMMAR",
	Short: "Show the FIRST set of every rule of a grammar",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := loadSpec(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), spec.FirstTable(tableWidth))
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check GRAMMAR",
	Short: "Check that a grammar can be used",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := loadSpec(args[0])
		if err != nil {
			return err
		}

		// generating in both modes catches patterns that do not compile and
		// rule names that collide as Go identifiers
		for _, backtrack := range []bool{false, true} {
			opts := remora.DefaultOptions()
			opts.Backtrack = backtrack
			if _, err := spec.Generate(opts); err != nil {
				return err
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: OK (%d rules, %d patterns)\n", args[0], len(spec.Grammar.Rules), len(spec.Grammar.Patterns()))
		return nil
	},
}

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "Print the default generation options as an options file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := config.EncodeOptions(remora.DefaultOptions())
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Give the current version of remora",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.Current)
	},
}
