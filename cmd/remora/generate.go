package main

import (
	"os"

	"github.com/dekarrin/remora"
	"github.com/dekarrin/remora/internal/config"
	"github.com/spf13/cobra"
)

var (
	flagOptionsFile string
	flagOutput      string
	flagGenOpts     = remora.DefaultOptions()
	flagTemplate    string
)

var generateCmd = &cobra.Command{
	Use:   "generate GRAMMAR",
	Short: "Generate Go source of a parser for a grammar",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := generateOptions(cmd)
		if err != nil {
			return err
		}

		spec, err := loadSpec(args[0])
		if err != nil {
			return err
		}

		src, err := spec.Generate(opts)
		if err != nil {
			return err
		}

		if flagOutput == "" || flagOutput == "-" {
			_, err = cmd.OutOrStdout().Write(src)
			return err
		}
		if err := os.WriteFile(flagOutput, src, 0644); err != nil {
			return err
		}
		log.Info("wrote parser", "file", flagOutput, "bytes", len(src))
		return nil
	},
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&flagOptionsFile, "options", "", "TOML options file to start from")
	f.StringVarP(&flagOutput, "output", "o", "", "file to write the parser to instead of stdout")
	f.StringVarP(&flagGenOpts.Package, "package", "p", flagGenOpts.Package, "package of the generated file")
	f.BoolVarP(&flagGenOpts.Backtrack, "backtrack", "b", flagGenOpts.Backtrack, "generate a backtracking parser instead of a predictive one")
	f.StringVarP(&flagGenOpts.Entry, "entry", "e", flagGenOpts.Entry, "rule the parser starts from (default the first rule)")
	f.StringVar(&flagGenOpts.Whitespace, "whitespace", flagGenOpts.Whitespace, "pattern skipped between tokens; empty disables skipping")
	f.StringVar(&flagGenOpts.FuncPrefix, "func-prefix", flagGenOpts.FuncPrefix, "prefix of rule routine names")
	f.StringVar(&flagGenOpts.FuncSuffix, "func-suffix", flagGenOpts.FuncSuffix, "suffix of rule routine names")
	f.StringVar(&flagGenOpts.RulePrefix, "rule-prefix", flagGenOpts.RulePrefix, "code placed at the start of every rule routine")
	f.StringVar(&flagGenOpts.RuleSuffix, "rule-suffix", flagGenOpts.RuleSuffix, "code placed at the end of every rule routine")
	f.StringVar(&flagGenOpts.CodePrefix, "code-prefix", flagGenOpts.CodePrefix, "code placed before every semantic action")
	f.StringVar(&flagGenOpts.CodeSuffix, "code-suffix", flagGenOpts.CodeSuffix, "code placed after every semantic action")
	f.StringVar(&flagTemplate, "template", "", "file holding the template of the generated file")
}

// generateOptions gives the options file, if any, overridden by every flag
// that was set.
func generateOptions(cmd *cobra.Command) (remora.Options, error) {
	opts := remora.DefaultOptions()
	if flagOptionsFile != "" {
		var err error
		opts, err = config.LoadOptionsFile(flagOptionsFile)
		if err != nil {
			return opts, err
		}
		log.Debug("loaded options file", "file", flagOptionsFile)
	}

	f := cmd.Flags()
	set := func(name string, dest *string, val string) {
		if f.Changed(name) {
			*dest = val
		}
	}
	set("package", &opts.Package, flagGenOpts.Package)
	set("entry", &opts.Entry, flagGenOpts.Entry)
	set("whitespace", &opts.Whitespace, flagGenOpts.Whitespace)
	set("func-prefix", &opts.FuncPrefix, flagGenOpts.FuncPrefix)
	set("func-suffix", &opts.FuncSuffix, flagGenOpts.FuncSuffix)
	set("rule-prefix", &opts.RulePrefix, flagGenOpts.RulePrefix)
	set("rule-suffix", &opts.RuleSuffix, flagGenOpts.RuleSuffix)
	set("code-prefix", &opts.CodePrefix, flagGenOpts.CodePrefix)
	set("code-suffix", &opts.CodeSuffix, flagGenOpts.CodeSuffix)
	if f.Changed("backtrack") {
		opts.Backtrack = flagGenOpts.Backtrack
	}
	if flagTemplate != "" {
		data, err := os.ReadFile(flagTemplate)
		if err != nil {
			return opts, err
		}
		opts.Template = string(data)
	}

	return opts, nil
}
