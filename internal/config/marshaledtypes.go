package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dekarrin/remora/internal/gen"
)

// topLevelOptions is the layout of an option file. Keys that are absent
// decode to nil and leave the option as it was.
type topLevelOptions struct {
	Format  string `toml:"format"`
	Type    string `toml:"type"`
	Extends string `toml:"extends,omitempty"`

	Backtrack    *bool   `toml:"backtrack"`
	Entry        *string `toml:"entry"`
	Package      *string `toml:"package"`
	Whitespace   *string `toml:"whitespace"`
	FuncPrefix   *string `toml:"func_prefix"`
	FuncSuffix   *string `toml:"func_suffix"`
	RulePrefix   *string `toml:"rule_prefix"`
	RuleSuffix   *string `toml:"rule_suffix"`
	CodePrefix   *string `toml:"code_prefix"`
	CodeSuffix   *string `toml:"code_suffix"`
	Template     *string `toml:"template,omitempty"`
	TemplateFile *string `toml:"template_file,omitempty"`
}

// apply sets every option given in tlo. A template file is read relative to
// dir.
func (tlo topLevelOptions) apply(opts *gen.Options, dir string) error {
	setBool(&opts.Backtrack, tlo.Backtrack)
	setString(&opts.Entry, tlo.Entry)
	setString(&opts.Package, tlo.Package)
	setString(&opts.Whitespace, tlo.Whitespace)
	setString(&opts.FuncPrefix, tlo.FuncPrefix)
	setString(&opts.FuncSuffix, tlo.FuncSuffix)
	setString(&opts.RulePrefix, tlo.RulePrefix)
	setString(&opts.RuleSuffix, tlo.RuleSuffix)
	setString(&opts.CodePrefix, tlo.CodePrefix)
	setString(&opts.CodeSuffix, tlo.CodeSuffix)

	if tlo.Template != nil && tlo.TemplateFile != nil {
		return fmt.Errorf("template and template_file cannot both be set")
	}
	setString(&opts.Template, tlo.Template)
	if tlo.TemplateFile != nil {
		path := *tlo.TemplateFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("template_file: %w", err)
		}
		opts.Template = string(data)
	}

	return nil
}

func fromOptions(opts gen.Options) topLevelOptions {
	tlo := topLevelOptions{
		Format:     "REMORA",
		Type:       "OPTIONS",
		Backtrack:  &opts.Backtrack,
		Entry:      &opts.Entry,
		Package:    &opts.Package,
		Whitespace: &opts.Whitespace,
		FuncPrefix: &opts.FuncPrefix,
		FuncSuffix: &opts.FuncSuffix,
		RulePrefix: &opts.RulePrefix,
		RuleSuffix: &opts.RuleSuffix,
		CodePrefix: &opts.CodePrefix,
		CodeSuffix: &opts.CodeSuffix,
	}
	if opts.Template != "" {
		tlo.Template = &opts.Template
	}
	return tlo
}

func setString(dest *string, v *string) {
	if v != nil {
		*dest = *v
	}
}

func setBool(dest *bool, v *bool) {
	if v != nil {
		*dest = *v
	}
}
