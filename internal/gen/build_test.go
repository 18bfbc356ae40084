package gen

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dekarrin/remora/internal/grammar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildGrammar is
//
//	rule_a : 'x' | 'y'
//	rule_b : 'a'+
//	rule_c : 'a'*
func buildGrammar() grammar.Grammar {
	return grammar.Grammar{Rules: []grammar.Rule{
		{Name: "rule_a", Body: &grammar.Alternation{Alts: []grammar.Node{pat("x"), pat("y")}}},
		{Name: "rule_b", Body: &grammar.OneOrMore{Body: pat("a")}},
		{Name: "rule_c", Body: &grammar.ZeroOrMore{Body: pat("a")}},
	}}
}

const buildDriver = `package main

import (
	"errors"
	"fmt"

	"github.com/dekarrin/remora/scan"

	"MODULE/DIR/backtracking"
	"MODULE/DIR/predictive"
)

type parseFunc func(input, rule string, debug bool) (*scan.Parser, interface{}, error)

func main() {
	modes := []struct {
		name  string
		parse parseFunc
	}{
		{"predictive", predictive.Parse},
		{"backtracking", backtracking.Parse},
	}
	inputs := []struct{ rule, input string }{
		{"rule_a", "x"},
		{"rule_a", "y"},
		{"rule_a", "z"},
		{"rule_b", "a"},
		{"rule_b", "aaa"},
		{"rule_b", ""},
		{"rule_c", ""},
		{"rule_c", "aaa"},
	}

	for _, m := range modes {
		for _, in := range inputs {
			_, _, err := m.parse(in.input, in.rule, false)
			if err == nil {
				fmt.Printf("%s %s %q accept\n", m.name, in.rule, in.input)
				continue
			}
			var f *scan.Failure
			if !errors.As(err, &f) {
				fmt.Printf("%s %s %q error %v\n", m.name, in.rule, in.input, err)
				continue
			}
			fmt.Printf("%s %s %q reject %d:%d %s %v\n", m.name, in.rule, in.input, f.Row, f.Col, f.Expected(), f.Reasons())
		}
	}
}
`

// moduleRoot walks up from the working directory to the directory holding
// go.mod.
func moduleRoot(t *testing.T) string {
	dir, err := os.Getwd()
	require.NoError(t, err)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("go.mod not found above working directory")
		}
		dir = parent
	}
}

// Generated parsers are written into a throwaway package of this module and
// run by a small driver, so they are checked by the compiler and against the
// runtime they are generated for.
func Test_Generate_CompilesAndRuns(t *testing.T) {
	if testing.Short() {
		t.Skip("builds generated code")
	}
	goBin, err := exec.LookPath("go")
	if err != nil {
		t.Skip("go tool not available")
	}

	root := moduleRoot(t)
	dir, err := os.MkdirTemp(root, "gentest")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	g := buildGrammar()
	first, err := grammar.ComputeFirst(g)
	require.NoError(t, err)

	for _, mode := range []struct {
		pkg       string
		backtrack bool
	}{
		{pkg: "predictive"},
		{pkg: "backtracking", backtrack: true},
	} {
		opts := Defaults()
		opts.Package = mode.pkg
		opts.Backtrack = mode.backtrack
		src, err := Generate(g, first, opts)
		require.NoError(t, err)

		pkgDir := filepath.Join(dir, mode.pkg)
		require.NoError(t, os.Mkdir(pkgDir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(pkgDir, "parser.go"), src, 0o644))
	}

	driver := strings.NewReplacer("MODULE", "github.com/dekarrin/remora", "DIR", filepath.Base(dir)).Replace(buildDriver)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte(driver), 0o644))

	cmd := exec.Command(goBin, "run", "./"+filepath.Base(dir))
	cmd.Dir = root
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "go run failed:\n%s", out)

	var expect []string
	for _, mode := range []string{"predictive", "backtracking"} {
		expect = append(expect,
			mode+` rule_a "x" accept`,
			mode+` rule_a "y" accept`,
			mode+` rule_a "z" reject 0:0 expected /x/ [expected /y/]`,
			mode+` rule_b "a" accept`,
			mode+` rule_b "aaa" accept`,
			mode+` rule_b "" reject 0:0 expected /a/ []`,
			mode+` rule_c "" accept`,
			mode+` rule_c "aaa" accept`,
		)
	}

	assert := assert.New(t)
	assert.Equal(expect, strings.Split(strings.TrimSpace(string(out)), "\n"))
}
