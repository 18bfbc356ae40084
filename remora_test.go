package remora

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dekarrin/remora/scan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sumGrammar = `
sum : num (r'\+' num)*
num : r'[0-9]+'
`

func Test_LoadGrammar(t *testing.T) {
	testCases := []struct {
		name        string
		src         string
		expectRules []string
		expectErr   bool
		expectCol   int
	}{
		{name: "sum", src: sumGrammar, expectRules: []string{"sum", "num"}},
		{name: "syntax error", src: "sum num", expectErr: true, expectCol: 4},
		{name: "undefined rule", src: "a : b", expectErr: true, expectCol: -1},
		{name: "empty", src: "", expectErr: true, expectCol: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			spec, err := LoadGrammar(tc.src)

			if tc.expectErr {
				if !assert.Error(err) {
					return
				}
				var srcErr *SourceError
				if tc.expectCol < 0 {
					assert.False(errors.As(err, &srcErr))
					return
				}
				if assert.ErrorAs(err, &srcErr) {
					assert.Equal(tc.expectCol, srcErr.Failure.Col)
					assert.Contains(srcErr.FullMessage(), "^")
				}
				return
			}
			if !assert.NoError(err) {
				return
			}
			assert.Equal(tc.expectRules, spec.Grammar.Names())
			assert.NotNil(spec.First)
		})
	}
}

func Test_LoadGrammarFile(t *testing.T) {
	dir := t.TempDir()
	md := "# Sums\n\nA sum of numbers.\n\n```remora\nsum : num (r'\\+' num)*\n```\n\nand\n\n```remora\nnum : r'[0-9]+'\n```\n\n```go\nignored : 'x'\n```\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sum.md"), []byte(md), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sum.rmr"), []byte(sumGrammar), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "none.md"), []byte("# nothing here\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.rmr"), []byte("sum : :"), 0644))

	t.Run("markdown", func(t *testing.T) {
		spec, err := LoadGrammarFile(filepath.Join(dir, "sum.md"))
		require.NoError(t, err)
		assert.Equal(t, []string{"sum", "num"}, spec.Grammar.Names())
	})

	t.Run("plain", func(t *testing.T) {
		spec, err := LoadGrammarFile(filepath.Join(dir, "sum.rmr"))
		require.NoError(t, err)
		assert.Equal(t, []string{"sum", "num"}, spec.Grammar.Names())
	})

	t.Run("markdown without blocks", func(t *testing.T) {
		_, err := LoadGrammarFile(filepath.Join(dir, "none.md"))
		assert.Error(t, err)
	})

	t.Run("syntax error names file", func(t *testing.T) {
		_, err := LoadGrammarFile(filepath.Join(dir, "bad.rmr"))
		var srcErr *SourceError
		if assert.ErrorAs(t, err, &srcErr) {
			assert.True(t, strings.HasPrefix(srcErr.Error(), filepath.Join(dir, "bad.rmr")+": syntax error"))
		}
	})

	t.Run("missing", func(t *testing.T) {
		_, err := LoadGrammarFile(filepath.Join(dir, "nope.rmr"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func Test_Spec_Generate(t *testing.T) {
	assert := assert.New(t)
	spec, err := LoadGrammar(sumGrammar)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Package = "sums"
	src, err := spec.Generate(opts)

	require.NoError(t, err)
	assert.Contains(string(src), "package sums")
	assert.Contains(string(src), "func ruleSum(p *scan.Parser, ctx *scan.Context) error {")
}

func Test_Spec_Parse(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		opts      ParseOptions
		expect    string
		expectErr bool
	}{
		{name: "sum", input: "1 + 2", opts: ParseOptions{Whitespace: `\s*`}, expect: `sum["1" "+" "2"]`},
		{name: "sum backtracking", input: "1+2", opts: ParseOptions{Backtrack: true}, expect: `sum["1" "+" "2"]`},
		{name: "entry", input: "12", opts: ParseOptions{Entry: "num"}, expect: `"12"`},
		{name: "rejected", input: "1 +", opts: ParseOptions{Whitespace: `\s*`}, expectErr: true},
	}

	spec, err := LoadGrammar(sumGrammar)
	require.NoError(t, err)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			result, err := spec.Parse(tc.input, tc.opts)

			if tc.expectErr {
				assert.True(scan.IsFailure(err))
				return
			}
			assert.NoError(err)
			assert.Equal(tc.expect, FormatValue(result))
		})
	}
}

func Test_FormatValue(t *testing.T) {
	testCases := []struct {
		name   string
		v      interface{}
		expect string
	}{
		{name: "nil", v: nil, expect: "none"},
		{name: "string", v: "a\"b", expect: `"a\"b"`},
		{name: "number", v: 3, expect: "3"},
		{name: "tree", v: &scan.Tree{Rule: "r", Children: []interface{}{"x", &scan.Tree{Rule: "s"}}}, expect: `r["x" s[]]`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, FormatValue(tc.v))
		})
	}
}
