package scan

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	patX     = MustCompile("x", "")
	patY     = MustCompile("y", "")
	patA     = MustCompile("a", "")
	patNum   = MustCompile("[0-9]+", "")
	patPlus  = MustCompile(`\+`, "")
	patEmpty = MustCompile("", "")
	ws       = MustCompile(`\s*`, "")
)

// rules written the way the generator emits them, predictive mode

func ruleA(p *Parser, ctx *Context) error {
	switch {
	case p.Lookahead(patX):
		if err := p.Match(patX, "rule_a"); err != nil {
			return err
		}
	case p.Lookahead(patY):
		if err := p.Match(patY, "rule_a"); err != nil {
			return err
		}
	default:
		return p.Expect(patX, patY)
	}
	return nil
}

func ruleB(p *Parser, ctx *Context) error {
	if !p.Lookahead(patA) {
		return p.Expect(patA)
	}
	for p.Lookahead(patA) {
		m := p.Mark()
		if err := p.Match(patA, ""); err != nil {
			return err
		}
		if err := p.Progressed(m); err != nil {
			return err
		}
	}
	return nil
}

func ruleC(p *Parser, ctx *Context) error {
	for p.Lookahead(patA) {
		m := p.Mark()
		if err := p.Match(patA, ""); err != nil {
			return err
		}
		if err := p.Progressed(m); err != nil {
			return err
		}
	}
	return nil
}

// sum : num ('+' num)* `ctx.Value = total`
func ruleSum(p *Parser, ctx *Context) error {
	if err := p.Invoke("num"); err != nil {
		return err
	}
	err := p.Repeat(0, 0, func() error {
		if err := p.Match(patPlus, ""); err != nil {
			return err
		}
		return p.Invoke("num")
	})
	if err != nil {
		return err
	}

	total := 0
	for _, v := range ctx.All("num") {
		total += v.(int)
	}
	ctx.Value = total
	return nil
}

func ruleNum(p *Parser, ctx *Context) error {
	if err := p.Match(patNum, "num"); err != nil {
		return err
	}
	n := 0
	for _, ch := range ctx.Str("num") {
		n = n*10 + int(ch-'0')
	}
	ctx.Value = n
	return nil
}

// choice : 'a' 'x' | 'a' 'y'   (backtracking)
func ruleChoice(p *Parser, ctx *Context) error {
	return p.Choice(
		func() error {
			if err := p.Match(patA, ""); err != nil {
				return err
			}
			return p.Match(patX, "")
		},
		func() error {
			if err := p.Match(patA, ""); err != nil {
				return err
			}
			return p.Match(patY, "")
		},
	)
}

// loop : ''*
func ruleLoop(p *Parser, ctx *Context) error {
	return p.Repeat(0, 0, func() error {
		return p.Match(patEmpty, "")
	})
}

var testRules = map[string]RuleFunc{
	"rule_a": ruleA,
	"rule_b": ruleB,
	"rule_c": ruleC,
	"sum":    ruleSum,
	"num":    ruleNum,
	"choice": ruleChoice,
	"loop":   ruleLoop,
}

func Test_Run_Acceptance(t *testing.T) {
	testCases := []struct {
		name      string
		rule      string
		input     string
		expectErr bool
		expectCol int
	}{
		{name: "rule_a x", rule: "rule_a", input: "x"},
		{name: "rule_a y", rule: "rule_a", input: "y"},
		{name: "rule_a z", rule: "rule_a", input: "z", expectErr: true, expectCol: 0},
		{name: "rule_a xy", rule: "rule_a", input: "xy", expectErr: true, expectCol: 1},
		{name: "rule_b a", rule: "rule_b", input: "a"},
		{name: "rule_b aaa", rule: "rule_b", input: "aaa"},
		{name: "rule_b empty", rule: "rule_b", input: "", expectErr: true, expectCol: 0},
		{name: "rule_c empty", rule: "rule_c", input: ""},
		{name: "rule_c aaa", rule: "rule_c", input: "aaa"},
		{name: "rule_c aab", rule: "rule_c", input: "aab", expectErr: true, expectCol: 2},
		{name: "choice backtracks", rule: "choice", input: "ay"},
		{name: "choice fails past common prefix", rule: "choice", input: "az", expectErr: true, expectCol: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			p := New(tc.input, testRules)
			_, err := p.Run(tc.rule)

			if !tc.expectErr {
				assert.NoError(err)
				return
			}

			var f *Failure
			if assert.ErrorAs(err, &f) {
				assert.Equal(0, f.Row)
				assert.Equal(tc.expectCol, f.Col)
				assert.Equal(tc.expectCol, f.Pos)
			}
		})
	}
}

func Test_Run_SemanticValue(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	p := New("1 + 22 +\n 300", testRules, WithWhitespace(ws))
	val, err := p.Run("sum")

	require.NoError(err)
	assert.Equal(323, val)
	assert.Equal(1, p.Row())
	assert.Equal(4, p.Col())
}

func Test_Run_SingleBindingResult(t *testing.T) {
	assert := assert.New(t)

	p := New("y", testRules)
	val, err := p.Run("rule_a")

	assert.NoError(err)
	assert.Equal("y", val)
}

func Test_Run_TreeResult(t *testing.T) {
	assert := assert.New(t)

	p := New("aa", testRules)
	val, err := p.Run("rule_c")

	assert.NoError(err)
	assert.Equal(&Tree{Rule: "rule_c", Children: []interface{}{"a", "a"}}, val)
}

func Test_Run_ZeroWidthLoop(t *testing.T) {
	assert := assert.New(t)

	p := New("", testRules)
	_, err := p.Run("loop")

	assert.ErrorIs(err, ErrZeroWidth)
	assert.False(IsFailure(err))
}

func Test_Run_UnknownRule(t *testing.T) {
	assert := assert.New(t)

	p := New("x", testRules)
	_, err := p.Run("nope")

	assert.ErrorIs(err, ErrUnknownRule)
}

func Test_Failure_Diagnostics(t *testing.T) {
	assert := assert.New(t)

	p := New("az", testRules)
	_, err := p.Run("choice")

	var f *Failure
	if !assert.ErrorAs(err, &f) {
		return
	}
	assert.Equal([]string{"choice"}, f.Chain)
	assert.Equal(patX, f.Pattern)
	assert.Equal([]string{"expected /y/"}, f.Reasons())
	assert.Equal("syntax error: around line 1, char 2 in choice: expected /x/", f.Error())

	expectMsg := "syntax error: around line 1, char 2 in choice: expected /x/\n" +
		"\n" +
		"az\n" +
		" ^\n" +
		"\n" +
		"possible reasons:\n" +
		"  - expected /y/"
	assert.Equal(expectMsg, f.FullMessage("az"))
}

func Test_Failure_DeepestChain(t *testing.T) {
	assert := assert.New(t)

	p := New("1 + x", testRules, WithWhitespace(ws))
	_, err := p.Run("sum")

	var f *Failure
	if !assert.ErrorAs(err, &f) {
		return
	}
	assert.Equal(4, f.Col)
	assert.Equal([]string{"sum", "num"}, f.Chain)
	assert.Equal("expected /[0-9]+/", f.Expected())
}

func Test_Failure_ReasonsDeduplicated(t *testing.T) {
	assert := assert.New(t)
	f := &Failure{
		Pattern: patX,
		Siblings: []*Failure{
			{Pattern: patX},
			{Pattern: patY},
			{Pattern: patY, Siblings: []*Failure{{Reason: "custom"}}},
		},
	}

	assert.Equal([]string{"expected /y/", "custom"}, f.Reasons())
}

func Test_Failure_FullMessage_WrapsReasons(t *testing.T) {
	testCases := []struct {
		name          string
		reason        string
		expectWrapped bool
	}{
		{
			name:   "short reason kept on one line",
			reason: "expected a closing bracket",
		},
		{
			name:          "long reason wrapped",
			reason:        strings.TrimSpace(strings.Repeat("expected another list item ", 8)),
			expectWrapped: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)
			f := &Failure{Pattern: patX, Siblings: []*Failure{{Reason: tc.reason}}}

			actual := f.FullMessage("az")

			_, reasons, found := strings.Cut(actual, "possible reasons:\n")
			if !assert.True(found) {
				return
			}
			lines := strings.Split(reasons, "\n")
			if tc.expectWrapped {
				assert.Greater(len(lines), 1)
			} else {
				assert.Len(lines, 1)
			}
			assert.True(strings.HasPrefix(lines[0], "  - "))
			for _, l := range lines[1:] {
				assert.True(strings.HasPrefix(l, "    "), "continuation line %q", l)
			}
			for _, l := range lines {
				assert.LessOrEqual(len(l), reasonWidth+4)
			}
			assert.Equal(tc.reason, strings.Join(strings.Fields(strings.TrimPrefix(reasons, "  - ")), " "))
		})
	}
}

func Test_Parser_Debug(t *testing.T) {
	assert := assert.New(t)

	p := New("1+x", testRules, WithDebug(true))
	_, err := p.Run("sum")

	assert.Error(err)
	recs := p.Records()
	if !assert.Len(recs, 3) {
		return
	}
	assert.Equal(DebugRecord{Rule: "sum", Rest: "1+x", Depth: 1, Success: true}, recs[0])
	assert.Equal(DebugRecord{Rule: "num", Rest: "1+x", Depth: 2, Success: true}, recs[1])
	assert.Equal(DebugRecord{Rule: "num", Rest: "x", Col: 2, Depth: 2, Success: false}, recs[2])
	assert.Equal("OK     num @1:1 \"1+x\"", recs[1].String())
	assert.Equal("FAIL   num @1:3 \"x\"", recs[2].String())
}

func Test_Parser_Trace(t *testing.T) {
	testCases := []struct {
		name          string
		debug         bool
		expectEmpty   bool
		expectContain []string
	}{
		{
			name:        "nothing recorded",
			debug:       false,
			expectEmpty: true,
		},
		{
			name:          "table of invocations",
			debug:         true,
			expectContain: []string{"Status", "Depth", "Rule", "At", "Input", "FAIL", "sum", "num", "1:3", `"x"`},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)
			p := New("1+x", testRules, WithDebug(tc.debug))
			_, _ = p.Run("sum")

			actual := p.Trace()

			if tc.expectEmpty {
				assert.Empty(actual)
				return
			}
			for _, s := range tc.expectContain {
				assert.Contains(actual, s)
			}
			assert.Len(p.TraceLines(), len(p.Records()))
		})
	}
}

func Test_Parser_ContextUnwound(t *testing.T) {
	assert := assert.New(t)

	p := New("1+x", testRules)
	_, _ = p.Run("sum")

	assert.Equal(0, p.Depth())
	assert.Nil(p.Context().Parent())
}

func Test_Parser_MarkReset(t *testing.T) {
	assert := assert.New(t)
	p := New("ab\ncd", nil)

	m := p.Mark()
	assert.NoError(p.Match(MustCompile(`ab\n`, ""), "first"))
	assert.Equal(1, p.Row())
	assert.Equal(0, p.Col())
	assert.Equal("ab\n", p.Context().Get("first"))

	p.Reset(m)
	assert.Equal(0, p.Pos())
	assert.Nil(p.Context().Get("first"))
	assert.Equal("ab\ncd", p.Rest())
}

func Test_Lookahead_DoesNotConsume(t *testing.T) {
	assert := assert.New(t)
	p := New("  x", nil, WithWhitespace(ws))

	assert.True(p.Lookahead(patY, patX))
	assert.False(p.Lookahead(patA))
	assert.True(p.Lookahead(patEmpty))
	assert.Equal(0, p.Pos())
}

func Test_Compile(t *testing.T) {
	testCases := []struct {
		name      string
		text      string
		flags     string
		input     string
		expectLen int
		expectErr bool
	}{
		{name: "literal", text: "abc", input: "abcd", expectLen: 3},
		{name: "anchored at start", text: "b", input: "ab", expectLen: -1},
		{name: "ignore case", text: "abc", flags: "i", input: "ABC", expectLen: 3},
		{name: "long flag name", text: "abc", flags: "IGNORECASE", input: "aBc", expectLen: 3},
		{name: "verbose with comment", text: "a b # spaced", flags: "x", input: "ab", expectLen: 2},
		{name: "dotall", text: "a.b", flags: "s", input: "a\nb", expectLen: 3},
		{name: "negative lookahead", text: `[a-z]+\b(?!\s*:)`, input: "name :", expectLen: -1},
		{name: "negative lookahead passes", text: `[a-z]+\b(?!\s*:)`, input: "name x", expectLen: 4},
		{name: "alternation stays grouped", text: "a|b", input: "b", expectLen: 1},
		{name: "empty", text: "", input: "zzz", expectLen: 0},
		{name: "bad flag", text: "a", flags: "q", expectErr: true},
		{name: "bad pattern", text: "(", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			pat, err := Compile(tc.text, tc.flags)
			if tc.expectErr {
				assert.Error(err)
				return
			}
			if !assert.NoError(err) {
				return
			}

			n, err := pat.matchAt([]rune(tc.input), 0)
			assert.NoError(err)
			assert.Equal(tc.expectLen, n)
		})
	}
}

func Test_IsFailure(t *testing.T) {
	assert := assert.New(t)

	assert.True(IsFailure(&Failure{}))
	assert.False(IsFailure(errors.New("x")))
	assert.False(IsFailure(nil))
}
