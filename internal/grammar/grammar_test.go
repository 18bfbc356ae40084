package grammar

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// small constructors to keep test grammars readable

func pat(text string) *Pattern {
	return &Pattern{Info: NewPatternInfo(text, "")}
}

func ref(name string) *RuleRef {
	return &RuleRef{Name: name}
}

func seq(items ...Node) *Sequence {
	return &Sequence{Items: items}
}

func alt(alts ...Node) *Alternation {
	return &Alternation{Alts: alts}
}

func pi(text string) PatternInfo {
	return NewPatternInfo(text, "")
}

func firstOf(pats ...PatternInfo) FirstSet {
	fs := FirstSet{}
	for _, p := range pats {
		fs.Add(p)
	}
	return fs
}

func Test_CanonicalFlags(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		expect    string
		expectErr bool
	}{
		{name: "empty", input: "", expect: ""},
		{name: "letters", input: "mi", expect: "im"},
		{name: "duplicate letters", input: "iIi", expect: "i"},
		{name: "long names", input: "IGNORECASE|MULTILINE", expect: "im"},
		{name: "re prefix", input: "re.DOTALL, re.VERBOSE", expect: "sx"},
		{name: "unknown", input: "q", expectErr: true},
		{name: "unknown long", input: "LOCALE", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			actual, err := CanonicalFlags(tc.input)
			if tc.expectErr {
				assert.Error(err)
				return
			}

			assert.NoError(err)
			assert.Equal(tc.expect, actual)
		})
	}
}

func Test_NewPatternInfo_EpsilonNormalization(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(Epsilon, NewPatternInfo("", ""))
	assert.Equal(Epsilon, NewPatternInfo("", "i"))
	assert.True(NewPatternInfo("", "ms").IsEpsilon())
	assert.False(NewPatternInfo("a", "").IsEpsilon())
}

func Test_SortPatterns(t *testing.T) {
	assert := assert.New(t)
	input := []PatternInfo{pi("bb"), pi("b"), {Text: "a", Flags: "i"}, pi("a"), pi(""), pi("ab")}

	actual := SortPatterns(input)

	expect := []PatternInfo{Epsilon, pi("a"), {Text: "a", Flags: "i"}, pi("b"), pi("ab"), pi("bb")}
	assert.Equal(expect, actual)
}

func Test_First(t *testing.T) {
	table := FirstTable{
		"nullable": firstOf(Epsilon, pi("n")),
		"solid":    firstOf(pi("s")),
	}

	testCases := []struct {
		name   string
		node   Node
		expect FirstSet
	}{
		{name: "pattern", node: pat("x"), expect: firstOf(pi("x"))},
		{name: "empty pattern", node: pat(""), expect: firstOf(Epsilon)},
		{name: "code", node: &Code{Text: "x = 1"}, expect: firstOf(Epsilon)},
		{name: "rule ref", node: ref("solid"), expect: firstOf(pi("s"))},
		{name: "unknown rule ref is empty", node: ref("nope"), expect: firstOf()},
		{
			name:   "sequence stops at first non-nullable",
			node:   seq(pat("a"), pat("b")),
			expect: firstOf(pi("a")),
		},
		{
			name:   "sequence continues past nullable",
			node:   seq(ref("nullable"), pat("b")),
			expect: firstOf(pi("n"), pi("b")),
		},
		{
			name:   "sequence of all nullable is nullable",
			node:   seq(ref("nullable"), &Code{Text: "c"}, &Optional{Body: pat("o")}),
			expect: firstOf(Epsilon, pi("n"), pi("o")),
		},
		{
			name:   "empty sequence is nullable",
			node:   seq(),
			expect: firstOf(Epsilon),
		},
		{
			name:   "alternation unions",
			node:   alt(pat("a"), ref("solid")),
			expect: firstOf(pi("a"), pi("s")),
		},
		{
			name:   "alternation nullable if any alt is",
			node:   alt(pat("a"), ref("nullable")),
			expect: firstOf(pi("a"), pi("n"), Epsilon),
		},
		{name: "optional", node: &Optional{Body: pat("a")}, expect: firstOf(pi("a"), Epsilon)},
		{name: "zero or more", node: &ZeroOrMore{Body: pat("a")}, expect: firstOf(pi("a"), Epsilon)},
		{name: "one or more", node: &OneOrMore{Body: pat("a")}, expect: firstOf(pi("a"))},
		{name: "one or more of nullable", node: &OneOrMore{Body: ref("nullable")}, expect: firstOf(pi("n"), Epsilon)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			actual := First(tc.node, table)

			assert.True(tc.expect.Equal(actual), "expected %s, got %s", tc.expect, actual)
		})
	}
}

func Test_ComputeFirst(t *testing.T) {
	testCases := []struct {
		name   string
		g      Grammar
		expect FirstTable
	}{
		{
			name: "single rule",
			g: Grammar{Rules: []Rule{
				{Name: "rule_a", Body: alt(pat("x"), pat("y"))},
			}},
			expect: FirstTable{"rule_a": firstOf(pi("x"), pi("y"))},
		},
		{
			name: "forward reference",
			g: Grammar{Rules: []Rule{
				{Name: "a", Body: seq(ref("b"), pat("x"))},
				{Name: "b", Body: &Optional{Body: pat("y")}},
			}},
			expect: FirstTable{
				"a": firstOf(pi("y"), pi("x")),
				"b": firstOf(pi("y"), Epsilon),
			},
		},
		{
			name: "left recursion terminates",
			g: Grammar{Rules: []Rule{
				{Name: "expr", Body: alt(seq(ref("expr"), pat(`\+`), ref("num")), ref("num"))},
				{Name: "num", Body: pat("[0-9]+")},
			}},
			expect: FirstTable{
				"expr": firstOf(pi("[0-9]+")),
				"num":  firstOf(pi("[0-9]+")),
			},
		},
		{
			name: "mutual recursion through nullable rules",
			g: Grammar{Rules: []Rule{
				{Name: "a", Body: alt(seq(ref("b"), pat("x")), pat(""))},
				{Name: "b", Body: alt(seq(ref("c"), pat("y")), ref("a"))},
				{Name: "c", Body: alt(ref("a"), pat("z"))},
			}},
			expect: FirstTable{
				"a": firstOf(pi("x"), pi("y"), pi("z"), Epsilon),
				"b": firstOf(pi("x"), pi("y"), pi("z"), Epsilon),
				"c": firstOf(pi("x"), pi("y"), pi("z"), Epsilon),
			},
		},
		{
			name: "long chain declared in reverse",
			g: Grammar{Rules: []Rule{
				{Name: "r1", Body: ref("r2")},
				{Name: "r2", Body: ref("r3")},
				{Name: "r3", Body: ref("r4")},
				{Name: "r4", Body: &OneOrMore{Body: pat("q")}},
			}},
			expect: FirstTable{
				"r1": firstOf(pi("q")),
				"r2": firstOf(pi("q")),
				"r3": firstOf(pi("q")),
				"r4": firstOf(pi("q")),
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			actual, err := ComputeFirst(tc.g)

			if !assert.NoError(err) {
				return
			}
			assert.True(tc.expect.Equal(actual), "expected:\n%v\nactual:\n%v", tc.expect, actual)
			assert.False(actual.Step(tc.g), "table not at fixpoint")
		})
	}
}

func Test_ComputeFirst_UndefinedRule(t *testing.T) {
	assert := assert.New(t)
	g := Grammar{Rules: []Rule{
		{Name: "a", Body: seq(ref("b"), ref("c"))},
		{Name: "b", Body: pat("b")},
	}}

	_, err := ComputeFirst(g)

	assert.ErrorIs(err, ErrUndefinedRule)
	var ruleErr *RuleError
	if assert.ErrorAs(err, &ruleErr) {
		assert.Equal("a", ruleErr.Rule)
		assert.Equal("c", ruleErr.Detail)
	}
}

func Test_Grammar_Validate(t *testing.T) {
	testCases := []struct {
		name      string
		g         Grammar
		expectErr []error
	}{
		{
			name: "valid",
			g:    Grammar{Rules: []Rule{{Name: "a", Body: pat("a")}}},
		},
		{
			name:      "empty",
			g:         Grammar{},
			expectErr: []error{ErrEmptyGrammar},
		},
		{
			name: "duplicate",
			g: Grammar{Rules: []Rule{
				{Name: "a", Body: pat("a")},
				{Name: "a", Body: pat("b")},
			}},
			expectErr: []error{ErrDuplicateRule},
		},
		{
			name: "bad flags and undefined ref",
			g: Grammar{Rules: []Rule{
				{Name: "a", Body: seq(&Pattern{Info: PatternInfo{Text: "a", Flags: "q"}}, ref("zz"))},
			}},
			expectErr: []error{ErrUndefinedRule, ErrInvalidFlags},
		},
		{
			name: "non-string flags arg",
			g: Grammar{Rules: []Rule{
				{Name: "a", Body: pat("a"), Args: Args{{Key: "flags", Value: Num(2)}}},
			}},
			expectErr: []error{ErrInvalidRuleArg},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			err := tc.g.Validate()

			if len(tc.expectErr) == 0 {
				assert.NoError(err)
				return
			}
			assert.Len(Errors(err), len(tc.expectErr))
			for _, expect := range tc.expectErr {
				assert.True(errors.Is(err, expect), "expected error to match %v", expect)
			}
		})
	}
}

func Test_Grammar_Patterns(t *testing.T) {
	assert := assert.New(t)
	g := Grammar{Rules: []Rule{
		{Name: "a", Body: seq(pat("bb"), pat("a"), ref("b"))},
		{Name: "b", Body: alt(pat("a"), pat("c"), pat(""))},
	}}

	actual := g.Patterns()

	assert.Equal([]PatternInfo{Epsilon, pi("a"), pi("c"), pi("bb")}, actual)
}

func Test_SinglePattern(t *testing.T) {
	testCases := []struct {
		name     string
		body     Node
		expectOK bool
	}{
		{name: "pattern", body: pat("a"), expectOK: true},
		{name: "pattern with code", body: seq(&Code{Text: "x"}, pat("a"), &Code{Text: "y"}), expectOK: true},
		{name: "two patterns", body: seq(pat("a"), pat("b"))},
		{name: "rule ref", body: ref("a")},
		{name: "pattern and ref", body: seq(pat("a"), ref("b"))},
		{name: "only code", body: seq(&Code{Text: "x"})},
		{name: "optional pattern", body: &Optional{Body: pat("a")}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			p, ok := SinglePattern(tc.body)

			assert.Equal(tc.expectOK, ok)
			if tc.expectOK {
				assert.Equal(pi("a"), p.Info)
			} else {
				assert.Nil(p)
			}
		})
	}
}

func Test_Node_String(t *testing.T) {
	testCases := []struct {
		name   string
		node   Node
		expect string
	}{
		{name: "pattern", node: pat("a+"), expect: "r'a+'"},
		{name: "epsilon", node: pat(""), expect: "''"},
		{name: "pattern with quote", node: pat("it's"), expect: `r"it's"`},
		{name: "pattern with flags", node: &Pattern{Info: PatternInfo{Text: "a", Flags: "i"}}, expect: `r'a'@(flags="i")`},
		{name: "code", node: &Code{Text: "x = 1"}, expect: "`x = 1`"},
		{name: "sequence", node: seq(ref("a"), pat("b")), expect: "a r'b'"},
		{name: "alternation in sequence", node: seq(ref("a"), alt(ref("b"), ref("c"))), expect: "a (b | c)"},
		{name: "occurrence of group", node: &ZeroOrMore{Body: seq(ref("a"), ref("b"))}, expect: "(a b)*"},
		{name: "nested occurrence", node: &Optional{Body: &OneOrMore{Body: ref("a")}}, expect: "(a+)?"},
		{name: "empty sequence", node: seq(), expect: "()"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			assert.Equal(tc.expect, tc.node.String())
		})
	}
}

func Test_Grammar_Binary(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	g := Grammar{Rules: []Rule{
		{
			Name: "expr",
			Args: Args{{Key: "flags", Value: Str("i")}, {Key: "weight", Value: Num(2.5)}, {Key: "x", Value: None}},
			Body: alt(
				seq(ref("term"), &ZeroOrMore{Body: seq(pat(`\+`), ref("term"))}, &Code{Text: "ctx.Value = 1"}),
				&Optional{Body: pat("")},
			),
		},
		{
			Name: "term",
			Args: Args{{Key: "lexical", Value: Bool(true)}},
			Body: &OneOrMore{Body: &Pattern{Info: PatternInfo{Text: "[a-z]", Flags: "i"}, Args: Args{{Key: "label", Value: Str("letter")}}}},
		},
	}}

	data, err := g.MarshalBinary()
	require.NoError(err)

	var actual Grammar
	err = actual.UnmarshalBinary(data)
	require.NoError(err)

	assert.Equal(g, actual)
}

func Test_WithoutEpsilon(t *testing.T) {
	testCases := []struct {
		name   string
		input  FirstSet
		expect FirstSet
	}{
		{name: "empty", input: firstOf(), expect: firstOf()},
		{name: "only epsilon", input: firstOf(Epsilon), expect: firstOf()},
		{name: "no epsilon", input: firstOf(pi("a")), expect: firstOf(pi("a"))},
		{name: "mixed", input: firstOf(Epsilon, pi("a"), pi("b")), expect: firstOf(pi("a"), pi("b"))},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)
			before := tc.input.Copy()

			actual := WithoutEpsilon(tc.input)

			assert.Equal(tc.expect, actual)
			assert.Equal(before, tc.input)
		})
	}
}
