package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_MakeTextList(t *testing.T) {
	testCases := []struct {
		name   string
		items  []string
		expect string
	}{
		{name: "empty", items: nil, expect: ""},
		{name: "one", items: []string{"a"}, expect: "a"},
		{name: "two", items: []string{"a", "b"}, expect: "a or b"},
		{name: "three", items: []string{"a", "b", "c"}, expect: "a, b, or c"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			actual := MakeTextList(tc.items, "or")

			assert.Equal(tc.expect, actual)
		})
	}
}

func Test_SortBy(t *testing.T) {
	assert := assert.New(t)
	input := []string{"ccc", "a", "bb", "b"}

	actual := SortBy(input, func(l, r string) bool { return len(l) < len(r) })

	assert.Equal([]string{"a", "b", "bb", "ccc"}, actual)
	assert.Equal([]string{"ccc", "a", "bb", "b"}, input, "input must not be modified")
}

func Test_Dedupe(t *testing.T) {
	assert := assert.New(t)

	actual := Dedupe([]string{"x", "y", "x", "z", "y"}, func(s string) string { return s })

	assert.Equal([]string{"x", "y", "z"}, actual)
}

func Test_KeySet_AddAll(t *testing.T) {
	assert := assert.New(t)
	s := KeySetOf([]int{1, 2})

	assert.True(s.AddAll(KeySetOf([]int{2, 3})))
	assert.False(s.AddAll(KeySetOf([]int{1, 3})))
	assert.True(s.Equal(KeySetOf([]int{1, 2, 3})))
	assert.Equal("{1, 2, 3}", s.StringOrdered())
}

func Test_OrderedKeys(t *testing.T) {
	type engine string
	assert := assert.New(t)
	m := map[engine]int{"sqlite": 1, "inmem": 2, "bolt": 3}

	actual := OrderedKeys(m)

	assert.Equal([]engine{"bolt", "inmem", "sqlite"}, actual)
}

func Test_KeySet_Overlap(t *testing.T) {
	testCases := []struct {
		name           string
		left, right    []string
		expectInter    string
		expectUnion    string
		expectDisjoint bool
	}{
		{name: "disjoint", left: []string{"a", "b"}, right: []string{"c"}, expectInter: "{}", expectUnion: "{a, b, c}", expectDisjoint: true},
		{name: "shared", left: []string{"a", "b"}, right: []string{"b", "c"}, expectInter: "{b}", expectUnion: "{a, b, c}"},
		{name: "empty", left: nil, right: []string{"a"}, expectInter: "{}", expectUnion: "{a}", expectDisjoint: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)
			left, right := KeySetOf(tc.left), KeySetOf(tc.right)

			assert.Equal(tc.expectDisjoint, left.DisjointWith(right))
			assert.Equal(tc.expectInter, left.Intersection(right).StringOrdered())
			assert.Equal(tc.expectUnion, left.Union(right).StringOrdered())
			assert.Equal(KeySetOf(tc.left).StringOrdered(), left.StringOrdered(), "left must not be modified")
		})
	}
}

func Test_Stack(t *testing.T) {
	assert := assert.New(t)
	var s Stack[string]

	s.Push("a")
	s.Push("b")
	assert.Equal([]string{"a", "b"}, s.Of)
	assert.Equal("b", s.Pop())
	assert.Equal("a", s.Pop())
	assert.Empty(s.Of)
	assert.Panics(func() { s.Pop() })
}
