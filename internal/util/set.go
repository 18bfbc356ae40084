package util

import (
	"fmt"
	"sort"
	"strings"
)

// KeySet is a map[E comparable]bool with methods for set semantics. The zero
// value is not usable; create one with NewKeySet or a map literal.
type KeySet[E comparable] map[E]bool

// NewKeySet creates a KeySet holding every key whose value is true in the
// given maps.
func NewKeySet[E comparable](of ...map[E]bool) KeySet[E] {
	s := KeySet[E]{}
	for _, m := range of {
		for k, v := range m {
			if v {
				s[k] = true
			}
		}
	}
	return s
}

// KeySetOf creates a KeySet holding the given elements.
func KeySetOf[E comparable](sl []E) KeySet[E] {
	s := KeySet[E]{}
	for i := range sl {
		s[sl[i]] = true
	}
	return s
}

func (s KeySet[E]) Copy() KeySet[E] {
	return NewKeySet(s)
}

// Add adds the given element. Has no effect if it's already there.
func (s KeySet[E]) Add(value E) {
	s[value] = true
}

// AddAll adds all elements of s2 and returns whether any were new.
func (s KeySet[E]) AddAll(s2 KeySet[E]) bool {
	grew := false
	for k := range s2 {
		if !s.Has(k) {
			s.Add(k)
			grew = true
		}
	}
	return grew
}

func (s KeySet[E]) Remove(value E) {
	delete(s, value)
}

func (s KeySet[E]) Has(value E) bool {
	return s[value]
}

func (s KeySet[E]) Len() int {
	return len(s)
}

func (s KeySet[E]) Empty() bool {
	return len(s) == 0
}

// Union returns a new KeySet that is the union of s and o.
func (s KeySet[E]) Union(o KeySet[E]) KeySet[E] {
	u := s.Copy()
	u.AddAll(o)
	return u
}

// Intersection returns a new KeySet that contains the elements that are in both
// s and o.
func (s KeySet[E]) Intersection(o KeySet[E]) KeySet[E] {
	inter := KeySet[E]{}
	for k := range s {
		if o.Has(k) {
			inter.Add(k)
		}
	}
	return inter
}

// Difference returns a new KeySet that contains the elements that are in s but
// not in o.
func (s KeySet[E]) Difference(o KeySet[E]) KeySet[E] {
	diff := KeySet[E]{}
	for k := range s {
		if !o.Has(k) {
			diff.Add(k)
		}
	}
	return diff
}

// DisjointWith returns whether s contains no elements of o.
func (s KeySet[E]) DisjointWith(o KeySet[E]) bool {
	for k := range s {
		if o.Has(k) {
			return false
		}
	}
	return true
}

// Equal returns whether two sets have the same items. Anything other than a
// KeySet[E] or *KeySet[E] is never equal.
func (s KeySet[E]) Equal(o any) bool {
	other, ok := o.(KeySet[E])
	if !ok {
		otherPtr, ok := o.(*KeySet[E])
		if !ok || otherPtr == nil {
			return false
		}
		other = *otherPtr
	}

	if len(s) != len(other) {
		return false
	}
	for k := range s {
		if !other.Has(k) {
			return false
		}
	}
	return true
}

// Elements returns the elements of s as a slice. No particular order is
// guaranteed nor should it be relied on.
func (s KeySet[E]) Elements() []E {
	sl := make([]E, 0, len(s))
	for k := range s {
		sl = append(sl, k)
	}
	return sl
}

// StringOrdered shows the contents of the set. Items are guaranteed to be
// alphabetized by their %v representation.
func (s KeySet[E]) StringOrdered() string {
	strs := make([]string, 0, len(s))
	for k := range s {
		strs = append(strs, fmt.Sprintf("%v", k))
	}
	sort.Strings(strs)
	return "{" + strings.Join(strs, ", ") + "}"
}

func (s KeySet[E]) String() string {
	return s.StringOrdered()
}

// StringSet is a KeySet of strings.
type StringSet = KeySet[string]
