package util

import (
	"sort"
	"strings"
)

// MakeTextList gives an english list of the items, e.g. "a, b, or c". The
// conjunction is placed before the last item.
func MakeTextList(items []string, conj string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " " + conj + " " + items[1]
	default:
		// oxford comma
		withConj := make([]string, len(items))
		copy(withConj, items)
		withConj[len(withConj)-1] = conj + " " + withConj[len(withConj)-1]
		return strings.Join(withConj, ", ")
	}
}

// OrderedKeys returns the keys of m, ordered a particular way. The order is
// guaranteed to be the same on every run.
//
// As of this writing, the order is alphabetical, but this function does not
// guarantee this will always be the case.
func OrderedKeys[K ~string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// SortBy returns a sorted copy of items, using the given less function. The
// sort is stable.
func SortBy[E any](items []E, less func(left, right E) bool) []E {
	sorted := make([]E, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})
	return sorted
}

// Dedupe returns items with all but the first occurrence of each key removed.
// Order is preserved.
func Dedupe[E any, K comparable](items []E, key func(E) K) []E {
	seen := map[K]bool{}
	var out []E
	for _, it := range items {
		k := key(it)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, it)
	}
	return out
}
