package grammar

import (
	"fmt"
	"strings"

	"github.com/dekarrin/remora/internal/util"
	"github.com/dekarrin/rosed"
)

// FirstSet is the set of patterns that can begin a derivation. It contains
// Epsilon when the derivation can be empty.
type FirstSet = util.KeySet[PatternInfo]

// Nullable returns whether fs contains Epsilon.
func Nullable(fs FirstSet) bool {
	return fs.Has(Epsilon)
}

// WithoutEpsilon returns a copy of fs without Epsilon: the patterns that can
// actually start a match.
func WithoutEpsilon(fs FirstSet) FirstSet {
	return fs.Difference(util.KeySetOf([]PatternInfo{Epsilon}))
}

// Sorted returns the elements of fs ordered by PatternInfo.Less. Epsilon, if
// present, is always first.
func Sorted(fs FirstSet) []PatternInfo {
	return SortPatterns(fs.Elements())
}

// FirstTable maps rule names to their FIRST sets.
type FirstTable map[string]FirstSet

// Of returns the FIRST set of the named rule. It is never nil.
func (ft FirstTable) Of(name string) FirstSet {
	if fs, ok := ft[name]; ok {
		return fs
	}
	return FirstSet{}
}

// Copy returns a deep copy of ft.
func (ft FirstTable) Copy() FirstTable {
	cp := FirstTable{}
	for k, v := range ft {
		cp[k] = v.Copy()
	}
	return cp
}

// Equal returns whether ft and o hold equal sets for the same rules.
func (ft FirstTable) Equal(o FirstTable) bool {
	if len(ft) != len(o) {
		return false
	}
	for k, v := range ft {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// First evaluates the FIRST set of n directly against table. RuleRefs are
// resolved by lookup only, so the result is exact only once table has
// reached its fixpoint.
func First(n Node, table FirstTable) FirstSet {
	switch v := n.(type) {
	case *Pattern:
		return util.KeySetOf([]PatternInfo{v.Info})
	case *Code:
		return util.KeySetOf([]PatternInfo{Epsilon})
	case *RuleRef:
		return table.Of(v.Name).Copy()
	case *Sequence:
		fs := FirstSet{}
		for _, it := range v.Items {
			itFirst := First(it, table)
			nullable := Nullable(itFirst)
			itFirst.Remove(Epsilon)
			fs.AddAll(itFirst)
			if !nullable {
				return fs
			}
		}
		// every item was nullable, as is an empty sequence
		fs.Add(Epsilon)
		return fs
	case *Alternation:
		fs := FirstSet{}
		for _, alt := range v.Alts {
			fs.AddAll(First(alt, table))
		}
		return fs
	case *Optional:
		fs := First(v.Body, table)
		fs.Add(Epsilon)
		return fs
	case *ZeroOrMore:
		fs := First(v.Body, table)
		fs.Add(Epsilon)
		return fs
	case *OneOrMore:
		return First(v.Body, table)
	default:
		panic(fmt.Sprintf("unknown node type %T", n))
	}
}

// ComputeFirst computes the FIRST set of every rule of g as the least fixpoint
// of First over all rules. g is validated first, so a reference to an
// undefined rule is an error rather than an empty set.
//
// Every rule is seeded by one direct evaluation. A worklist then holds the
// names of rules whose set changed; for each, every rule that refers to it is
// re-evaluated and queued again if its own set grew. Sets only grow and are
// bounded by the grammar's patterns, so this terminates for any recursion.
func ComputeFirst(g Grammar) (FirstTable, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	// referenced rule -> rules that reference it
	affects := map[string][]string{}
	for _, r := range g.Rules {
		for _, ref := range CollectRuleRefs(r.Body) {
			affects[ref] = append(affects[ref], r.Name)
		}
	}

	bodies := map[string]Node{}
	table := FirstTable{}
	for _, r := range g.Rules {
		bodies[r.Name] = r.Body
		table[r.Name] = FirstSet{}
	}

	var queue []string
	queued := util.StringSet{}
	for _, r := range g.Rules {
		table[r.Name].AddAll(First(r.Body, table))
		queue = append(queue, r.Name)
		queued.Add(r.Name)
	}

	for len(queue) > 0 {
		changed := queue[0]
		queue = queue[1:]
		queued.Remove(changed)

		for _, dep := range affects[changed] {
			if table[dep].AddAll(First(bodies[dep], table)) && !queued.Has(dep) {
				queue = append(queue, dep)
				queued.Add(dep)
			}
		}
	}

	return table, nil
}

// Step re-evaluates every rule of g once against ft, adding anything new to
// ft. It returns whether any set grew. For a table produced by ComputeFirst it
// always returns false.
func (ft FirstTable) Step(g Grammar) bool {
	grew := false
	for _, r := range g.Rules {
		if _, ok := ft[r.Name]; !ok {
			ft[r.Name] = FirstSet{}
		}
		if ft[r.Name].AddAll(First(r.Body, ft)) {
			grew = true
		}
	}
	return grew
}

// Table renders the FIRST set of every rule of g as a text table, rules in
// declaration order.
func (ft FirstTable) Table(g Grammar, width int) string {
	data := [][]string{{"Rule", "Nullable", "FIRST"}}
	for _, name := range g.Names() {
		fs := ft.Of(name)

		var pats []string
		for _, p := range Sorted(fs) {
			if p.IsEpsilon() {
				continue
			}
			pats = append(pats, p.String())
		}

		nullable := "no"
		if Nullable(fs) {
			nullable = "yes"
		}
		data = append(data, []string{name, nullable, strings.Join(pats, " ")})
	}

	return rosed.Edit("").
		InsertTableOpts(0, data, width, rosed.Options{
			TableHeaders:             true,
			NoTrailingLineSeparators: true,
		}).
		String()
}
