package scan

import "fmt"

// Context is the record of one active rule invocation. Rule routines receive
// the Context of their own invocation; they attach a semantic result by
// setting Value and read what their sub-rules and patterns bound through Get,
// All and Text.
//
// Contexts live in an arena owned by the Parser and are reused once their
// invocation returns, so a rule routine must not keep its Context after it
// returns.
type Context struct {
	// Name is the name of the invoked rule.
	Name string

	// Value is the semantic result of the rule. If left nil, the rule's
	// result is the value bound under its own name if that is the only thing
	// it bound, and a *Tree of everything it bound otherwise.
	Value interface{}

	p     *Parser
	depth int
	binds []binding
}

type binding struct {
	name  string
	value interface{}
}

// Tree is the default result of a rule whose routine sets no Value.
type Tree struct {
	Rule string

	// Children holds, in match order, the text of each pattern matched and
	// the result of each sub-rule invoked.
	Children []interface{}
}

func (t *Tree) String() string {
	return fmt.Sprintf("%s%v", t.Rule, t.Children)
}

func (c *Context) reset(name string) {
	c.Name = name
	c.Value = nil
	for i := range c.binds {
		c.binds[i] = binding{}
	}
	c.binds = c.binds[:0]
}

// Bind attaches v to the context under the given name. An empty name binds
// anonymously.
func (c *Context) Bind(name string, v interface{}) {
	c.binds = append(c.binds, binding{name: name, value: v})
}

// Get returns the most recent value bound under name, or nil.
func (c *Context) Get(name string) interface{} {
	for i := len(c.binds) - 1; i >= 0; i-- {
		if c.binds[i].name == name {
			return c.binds[i].value
		}
	}
	return nil
}

// Has returns whether anything is bound under name.
func (c *Context) Has(name string) bool {
	for i := range c.binds {
		if c.binds[i].name == name {
			return true
		}
	}
	return false
}

// Str returns the most recent value bound under name as a string. Values that
// are not strings are formatted with %v; an unbound name gives "".
func (c *Context) Str(name string) string {
	v := c.Get(name)
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// All returns every value bound under name, in the order they were bound.
func (c *Context) All(name string) []interface{} {
	var vals []interface{}
	for i := range c.binds {
		if c.binds[i].name == name {
			vals = append(vals, c.binds[i].value)
		}
	}
	return vals
}

// Text returns the i-th anonymously matched text, or "" if there are not that
// many.
func (c *Context) Text(i int) string {
	n := 0
	for _, b := range c.binds {
		if b.name != "" {
			continue
		}
		if n == i {
			if s, ok := b.value.(string); ok {
				return s
			}
			return fmt.Sprintf("%v", b.value)
		}
		n++
	}
	return ""
}

// Matches returns the text of every anonymous match, in order.
func (c *Context) Matches() []string {
	var texts []string
	for _, b := range c.binds {
		if b.name == "" {
			if s, ok := b.value.(string); ok {
				texts = append(texts, s)
			}
		}
	}
	return texts
}

// Parent returns the context of the invocation that invoked this one, or nil
// for the root.
func (c *Context) Parent() *Context {
	if c.depth == 0 {
		return nil
	}
	return c.p.arena[c.depth-1]
}

// Depth returns the nesting depth of the context; the root has depth 0.
func (c *Context) Depth() int {
	return c.depth
}

// result gives the value the rule passes up to its caller.
func (c *Context) result() interface{} {
	if c.Value != nil {
		return c.Value
	}
	if len(c.binds) == 1 && c.binds[0].name == c.Name {
		return c.binds[0].value
	}
	t := &Tree{Rule: c.Name}
	for _, b := range c.binds {
		t.Children = append(t.Children, b.value)
	}
	return t
}
