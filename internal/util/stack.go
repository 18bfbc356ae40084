package util

// Stack is a LIFO stack backed by a slice, bottom first. The zero value is an
// empty stack ready to use.
type Stack[E any] struct {
	Of []E
}

// Push puts an element on top of the stack.
func (s *Stack[E]) Push(v E) {
	s.Of = append(s.Of, v)
}

// Pop removes and returns the top element. It panics if the stack is empty.
func (s *Stack[E]) Pop() E {
	if len(s.Of) < 1 {
		panic("pop of empty stack")
	}
	v := s.Of[len(s.Of)-1]
	var zero E
	s.Of[len(s.Of)-1] = zero
	s.Of = s.Of[:len(s.Of)-1]
	return v
}
