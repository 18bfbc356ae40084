// Package rmerrors has errors that carry a message for the person running
// remora as well as a technical message for logs.
package rmerrors

import "fmt"

// Error is an error that stops a generation or load: a bad option, a bad
// template, a missing entry rule. It includes a human-readable message to show
// to the operator as well as a more technical "error message" style message.
type Error struct {
	msg   string
	human string
	wrap  error
}

func (e *Error) Error() string {
	return e.msg
}

// Human gives the message that should be displayed to the operator.
func (e *Error) Human() string {
	return e.human
}

// Unwrap gives the error that the Error wraps, if it wraps one.
func (e *Error) Unwrap() error {
	return e.wrap
}

// New returns a new Error that has both the message to show the operator and
// the technical description of the error.
func New(human, technical string) error {
	if technical == "" {
		technical = human
	}
	return &Error{
		msg:   technical,
		human: human,
	}
}

// Newf returns a new Error whose human message is built from the format and
// arguments and is also used as the technical message.
func Newf(humanFormat string, a ...interface{}) error {
	return New(fmt.Sprintf(humanFormat, a...), "")
}

// Wrap returns a new Error that has both the message to show the operator and
// the technical description of the error, and that wraps the given error. If
// technical is empty, it is the human message followed by the wrapped error.
func Wrap(e error, human, technical string) error {
	if technical == "" {
		technical = fmt.Sprintf("%s: %v", human, e)
	}
	return &Error{
		msg:   technical,
		human: human,
		wrap:  e,
	}
}

// Wrapf is like Wrap with the human message built from the format and
// arguments.
func Wrapf(e error, humanFormat string, a ...interface{}) error {
	return Wrap(e, fmt.Sprintf(humanFormat, a...), "")
}

// Human gets the message to display to the operator for the given error. If
// it is an *Error, its human message is returned. Otherwise, err.Error() is
// returned.
func Human(err error) string {
	if rmErr, ok := err.(*Error); ok {
		return rmErr.Human()
	}
	return err.Error()
}
