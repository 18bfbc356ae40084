// Package serr has the error values shared by the layers of the remora server.
// Its Error type carries any number of causes, and errors.Is and errors.As
// look through all of them, so a handler can ask whether a service call failed
// because of ErrNotFound without knowing which layer noticed.
package serr

import "errors"

var (
	ErrBadCredentials = errors.New("the supplied username/password combination is incorrect")
	ErrPermissions    = errors.New("you don't have permission to do that")
	ErrNotFound       = errors.New("the requested entity could not be found")
	ErrAlreadyExists  = errors.New("resource with same identifying information already exists")
	ErrDB             = errors.New("an error occured with the DB")
	ErrBadArgument    = errors.New("one or more of the arguments is invalid")
	ErrBodyUnmarshal  = errors.New("malformed data in request")
	ErrGrammar        = errors.New("the grammar is not valid")
	ErrRejected       = errors.New("the input was rejected by the grammar")
)

// Error is returned by the service layer. It has a message and a list of
// causes. Create one with New or WrapDB.
type Error struct {
	msg    string
	causes []error
}

// Error gives the message followed by the text of the first cause. Either part
// is left out when empty.
func (e Error) Error() string {
	switch {
	case len(e.causes) == 0:
		return e.msg
	case e.msg == "":
		return e.causes[0].Error()
	default:
		return e.msg + ": " + e.causes[0].Error()
	}
}

// Unwrap gives the causes of e, or nil if it has none.
func (e Error) Unwrap() []error {
	if len(e.causes) == 0 {
		return nil
	}
	return e.causes
}

// Is reports whether target is an equal Error or matches any cause of e.
// Causes are checked with errors.Is, so their own chains are followed too.
func (e Error) Is(target error) bool {
	if other, ok := target.(Error); ok && e.equal(other) {
		return true
	}

	for _, c := range e.causes {
		if errors.Is(c, target) {
			return true
		}
	}
	return false
}

// As sets target to the first cause in any cause chain that errors.As can
// assign to it.
func (e Error) As(target interface{}) bool {
	for _, c := range e.causes {
		if errors.As(c, target) {
			return true
		}
	}
	return false
}

func (e Error) equal(o Error) bool {
	if e.msg != o.msg || len(e.causes) != len(o.causes) {
		return false
	}
	for i := range e.causes {
		if e.causes[i] != o.causes[i] {
			return false
		}
	}
	return true
}

// WrapDB makes an Error from an error returned by the persistence layer. The
// result has both err and ErrDB as causes. msg may be empty.
func WrapDB(msg string, err error) Error {
	return New(msg, err, ErrDB)
}

// New creates an Error with the given message and causes.
func New(msg string, causes ...error) Error {
	err := Error{msg: msg}
	if len(causes) > 0 {
		err.causes = append([]error(nil), causes...)
	}
	return err
}
