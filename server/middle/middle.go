// Package middle contains middleware for use with the remora server.
package middle

import (
	"context"
	"net/http"
	"time"

	"github.com/dekarrin/remora/server/dao"
	"github.com/dekarrin/remora/server/result"
	"github.com/dekarrin/remora/server/token"
)

// Middleware is a function that takes a handler and returns a new handler which
// wraps the given one and provides some additional functionality.
type Middleware func(next http.Handler) http.Handler

// AuthKey is a key in the context of a request populated by an AuthHandler.
type AuthKey int64

const (
	AuthLoggedIn AuthKey = iota
	AuthUser
	AuthScope
)

// User returns the user an AuthHandler put in the context of req.
func User(req *http.Request) dao.User {
	return req.Context().Value(AuthUser).(dao.User)
}

// Scope returns the grammar scope of the token req was authenticated with.
// It is empty if req carried no valid token.
func Scope(req *http.Request) token.Scope {
	return req.Context().Value(AuthScope).(token.Scope)
}

// LoggedIn returns whether req carried a valid token.
func LoggedIn(req *http.Request) bool {
	return req.Context().Value(AuthLoggedIn).(bool)
}

// AuthHandler is middleware that authenticates a request by its bearer token
// before passing it on. The logged-in user, the grammar scope of the token and
// whether there was a valid token at all are added to the request context
// under AuthUser, AuthScope and AuthLoggedIn.
//
// A handler that requires auth answers an HTTP-401 itself when there is no
// valid token. One that does not passes the request on with defaultUser and
// an empty scope.
type AuthHandler struct {
	users         dao.UserRepository
	secret        []byte
	required      bool
	defaultUser   dao.User
	unauthedDelay time.Duration
	next          http.Handler
}

func (ah *AuthHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	user, scope, err := ah.authenticate(req)
	loggedIn := err == nil
	if !loggedIn {
		if ah.required {
			time.Sleep(ah.unauthedDelay)
			result.Unauthorized("", err.Error()).WriteResponse(w)
			return
		}
		user, scope = ah.defaultUser, ""
	}

	ctx := req.Context()
	ctx = context.WithValue(ctx, AuthLoggedIn, loggedIn)
	ctx = context.WithValue(ctx, AuthUser, user)
	ctx = context.WithValue(ctx, AuthScope, scope)
	ah.next.ServeHTTP(w, req.WithContext(ctx))
}

func (ah *AuthHandler) authenticate(req *http.Request) (dao.User, token.Scope, error) {
	tok, err := token.Get(req)
	if err != nil {
		return dao.User{}, "", err
	}
	return token.Validate(req.Context(), tok, ah.secret, ah.users)
}

func auth(required bool, users dao.UserRepository, secret []byte, unauthDelay time.Duration, defaultUser dao.User) Middleware {
	return func(next http.Handler) http.Handler {
		return &AuthHandler{
			users:         users,
			secret:        secret,
			required:      required,
			defaultUser:   defaultUser,
			unauthedDelay: unauthDelay,
			next:          next,
		}
	}
}

// RequireAuth returns middleware that responds with an HTTP-401 unless the
// request carries a valid token.
func RequireAuth(users dao.UserRepository, secret []byte, unauthDelay time.Duration, defaultUser dao.User) Middleware {
	return auth(true, users, secret, unauthDelay, defaultUser)
}

// OptionalAuth returns middleware that looks up the user of a valid token if
// there is one and otherwise passes the request on with defaultUser.
func OptionalAuth(users dao.UserRepository, secret []byte, unauthDelay time.Duration, defaultUser dao.User) Middleware {
	return auth(false, users, secret, unauthDelay, defaultUser)
}
