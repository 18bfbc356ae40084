package api

import (
	"errors"
	"net/http"

	"github.com/dekarrin/remora/server/dao"
	"github.com/dekarrin/remora/server/middle"
	"github.com/dekarrin/remora/server/result"
	"github.com/dekarrin/remora/server/serr"
	"github.com/dekarrin/remora/server/token"
	"github.com/google/uuid"
)

// selfOrAdmin checks that the logged-in user of req is the user with ID
// target or an admin. If not, ok is false and r is the HTTP-403 to give.
func (api API) selfOrAdmin(req *http.Request, target uuid.UUID, action string) (user dao.User, r result.Result, ok bool) {
	user = middle.User(req)
	if target == user.ID || user.Role == dao.Admin {
		return user, result.Result{}, true
	}

	other := target.String()
	if u, err := api.Backend.GetUser(req.Context(), other); err == nil {
		other = "'" + u.Username + "'"
	}
	return user, result.Forbidden("user '%s' (role %s) %s user %s: forbidden", user.Username, user.Role, action, other), false
}

// adminOnly checks that the logged-in user of req is an admin. If not, ok is
// false and r is the HTTP-403 to give.
func adminOnly(req *http.Request, action string) (user dao.User, r result.Result, ok bool) {
	user = middle.User(req)
	if user.Role == dao.Admin {
		return user, result.Result{}, true
	}
	return user, result.Forbidden("user '%s' (role %s) %s: forbidden", user.Username, user.Role, action), false
}

// subject names the user with ID id as seen by user, for log messages.
func subject(user dao.User, id uuid.UUID, username string) string {
	if id == user.ID {
		return "self"
	}
	if username == "" {
		return "user " + id.String() + " (no-op)"
	}
	return "user '" + username + "'"
}

// issueToken creates a token for u and the response that hands it out.
func (api API) issueToken(u dao.User) (LoginResponse, error) {
	tok, err := token.Generate(api.Secret, u)
	if err != nil {
		return LoginResponse{}, err
	}
	return LoginResponse{
		Token:  tok,
		UserID: u.ID.String(),
		Scope:  string(token.ScopeFor(u.Role)),
	}, nil
}

// userError gives the response to an error from a user operation of the
// backend.
func userError(err error) result.Result {
	switch {
	case errors.Is(err, serr.ErrAlreadyExists):
		return result.Conflict(err.Error(), "%s", err.Error())
	case errors.Is(err, serr.ErrNotFound):
		return result.NotFound("%s", err.Error())
	case errors.Is(err, serr.ErrBadArgument):
		return result.BadRequest(err.Error(), "%s", err.Error())
	default:
		return result.InternalServerError("%s", err.Error())
	}
}
