package api

import (
	"errors"
	"net/http"

	"github.com/dekarrin/remora/server/result"
	"github.com/dekarrin/remora/server/serr"
)

// HTTPCreateLogin returns a HandlerFunc that logs in with a username and
// password and gives back a token scoped to the grammars the user may act on.
func (api API) HTTPCreateLogin() http.HandlerFunc {
	return api.httpEndpoint(api.epCreateLogin)
}

func (api API) epCreateLogin(req *http.Request) result.Result {
	var login LoginRequest
	if err := parseJSON(req, &login); err != nil {
		return result.BadRequest(err.Error(), "%s", err.Error())
	}
	if login.Username == "" {
		return result.BadRequest("username: property is empty or missing from request", "empty username")
	}
	if login.Password == "" {
		return result.BadRequest("password: property is empty or missing from request", "empty password")
	}

	user, err := api.Backend.Login(req.Context(), login.Username, login.Password)
	if err != nil {
		if errors.Is(err, serr.ErrBadCredentials) {
			return result.Unauthorized(serr.ErrBadCredentials.Error(), "user '%s': %s", login.Username, err.Error())
		}
		return result.InternalServerError("%s", err.Error())
	}

	resp, err := api.issueToken(user)
	if err != nil {
		return result.InternalServerError("could not generate JWT: %s", err.Error())
	}
	return result.Created(resp, "user '%s' logged in with scope %s", user.Username, resp.Scope)
}

// HTTPDeleteLogin returns a HandlerFunc that logs a user out, which makes
// every token issued to it so far invalid. Users may log themselves out;
// admins may log out anyone.
//
// The context of the request must contain the ID of the user to log out and
// the logged-in user.
func (api API) HTTPDeleteLogin() http.HandlerFunc {
	return api.httpEndpoint(api.epDeleteLogin)
}

func (api API) epDeleteLogin(req *http.Request) result.Result {
	id := requireIDParam(req)
	user, r, ok := api.selfOrAdmin(req, id, "log out")
	if !ok {
		return r
	}

	out, err := api.Backend.Logout(req.Context(), id)
	if err != nil {
		return userError(err)
	}

	return result.NoContent("user '%s' logged out %s", user.Username, subject(user, id, out.Username))
}
