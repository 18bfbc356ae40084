package api

import (
	"net/http"

	"github.com/dekarrin/remora/server/middle"
	"github.com/dekarrin/remora/server/result"
)

// HTTPCreateToken returns a HandlerFunc that gives the logged-in user a fresh
// token. Its scope follows the current role of the user.
//
// The context of the request must contain the logged-in user.
func (api API) HTTPCreateToken() http.HandlerFunc {
	return api.httpEndpoint(api.epCreateToken)
}

func (api API) epCreateToken(req *http.Request) result.Result {
	user := middle.User(req)

	resp, err := api.issueToken(user)
	if err != nil {
		return result.InternalServerError("could not generate JWT: %s", err.Error())
	}
	return result.Created(resp, "user '%s' created new token with scope %s", user.Username, resp.Scope)
}
