package api

import (
	"net/http"

	"github.com/dekarrin/remora/internal/version"
	"github.com/dekarrin/remora/server/middle"
	"github.com/dekarrin/remora/server/result"
)

// HTTPGetInfo returns a HandlerFunc that gives the versions of the server and
// of the generator it runs. A client need not be logged in.
func (api API) HTTPGetInfo() http.HandlerFunc {
	return api.httpEndpoint(api.epGetInfo)
}

func (api API) epGetInfo(req *http.Request) result.Result {
	var resp InfoModel
	resp.Version.Server = version.ServerCurrent
	resp.Version.Remora = version.Current

	who := "unauthed client"
	if middle.LoggedIn(req) {
		who = "user '" + middle.User(req).Username + "'"
	}
	return result.OK(resp, "%s got API info", who)
}
