package api

import (
	"errors"
	"net/http"

	"github.com/dekarrin/remora/server/dao"
	"github.com/dekarrin/remora/server/result"
	"github.com/dekarrin/remora/server/serr"
	"github.com/go-chi/chi/v5"
)

// HTTPGetAllUsers returns a HandlerFunc that lists every user along with how
// many grammars each owns. Only an admin may call it.
//
// The context of the request must contain the logged-in user.
func (api API) HTTPGetAllUsers() http.HandlerFunc {
	return api.httpEndpoint(api.epGetAllUsers)
}

func (api API) epGetAllUsers(req *http.Request) result.Result {
	user, r, ok := adminOnly(req, "list users")
	if !ok {
		return r
	}

	users, err := api.Backend.GetAllUsers(req.Context())
	if err != nil {
		return result.InternalServerError("%s", err.Error())
	}

	resp := make([]UserModel, len(users))
	grammars := 0
	for i := range users {
		resp[i] = userModel(users[i])
		grammars += users[i].Grammars
	}

	return result.OK(resp, "user '%s' got %d users owning %d grammars", user.Username, len(resp), grammars)
}

// HTTPCreateUser returns a HandlerFunc that creates a user. Only an admin may
// call it. The new user owns no grammars.
//
// The context of the request must contain the logged-in user.
func (api API) HTTPCreateUser() http.HandlerFunc {
	return api.httpEndpoint(api.epCreateUser)
}

func (api API) epCreateUser(req *http.Request) result.Result {
	user, r, ok := adminOnly(req, "create user")
	if !ok {
		return r
	}

	newUser, r, ok := api.createUserFromBody(req)
	if !ok {
		return r
	}

	return result.Created(userModel(newUser), "user '%s' created user '%s' (%s)", user.Username, newUser.Username, newUser.ID)
}

// HTTPGetUser returns a HandlerFunc that gets a user. Users may get
// themselves; admins may get anyone.
//
// The context of the request must contain the ID of the user to get and the
// logged-in user.
func (api API) HTTPGetUser() http.HandlerFunc {
	return api.httpEndpoint(api.epGetUser)
}

func (api API) epGetUser(req *http.Request) result.Result {
	id := requireIDParam(req)
	user, r, ok := api.selfOrAdmin(req, id, "get")
	if !ok {
		return r
	}

	got, err := api.Backend.GetUser(req.Context(), id.String())
	if err != nil {
		return userError(err)
	}

	return result.OK(userModel(got), "user '%s' got %s", user.Username, subject(user, id, got.Username))
}

// HTTPUpdateUser returns a HandlerFunc that changes the fields of a user
// named in a UserUpdateRequest. Users may update themselves; admins may
// update anyone, and only admins may change a role. Grammars owned by the
// user stay with it if its ID changes.
//
// The context of the request must contain the ID of the user to update and
// the logged-in user.
func (api API) HTTPUpdateUser() http.HandlerFunc {
	return api.httpEndpoint(api.epUpdateUser)
}

func (api API) epUpdateUser(req *http.Request) result.Result {
	id := requireIDParam(req)
	user, r, ok := api.selfOrAdmin(req, id, "update")
	if !ok {
		return r
	}

	var upd UserUpdateRequest
	if err := parseJSON(req, &upd); err != nil {
		if errors.Is(err, serr.ErrBodyUnmarshal) {
			var whole UserModel
			if parseJSON(req, &whole) == nil {
				return result.BadRequest("updated fields must be objects with keys {'u': true, 'v': NEW_VALUE}", "request is UserModel, not UserUpdateRequest")
			}
		}
		return result.BadRequest(err.Error(), "%s", err.Error())
	}

	existing, err := api.Backend.GetUser(req.Context(), id.String())
	if err != nil {
		return userError(err)
	}

	role := existing.Role
	if upd.Role.Update {
		if user.Role != dao.Admin {
			return result.Forbidden("user '%s' (role %s) change role: forbidden", user.Username, user.Role)
		}
		if role, err = dao.ParseRole(upd.Role.Value); err != nil {
			return result.BadRequest("role: "+err.Error(), "role: %s", err.Error())
		}
	}

	email := ""
	if existing.Email != nil {
		email = existing.Email.Address
	}
	newID := existing.ID.String()
	username := existing.Username
	upd.Email.apply(&email)
	upd.ID.apply(&newID)
	upd.Username.apply(&username)

	updated, err := api.Backend.UpdateUser(req.Context(), id.String(), newID, username, email, role)
	if err != nil {
		return userError(err)
	}
	if upd.Password.Update {
		if updated, err = api.Backend.UpdatePassword(req.Context(), updated.ID.String(), upd.Password.Value); err != nil {
			return userError(err)
		}
	}

	return result.OK(userModel(updated), "user '%s' updated %s", user.Username, subject(user, id, updated.Username))
}

// HTTPReplaceUser returns a HandlerFunc that creates a user with the ID given
// in the URI. Only an admin may call it.
//
// The context of the request must contain the ID of the user to create and
// the logged-in user.
func (api API) HTTPReplaceUser() http.HandlerFunc {
	return api.httpEndpoint(api.epReplaceUser)
}

func (api API) epReplaceUser(req *http.Request) result.Result {
	id := requireIDParam(req)
	user, r, ok := adminOnly(req, "create user")
	if !ok {
		return r
	}

	if _, err := api.Backend.GetUser(req.Context(), id.String()); err == nil {
		return result.Conflict("a user with that ID already exists", "user %s already exists", id)
	} else if !errors.Is(err, serr.ErrNotFound) {
		return userError(err)
	}

	created, r, ok := api.createUserFromBody(req)
	if !ok {
		return r
	}

	moved, err := api.Backend.UpdateUser(req.Context(), created.ID.String(), id.String(), created.Username, emailOf(created), created.Role)
	if err != nil {
		return userError(err)
	}

	return result.Created(userModel(moved), "user '%s' created user '%s' (%s)", user.Username, moved.Username, moved.ID)
}

// HTTPDeleteUser returns a HandlerFunc that deletes a user and every grammar
// it owns. Users may delete themselves; admins may delete anyone.
//
// The context of the request must contain the ID of the user to delete and
// the logged-in user.
func (api API) HTTPDeleteUser() http.HandlerFunc {
	return api.httpEndpoint(api.epDeleteUser)
}

func (api API) epDeleteUser(req *http.Request) result.Result {
	id := requireIDParam(req)
	user, r, ok := api.selfOrAdmin(req, id, "delete")
	if !ok {
		return r
	}

	deleted, err := api.Backend.DeleteUser(req.Context(), id.String())
	if err != nil && !errors.Is(err, serr.ErrNotFound) {
		return userError(err)
	}

	return result.NoContent("user '%s' deleted %s and %d grammars", user.Username, subject(user, id, deleted.Username), deleted.Grammars)
}

// createUserFromBody creates the user described by the UserModel in the body
// of req. Users without a role in the body are unverified. If it fails, ok is
// false and r is the response to give.
func (api API) createUserFromBody(req *http.Request) (created dao.User, r result.Result, ok bool) {
	var m UserModel
	if err := parseJSON(req, &m); err != nil {
		return created, result.BadRequest(err.Error(), "%s", err.Error()), false
	}
	if m.Username == "" {
		return created, result.BadRequest("username: property is empty or missing from request", "empty username"), false
	}
	if m.Password == "" {
		return created, result.BadRequest("password: property is empty or missing from request", "empty password"), false
	}
	if id := chi.URLParam(req, "id"); m.ID != "" && id != "" && m.ID != id {
		return created, result.BadRequest("id: must be same as ID in URI", "body ID different from URI ID"), false
	}

	role := dao.Unverified
	if m.Role != "" {
		var err error
		if role, err = dao.ParseRole(m.Role); err != nil {
			return created, result.BadRequest("role: "+err.Error(), "role: %s", err.Error()), false
		}
	}

	created, err := api.Backend.CreateUser(req.Context(), m.Username, m.Password, m.Email, role)
	if err != nil {
		return created, userError(err), false
	}
	return created, result.Result{}, true
}

// apply sets *dest to the new value if us asks for an update.
func (us UpdateString) apply(dest *string) {
	if us.Update {
		*dest = us.Value
	}
}

func emailOf(u dao.User) string {
	if u.Email == nil {
		return ""
	}
	return u.Email.Address
}
