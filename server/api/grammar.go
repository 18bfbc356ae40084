package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dekarrin/remora"
	"github.com/dekarrin/remora/server/dao"
	"github.com/dekarrin/remora/server/middle"
	"github.com/dekarrin/remora/server/result"
	"github.com/dekarrin/remora/server/rmsvc"
	"github.com/dekarrin/remora/server/serr"
	"github.com/dekarrin/remora/server/token"
	"github.com/google/uuid"
)

// HTTPGetAllGrammars returns a HandlerFunc that lists the grammars the token
// of the client allows acting on: every grammar for admins and their own for
// other users. The "owner" query parameter narrows the list to the grammars
// of one user, which must be allowed by the token.
//
// The context of the request must contain the logged-in user and the scope of
// its token.
func (api API) HTTPGetAllGrammars() http.HandlerFunc {
	return api.httpEndpoint(api.epGetAllGrammars)
}

func (api API) epGetAllGrammars(req *http.Request) result.Result {
	user := middle.User(req)
	scope := middle.Scope(req)

	owner := user.ID
	filtered := false
	if ownerStr := req.URL.Query().Get("owner"); ownerStr != "" {
		var err error
		if owner, err = uuid.Parse(ownerStr); err != nil {
			return result.BadRequest("owner: not a valid user ID", "owner %q: %s", ownerStr, err.Error())
		}
		if !scope.Allows(user, owner) {
			return result.Forbidden("user '%s' (scope %s) list grammars of %s: forbidden", user.Username, scope, owner)
		}
		filtered = true
	}

	var all []dao.Grammar
	var err error
	if scope == token.ScopeAllGrammars && !filtered {
		all, err = api.Backend.GetAllGrammars(req.Context())
	} else {
		all, err = api.Backend.GetGrammarsByOwner(req.Context(), owner)
	}
	if err != nil {
		return result.InternalServerError("%s", err.Error())
	}

	resp := make([]GrammarModel, len(all))
	for i := range all {
		resp[i] = grammarModel(all[i], false)
	}

	return result.OK(resp, "user '%s' got %d grammars", user.Username, len(resp))
}

// HTTPCreateGrammar returns a HandlerFunc that stores a new grammar owned by
// the logged-in user. The body is either a GrammarCreateRequest as JSON or
// the grammar source as text/plain with the name given in the "name" query
// parameter.
//
// The handler has requirements for the request context it receives, and if the
// requirements are not met it may return an HTTP-500. The context must contain
// the logged-in user of the client making the request.
func (api API) HTTPCreateGrammar() http.HandlerFunc {
	return api.httpEndpoint(api.epCreateGrammar)
}

func (api API) epCreateGrammar(req *http.Request) result.Result {
	user := middle.User(req)

	var createReq GrammarCreateRequest
	if strings.HasPrefix(strings.ToLower(req.Header.Get("Content-Type")), "text/plain") {
		src, err := readBody(req, "text/plain")
		if err != nil {
			return result.BadRequest(err.Error(), err.Error())
		}
		createReq.Name = req.URL.Query().Get("name")
		createReq.Source = string(src)
	} else {
		if err := parseJSON(req, &createReq); err != nil {
			return result.BadRequest(err.Error(), err.Error())
		}
	}

	if createReq.Name == "" {
		return result.BadRequest("name: property is empty or missing from request", "empty name")
	}
	if strings.TrimSpace(createReq.Source) == "" {
		return result.BadRequest("source: property is empty or missing from request", "empty source")
	}

	g, err := api.Backend.CreateGrammar(req.Context(), user.ID, createReq.Name, createReq.Source)
	if err != nil {
		if errors.Is(err, serr.ErrGrammar) {
			return result.UnprocessableEntity(grammarErrorMessage(err), "grammar '%s': %s", createReq.Name, err.Error())
		} else if errors.Is(err, serr.ErrBadArgument) {
			return result.BadRequest(err.Error(), err.Error())
		}
		return result.InternalServerError(err.Error())
	}

	return result.Created(grammarModel(g, true), "user '%s' created grammar '%s' (%s)", user.Username, g.Name, g.ID)
}

// HTTPGetGrammar returns a HandlerFunc that gets a stored grammar along with
// its source. Users may get their own grammars; admins may get any.
//
// The handler has requirements for the request context it receives, and if the
// requirements are not met it may return an HTTP-500. The context must contain
// the ID of the grammar and the logged-in user of the client making the
// request.
func (api API) HTTPGetGrammar() http.HandlerFunc {
	return api.httpEndpoint(api.epGetGrammar)
}

func (api API) epGetGrammar(req *http.Request) result.Result {
	g, user, r, ok := api.ownedGrammar(req, "get")
	if !ok {
		return r
	}

	return result.OK(grammarModel(g, true), "user '%s' got grammar '%s'", user.Username, g.Name)
}

// HTTPDeleteGrammar returns a HandlerFunc that deletes a stored grammar.
// Users may delete their own grammars; admins may delete any.
//
// The handler has requirements for the request context it receives, and if the
// requirements are not met it may return an HTTP-500. The context must contain
// the ID of the grammar and the logged-in user of the client making the
// request.
func (api API) HTTPDeleteGrammar() http.HandlerFunc {
	return api.httpEndpoint(api.epDeleteGrammar)
}

func (api API) epDeleteGrammar(req *http.Request) result.Result {
	g, user, r, ok := api.ownedGrammar(req, "delete")
	if !ok {
		return r
	}

	_, err := api.Backend.DeleteGrammar(req.Context(), g.ID.String())
	if err != nil && !errors.Is(err, serr.ErrNotFound) {
		return result.InternalServerError("could not delete grammar: " + err.Error())
	}

	return result.NoContent("user '%s' deleted grammar '%s'", user.Username, g.Name)
}

// HTTPGenerateParser returns a HandlerFunc that generates the Go source of a
// parser for a stored grammar. The body is a GenerateRequest; an empty body
// uses the default options. The response is the source as text/plain.
//
// The handler has requirements for the request context it receives, and if the
// requirements are not met it may return an HTTP-500. The context must contain
// the ID of the grammar and the logged-in user of the client making the
// request.
func (api API) HTTPGenerateParser() http.HandlerFunc {
	return api.httpEndpoint(api.epGenerateParser)
}

func (api API) epGenerateParser(req *http.Request) result.Result {
	g, user, r, ok := api.ownedGrammar(req, "generate")
	if !ok {
		return r
	}

	var genReq GenerateRequest
	if req.ContentLength != 0 {
		if err := parseJSON(req, &genReq); err != nil {
			return result.BadRequest(err.Error(), err.Error())
		}
	}

	src, err := api.Backend.GenerateParser(req.Context(), g.ID.String(), genReq.options())
	if err != nil {
		if errors.Is(err, serr.ErrBadArgument) {
			return result.BadRequest(err.Error(), err.Error())
		} else if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}

	return result.Text(string(src), "user '%s' generated parser for grammar '%s'", user.Username, g.Name)
}

// HTTPParseInput returns a HandlerFunc that parses input with a stored
// grammar without generating a parser. Rejected input is not an HTTP error;
// the response reports it.
//
// The handler has requirements for the request context it receives, and if the
// requirements are not met it may return an HTTP-500. The context must contain
// the ID of the grammar and the logged-in user of the client making the
// request.
func (api API) HTTPParseInput() http.HandlerFunc {
	return api.httpEndpoint(api.epParseInput)
}

func (api API) epParseInput(req *http.Request) result.Result {
	g, user, r, ok := api.ownedGrammar(req, "parse with")
	if !ok {
		return r
	}

	var parseReq ParseRequest
	if err := parseJSON(req, &parseReq); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}

	outcome, err := api.Backend.ParseInput(req.Context(), g.ID.String(), rmsvc.ParseRequest{
		Input:      parseReq.Input,
		Rule:       parseReq.Rule,
		Backtrack:  parseReq.Backtrack,
		Debug:      parseReq.Debug,
		Whitespace: parseReq.Whitespace,
	})
	if err != nil {
		if errors.Is(err, serr.ErrBadArgument) {
			return result.BadRequest(err.Error(), err.Error())
		} else if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}

	resp := ParseResponse{Accepted: outcome.Accepted}
	if len(outcome.Trace) > 0 {
		resp.Trace = outcome.Trace
	}
	if outcome.Accepted {
		resp.Value = valueModel(outcome.Value)
		return result.OK(resp, "user '%s' parsed input with grammar '%s': accepted", user.Username, g.Name)
	}

	resp.Error = failureModel(outcome.Failure, parseReq.Input)
	return result.OK(resp, "user '%s' parsed input with grammar '%s': rejected", user.Username, g.Name)
}

// ownedGrammar gets the grammar named by the id URL parameter and checks that
// the scope of the token of the client allows acting on it. If not, ok is false and r is the response
// to give.
func (api API) ownedGrammar(req *http.Request, action string) (g dao.Grammar, user dao.User, r result.Result, ok bool) {
	id := requireIDParam(req)
	user = middle.User(req)

	g, err := api.Backend.GetGrammar(req.Context(), id.String())
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return g, user, result.NotFound(), false
		}
		return g, user, result.InternalServerError("could not get grammar: " + err.Error()), false
	}

	if scope := middle.Scope(req); !scope.Allows(user, g.Owner) {
		return g, user, result.Forbidden("user '%s' (scope %s) %s grammar %s: forbidden", user.Username, scope, action, id), false
	}

	return g, user, result.Result{}, true
}

// grammarErrorMessage gives the user-facing text of a rejected grammar,
// including the offending line for syntax errors.
func grammarErrorMessage(err error) string {
	var srcErr *remora.SourceError
	if errors.As(err, &srcErr) {
		return srcErr.FullMessage()
	}
	return err.Error()
}

func (gr GenerateRequest) options() remora.Options {
	opts := remora.DefaultOptions()

	setString := func(dest *string, src *string) {
		if src != nil {
			*dest = *src
		}
	}

	if gr.Backtrack != nil {
		opts.Backtrack = *gr.Backtrack
	}
	setString(&opts.Package, gr.Package)
	setString(&opts.Entry, gr.Entry)
	setString(&opts.Whitespace, gr.Whitespace)
	setString(&opts.FuncPrefix, gr.FuncPrefix)
	setString(&opts.FuncSuffix, gr.FuncSuffix)
	setString(&opts.RulePrefix, gr.RulePrefix)
	setString(&opts.RuleSuffix, gr.RuleSuffix)
	setString(&opts.CodePrefix, gr.CodePrefix)
	setString(&opts.CodeSuffix, gr.CodeSuffix)
	setString(&opts.Template, gr.Template)

	return opts
}
