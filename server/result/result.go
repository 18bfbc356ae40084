// Package result has the values API endpoints return to describe the HTTP
// response to write.
//
// Every constructor takes an optional internal message that is logged but not
// shown to the client. When given, its first element is a format string and
// the rest are its arguments.
package result

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorResponse is the JSON body of every error Result.
type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// internalMsg formats the optional internal message args, using def when none
// is given.
func internalMsg(def string, args []interface{}) string {
	if len(args) < 1 {
		return def
	}
	return fmt.Sprintf(args[0].(string), args[1:]...)
}

// OK is an HTTP-200 with respObj as the JSON body.
func OK(respObj interface{}, internal ...interface{}) Result {
	return Response(http.StatusOK, respObj, "%s", internalMsg("OK", internal))
}

// Text is an HTTP-200 with body written as-is as text/plain, used for
// generated source.
func Text(body string, internal ...interface{}) Result {
	return Result{
		Status:      http.StatusOK,
		InternalMsg: internalMsg("OK", internal),
		resp:        body,
	}
}

// NoContent is an HTTP-204.
func NoContent(internal ...interface{}) Result {
	return Response(http.StatusNoContent, nil, "%s", internalMsg("no content", internal))
}

// Created is an HTTP-201 with respObj as the JSON body.
func Created(respObj interface{}, internal ...interface{}) Result {
	return Response(http.StatusCreated, respObj, "%s", internalMsg("created", internal))
}

// Conflict is an HTTP-409 showing userMsg to the client.
func Conflict(userMsg string, internal ...interface{}) Result {
	return Err(http.StatusConflict, userMsg, "%s", internalMsg("conflict", internal))
}

// BadRequest is an HTTP-400 showing userMsg to the client.
func BadRequest(userMsg string, internal ...interface{}) Result {
	return Err(http.StatusBadRequest, userMsg, "%s", internalMsg("bad request", internal))
}

// UnprocessableEntity is an HTTP-422 showing userMsg to the client. It is for
// well-formed requests whose content cannot be used, such as grammar source
// with a syntax error.
func UnprocessableEntity(userMsg string, internal ...interface{}) Result {
	return Err(http.StatusUnprocessableEntity, userMsg, "%s", internalMsg("unprocessable entity", internal))
}

// MethodNotAllowed is an HTTP-405 for req.
func MethodNotAllowed(req *http.Request, internal ...interface{}) Result {
	userMsg := fmt.Sprintf("Method %s is not allowed for %s", req.Method, req.URL.Path)
	return Err(http.StatusMethodNotAllowed, userMsg, "%s", internalMsg("method not allowed", internal))
}

// NotFound is an HTTP-404.
func NotFound(internal ...interface{}) Result {
	return Err(http.StatusNotFound, "The requested resource was not found", "%s", internalMsg("not found", internal))
}

// Forbidden is an HTTP-403.
func Forbidden(internal ...interface{}) Result {
	return Err(http.StatusForbidden, "You don't have permission to do that", "%s", internalMsg("forbidden", internal))
}

// Unauthorized is an HTTP-401 with a WWW-Authenticate header asking for a
// bearer token. An empty userMsg gets a generic one.
func Unauthorized(userMsg string, internal ...interface{}) Result {
	if userMsg == "" {
		userMsg = "You are not authorized to do that"
	}

	return Err(http.StatusUnauthorized, userMsg, "%s", internalMsg("unauthorized", internal)).
		WithHeader("WWW-Authenticate", `Bearer realm="remora server", charset="utf-8"`)
}

// InternalServerError is an HTTP-500. The client only ever sees a generic
// message.
func InternalServerError(internal ...interface{}) Result {
	return Err(http.StatusInternalServerError, "An internal server error occurred", "%s", internalMsg("internal server error", internal))
}

// Response is a JSON Result with the given status. respObj is not read for an
// HTTP-204 and must not be nil otherwise.
func Response(status int, respObj interface{}, internalMsg string, v ...interface{}) Result {
	return Result{
		IsJSON:      true,
		Status:      status,
		InternalMsg: fmt.Sprintf(internalMsg, v...),
		resp:        respObj,
	}
}

// Err is a JSON error Result with the given status whose body is an
// ErrorResponse carrying userMsg.
func Err(status int, userMsg, internalMsg string, v ...interface{}) Result {
	return Result{
		IsJSON:      true,
		IsErr:       true,
		Status:      status,
		InternalMsg: fmt.Sprintf(internalMsg, v...),
		resp: ErrorResponse{
			Error:  userMsg,
			Status: status,
		},
	}
}

// Redirection is an HTTP-308 to uri.
func Redirection(uri string) Result {
	return Result{
		Status:      http.StatusPermanentRedirect,
		InternalMsg: "redirect -> " + uri,
		redir:       uri,
	}
}

// TextErr is like Err but writes userMsg as plain text. It is the fallback
// when a JSON body cannot be produced.
func TextErr(status int, userMsg, internalMsg string, v ...interface{}) Result {
	return Result{
		IsErr:       true,
		Status:      status,
		InternalMsg: fmt.Sprintf(internalMsg, v...),
		resp:        userMsg,
	}
}

// Result is a response an endpoint has decided on but not yet written.
type Result struct {
	Status      int
	IsErr       bool
	IsJSON      bool
	InternalMsg string

	resp  interface{}
	redir string
	hdrs  [][2]string

	respJSONBytes []byte
}

// WithHeader returns a copy of r that also sets the given header. r is not
// modified.
func (r Result) WithHeader(name, val string) Result {
	cp := r
	cp.respJSONBytes = nil
	cp.hdrs = make([][2]string, len(r.hdrs), len(r.hdrs)+1)
	copy(cp.hdrs, r.hdrs)
	cp.hdrs = append(cp.hdrs, [2]string{name, val})
	return cp
}

// PrepareMarshaledResponse marshals the JSON body of r ahead of writing it so
// that a marshaling failure can still be answered with a different Result.
// It does nothing if r has no JSON body or was already prepared.
func (r *Result) PrepareMarshaledResponse() error {
	if r.respJSONBytes != nil || !r.hasJSONBody() {
		return nil
	}

	var err error
	r.respJSONBytes, err = json.Marshal(r.resp)
	return err
}

func (r Result) hasJSONBody() bool {
	return r.IsJSON && r.Status != http.StatusNoContent && r.redir == ""
}

// WriteResponse writes the status, headers and body of r to w. It panics if r
// was never populated or its body cannot be marshaled.
func (r Result) WriteResponse(w http.ResponseWriter) {
	if r.Status == 0 {
		panic("result not populated")
	}

	if err := r.PrepareMarshaledResponse(); err != nil {
		panic(fmt.Sprintf("could not marshal response: %s", err.Error()))
	}

	var body []byte
	if r.IsJSON {
		w.Header().Set("Content-Type", "application/json")
		body = r.respJSONBytes
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if r.Status != http.StatusNoContent && r.redir == "" {
			body = []byte(fmt.Sprintf("%v", r.resp))
		}
	}
	w.Header().Set("X-Content-Type-Options", "nosniff")

	if r.redir != "" {
		w.Header().Set("Location", r.redir)
	}
	for _, h := range r.hdrs {
		w.Header().Set(h[0], h[1])
	}

	w.WriteHeader(r.Status)

	if r.Status != http.StatusNoContent && len(body) > 0 {
		w.Write(body)
	}
}
