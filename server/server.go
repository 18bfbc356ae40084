// Package server provides the remora REST server. It stores grammars for its
// users and generates parsers from them or parses input with them on request.
//
// The API is served under /api/v1:
//
//	POST   /login                   - accepts user and password and returns a jwt.
//	DELETE /login/{id}              - ends the login of a user, invalidating their tokens.
//	POST   /tokens                  - refreshes the token without requiring credentials.
//	GET    /users                   - get all users (admin only).
//	POST   /users                   - create a new user (admin only).
//	GET    /users/{id}              - get info on a user.
//	PUT    /users/{id}              - replace a user (admin only).
//	PATCH  /users/{id}              - update a user.
//	DELETE /users/{id}              - delete a user and their grammars.
//	GET    /grammars                - get the grammars of the user (all of them for admins).
//	POST   /grammars                - store a new grammar.
//	GET    /grammars/{id}           - get a grammar and its source.
//	DELETE /grammars/{id}           - delete a grammar.
//	POST   /grammars/{id}/generate  - generate the Go source of a parser for a grammar.
//	POST   /grammars/{id}/parse     - parse input with a grammar.
//	GET    /info                    - get version info on the server.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dekarrin/remora/internal/logging"
	"github.com/dekarrin/remora/server/api"
	"github.com/dekarrin/remora/server/dao"
	"github.com/dekarrin/remora/server/rmsvc"
)

// RemoraServer is an HTTP REST server that stores grammars and generates
// parsers from them. The zero-value of a RemoraServer should not be used
// directly; call New() to get one ready for use.
type RemoraServer struct {
	router http.Handler
	db     dao.Store
	api    api.API
	log    logging.Logger
	cfg    Config
}

// New creates a new RemoraServer from cfg. Unset values of cfg are given their
// defaults. The configured database is connected to and the admin user is
// created in it if it does not yet exist. A nil log discards everything.
func New(cfg Config, log logging.Logger) (*RemoraServer, error) {
	cfg = cfg.FillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if log == nil {
		log = logging.NewNop()
	}

	db, err := cfg.DB.Connect()
	if err != nil {
		return nil, fmt.Errorf("connect DB: %w", err)
	}

	rs := &RemoraServer{
		db:  db,
		log: log,
		cfg: cfg,
		api: api.API{
			Backend: rmsvc.Service{
				DB:           db,
				Log:          log.With("component", "service"),
				PasswordCost: cfg.PasswordCost,
			},
			UnauthDelay: cfg.UnauthDelay(),
			Secret:      cfg.TokenSecret,
			Log:         log.With("component", "api"),
		},
	}
	rs.router = newRouter(rs.api)

	created, err := rs.api.Backend.EnsureAdmin(context.Background(), cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create initial admin user: %w", err)
	}
	if created {
		log.Info("added initial admin user", "username", cfg.AdminUsername)
	}

	return rs, nil
}

// Service returns the backend service of the server for direct use.
func (rs *RemoraServer) Service() rmsvc.Service {
	return rs.api.Backend
}

// ServeHTTP routes a request to the API.
func (rs *RemoraServer) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	rs.router.ServeHTTP(w, req)
}

// ServeForever begins listening on the given address and port for HTTP REST
// client requests. If address is kept as "", it will default to "localhost". If
// port is less than 1, it will default to 8080. It returns only when the
// listener fails.
func (rs *RemoraServer) ServeForever(address string, port int) error {
	if address == "" {
		address = "localhost"
	}
	if port < 1 {
		port = 8080
	}

	listenAddress := fmt.Sprintf("%s:%d", address, port)
	srv := &http.Server{
		Addr:              listenAddress,
		Handler:           rs,
		ReadHeaderTimeout: 10 * time.Second,
	}

	rs.log.Info("listening", "address", listenAddress)
	return srv.ListenAndServe()
}

// Close closes the connection to the database.
func (rs *RemoraServer) Close() error {
	return rs.db.Close()
}
