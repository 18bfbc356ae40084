// Package rmsvc has services for interacting with the remora server backend
// decoupled from the API that accesses it.
package rmsvc

import (
	"encoding/base64"

	"github.com/dekarrin/remora/internal/logging"
	"github.com/dekarrin/remora/server/dao"
	"github.com/dekarrin/remora/server/serr"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPasswordCost is the bcrypt cost used when Service.PasswordCost is
// not set.
const DefaultPasswordCost = 14

// Service is a service for interacting with and modifying the remora server
// backend. It performs the actions requested and makes calls to server
// persistence to preserve the backend state.
//
// The zero-value of Service is not ready to be used; assign a valid DAO store
// to DB before attempting to use it.
type Service struct {

	// DB is the persistence store of the service.
	DB dao.Store

	// Log receives generation and parse debug output. Nil logs nothing.
	Log logging.Logger

	// PasswordCost is the bcrypt cost of stored password hashes. Zero means
	// DefaultPasswordCost.
	PasswordCost int
}

func (svc Service) logger() logging.Logger {
	if svc.Log == nil {
		return logging.NewNop()
	}
	return svc.Log
}

// hashPassword gives the stored form of password.
func (svc Service) hashPassword(password string) (string, error) {
	cost := svc.PasswordCost
	if cost == 0 {
		cost = DefaultPasswordCost
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		if err == bcrypt.ErrPasswordTooLong {
			return "", serr.New("password is too long", err, serr.ErrBadArgument)
		}
		return "", serr.New("password could not be encrypted", err)
	}

	return base64.StdEncoding.EncodeToString(passHash), nil
}
