package rmsvc

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"github.com/dekarrin/remora/server/dao"
	"github.com/dekarrin/remora/server/serr"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Login returns the user with the given username if password is theirs and
// records the time of the login. An unknown username and a wrong password
// both give an error matching serr.ErrBadCredentials.
func (svc Service) Login(ctx context.Context, username string, password string) (dao.User, error) {
	user, err := svc.DB.Users().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.User{}, serr.ErrBadCredentials
		}
		return dao.User{}, serr.WrapDB("", err)
	}
	if err := checkPassword(user.Password, password); err != nil {
		return dao.User{}, err
	}

	user.LastLoginTime = time.Now()
	user, err = svc.DB.Users().Update(ctx, user.ID, user)
	if err != nil {
		return dao.User{}, serr.WrapDB("cannot update user login time", err)
	}

	svc.logger().Debug("user logged in", "user", user.Username, "grammars", user.Grammars)
	return user, nil
}

// checkPassword returns serr.ErrBadCredentials unless password hashes to
// stored, a base64 bcrypt hash made by Service.hashPassword.
func checkPassword(stored, password string) error {
	hash, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return serr.New("stored password is corrupt", err)
	}

	err = bcrypt.CompareHashAndPassword(hash, []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return serr.ErrBadCredentials
	} else if err != nil {
		return serr.New("password could not be checked", err)
	}
	return nil
}

// Logout records that the user with the given ID logged out, which makes
// every token issued to it before now invalid.
func (svc Service) Logout(ctx context.Context, who uuid.UUID) (dao.User, error) {
	existing, err := svc.lookupUser(ctx, who)
	if err != nil {
		return dao.User{}, err
	}

	existing.LastLogoutTime = time.Now()

	updated, err := svc.DB.Users().Update(ctx, existing.ID, existing)
	if err != nil {
		return dao.User{}, serr.WrapDB("could not update user", err)
	}

	svc.logger().Debug("user logged out", "user", updated.Username)
	return updated, nil
}
