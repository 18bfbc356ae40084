// Package token issues and validates the JWTs that authenticate clients of
// the remora server.
package token

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dekarrin/remora/server/dao"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer is the iss claim of every token the server creates.
const Issuer = "rms"

// Lifetime is how long a token is valid after it is issued.
const Lifetime = time.Hour

// Scope is the scope claim of a token. It says which grammars the holder may
// act on.
type Scope string

const (
	// ScopeOwnGrammars allows acting only on grammars the holder owns.
	ScopeOwnGrammars Scope = "grammars:own"

	// ScopeAllGrammars allows acting on every grammar.
	ScopeAllGrammars Scope = "grammars:all"
)

// ScopeFor gives the scope a token issued to a user with the given role
// carries.
func ScopeFor(role dao.Role) Scope {
	if role == dao.Admin {
		return ScopeAllGrammars
	}
	return ScopeOwnGrammars
}

// Allows returns whether the holder of a token with scope s, logged in as
// user, may act on a grammar owned by owner.
func (s Scope) Allows(user dao.User, owner uuid.UUID) bool {
	return s == ScopeAllGrammars || (s == ScopeOwnGrammars && owner == user.ID)
}

// Validate parses tok and checks that it was issued for a user that still
// exists and has not logged out since, and that its scope still matches the
// user's role. The user it was issued for and its scope are returned.
func Validate(ctx context.Context, tok string, secret []byte, db dao.UserRepository) (dao.User, Scope, error) {
	var user dao.User

	parsed, err := jwt.Parse(tok, func(t *jwt.Token) (interface{}, error) {
		// who is the user? we need this for further verification
		subj, err := t.Claims.GetSubject()
		if err != nil {
			return nil, fmt.Errorf("cannot get subject: %w", err)
		}

		id, err := uuid.Parse(subj)
		if err != nil {
			return nil, fmt.Errorf("cannot parse subject UUID: %w", err)
		}

		user, err = db.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, dao.ErrNotFound) {
				return nil, fmt.Errorf("subject does not exist")
			}
			return nil, fmt.Errorf("subject could not be validated")
		}

		return signingKey(secret, user), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}), jwt.WithIssuer(Issuer), jwt.WithLeeway(time.Minute))

	if err != nil {
		return dao.User{}, "", err
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return dao.User{}, "", fmt.Errorf("unexpected claims type %T", parsed.Claims)
	}
	scopeStr, _ := claims["scope"].(string)
	scope := Scope(scopeStr)
	if scope != ScopeFor(user.Role) {
		return dao.User{}, "", fmt.Errorf("token scope %q does not match role %s", scopeStr, user.Role)
	}

	return user, scope, nil
}

// Get returns the bearer token in the Authorization header of req.
func Get(req *http.Request) (string, error) {
	authHeader := strings.TrimSpace(req.Header.Get("Authorization"))

	if authHeader == "" {
		return "", fmt.Errorf("no authorization header present")
	}

	authParts := strings.SplitN(authHeader, " ", 2)
	if len(authParts) != 2 {
		return "", fmt.Errorf("authorization header not in Bearer format")
	}

	scheme := strings.TrimSpace(strings.ToLower(authParts[0]))
	token := strings.TrimSpace(authParts[1])

	if scheme != "bearer" {
		return "", fmt.Errorf("authorization header not in Bearer format")
	}

	return token, nil
}

// Generate creates a signed token for u scoped by its role. It stops
// validating when u changes password, logs out or changes role.
func Generate(secret []byte, u dao.User) (string, error) {
	claims := &jwt.MapClaims{
		"iss":   Issuer,
		"exp":   time.Now().Add(Lifetime).Unix(),
		"sub":   u.ID.String(),
		"scope": string(ScopeFor(u.Role)),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)

	tokStr, err := tok.SignedString(signingKey(secret, u))
	if err != nil {
		return "", err
	}
	return tokStr, nil
}

func signingKey(secret []byte, u dao.User) []byte {
	var signKey []byte
	signKey = append(signKey, secret...)
	signKey = append(signKey, []byte(u.Password)...)
	signKey = append(signKey, []byte(fmt.Sprintf("%d", u.LastLogoutTime.Unix()))...)
	return signKey
}
