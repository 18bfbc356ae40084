package middle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dekarrin/remora/server/dao"
	"github.com/dekarrin/remora/server/dao/inmem"
	"github.com/dekarrin/remora/server/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func Test_AuthHandler(t *testing.T) {
	users := inmem.NewDatastore().Users()
	ctx := context.Background()

	normal, err := users.Create(ctx, dao.User{Username: "ada", Password: "a", Role: dao.Normal})
	require.NoError(t, err)
	admin, err := users.Create(ctx, dao.User{Username: "root", Password: "r", Role: dao.Admin})
	require.NoError(t, err)

	normalTok, err := token.Generate(testSecret, normal)
	require.NoError(t, err)
	adminTok, err := token.Generate(testSecret, admin)
	require.NoError(t, err)

	guest := dao.User{Username: "guest"}

	testCases := []struct {
		name         string
		required     bool
		header       string
		expectStatus int
		expectUser   string
		expectScope  token.Scope
		expectLogged bool
	}{
		{
			name:         "required, normal user",
			required:     true,
			header:       "Bearer " + normalTok,
			expectStatus: http.StatusOK,
			expectUser:   "ada",
			expectScope:  token.ScopeOwnGrammars,
			expectLogged: true,
		},
		{
			name:         "required, admin",
			required:     true,
			header:       "Bearer " + adminTok,
			expectStatus: http.StatusOK,
			expectUser:   "root",
			expectScope:  token.ScopeAllGrammars,
			expectLogged: true,
		},
		{
			name:         "required, no token",
			required:     true,
			expectStatus: http.StatusUnauthorized,
		},
		{
			name:         "required, bad token",
			required:     true,
			header:       "Bearer not.a.token",
			expectStatus: http.StatusUnauthorized,
		},
		{
			name:         "optional, no token",
			expectStatus: http.StatusOK,
			expectUser:   "guest",
		},
		{
			name:         "optional, bad token",
			header:       "Bearer not.a.token",
			expectStatus: http.StatusOK,
			expectUser:   "guest",
		},
		{
			name:         "optional, valid token",
			header:       "Bearer " + normalTok,
			expectStatus: http.StatusOK,
			expectUser:   "ada",
			expectScope:  token.ScopeOwnGrammars,
			expectLogged: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			mw := OptionalAuth(users, testSecret, 0, guest)
			if tc.required {
				mw = RequireAuth(users, testSecret, 0, guest)
			}

			called := false
			var gotUser dao.User
			var gotScope token.Scope
			var gotLogged bool
			h := mw(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				called = true
				gotUser = User(req)
				gotScope = Scope(req)
				gotLogged = LoggedIn(req)
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(tc.expectStatus, w.Code)
			if tc.expectStatus != http.StatusOK {
				assert.False(called)
				assert.NotEmpty(w.Header().Get("WWW-Authenticate"))
				return
			}
			assert.True(called)
			assert.Equal(tc.expectUser, gotUser.Username)
			assert.Equal(tc.expectScope, gotScope)
			assert.Equal(tc.expectLogged, gotLogged)
		})
	}
}
