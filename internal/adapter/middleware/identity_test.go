package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"p2plend/internal/domain/identity"
)

func runIdentity(t *testing.T, authHeader string) (*httptest.ResponseRecorder, identity.Caller) {
	t.Helper()
	e := echo.New()
	var got identity.Caller
	h := Identity(testSecret)(func(c echo.Context) error {
		got, _ = CallerFrom(c)
		return c.NoContent(http.StatusNoContent)
	})
	req := httptest.NewRequest(http.MethodGet, "/wallets/me", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	return rec, got
}

func TestIdentity_ValidToken(t *testing.T) {
	tok, err := IssueToken(testSecret, identity.Caller{ID: "u-1", Role: identity.RoleAdmin, Email: "a@b.io"}, time.Hour)
	require.NoError(t, err)

	rec, caller := runIdentity(t, "Bearer "+tok)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, identity.Caller{ID: "u-1", Role: identity.RoleAdmin, Email: "a@b.io"}, caller)
}

func TestIdentity_DefaultsRoleToUser(t *testing.T) {
	tok, err := IssueToken(testSecret, identity.Caller{ID: "u-2"}, time.Hour)
	require.NoError(t, err)

	_, caller := runIdentity(t, "Bearer "+tok)
	assert.Equal(t, identity.RoleUser, caller.Role)
}

func TestIdentity_Rejections(t *testing.T) {
	expired, err := IssueToken(testSecret, identity.Caller{ID: "u-1"}, -time.Minute)
	require.NoError(t, err)
	foreign, err := IssueToken([]byte("other-secret"), identity.Caller{ID: "u-1"}, time.Hour)
	require.NoError(t, err)
	noSubject, err := IssueToken(testSecret, identity.Caller{}, time.Hour)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := map[string]string{
		"missing header": "",
		"not bearer":     "Basic dXNlcjpwYXNz",
		"garbage":        "Bearer not.a.token",
		"expired":        "Bearer " + expired,
		"wrong secret":   "Bearer " + foreign,
		"no subject":     "Bearer " + noSubject,
		"alg none":       "Bearer " + none,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			rec, _ := runIdentity(t, header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}
