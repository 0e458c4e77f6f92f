package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"

	"p2plend/internal/domain/identity"
)

const callerKey = "caller"

// Claims carried in the bearer token. Subject is the caller id.
type Claims struct {
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for c. Used by tooling and tests.
func IssueToken(secret []byte, c identity.Caller, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role:  c.Role,
		Email: c.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// parseClaims verifies an HMAC-signed token and returns its claims.
func parseClaims(secret []byte, raw string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}
	return &claims, nil
}

// Identity authenticates the bearer token and stores the caller on the context.
func Identity(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if auth == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing Authorization header"})
			}
			raw, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid Authorization header format"})
			}

			claims, err := parseClaims(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid or expired token"})
			}
			if claims.Subject == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "token has no subject"})
			}

			role := claims.Role
			if role == "" {
				role = identity.RoleUser
			}
			c.Set(callerKey, identity.Caller{ID: claims.Subject, Role: role, Email: claims.Email})
			return next(c)
		}
	}
}

// CallerFrom returns the caller stored by Identity.
func CallerFrom(c echo.Context) (identity.Caller, bool) {
	v, ok := c.Get(callerKey).(identity.Caller)
	return v, ok
}

// WithCaller stores a caller directly; handler tests use it in place of Identity.
func WithCaller(c echo.Context, caller identity.Caller) {
	c.Set(callerKey, caller)
}
