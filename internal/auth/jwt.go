// Package auth issues and validates signed session tokens.
//
// Tokens are stateless: nothing is persisted when one is minted, and there
// is no revocation list. A token stays valid until its expiry no matter
// what happens server-side. That is a known scope limitation of this
// system, not an oversight.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/isdelr/auth-api/internal/config"
)

// CookieName is the name of the session cookie carrying the token.
const CookieName = "token"

// UserClaimsKey is the context key for user claims.
type contextKey string

const UserClaimsKey = contextKey("userClaims")

// Issuer mints and validates HS256 session tokens. Secret and lifetime
// come from configuration; issuing a token touches no storage.
type Issuer struct {
	secret []byte
	expire time.Duration
}

// NewIssuer creates an Issuer from the application configuration.
func NewIssuer(cfg *config.Config) *Issuer {
	return &Issuer{
		secret: []byte(cfg.JWTSecret),
		expire: cfg.JWTExpire,
	}
}

// Issue creates a new signed token whose subject is the given user ID.
func (i *Issuer) Issue(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.expire)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Validate parses a token string and verifies its signature and expiry.
func (i *Issuer) Validate(tokenStr string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// Middleware creates a middleware for protecting routes. It accepts the
// token from the Authorization header or, failing that, the session cookie.
func (i *Issuer) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var tokenStr string

			// 1. Try to get the token from the Authorization header
			authHeader := r.Header.Get("Authorization")
			if authHeader != "" {
				parts := strings.Split(authHeader, "Bearer ")
				if len(parts) == 2 {
					tokenStr = parts[1]
				}
			}

			// 2. If not in header, fall back to the cookie
			if tokenStr == "" {
				cookie, err := r.Cookie(CookieName)
				if err != nil {
					http.Error(w, "Missing auth token", http.StatusUnauthorized)
					return
				}
				tokenStr = cookie.Value
			}

			// 3. Validate the token
			claims, err := i.Validate(tokenStr)
			if err != nil {
				http.Error(w, "Invalid auth token", http.StatusUnauthorized)
				return
			}

			// 4. Pass claims down via context
			ctx := context.WithValue(r.Context(), UserClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
