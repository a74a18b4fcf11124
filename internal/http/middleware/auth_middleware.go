package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/shopvio/shop-session-service/internal/http/response"
	"github.com/shopvio/shop-session-service/internal/observability"
	"github.com/shopvio/shop-session-service/internal/security"
)

type contextKey string

const (
	ClaimsContextKey contextKey = "claims"
	TokenContextKey  contextKey = "token"
)

// AuthMiddleware validates the bearer token by signature and expiry alone; no
// store lookup happens here. Handlers that need the user record resolve it
// through the auth service.
func AuthMiddleware(jwtMgr *security.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(strings.ToLower(auth), "bearer ") {
				observability.RecordTokenResolution("missing")
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing access token")
				return
			}
			raw := strings.TrimSpace(auth[7:])
			claims, err := jwtMgr.Parse(raw)
			if err != nil {
				if errors.Is(err, security.ErrTokenExpired) {
					observability.RecordTokenResolution("expired")
					response.Error(w, r, http.StatusUnauthorized, "TOKEN_EXPIRED", "access token expired")
					return
				}
				observability.RecordTokenResolution("invalid")
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid access token")
				return
			}
			observability.RecordTokenResolution("valid")
			ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
			ctx = context.WithValue(ctx, TokenContextKey, raw)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ClaimsFromContext(ctx context.Context) (*security.Claims, bool) {
	c, ok := ctx.Value(ClaimsContextKey).(*security.Claims)
	return c, ok
}

func TokenFromContext(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(TokenContextKey).(string)
	return t, ok
}
