package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopvio/shop-session-service/internal/domain"
	"github.com/shopvio/shop-session-service/internal/security"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestJWTManager() *security.JWTManager {
	return security.NewJWTManager("shop-session-service", testSecret)
}

func issueTestToken(t *testing.T, mgr *security.JWTManager, ttl time.Duration) string {
	t.Helper()
	token, _, err := mgr.Issue(&domain.User{
		ID:          1,
		PhoneNumber: "0900000001",
		Role:        domain.Role{ID: 1, Name: domain.RoleUser},
	}, ttl)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func TestAuthMiddlewarePassesClaimsAndToken(t *testing.T) {
	mgr := newTestJWTManager()
	token := issueTestToken(t, mgr, time.Minute)

	var gotSubject, gotToken string
	h := AuthMiddleware(mgr)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			t.Fatal("claims missing from context")
		}
		gotSubject = claims.Subject
		raw, ok := TokenFromContext(r.Context())
		if !ok {
			t.Fatal("token missing from context")
		}
		gotToken = raw
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if gotSubject != "0900000001" {
		t.Fatalf("subject = %q", gotSubject)
	}
	if gotToken != token {
		t.Fatal("raw token not propagated")
	}
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	h := AuthMiddleware(newTestJWTManager())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestAuthMiddlewareExpiredToken(t *testing.T) {
	mgr := newTestJWTManager()
	token := issueTestToken(t, mgr, -time.Minute)

	h := AuthMiddleware(mgr)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
	if body := rr.Body.String(); !strings.Contains(body, "TOKEN_EXPIRED") {
		t.Fatalf("expected TOKEN_EXPIRED error code, body %s", body)
	}
}

func TestAuthMiddlewareGarbageToken(t *testing.T) {
	h := AuthMiddleware(newTestJWTManager())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}
