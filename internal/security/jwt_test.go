package security

import (
	"errors"
	"testing"
	"time"

	"github.com/shopvio/shop-session-service/internal/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testUser() *domain.User {
	return &domain.User{
		ID:          1,
		PhoneNumber: "0900000001",
		Active:      true,
		Role:        domain.Role{ID: 1, Name: domain.RoleUser},
	}
}

func TestJWTManagerIssueAndParse(t *testing.T) {
	mgr := NewJWTManager("shop-session-service", testSecret)

	token, expiresAt, err := mgr.Issue(testUser(), 30*time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !expiresAt.After(time.Now().Add(29 * time.Minute)) {
		t.Fatalf("expiry too soon: %v", expiresAt)
	}

	claims, err := mgr.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "0900000001" {
		t.Fatalf("subject = %q, want phone number", claims.Subject)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != domain.RoleUser {
		t.Fatalf("roles = %v", claims.Roles)
	}
	if claims.ID == "" {
		t.Fatal("expected a jti claim")
	}
}

func TestJWTManagerRejectsExpiredToken(t *testing.T) {
	mgr := NewJWTManager("shop-session-service", testSecret)

	token, _, err := mgr.Issue(testUser(), -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := mgr.Parse(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestJWTManagerRejectsWrongSecret(t *testing.T) {
	mgr := NewJWTManager("shop-session-service", testSecret)
	other := NewJWTManager("shop-session-service", "ffffffffffffffffffffffffffffffff")

	token, _, err := other.Issue(testUser(), time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := mgr.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestJWTManagerRejectsWrongIssuer(t *testing.T) {
	mgr := NewJWTManager("shop-session-service", testSecret)
	other := NewJWTManager("someone-else", testSecret)

	token, _, err := other.Issue(testUser(), time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := mgr.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestJWTManagerRejectsGarbage(t *testing.T) {
	mgr := NewJWTManager("shop-session-service", testSecret)
	if _, err := mgr.Parse("not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
