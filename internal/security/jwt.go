package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/shopvio/shop-session-service/internal/domain"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

type Claims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// JWTManager signs and parses self-contained access tokens with one
// process-wide HS256 secret. Rotating the secret invalidates everything
// previously issued; that tradeoff is accepted, there is no key epoch.
type JWTManager struct {
	issuer string
	secret []byte
}

func NewJWTManager(issuer, secret string) *JWTManager {
	return &JWTManager{issuer: issuer, secret: []byte(secret)}
}

// Issue mints an access token for user. The subject is the phone number and
// the roles claim snapshots the user's role at issuance time; later role
// changes only take effect on the next login or refresh.
func (m *JWTManager) Issue(user *domain.User, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		Roles: user.RoleNames(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   user.Username(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse validates signature and expiry. Expired-but-well-formed tokens fail
// with ErrTokenExpired, everything else with ErrInvalidToken.
func (m *JWTManager) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing algorithm")
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !tok.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
