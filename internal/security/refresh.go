package security

import "github.com/google/uuid"

// NewRefreshToken returns an opaque refresh token value. Refresh tokens are
// random identifiers that only resolve through the session store, never
// self-verifying like access tokens.
func NewRefreshToken() string {
	return uuid.NewString()
}
