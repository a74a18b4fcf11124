package service

import (
	"errors"
	"time"

	"github.com/shopvio/shop-session-service/internal/domain"
	"github.com/shopvio/shop-session-service/internal/repository"
	"github.com/shopvio/shop-session-service/internal/security"
)

var (
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrSessionRevoked      = errors.New("session revoked")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)

// TokenService owns the session rows: creation on login, in-place renewal on
// refresh. Refresh tokens are not rotated on use; the original behavior keeps
// the same opaque value for the session's whole life (see DESIGN.md).
type TokenService struct {
	jwtMgr      *security.JWTManager
	sessionRepo repository.SessionRepository
	accessTTL   time.Duration
	refreshTTL  time.Duration
	maxSessions int
}

func NewTokenService(jwtMgr *security.JWTManager, sessionRepo repository.SessionRepository, accessTTL, refreshTTL time.Duration, maxSessions int) *TokenService {
	return &TokenService{
		jwtMgr:      jwtMgr,
		sessionRepo: sessionRepo,
		accessTTL:   accessTTL,
		refreshTTL:  refreshTTL,
		maxSessions: maxSessions,
	}
}

// AddSession mints an access token for user and persists a new session with a
// fresh opaque refresh token. Concurrent logins create independent rows; when
// the per-user cap is hit, the oldest non-mobile session is evicted first so
// mobile devices stay signed in longest.
func (s *TokenService) AddSession(user *domain.User, isMobileDevice bool) (*domain.Session, error) {
	if s.maxSessions > 0 {
		if err := s.evictIfOverCap(user.ID); err != nil {
			return nil, err
		}
	}

	accessToken, accessExpiresAt, err := s.jwtMgr.Issue(user, s.accessTTL)
	if err != nil {
		return nil, err
	}
	session := &domain.Session{
		UserID:           user.ID,
		AccessToken:      accessToken,
		TokenType:        domain.TokenTypeBearer,
		AccessExpiresAt:  accessExpiresAt,
		RefreshToken:     security.NewRefreshToken(),
		RefreshExpiresAt: time.Now().Add(s.refreshTTL),
		IsMobileDevice:   isMobileDevice,
	}
	if err := s.sessionRepo.Create(session); err != nil {
		return nil, err
	}
	return session, nil
}

// Refresh validates the presented refresh token and replaces the session's
// access token in place. The caller passes the session owner's current user
// record so a role change since issuance lands in the new token. The refresh
// expiry is extended alongside, keeping it strictly after the access expiry.
func (s *TokenService) Refresh(refreshToken string, user *domain.User) (*domain.Session, error) {
	existing, err := s.sessionRepo.FindByRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	if existing.Revoked {
		return nil, ErrSessionRevoked
	}
	if existing.RefreshExpired(time.Now()) {
		// Stale row: purge it so the expired value can never resolve again.
		if err := s.sessionRepo.Delete(existing.ID); err != nil {
			return nil, err
		}
		return nil, ErrRefreshTokenExpired
	}

	accessToken, accessExpiresAt, err := s.jwtMgr.Issue(user, s.accessTTL)
	if err != nil {
		return nil, err
	}
	updated, err := s.sessionRepo.UpdateOnRefresh(refreshToken, accessToken, accessExpiresAt, time.Now().Add(s.refreshTTL))
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			// Lost a race with a concurrent revocation.
			return nil, ErrSessionRevoked
		}
		return nil, err
	}
	return updated, nil
}

// RevokeAll invalidates every live session the user owns.
func (s *TokenService) RevokeAll(userID uint) error {
	return s.sessionRepo.RevokeByUserID(userID)
}

func (s *TokenService) evictIfOverCap(userID uint) error {
	sessions, err := s.sessionRepo.FindByUser(userID)
	if err != nil {
		return err
	}
	if len(sessions) < s.maxSessions {
		return nil
	}
	victim := sessions[0]
	for _, candidate := range sessions {
		if !candidate.IsMobileDevice {
			victim = candidate
			break
		}
	}
	return s.sessionRepo.Delete(victim.ID)
}
