package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopvio/shop-session-service/internal/domain"
	"github.com/shopvio/shop-session-service/internal/observability"
	"github.com/shopvio/shop-session-service/internal/repository"
)

type SessionView struct {
	ID               uint      `json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
	Revoked          bool      `json:"revoked"`
	Expired          bool      `json:"expired"`
	IsMobileDevice   bool      `json:"is_mobile_device"`
}

// SessionService enumerates and revokes a user's device sessions.
type SessionService struct {
	sessionRepo repository.SessionRepository
}

func NewSessionService(sessionRepo repository.SessionRepository) *SessionService {
	return &SessionService{sessionRepo: sessionRepo}
}

func (s *SessionService) ListSessions(userID uint) ([]SessionView, error) {
	sessions, err := s.sessionRepo.FindByUser(userID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	views := make([]SessionView, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, SessionView{
			ID:               session.ID,
			CreatedAt:        session.CreatedAt,
			AccessExpiresAt:  session.AccessExpiresAt,
			RefreshExpiresAt: session.RefreshExpiresAt,
			Revoked:          session.Revoked,
			Expired:          session.AccessExpired(now),
			IsMobileDevice:   session.IsMobileDevice,
		})
	}
	return views, nil
}

// RevokeSession revokes one session owned by the user. Revocation is scoped
// to the caller's own rows; no cross-user mutation path exists.
func (s *SessionService) RevokeSession(userID, sessionID uint) (bool, error) {
	changed, err := s.sessionRepo.RevokeByIDForUser(userID, sessionID)
	if err != nil {
		return false, err
	}
	if changed {
		observability.RecordSessionRevocation("single")
	}
	return changed, nil
}

// RevokeOtherSessions revokes every session of the user except the one behind
// the presented access token.
func (s *SessionService) RevokeOtherSessions(userID uint, keepAccessToken string) (int64, error) {
	keep, err := s.sessionRepo.FindByAccessToken(keepAccessToken)
	if err != nil {
		return 0, err
	}
	if keep.UserID != userID {
		return 0, repository.ErrSessionNotFound
	}
	n, err := s.sessionRepo.RevokeOthersByUser(userID, keep.ID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		observability.RecordSessionRevocation("others")
	}
	return n, nil
}

// Sweep purges sessions whose refresh expiry passed and refreshes the
// denormalized expired flag. Hygiene only; expiry is enforced lazily at read
// time and stays correct without the sweeper ever running.
func (s *SessionService) Sweep() (purged, marked int64, err error) {
	marked, err = s.sessionRepo.MarkExpired()
	if err != nil {
		return 0, 0, err
	}
	purged, err = s.sessionRepo.CleanupExpired()
	if err != nil {
		return 0, marked, err
	}
	return purged, marked, nil
}

// RunSweeper runs Sweep on interval until ctx is done.
func (s *SessionService) RunSweeper(ctx context.Context, interval time.Duration, logger *slog.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			purged, marked, err := s.Sweep()
			if err != nil {
				logger.Error("session sweep failed", "error", err)
				continue
			}
			if purged > 0 || marked > 0 {
				logger.Info("session sweep", "purged", purged, "marked_expired", marked)
			}
		}
	}
}

// FindByRefreshToken exposes the store lookup to callers that only hold the
// opaque refresh token value.
func (s *SessionService) FindByRefreshToken(value string) (*domain.Session, error) {
	return s.sessionRepo.FindByRefreshToken(value)
}
