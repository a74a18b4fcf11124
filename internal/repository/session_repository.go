package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopvio/shop-session-service/internal/domain"
	"github.com/shopvio/shop-session-service/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionRepository interface {
	Create(s *domain.Session) error
	FindByUser(userID uint) ([]domain.Session, error)
	FindByRefreshToken(value string) (*domain.Session, error)
	FindByAccessToken(value string) (*domain.Session, error)
	UpdateOnRefresh(refreshToken, accessToken string, accessExpiresAt, refreshExpiresAt time.Time) (*domain.Session, error)
	Revoke(sessionID uint) error
	RevokeByIDForUser(userID, sessionID uint) (bool, error)
	RevokeOthersByUser(userID, keepSessionID uint) (int64, error)
	RevokeByUserID(userID uint) error
	Delete(sessionID uint) error
	MarkExpired() (int64, error)
	CleanupExpired() (int64, error)
}

type GormSessionRepository struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &GormSessionRepository{db: db} }

// Create inserts a new session row. The unique index on refresh_token makes
// concurrent logins coexist as independent rows; an insert never silently
// replaces another device's session.
func (r *GormSessionRepository) Create(s *domain.Session) error {
	err := r.db.Create(s).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "create", "success")
	return nil
}

func (r *GormSessionRepository) FindByUser(userID uint) ([]domain.Session, error) {
	var sessions []domain.Session
	err := r.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&sessions).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "find_by_user", "error")
		return sessions, err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "find_by_user", "success")
	return sessions, nil
}

func (r *GormSessionRepository) FindByRefreshToken(value string) (*domain.Session, error) {
	var s domain.Session
	err := r.db.Where("refresh_token = ?", value).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "session", "find_by_refresh_token", "not_found")
			return nil, ErrSessionNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "session", "find_by_refresh_token", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "find_by_refresh_token", "success")
	return &s, nil
}

func (r *GormSessionRepository) FindByAccessToken(value string) (*domain.Session, error) {
	var s domain.Session
	err := r.db.Where("access_token = ?", value).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "session", "find_by_access_token", "not_found")
			return nil, ErrSessionNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "session", "find_by_access_token", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "find_by_access_token", "success")
	return &s, nil
}

// UpdateOnRefresh replaces the access token and expiries of the session owning
// refreshToken. The row is locked for the duration of the transaction so that
// two concurrent refreshes of the same token settle on one consistent state;
// a session revoked in the meantime is not updated.
func (r *GormSessionRepository) UpdateOnRefresh(refreshToken, accessToken string, accessExpiresAt, refreshExpiresAt time.Time) (*domain.Session, error) {
	var updated *domain.Session
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var s domain.Session
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("refresh_token = ? AND revoked = ?", refreshToken, false).
			First(&s).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return err
		}
		if err := tx.Model(&domain.Session{}).
			Where("id = ?", s.ID).
			Updates(map[string]any{
				"access_token":       accessToken,
				"access_expires_at":  accessExpiresAt,
				"refresh_expires_at": refreshExpiresAt,
				"expired":            false,
			}).Error; err != nil {
			return err
		}
		s.AccessToken = accessToken
		s.AccessExpiresAt = accessExpiresAt
		s.RefreshExpiresAt = refreshExpiresAt
		s.Expired = false
		updated = &s
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "session", "update_on_refresh", "not_found")
		} else {
			observability.RecordRepositoryOperation(context.Background(), "session", "update_on_refresh", "error")
		}
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "update_on_refresh", "success")
	return updated, nil
}

func (r *GormSessionRepository) Revoke(sessionID uint) error {
	err := r.db.Model(&domain.Session{}).
		Where("id = ?", sessionID).
		Update("revoked", true).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "revoke", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "revoke", "success")
	return nil
}

func (r *GormSessionRepository) RevokeByIDForUser(userID, sessionID uint) (bool, error) {
	res := r.db.Model(&domain.Session{}).
		Where("user_id = ? AND id = ? AND revoked = ?", userID, sessionID, false).
		Update("revoked", true)
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "revoke_by_id_for_user", "error")
		return false, res.Error
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "revoke_by_id_for_user", "success")
	return res.RowsAffected > 0, nil
}

func (r *GormSessionRepository) RevokeOthersByUser(userID, keepSessionID uint) (int64, error) {
	res := r.db.Model(&domain.Session{}).
		Where("user_id = ? AND id <> ? AND revoked = ?", userID, keepSessionID, false).
		Update("revoked", true)
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "revoke_others_by_user", "error")
		return res.RowsAffected, res.Error
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "revoke_others_by_user", "success")
	return res.RowsAffected, nil
}

func (r *GormSessionRepository) RevokeByUserID(userID uint) error {
	err := r.db.Model(&domain.Session{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "revoke_by_user_id", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "revoke_by_user_id", "success")
	return nil
}

func (r *GormSessionRepository) Delete(sessionID uint) error {
	err := r.db.Delete(&domain.Session{}, sessionID).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "delete", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "delete", "success")
	return nil
}

// MarkExpired refreshes the denormalized expired flag for rows whose access
// expiry has passed. Correctness never depends on it; reads always compare
// against the clock.
func (r *GormSessionRepository) MarkExpired() (int64, error) {
	res := r.db.Model(&domain.Session{}).
		Where("access_expires_at <= ? AND expired = ?", time.Now(), false).
		Update("expired", true)
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "mark_expired", "error")
		return res.RowsAffected, res.Error
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "mark_expired", "success")
	return res.RowsAffected, nil
}

// CleanupExpired is storage hygiene only: it purges rows whose refresh expiry
// has passed. Expiry enforcement happens lazily at read time.
func (r *GormSessionRepository) CleanupExpired() (int64, error) {
	res := r.db.Where("refresh_expires_at <= ?", time.Now()).Delete(&domain.Session{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "cleanup_expired", "error")
		return res.RowsAffected, res.Error
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "cleanup_expired", "success")
	return res.RowsAffected, nil
}
