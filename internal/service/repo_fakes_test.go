package service

import (
	"sort"
	"sync"
	"time"

	"github.com/shopvio/shop-session-service/internal/domain"
	"github.com/shopvio/shop-session-service/internal/repository"
)

// fakeSessionRepo is an in-memory SessionRepository with the same observable
// semantics as the gorm implementation.
type fakeSessionRepo struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]*domain.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{rows: map[uint]*domain.Session{}}
}

func (f *fakeSessionRepo) Create(s *domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	s.ID = f.nextID
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	cp := *s
	f.rows[s.ID] = &cp
	return nil
}

func (f *fakeSessionRepo) FindByUser(userID uint) ([]domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Session
	for _, s := range f.rows {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeSessionRepo) FindByRefreshToken(value string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.rows {
		if s.RefreshToken == value {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repository.ErrSessionNotFound
}

func (f *fakeSessionRepo) FindByAccessToken(value string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.rows {
		if s.AccessToken == value {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repository.ErrSessionNotFound
}

func (f *fakeSessionRepo) UpdateOnRefresh(refreshToken, accessToken string, accessExpiresAt, refreshExpiresAt time.Time) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.rows {
		if s.RefreshToken == refreshToken && !s.Revoked {
			s.AccessToken = accessToken
			s.AccessExpiresAt = accessExpiresAt
			s.RefreshExpiresAt = refreshExpiresAt
			s.Expired = false
			cp := *s
			return &cp, nil
		}
	}
	return nil, repository.ErrSessionNotFound
}

func (f *fakeSessionRepo) Revoke(sessionID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.rows[sessionID]; ok {
		s.Revoked = true
	}
	return nil
}

func (f *fakeSessionRepo) RevokeByIDForUser(userID, sessionID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[sessionID]
	if !ok || s.UserID != userID || s.Revoked {
		return false, nil
	}
	s.Revoked = true
	return true, nil
}

func (f *fakeSessionRepo) RevokeOthersByUser(userID, keepSessionID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, s := range f.rows {
		if s.UserID == userID && s.ID != keepSessionID && !s.Revoked {
			s.Revoked = true
			n++
		}
	}
	return n, nil
}

func (f *fakeSessionRepo) RevokeByUserID(userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.rows {
		if s.UserID == userID {
			s.Revoked = true
		}
	}
	return nil
}

func (f *fakeSessionRepo) Delete(sessionID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, sessionID)
	return nil
}

func (f *fakeSessionRepo) MarkExpired() (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	var n int64
	for _, s := range f.rows {
		if !s.Expired && !s.AccessExpiresAt.After(now) {
			s.Expired = true
			n++
		}
	}
	return n, nil
}

func (f *fakeSessionRepo) CleanupExpired() (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	var n int64
	for id, s := range f.rows {
		if !s.RefreshExpiresAt.After(now) {
			delete(f.rows, id)
			n++
		}
	}
	return n, nil
}

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uint]*domain.User{}}
}

func (f *fakeUserRepo) FindByID(id uint) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUserRepo) FindByPhoneNumber(phoneNumber string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.PhoneNumber == phoneNumber {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUserRepo) FindByEmail(email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if email != "" && u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUserRepo) ExistsByPhoneNumber(phoneNumber string) (bool, error) {
	_, err := f.FindByPhoneNumber(phoneNumber)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (f *fakeUserRepo) Create(user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	user.ID = f.nextID
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserRepo) Update(user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

type fakeRoleRepo struct {
	roles map[uint]domain.Role
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{roles: map[uint]domain.Role{
		1: {ID: 1, Name: domain.RoleUser},
		2: {ID: 2, Name: domain.RoleAdmin},
	}}
}

func (f *fakeRoleRepo) FindByID(id uint) (*domain.Role, error) {
	if r, ok := f.roles[id]; ok {
		return &r, nil
	}
	return nil, repository.ErrRoleNotFound
}

func (f *fakeRoleRepo) List() ([]domain.Role, error) {
	out := make([]domain.Role, 0, len(f.roles))
	for _, r := range f.roles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
