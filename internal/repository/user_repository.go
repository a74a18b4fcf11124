package repository

import (
	"context"
	"errors"

	"github.com/shopvio/shop-session-service/internal/domain"
	"github.com/shopvio/shop-session-service/internal/observability"

	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository is the directory this subsystem consumes. Users are owned by
// the directory's own update path; session logic only reads them.
type UserRepository interface {
	FindByID(id uint) (*domain.User, error)
	FindByPhoneNumber(phoneNumber string) (*domain.User, error)
	FindByEmail(email string) (*domain.User, error)
	ExistsByPhoneNumber(phoneNumber string) (bool, error)
	Create(user *domain.User) error
	Update(user *domain.User) error
}

type GormUserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &GormUserRepository{db: db} }

func (r *GormUserRepository) FindByID(id uint) (*domain.User, error) {
	var u domain.User
	err := r.db.Preload("Role").First(&u, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "user", "find_by_id", "not_found")
			return nil, ErrUserNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "user", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "find_by_id", "success")
	return &u, nil
}

func (r *GormUserRepository) FindByPhoneNumber(phoneNumber string) (*domain.User, error) {
	var u domain.User
	err := r.db.Preload("Role").Where("phone_number = ?", phoneNumber).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "user", "find_by_phone_number", "not_found")
			return nil, ErrUserNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "user", "find_by_phone_number", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "find_by_phone_number", "success")
	return &u, nil
}

func (r *GormUserRepository) FindByEmail(email string) (*domain.User, error) {
	var u domain.User
	err := r.db.Preload("Role").Where("email = ?", email).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "user", "find_by_email", "not_found")
			return nil, ErrUserNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "user", "find_by_email", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "find_by_email", "success")
	return &u, nil
}

func (r *GormUserRepository) ExistsByPhoneNumber(phoneNumber string) (bool, error) {
	var count int64
	err := r.db.Model(&domain.User{}).Where("phone_number = ?", phoneNumber).Count(&count).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "user", "exists_by_phone_number", "error")
		return false, err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "exists_by_phone_number", "success")
	return count > 0, nil
}

func (r *GormUserRepository) Create(user *domain.User) error {
	err := r.db.Create(user).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "user", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "create", "success")
	return nil
}

func (r *GormUserRepository) Update(user *domain.User) error {
	err := r.db.Save(user).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "user", "update", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "update", "success")
	return nil
}
