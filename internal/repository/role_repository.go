package repository

import (
	"context"
	"errors"

	"github.com/shopvio/shop-session-service/internal/domain"
	"github.com/shopvio/shop-session-service/internal/observability"

	"gorm.io/gorm"
)

var ErrRoleNotFound = errors.New("role not found")

type RoleRepository interface {
	FindByID(id uint) (*domain.Role, error)
	List() ([]domain.Role, error)
}

type GormRoleRepository struct{ db *gorm.DB }

func NewRoleRepository(db *gorm.DB) RoleRepository { return &GormRoleRepository{db: db} }

func (r *GormRoleRepository) FindByID(id uint) (*domain.Role, error) {
	var role domain.Role
	err := r.db.First(&role, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "role", "find_by_id", "not_found")
			return nil, ErrRoleNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "role", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "role", "find_by_id", "success")
	return &role, nil
}

func (r *GormRoleRepository) List() ([]domain.Role, error) {
	var roles []domain.Role
	err := r.db.Find(&roles).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "role", "list", "error")
		return roles, err
	}
	observability.RecordRepositoryOperation(context.Background(), "role", "list", "success")
	return roles, nil
}
