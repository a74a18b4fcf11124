package service

import (
	"errors"
	"strings"
	"time"

	"github.com/shopvio/shop-session-service/internal/domain"
	"github.com/shopvio/shop-session-service/internal/repository"
	"github.com/shopvio/shop-session-service/internal/security"
)

var (
	ErrDuplicatePhoneNumber = errors.New("phone number already exists")
	ErrAdminRegisterDenied  = errors.New("cannot register an admin account")
	ErrPasswordMismatch     = errors.New("password and retype password do not match")
)

type RegisterInput struct {
	FullName          string
	PhoneNumber       string
	Email             string
	Address           string
	Password          string
	RetypePassword    string
	DateOfBirth       *time.Time
	FacebookAccountID string
	GoogleAccountID   string
	RoleID            uint
}

type UpdateUserInput struct {
	FullName       string
	Address        string
	DateOfBirth    *time.Time
	Password       string
	RetypePassword string
}

// UserService owns account creation and profile updates. Session logic treats
// the user directory as read-only; this is the directory's own update path.
type UserService struct {
	userRepo repository.UserRepository
	roleRepo repository.RoleRepository
	hasher   security.PasswordHasher
}

func NewUserService(userRepo repository.UserRepository, roleRepo repository.RoleRepository, hasher security.PasswordHasher) *UserService {
	return &UserService{userRepo: userRepo, roleRepo: roleRepo, hasher: hasher}
}

// Register creates an account. Social-login accounts record their external
// identifiers and skip password hashing; everyone else gets a bcrypt digest.
func (s *UserService) Register(in RegisterInput) (*domain.User, error) {
	role, err := s.roleRepo.FindByID(in.RoleID)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(role.Name, domain.RoleAdmin) {
		return nil, ErrAdminRegisterDenied
	}
	exists, err := s.userRepo.ExistsByPhoneNumber(in.PhoneNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicatePhoneNumber
	}

	user := &domain.User{
		FullName:          in.FullName,
		PhoneNumber:       in.PhoneNumber,
		Email:             in.Email,
		Address:           in.Address,
		DateOfBirth:       in.DateOfBirth,
		FacebookAccountID: in.FacebookAccountID,
		GoogleAccountID:   in.GoogleAccountID,
		RoleID:            role.ID,
		Role:              *role,
		Active:            true,
	}
	if !user.IsSocialAccount() {
		if in.Password != in.RetypePassword {
			return nil, ErrPasswordMismatch
		}
		digest, err := s.hasher.Hash(in.Password)
		if err != nil {
			return nil, err
		}
		user.Password = digest
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Update applies profile changes and an optional password change.
func (s *UserService) Update(userID uint, in UpdateUserInput) (*domain.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if in.FullName != "" {
		user.FullName = in.FullName
	}
	if in.Address != "" {
		user.Address = in.Address
	}
	if in.DateOfBirth != nil {
		user.DateOfBirth = in.DateOfBirth
	}
	if in.Password != "" {
		if in.Password != in.RetypePassword {
			return nil, ErrPasswordMismatch
		}
		digest, err := s.hasher.Hash(in.Password)
		if err != nil {
			return nil, err
		}
		user.Password = digest
	}
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetByID reads a user from the directory.
func (s *UserService) GetByID(id uint) (*domain.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
