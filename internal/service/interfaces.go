package service

import "github.com/shopvio/shop-session-service/internal/domain"

type AuthServiceInterface interface {
	Login(phoneNumber, password string, roleID uint, isMobileDevice bool) (*LoginResult, error)
	Refresh(refreshToken string) (*LoginResult, error)
	ResolveUser(accessToken string) (*domain.User, error)
	Logout(userID uint) error
}

type RoleAuthorizer interface {
	Authorize(presented, required []string) bool
}
