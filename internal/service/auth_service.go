package service

import (
	"errors"
	"regexp"

	"github.com/shopvio/shop-session-service/internal/domain"
	"github.com/shopvio/shop-session-service/internal/repository"
	"github.com/shopvio/shop-session-service/internal/security"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrBadCredentials = errors.New("wrong phone number or password")
	ErrRoleMismatch   = errors.New("role does not exist or does not match")
	ErrAccountLocked  = errors.New("account is locked")
)

var emailShaped = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// LoginResult is the session plus the authenticated user, ready for callers
// to project into a login response (token, token type, refresh token,
// username, role names, user id).
type LoginResult struct {
	Session *domain.Session
	User    *domain.User
}

type AuthService struct {
	userRepo    repository.UserRepository
	roleRepo    repository.RoleRepository
	sessionRepo repository.SessionRepository
	hasher      security.PasswordHasher
	jwtMgr      *security.JWTManager
	tokens      *TokenService
	// checkRevoked trades a store read per resolution for immediate
	// revocation; off, signature and expiry alone decide validity.
	checkRevoked bool
}

func NewAuthService(
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	sessionRepo repository.SessionRepository,
	hasher security.PasswordHasher,
	jwtMgr *security.JWTManager,
	tokens *TokenService,
	checkRevoked bool,
) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		roleRepo:     roleRepo,
		sessionRepo:  sessionRepo,
		hasher:       hasher,
		jwtMgr:       jwtMgr,
		tokens:       tokens,
		checkRevoked: checkRevoked,
	}
}

// VerifyCredentials checks phone number, password, requested role and account
// state, in that order. The password is verified before role and lock state
// so a caller without the password learns nothing about the account.
func (s *AuthService) VerifyCredentials(phoneNumber, password string, roleID uint) (*domain.User, error) {
	user, err := s.userRepo.FindByPhoneNumber(phoneNumber)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !s.hasher.Verify(password, user.Password) {
		return nil, ErrBadCredentials
	}
	role, err := s.roleRepo.FindByID(roleID)
	if err != nil {
		if errors.Is(err, repository.ErrRoleNotFound) {
			return nil, ErrRoleMismatch
		}
		return nil, err
	}
	if role.ID != user.RoleID {
		return nil, ErrRoleMismatch
	}
	if !user.Active {
		return nil, ErrAccountLocked
	}
	return user, nil
}

// Login verifies credentials and opens a new session for the device.
func (s *AuthService) Login(phoneNumber, password string, roleID uint, isMobileDevice bool) (*LoginResult, error) {
	user, err := s.VerifyCredentials(phoneNumber, password, roleID)
	if err != nil {
		return nil, err
	}
	session, err := s.tokens.AddSession(user, isMobileDevice)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Session: session, User: user}, nil
}

// Refresh redeems a refresh token for a new access token. The owning user is
// re-read from the directory so the new token carries their current role.
func (s *AuthService) Refresh(refreshToken string) (*LoginResult, error) {
	existing, err := s.sessionRepo.FindByRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	user, err := s.userRepo.FindByID(existing.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	session, err := s.tokens.Refresh(refreshToken, user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Session: session, User: user}, nil
}

// ResolveUser maps a presented access token to its user. The subject is tried
// as a phone number first and, when email-shaped, falls back to an email
// lookup; both identifiers are accepted login subjects.
func (s *AuthService) ResolveUser(accessToken string) (*domain.User, error) {
	claims, err := s.jwtMgr.Parse(accessToken)
	if err != nil {
		return nil, err
	}
	if s.checkRevoked {
		session, err := s.sessionRepo.FindByAccessToken(accessToken)
		if err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
			return nil, err
		}
		if session != nil && session.Revoked {
			return nil, ErrSessionRevoked
		}
	}
	subject := claims.Subject
	user, err := s.userRepo.FindByPhoneNumber(subject)
	if errors.Is(err, repository.ErrUserNotFound) && emailShaped.MatchString(subject) {
		user, err = s.userRepo.FindByEmail(subject)
	}
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// Logout revokes every session of the user.
func (s *AuthService) Logout(userID uint) error {
	return s.tokens.RevokeAll(userID)
}
