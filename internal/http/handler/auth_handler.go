package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/shopvio/shop-session-service/internal/domain"
	"github.com/shopvio/shop-session-service/internal/http/middleware"
	"github.com/shopvio/shop-session-service/internal/http/response"
	"github.com/shopvio/shop-session-service/internal/observability"
	"github.com/shopvio/shop-session-service/internal/security"
	"github.com/shopvio/shop-session-service/internal/service"
)

type AuthHandler struct {
	authSvc *service.AuthService
	userSvc *service.UserService
	guard   *service.RedisLoginGuard
}

func NewAuthHandler(authSvc *service.AuthService, userSvc *service.UserService, guard *service.RedisLoginGuard) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, userSvc: userSvc, guard: guard}
}

type loginRequest struct {
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
	RoleID      uint   `json:"role_id"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type registerRequest struct {
	FullName          string `json:"full_name"`
	PhoneNumber       string `json:"phone_number"`
	Email             string `json:"email"`
	Address           string `json:"address"`
	Password          string `json:"password"`
	RetypePassword    string `json:"retype_password"`
	FacebookAccountID string `json:"facebook_account_id"`
	GoogleAccountID   string `json:"google_account_id"`
	RoleID            uint   `json:"role_id"`
}

type loginResponse struct {
	Token        string   `json:"token"`
	TokenType    string   `json:"token_type"`
	RefreshToken string   `json:"refresh_token"`
	Username     string   `json:"username"`
	Roles        []string `json:"roles"`
	ID           uint     `json:"id"`
}

func newLoginResponse(res *service.LoginResult) loginResponse {
	return loginResponse{
		Token:        res.Session.AccessToken,
		TokenType:    res.Session.TokenType,
		RefreshToken: res.Session.RefreshToken,
		Username:     res.User.Username(),
		Roles:        res.User.RoleNames(),
		ID:           res.User.ID,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if req.RoleID == 0 {
		req.RoleID = 1
	}
	ip := middleware.ClientIP(r)
	if h.guard != nil {
		cooldown, err := h.guard.Check(r.Context(), req.PhoneNumber, ip)
		if err == nil && cooldown > 0 {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(math.Ceil(cooldown.Seconds()))))
			response.Error(w, r, http.StatusTooManyRequests, "LOGIN_THROTTLED", "too many failed attempts")
			return
		}
	}

	isMobile := service.IsMobileDevice(r.Header.Get("User-Agent"))
	res, err := h.authSvc.Login(req.PhoneNumber, req.Password, req.RoleID, isMobile)
	if err != nil {
		if h.guard != nil && isCredentialFailure(err) {
			_, _ = h.guard.RegisterFailure(r.Context(), req.PhoneNumber, ip)
		}
		observability.RecordAuthLogin("failure")
		writeAuthError(w, r, err)
		return
	}
	if h.guard != nil {
		_ = h.guard.Reset(r.Context(), req.PhoneNumber, ip)
	}
	observability.RecordAuthLogin("success")
	observability.Audit(r, "auth.login", "user_id", res.User.ID, "is_mobile", isMobile)
	response.JSON(w, r, http.StatusOK, "login successfully", newLoginResponse(res))
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "refresh token is required")
		return
	}
	res, err := h.authSvc.Refresh(req.RefreshToken)
	if err != nil {
		observability.RecordAuthRefresh("failure")
		writeAuthError(w, r, err)
		return
	}
	observability.RecordAuthRefresh("success")
	observability.Audit(r, "auth.refresh", "user_id", res.User.ID)
	response.JSON(w, r, http.StatusOK, "refresh token successfully", newLoginResponse(res))
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if req.RoleID == 0 {
		req.RoleID = 1
	}
	user, err := h.userSvc.Register(service.RegisterInput{
		FullName:          req.FullName,
		PhoneNumber:       req.PhoneNumber,
		Email:             req.Email,
		Address:           req.Address,
		Password:          req.Password,
		RetypePassword:    req.RetypePassword,
		FacebookAccountID: req.FacebookAccountID,
		GoogleAccountID:   req.GoogleAccountID,
		RoleID:            req.RoleID,
	})
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	observability.Audit(r, "auth.register", "user_id", user.ID)
	response.JSON(w, r, http.StatusCreated, "register successfully", newUserView(user))
}

// Details resolves the bearer token to its user, trying the subject as a
// phone number first and falling back to email.
func (h *AuthHandler) Details(w http.ResponseWriter, r *http.Request) {
	raw, ok := middleware.TokenFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context")
		return
	}
	user, err := h.authSvc.ResolveUser(raw)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, "get user's detail successfully", newUserView(user))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	raw, ok := middleware.TokenFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context")
		return
	}
	user, err := h.authSvc.ResolveUser(raw)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	if err := h.authSvc.Logout(user.ID); err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "logout failed")
		return
	}
	observability.Audit(r, "auth.logout", "user_id", user.ID)
	response.JSON(w, r, http.StatusOK, "logout successfully", nil)
}

type userView struct {
	ID          uint       `json:"id"`
	FullName    string     `json:"full_name"`
	PhoneNumber string     `json:"phone_number"`
	Email       string     `json:"email,omitempty"`
	Address     string     `json:"address,omitempty"`
	Active      bool       `json:"active"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Role        string     `json:"role"`
}

func newUserView(u *domain.User) userView {
	return userView{
		ID:          u.ID,
		FullName:    u.FullName,
		PhoneNumber: u.PhoneNumber,
		Email:       u.Email,
		Address:     u.Address,
		Active:      u.Active,
		DateOfBirth: u.DateOfBirth,
		Role:        u.Role.Name,
	}
}

func isCredentialFailure(err error) bool {
	return errors.Is(err, service.ErrUserNotFound) || errors.Is(err, service.ErrBadCredentials)
}

func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrBadCredentials):
		response.Error(w, r, http.StatusUnauthorized, "BAD_CREDENTIALS", "wrong phone number or password")
	case errors.Is(err, service.ErrRoleMismatch):
		response.Error(w, r, http.StatusBadRequest, "ROLE_MISMATCH", "role does not exist or does not match")
	case errors.Is(err, service.ErrAccountLocked):
		response.Error(w, r, http.StatusForbidden, "ACCOUNT_LOCKED", "account is locked")
	case errors.Is(err, security.ErrTokenExpired):
		response.Error(w, r, http.StatusUnauthorized, "TOKEN_EXPIRED", "access token expired")
	case errors.Is(err, security.ErrInvalidToken):
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid access token")
	case errors.Is(err, service.ErrInvalidRefreshToken):
		response.Error(w, r, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN", "invalid refresh token")
	case errors.Is(err, service.ErrSessionRevoked):
		response.Error(w, r, http.StatusUnauthorized, "SESSION_REVOKED", "session has been revoked")
	case errors.Is(err, service.ErrRefreshTokenExpired):
		response.Error(w, r, http.StatusUnauthorized, "REFRESH_TOKEN_EXPIRED", "refresh token expired")
	case errors.Is(err, service.ErrDuplicatePhoneNumber):
		response.Error(w, r, http.StatusConflict, "DUPLICATE_PHONE_NUMBER", "phone number already exists")
	case errors.Is(err, service.ErrAdminRegisterDenied):
		response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "cannot register an admin account")
	case errors.Is(err, service.ErrPasswordMismatch):
		response.Error(w, r, http.StatusBadRequest, "PASSWORD_MISMATCH", "password and retype password do not match")
	default:
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}
