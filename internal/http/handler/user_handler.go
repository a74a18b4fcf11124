package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shopvio/shop-session-service/internal/http/middleware"
	"github.com/shopvio/shop-session-service/internal/http/response"
	"github.com/shopvio/shop-session-service/internal/observability"
	"github.com/shopvio/shop-session-service/internal/service"
)

type UserHandler struct {
	authSvc    *service.AuthService
	userSvc    *service.UserService
	sessionSvc *service.SessionService
}

func NewUserHandler(authSvc *service.AuthService, userSvc *service.UserService, sessionSvc *service.SessionService) *UserHandler {
	return &UserHandler{authSvc: authSvc, userSvc: userSvc, sessionSvc: sessionSvc}
}

type updateUserRequest struct {
	FullName       string `json:"full_name"`
	Address        string `json:"address"`
	Password       string `json:"password"`
	RetypePassword string `json:"retype_password"`
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := h.resolveCaller(w, r)
	if !ok {
		return
	}
	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	updated, err := h.userSvc.Update(user.ID, service.UpdateUserInput{
		FullName:       req.FullName,
		Address:        req.Address,
		Password:       req.Password,
		RetypePassword: req.RetypePassword,
	})
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	observability.Audit(r, "user.update", "user_id", updated.ID)
	response.JSON(w, r, http.StatusOK, "update user successfully", newUserView(updated))
}

func (h *UserHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	user, ok := h.resolveCaller(w, r)
	if !ok {
		return
	}
	views, err := h.sessionSvc.ListSessions(user.ID)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to list sessions")
		return
	}
	response.JSON(w, r, http.StatusOK, "list sessions successfully", views)
}

func (h *UserHandler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	user, ok := h.resolveCaller(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(chi.URLParam(r, "sessionID"), 10, 64)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid session id")
		return
	}
	revoked, err := h.sessionSvc.RevokeSession(user.ID, uint(id))
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to revoke session")
		return
	}
	if !revoked {
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "session not found")
		return
	}
	observability.Audit(r, "session.revoke", "user_id", user.ID, "session_id", id)
	response.JSON(w, r, http.StatusOK, "session revoked", nil)
}

// RevokeOtherSessions keeps the session behind the presented token and
// revokes every other session of the caller.
func (h *UserHandler) RevokeOtherSessions(w http.ResponseWriter, r *http.Request) {
	user, ok := h.resolveCaller(w, r)
	if !ok {
		return
	}
	raw, _ := middleware.TokenFromContext(r.Context())
	count, err := h.sessionSvc.RevokeOtherSessions(user.ID, raw)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to revoke sessions")
		return
	}
	observability.Audit(r, "session.revoke_others", "user_id", user.ID, "revoked", count)
	response.JSON(w, r, http.StatusOK, "sessions revoked", map[string]int64{"revoked": count})
}

func (h *UserHandler) resolveCaller(w http.ResponseWriter, r *http.Request) (user *userCaller, ok bool) {
	raw, found := middleware.TokenFromContext(r.Context())
	if !found {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context")
		return nil, false
	}
	u, err := h.authSvc.ResolveUser(raw)
	if err != nil {
		writeAuthError(w, r, err)
		return nil, false
	}
	return &userCaller{ID: u.ID}, true
}

type userCaller struct {
	ID uint
}
