package handlers

import (
	"net/http"
	"strings"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
)

// AuthHandler implements the account and session endpoints.
type AuthHandler struct {
	Sessions SessionManager
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type updateProfileRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type sessionResponse struct {
	Account models.PublicAccount `json:"account"`
	Tokens  models.TokenPair     `json:"tokens"`
}

type tokensResponse struct {
	Tokens models.TokenPair `json:"tokens"`
}

// Register handles POST /api/v1/auth/register. The request is multipart: the
// avatar image is required, the cover image optional; both pass through the
// media store before the account row exists.
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(ctx, w, apperr.Validationf("expected multipart form"))
		return
	}

	avatarPath, avatarCleanup, hasAvatar, err := saveUpload(r, "avatar")
	if err != nil {
		logging.FromContext(ctx).Error("buffer avatar upload", "error", err)
		respondError(ctx, w, err)
		return
	}
	defer avatarCleanup()
	if !hasAvatar {
		respondError(ctx, w, apperr.Validationf("avatar image is required"))
		return
	}

	coverPath, coverCleanup, _, err := saveUpload(r, "coverImage")
	if err != nil {
		logging.FromContext(ctx).Error("buffer cover upload", "error", err)
		respondError(ctx, w, err)
		return
	}
	defer coverCleanup()

	account, tokens, err := h.Sessions.Register(ctx, auth.RegisterParams{
		Username:   r.FormValue("username"),
		Email:      r.FormValue("email"),
		FullName:   r.FormValue("fullName"),
		Password:   r.FormValue("password"),
		AvatarPath: avatarPath,
		CoverPath:  coverPath,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, sessionResponse{Account: account, Tokens: tokens})
}

// Login handles POST /api/v1/auth/login.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	account, tokens, err := h.Sessions.Login(ctx, auth.LoginParams{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, sessionResponse{Account: account, Tokens: tokens})
}

// Refresh handles POST /api/v1/auth/refresh, rotating the token pair.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	req.RefreshToken = strings.TrimSpace(req.RefreshToken)
	if req.RefreshToken == "" {
		respondError(ctx, w, apperr.Validationf("refresh token is required"))
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, req.RefreshToken)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, tokensResponse{Tokens: tokens})
}

// Logout handles POST /api/v1/auth/logout for the authenticated account.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.Sessions.Logout(ctx, middleware.ActorID(ctx)); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Me handles GET /api/v1/auth/me.
func (h AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	account, err := h.Sessions.CurrentUser(ctx, middleware.ActorID(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, account)
}

// UpdateMe handles PATCH /api/v1/auth/me.
func (h AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	account, err := h.Sessions.UpdateProfile(ctx, middleware.ActorID(ctx), auth.UpdateProfileParams{
		FullName: req.FullName,
		Email:    req.Email,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, account)
}

// ChangePassword handles POST /api/v1/auth/change-password.
func (h AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Sessions.ChangePassword(ctx, middleware.ActorID(ctx), req.OldPassword, req.NewPassword); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "password changed"})
}
