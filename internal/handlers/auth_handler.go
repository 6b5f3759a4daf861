package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/safar/go-sql-storefront/internal/auth"
	"github.com/safar/go-sql-storefront/internal/database"
	"github.com/safar/go-sql-storefront/internal/middleware"
	"github.com/safar/go-sql-storefront/internal/models"
	"github.com/safar/go-sql-storefront/internal/respond"
	"github.com/safar/go-sql-storefront/internal/service"
)

type accountService interface {
	Register(ctx context.Context, req service.RegisterRequest) (*service.Session, error)
	Login(ctx context.Context, email, password string) (*service.Session, error)
	ChangePassword(ctx context.Context, userID, current, next string) error
}

// AuthHandler serves registration, login and the current user's profile.
type AuthHandler struct {
	accounts     accountService
	tokenTTL     time.Duration
	cookieSecure bool
	log          *slog.Logger
}

func NewAuthHandler(accounts accountService, tokenTTL time.Duration, cookieSecure bool, log *slog.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, tokenTTL: tokenTTL, cookieSecure: cookieSecure, log: log}
}

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"max=255"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if msg := decodeAndValidate(w, r, &req); msg != "" {
		respond.Error(w, http.StatusBadRequest, msg, h.log)
		return
	}

	session, err := h.accounts.Register(r.Context(), service.RegisterRequest{
		Username: req.Username,
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			respond.Error(w, http.StatusBadRequest, verr.Err.Error(), h.log)
		case errors.Is(err, database.ErrEmailTaken):
			respond.Error(w, http.StatusConflict, "User with this email already exists", h.log)
		case errors.Is(err, database.ErrUsernameTaken):
			respond.Error(w, http.StatusConflict, "Username is already taken", h.log)
		default:
			h.log.Error("failed to register user", "error", err)
			respond.Error(w, http.StatusInternalServerError, "Internal server error", h.log)
		}
		return
	}

	h.setSession(w, session)
	respond.JSON(w, http.StatusCreated, sessionResponse{Token: session.Token, User: session.User}, h.log)
	h.log.Info("user registered", "user_id", session.User.ID)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if msg := decodeAndValidate(w, r, &req); msg != "" {
		respond.Error(w, http.StatusBadRequest, msg, h.log)
		return
	}

	session, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredential) {
			respond.Error(w, http.StatusUnauthorized, "Invalid credentials", h.log)
			return
		}
		h.log.Error("failed to log in", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Login failed", h.log)
		return
	}

	h.setSession(w, session)
	respond.JSON(w, http.StatusOK, sessionResponse{Token: session.Token, User: session.User}, h.log)
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearAuthCookie(w, h.cookieSecure)
	respond.JSON(w, http.StatusOK, map[string]string{"message": "Logged out"}, h.log)
}

// Me handles GET /api/user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]*models.User{"user": middleware.UserFrom(r.Context())}, h.log)
}

// Session handles GET /api/auth/session. Anonymous callers get {"user": null}
// rather than a 401 so clients can check their login state.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]*models.User{"user": middleware.UserFrom(r.Context())}, h.log)
}

// ChangePassword handles POST /api/user/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if msg := decodeAndValidate(w, r, &req); msg != "" {
		respond.Error(w, http.StatusBadRequest, msg, h.log)
		return
	}

	user := middleware.UserFrom(r.Context())
	err := h.accounts.ChangePassword(r.Context(), user.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.Is(err, service.ErrWrongPassword):
			respond.Error(w, http.StatusBadRequest, "Current password is incorrect", h.log)
		case errors.As(err, &verr):
			respond.Error(w, http.StatusBadRequest, verr.Err.Error(), h.log)
		default:
			h.log.Error("failed to change password", "user_id", user.ID, "error", err)
			respond.Error(w, http.StatusInternalServerError, "Internal server error", h.log)
		}
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"}, h.log)
}

func (h *AuthHandler) setSession(w http.ResponseWriter, s *service.Session) {
	middleware.SetAuthCookie(w, s.Token, int(h.tokenTTL/time.Second), h.cookieSecure)
}
