package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ShrutiSutar/stock-broker-dashboard/internal/auth"
	"github.com/ShrutiSutar/stock-broker-dashboard/internal/domain"
)

// AuthHandler serves login requests and issues tokens.
type AuthHandler struct {
	svc    *auth.Service
	users  domain.UserStore
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler backed by the given token service and
// user store.
func NewAuthHandler(svc *auth.Service, users domain.UserStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		users:  users,
		logger: logger.With(slog.String("handler", "auth")),
	}
}

// loginRequest is the expected body for POST /api/auth/login.
type loginRequest struct {
	Email string `json:"email"`
}

// loginResponse carries the issued token and user record.
type loginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// Login validates the email, issues a token, and upserts the user record.
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}

	token, user, err := h.svc.Login(req.Email)
	if errors.Is(err, domain.ErrInvalidEmail) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "login failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	stored, err := h.users.Upsert(r.Context(), user)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "user upsert failed",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: stored})
}
