// Package http provides HTTP handlers for sign-up, login and invitations.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/GophAuth/internal/middleware"
	"github.com/atinyakov/GophAuth/internal/models"
	"github.com/atinyakov/GophAuth/internal/service"
)

// User-facing messages for well-known failures.
const (
	msgInvalidRequest     = "Invalid request."
	msgInternal           = "Something went wrong!"
	msgEmailTaken         = "Email has already been taken"
	msgInvalidCredentials = "Invalid email or password."
	msgUserNotFound       = "User not found."
)

// AuthService defines the account operations required by the HTTP handlers.
type AuthService interface {
	// SignUp validates the form and creates an account.
	SignUp(ctx context.Context, form models.SignUpForm) (*models.User, error)
	// Login checks credentials and returns a new session.
	Login(ctx context.Context, req models.LoginRequest) (models.AuthSession, error)
	// CurrentUser loads the user with the given ID.
	CurrentUser(ctx context.Context, id string) (*models.User, error)
}

// AuthHandler handles HTTP requests for account creation and login.
type AuthHandler struct {
	// AuthService performs the underlying account operations.
	AuthService AuthService
	// Log receives unexpected failures. May be nil.
	Log *zap.Logger
}

// SignUpRequest is the JSON payload for account creation.
type SignUpRequest struct {
	User models.SignUpForm `json:"user"`
}

func (h *AuthHandler) log() *zap.Logger {
	if h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}

// SignUp handles POST /api/users. Validation failures and a taken email are
// answered with 422 and the messages to show; success returns 201 and the
// new user.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrors(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	u, err := h.AuthService.SignUp(r.Context(), req.User)
	if err != nil {
		var ve *service.ValidationError
		switch {
		case errors.As(err, &ve):
			writeErrors(w, http.StatusUnprocessableEntity, ve.Messages()...)
		case errors.Is(err, service.ErrEmailTaken):
			writeErrors(w, http.StatusUnprocessableEntity, msgEmailTaken)
		default:
			h.log().Error("sign up failed", zap.Error(err))
			writeErrors(w, http.StatusInternalServerError, msgInternal)
		}
		return
	}

	writeJSON(w, http.StatusCreated, u.View())
}

// Login handles POST /api/login and returns the session a client stores.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrors(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	session, err := h.AuthService.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeErrors(w, http.StatusUnauthorized, msgInvalidCredentials)
			return
		}
		h.log().Error("login failed", zap.Error(err))
		writeErrors(w, http.StatusInternalServerError, msgInternal)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// Me handles GET /api/me for an authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	u, err := h.AuthService.CurrentUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeErrors(w, http.StatusNotFound, msgUserNotFound)
			return
		}
		h.log().Error("load current user failed", zap.Error(err))
		writeErrors(w, http.StatusInternalServerError, msgInternal)
		return
	}

	writeJSON(w, http.StatusOK, u.View())
}
