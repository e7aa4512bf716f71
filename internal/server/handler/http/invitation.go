package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/GophAuth/internal/middleware"
	"github.com/atinyakov/GophAuth/internal/models"
	"github.com/atinyakov/GophAuth/internal/service"
)

// MsgInvalidInvitationToken is returned with 422 whenever an invitation token
// does not resolve to an open invitation.
const MsgInvalidInvitationToken = "Invalid invitation token."

// maxTokenBody bounds how much of a request body is buffered while looking
// for an invitation token.
const maxTokenBody = 1 << 20

type invitedUserKey struct{}

// InvitationService defines the invitation operations required by the handlers.
type InvitationService interface {
	// Invite creates a pending account and returns its raw token.
	Invite(ctx context.Context, inviterID string, req models.InviteRequest) (string, *models.User, error)
	// ResolveInvitation finds the invited user holding an open token.
	ResolveInvitation(ctx context.Context, token string) (*models.User, error)
	// AcceptInvitation completes the invited user's registration.
	AcceptInvitation(ctx context.Context, u *models.User, form models.AcceptInvitationForm) (*models.User, error)
}

// InvitationHandler serves the invitation endpoints.
type InvitationHandler struct {
	Invitations InvitationService
	// Log receives unexpected failures. May be nil.
	Log *zap.Logger
}

// InvitationResponse is returned when an invitation is created.
type InvitationResponse struct {
	InvitationToken string          `json:"invitation_token"`
	User            models.UserView `json:"user"`
}

func (h *InvitationHandler) log() *zap.Logger {
	if h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}

// ResourceFromInvitationToken resolves the invitation_token parameter, taken
// from the query string or else from a JSON body, to the invited user and
// stores it in the request context. Requests whose token is absent or does
// not resolve are answered with 422 and {"error":["Invalid invitation token."]}.
func (h *InvitationHandler) ResourceFromInvitationToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("invitation_token")
		if token == "" {
			var err error
			token, err = tokenFromBody(r)
			if err != nil {
				writeErrors(w, http.StatusBadRequest, msgInvalidRequest)
				return
			}
		}

		u, err := h.Invitations.ResolveInvitation(r.Context(), token)
		if err != nil {
			if errors.Is(err, service.ErrInvalidInvitationToken) {
				writeErrors(w, http.StatusUnprocessableEntity, MsgInvalidInvitationToken)
				return
			}
			h.log().Error("resolve invitation failed", zap.Error(err))
			writeErrors(w, http.StatusInternalServerError, msgInternal)
			return
		}

		ctx := context.WithValue(r.Context(), invitedUserKey{}, u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// tokenFromBody peeks at a JSON body for invitation_token and restores the
// body for the next handler. A body that is not JSON yields no token.
func tokenFromBody(r *http.Request) (string, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return "", nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxTokenBody))
	if err != nil {
		return "", err
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	var payload struct {
		InvitationToken string `json:"invitation_token"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", nil
	}
	return payload.InvitationToken, nil
}

// InvitedUserFromContext returns the user stored by ResourceFromInvitationToken.
func InvitedUserFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(invitedUserKey{}).(*models.User)
	return u
}

// Create handles POST /api/invitations for an authenticated inviter.
func (h *InvitationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.InviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrors(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	inviterID := middleware.GetUserIDFromContext(r.Context())
	token, u, err := h.Invitations.Invite(r.Context(), inviterID, req)
	if err != nil {
		var ve *service.ValidationError
		switch {
		case errors.As(err, &ve):
			writeErrors(w, http.StatusUnprocessableEntity, ve.Messages()...)
		case errors.Is(err, service.ErrEmailTaken):
			writeErrors(w, http.StatusUnprocessableEntity, msgEmailTaken)
		default:
			h.log().Error("invite failed", zap.Error(err))
			writeErrors(w, http.StatusInternalServerError, msgInternal)
		}
		return
	}

	writeJSON(w, http.StatusCreated, InvitationResponse{InvitationToken: token, User: u.View()})
}

// Show handles GET /api/invitations/accept and returns the invited account.
func (h *InvitationHandler) Show(w http.ResponseWriter, r *http.Request) {
	u := InvitedUserFromContext(r.Context())
	if u == nil {
		writeErrors(w, http.StatusUnprocessableEntity, MsgInvalidInvitationToken)
		return
	}
	writeJSON(w, http.StatusOK, u.View())
}

// Accept handles PUT /api/invitations/accept and completes registration.
func (h *InvitationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	u := InvitedUserFromContext(r.Context())
	if u == nil {
		writeErrors(w, http.StatusUnprocessableEntity, MsgInvalidInvitationToken)
		return
	}

	var form models.AcceptInvitationForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeErrors(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	accepted, err := h.Invitations.AcceptInvitation(r.Context(), u, form)
	if err != nil {
		var ve *service.ValidationError
		switch {
		case errors.As(err, &ve):
			writeErrors(w, http.StatusUnprocessableEntity, ve.Messages()...)
		case errors.Is(err, service.ErrInvalidInvitationToken):
			writeErrors(w, http.StatusUnprocessableEntity, MsgInvalidInvitationToken)
		default:
			h.log().Error("accept invitation failed", zap.Error(err))
			writeErrors(w, http.StatusInternalServerError, msgInternal)
		}
		return
	}

	writeJSON(w, http.StatusOK, accepted.View())
}
