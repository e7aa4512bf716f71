package http

import (
	"net/http"

	"github.com/atinyakov/GophAuth/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves the API.
//
// Routes:
//
//	POST /api/users                → authHandler.SignUp
//	POST /api/login                → authHandler.Login
//	GET  /api/me                   → authHandler.Me (TokenAuth)
//	POST /api/invitations          → invitationHandler.Create (TokenAuth)
//	GET  /api/invitations/accept   → invitationHandler.Show (ResourceFromInvitationToken)
//	PUT  /api/invitations/accept   → invitationHandler.Accept (ResourceFromInvitationToken)
//
// Middleware chain (applied in order):
//  1. RequestID: tags each request
//  2. WithRequestLogging(logger): logs incoming requests
//  3. Recoverer: turns panics into 500s
//  4. AllowContentType("application/json"): rejects non-JSON bodies
func NewRouter(
	authHandler *AuthHandler,
	invitationHandler *InvitationHandler,
	verifier middleware.TokenVerifier,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.Recoverer)
	// Only allow request bodies with Content-Type: application/json
	r.Use(chiMiddleware.AllowContentType("application/json"))

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Post("/users", authHandler.SignUp)
		r.Post("/login", authHandler.Login)

		r.Route("/invitations", func(r chi.Router) {
			r.With(middleware.TokenAuth(verifier)).Post("/", invitationHandler.Create)

			r.Group(func(r chi.Router) {
				r.Use(invitationHandler.ResourceFromInvitationToken)
				r.Get("/accept", invitationHandler.Show)
				r.Put("/accept", invitationHandler.Accept)
			})
		})

		// Protected group: requires a valid access token
		r.Group(func(r chi.Router) {
			r.Use(middleware.TokenAuth(verifier))
			r.Get("/me", authHandler.Me)
		})
	})

	return r
}
