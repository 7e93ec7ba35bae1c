// Copyright (c) 2026 Taskora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/taskora/internal/platform/middleware"
	requestutil "github.com/taibuivan/taskora/internal/platform/request"
	"github.com/taibuivan/taskora/internal/platform/respond"
	"github.com/taibuivan/taskora/internal/platform/sec"
	"github.com/taibuivan/taskora/internal/platform/validate"
	"github.com/taibuivan/taskora/internal/users/auth"
)

// Handler implements the HTTP layer for user account management.
type Handler struct {
	accountService *Service
	authService    *auth.Service

	// profileLimiter throttles the /me endpoint independently of the
	// global rate limit.
	profileLimiter *middleware.IPRateLimiter
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service, authService *auth.Service, profileLimiter *middleware.IPRateLimiter) *Handler {
	return &Handler{
		accountService: service,
		authService:    authService,
		profileLimiter: profileLimiter,
	}
}

// Routes returns a [chi.Router] configured with the account domain's endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Email confirmation flow (public)
	router.Get("/confirmed_email/{token}", handler.confirmEmail)
	router.Post("/request_email", handler.requestEmail)

	// Account management (authenticated)
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.With(handler.profileLimiter.Middleware).Get("/me", handler.getMe)
		r.Patch("/avatar", handler.updateAvatar)
		r.Get("/me/sessions", handler.listSessions)
		r.Delete("/me/sessions", handler.revokeSessions)
	})

	// Role-gated views
	router.With(middleware.RequireRole(sec.RoleModerator)).Get("/moderator", handler.moderatorArea)
	router.With(middleware.RequireRole(sec.RoleAdmin)).Get("/admin", handler.adminArea)

	return router
}

// # User Profile Endpoints

/*
GET /api/v1/users/me.

Description: Retrieves the full private profile of the authenticated user.
Throttled to 10 requests per minute per IP on top of the global limit.

Response:
  - 200: User: Fully hydrated user profile
  - 401: ErrUnauthorized: Authentication required
  - 429: TOO_MANY_REQUESTS: Profile rate limit exceeded
*/
func (handler *Handler) getMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.Profile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// updateAvatarRequest defines the expected JSON payload for avatar updates.
type updateAvatarRequest struct {
	AvatarURL string `json:"avatar_url"`
}

/*
PATCH /api/v1/users/avatar.

Description: Replaces the authenticated user's avatar URL.

Request:
  - Body: updateAvatarRequest (AvatarURL)

Response:
  - 200: User: Updated profile
  - 400: ErrInvalidJSON: Bad input
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) updateAvatar(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateAvatarRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required("avatar_url", input.AvatarURL).
		URL("avatar_url", input.AvatarURL)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.UpdateAvatar(request.Context(), userID, input.AvatarURL)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
GET /api/v1/users/me/sessions.

Description: Lists the authenticated user's active device sessions,
newest first. Token fingerprints are never exposed.

Response:
  - 200: []SessionInfo: Active devices
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) listSessions(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sessions, err := handler.accountService.ActiveSessions(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, sessions)
}

/*
DELETE /api/v1/users/me/sessions.

Description: Signs the user out of every device by revoking all of their
active refresh sessions. The access token used for this call remains valid
until it expires.

Response:
  - 204: All sessions revoked
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) revokeSessions(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.RevokeAllSessions(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Email Confirmation Endpoints

/*
GET /api/v1/users/confirmed_email/{token}.

Description: Activates the account named by a signed confirmation token.
Confirming an already-confirmed account succeeds idempotently.

Response:
  - 200: Message: Confirmation acknowledged
  - 401: ErrUnauthorized: Invalid or expired token
*/
func (handler *Handler) confirmEmail(writer http.ResponseWriter, request *http.Request) {
	token := requestutil.Param(request, "token")

	user, err := handler.authService.ConfirmEmail(request.Context(), token)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		auth.FieldMessage: "Email confirmed for " + user.Email,
	})
}

// requestEmailRequest defines the payload for re-requesting a confirmation link.
type requestEmailRequest struct {
	Email string `json:"email"`
}

/*
POST /api/v1/users/request_email.

Description: Re-issues a confirmation token for the given address. The answer
is identical whether or not the address exists, preventing enumeration.

Request:
  - Body: requestEmailRequest (Email)

Response:
  - 200: Message: Generic acknowledgement
  - 400: ErrInvalidJSON: Invalid email format
*/
func (handler *Handler) requestEmail(writer http.ResponseWriter, request *http.Request) {
	var input requestEmailRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(auth.FieldEmail, input.Email).Email(auth.FieldEmail, input.Email)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.RequestEmailConfirmation(request.Context(), input.Email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		auth.FieldMessage: "If this email is registered, a confirmation link has been sent.",
	})
}

// # Role-Gated Views

/*
GET /api/v1/users/moderator.

Description: Reachable by MODERATOR and ADMIN roles.

Response:
  - 200: Message: Greeting for the moderation area
  - 403: ErrForbidden: Insufficient role
*/
func (handler *Handler) moderatorArea(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		auth.FieldMessage: "Welcome to the moderation area, " + identity.Username,
	})
}

/*
GET /api/v1/users/admin.

Description: Reachable by the ADMIN role only.

Response:
  - 200: Message: Greeting for the administration area
  - 403: ErrForbidden: Insufficient role
*/
func (handler *Handler) adminArea(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		auth.FieldMessage: "Welcome to the administration area, " + identity.Username,
	})
}
