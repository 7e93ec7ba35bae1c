// Copyright (c) 2026 Taskora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/taskora/internal/platform/middleware"
	requestutil "github.com/taibuivan/taskora/internal/platform/request"
	"github.com/taibuivan/taskora/internal/platform/respond"
	"github.com/taibuivan/taskora/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// This handler manages the session lifecycle entry points (registration,
// login, rotation, logout). The refresh secret travels in the request body,
// never in a cookie, so non-browser clients work without a cookie jar.
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST /register : Creates a new account.
//   - POST /login    : Authenticates and returns a token pair.
//   - POST /refresh  : Rotates a refresh secret into a fresh pair.
//   - POST /logout   : Revokes the caller's credentials.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/refresh", handler.refresh)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/logout", handler.logout)
	})

	return router
}

// # Request Payloads

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

/*
Register handles the creation of a new user account.

POST /api/v1/auth/register

Description: Validates input, checks for identity conflicts, and persists
a new user profile to the database.

Request:
  - Body: registerRequest (Username, Email, Password)

Response:
  - 201: User: Created user profile
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 409: ErrConflict: Username or Email already exists
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldUsername, input.Username).
		MinLen(FieldUsername, input.Username, 3).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, 8)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Register(request.Context(), RegisterInput{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

/*
Login authenticates a user and establishes a session.

POST /api/v1/auth/login

Description: Verifies credentials and returns a signed access token together
with an opaque refresh secret.

Request:
  - Body: loginRequest (Username, Password)

Response:
  - 200: TokenPair: Access token, refresh token, and user profile
  - 401: ErrUnauthorized: Invalid credentials
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldUsername, input.Username)
	validator.Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	pair, err := handler.authService.Login(request.Context(), LoginInput{
		Username:  input.Username,
		Password:  input.Password,
		UserAgent: request.UserAgent(),
		IPAddress: middleware.RealIP(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, tokenPairResponse(pair))
}

/*
Refresh rotates a refresh secret into a brand new token pair.

POST /api/v1/auth/refresh

Description: Validates the opaque refresh secret from the request body,
revokes its session, and issues fresh rotated credentials. A replayed secret
is rejected with the same generic 401 as an unknown one.

Request:
  - Body: refreshRequest (RefreshToken)

Response:
  - 200: TokenPair: New session credentials
  - 401: ErrUnauthorized: Missing, expired, or already-used refresh token
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	var input refreshRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if input.RefreshToken == "" {
		respond.Error(writer, request, validate.RequiredError(FieldRefreshToken, "is required"))
		return
	}

	pair, err := handler.authService.Refresh(
		request.Context(),
		input.RefreshToken,
		request.UserAgent(),
		middleware.RealIP(request),
	)

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, tokenPairResponse(pair))
}

/*
Logout terminates the current user session.

POST /api/v1/auth/logout

Description: Denylists the presented access token for its remaining lifetime
and, when the body carries the refresh secret, revokes that session too. The
operation is idempotent and always answers 204 for valid bearers.

Request:
  - Body: logoutRequest (RefreshToken, optional; an empty body is accepted)

Response:
  - 204: No Content: Session terminated
  - 401: ErrUnauthorized: Missing or invalid access token
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {

	// The body is optional; decode failures just mean no refresh secret
	var input logoutRequest
	_ = requestutil.DecodeJSON(request, &input)

	accessToken := bearerToken(request)
	if err := handler.authService.Logout(request.Context(), accessToken, input.RefreshToken); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Response Shaping

// tokenPairResponse shapes the issued credentials for transport.
func tokenPairResponse(pair *TokenPair) map[string]any {
	return map[string]any{
		FieldAccessToken:  pair.AccessToken,
		FieldRefreshToken: pair.RefreshToken,
		FieldTokenType:    "Bearer",
		FieldExpiresIn:    int64(time.Until(pair.AccessTokenExpiresAt) / time.Second),
		FieldUser:         pair.User,
	}
}

// bearerToken extracts the raw token from the Authorization header.
func bearerToken(request *http.Request) string {
	parts := strings.SplitN(request.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
