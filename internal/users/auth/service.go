// Copyright (c) 2026 Taskora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/taskora/internal/platform/apperr"
	"github.com/taibuivan/taskora/internal/platform/ctxutil"
	"github.com/taibuivan/taskora/internal/platform/dberr"
	"github.com/taibuivan/taskora/internal/platform/sec"
)

// # Contracts & Types

// Mailer defines the contract for delivering account emails. The default
// implementation only logs the confirmation link; a real delivery backend
// can be swapped in without touching this service.
type Mailer interface {
	// SendConfirmation delivers an email-confirmation token to the address.
	SendConfirmation(ctx context.Context, email, token string) error
}

// LogMailer is the development Mailer: it logs the confirmation token
// instead of sending anything.
type LogMailer struct {
	Logger *slog.Logger
}

// SendConfirmation logs the token at INFO level.
func (mailer *LogMailer) SendConfirmation(ctx context.Context, email, token string) error {
	mailer.Logger.InfoContext(ctx, "email_confirmation_issued",
		slog.String("email", email),
		slog.String("token", token),
	)
	return nil
}

// Config carries the tunable lifetimes of the token lifecycle.
type Config struct {
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	EmailTokenTTL   time.Duration

	// SessionRetention is how long revoked sessions survive before the purge
	// cycle removes them.
	SessionRetention time.Duration
}

// withDefaults fills zero fields with the package defaults.
func (config Config) withDefaults() Config {
	if config.AccessTokenTTL <= 0 {
		config.AccessTokenTTL = DefaultAccessTokenTTL
	}
	if config.RefreshTokenTTL <= 0 {
		config.RefreshTokenTTL = DefaultRefreshTokenTTL
	}
	if config.EmailTokenTTL <= 0 {
		config.EmailTokenTTL = DefaultEmailTokenTTL
	}
	if config.SessionRetention <= 0 {
		config.SessionRetention = DefaultSessionRetention
	}
	return config
}

// Service implements the authentication and session lifecycle use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, token
// verification, or rotation logic must be reviewed by the security team.
type Service struct {
	userRepository    UserRepository
	sessionRepository RefreshTokenRepository
	denylist          DenylistStore
	tokens            *sec.TokenService
	mailer            Mailer
	config            Config

	// now is the clock for all lifecycle decisions. Overridable in tests.
	now func() time.Time
}

// NewService constructs a new [Service] with the necessary dependencies.
func NewService(
	userRepo UserRepository,
	sessionRepo RefreshTokenRepository,
	denylist DenylistStore,
	tokens *sec.TokenService,
	mailer Mailer,
	config Config,
) *Service {
	return &Service{
		userRepository:    userRepo,
		sessionRepository: sessionRepo,
		denylist:          denylist,
		tokens:            tokens,
		mailer:            mailer,
		config:            config.withDefaults(),
		now:               time.Now,
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

/*
Register validates, hashes, and persists a brand new user account.

Description: Enrolls a new member with the base USER role and an unconfirmed
email, then issues a confirmation token as a side effect.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *User: Created entity
  - error: apperr.Conflict (if identity exists) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*User, error) {

	// Verify email uniqueness. Return a client-safe Conflict error.
	if _, err := service.userRepository.FindByEmail(context, input.Email); err == nil {
		return nil, apperr.Conflict("Email is already registered")
	} else if !dberr.IsNotFound(err) {
		return nil, err
	}

	// Verify username uniqueness. Return a client-safe Conflict error.
	if _, err := service.userRepository.FindByUsername(context, input.Username); err == nil {
		return nil, apperr.Conflict("Username is already taken")
	} else if !dberr.IsNotFound(err) {
		return nil, err
	}

	// Prevent storing plain-text passwords. Default cost is used for balance
	// between security and CPU utilization during registration spikes.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// Construct the new User entity with the base role
	user := &User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		Role:         sec.RoleUser,
		Confirmed:    false,
	}

	// Persist the user; the database races duplicate registrations for us and
	// surfaces the loser as a Conflict through the unique constraints.
	if err := service.userRepository.Create(context, user); err != nil {
		return nil, err
	}

	// Issue the confirmation token as a side effect. The account is already
	// persisted, so neither failure rolls back registration: the member can
	// re-request confirmation later. A signing failure means the token
	// configuration is broken and is logged loudly.
	if token, err := service.tokens.GenerateEmailToken(user.Email, service.config.EmailTokenTTL); err != nil {
		ctxutil.GetLogger(context).Error("email_token_sign_failed",
			slog.String("email", user.Email),
			slog.String("error", err.Error()),
		)
	} else if err := service.mailer.SendConfirmation(context, user.Email, token); err != nil {
		ctxutil.GetLogger(context).Warn("email_confirmation_send_failed",
			slog.String("email", user.Email),
			slog.String("error", err.Error()),
		)
	}

	return user, nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Username  string
	Password  string
	UserAgent string
	IPAddress string
}

// TokenPair represents a successfully established user session.
type TokenPair struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	User                  *User
}

/*
Login validates user credentials and issues a fresh token pair.

Description: Verifies identity with a constant-time password comparison, then
mints an access token and opens a new refresh session.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *TokenPair: Transport-ready session credentials
  - error: Uniform Unauthorized or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*TokenPair, error) {

	// Look up the account by username
	user, err := service.userRepository.FindByUsername(context, input.Username)
	if err != nil {
		if dberr.IsNotFound(err) {
			// Generic message to prevent account enumeration
			return nil, unauthorized(ErrInvalidCredentials)
		}
		return nil, err
	}

	// Verify password hash using constant-time comparison to prevent timing attacks
	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, unauthorized(ErrInvalidCredentials)
	}

	return service.issueTokens(context, user, input.UserAgent, input.IPAddress)
}

// issueTokens mints an access token and opens a refresh session for the user.
func (service *Service) issueTokens(context context.Context, user *User, userAgent, ipAddress string) (*TokenPair, error) {

	// Generate the short-lived access token
	accessToken, err := service.tokens.GenerateAccessToken(user.Username, service.config.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_generation_failed: %w", err)
	}

	// Generate the opaque refresh secret; only its fingerprint is persisted
	refreshSecret, err := sec.GenerateOpaqueSecret()
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_secret_failed: %w", err)
	}

	now := service.now()
	session := &RefreshToken{
		UserID:    user.ID,
		TokenHash: sec.Fingerprint(refreshSecret),
		UserAgent: userAgent,
		IPAddress: ipAddress,
		CreatedAt: now,
		ExpiresAt: now.Add(service.config.RefreshTokenTTL),
	}

	if err := service.sessionRepository.Create(context, session); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:           accessToken,
		RefreshToken:          refreshSecret,
		AccessTokenExpiresAt:  now.Add(service.config.AccessTokenTTL),
		RefreshTokenExpiresAt: session.ExpiresAt,
		User:                  user,
	}, nil
}

// # Access Verification

/*
VerifyAccess performs the full check of a bearer access token.

Description: The checks run in a fixed order. Revocation is consulted first so
that a revoked token is rejected even when its signature is pristine, then the
signature and expiry, and finally a live account lookup so that deleted users
lose access the moment their row disappears.

Parameters:
  - context: context.Context
  - tokenString: string

Returns:
  - *sec.Identity: The verified request-scoped identity
  - error: Uniform Unauthorized, or apperr.Unavailable when a backing store is down
*/
func (service *Service) VerifyAccess(context context.Context, tokenString string) (*sec.Identity, error) {

	// 1. Revocation check. A denylist outage rejects the token with a 503
	// rather than failing open.
	revoked, err := service.denylist.IsRevoked(context, sec.Fingerprint(tokenString))
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, unauthorized(ErrTokenRevoked)
	}

	// 2. Signature, expiry, and purpose
	claims, err := service.tokens.VerifyAccessToken(tokenString)
	if err != nil {
		return nil, unauthorized(ErrTokenInvalid)
	}

	// 3. Live account lookup by the token subject
	user, err := service.userRepository.FindByUsername(context, claims.Subject)
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, unauthorized(ErrUnknownSubject)
		}
		return nil, err
	}

	return user.Identity(), nil
}

// # Session Rotation

/*
Refresh implements the refresh-token rotation mechanism.

Description: Resolves the opaque secret to a redeemable session, revokes it
with a compare-and-set so a replayed secret loses the race, and issues a fresh
rotated pair bound to the same user.

Parameters:
  - context: context.Context
  - refreshSecret: string
  - userAgent: string
  - ipAddress: string

Returns:
  - *TokenPair: New session credentials
  - error: Uniform Unauthorized or storage failures
*/
func (service *Service) Refresh(context context.Context, refreshSecret, userAgent, ipAddress string) (*TokenPair, error) {

	// Resolve the fingerprint to a session that is neither revoked nor expired
	now := service.now()
	session, err := service.sessionRepository.FindActiveByTokenHash(context, sec.Fingerprint(refreshSecret), now)
	if err != nil {
		if dberr.IsNotFound(err) {
			// Unknown, expired, revoked, and replayed secrets are indistinguishable
			return nil, unauthorized(ErrInvalidRefresh)
		}
		return nil, err
	}

	// Rotation: claim the session. Exactly one concurrent caller wins; the
	// loser already found the row but arrives after it was revoked.
	claimed, err := service.sessionRepository.Revoke(context, session.ID, now)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, unauthorized(ErrInvalidRefresh)
	}

	// Fetch the user associated with this session
	user, err := service.userRepository.FindByID(context, session.UserID)
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, unauthorized(ErrUnknownSubject)
		}
		return nil, err
	}

	return service.issueTokens(context, user, userAgent, ipAddress)
}

// # Revocation

/*
Logout invalidates the caller's credentials.

Description: The bearer access token is denylisted for its remaining lifetime,
and the refresh session, when a secret is supplied, is revoked in place. Both
halves are idempotent: logging out with already-dead credentials succeeds.

Parameters:
  - context: context.Context
  - accessToken: string
  - refreshSecret: string (optional; empty skips session revocation)

Returns:
  - error: Storage failures only — invalid tokens are a successful logout
*/
func (service *Service) Logout(context context.Context, accessToken, refreshSecret string) error {

	// Denylist the access token for whatever lifetime it has left
	if err := service.RevokeAccess(context, accessToken); err != nil {
		return err
	}

	// Revoke the refresh session when the client supplied its secret
	if refreshSecret != "" {
		if err := service.RevokeRefresh(context, refreshSecret); err != nil {
			return err
		}
	}

	return nil
}

/*
RevokeAccess places an access token on the shared denylist.

Description: The entry lives exactly as long as the token itself would have,
so the denylist never grows beyond the set of live-but-revoked tokens. An
already-expired token is a no-op: it can no longer pass verification anyway.

Parameters:
  - context: context.Context
  - tokenString: string

Returns:
  - error: Denylist storage failures
*/
func (service *Service) RevokeAccess(context context.Context, tokenString string) error {

	// Decode to learn the expiry; a token we cannot verify needs no denylisting
	claims, err := service.tokens.VerifyAccessToken(tokenString)
	if err != nil {
		return nil
	}

	remaining := claims.ExpiresAt.Time.Sub(service.now())
	if remaining <= 0 {
		return nil
	}

	return service.denylist.MarkRevoked(context, sec.Fingerprint(tokenString), remaining)
}

/*
RevokeRefresh permanently revokes the session behind a refresh secret.

Description: Idempotent by design. A secret with no redeemable session means
there is nothing left to revoke, which is the desired end state.

Parameters:
  - context: context.Context
  - refreshSecret: string

Returns:
  - error: Storage failures
*/
func (service *Service) RevokeRefresh(context context.Context, refreshSecret string) error {

	session, err := service.sessionRepository.FindActiveByTokenHash(context, sec.Fingerprint(refreshSecret), service.now())
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil
		}
		return err
	}

	// Losing the revocation race to a concurrent caller is still a success
	if _, err := service.sessionRepository.Revoke(context, session.ID, service.now()); err != nil {
		return err
	}

	return nil
}

/*
RevokeAllSessions signs the user out of every device at once.

Description: Revokes every active refresh session the user holds, so no
device can rotate its way back in. Outstanding access tokens keep working
until they expire; only a per-token revocation denylists them.

Parameters:
  - context: context.Context
  - userID: int64

Returns:
  - error: Storage failures
*/
func (service *Service) RevokeAllSessions(context context.Context, userID int64) error {
	return service.sessionRepository.RevokeAllForUser(context, userID, service.now())
}

// # Email Confirmation

/*
RequestEmailConfirmation re-issues a confirmation token for an address.

Description: Silently succeeds when the email is unknown to prevent account
enumeration, and when the account is already confirmed.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - error: Generation or delivery failures
*/
func (service *Service) RequestEmailConfirmation(context context.Context, email string) error {

	user, err := service.userRepository.FindByEmail(context, email)
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil
		}
		return err
	}
	if user.Confirmed {
		return nil
	}

	token, err := service.tokens.GenerateEmailToken(user.Email, service.config.EmailTokenTTL)
	if err != nil {
		return fmt.Errorf("auth_service_email_token_failed: %w", err)
	}

	return service.mailer.SendConfirmation(context, user.Email, token)
}

/*
ConfirmEmail activates the account named by a signed confirmation token.

Parameters:
  - context: context.Context
  - tokenString: string

Returns:
  - *User: The confirmed account
  - error: Uniform Unauthorized or storage failures
*/
func (service *Service) ConfirmEmail(context context.Context, tokenString string) (*User, error) {

	// The purpose claim stops an access token from doubling as a confirmation link
	claims, err := service.tokens.VerifyEmailToken(tokenString)
	if err != nil {
		return nil, unauthorized(ErrTokenInvalid)
	}

	user, err := service.userRepository.FindByEmail(context, claims.Subject)
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, unauthorized(ErrUnknownSubject)
		}
		return nil, err
	}

	// Confirming twice is harmless; the update is a no-op the second time
	if !user.Confirmed {
		if err := service.userRepository.MarkConfirmed(context, user.Email); err != nil {
			return nil, err
		}
		user.Confirmed = true
	}

	return user, nil
}

// # Storage Hygiene

/*
PurgeStaleSessions removes sessions that can never be redeemed again.

Description: Intended to run on a timer. Expired sessions go immediately;
revoked ones are retained for the configured window first.

Parameters:
  - context: context.Context

Returns:
  - int64: Number of sessions removed
  - error: Cleanup failures
*/
func (service *Service) PurgeStaleSessions(context context.Context) (int64, error) {
	now := service.now()
	return service.sessionRepository.PurgeStale(context, now, now.Add(-service.config.SessionRetention))
}
