// Copyright (c) 2026 Taskora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"errors"

	"github.com/taibuivan/taskora/internal/platform/apperr"
)

// # Rejection Causes

// Internal sentinels distinguishing why a credential was rejected. They are
// attached as the cause of a generic 401 so logs and tests can tell the
// variants apart while the client response stays uniform and reveals nothing
// an attacker could probe with.
var (
	// ErrInvalidCredentials marks a failed username/password check.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrTokenInvalid marks a malformed, tampered, or expired access token.
	ErrTokenInvalid = errors.New("auth: token invalid or expired")

	// ErrTokenRevoked marks an access token found in the denylist.
	ErrTokenRevoked = errors.New("auth: token revoked")

	// ErrUnknownSubject marks a structurally valid token whose subject no
	// longer resolves to an account.
	ErrUnknownSubject = errors.New("auth: unknown subject")

	// ErrInvalidRefresh marks a refresh secret with no redeemable session,
	// covering unknown, expired, revoked, and replayed secrets alike.
	ErrInvalidRefresh = errors.New("auth: invalid refresh token")
)

// unauthorized wraps a rejection cause into the uniform client-facing 401.
func unauthorized(cause error) *apperr.AppError {
	return apperr.Unauthorized("Could not validate credentials").WithCause(cause)
}
