// Copyright (c) 2026 Taskora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: int64

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByID(context context.Context, id int64) (*User, error)

	/*
		FindByEmail returns the account with the given email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		FindByUsername returns the account with the given username.

		Parameters:
		  - context: context.Context
		  - username: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByUsername(context context.Context, username string) (*User, error)

	/*
		Create persists a brand-new user account and assigns its ID.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, user *User) error

	/*
		UpdateAvatar replaces only the user's avatar URL.

		Parameters:
		  - context: context.Context
		  - userID: int64
		  - avatarURL: string

		Returns:
		  - error: Persistence failures
	*/
	UpdateAvatar(context context.Context, userID int64, avatarURL string) error

	/*
		MarkConfirmed updates the account with the given email to confirmed = true.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - error: Persistence failures
	*/
	MarkConfirmed(context context.Context, email string) error
}

// # Session Data Access

// RefreshTokenRepository defines the data access contract for refresh sessions.
type RefreshTokenRepository interface {

	/*
		Create persists a new refresh session for an authenticated login and
		assigns its ID.

		Parameters:
		  - context: context.Context
		  - token: *RefreshToken

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, token *RefreshToken) error

	/*
		FindActiveByTokenHash returns the session matching the fingerprint that
		is neither revoked nor expired at the given instant.

		Parameters:
		  - context: context.Context
		  - tokenHash: string
		  - now: time.Time

		Returns:
		  - *RefreshToken: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindActiveByTokenHash(context context.Context, tokenHash string, now time.Time) (*RefreshToken, error)

	/*
		Revoke marks the session as invalidated, but only if it has not already
		been revoked. The boolean result is the arbiter for concurrent rotation:
		exactly one caller observes true.

		Parameters:
		  - context: context.Context
		  - id: int64
		  - at: time.Time

		Returns:
		  - bool: true if this call performed the revocation
		  - error: Persistence failures
	*/
	Revoke(context context.Context, id int64, at time.Time) (bool, error)

	/*
		RevokeAllForUser revokes every active session belonging to the user.

		Parameters:
		  - context: context.Context
		  - userID: int64
		  - at: time.Time

		Returns:
		  - error: Persistence failures
	*/
	RevokeAllForUser(context context.Context, userID int64, at time.Time) error

	/*
		PurgeStale physically removes sessions that are expired, or revoked
		longer ago than the retention cutoff.

		Parameters:
		  - context: context.Context
		  - now: time.Time
		  - cutoff: time.Time

		Returns:
		  - int64: Number of rows removed
		  - error: Persistence failures
	*/
	PurgeStale(context context.Context, now, cutoff time.Time) (int64, error)
}

// # Volatile Data Access

// DenylistStore defines the contract for the shared revocation set of access
// tokens. Entries expire on their own once the underlying token would have
// expired anyway.
type DenylistStore interface {

	/*
		MarkRevoked records a token fingerprint as revoked for the given duration.

		Parameters:
		  - context: context.Context
		  - fingerprint: string
		  - ttl: time.Duration

		Returns:
		  - error: Persistence failures
	*/
	MarkRevoked(context context.Context, fingerprint string, ttl time.Duration) error

	/*
		IsRevoked reports whether the token fingerprint is present in the set.

		Parameters:
		  - context: context.Context
		  - fingerprint: string

		Returns:
		  - bool: true if the token has been revoked
		  - error: Retrieval failures (the caller must not fail open)
	*/
	IsRevoked(context context.Context, fingerprint string) (bool, error)
}
