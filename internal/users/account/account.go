// Copyright (c) 2026 Taskora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account handles user profile management and account state endpoints.

It provides functionalities for users to view their private identity data,
update their avatar, inspect their active device sessions, and complete the
email confirmation flow.

# Architecture

  - Entities: SessionInfo (DTO).
  - Domain: This package depends on the auth package for the User entity.
  - Security: Read paths are gated by the verified identity in the request
    context; role-gated routes demonstrate the MODERATOR/ADMIN hierarchy.
*/
package account

import (
	"context"
	"time"
)

// # Domain Entities

// SessionInfo provides a safety-mapped view of an active user session.
// It omits the token fingerprint for transport.
type SessionInfo struct {
	ID        int64     `json:"id"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// # Repository Contracts

// SessionViewRepository defines the visibility contract for user sessions.
type SessionViewRepository interface {
	/*
		FindActiveByUserID lists all valid, non-expired sessions for a user.

		Parameters:
		  - context: context.Context
		  - userID: int64
		  - now: time.Time

		Returns:
		  - []SessionInfo: List of active devices
		  - error: Retrieval errors
	*/
	FindActiveByUserID(context context.Context, userID int64, now time.Time) ([]SessionInfo, error)
}
