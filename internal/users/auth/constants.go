// Copyright (c) 2026 Taskora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "time"

// # Authentication Constraints

const (
	// DefaultAccessTokenTTL is the duration a JWT access token remains valid.
	// We keep it short (30m) to minimize the impact of a leaked token.
	DefaultAccessTokenTTL = 30 * time.Minute

	// DefaultRefreshTokenTTL is the duration a refresh session remains valid.
	// Longer-lived (7 days) to provide a good user experience.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour

	// DefaultEmailTokenTTL is the duration an email confirmation token remains
	// valid. Long-lived (7 days) as users might not check email immediately.
	DefaultEmailTokenTTL = 7 * 24 * time.Hour

	// DefaultSessionRetention is how long revoked sessions are kept in storage
	// before the purge cycle removes them, preserving a short audit window.
	DefaultSessionRetention = 7 * 24 * time.Hour
)
