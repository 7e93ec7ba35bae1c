// Copyright (c) 2026 Taskora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the user identity and session lifecycle layer.

It defines the core domain entities (User, RefreshToken) and the logic for
credential verification, token issuance, rotation, and revocation.

# Architecture

This layer is the "Truth" of the system. Entities defined here have no external
dependencies and encapsulate all business rules related to user identity.
Access tokens are short-lived signed JWTs; refresh sessions are opaque secrets
whose SHA-256 fingerprints are persisted server-side, so a database leak never
exposes a usable credential.
*/
package auth

import (
	"time"

	"github.com/taibuivan/taskora/internal/platform/sec"
)

// # Domain Entities

// User represents a registered member of the platform.
type User struct {
	ID           int64        `json:"id"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"` // Explicitly omitted from JSON for security.
	AvatarURL    string       `json:"avatar,omitempty"`
	Role         sec.UserRole `json:"role"`
	Confirmed    bool         `json:"confirmed"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Identity projects the user into the request-scoped form carried in context.
func (user *User) Identity() *sec.Identity {
	return &sec.Identity{
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		Confirmed: user.Confirmed,
	}
}

// RefreshToken represents one persisted refresh session. Only the SHA-256
// fingerprint of the opaque secret is stored, never the secret itself.
type RefreshToken struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	TokenHash string     `json:"-"` // Fingerprint of the opaque secret. Omitted for security.
	UserAgent string     `json:"user_agent,omitempty"`
	IPAddress string     `json:"ip_address,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// Active reports whether the session can still be redeemed at the given instant.
func (token *RefreshToken) Active(now time.Time) bool {
	return token.RevokedAt == nil && token.ExpiresAt.After(now)
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldUsername     = "username"
	FieldEmail        = "email"
	FieldPassword     = "password"
	FieldToken        = "token"
	FieldAccessToken  = "access_token"
	FieldRefreshToken = "refresh_token"
	FieldTokenType    = "token_type"
	FieldExpiresIn    = "expires_in"
	FieldUser         = "user"
	FieldMessage      = "message"
)
