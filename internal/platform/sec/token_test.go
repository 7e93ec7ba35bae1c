// Copyright (c) 2026 Taskora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestService builds a TokenService pinned to a fixed clock.
func newTestService(t *testing.T, at time.Time) *TokenService {
	t.Helper()

	service, err := NewTokenService("test-secret-please-rotate", "taskora.app")
	require.NoError(t, err)
	service.now = func() time.Time { return at }
	return service
}

/*
TestTokenService_AccessRoundTrip verifies that a generated access token
carries the expected claims and verifies cleanly.
*/
func TestTokenService_AccessRoundTrip(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	service := newTestService(t, issuedAt)

	tokenString, err := service.GenerateAccessToken("alice", 30*time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := service.VerifyAccessToken(tokenString)
	require.NoError(t, err)

	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, "taskora.app", claims.Issuer)
	assert.Equal(t, PurposeAccess, claims.Purpose)
	assert.Equal(t, issuedAt.Add(30*time.Minute).Unix(), claims.ExpiresAt.Unix())
}

/*
TestTokenService_Expiry verifies that verification fails once the clock
passes the expiry instant.
*/
func TestTokenService_Expiry(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	service := newTestService(t, issuedAt)

	tokenString, err := service.GenerateAccessToken("alice", 30*time.Minute)
	require.NoError(t, err)

	// Still valid just before the boundary
	service.now = func() time.Time { return issuedAt.Add(30*time.Minute - time.Second) }
	_, err = service.VerifyAccessToken(tokenString)
	assert.NoError(t, err)

	// Rejected after the boundary
	service.now = func() time.Time { return issuedAt.Add(30*time.Minute + time.Second) }
	_, err = service.VerifyAccessToken(tokenString)
	assert.Error(t, err)
}

/*
TestTokenService_Tampering verifies that any modification of the token
string invalidates the signature.
*/
func TestTokenService_Tampering(t *testing.T) {
	service := newTestService(t, time.Now())

	tokenString, err := service.GenerateAccessToken("alice", time.Hour)
	require.NoError(t, err)

	tampered := tokenString[:len(tokenString)-2] + "xx"
	_, err = service.VerifyAccessToken(tampered)
	assert.Error(t, err)
}

/*
TestTokenService_WrongSecret verifies tokens signed with another secret
are rejected.
*/
func TestTokenService_WrongSecret(t *testing.T) {
	now := time.Now()
	service := newTestService(t, now)

	other, err := NewTokenService("completely-different-secret", "taskora.app")
	require.NoError(t, err)
	other.now = func() time.Time { return now }

	foreign, err := other.GenerateAccessToken("alice", time.Hour)
	require.NoError(t, err)

	_, err = service.VerifyAccessToken(foreign)
	assert.Error(t, err)
}

/*
TestTokenService_PurposeSeparation verifies that an email-confirmation token
can never pass access verification, and vice versa.
*/
func TestTokenService_PurposeSeparation(t *testing.T) {
	service := newTestService(t, time.Now())

	emailToken, err := service.GenerateEmailToken("alice@taskora.app", time.Hour)
	require.NoError(t, err)
	accessToken, err := service.GenerateAccessToken("alice", time.Hour)
	require.NoError(t, err)

	_, err = service.VerifyAccessToken(emailToken)
	assert.Error(t, err, "email token must not act as access token")

	_, err = service.VerifyEmailToken(accessToken)
	assert.Error(t, err, "access token must not act as confirmation link")

	claims, err := service.VerifyEmailToken(emailToken)
	require.NoError(t, err)
	assert.Equal(t, "alice@taskora.app", claims.Subject)
}

/*
TestTokenService_EmptySecret verifies the constructor rejects a blank secret.
*/
func TestTokenService_EmptySecret(t *testing.T) {
	_, err := NewTokenService("", "taskora.app")
	assert.Error(t, err)
}

/*
TestGenerateOpaqueSecret verifies the secret is URL-safe and unique per call.
*/
func TestGenerateOpaqueSecret(t *testing.T) {
	first, err := GenerateOpaqueSecret()
	require.NoError(t, err)
	second, err := GenerateOpaqueSecret()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NotContains(t, first, "+")
	assert.NotContains(t, first, "/")
	assert.NotContains(t, first, "=")

	// 32 bytes base64url without padding encodes to 43 characters
	assert.Len(t, first, 43)
}

/*
TestFingerprint verifies the digest is deterministic and input-sensitive.
*/
func TestFingerprint(t *testing.T) {
	assert.Equal(t, Fingerprint("secret"), Fingerprint("secret"))
	assert.NotEqual(t, Fingerprint("secret"), Fingerprint("secret2"))

	// sha256 hex is always 64 characters
	assert.Len(t, Fingerprint("anything"), 64)
}
