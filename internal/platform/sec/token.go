// Copyright (c) 2026 Taskora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer via small interfaces.
package sec

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token purposes embedded as a claim so that a signed email-confirmation
// link can never be replayed as an API access token (both are signed with
// the same server secret).
const (
	PurposeAccess       = "access"
	PurposeEmailConfirm = "email_confirm"
)

// OpaqueSecretLength is the byte length of the random refresh-token secret
// handed to clients (32 bytes = 256 bits of entropy before encoding).
const OpaqueSecretLength = 32

// AuthClaims represents the payload embedded inside a signed token.
//
// The subject is the username for access tokens and the email address for
// email-confirmation tokens; the Purpose claim tells them apart.
type AuthClaims struct {
	jwt.RegisteredClaims

	Purpose string `json:"purpose"`
}

// TokenService handles generation and verification of JWT tokens using HS256.
//
// # Why symmetric?
//
// Tokens are issued and verified by the same process, so a single server
// secret is sufficient; there is no third party that needs to verify
// signatures without being able to mint them.
type TokenService struct {
	secret []byte
	issuer string

	// now is the clock used for iat/exp claims and verification.
	// Overridable in tests.
	now func() time.Time
}

// NewTokenService creates a new TokenService signing with the given secret.
func NewTokenService(secret, issuer string) (*TokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("sec: token secret must not be empty")
	}
	return &TokenService{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}, nil
}

// GenerateAccessToken creates a short-lived signed access token for a user.
//
// # Parameters
//   - username: The subject of the token.
//   - timeToLive: The duration before the token expires.
func (service *TokenService) GenerateAccessToken(username string, timeToLive time.Duration) (string, error) {
	return service.generate(username, PurposeAccess, timeToLive)
}

// GenerateEmailToken creates a long-lived signed email-confirmation token.
// The subject is the email address being confirmed.
func (service *TokenService) GenerateEmailToken(email string, timeToLive time.Duration) (string, error) {
	return service.generate(email, PurposeEmailConfirm, timeToLive)
}

func (service *TokenService) generate(subject, purpose string, timeToLive time.Duration) (string, error) {
	currentTime := service.now()
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		Purpose: purpose,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// VerifyAccessToken checks the signature, expiry, and purpose of an access
// token string.
//
// # Failure class
//
// Structural decode failures, signature mismatches, and expired tokens all
// collapse into a single opaque error so that callers cannot probe which
// check failed.
func (service *TokenService) VerifyAccessToken(tokenString string) (*AuthClaims, error) {
	return service.verify(tokenString, PurposeAccess)
}

// VerifyEmailToken checks the signature, expiry, and purpose of an
// email-confirmation token string and returns its claims.
func (service *TokenService) VerifyEmailToken(tokenString string) (*AuthClaims, error) {
	return service.verify(tokenString, PurposeEmailConfirm)
}

func (service *TokenService) verify(tokenString, purpose string) (*AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.secret, nil
	}, jwt.WithTimeFunc(service.now))

	if err != nil {
		return nil, fmt.Errorf("sec: invalid token: %w", err)
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid || claims.Purpose != purpose {
		return nil, fmt.Errorf("sec: invalid token claims")
	}

	return claims, nil
}

// # Opaque Secrets & Fingerprints

// GenerateOpaqueSecret returns a cryptographically random, URL-safe string
// used as the raw refresh-token value handed to the client. The raw value is
// never persisted — only its [Fingerprint].
func GenerateOpaqueSecret() (string, error) {
	buffer := make([]byte, OpaqueSecretLength)
	if _, err := rand.Read(buffer); err != nil {
		return "", fmt.Errorf("sec: failed to generate secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}

// Fingerprint returns the SHA-256 hex digest of a secret string.
//
// Unlike the password hash this is deterministic: the same input always
// yields the same output, which is what makes equality lookups possible
// without storing the original secret (refresh-token records, denylist keys).
func Fingerprint(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// # Verified Identity

// Identity is the request-scoped view of an authenticated user, produced by
// full access verification (denylist + signature + user lookup) and injected
// into the request context by the middleware.
type Identity struct {
	UserID    int64    `json:"user_id"`
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	Role      UserRole `json:"role"`
	Confirmed bool     `json:"confirmed"`
}
