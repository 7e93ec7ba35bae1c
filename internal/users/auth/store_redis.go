// Copyright (c) 2026 Taskora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/taskora/internal/platform/apperr"
	"github.com/taibuivan/taskora/internal/platform/constants"
)

// # Denylist Store

// RedisDenylistStore implements DenylistStore using Redis.
//
// Each revoked access token is recorded under its SHA-256 fingerprint with a
// TTL matching the token's remaining lifetime. Once the token would have
// expired anyway, Redis drops the entry on its own, so the set stays bounded
// without any sweeper.
type RedisDenylistStore struct {
	client *redis.Client
}

// NewDenylistStore creates a new Redis-backed DenylistStore.
func NewDenylistStore(client *redis.Client) *RedisDenylistStore {
	return &RedisDenylistStore{client: client}
}

/*
MarkRevoked records a token fingerprint as revoked for the given duration.

Parameters:
  - context: context.Context
  - fingerprint: string
  - ttl: time.Duration

Returns:
  - error: apperr.Unavailable on connectivity failures
*/
func (store *RedisDenylistStore) MarkRevoked(context context.Context, fingerprint string, ttl time.Duration) error {

	// Use constants for key prefix
	key := constants.RedisPrefixDenylist + fingerprint

	// Set the marker with TTL; the stored value is irrelevant
	if err := store.client.Set(context, key, "1", ttl).Err(); err != nil {
		return apperr.Unavailable(err)
	}

	// Return nil on success
	return nil
}

/*
IsRevoked reports whether the token fingerprint is present in the set.

Description: Connectivity failures surface as apperr.Unavailable so callers
reject the token instead of failing open.

Parameters:
  - context: context.Context
  - fingerprint: string

Returns:
  - bool: true if the token has been revoked
  - error: apperr.Unavailable on connectivity failures
*/
func (store *RedisDenylistStore) IsRevoked(context context.Context, fingerprint string) (bool, error) {

	// Use constants for key prefix
	key := constants.RedisPrefixDenylist + fingerprint

	// Probe for the marker
	if err := store.client.Get(context, key).Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, apperr.Unavailable(err)
	}

	// The marker exists, so the token is revoked
	return true, nil
}
