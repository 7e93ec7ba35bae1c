// Copyright (c) 2026 Taskora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ctxutil_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/taskora/internal/platform/ctxutil"
	"github.com/taibuivan/taskora/internal/platform/sec"
)

/*
TestContext_RequestID verifies that Request IDs can be injected and retrieved.
*/
func TestContext_RequestID(t *testing.T) {
	ctx := context.Background()
	requestID := "test-request-id"

	// 1. Initially should be empty
	assert.Empty(t, ctxutil.GetRequestID(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithRequestID(ctx, requestID)
	assert.Equal(t, requestID, ctxutil.GetRequestID(ctx))
}

/*
TestContext_Logger verifies that a custom logger can be stored in context.
*/
func TestContext_Logger(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// 1. Initially should return the default logger
	assert.Equal(t, slog.Default(), ctxutil.GetLogger(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithLogger(ctx, logger)
	assert.Equal(t, logger, ctxutil.GetLogger(ctx))
}

/*
TestContext_AuthUser verifies that the verified identity can be stored in context.
*/
func TestContext_AuthUser(t *testing.T) {
	ctx := context.Background()
	identity := &sec.Identity{
		UserID:   123,
		Username: "alice",
		Role:     sec.RoleAdmin,
	}

	// 1. Initially should be nil
	assert.Nil(t, ctxutil.GetAuthUser(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithAuthUser(ctx, identity)
	retrieved := ctxutil.GetAuthUser(ctx)

	assert.NotNil(t, retrieved)
	assert.Equal(t, int64(123), retrieved.UserID)
	assert.Equal(t, sec.RoleAdmin, retrieved.Role)
}

/*
TestContext_AuthScope verifies that an identity set on a derived context is
visible from the scoped outer context, as the request logger relies on.
*/
func TestContext_AuthScope(t *testing.T) {
	outer := ctxutil.WithAuthScope(context.Background())
	assert.Nil(t, ctxutil.GetAuthUser(outer))

	// Authentication runs deeper in the chain, on a derived context
	inner := context.WithValue(outer, struct{}{}, "downstream")
	inner = ctxutil.WithAuthUser(inner, &sec.Identity{UserID: 7, Username: "alice", Role: sec.RoleUser})

	// The outer holder sees the identity filled downstream
	retrieved := ctxutil.GetAuthUser(outer)
	assert.NotNil(t, retrieved)
	assert.Equal(t, int64(7), retrieved.UserID)
}
