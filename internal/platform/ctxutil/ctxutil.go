// Copyright (c) 2026 Taskora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxutil provides helpers for interacting with values stored in [context.Context].
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/taibuivan/taskora/internal/platform/ctxkey"
	"github.com/taibuivan/taskora/internal/platform/sec"
)

// # Request Tracing

// WithRequestID returns a new context with the provided request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyRequestID, id)
}

// GetRequestID retrieves the request ID from the context.
// Returns an empty string if not found.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyRequestID).(string)
	return id
}

// # Structured Logging

// WithLogger returns a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger retrieves the logger from the context.
// If no logger is found, it returns the global default logger.
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return logger
}

// # Identity & Access

// authUserHolder is a mutable slot for the verified identity. The request
// logger seeds it before authentication runs, so the identity set deeper in
// the middleware chain is visible from the outer context when the final
// request log is written.
type authUserHolder struct {
	identity *sec.Identity
}

// WithAuthScope returns a new context carrying an empty identity slot.
func WithAuthScope(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxkey.KeyUser, &authUserHolder{})
}

// WithAuthUser attaches the verified identity to the context. When an
// identity slot is already present it is filled in place, making the
// identity visible to holders of the outer context as well.
func WithAuthUser(ctx context.Context, user *sec.Identity) context.Context {
	if holder, ok := ctx.Value(ctxkey.KeyUser).(*authUserHolder); ok {
		holder.identity = user
		return ctx
	}
	return context.WithValue(ctx, ctxkey.KeyUser, &authUserHolder{identity: user})
}

// GetAuthUser retrieves the [*sec.Identity] from the [context.Context].
func GetAuthUser(ctx context.Context) *sec.Identity {
	holder, ok := ctx.Value(ctxkey.KeyUser).(*authUserHolder)
	if !ok {
		return nil
	}
	return holder.identity
}
