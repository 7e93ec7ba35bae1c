// Copyright (c) 2026 Taskora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"context"
	"errors"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/taskora/internal/platform/apperr"
)

// PostgreSQL SQLSTATE classes and codes we classify explicitly.
const (
	codeUniqueViolation      = "23505"
	classConnectionException = "08"
)

var (
	// ErrNotFound is a standard error returned when a queried row doesn't exist.
	ErrNotFound = apperr.NotFound("Resource")
)

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the error type.
func Wrap(err error) error {
	if err == nil {
		return nil
	}

	// 1. Not Found mapping
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	// 2. Constraint and connectivity classification via SQLSTATE
	var pgError *pgconn.PgError
	if errors.As(err, &pgError) {
		if pgError.Code == codeUniqueViolation {
			return apperr.Conflict("Resource already exists").WithCause(err)
		}
		if len(pgError.Code) >= 2 && pgError.Code[:2] == classConnectionException {
			return apperr.Unavailable(err)
		}
	}

	// 3. Transport-level failures (dial errors, timeouts) mean the store is
	// unreachable rather than the query being wrong.
	var netError net.Error
	if errors.As(err, &netError) || errors.Is(err, context.DeadlineExceeded) {
		return apperr.Unavailable(err)
	}

	// 4. Unknown query errors become Internal Server Errors
	return apperr.Internal(err)
}

// IsNotFound reports whether err represents a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
