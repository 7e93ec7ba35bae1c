// Copyright (c) 2026 Taskora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/taskora/internal/platform/dberr"
)

// # Session View Repository

// PostgresSessionViewRepository implements SessionViewRepository using pgx.
type PostgresSessionViewRepository struct {
	pool *pgxpool.Pool
}

// NewSessionViewRepository creates a new PostgreSQL implementation of SessionViewRepository.
func NewSessionViewRepository(pool *pgxpool.Pool) *PostgresSessionViewRepository {
	return &PostgresSessionViewRepository{pool: pool}
}

/*
FindActiveByUserID lists all redeemable sessions belonging to a user.

Description: Session transparency view. Revoked and expired sessions are
excluded; newest devices come first.

Parameters:
  - context: context.Context
  - userID: int64
  - now: time.Time

Returns:
  - []SessionInfo: Active device sessions
  - error: Retrieval errors
*/
func (repository *PostgresSessionViewRepository) FindActiveByUserID(context context.Context, userID int64, now time.Time) ([]SessionInfo, error) {
	const query = `
		SELECT id, useragent, ipaddress, createdat, expiresat
		FROM users.refresh_token
		WHERE userid = $1 AND revokedat IS NULL AND expiresat > $2
		ORDER BY createdat DESC`

	rows, err := repository.pool.Query(context, query, userID, now)
	if err != nil {
		return nil, dberr.Wrap(err)
	}
	defer rows.Close()

	sessions := []SessionInfo{}
	for rows.Next() {
		var session SessionInfo
		if err := rows.Scan(
			&session.ID,
			&session.UserAgent,
			&session.IPAddress,
			&session.CreatedAt,
			&session.ExpiresAt,
		); err != nil {
			return nil, dberr.Wrap(err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err)
	}

	return sessions, nil
}
