// Copyright (c) 2026 Taskora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/taskora/internal/platform/dberr"
)

// # User Repository

// PostgresUserRepository implements the UserRepository interface using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

/*
Create persists a new user record into the users.account table.

Description: The database assigns the numeric ID, which is written back into
the entity. Timestamps are initialized if not provided.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: apperr.Conflict on duplicate username/email, or connectivity errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO users.account (
			username, email, passwordhash, avatarurl, role, confirmed, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	err := repository.pool.QueryRow(context, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.AvatarURL,
		user.Role,
		user.Confirmed,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID)

	if err != nil {
		return dberr.Wrap(err)
	}

	return nil
}

/*
FindByEmail retrieves a user record by their unique email address.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated account entity
  - error: dberr.ErrNotFound or database errors
*/
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	const query = `
		SELECT id, username, email, passwordhash, avatarurl, role, confirmed, createdat, updatedat
		FROM users.account
		WHERE email = $1`

	return repository.scanOne(context, query, email)
}

/*
FindByUsername retrieves a user record by their unique username.

Description: Standard lookup by username for authentication and profile resolution.

Parameters:
  - context: context.Context
  - username: string

Returns:
  - *User: Hydrated account entity
  - error: dberr.ErrNotFound or database errors
*/
func (repository *PostgresUserRepository) FindByUsername(context context.Context, username string) (*User, error) {
	const query = `
		SELECT id, username, email, passwordhash, avatarurl, role, confirmed, createdat, updatedat
		FROM users.account
		WHERE username = $1`

	return repository.scanOne(context, query, username)
}

/*
FindByID retrieves a user record by their unique ID.

Description: Primary key resolution for user accounts.

Parameters:
  - context: context.Context
  - id: int64

Returns:
  - *User: Hydrated account entity
  - error: dberr.ErrNotFound or execution errors
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id int64) (*User, error) {
	const query = `
		SELECT id, username, email, passwordhash, avatarurl, role, confirmed, createdat, updatedat
		FROM users.account
		WHERE id = $1`

	return repository.scanOne(context, query, id)
}

// scanOne runs a single-row account query and hydrates the entity.
func (repository *PostgresUserRepository) scanOne(context context.Context, query string, arg any) (*User, error) {
	user := &User{}
	err := repository.pool.QueryRow(context, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.AvatarURL,
		&user.Role,
		&user.Confirmed,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		return nil, dberr.Wrap(err)
	}

	return user, nil
}

/*
UpdateAvatar replaces only the avatar URL for a specific user.

Parameters:
  - context: context.Context
  - userID: int64
  - avatarURL: string

Returns:
  - error: dberr.ErrNotFound if the account does not exist, or execution errors
*/
func (repository *PostgresUserRepository) UpdateAvatar(context context.Context, userID int64, avatarURL string) error {
	const query = `
		UPDATE users.account
		SET avatarurl = $2, updatedat = $3
		WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, userID, avatarURL, time.Now())
	if err != nil {
		return dberr.Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}

	return nil
}

/*
MarkConfirmed updates the account with the given email to confirmed = true.

Description: Post-confirmation activation of the account.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - error: dberr.ErrNotFound if no account carries the email, or database errors
*/
func (repository *PostgresUserRepository) MarkConfirmed(context context.Context, email string) error {
	const query = "UPDATE users.account SET confirmed = TRUE, updatedat = $2 WHERE email = $1"

	tag, err := repository.pool.Exec(context, query, email, time.Now())
	if err != nil {
		return dberr.Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}

	return nil
}

// # Refresh Session Repository

// PostgresRefreshTokenRepository implements the RefreshTokenRepository interface.
type PostgresRefreshTokenRepository struct {
	pool *pgxpool.Pool
}

// NewRefreshTokenRepository creates a new PostgreSQL implementation of RefreshTokenRepository.
func NewRefreshTokenRepository(pool *pgxpool.Pool) *PostgresRefreshTokenRepository {
	return &PostgresRefreshTokenRepository{pool: pool}
}

/*
Create persists a new session record into the users.refresh_token table.

Description: Records a successful authentication session in persistent storage.
The database assigns the numeric ID, which is written back into the entity.

Parameters:
  - context: context.Context
  - token: *RefreshToken

Returns:
  - error: Storage failures
*/
func (repository *PostgresRefreshTokenRepository) Create(context context.Context, token *RefreshToken) error {
	const query = `
		INSERT INTO users.refresh_token (
			userid, tokenhash, useragent, ipaddress, createdat, expiresat
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}

	err := repository.pool.QueryRow(context, query,
		token.UserID,
		token.TokenHash,
		token.UserAgent,
		token.IPAddress,
		token.CreatedAt,
		token.ExpiresAt,
	).Scan(&token.ID)

	if err != nil {
		return dberr.Wrap(err)
	}

	return nil
}

/*
FindActiveByTokenHash retrieves the redeemable session matching a fingerprint.

Description: Securely resolves a refresh secret's fingerprint into a session
that is neither revoked nor expired at the given instant.

Parameters:
  - context: context.Context
  - tokenHash: string
  - now: time.Time

Returns:
  - *RefreshToken: Hydrated session metadata
  - error: dberr.ErrNotFound or execution errors
*/
func (repository *PostgresRefreshTokenRepository) FindActiveByTokenHash(context context.Context, tokenHash string, now time.Time) (*RefreshToken, error) {
	const query = `
		SELECT id, userid, tokenhash, useragent, ipaddress, createdat, expiresat, revokedat
		FROM users.refresh_token
		WHERE tokenhash = $1 AND revokedat IS NULL AND expiresat > $2`

	token := &RefreshToken{}
	err := repository.pool.QueryRow(context, query, tokenHash, now).Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.UserAgent,
		&token.IPAddress,
		&token.CreatedAt,
		&token.ExpiresAt,
		&token.RevokedAt,
	)

	if err != nil {
		return nil, dberr.Wrap(err)
	}

	return token, nil
}

/*
Revoke marks a specific session as revoked, guarded against double spend.

Description: The revokedat IS NULL predicate makes the update a compare-and-set.
When two rotations race on the same session, the database serializes them and
exactly one caller sees a row affected.

Parameters:
  - context: context.Context
  - id: int64
  - at: time.Time

Returns:
  - bool: true if this call performed the revocation
  - error: Revocation failures
*/
func (repository *PostgresRefreshTokenRepository) Revoke(context context.Context, id int64, at time.Time) (bool, error) {
	const query = "UPDATE users.refresh_token SET revokedat = $2 WHERE id = $1 AND revokedat IS NULL"

	tag, err := repository.pool.Exec(context, query, id, at)
	if err != nil {
		return false, dberr.Wrap(err)
	}

	return tag.RowsAffected() > 0, nil
}

/*
RevokeAllForUser marks all active sessions for a user as revoked.

Description: Bulk invalidation of every live session for a user.

Parameters:
  - context: context.Context
  - userID: int64
  - at: time.Time

Returns:
  - error: Batch revocation failures
*/
func (repository *PostgresRefreshTokenRepository) RevokeAllForUser(context context.Context, userID int64, at time.Time) error {
	const query = "UPDATE users.refresh_token SET revokedat = $2 WHERE userid = $1 AND revokedat IS NULL"

	_, err := repository.pool.Exec(context, query, userID, at)
	if err != nil {
		return dberr.Wrap(err)
	}

	return nil
}

/*
PurgeStale permanently removes sessions that can never be redeemed again.

Description: A session is purgeable once it has expired, or once it was revoked
longer ago than the retention cutoff. Recently revoked sessions are kept inside
the retention window as a short audit trail.

Parameters:
  - context: context.Context
  - now: time.Time
  - cutoff: time.Time

Returns:
  - int64: Number of rows removed
  - error: Cleanup failures
*/
func (repository *PostgresRefreshTokenRepository) PurgeStale(context context.Context, now, cutoff time.Time) (int64, error) {
	const query = `
		DELETE FROM users.refresh_token
		WHERE expiresat < $1
		   OR (revokedat IS NOT NULL AND revokedat < $2)`

	tag, err := repository.pool.Exec(context, query, now, cutoff)
	if err != nil {
		return 0, dberr.Wrap(err)
	}

	return tag.RowsAffected(), nil
}
