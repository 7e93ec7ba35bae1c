// Copyright (c) 2026 Taskora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/taskora/internal/platform/apperr"
	"github.com/taibuivan/taskora/internal/platform/ctxutil"
	"github.com/taibuivan/taskora/internal/platform/dberr"
	"github.com/taibuivan/taskora/internal/platform/sec"
)

// # In-Memory Fakes

type memoryUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{nextID: 1, users: map[int64]*User{}}
}

func (repo *memoryUserRepo) FindByID(_ context.Context, id int64) (*User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if user, ok := repo.users[id]; ok {
		clone := *user
		return &clone, nil
	}
	return nil, dberr.ErrNotFound
}

func (repo *memoryUserRepo) FindByUsername(_ context.Context, username string) (*User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, user := range repo.users {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, dberr.ErrNotFound
}

func (repo *memoryUserRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, user := range repo.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, dberr.ErrNotFound
}

func (repo *memoryUserRepo) Create(_ context.Context, user *User) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	user.ID = repo.nextID
	repo.nextID++
	clone := *user
	repo.users[user.ID] = &clone
	return nil
}

func (repo *memoryUserRepo) UpdateAvatar(_ context.Context, userID int64, avatarURL string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	user, ok := repo.users[userID]
	if !ok {
		return dberr.ErrNotFound
	}
	user.AvatarURL = avatarURL
	return nil
}

func (repo *memoryUserRepo) MarkConfirmed(_ context.Context, email string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, user := range repo.users {
		if user.Email == email {
			user.Confirmed = true
			return nil
		}
	}
	return dberr.ErrNotFound
}

type memorySessionRepo struct {
	mu       sync.Mutex
	nextID   int64
	sessions map[int64]*RefreshToken
}

func newMemorySessionRepo() *memorySessionRepo {
	return &memorySessionRepo{nextID: 1, sessions: map[int64]*RefreshToken{}}
}

func (repo *memorySessionRepo) Create(_ context.Context, token *RefreshToken) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	token.ID = repo.nextID
	repo.nextID++
	clone := *token
	repo.sessions[token.ID] = &clone
	return nil
}

func (repo *memorySessionRepo) FindActiveByTokenHash(_ context.Context, tokenHash string, now time.Time) (*RefreshToken, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, session := range repo.sessions {
		if session.TokenHash == tokenHash && session.RevokedAt == nil && session.ExpiresAt.After(now) {
			clone := *session
			return &clone, nil
		}
	}
	return nil, dberr.ErrNotFound
}

func (repo *memorySessionRepo) Revoke(_ context.Context, id int64, at time.Time) (bool, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	session, ok := repo.sessions[id]
	if !ok || session.RevokedAt != nil {
		return false, nil
	}
	revokedAt := at
	session.RevokedAt = &revokedAt
	return true, nil
}

func (repo *memorySessionRepo) RevokeAllForUser(_ context.Context, userID int64, at time.Time) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, session := range repo.sessions {
		if session.UserID == userID && session.RevokedAt == nil {
			revokedAt := at
			session.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (repo *memorySessionRepo) PurgeStale(_ context.Context, now, cutoff time.Time) (int64, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	var removed int64
	for id, session := range repo.sessions {
		expired := session.ExpiresAt.Before(now)
		longRevoked := session.RevokedAt != nil && session.RevokedAt.Before(cutoff)
		if expired || longRevoked {
			delete(repo.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (repo *memorySessionRepo) count() int {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return len(repo.sessions)
}

type memoryDenylist struct {
	mu      sync.Mutex
	entries map[string]time.Duration

	// failWith, when set, simulates a store outage on every call.
	failWith error
}

func newMemoryDenylist() *memoryDenylist {
	return &memoryDenylist{entries: map[string]time.Duration{}}
}

func (store *memoryDenylist) MarkRevoked(_ context.Context, fingerprint string, ttl time.Duration) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.failWith != nil {
		return store.failWith
	}
	store.entries[fingerprint] = ttl
	return nil
}

func (store *memoryDenylist) IsRevoked(_ context.Context, fingerprint string) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.failWith != nil {
		return false, store.failWith
	}
	_, ok := store.entries[fingerprint]
	return ok, nil
}

type recordingMailer struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (mailer *recordingMailer) SendConfirmation(_ context.Context, email, token string) error {
	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	if mailer.tokens == nil {
		mailer.tokens = map[string]string{}
	}
	mailer.tokens[email] = token
	return nil
}

func (mailer *recordingMailer) tokenFor(email string) string {
	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	return mailer.tokens[email]
}

// # Fixture

type testEngine struct {
	service  *Service
	users    *memoryUserRepo
	sessions *memorySessionRepo
	denylist *memoryDenylist
	mailer   *recordingMailer
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()

	tokens, err := sec.NewTokenService("unit-test-signing-secret", "taskora.app")
	require.NoError(t, err)

	engine := &testEngine{
		users:    newMemoryUserRepo(),
		sessions: newMemorySessionRepo(),
		denylist: newMemoryDenylist(),
		mailer:   &recordingMailer{},
	}
	engine.service = NewService(engine.users, engine.sessions, engine.denylist, tokens, engine.mailer, Config{})
	return engine
}

func (engine *testEngine) register(t *testing.T, username string) *User {
	t.Helper()
	user, err := engine.service.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@taskora.app",
		Password: "sup3r-secret-pw",
	})
	require.NoError(t, err)
	return user
}

func (engine *testEngine) login(t *testing.T, username string) *TokenPair {
	t.Helper()
	pair, err := engine.service.Login(context.Background(), LoginInput{
		Username: username,
		Password: "sup3r-secret-pw",
	})
	require.NoError(t, err)
	return pair
}

func assertUnauthorized(t *testing.T, err error, cause error) {
	t.Helper()
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, 401, appError.HTTPStatus)
	assert.Equal(t, "Could not validate credentials", appError.Message)
	assert.True(t, errors.Is(appError.Cause, cause), "expected cause %v, got %v", cause, appError.Cause)
}

// # Registration & Login

/*
TestService_Register verifies enrollment, default role, and identity conflicts.
*/
func TestService_Register(t *testing.T) {
	engine := newTestEngine(t)

	user := engine.register(t, "alice")
	assert.NotZero(t, user.ID)
	assert.Equal(t, sec.RoleUser, user.Role)
	assert.False(t, user.Confirmed)
	assert.NotEqual(t, "sup3r-secret-pw", user.PasswordHash)

	// A confirmation token was issued on registration
	assert.NotEmpty(t, engine.mailer.tokenFor("alice@taskora.app"))

	// Duplicate email
	_, err := engine.service.Register(context.Background(), RegisterInput{
		Username: "alice2", Email: "alice@taskora.app", Password: "sup3r-secret-pw",
	})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)

	// Duplicate username
	_, err = engine.service.Register(context.Background(), RegisterInput{
		Username: "alice", Email: "other@taskora.app", Password: "sup3r-secret-pw",
	})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)
}

type failingMailer struct{}

func (failingMailer) SendConfirmation(context.Context, string, string) error {
	return errors.New("smtp unreachable")
}

type capturingHandler struct {
	mu       sync.Mutex
	messages []string
}

func (handler *capturingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (handler *capturingHandler) Handle(_ context.Context, record slog.Record) error {
	handler.mu.Lock()
	defer handler.mu.Unlock()
	handler.messages = append(handler.messages, record.Message)
	return nil
}

func (handler *capturingHandler) WithAttrs([]slog.Attr) slog.Handler { return handler }
func (handler *capturingHandler) WithGroup(string) slog.Handler      { return handler }

/*
TestService_Register_DeliveryFailure verifies a confirmation-delivery failure
never fails registration but is logged, not dropped.
*/
func TestService_Register_DeliveryFailure(t *testing.T) {
	engine := newTestEngine(t)
	engine.service.mailer = failingMailer{}

	logHandler := &capturingHandler{}
	ctx := ctxutil.WithLogger(context.Background(), slog.New(logHandler))

	user, err := engine.service.Register(ctx, RegisterInput{
		Username: "alice",
		Email:    "alice@taskora.app",
		Password: "sup3r-secret-pw",
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Contains(t, logHandler.messages, "email_confirmation_send_failed")
}

/*
TestService_Login verifies credential checks and the issued pair.
*/
func TestService_Login(t *testing.T) {
	engine := newTestEngine(t)
	engine.register(t, "alice")

	pair := engine.login(t, "alice")
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "alice", pair.User.Username)
	assert.Equal(t, 1, engine.sessions.count())

	// Wrong password and unknown user produce the identical rejection
	_, err := engine.service.Login(context.Background(), LoginInput{Username: "alice", Password: "wrong"})
	assertUnauthorized(t, err, ErrInvalidCredentials)

	_, err = engine.service.Login(context.Background(), LoginInput{Username: "nobody", Password: "wrong"})
	assertUnauthorized(t, err, ErrInvalidCredentials)
}

// # Access Verification

/*
TestService_VerifyAccess covers the full verification order: denylist,
signature, then live account lookup.
*/
func TestService_VerifyAccess(t *testing.T) {
	engine := newTestEngine(t)
	engine.register(t, "alice")
	pair := engine.login(t, "alice")

	identity, err := engine.service.VerifyAccess(context.Background(), pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", identity.Username)
	assert.Equal(t, sec.RoleUser, identity.Role)

	t.Run("garbage_token", func(t *testing.T) {
		_, err := engine.service.VerifyAccess(context.Background(), "not-a-jwt")
		assertUnauthorized(t, err, ErrTokenInvalid)
	})

	t.Run("revoked_token", func(t *testing.T) {
		require.NoError(t, engine.service.RevokeAccess(context.Background(), pair.AccessToken))
		_, err := engine.service.VerifyAccess(context.Background(), pair.AccessToken)
		assertUnauthorized(t, err, ErrTokenRevoked)
	})

	t.Run("denylist_outage_fails_closed", func(t *testing.T) {
		outage := newTestEngine(t)
		outage.register(t, "bob")
		bobPair := outage.login(t, "bob")

		outage.denylist.failWith = apperr.Unavailable(errors.New("connection refused"))
		_, err := outage.service.VerifyAccess(context.Background(), bobPair.AccessToken)
		require.Error(t, err)
		assert.Equal(t, 503, apperr.As(err).HTTPStatus)
	})

	t.Run("unknown_subject", func(t *testing.T) {
		ghost := newTestEngine(t)
		ghost.register(t, "carol")
		carolPair := ghost.login(t, "carol")

		// Delete the account out from under a valid token
		ghost.users.mu.Lock()
		ghost.users.users = map[int64]*User{}
		ghost.users.mu.Unlock()

		_, err := ghost.service.VerifyAccess(context.Background(), carolPair.AccessToken)
		assertUnauthorized(t, err, ErrUnknownSubject)
	})
}

// # Rotation

/*
TestService_Refresh verifies rotation issues fresh credentials and kills the
old secret.
*/
func TestService_Refresh(t *testing.T) {
	engine := newTestEngine(t)
	engine.register(t, "alice")
	pair := engine.login(t, "alice")

	rotated, err := engine.service.Refresh(context.Background(), pair.RefreshToken, "", "")
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)
	assert.Equal(t, pair.User.ID, rotated.User.ID)

	// Replaying the consumed secret is rejected
	_, err = engine.service.Refresh(context.Background(), pair.RefreshToken, "", "")
	assertUnauthorized(t, err, ErrInvalidRefresh)

	// The rotated secret still works
	_, err = engine.service.Refresh(context.Background(), rotated.RefreshToken, "", "")
	require.NoError(t, err)
}

/*
TestService_Refresh_Expired verifies an expired session cannot be rotated.
*/
func TestService_Refresh_Expired(t *testing.T) {
	engine := newTestEngine(t)
	engine.register(t, "alice")
	pair := engine.login(t, "alice")

	// Jump the engine clock past the refresh lifetime
	engine.service.now = func() time.Time {
		return time.Now().Add(DefaultRefreshTokenTTL + time.Hour)
	}

	_, err := engine.service.Refresh(context.Background(), pair.RefreshToken, "", "")
	assertUnauthorized(t, err, ErrInvalidRefresh)
}

/*
TestService_Refresh_ConcurrentRace verifies that when many rotations race on
one secret, exactly one wins.
*/
func TestService_Refresh_ConcurrentRace(t *testing.T) {
	engine := newTestEngine(t)
	engine.register(t, "alice")
	pair := engine.login(t, "alice")

	const attempts = 16
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.service.Refresh(context.Background(), pair.RefreshToken, "", "")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	winners := 0
	for err := range results {
		if err == nil {
			winners++
		} else {
			assertUnauthorized(t, err, ErrInvalidRefresh)
		}
	}
	assert.Equal(t, 1, winners, "exactly one rotation must win")
}

// # Revocation

/*
TestService_Logout verifies both halves of logout and its idempotency.
*/
func TestService_Logout(t *testing.T) {
	engine := newTestEngine(t)
	engine.register(t, "alice")
	pair := engine.login(t, "alice")

	require.NoError(t, engine.service.Logout(context.Background(), pair.AccessToken, pair.RefreshToken))

	// Access token is now denylisted
	_, err := engine.service.VerifyAccess(context.Background(), pair.AccessToken)
	assertUnauthorized(t, err, ErrTokenRevoked)

	// Refresh session is dead
	_, err = engine.service.Refresh(context.Background(), pair.RefreshToken, "", "")
	assertUnauthorized(t, err, ErrInvalidRefresh)

	// Logging out again with the same credentials still succeeds
	require.NoError(t, engine.service.Logout(context.Background(), pair.AccessToken, pair.RefreshToken))

	// Logout without a refresh secret is also fine
	require.NoError(t, engine.service.Logout(context.Background(), pair.AccessToken, ""))
}

/*
TestService_RevokeAllSessions verifies sign-out-everywhere kills every
refresh session while leaving the account usable.
*/
func TestService_RevokeAllSessions(t *testing.T) {
	engine := newTestEngine(t)
	user := engine.register(t, "alice")

	laptop := engine.login(t, "alice")
	phone := engine.login(t, "alice")

	require.NoError(t, engine.service.RevokeAllSessions(context.Background(), user.ID))

	// No device can rotate its way back in
	_, err := engine.service.Refresh(context.Background(), laptop.RefreshToken, "", "")
	assertUnauthorized(t, err, ErrInvalidRefresh)
	_, err = engine.service.Refresh(context.Background(), phone.RefreshToken, "", "")
	assertUnauthorized(t, err, ErrInvalidRefresh)

	// A fresh login opens a fresh session
	pair := engine.login(t, "alice")
	_, err = engine.service.Refresh(context.Background(), pair.RefreshToken, "", "")
	require.NoError(t, err)
}

/*
TestService_RevokeAccess_Expired verifies denylisting an already-expired
token is a deliberate no-op.
*/
func TestService_RevokeAccess_Expired(t *testing.T) {
	engine := newTestEngine(t)
	engine.register(t, "alice")
	pair := engine.login(t, "alice")

	// The engine clock sits past the access expiry, so no entry is written
	engine.service.now = func() time.Time {
		return time.Now().Add(DefaultAccessTokenTTL + time.Hour)
	}

	require.NoError(t, engine.service.RevokeAccess(context.Background(), pair.AccessToken))
	assert.Empty(t, engine.denylist.entries)
}

/*
TestService_RevokeAccess_TTL verifies the denylist entry lives only as long
as the token itself would have.
*/
func TestService_RevokeAccess_TTL(t *testing.T) {
	engine := newTestEngine(t)
	engine.register(t, "alice")
	pair := engine.login(t, "alice")

	require.NoError(t, engine.service.RevokeAccess(context.Background(), pair.AccessToken))

	ttl := engine.denylist.entries[sec.Fingerprint(pair.AccessToken)]
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, DefaultAccessTokenTTL)
}

// # Purge

/*
TestService_PurgeStaleSessions verifies the purge predicate: expired rows go
immediately, revoked rows only after the retention window.
*/
func TestService_PurgeStaleSessions(t *testing.T) {
	engine := newTestEngine(t)
	user := engine.register(t, "alice")

	now := time.Now()
	longAgo := now.Add(-DefaultSessionRetention - time.Hour)
	recently := now.Add(-time.Hour)

	seed := func(expiresAt time.Time, revokedAt *time.Time) {
		session := &RefreshToken{
			UserID:    user.ID,
			TokenHash: sec.Fingerprint(expiresAt.String() + now.String()),
			CreatedAt: now.Add(-48 * time.Hour),
			ExpiresAt: expiresAt,
			RevokedAt: revokedAt,
		}
		require.NoError(t, engine.sessions.Create(context.Background(), session))
	}

	seed(now.Add(-time.Minute), nil)    // expired -> purged
	seed(now.Add(time.Hour), &longAgo)  // revoked past retention -> purged
	seed(now.Add(time.Hour), &recently) // recently revoked -> kept
	seed(now.Add(time.Hour), nil)       // live -> kept

	removed, err := engine.service.PurgeStaleSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	assert.Equal(t, 2, engine.sessions.count())
}

// # Email Confirmation

/*
TestService_ConfirmEmail verifies the confirmation flow end to end, including
purpose separation and idempotency.
*/
func TestService_ConfirmEmail(t *testing.T) {
	engine := newTestEngine(t)
	engine.register(t, "alice")
	confirmToken := engine.mailer.tokenFor("alice@taskora.app")
	require.NotEmpty(t, confirmToken)

	user, err := engine.service.ConfirmEmail(context.Background(), confirmToken)
	require.NoError(t, err)
	assert.True(t, user.Confirmed)

	// Confirming again is harmless
	user, err = engine.service.ConfirmEmail(context.Background(), confirmToken)
	require.NoError(t, err)
	assert.True(t, user.Confirmed)

	// An access token must not work as a confirmation link
	pair := engine.login(t, "alice")
	_, err = engine.service.ConfirmEmail(context.Background(), pair.AccessToken)
	assertUnauthorized(t, err, ErrTokenInvalid)

	// Garbage tokens are rejected
	_, err = engine.service.ConfirmEmail(context.Background(), "nonsense")
	assertUnauthorized(t, err, ErrTokenInvalid)
}

/*
TestService_RequestEmailConfirmation verifies re-requests and the
anti-enumeration behavior.
*/
func TestService_RequestEmailConfirmation(t *testing.T) {
	engine := newTestEngine(t)
	engine.register(t, "alice")

	first := engine.mailer.tokenFor("alice@taskora.app")

	// Unknown address: silent success, nothing sent
	require.NoError(t, engine.service.RequestEmailConfirmation(context.Background(), "ghost@taskora.app"))
	assert.Empty(t, engine.mailer.tokenFor("ghost@taskora.app"))

	// Known, unconfirmed address: a token is issued
	require.NoError(t, engine.service.RequestEmailConfirmation(context.Background(), "alice@taskora.app"))
	assert.NotEmpty(t, engine.mailer.tokenFor("alice@taskora.app"))

	// Already confirmed: silent no-op
	_, err := engine.service.ConfirmEmail(context.Background(), first)
	require.NoError(t, err)
	engine.mailer.tokens["alice@taskora.app"] = ""
	require.NoError(t, engine.service.RequestEmailConfirmation(context.Background(), "alice@taskora.app"))
	assert.Empty(t, engine.mailer.tokenFor("alice@taskora.app"))
}
