// Copyright (c) 2026 Taskora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/taskora/internal/platform/dberr"
	"github.com/taibuivan/taskora/internal/users/auth"
)

type stubUserRepo struct {
	users map[int64]*auth.User
}

func (repo *stubUserRepo) FindByID(_ context.Context, id int64) (*auth.User, error) {
	if user, ok := repo.users[id]; ok {
		clone := *user
		return &clone, nil
	}
	return nil, dberr.ErrNotFound
}

func (repo *stubUserRepo) FindByEmail(context.Context, string) (*auth.User, error) {
	return nil, dberr.ErrNotFound
}

func (repo *stubUserRepo) FindByUsername(context.Context, string) (*auth.User, error) {
	return nil, dberr.ErrNotFound
}

func (repo *stubUserRepo) Create(context.Context, *auth.User) error { return nil }

func (repo *stubUserRepo) UpdateAvatar(_ context.Context, userID int64, avatarURL string) error {
	user, ok := repo.users[userID]
	if !ok {
		return dberr.ErrNotFound
	}
	user.AvatarURL = avatarURL
	return nil
}

func (repo *stubUserRepo) MarkConfirmed(context.Context, string) error { return nil }

type stubSessionView struct {
	sessions []SessionInfo
}

func (repo *stubSessionView) FindActiveByUserID(context.Context, int64, time.Time) ([]SessionInfo, error) {
	return repo.sessions, nil
}

/*
TestService_Profile checks profile lookup for known and unknown accounts.
*/
func TestService_Profile(t *testing.T) {
	users := &stubUserRepo{users: map[int64]*auth.User{
		7: {ID: 7, Username: "alice", Email: "alice@taskora.app"},
	}}
	service := NewService(users, &stubSessionView{})

	user, err := service.Profile(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = service.Profile(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, dberr.IsNotFound(err))
}

/*
TestService_UpdateAvatar checks the avatar change is persisted and re-read.
*/
func TestService_UpdateAvatar(t *testing.T) {
	users := &stubUserRepo{users: map[int64]*auth.User{
		7: {ID: 7, Username: "alice"},
	}}
	service := NewService(users, &stubSessionView{})

	user, err := service.UpdateAvatar(context.Background(), 7, "https://cdn.taskora.app/a.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.taskora.app/a.png", user.AvatarURL)

	_, err = service.UpdateAvatar(context.Background(), 99, "https://cdn.taskora.app/a.png")
	require.Error(t, err)
}

/*
TestService_ActiveSessions checks the session view passthrough.
*/
func TestService_ActiveSessions(t *testing.T) {
	now := time.Now()
	view := &stubSessionView{sessions: []SessionInfo{
		{ID: 1, UserAgent: "curl/8.0", IPAddress: "10.0.0.1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)},
	}}
	service := NewService(&stubUserRepo{}, view)

	sessions, err := service.ActiveSessions(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "curl/8.0", sessions[0].UserAgent)
}
