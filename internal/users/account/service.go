// Copyright (c) 2026 Taskora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"time"

	"github.com/taibuivan/taskora/internal/users/auth"
)

// # Service Layer

// Service orchestrates business logic for user profiles and account state.
type Service struct {
	userRepository    auth.UserRepository
	sessionRepository SessionViewRepository

	// now is the clock for session visibility. Overridable in tests.
	now func() time.Time
}

// NewService constructs a new [Service] with its repository dependencies.
func NewService(userRepo auth.UserRepository, sessionRepo SessionViewRepository) *Service {
	return &Service{
		userRepository:    userRepo,
		sessionRepository: sessionRepo,
		now:               time.Now,
	}
}

// # Profile Management

/*
Profile retrieves the full private identity of a user.

Parameters:
  - context: context.Context
  - userID: int64

Returns:
  - *auth.User: The hydrated user profile
  - error: Not found or execution failures
*/
func (service *Service) Profile(context context.Context, userID int64) (*auth.User, error) {
	return service.userRepository.FindByID(context, userID)
}

/*
UpdateAvatar replaces the user's avatar URL and returns the fresh profile.

Parameters:
  - context: context.Context
  - userID: int64
  - avatarURL: string

Returns:
  - *auth.User: The updated profile
  - error: Not found or execution failures
*/
func (service *Service) UpdateAvatar(context context.Context, userID int64, avatarURL string) (*auth.User, error) {
	if err := service.userRepository.UpdateAvatar(context, userID, avatarURL); err != nil {
		return nil, err
	}
	return service.userRepository.FindByID(context, userID)
}

// # Session Transparency

/*
ActiveSessions lists the user's redeemable device sessions.

Parameters:
  - context: context.Context
  - userID: int64

Returns:
  - []SessionInfo: Active devices, newest first
  - error: Retrieval errors
*/
func (service *Service) ActiveSessions(context context.Context, userID int64) ([]SessionInfo, error) {
	return service.sessionRepository.FindActiveByUserID(context, userID, service.now())
}
