package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/dtroode/sportify-server/internal/logger"
	"github.com/dtroode/sportify-server/internal/model"
)

// Profiles manages user documents and keeps the local profile blob current.
type Profiles struct {
	users  model.UserStore
	cache  model.ProfileCache
	blobs  model.BlobStore
	logger *logger.Logger
}

func NewProfiles(
	users model.UserStore,
	cache model.ProfileCache,
	blobs model.BlobStore,
	logger *logger.Logger,
) *Profiles {
	return &Profiles{
		users:  users,
		cache:  cache,
		blobs:  blobs,
		logger: logger,
	}
}

// CreateProfile creates the user document with empty link lists.
func (s *Profiles) CreateProfile(ctx context.Context, params model.CreateProfileParams) (model.User, error) {
	if params.UserID == "" {
		return model.User{}, model.NewValidationError("userId", "is required")
	}
	profile := params.Profile
	if err := profile.Validate(); err != nil {
		return model.User{}, err
	}

	_, err := s.users.GetByID(ctx, params.UserID)
	if err == nil {
		return model.User{}, fmt.Errorf("user %s: %w", params.UserID, model.ErrAlreadyExists)
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.User{}, fmt.Errorf("failed to get user: %w", err)
	}

	if len(params.Picture) > 0 {
		url, err := s.upload(ctx, params.Picture, params.PictureContentType)
		if err != nil {
			return model.User{}, err
		}
		profile.ProfilePicture = url
	}

	user := model.User{
		ID:               params.UserID,
		Profile:          profile,
		RegisteredEvents: []string{},
		CreatedEvents:    []string{},
	}
	if err := s.users.Create(ctx, user); err != nil {
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	s.store(ctx, user)
	return user, nil
}

// GetProfile reads the user document, falling back to the cached blob when
// the remote store is unavailable. The second result reports a cache hit.
func (s *Profiles) GetProfile(ctx context.Context, userID string) (model.User, bool, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err == nil {
		s.store(ctx, user)
		return user, false, nil
	}
	if !errors.Is(err, model.ErrRemoteUnavailable) {
		return model.User{}, false, fmt.Errorf("failed to get user: %w", err)
	}

	cached, ok, cacheErr := s.cache.GetProfile(ctx, userID)
	if cacheErr != nil {
		s.logger.Warn("profile cache read failed", "user_id", userID, "error", cacheErr)
	}
	if !ok {
		return model.User{}, false, fmt.Errorf("failed to get user: %w", err)
	}
	s.logger.Debug("serving cached profile", "user_id", userID)
	return cached, true, nil
}

// UpdateProfile overwrites the profile fields. An empty picture keeps the current one.
func (s *Profiles) UpdateProfile(ctx context.Context, params model.UpdateProfileParams) (model.User, error) {
	profile := params.Profile
	if err := profile.Validate(); err != nil {
		return model.User{}, err
	}

	user, err := s.users.GetByID(ctx, params.UserID)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to get user: %w", err)
	}

	switch {
	case len(params.Picture) > 0:
		url, err := s.upload(ctx, params.Picture, params.PictureContentType)
		if err != nil {
			return model.User{}, err
		}
		profile.ProfilePicture = url
	case profile.ProfilePicture == "":
		profile.ProfilePicture = user.ProfilePicture
	}

	if err := s.users.UpdateProfile(ctx, params.UserID, profile); err != nil {
		return model.User{}, fmt.Errorf("failed to update profile: %w", err)
	}

	user.Profile = profile
	s.store(ctx, user)
	return user, nil
}

// ClearProfile drops the cached profile blob of userID.
func (s *Profiles) ClearProfile(ctx context.Context, userID string) error {
	if err := s.cache.ClearProfile(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear cached profile: %w", err)
	}
	return nil
}

// Refresh rereads the user and overwrites the cached blob. Errors are logged only.
func (s *Profiles) Refresh(ctx context.Context, userID string) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.logger.Debug("profile refresh skipped", "user_id", userID, "error", err)
		return
	}
	s.store(ctx, user)
}

func (s *Profiles) store(ctx context.Context, user model.User) {
	if err := s.cache.SetProfile(ctx, user); err != nil {
		s.logger.Warn("profile cache write failed", "user_id", user.ID, "error", err)
	}
}

func (s *Profiles) upload(ctx context.Context, content []byte, contentType string) (string, error) {
	if s.blobs == nil {
		return "", errors.New("blob storage is not configured")
	}
	url, err := s.blobs.Upload(ctx, model.BlobProfilePicture, bytes.NewReader(content), int64(len(content)), contentType)
	if err != nil {
		return "", fmt.Errorf("failed to upload profile picture: %w", err)
	}
	return url, nil
}
