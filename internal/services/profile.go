package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/techzara/platform/internal/logger"
	"github.com/techzara/platform/internal/storage"
	"github.com/techzara/platform/internal/store"
	"github.com/techzara/platform/types"
	"go.uber.org/zap"
)

// ObjectStore is the subset of object storage used for avatars.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (*storage.Object, error)
	Delete(ctx context.Context, key string) error
}

// ProfileService manages profile pictures kept in object storage.
type ProfileService struct {
	users   UserRepository
	objects ObjectStore
}

// NewProfileService returns a ProfileService. A nil objects disables avatar
// operations.
func NewProfileService(users UserRepository, objects ObjectStore) *ProfileService {
	return &ProfileService{users: users, objects: objects}
}

// Enabled reports whether an object storage backend is configured.
func (s *ProfileService) Enabled() bool {
	return s.objects != nil
}

// UploadAvatar stores the image and records its key on the user's profile.
// A previously stored avatar is removed once the new key is persisted.
func (s *ProfileService) UploadAvatar(ctx context.Context, userID int, r io.Reader, size int64, contentType string) (string, error) {
	if !s.Enabled() {
		return "", ErrStorageDisabled
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("%w: avatar must be an image", ErrValidation)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	key := avatarKey(user.ID)
	if err := s.objects.Put(ctx, key, r, size, contentType); err != nil {
		return "", fmt.Errorf("store avatar: %w", err)
	}

	var previous string
	if user.UserInfo == nil {
		user.SetUserInfo(&types.UserInformation{})
	} else if user.UserInfo.AvatarKey != nil {
		previous = *user.UserInfo.AvatarKey
	}
	user.UserInfo.AvatarKey = &key

	if _, err := s.users.Update(ctx, user); err != nil {
		_ = s.objects.Delete(ctx, key)
		return "", err
	}

	if previous != "" {
		if err := s.objects.Delete(ctx, previous); err != nil {
			logger.FromContext(ctx).Warn("failed to remove previous avatar",
				zap.String("key", previous),
				zap.Error(err),
			)
		}
	}
	return key, nil
}

// OpenAvatar opens the user's stored avatar. The caller closes the body.
func (s *ProfileService) OpenAvatar(ctx context.Context, userID int) (*storage.Object, error) {
	if !s.Enabled() {
		return nil, ErrStorageDisabled
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.UserInfo == nil || user.UserInfo.AvatarKey == nil || *user.UserInfo.AvatarKey == "" {
		return nil, store.ErrNotFound
	}
	return s.objects.Get(ctx, *user.UserInfo.AvatarKey)
}

func avatarKey(userID int) string {
	return fmt.Sprintf("avatars/%d/%s", userID, uuid.NewString())
}
