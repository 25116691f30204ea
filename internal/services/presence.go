package services

import (
	"context"
	"fmt"
	"time"

	"github.com/techzara/platform/types"
)

// PresenceRepository defines persistence operations for presences.
type PresenceRepository interface {
	ListByUser(ctx context.Context, userID int) ([]*types.Presence, error)
	Create(ctx context.Context, presence *types.Presence) (*types.Presence, error)
	Delete(ctx context.Context, userID, id int) error
}

// PresenceService records user attendance.
type PresenceService struct {
	users     UserRepository
	presences PresenceRepository
}

func NewPresenceService(users UserRepository, presences PresenceRepository) *PresenceService {
	return &PresenceService{users: users, presences: presences}
}

// List returns the presences of the user in check-in order.
func (s *PresenceService) List(ctx context.Context, userID int) ([]*types.Presence, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.presences.ListByUser(ctx, userID)
}

// Add stores presence for the user and returns the user with the presence
// attached. A zero CheckedInAt is set to the current time.
func (s *PresenceService) Add(ctx context.Context, userID int, presence *types.Presence) (*types.User, *types.Presence, error) {
	if presence.CheckedInAt.IsZero() {
		presence.CheckedInAt = time.Now()
	}
	if presence.CheckedOutAt != nil && presence.CheckedOutAt.Before(presence.CheckedInAt) {
		return nil, nil, fmt.Errorf("%w: checkedOutAt must not be before checkedInAt", ErrValidation)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	presence.ID = 0
	presence.UserID = user.ID
	created, err := s.presences.Create(ctx, presence)
	if err != nil {
		return nil, nil, err
	}
	user.AddPresence(created)
	return user, created, nil
}

// Remove deletes the presence from the user and returns the updated user.
func (s *PresenceService) Remove(ctx context.Context, userID, presenceID int) (*types.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.presences.Delete(ctx, user.ID, presenceID); err != nil {
		return nil, err
	}
	user.RemovePresence(&types.Presence{ID: presenceID})
	return user, nil
}
