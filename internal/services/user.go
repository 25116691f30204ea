package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/techzara/platform/internal/store"
	"github.com/techzara/platform/types"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100

	// bcrypt only reads the first 72 bytes of a password.
	maxPasswordBytes = 72
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	List(ctx context.Context, filter types.UserFilter, offset, limit int) ([]*types.User, int, error)
	GetByID(ctx context.Context, id int) (*types.User, error)
	GetByUsername(ctx context.Context, username string) (*types.User, error)
	Create(ctx context.Context, user *types.User) (*types.User, error)
	Update(ctx context.Context, user *types.User) (*types.User, error)
	Delete(ctx context.Context, id int) error
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo   UserRepository
	hasher PasswordHasher
	events EventPublisher

	dummyOnce sync.Once
	dummy     string
}

func NewUserService(repo UserRepository, hasher PasswordHasher, events EventPublisher) *UserService {
	if events == nil {
		events = NopEventPublisher{}
	}
	return &UserService{repo: repo, hasher: hasher, events: events}
}

func (s *UserService) List(ctx context.Context, filter types.UserFilter, offset, limit int) ([]*types.User, int, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, filter, offset, limit)
}

func (s *UserService) GetByID(ctx context.Context, id int) (*types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*types.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

// Create validates user for creation, hashes its staged plain password and
// persists it. The plain password is erased before the user is stored.
func (s *UserService) Create(ctx context.Context, user *types.User) (*types.User, error) {
	user.Username = strings.TrimSpace(user.Username)
	if user.Username == "" {
		return nil, fmt.Errorf("%w: username must not be blank", ErrValidation)
	}
	if err := s.hashPlainPassword(user); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	publishUserEvent(ctx, s.events, EventUserCreated, created.ID, created.Username)
	return created, nil
}

// Update persists user. A staged plain password replaces the stored hash.
func (s *UserService) Update(ctx context.Context, user *types.User) (*types.User, error) {
	user.Username = strings.TrimSpace(user.Username)
	if user.Username == "" {
		return nil, fmt.Errorf("%w: username must not be blank", ErrValidation)
	}
	if user.PlainPassword() != "" {
		if err := s.hashPlainPassword(user); err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return nil, err
	}
	publishUserEvent(ctx, s.events, EventUserUpdated, updated.ID, updated.Username)
	return updated, nil
}

func (s *UserService) Delete(ctx context.Context, id int) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	publishUserEvent(ctx, s.events, EventUserDeleted, user.ID, user.Username)
	return nil
}

// Authenticate returns the enabled user matching username and password.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*types.User, error) {
	user, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Keep the timing of unknown usernames close to a wrong password.
			_, _ = s.hasher.Verify(s.dummyHash(), password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := s.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if !user.IsEnable {
		return nil, ErrDisabled
	}
	user.EraseCredentials()
	return user, nil
}

// hashPlainPassword replaces the stored hash with one of the staged plain
// password. The plain password is erased on every path.
func (s *UserService) hashPlainPassword(user *types.User) error {
	plain := user.PlainPassword()
	user.EraseCredentials()

	if strings.TrimSpace(plain) == "" {
		return fmt.Errorf("%w: password must not be blank", ErrValidation)
	}
	if len(plain) > maxPasswordBytes {
		return fmt.Errorf("%w: password must not exceed %d bytes", ErrValidation, maxPasswordBytes)
	}

	hashed, err := s.hasher.Hash(plain)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.SetPassword(hashed)
	return nil
}

func (s *UserService) dummyHash() string {
	s.dummyOnce.Do(func() {
		s.dummy, _ = s.hasher.Hash("techzara-unknown-user")
	})
	return s.dummy
}
