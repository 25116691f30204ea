package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/techzara/platform/internal/storage"
	"github.com/techzara/platform/internal/store"
	"github.com/techzara/platform/types"
)

type fakeUserRepo struct {
	users  map[int]*types.User
	nextID int
	filter types.UserFilter
	offset int
	limit  int
}

func newFakeUserRepo(users ...*types.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: map[int]*types.User{}, nextID: 1}
	for _, u := range users {
		_, _ = repo.Create(context.Background(), u)
	}
	return repo
}

func (r *fakeUserRepo) List(ctx context.Context, filter types.UserFilter, offset, limit int) ([]*types.User, int, error) {
	r.filter, r.offset, r.limit = filter, offset, limit
	users := make([]*types.User, 0, len(r.users))
	for id := 1; id < r.nextID; id++ {
		if u, ok := r.users[id]; ok {
			users = append(users, u)
		}
	}
	return users, len(users), nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (*types.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*types.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *fakeUserRepo) Create(ctx context.Context, user *types.User) (*types.User, error) {
	if _, err := r.GetByUsername(ctx, user.Username); err == nil {
		return nil, store.ErrDuplicate
	}
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *types.User) (*types.User, error) {
	if _, ok := r.users[user.ID]; !ok {
		return nil, store.ErrNotFound
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

type fakePresenceRepo struct {
	presences map[int]*types.Presence
	nextID    int
}

func newFakePresenceRepo() *fakePresenceRepo {
	return &fakePresenceRepo{presences: map[int]*types.Presence{}, nextID: 1}
}

func (r *fakePresenceRepo) ListByUser(ctx context.Context, userID int) ([]*types.Presence, error) {
	presences := []*types.Presence{}
	for id := 1; id < r.nextID; id++ {
		if p, ok := r.presences[id]; ok && p.UserID == userID {
			presences = append(presences, p)
		}
	}
	return presences, nil
}

func (r *fakePresenceRepo) Create(ctx context.Context, presence *types.Presence) (*types.Presence, error) {
	presence.ID = r.nextID
	r.nextID++
	r.presences[presence.ID] = presence
	return presence, nil
}

func (r *fakePresenceRepo) Delete(ctx context.Context, userID, id int) error {
	p, ok := r.presences[id]
	if !ok || p.UserID != userID {
		return store.ErrNotFound
	}
	delete(r.presences, id)
	return nil
}

// plainHasher prefixes passwords so tests can assert hashing without bcrypt cost.
type plainHasher struct{}

func (plainHasher) Hash(plain string) (string, error) {
	return "hashed:" + plain, nil
}

func (plainHasher) Verify(hash, plain string) (bool, error) {
	return hash == "hashed:"+plain, nil
}

type failingHasher struct{}

func (failingHasher) Hash(plain string) (string, error) {
	return "", errors.New("hasher unavailable")
}

func (failingHasher) Verify(hash, plain string) (bool, error) {
	return false, errors.New("hasher unavailable")
}

type countingHasher struct {
	plainHasher
	hashes   int
	verifies int
	lastHash string
}

func (h *countingHasher) Hash(plain string) (string, error) {
	h.hashes++
	return h.plainHasher.Hash(plain)
}

func (h *countingHasher) Verify(hash, plain string) (bool, error) {
	h.verifies++
	h.lastHash = hash
	return h.plainHasher.Verify(hash, plain)
}

type recordingPublisher struct {
	events []UserEvent
	err    error
}

func (p *recordingPublisher) PublishUserEvent(ctx context.Context, event UserEvent) error {
	p.events = append(p.events, event)
	return p.err
}

type memoryObjectStore struct {
	objects map[string][]byte
	types   map[string]string
	putErr  error
}

func newMemoryObjectStore() *memoryObjectStore {
	return &memoryObjectStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (s *memoryObjectStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if s.putErr != nil {
		return s.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.objects[key] = data
	s.types[key] = contentType
	return nil
}

func (s *memoryObjectStore) Get(ctx context.Context, key string) (*storage.Object, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return &storage.Object{
		Body:        io.NopCloser(bytes.NewReader(data)),
		ContentType: s.types[key],
		Size:        int64(len(data)),
	}, nil
}

func (s *memoryObjectStore) Delete(ctx context.Context, key string) error {
	delete(s.objects, key)
	delete(s.types, key)
	return nil
}

func (s *memoryObjectStore) keysWithPrefix(prefix string) []string {
	var keys []string
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys
}
