package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/techzara/platform/config"
	"github.com/techzara/platform/internal/services"
	"github.com/techzara/platform/internal/storage"
	"github.com/techzara/platform/internal/store"
	"github.com/techzara/platform/types"
)

type memUserRepo struct {
	users  map[int]*types.User
	nextID int
}

func (r *memUserRepo) List(ctx context.Context, filter types.UserFilter, offset, limit int) ([]*types.User, int, error) {
	var users []*types.User
	for id := 1; id < r.nextID; id++ {
		u, ok := r.users[id]
		if !ok {
			continue
		}
		if filter.Username != "" && !strings.Contains(u.Username, filter.Username) {
			continue
		}
		if filter.IsEnable != nil && u.IsEnable != *filter.IsEnable {
			continue
		}
		users = append(users, u)
	}
	total := len(users)
	if offset >= len(users) {
		return []*types.User{}, total, nil
	}
	users = users[offset:]
	if len(users) > limit {
		users = users[:limit]
	}
	return users, total, nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id int) (*types.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (r *memUserRepo) GetByUsername(ctx context.Context, username string) (*types.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *memUserRepo) Create(ctx context.Context, user *types.User) (*types.User, error) {
	if _, err := r.GetByUsername(ctx, user.Username); err == nil {
		return nil, store.ErrDuplicate
	}
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = user
	return user, nil
}

func (r *memUserRepo) Update(ctx context.Context, user *types.User) (*types.User, error) {
	if _, ok := r.users[user.ID]; !ok {
		return nil, store.ErrNotFound
	}
	for id, other := range r.users {
		if id != user.ID && other.Username == user.Username {
			return nil, store.ErrDuplicate
		}
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *memUserRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

type memPresenceRepo struct {
	presences []*types.Presence
	nextID    int
}

func (r *memPresenceRepo) ListByUser(ctx context.Context, userID int) ([]*types.Presence, error) {
	presences := []*types.Presence{}
	for _, p := range r.presences {
		if p.UserID == userID {
			presences = append(presences, p)
		}
	}
	return presences, nil
}

func (r *memPresenceRepo) Create(ctx context.Context, presence *types.Presence) (*types.Presence, error) {
	r.nextID++
	presence.ID = r.nextID
	r.presences = append(r.presences, presence)
	return presence, nil
}

func (r *memPresenceRepo) Delete(ctx context.Context, userID, id int) error {
	for i, p := range r.presences {
		if p.ID == id && p.UserID == userID {
			r.presences = append(r.presences[:i], r.presences[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

type memObjects struct {
	objects map[string][]byte
	types   map[string]string
}

func (s *memObjects) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.objects[key] = data
	s.types[key] = contentType
	return nil
}

func (s *memObjects) Get(ctx context.Context, key string) (*storage.Object, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, errors.New("missing object")
	}
	return &storage.Object{Body: io.NopCloser(bytes.NewReader(data)), ContentType: s.types[key], Size: int64(len(data))}, nil
}

func (s *memObjects) Delete(ctx context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

type plainHasher struct{}

func (plainHasher) Hash(plain string) (string, error) {
	return "hashed:" + plain, nil
}

func (plainHasher) Verify(hash, plain string) (bool, error) {
	return hash == "hashed:"+plain, nil
}

// testAPI is a router wired like the server, backed by in-memory repositories.
// It is seeded with an administrator (ID 1) and a regular user (ID 2).
type testAPI struct {
	router  http.Handler
	auth    *AuthHandler
	users   *memUserRepo
	objects *memObjects
}

func newTestAPI(t *testing.T, withStorage bool) *testAPI {
	t.Helper()

	users := &memUserRepo{users: map[int]*types.User{}, nextID: 1}
	_, _ = users.Create(context.Background(),
		types.NewUser().SetUsername("admin").SetPassword("hashed:adminpw").SetRoles([]string{types.RoleAdmin}))
	_, _ = users.Create(context.Background(),
		types.NewUser().SetUsername("alice").SetPassword("hashed:alicepw"))

	userService := services.NewUserService(users, plainHasher{}, nil)
	presenceService := services.NewPresenceService(users, &memPresenceRepo{})

	api := &testAPI{users: users}
	var objects services.ObjectStore
	if withStorage {
		api.objects = &memObjects{objects: map[string][]byte{}, types: map[string]string{}}
		objects = api.objects
	}
	profileService := services.NewProfileService(users, objects)

	api.auth = NewAuthHandler(userService, config.JWTConfig{Secret: "test-secret"})
	authz := NewAuthorizer(userService, UserAccessPolicy)

	router := chi.NewRouter()
	router.Get("/healthz", Healthz)
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, api.auth)
	})
	router.Route("/users", func(r chi.Router) {
		UserRouter(r,
			NewUserHandler(userService),
			NewPresenceHandler(presenceService),
			NewProfileHandler(profileService),
			api.auth.RequireAuth,
			authz,
		)
	})
	api.router = router
	return api
}

func (a *testAPI) token(t *testing.T, userID int) string {
	t.Helper()
	token, err := a.auth.IssueToken(userID)
	require.NoError(t, err)
	return token
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}
