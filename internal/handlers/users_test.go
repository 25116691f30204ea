package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techzara/platform/types"
)

func TestCreateUser(t *testing.T) {
	api := newTestAPI(t, false)
	admin := api.token(t, 1)

	body := map[string]any{
		"username":  "bob",
		"password":  "bobpw",
		"firstname": "Bob",
		"roles":     []string{"ROLE_ADMIN"},
		"userInfo":  map[string]any{"phone": "+261 34"},
		"isEnable":  false,
	}
	rec := api.do(t, http.MethodPost, "/users", admin, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var view map[string]any
	decodeBody(t, rec, &view)
	assert.Equal(t, float64(3), view["id"])
	assert.Equal(t, "bob", view["username"])
	assert.Equal(t, "Bob", view["firstname"])
	assert.Equal(t, []any{"ROLE_ADMIN"}, view["roles"])
	assert.NotContains(t, view, "password")

	stored := api.users.users[3]
	assert.Equal(t, "hashed:bobpw", stored.PasswordHash)
	assert.Empty(t, stored.PlainPassword())
	assert.True(t, stored.IsEnable, "isEnable is not writable")
}

func TestCreateUserErrors(t *testing.T) {
	api := newTestAPI(t, false)
	admin := api.token(t, 1)

	rec := api.do(t, http.MethodPost, "/users", admin, map[string]any{"username": "alice", "password": "pw"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(t, http.MethodPost, "/users", admin, map[string]any{"username": "  ", "password": "pw"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = api.do(t, http.MethodPost, "/users", admin, map[string]any{"username": "carol"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = api.do(t, http.MethodPost, "/users", admin, map[string]any{"username": "carol", "password": strings.Repeat("a", 73)})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "72 bytes")

	rec = api.do(t, http.MethodPost, "/users", "", map[string]any{"username": "carol", "password": "pw"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateUserRolesRequireAdmin(t *testing.T) {
	api := newTestAPI(t, false)

	rec := api.do(t, http.MethodPost, "/users", api.token(t, 2), map[string]any{
		"username": "mallory",
		"password": "pw",
		"roles":    []string{"ROLE_ADMIN"},
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodPost, "/users", api.token(t, 2), map[string]any{"username": "dave", "password": "pw"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var view map[string]any
	decodeBody(t, rec, &view)
	assert.Equal(t, []any{"ROLE_USER"}, view["roles"])
}

func TestGetUser(t *testing.T) {
	api := newTestAPI(t, false)
	token := api.token(t, 2)

	rec := api.do(t, http.MethodGet, "/users/1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var view map[string]any
	decodeBody(t, rec, &view)
	assert.Equal(t, "admin", view["username"])

	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/users/99", token, nil).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodGet, "/users/abc", token, nil).Code)
}

func TestUpdateUser(t *testing.T) {
	api := newTestAPI(t, false)
	alice := api.token(t, 2)

	rec := api.do(t, http.MethodPut, "/users/2", alice, map[string]any{"lastname": "Liddell", "password": "newpw"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	stored := api.users.users[2]
	assert.Equal(t, "alice", stored.Username)
	require.NotNil(t, stored.Lastname)
	assert.Equal(t, "Liddell", *stored.Lastname)
	assert.Equal(t, "hashed:newpw", stored.PasswordHash)

	rec = api.do(t, http.MethodPut, "/users/1", alice, map[string]any{"lastname": "x"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodPut, "/users/2", alice, map[string]any{"roles": []string{"ROLE_ADMIN"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodPut, "/users/2", api.token(t, 1), map[string]any{"roles": []string{"ROLE_ADMIN"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, stored.HasRole(types.RoleAdmin))

	rec = api.do(t, http.MethodPut, "/users/2", api.token(t, 1), map[string]any{"username": "admin"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(t, http.MethodPut, "/users/99", api.token(t, 1), map[string]any{"lastname": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteUser(t *testing.T) {
	api := newTestAPI(t, false)
	admin := api.token(t, 1)

	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodDelete, "/users/1", api.token(t, 2), nil).Code)

	assert.Equal(t, http.StatusNoContent, api.do(t, http.MethodDelete, "/users/2", admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodDelete, "/users/2", admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/users/2", admin, nil).Code)
}

func TestDisabledUserIsRejected(t *testing.T) {
	api := newTestAPI(t, false)
	token := api.token(t, 2)
	api.users.users[2].SetIsEnable(false)

	rec := api.do(t, http.MethodGet, "/users", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"account disabled"}`, rec.Body.String())
}

func TestListUsers(t *testing.T) {
	api := newTestAPI(t, false)
	token := api.token(t, 1)

	rec := api.do(t, http.MethodGet, "/users?username=ali&itemsPerPage=5", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items []map[string]any `json:"items"`
		Page  int              `json:"page"`
		Limit int              `json:"limit"`
		Total int              `json:"total"`
	}
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "alice", resp.Items[0]["username"])
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 5, resp.Limit)
	assert.Equal(t, 1, resp.Total)

	rec = api.do(t, http.MethodGet, "/users?page=2&limit=1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "alice", resp.Items[0]["username"])
	assert.Equal(t, 2, resp.Total)

	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodGet, "/users?page=0", token, nil).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodGet, "/users?isEnable=maybe", token, nil).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodGet, "/users?createdAt%5Bafter%5D=yesterday", token, nil).Code)
}

func TestParseUserFilter(t *testing.T) {
	query := url.Values{}
	query.Set("createdAt[before]", "2024-01-31")
	query.Set("createdAt[strictly_after]", "2024-01-01T10:00:00Z")
	query.Set("username", " ali ")
	query.Set("lastname", "Lid")
	query.Set("isEnable", "false")

	filter, err := parseUserFilter(query)
	require.NoError(t, err)

	require.NotNil(t, filter.CreatedBefore)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), *filter.CreatedBefore)
	require.NotNil(t, filter.CreatedStrictlyAfter)
	assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), *filter.CreatedStrictlyAfter)
	assert.Nil(t, filter.CreatedAfter)
	assert.Nil(t, filter.CreatedStrictlyBefore)
	assert.Equal(t, "ali", filter.Username)
	assert.Empty(t, filter.Firstname)
	assert.Equal(t, "Lid", filter.Lastname)
	require.NotNil(t, filter.IsEnable)
	assert.False(t, *filter.IsEnable)
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query               string
		page, limit, offset int
		wantErr             bool
	}{
		{"", 1, defaultLimit, 0, false},
		{"page=3&limit=10", 3, 10, 20, false},
		{"page=2&itemsPerPage=7", 2, 7, 7, false},
		{"limit=500", 1, maxLimit, 0, false},
		{"page=-1", 0, 0, 0, true},
		{"limit=abc", 0, 0, 0, true},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/users?%s", tt.query), nil)
		page, limit, offset, err := parsePagination(req)
		if tt.wantErr {
			assert.Error(t, err, tt.query)
			continue
		}
		require.NoError(t, err, tt.query)
		assert.Equal(t, []int{tt.page, tt.limit, tt.offset}, []int{page, limit, offset}, tt.query)
	}
}
