package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/techzara/platform/internal/services"
	"github.com/techzara/platform/types"
)

// UserHandler provides HTTP handlers for users.
type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// UserListResponse is the paginated list response payload.
type UserListResponse struct {
	Items []types.UserView `json:"items"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
	Total int              `json:"total"`
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter, err := parseUserFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.userService.List(r.Context(), filter, offset, limit)
	if err != nil {
		writeServiceError(w, r, err, "failed to list users")
		return
	}

	writeJSON(w, http.StatusOK, UserListResponse{
		Items: types.NewUserViews(items),
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var input types.UserInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !canAssignRoles(r, input) {
		writeError(w, http.StatusForbidden, "only administrators may assign roles")
		return
	}

	created, err := h.userService.Create(r.Context(), input.Apply(types.NewUser()))
	if err != nil {
		writeServiceError(w, r, err, "failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, types.NewUserView(created))
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "failed to fetch user")
		return
	}

	writeJSON(w, http.StatusOK, types.NewUserView(user))
}

// UpdateUser applies the provided fields and keeps the rest.
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var input types.UserInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !canAssignRoles(r, input) {
		writeError(w, http.StatusForbidden, "only administrators may assign roles")
		return
	}

	user, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "failed to fetch user")
		return
	}

	updated, err := h.userService.Update(r.Context(), input.Apply(user))
	if err != nil {
		writeServiceError(w, r, err, "failed to update user")
		return
	}

	writeJSON(w, http.StatusOK, types.NewUserView(updated))
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.userService.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err, "failed to delete user")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// canAssignRoles reports whether the request may set roles. Only
// administrators may.
func canAssignRoles(r *http.Request, input types.UserInput) bool {
	if input.Roles == nil {
		return true
	}
	actor, ok := actorFromContext(r.Context())
	return ok && actor.HasRole(types.RoleAdmin)
}

// parseUserFilter reads the createdAt[...] date bounds, the partial name
// matches and the isEnable flag from query.
func parseUserFilter(query url.Values) (types.UserFilter, error) {
	var filter types.UserFilter

	bounds := []struct {
		key string
		dst **time.Time
	}{
		{"createdAt[before]", &filter.CreatedBefore},
		{"createdAt[strictly_before]", &filter.CreatedStrictlyBefore},
		{"createdAt[after]", &filter.CreatedAfter},
		{"createdAt[strictly_after]", &filter.CreatedStrictlyAfter},
	}
	for _, bound := range bounds {
		raw := strings.TrimSpace(query.Get(bound.key))
		if raw == "" {
			continue
		}
		t, err := parseFilterTime(raw)
		if err != nil {
			return types.UserFilter{}, fmt.Errorf("invalid %s", bound.key)
		}
		*bound.dst = &t
	}

	filter.Username = strings.TrimSpace(query.Get("username"))
	filter.Firstname = strings.TrimSpace(query.Get("firstname"))
	filter.Lastname = strings.TrimSpace(query.Get("lastname"))

	if raw := strings.TrimSpace(query.Get("isEnable")); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			return types.UserFilter{}, errors.New("invalid isEnable")
		}
		filter.IsEnable = &enabled
	}

	return filter, nil
}

func parseFilterTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, raw)
}

// UserRouter registers user, presence and avatar routes on the given router.
func UserRouter(
	r chi.Router,
	users *UserHandler,
	presences *PresenceHandler,
	profiles *ProfileHandler,
	authMiddleware func(http.Handler) http.Handler,
	authz *Authorizer,
) {
	r.Use(authMiddleware)

	r.With(authz.Require(OpUsersList)).Get("/", users.ListUsers)
	r.With(authz.Require(OpUsersCreate)).Post("/", users.CreateUser)
	r.Route("/{userID}", func(r chi.Router) {
		r.With(authz.Require(OpUsersGet)).Get("/", users.GetUser)
		r.With(authz.Require(OpUsersUpdate)).Put("/", users.UpdateUser)
		r.With(authz.Require(OpUsersDelete)).Delete("/", users.DeleteUser)

		r.With(authz.Require(OpPresencesList)).Get("/presences", presences.ListPresences)
		r.With(authz.Require(OpPresencesAdd)).Post("/presences", presences.AddPresence)
		r.With(authz.Require(OpPresencesRemove)).Delete("/presences/{presenceID}", presences.RemovePresence)

		r.With(authz.Require(OpUsersAvatar)).Put("/avatar", profiles.UploadAvatar)
		r.With(authz.Require(OpUsersGet)).Get("/avatar", profiles.GetAvatar)
	})
}
