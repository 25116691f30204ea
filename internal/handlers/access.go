package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/techzara/platform/internal/services"
	"github.com/techzara/platform/internal/store"
	"github.com/techzara/platform/types"
)

// Operation names an access-controlled API operation.
type Operation string

const (
	OpUsersList       Operation = "users:list"
	OpUsersCreate     Operation = "users:create"
	OpUsersGet        Operation = "users:get"
	OpUsersUpdate     Operation = "users:update"
	OpUsersDelete     Operation = "users:delete"
	OpUsersAvatar     Operation = "users:avatar"
	OpPresencesList   Operation = "presences:list"
	OpPresencesAdd    Operation = "presences:add"
	OpPresencesRemove Operation = "presences:remove"
)

// AccessRule grants an operation to holders of any of Roles. With AllowSelf
// the user addressed by the {userID} route parameter is granted as well.
type AccessRule struct {
	Roles     []string
	AllowSelf bool
}

// UserAccessPolicy lists the roles required by every user operation.
var UserAccessPolicy = map[Operation]AccessRule{
	OpUsersList:       {Roles: []string{types.RoleAdmin, types.RoleUser}},
	OpUsersCreate:     {Roles: []string{types.RoleAdmin, types.RoleUser}},
	OpUsersGet:        {Roles: []string{types.RoleAdmin, types.RoleUser}},
	OpUsersUpdate:     {Roles: []string{types.RoleAdmin}, AllowSelf: true},
	OpUsersDelete:     {Roles: []string{types.RoleAdmin}, AllowSelf: true},
	OpUsersAvatar:     {Roles: []string{types.RoleAdmin}, AllowSelf: true},
	OpPresencesList:   {Roles: []string{types.RoleAdmin, types.RoleUser}},
	OpPresencesAdd:    {Roles: []string{types.RoleAdmin, types.RoleUser}},
	OpPresencesRemove: {Roles: []string{types.RoleAdmin, types.RoleUser}},
}

// Allows reports whether actor may perform the operation on the user with
// targetID. A zero targetID means the operation addresses no single user.
func (rule AccessRule) Allows(actor *types.User, targetID int) bool {
	for _, role := range rule.Roles {
		if actor.HasRole(role) {
			return true
		}
	}
	return rule.AllowSelf && targetID != 0 && actor.ID == targetID
}

// Authorizer resolves the authenticated user and enforces an access policy.
type Authorizer struct {
	userService *services.UserService
	policy      map[Operation]AccessRule
}

func NewAuthorizer(userService *services.UserService, policy map[Operation]AccessRule) *Authorizer {
	return &Authorizer{userService: userService, policy: policy}
}

// Require allows the request through when the authenticated, enabled user is
// granted op. It must run after RequireAuth.
func (a *Authorizer) Require(op Operation) func(http.Handler) http.Handler {
	rule, ok := a.policy[op]
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := userIDFromContext(r.Context())
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			actor, err := a.userService.GetByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					writeError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
				writeServiceError(w, r, err, "failed to load user")
				return
			}
			if !actor.IsEnable {
				writeError(w, http.StatusForbidden, "account disabled")
				return
			}

			targetID, _ := strconv.Atoi(chi.URLParam(r, "userID"))
			if !ok || !rule.Allows(actor, targetID) {
				writeError(w, http.StatusForbidden, "access denied")
				return
			}

			ctx := context.WithValue(r.Context(), contextActorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
