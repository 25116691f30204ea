package types

import "time"

const (
	// RoleUser is the role every account holds when no roles are assigned.
	RoleUser = "ROLE_USER"

	// RoleAdmin grants access to administrative operations.
	RoleAdmin = "ROLE_ADMIN"
)

// DefaultRoles returns the role set assigned to accounts without explicit roles.
func DefaultRoles() []string {
	return []string{RoleUser}
}

// User represents a platform account.
// It contains credentials, profile names, roles, and the relations to the
// owned UserInformation record and the user's attendance history.
type User struct {
	// ID is the unique identifier of the user. Zero until the user is persisted.
	ID int `json:"id" db:"id"`

	// Username is the unique login name of the user.
	Username string `json:"username" db:"username"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password"`

	// Firstname is the optional given name of the user.
	Firstname *string `json:"firstname" db:"firstname"`

	// Lastname is the optional family name of the user.
	Lastname *string `json:"lastname" db:"lastname"`

	// IsEnable reports whether the account may authenticate.
	IsEnable bool `json:"isEnable" db:"is_enable"`

	// CreatedAt is set once when the record is constructed.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UserInfo is the owned one-to-one profile record. It is created, updated
	// and deleted together with the user.
	UserInfo *UserInformation `json:"userInfo" db:"-"`

	roles         []string
	presences     []*Presence
	plainPassword string
}

// NewUser returns a user with creation defaults applied: enabled, default
// roles, no presences and CreatedAt set to the current time.
func NewUser() *User {
	return &User{
		IsEnable:  true,
		CreatedAt: time.Now(),
		roles:     DefaultRoles(),
		presences: []*Presence{},
	}
}

// HasID reports whether the user has been assigned an identifier.
func (u *User) HasID() bool {
	return u.ID != 0
}

func (u *User) SetUsername(username string) *User {
	u.Username = username
	return u
}

// SetPassword stores an already hashed credential. It does not hash.
func (u *User) SetPassword(hash string) *User {
	u.PasswordHash = hash
	return u
}

func (u *User) SetFirstname(firstname *string) *User {
	u.Firstname = firstname
	return u
}

func (u *User) SetLastname(lastname *string) *User {
	u.Lastname = lastname
	return u
}

// Roles returns a copy of the user's roles. It is never empty.
func (u *User) Roles() []string {
	if len(u.roles) == 0 {
		return DefaultRoles()
	}
	roles := make([]string, len(u.roles))
	copy(roles, u.roles)
	return roles
}

// SetRoles replaces the user's roles. A nil or empty slice resets them to
// DefaultRoles; any other slice is stored as given, without validating role
// names.
func (u *User) SetRoles(roles []string) *User {
	if len(roles) == 0 {
		u.roles = DefaultRoles()
		return u
	}
	u.roles = make([]string, len(roles))
	copy(u.roles, roles)
	return u
}

// HasRole reports whether role is one of the user's roles.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles() {
		if r == role {
			return true
		}
	}
	return false
}

// Salt always returns nil: the password hash carries its own salt.
func (u *User) Salt() []byte {
	return nil
}

// PlainPassword returns the raw credential staged for hashing, if any.
func (u *User) PlainPassword() string {
	return u.plainPassword
}

// SetPlainPassword stages a raw credential until it is hashed and erased.
func (u *User) SetPlainPassword(password string) *User {
	u.plainPassword = password
	return u
}

// EraseCredentials clears the staged raw credential and returns the now
// empty value.
func (u *User) EraseCredentials() string {
	u.plainPassword = ""
	return u.plainPassword
}

func (u *User) SetUserInfo(info *UserInformation) *User {
	u.UserInfo = info
	return u
}

func (u *User) SetIsEnable(enabled bool) *User {
	u.IsEnable = enabled
	return u
}

func (u *User) SetCreatedAt(createdAt time.Time) *User {
	u.CreatedAt = createdAt
	return u
}

// Presences returns the user's presences in insertion order. The returned
// slice is a copy; use AddPresence and RemovePresence to change membership.
func (u *User) Presences() []*Presence {
	presences := make([]*Presence, len(u.presences))
	copy(presences, u.presences)
	return presences
}

// AddPresence appends p unless the same presence is already held.
func (u *User) AddPresence(p *Presence) *User {
	if p == nil || u.indexOfPresence(p) >= 0 {
		return u
	}
	u.presences = append(u.presences, p)
	return u
}

// RemovePresence removes p if it is held; otherwise it does nothing.
func (u *User) RemovePresence(p *Presence) *User {
	if p == nil {
		return u
	}
	idx := u.indexOfPresence(p)
	if idx < 0 {
		return u
	}
	presences := make([]*Presence, 0, len(u.presences)-1)
	presences = append(presences, u.presences[:idx]...)
	presences = append(presences, u.presences[idx+1:]...)
	u.presences = presences
	return u
}

func (u *User) indexOfPresence(p *Presence) int {
	for i, held := range u.presences {
		if held.SameAs(p) {
			return i
		}
	}
	return -1
}
