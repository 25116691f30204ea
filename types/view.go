package types

import "time"

// UserView is the readable projection of a User returned by the API.
// It never carries credentials.
type UserView struct {
	ID        int              `json:"id"`
	Username  string           `json:"username"`
	Firstname *string          `json:"firstname"`
	Lastname  *string          `json:"lastname"`
	Roles     []string         `json:"roles"`
	UserInfo  *UserInformation `json:"userInfo"`
	CreatedAt time.Time        `json:"createdAt"`
}

// NewUserView projects u onto its readable fields.
func NewUserView(u *User) UserView {
	return UserView{
		ID:        u.ID,
		Username:  u.Username,
		Firstname: u.Firstname,
		Lastname:  u.Lastname,
		Roles:     u.Roles(),
		UserInfo:  u.UserInfo,
		CreatedAt: u.CreatedAt,
	}
}

// NewUserViews projects every user in users.
func NewUserViews(users []*User) []UserView {
	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, NewUserView(u))
	}
	return views
}

// UserInput holds the writable fields of a User accepted by the API.
// Nil fields are left untouched by Apply.
type UserInput struct {
	Username  *string               `json:"username"`
	Firstname *string               `json:"firstname"`
	Lastname  *string               `json:"lastname"`
	Roles     *[]string             `json:"roles"`
	UserInfo  *UserInformationInput `json:"userInfo"`
	Password  *string               `json:"password"`
}

// UserInformationInput holds the writable profile fields. Nil fields keep
// their current value.
type UserInformationInput struct {
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	Bio     *string `json:"bio"`
}

// Apply copies the provided fields onto u. The password is staged as a
// plain password and must be hashed before the user is persisted.
func (in UserInput) Apply(u *User) *User {
	if in.Username != nil {
		u.SetUsername(*in.Username)
	}
	if in.Firstname != nil {
		u.SetFirstname(in.Firstname)
	}
	if in.Lastname != nil {
		u.SetLastname(in.Lastname)
	}
	if in.Roles != nil {
		u.SetRoles(*in.Roles)
	}
	if in.UserInfo != nil {
		info := u.UserInfo
		if info == nil {
			info = &UserInformation{}
		}
		if in.UserInfo.Phone != nil {
			info.Phone = in.UserInfo.Phone
		}
		if in.UserInfo.Address != nil {
			info.Address = in.UserInfo.Address
		}
		if in.UserInfo.Bio != nil {
			info.Bio = in.UserInfo.Bio
		}
		u.SetUserInfo(info)
	}
	if in.Password != nil {
		u.SetPlainPassword(*in.Password)
	}
	return u
}
