package types

// UserInformation holds optional profile details owned by a single user.
type UserInformation struct {
	ID        int     `json:"id" db:"id"`
	Phone     *string `json:"phone" db:"phone"`
	Address   *string `json:"address" db:"address"`
	Bio       *string `json:"bio" db:"bio"`
	AvatarKey *string `json:"avatarKey" db:"avatar_key"`
}
