package types

import "time"

// UserFilter narrows a user listing. Zero-valued fields do not filter.
type UserFilter struct {
	// CreatedBefore keeps users created at or before the given time.
	CreatedBefore *time.Time

	// CreatedStrictlyBefore keeps users created before the given time.
	CreatedStrictlyBefore *time.Time

	// CreatedAfter keeps users created at or after the given time.
	CreatedAfter *time.Time

	// CreatedStrictlyAfter keeps users created after the given time.
	CreatedStrictlyAfter *time.Time

	// Username, Firstname and Lastname match case-insensitively anywhere in
	// the respective field.
	Username  string
	Firstname string
	Lastname  string

	// IsEnable matches the enabled flag exactly.
	IsEnable *bool
}
