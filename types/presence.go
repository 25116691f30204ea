package types

import "time"

// Presence records a single attendance of a user.
type Presence struct {
	// ID is the unique identifier of the presence. Zero until persisted.
	ID int `json:"id" db:"id"`

	// UserID references the user the presence belongs to.
	UserID int `json:"userId" db:"user_id"`

	// CheckedInAt is the time the user arrived.
	CheckedInAt time.Time `json:"checkedInAt" db:"checked_in_at"`

	// CheckedOutAt is the time the user left, if known.
	CheckedOutAt *time.Time `json:"checkedOutAt" db:"checked_out_at"`

	// Note is an optional free-form remark.
	Note *string `json:"note" db:"note"`
}

// SameAs reports whether p and other denote the same presence: either the
// same value in memory or two persisted presences with the same ID.
func (p *Presence) SameAs(other *Presence) bool {
	if p == nil || other == nil {
		return false
	}
	if p == other {
		return true
	}
	return p.ID != 0 && p.ID == other.ID
}
