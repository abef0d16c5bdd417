package domain

import "time"

// Role is the coarse-grained authorization level of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is keyed by email. Role defaults to user and changes only
// through an explicit promotion; profile fields are owner-upserted.
type User struct {
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Role      Role      `json:"role"`
	City      string    `json:"city,omitempty"`
	Education string    `json:"education,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	LinkedIn  string    `json:"linkedin,omitempty"`
	Review    string    `json:"review,omitempty"`
	Rating    *float64  `json:"rating,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProfileUpdate carries the fields a profile upsert may change. Nil
// fields are left untouched on an existing record. Role is deliberately
// absent; it cannot be written through the upsert path.
type ProfileUpdate struct {
	Name      *string
	City      *string
	Education *string
	Phone     *string
	LinkedIn  *string
	Review    *string
	Rating    *float64
}
