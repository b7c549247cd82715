package domain

import (
	"errors"
	"time"
)

// Role is an ordered capability tier assigned to a user.
type Role string

const (
	RoleUser      Role = "user"
	RoleOrganizer Role = "organizer"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// roleTier orders roles by capability. Unknown roles map to tier 0.
var roleTier = map[Role]int{
	RoleUser:      0,
	RoleOrganizer: 1,
	RoleModerator: 2,
	RoleAdmin:     3,
}

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	_, ok := roleTier[r]
	return ok
}

// AtLeast reports whether r carries at least the capability tier of other.
func (r Role) AtLeast(other Role) bool {
	return roleTier[r] >= roleTier[other]
}

var ErrUserNotFound = errors.New("user not found")
var ErrUserExists = errors.New("user already exists")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrForbidden = errors.New("access forbidden")

// User models a registered member of the platform.
type User struct {
	ID           string     `json:"id" bson:"_id,omitempty"`
	DisplayName  string     `json:"display_name" bson:"display_name"`
	Email        string     `json:"email" bson:"email"`
	PasswordHash string     `json:"-" bson:"password_hash"`
	Role         Role       `json:"role" bson:"role"`
	IsActive     bool       `json:"is_active" bson:"is_active"`
	BlockedUntil *time.Time `json:"blocked_until,omitempty" bson:"blocked_until,omitempty"`
	InterestIDs  []string   `json:"interest_ids" bson:"interest_ids"`
	Bio          string     `json:"bio,omitempty" bson:"bio,omitempty"`
	City         string     `json:"city,omitempty" bson:"city,omitempty"`
	AvatarURL    string     `json:"avatar_url,omitempty" bson:"avatar_url,omitempty"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" bson:"updated_at"`
}

// Blocked reports whether the user is blocked at the given instant.
func (u *User) Blocked(now time.Time) bool {
	return u.BlockedUntil != nil && u.BlockedUntil.After(now)
}
