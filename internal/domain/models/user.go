// internal/domain/models/user.go
package models

// Terminology: Account Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies an account
//   - Email / email: The credential identifier used to sign in (lowercase). For
//     phone-style signups this is the digits plus the synthetic phone domain suffix.

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrDuplicateEmail is returned when an insert collides with the unique
// index on the folded email.
var ErrDuplicateEmail = errors.New("an account with this email already exists")

// User represents an account holder of the application.
//
// Auth fields:
//   - Email: credential identifier (stored lowercase); for numeric identifiers
//     this carries the synthetic phone domain suffix
//   - EmailCI: Case/diacritic-insensitive version for matching (folded)
type User struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	Email   string `bson:"email" json:"email"`
	EmailCI string `bson:"email_ci" json:"email_ci"` // folded for case-insensitive matching

	PasswordHash *string `bson:"password_hash,omitempty" json:"-"` // bcrypt hash (never in JSON)

	Role   string `bson:"role" json:"role"`                         // admin, user
	Status string `bson:"status,omitempty" json:"status,omitempty"` // active, disabled

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// User roles
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Account statuses
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// AllRoles returns all valid user roles.
func AllRoles() []string {
	return []string{
		RoleAdmin,
		RoleUser,
	}
}

// IsValidRole checks if a role is valid.
func IsValidRole(role string) bool {
	for _, r := range AllRoles() {
		if r == role {
			return true
		}
	}
	return false
}
