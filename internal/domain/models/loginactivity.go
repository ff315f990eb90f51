// internal/domain/models/loginactivity.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Identifier classifications for login activity records.
const (
	IdentifierEmail = "email"
	IdentifierPhone = "phone"
)

// LoginActivity records the first successful sign-in of an account.
// At most one record exists per account (unique index on user_id);
// later sign-ins do not create new records.
type LoginActivity struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         string             `bson:"user_id" json:"user_id"` // account ObjectID hex
	Identifier     string             `bson:"identifier" json:"identifier"`           // raw string the user typed
	IdentifierType string             `bson:"identifier_type" json:"identifier_type"` // email, phone
	Email          string             `bson:"email" json:"email"`                     // credential identifier presented for auth
	LoggedInAt     time.Time          `bson:"logged_in_at" json:"logged_in_at"`
	UserAgent      string             `bson:"user_agent,omitempty" json:"user_agent,omitempty"`
	IP             string             `bson:"ip,omitempty" json:"ip,omitempty"`
}
