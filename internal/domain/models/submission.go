// internal/domain/models/submission.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Submission statuses
const (
	SubmissionPending  = "pending"
	SubmissionApproved = "approved"
	SubmissionRejected = "rejected"
)

// Submission is a gaming-profile record submitted by a signed-in user.
// UserID and UserEmail are taken from the session at submit time, never
// from form input.
type Submission struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Reference   string             `bson:"reference" json:"reference"` // short code shown in notices
	UserID      string             `bson:"user_id" json:"user_id"`     // account ObjectID hex
	UserEmail   string             `bson:"user_email" json:"user_email"`
	GameName    string             `bson:"game_name" json:"game_name"`
	UID         string             `bson:"uid" json:"uid"`
	Level       string             `bson:"level" json:"level"` // digits only
	Status      string             `bson:"status" json:"status"`
	SubmittedAt time.Time          `bson:"submitted_at" json:"submitted_at"`
}
