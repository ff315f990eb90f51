// internal/app/store/logins/loginstore.go
package loginstore

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies an account
//   - Identifier: the raw string the user typed to sign in (email or digits)

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/easywish/launchpad/internal/app/system/network"
	"github.com/easywish/launchpad/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("user_logins")}
}

// EnsureIndexes creates indexes for efficient querying. The unique index on
// user_id enforces at most one activity record per account; RecordOnce relies
// on it.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_user_logins_user"),
		},
		// Site-wide recent logins (latest-first)
		{
			Keys:    bson.D{{Key: "logged_in_at", Value: -1}},
			Options: options.Index().SetName("idx_user_logins_logged_in"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// RecordOnce inserts a login-activity record for the user only if none exists
// yet. A concurrent first login resolves through the upsert: exactly one
// document wins, and repeat logins are no-ops. Returns true if a new record
// was created.
func (s *Store) RecordOnce(ctx context.Context, rec models.LoginActivity) (bool, error) {
	if rec.LoggedInAt.IsZero() {
		rec.LoggedInAt = time.Now().UTC()
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"user_id": rec.UserID},
		bson.M{"$setOnInsert": bson.M{
			"user_id":         rec.UserID,
			"identifier":      rec.Identifier,
			"identifier_type": rec.IdentifierType,
			"email":           rec.Email,
			"logged_in_at":    rec.LoggedInAt,
			"user_agent":      rec.UserAgent,
			"ip":              rec.IP,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, err
	}
	return res.UpsertedCount > 0, nil
}

// RecordOnceFrom builds a LoginActivity from the HTTP request and records it.
// It extracts client IP (X-Forwarded-For → X-Real-IP → RemoteAddr) and user agent.
func (s *Store) RecordOnceFrom(ctx context.Context, r *http.Request, userID primitive.ObjectID, identifier, identifierType, email string) (bool, error) {
	return s.RecordOnce(ctx, models.LoginActivity{
		UserID:         userID.Hex(),
		Identifier:     identifier,
		IdentifierType: identifierType,
		Email:          email,
		LoggedInAt:     time.Now().UTC(),
		UserAgent:      r.UserAgent(),
		IP:             network.GetClientIP(r),
	})
}

// ListAll retrieves login-activity records, newest first. skip and limit
// support paging.
func (s *Store) ListAll(ctx context.Context, skip, limit int64) ([]models.LoginActivity, error) {
	opts := options.Find().SetSort(bson.D{{Key: "logged_in_at", Value: -1}})
	if skip > 0 {
		opts = opts.SetSkip(skip)
	}
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}

	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var records []models.LoginActivity
	if err := cur.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// GetByID retrieves a single record. Returns (nil, nil) if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.LoginActivity, error) {
	var rec models.LoginActivity
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// GetByUser retrieves the activity record for a user, if any.
func (s *Store) GetByUser(ctx context.Context, userID primitive.ObjectID) (*models.LoginActivity, error) {
	var rec models.LoginActivity
	if err := s.c.FindOne(ctx, bson.M{"user_id": userID.Hex()}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// Delete removes a record by ID.
// Returns the number of documents deleted (0 or 1). A later login by the same
// account creates a fresh record through RecordOnce.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Count returns the total number of activity records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}

