// internal/app/store/users/fetcher.go
package userstore

import (
	"context"

	"github.com/easywish/launchpad/internal/app/system/auth"
	"github.com/easywish/launchpad/internal/app/system/normalize"
	"github.com/easywish/launchpad/internal/app/system/timeouts"
	"github.com/easywish/launchpad/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Fetcher implements auth.UserFetcher to load fresh account data on each request.
type Fetcher struct {
	accounts *mongo.Collection
	logger   *zap.Logger
}

// NewFetcher creates a UserFetcher that queries the given database.
func NewFetcher(db *mongo.Database, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		accounts: db.Collection("accounts"),
		logger:   logger,
	}
}

// FetchUser retrieves an account by ID and returns nil if the account is not
// found, disabled, or if any error occurs. This implements auth.UserFetcher.
func (f *Fetcher) FetchUser(ctx context.Context, userID string) *auth.SessionUser {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}

	// Use a short timeout for the DB query
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	// Fetch the account with projection for only needed fields
	var u models.User
	proj := options.FindOne().SetProjection(bson.M{
		"_id":    1,
		"email":  1,
		"role":   1,
		"status": 1,
	})

	if err := f.accounts.FindOne(ctx, bson.M{"_id": oid}, proj).Decode(&u); err != nil {
		// Account not found or DB error
		return nil
	}

	// Disabled accounts lose their session on the next request
	if normalize.Status(u.Status) == models.StatusDisabled {
		return nil
	}

	return &auth.SessionUser{
		ID:    u.ID.Hex(),
		Email: u.Email,
		Role:  normalize.Role(u.Role),
	}
}
