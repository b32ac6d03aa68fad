// Package repositories holds the MongoDB data access layer. Each
// repository exposes named methods over one collection so the services
// stay independent of query syntax.
package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rajatverma/kirana/app/models"
	"github.com/rajatverma/kirana/pkg/database"
)

// ErrNotFound is returned when a referenced document does not exist.
var ErrNotFound = errors.New("repositories: not found")

// UserRepository handles the users collection.
type UserRepository struct{}

func NewUserRepository() *UserRepository { return &UserRepository{} }

// col resolves lazily so repositories can be constructed before the
// database connection is opened (e.g. for route listing).
func (r *UserRepository) col() *mongo.Collection { return database.Collection("users") }

// Create persists a new user record and fills in its ID and timestamps.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	res, err := r.col().InsertOne(ctx, user)
	if err != nil {
		return fmt.Errorf("users: create: %w", err)
	}
	user.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByID looks up a user by ObjectID.
func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var user models.User
	err := r.col().FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("users: find by id: %w", err)
	}
	return user, nil
}

// FindByEmail looks up a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.col().FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("users: find by email: %w", err)
	}
	return user, nil
}

// ExistsByEmailExcept reports whether another user already holds email.
// Used by profile update so a user can keep their own address.
func (r *UserRepository) ExistsByEmailExcept(ctx context.Context, email string, except primitive.ObjectID) (bool, error) {
	n, err := r.col().CountDocuments(ctx, bson.M{
		"email": email,
		"_id":   bson.M{"$ne": except},
	})
	if err != nil {
		return false, fmt.Errorf("users: exists by email: %w", err)
	}
	return n > 0, nil
}

// Update persists changes to an existing user.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()

	res, err := r.col().ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		return fmt.Errorf("users: update: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
