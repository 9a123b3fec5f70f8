// matchmaker/store/user_store.go
package store

import (
	"context"
	"fmt"

	"github.com/djobbo/Kyu-System/shared/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserStore represents the MongoDB data store for user accounts.
type UserStore struct {
	collection *mongo.Collection
}

// NewUserStore creates a new UserStore instance.
func NewUserStore(collection *mongo.Collection) *UserStore {
	return &UserStore{
		collection: collection,
	}
}

// CreateUser inserts a new user document into the collection.
func (us *UserStore) CreateUser(ctx context.Context, user *models.User) error {
	_, err := us.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("user %s already exists", user.ID)
		}
		return fmt.Errorf("failed to create user %s: %w", user.ID, err)
	}
	return nil
}

// GetUserByID retrieves a user by their ID.
func (us *UserStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	filter := bson.M{"_id": id}
	err := us.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		return nil, err // Returns mongo.ErrNoDocuments if not found
	}
	return &user, nil
}

// GetUserByDiscordID retrieves a user by their Discord ID.
func (us *UserStore) GetUserByDiscordID(ctx context.Context, discordID string) (*models.User, error) {
	var user models.User
	filter := bson.M{"discord_id": discordID}
	err := us.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetAllUsers retrieves every user document.
func (us *UserStore) GetAllUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	cursor, err := us.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to find all users: %w", err)
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode all users: %w", err)
	}
	return users, nil
}
