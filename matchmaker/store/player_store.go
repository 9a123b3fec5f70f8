// matchmaker/store/player_store.go
package store

import (
	"context"
	"fmt"

	"github.com/djobbo/Kyu-System/shared/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// PlayerStore represents the MongoDB data store for bracket entries.
// Rating writes are deliberately absent here: player ratings are only ever
// mutated inside the settlement transaction owned by MatchStore.
type PlayerStore struct {
	collection *mongo.Collection
}

// NewPlayerStore creates a new PlayerStore instance.
func NewPlayerStore(collection *mongo.Collection) *PlayerStore {
	return &PlayerStore{
		collection: collection,
	}
}

// CreatePlayer inserts a new player document into the collection.
func (ps *PlayerStore) CreatePlayer(ctx context.Context, player *models.Player) error {
	_, err := ps.collection.InsertOne(ctx, player)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("player %s already exists", player.ID)
		}
		return fmt.Errorf("failed to create player %s: %w", player.ID, err)
	}
	return nil
}

// GetPlayerByID retrieves a player by their ID.
func (ps *PlayerStore) GetPlayerByID(ctx context.Context, id string) (*models.Player, error) {
	var player models.Player
	filter := bson.M{"_id": id}
	err := ps.collection.FindOne(ctx, filter).Decode(&player)
	if err != nil {
		return nil, err // Returns mongo.ErrNoDocuments if not found
	}
	return &player, nil
}

// GetPlayerByUserAndBracket retrieves a user's entry into one bracket.
func (ps *PlayerStore) GetPlayerByUserAndBracket(ctx context.Context, userID, bracket string) (*models.Player, error) {
	var player models.Player
	filter := bson.M{"user_id": userID, "bracket": bracket}
	err := ps.collection.FindOne(ctx, filter).Decode(&player)
	if err != nil {
		return nil, err
	}
	return &player, nil
}

// GetPlayersByUserID retrieves all bracket entries belonging to one user.
func (ps *PlayerStore) GetPlayersByUserID(ctx context.Context, userID string) ([]models.Player, error) {
	var players []models.Player
	cursor, err := ps.collection.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to find players for user %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &players); err != nil {
		return nil, fmt.Errorf("failed to decode players for user %s: %w", userID, err)
	}
	return players, nil
}

// GetPlayersByIDs retrieves the players matching the given IDs. The result may
// contain fewer documents than requested; callers that need referential
// integrity must check the cardinality themselves.
func (ps *PlayerStore) GetPlayersByIDs(ctx context.Context, ids []string) ([]models.Player, error) {
	var players []models.Player
	cursor, err := ps.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to find players by ids: %w", err)
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &players); err != nil {
		return nil, fmt.Errorf("failed to decode players by ids: %w", err)
	}
	return players, nil
}

// GetAllPlayers retrieves every player document.
func (ps *PlayerStore) GetAllPlayers(ctx context.Context) ([]models.Player, error) {
	var players []models.Player
	cursor, err := ps.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to find all players: %w", err)
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &players); err != nil {
		return nil, fmt.Errorf("failed to decode all players: %w", err)
	}
	return players, nil
}
