// matchmaker/service/roster_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/djobbo/Kyu-System/matchmaker/store"
	"github.com/djobbo/Kyu-System/shared/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo" // For checking specific MongoDB errors
)

// RosterService encapsulates the business logic for users and their bracket
// entries (players).
type RosterService struct {
	userStore   *store.UserStore
	playerStore *store.PlayerStore
}

// NewRosterService creates a new RosterService instance.
func NewRosterService(us *store.UserStore, ps *store.PlayerStore) *RosterService {
	return &RosterService{
		userStore:   us,
		playerStore: ps,
	}
}

// CreateUser registers a new user account.
func (rs *RosterService) CreateUser(ctx context.Context, name, discordID string) (*models.User, error) {
	now := time.Now()
	user := &models.User{
		ID:        uuid.New().String(),
		Name:      name,
		DiscordID: discordID,
		CreatedAt: &now,
	}
	if err := rs.userStore.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("service failed to create user: %w", err)
	}
	return user, nil
}

// GetUser retrieves a user by ID.
func (rs *RosterService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := rs.userStore.GetUserByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("service failed to get user: %w", err)
	}
	return user, nil
}

// GetUserByDiscordID retrieves a user by their Discord ID.
func (rs *RosterService) GetUserByDiscordID(ctx context.Context, discordID string) (*models.User, error) {
	user, err := rs.userStore.GetUserByDiscordID(ctx, discordID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("service failed to get user by discord id: %w", err)
	}
	return user, nil
}

// ListUsers retrieves every user.
func (rs *RosterService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := rs.userStore.GetAllUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("service failed to list users: %w", err)
	}
	return users, nil
}

// JoinBracket returns the user's player entry for a bracket, creating it with
// the default rating on first join. Joining a bracket twice is idempotent and
// returns the existing entry, rating intact.
func (rs *RosterService) JoinBracket(ctx context.Context, userID, bracket string) (*models.Player, error) {
	if _, err := rs.userStore.GetUserByID(ctx, userID); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("service failed to check user %s: %w", userID, err)
	}

	existing, err := rs.playerStore.GetPlayerByUserAndBracket(ctx, userID, bracket)
	if err == nil {
		return existing, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("service failed to check existing player: %w", err)
	}

	now := time.Now()
	player := &models.Player{
		ID:        uuid.New().String(),
		UserID:    userID,
		Bracket:   bracket,
		Rating:    models.DefaultRating,
		CreatedAt: &now,
	}
	if err := rs.playerStore.CreatePlayer(ctx, player); err != nil {
		return nil, fmt.Errorf("service failed to create player: %w", err)
	}
	return player, nil
}

// GetPlayer retrieves a player by ID.
func (rs *RosterService) GetPlayer(ctx context.Context, id string) (*models.Player, error) {
	player, err := rs.playerStore.GetPlayerByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("service failed to get player: %w", err)
	}
	return player, nil
}

// ListPlayers retrieves every player.
func (rs *RosterService) ListPlayers(ctx context.Context) ([]models.Player, error) {
	players, err := rs.playerStore.GetAllPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("service failed to list players: %w", err)
	}
	return players, nil
}

// GetPlayersForUser retrieves every bracket entry belonging to a user.
func (rs *RosterService) GetPlayersForUser(ctx context.Context, userID string) ([]models.Player, error) {
	players, err := rs.playerStore.GetPlayersByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service failed to list players for user %s: %w", userID, err)
	}
	return players, nil
}
