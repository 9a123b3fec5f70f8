// shared/service/matchmakerclient.go
package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/djobbo/Kyu-System/shared/api"
	"github.com/djobbo/Kyu-System/shared/models"
)

// MatchmakerClient is a typed client for the Matchmaker Service. It uses an
// internal apiClient to make HTTP requests against the REST surface.
type MatchmakerClient struct {
	apiClient *api.Client
}

// NewMatchmakerClient creates a new Matchmaker Service client.
// It takes the base URL of the Matchmaker Service as an argument.
func NewMatchmakerClient(baseURL string) *MatchmakerClient {
	return &MatchmakerClient{
		apiClient: api.NewClient(baseURL, api.NewDefaultHTTPClient()),
	}
}

// --- Request/Response DTOs for Matchmaker Service Communication ---
// These mirror the DTOs defined in matchmaker/api/handlers.go for consistency.

type CreateUserRequest struct {
	Name      string `json:"name"`
	DiscordID string `json:"discordId"`
}

type CreatePlayerRequest struct {
	UserID  string `json:"userId"`
	Bracket string `json:"bracket"`
}

type CreateQueueRequest struct {
	PlayerID string `json:"playerId"`
}

type MatchResultRequest struct {
	Score string `json:"score"`
}

// --- Client Methods for Matchmaker Service API Endpoints ---

// CreateUser registers a new user.
// It calls the Matchmaker Service's POST /users endpoint.
func (c *MatchmakerClient) CreateUser(ctx context.Context, name, discordID string) (*models.User, error) {
	user := &models.User{}
	err := c.apiClient.Post(ctx, "/users", CreateUserRequest{Name: name, DiscordID: discordID}, user)
	if err != nil {
		return nil, fmt.Errorf("failed to create user %s in Matchmaker Service: %w", name, err)
	}
	return user, nil
}

// GetUser fetches a user by ID.
// Returns api.ErrNotFound (wrapped) if the user does not exist.
func (c *MatchmakerClient) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user := &models.User{}
	err := c.apiClient.Get(ctx, fmt.Sprintf("/users/%s", userID), user)
	if err != nil {
		if apiErr, ok := err.(*api.HTTPError); ok && apiErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: user %s", api.ErrNotFound, userID)
		}
		return nil, fmt.Errorf("failed to get user %s from Matchmaker Service: %w", userID, err)
	}
	return user, nil
}

// ListUsers fetches every registered user.
func (c *MatchmakerClient) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := c.apiClient.Get(ctx, "/users", &users); err != nil {
		return nil, fmt.Errorf("failed to list users from Matchmaker Service: %w", err)
	}
	return users, nil
}

// CreatePlayer enters a user into a bracket. The call is idempotent: joining
// a bracket the user is already in returns the existing entry.
// It calls the Matchmaker Service's POST /players endpoint.
func (c *MatchmakerClient) CreatePlayer(ctx context.Context, userID, bracket string) (*models.Player, error) {
	player := &models.Player{}
	err := c.apiClient.Post(ctx, "/players", CreatePlayerRequest{UserID: userID, Bracket: bracket}, player)
	if err != nil {
		return nil, fmt.Errorf("failed to create player for user %s in Matchmaker Service: %w", userID, err)
	}
	return player, nil
}

// GetPlayer fetches a player by ID.
func (c *MatchmakerClient) GetPlayer(ctx context.Context, playerID string) (*models.Player, error) {
	player := &models.Player{}
	err := c.apiClient.Get(ctx, fmt.Sprintf("/players/%s", playerID), player)
	if err != nil {
		if apiErr, ok := err.(*api.HTTPError); ok && apiErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: player %s", api.ErrNotFound, playerID)
		}
		return nil, fmt.Errorf("failed to get player %s from Matchmaker Service: %w", playerID, err)
	}
	return player, nil
}

// ListPlayers fetches every player across all brackets.
func (c *MatchmakerClient) ListPlayers(ctx context.Context) ([]models.Player, error) {
	var players []models.Player
	if err := c.apiClient.Get(ctx, "/players", &players); err != nil {
		return nil, fmt.Errorf("failed to list players from Matchmaker Service: %w", err)
	}
	return players, nil
}

// EnterQueue puts a player into the queue of their bracket.
// It calls the Matchmaker Service's POST /queues endpoint.
func (c *MatchmakerClient) EnterQueue(ctx context.Context, playerID string) (*models.Queue, error) {
	queue := &models.Queue{}
	err := c.apiClient.Post(ctx, "/queues", CreateQueueRequest{PlayerID: playerID}, queue)
	if err != nil {
		return nil, fmt.Errorf("failed to queue player %s in Matchmaker Service: %w", playerID, err)
	}
	return queue, nil
}

// GetMatch fetches a match by ID.
func (c *MatchmakerClient) GetMatch(ctx context.Context, matchID string) (*models.Match, error) {
	match := &models.Match{}
	err := c.apiClient.Get(ctx, fmt.Sprintf("/matches/%s", matchID), match)
	if err != nil {
		if apiErr, ok := err.(*api.HTTPError); ok && apiErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: match %s", api.ErrNotFound, matchID)
		}
		return nil, fmt.Errorf("failed to get match %s from Matchmaker Service: %w", matchID, err)
	}
	return match, nil
}

// SetMatchResult settles a finished match with a score like "2-1". On a lost
// settlement race the service answers 409; callers should re-fetch the match
// with GetMatch to observe the outcome that committed.
// It calls the Matchmaker Service's POST /matches/{id}/result endpoint.
func (c *MatchmakerClient) SetMatchResult(ctx context.Context, matchID, score string) (*models.SettlementResult, error) {
	result := &models.SettlementResult{}
	err := c.apiClient.Post(ctx, fmt.Sprintf("/matches/%s/result", matchID), MatchResultRequest{Score: score}, result)
	if err != nil {
		if apiErr, ok := err.(*api.HTTPError); ok && apiErr.StatusCode == http.StatusConflict {
			return nil, fmt.Errorf("%w: match %s settlement rejected", api.ErrConflict, matchID)
		}
		return nil, fmt.Errorf("failed to settle match %s in Matchmaker Service: %w", matchID, err)
	}
	return result, nil
}
