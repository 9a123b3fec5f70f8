// matchmaker/service/team_service.go
package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/djobbo/Kyu-System/matchmaker/store"
	"github.com/djobbo/Kyu-System/shared/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// TeamService encapsulates the business logic for teams.
type TeamService struct {
	teamStore         *store.TeamStore
	playerStore       *store.PlayerStore
	playersCollection string // Collection name, needed by the rating aggregation
}

// NewTeamService creates a new TeamService instance.
func NewTeamService(ts *store.TeamStore, ps *store.PlayerStore, playersCollection string) *TeamService {
	return &TeamService{
		teamStore:         ts,
		playerStore:       ps,
		playersCollection: playersCollection,
	}
}

// CreateTeam returns the team with exactly this roster in this bracket,
// creating it if none exists. Every referenced player must resolve.
func (ts *TeamService) CreateTeam(ctx context.Context, playerIDs []string, bracket string) (*models.Team, error) {
	if len(playerIDs) == 0 {
		return nil, fmt.Errorf("team roster must not be empty")
	}

	players, err := ts.playerStore.GetPlayersByIDs(ctx, playerIDs)
	if err != nil {
		return nil, fmt.Errorf("service failed to resolve roster: %w", err)
	}
	if len(players) != len(playerIDs) {
		return nil, ErrPlayerNotFound
	}

	existing, err := ts.teamStore.FindByRoster(ctx, playerIDs, bracket)
	if err == nil {
		return existing, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("service failed to check existing team: %w", err)
	}

	var sum int64
	for _, p := range players {
		sum += p.Rating
	}

	now := time.Now()
	team := &models.Team{
		ID:        uuid.New().String(),
		PlayerIDs: playerIDs,
		Bracket:   bracket,
		AvgRating: sum / int64(len(players)),
		CreatedAt: &now,
	}
	if err := ts.teamStore.CreateTeam(ctx, team); err != nil {
		return nil, fmt.Errorf("service failed to create team: %w", err)
	}
	return team, nil
}

// GetTeam retrieves a team by ID.
func (ts *TeamService) GetTeam(ctx context.Context, id string) (*models.Team, error) {
	team, err := ts.teamStore.GetTeamByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("service failed to get team: %w", err)
	}
	return team, nil
}

// ListTeams retrieves every team.
func (ts *TeamService) ListTeams(ctx context.Context) ([]models.Team, error) {
	teams, err := ts.teamStore.GetAllTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("service failed to list teams: %w", err)
	}
	return teams, nil
}

// GetTeamPlayers resolves a team's roster to player documents.
func (ts *TeamService) GetTeamPlayers(ctx context.Context, teamID string) ([]models.Player, error) {
	team, err := ts.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	players, err := ts.playerStore.GetPlayersByIDs(ctx, team.PlayerIDs)
	if err != nil {
		return nil, fmt.Errorf("service failed to resolve roster for team %s: %w", teamID, err)
	}
	return players, nil
}

// GetTeamsForPlayer retrieves every team a player is rostered on.
func (ts *TeamService) GetTeamsForPlayer(ctx context.Context, playerID string) ([]models.Team, error) {
	if _, err := ts.playerStore.GetPlayerByID(ctx, playerID); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("service failed to check player %s: %w", playerID, err)
	}
	teams, err := ts.teamStore.GetTeamsByPlayerID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("service failed to list teams for player %s: %w", playerID, err)
	}
	return teams, nil
}

// SyncTeamRatings recomputes the cached mean member rating for every team and
// writes the results back onto the team documents.
func (ts *TeamService) SyncTeamRatings(ctx context.Context) (map[string]int64, error) {
	log.Println("Starting team rating aggregation job (service layer)...")

	teamRatings, err := ts.teamStore.AggregateTeamRatings(ctx, ts.playersCollection)
	if err != nil {
		return nil, fmt.Errorf("service failed to aggregate team ratings: %w", err)
	}

	for teamID, avg := range teamRatings {
		if err := ts.teamStore.UpdateTeamAvgRating(ctx, teamID, avg); err != nil {
			// An aggregation job keeps going on per-team failures.
			log.Printf("ERROR: Failed to update avg rating for team %s: %v", teamID, err)
		}
	}

	log.Println("Team rating aggregation job finished (service layer).")
	return teamRatings, nil
}
