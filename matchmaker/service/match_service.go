// matchmaker/service/match_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/djobbo/Kyu-System/matchmaker/store"
	"github.com/djobbo/Kyu-System/shared/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// MatchService encapsulates the business logic for match documents. The
// settlement workflow itself lives in SettlementService.
type MatchService struct {
	matchStore *store.MatchStore
	teamStore  *store.TeamStore
}

// NewMatchService creates a new MatchService instance.
func NewMatchService(ms *store.MatchStore, ts *store.TeamStore) *MatchService {
	return &MatchService{
		matchStore: ms,
		teamStore:  ts,
	}
}

// CreateMatch records a new match between exactly two teams of one bracket.
func (ms *MatchService) CreateMatch(ctx context.Context, teamIDs []string, bracket string, state models.MatchState) (*models.Match, error) {
	if len(teamIDs) != 2 {
		return nil, fmt.Errorf("%w: a match needs exactly 2 teams, got %d", ErrIncompleteGraph, len(teamIDs))
	}
	if teamIDs[0] == teamIDs[1] {
		return nil, fmt.Errorf("%w: a team cannot play itself", ErrIncompleteGraph)
	}
	if state != models.MatchStatePending && state != models.MatchStateInProgress {
		return nil, fmt.Errorf("match cannot be created in state %q", state)
	}

	teams, err := ms.teamStore.GetTeamsByIDs(ctx, teamIDs)
	if err != nil {
		return nil, fmt.Errorf("service failed to resolve teams: %w", err)
	}
	if len(teams) != 2 {
		return nil, fmt.Errorf("%w: only %d of 2 teams resolved", ErrIncompleteGraph, len(teams))
	}

	now := time.Now()
	match := &models.Match{
		ID:        uuid.New().String(),
		TeamIDs:   teamIDs,
		Bracket:   bracket,
		State:     state,
		CreatedAt: &now,
	}
	if err := ms.matchStore.CreateMatch(ctx, match); err != nil {
		return nil, fmt.Errorf("service failed to create match: %w", err)
	}
	return match, nil
}

// GetMatch retrieves a match by ID.
func (ms *MatchService) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	match, err := ms.matchStore.GetMatchByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("service failed to get match: %w", err)
	}
	return match, nil
}

// ListMatches retrieves every match.
func (ms *MatchService) ListMatches(ctx context.Context) ([]models.Match, error) {
	matches, err := ms.matchStore.GetAllMatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("service failed to list matches: %w", err)
	}
	return matches, nil
}

// GetMatchesForTeam retrieves every match a team took part in.
func (ms *MatchService) GetMatchesForTeam(ctx context.Context, teamID string) ([]models.Match, error) {
	if _, err := ms.teamStore.GetTeamByID(ctx, teamID); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("service failed to check team %s: %w", teamID, err)
	}
	matches, err := ms.matchStore.GetMatchesByTeamID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("service failed to list matches for team %s: %w", teamID, err)
	}
	return matches, nil
}

// GetMatchTeams resolves a match's team references.
func (ms *MatchService) GetMatchTeams(ctx context.Context, matchID string) ([]models.Team, error) {
	match, err := ms.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	teams, err := ms.teamStore.GetTeamsByIDs(ctx, match.TeamIDs)
	if err != nil {
		return nil, fmt.Errorf("service failed to resolve teams for match %s: %w", matchID, err)
	}
	return teams, nil
}
