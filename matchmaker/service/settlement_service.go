// matchmaker/service/settlement_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/djobbo/Kyu-System/matchmaker/store"
	"github.com/djobbo/Kyu-System/shared/models"
	"github.com/djobbo/Kyu-System/shared/rating"
	"go.mongodb.org/mongo-driver/mongo"
)

// MatchSettlementStore is the match-side storage the settlement workflow
// needs: one read and the single atomic write primitive.
type MatchSettlementStore interface {
	// GetMatchByID returns mongo.ErrNoDocuments when the match is absent.
	GetMatchByID(ctx context.Context, id string) (*models.Match, error)
	// WriteSettlement applies the state transition and all rating writes
	// atomically, returning store.ErrSettlementConflict when the match state
	// no longer equals expectedPrior.
	WriteSettlement(ctx context.Context, matchID string, expectedPrior models.MatchState, score string, newRatings map[string]int64) error
}

// TeamLookup resolves team references. The result may contain fewer teams
// than requested.
type TeamLookup interface {
	GetTeamsByIDs(ctx context.Context, ids []string) ([]models.Team, error)
}

// PlayerLookup resolves player references. The result may contain fewer
// players than requested.
type PlayerLookup interface {
	GetPlayersByIDs(ctx context.Context, ids []string) ([]models.Player, error)
}

// SettlementService finalizes finished matches: it resolves the match's
// team/player graph, computes new ratings for every affected player, and
// applies them together with the settled transition exactly once per match.
//
// Rating policy: each team is represented by the mean of its members'
// ratings (integer division), one team-vs-team Elo update is computed, and
// the signed delta is applied equally to every member of the team.
type SettlementService struct {
	matches MatchSettlementStore
	teams   TeamLookup
	players PlayerLookup
	kFor    func(bracket string) int // Per-bracket volatility constant
}

// NewSettlementService creates a new SettlementService instance. kFor
// resolves the K factor per bracket (see config.MatchmakerServiceConfig.KFor).
func NewSettlementService(matches MatchSettlementStore, teams TeamLookup, players PlayerLookup, kFor func(bracket string) int) *SettlementService {
	return &SettlementService{
		matches: matches,
		teams:   teams,
		players: players,
		kFor:    kFor,
	}
}

// ParseOutcome maps a score string "<a>-<b>" (e.g. "2-1") to the actual
// score for the first team: 1 for a win, 0 for a loss, 0.5 for a draw.
func ParseOutcome(score string) (float64, error) {
	parts := strings.SplitN(strings.TrimSpace(score), "-", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOutcome, score)
	}
	a, errA := strconv.Atoi(strings.TrimSpace(parts[0]))
	b, errB := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errA != nil || errB != nil || a < 0 || b < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOutcome, score)
	}
	switch {
	case a > b:
		return 1, nil
	case a < b:
		return 0, nil
	default:
		return 0.5, nil
	}
}

// SettleMatch transitions a match from in_progress to settled and applies
// the rating consequences to every player on both teams, exactly once.
//
// The read phase (steps 1-4) has no side effects and is safely retryable.
// The write is a single compare-and-swapped transaction; losing that race
// returns ErrSettlementConflict, after which the caller must re-fetch the
// match to observe the outcome that actually committed.
func (ss *SettlementService) SettleMatch(ctx context.Context, matchID, score string) (*models.SettlementResult, error) {
	// Validate the score before any fetch; a malformed outcome can never
	// settle anything.
	scoreA, err := ParseOutcome(score)
	if err != nil {
		return nil, err
	}

	// 1. Fetch the match.
	match, err := ss.matches.GetMatchByID(ctx, matchID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("service failed to fetch match %s: %w", matchID, err)
	}

	// 2. Only an in_progress match may settle. Pending means the result
	// arrived too early; settled means it already happened — both are
	// errors, not no-ops, so double submissions are always visible.
	if match.State != models.MatchStateInProgress {
		return nil, fmt.Errorf("%w: match %s is %s", ErrMatchNotSettleable, matchID, match.State)
	}

	// 3. Resolve both teams. The pairwise model needs exactly two.
	if len(match.TeamIDs) != 2 {
		return nil, fmt.Errorf("%w: match %s references %d teams", ErrIncompleteGraph, matchID, len(match.TeamIDs))
	}
	teams, err := ss.teams.GetTeamsByIDs(ctx, match.TeamIDs)
	if err != nil {
		return nil, fmt.Errorf("service failed to fetch teams for match %s: %w", matchID, err)
	}
	if len(teams) != 2 {
		return nil, fmt.Errorf("%w: only %d of 2 teams resolved for match %s", ErrIncompleteGraph, len(teams), matchID)
	}
	// Order teams as the match references them; the score's first side is
	// match.TeamIDs[0].
	byID := make(map[string]models.Team, 2)
	for _, t := range teams {
		byID[t.ID] = t
	}
	teamA, okA := byID[match.TeamIDs[0]]
	teamB, okB := byID[match.TeamIDs[1]]
	if !okA || !okB {
		return nil, fmt.Errorf("%w: team references of match %s did not resolve", ErrIncompleteGraph, matchID)
	}

	// 4. Resolve both rosters concurrently; the fetches are independent
	// reads. An empty or partially resolved roster aborts rather than
	// silently skipping players, which would corrupt the rating pool.
	rosterA, rosterB, err := ss.fetchRosters(ctx, teamA, teamB)
	if err != nil {
		return nil, err
	}

	// 5-6. One team-vs-team Elo update on mean ratings, delta shared by
	// every member.
	k := ss.kFor(match.Bracket)
	meanA := meanRating(rosterA)
	meanB := meanRating(rosterB)
	deltaA := rating.Delta(k, meanA, meanB, scoreA)
	deltaB := rating.Delta(k, meanB, meanA, 1-scoreA)

	newRatings := make(map[string]int64, len(rosterA)+len(rosterB))
	for _, p := range rosterA {
		newRatings[p.ID] = p.Rating + deltaA
	}
	for _, p := range rosterB {
		newRatings[p.ID] = p.Rating + deltaB
	}

	// 7. Apply everything atomically, compare-and-swapped on the state we
	// read. No retry on conflict: the other writer may have committed.
	if err := ss.matches.WriteSettlement(ctx, matchID, models.MatchStateInProgress, score, newRatings); err != nil {
		if errors.Is(err, store.ErrSettlementConflict) {
			return nil, fmt.Errorf("%w: match %s", ErrSettlementConflict, matchID)
		}
		return nil, fmt.Errorf("service failed to write settlement for match %s: %w", matchID, err)
	}

	log.Printf("INFO: Match %s settled with score %s, %d ratings updated (k=%d).", matchID, score, len(newRatings), k)
	return &models.SettlementResult{
		MatchID:   matchID,
		Score:     score,
		NewRating: newRatings,
	}, nil
}

// fetchRosters resolves both team rosters in parallel and enforces full
// referential integrity on the result.
func (ss *SettlementService) fetchRosters(ctx context.Context, teamA, teamB models.Team) ([]models.Player, []models.Player, error) {
	type rosterResult struct {
		players []models.Player
		err     error
	}

	fetch := func(team models.Team, out chan<- rosterResult) {
		players, err := ss.players.GetPlayersByIDs(ctx, team.PlayerIDs)
		out <- rosterResult{players: players, err: err}
	}

	chA := make(chan rosterResult, 1)
	chB := make(chan rosterResult, 1)
	go fetch(teamA, chA)
	go fetch(teamB, chB)
	resA, resB := <-chA, <-chB

	if resA.err != nil {
		return nil, nil, fmt.Errorf("service failed to fetch roster of team %s: %w", teamA.ID, resA.err)
	}
	if resB.err != nil {
		return nil, nil, fmt.Errorf("service failed to fetch roster of team %s: %w", teamB.ID, resB.err)
	}
	if len(teamA.PlayerIDs) == 0 || len(resA.players) != len(teamA.PlayerIDs) {
		return nil, nil, fmt.Errorf("%w: team %s roster resolved %d of %d players", ErrIncompleteGraph, teamA.ID, len(resA.players), len(teamA.PlayerIDs))
	}
	if len(teamB.PlayerIDs) == 0 || len(resB.players) != len(teamB.PlayerIDs) {
		return nil, nil, fmt.Errorf("%w: team %s roster resolved %d of %d players", ErrIncompleteGraph, teamB.ID, len(resB.players), len(teamB.PlayerIDs))
	}
	return resA.players, resB.players, nil
}

// meanRating is the integer mean of the roster's ratings. Rosters are
// non-empty by the time this runs.
func meanRating(players []models.Player) int64 {
	var sum int64
	for _, p := range players {
		sum += p.Rating
	}
	return sum / int64(len(players))
}
