// matchmaker/store/match_store.go
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/djobbo/Kyu-System/shared/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrSettlementConflict is returned by WriteSettlement when the match state
// no longer equals the expected prior state, i.e. the compare-and-swap lost
// the race against another settlement attempt.
var ErrSettlementConflict = errors.New("settlement write conflict: match state changed")

// MatchStore represents the MongoDB data store for matches. It also owns the
// settlement write, which spans the matches and players collections and
// therefore needs the raw client for a multi-document transaction.
type MatchStore struct {
	client  *mongo.Client
	matches *mongo.Collection
	players *mongo.Collection
}

// NewMatchStore creates a new MatchStore instance.
func NewMatchStore(client *mongo.Client, matches, players *mongo.Collection) *MatchStore {
	return &MatchStore{
		client:  client,
		matches: matches,
		players: players,
	}
}

// CreateMatch inserts a new match document into the collection.
func (ms *MatchStore) CreateMatch(ctx context.Context, match *models.Match) error {
	_, err := ms.matches.InsertOne(ctx, match)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("match %s already exists", match.ID)
		}
		return fmt.Errorf("failed to create match %s: %w", match.ID, err)
	}
	return nil
}

// GetMatchByID retrieves a match by its ID.
func (ms *MatchStore) GetMatchByID(ctx context.Context, id string) (*models.Match, error) {
	var match models.Match
	filter := bson.M{"_id": id}
	err := ms.matches.FindOne(ctx, filter).Decode(&match)
	if err != nil {
		return nil, err // Returns mongo.ErrNoDocuments if not found
	}
	return &match, nil
}

// GetMatchesByTeamID retrieves every match one team took part in.
func (ms *MatchStore) GetMatchesByTeamID(ctx context.Context, teamID string) ([]models.Match, error) {
	var matches []models.Match
	cursor, err := ms.matches.Find(ctx, bson.M{"team_ids": teamID})
	if err != nil {
		return nil, fmt.Errorf("failed to find matches for team %s: %w", teamID, err)
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &matches); err != nil {
		return nil, fmt.Errorf("failed to decode matches for team %s: %w", teamID, err)
	}
	return matches, nil
}

// GetAllMatches retrieves every match document.
func (ms *MatchStore) GetAllMatches(ctx context.Context) ([]models.Match, error) {
	var matches []models.Match
	cursor, err := ms.matches.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to find all matches: %w", err)
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &matches); err != nil {
		return nil, fmt.Errorf("failed to decode all matches: %w", err)
	}
	return matches, nil
}

// WriteSettlement applies a match settlement as one atomic unit: the match
// state transition (compare-and-swapped against expectedPrior), the score,
// and every player rating write either all commit or none do.
//
// The state filter on the first update makes concurrent settlements
// single-writer-wins: the loser observes ErrSettlementConflict and must
// re-fetch to learn the actual outcome, because the winner's write has
// committed by then.
func (ms *MatchStore) WriteSettlement(ctx context.Context, matchID string, expectedPrior models.MatchState, score string, newRatings map[string]int64) error {
	session, err := ms.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start settlement session for match %s: %w", matchID, err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		now := time.Now()
		res, err := ms.matches.UpdateOne(sc,
			bson.M{"_id": matchID, "state": expectedPrior},
			bson.M{"$set": bson.M{"state": models.MatchStateSettled, "score": score, "settled_at": now}},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to transition match %s to settled: %w", matchID, err)
		}
		if res.MatchedCount == 0 {
			return nil, ErrSettlementConflict
		}

		for playerID, rating := range newRatings {
			res, err := ms.players.UpdateOne(sc,
				bson.M{"_id": playerID},
				bson.M{"$set": bson.M{"rating": rating}},
			)
			if err != nil {
				return nil, fmt.Errorf("failed to write rating for player %s: %w", playerID, err)
			}
			if res.MatchedCount == 0 {
				// A player vanished between the read phase and the write;
				// abort so no partial ratings land.
				return nil, fmt.Errorf("player %s not found during settlement of match %s", playerID, matchID)
			}
		}
		return nil, nil
	})
	if err != nil {
		if errors.Is(err, ErrSettlementConflict) {
			return ErrSettlementConflict
		}
		return fmt.Errorf("settlement transaction for match %s failed: %w", matchID, err)
	}
	return nil
}
