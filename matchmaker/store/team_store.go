// matchmaker/store/team_store.go
package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/djobbo/Kyu-System/shared/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// TeamStore represents the MongoDB data store for teams.
type TeamStore struct {
	collection *mongo.Collection
}

// NewTeamStore creates a new TeamStore instance.
func NewTeamStore(collection *mongo.Collection) *TeamStore {
	return &TeamStore{
		collection: collection,
	}
}

// CreateTeam inserts a new team document into the collection.
func (ts *TeamStore) CreateTeam(ctx context.Context, team *models.Team) error {
	_, err := ts.collection.InsertOne(ctx, team)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("team %s already exists", team.ID)
		}
		return fmt.Errorf("failed to create team %s: %w", team.ID, err)
	}
	return nil
}

// GetTeamByID retrieves a team by its ID.
func (ts *TeamStore) GetTeamByID(ctx context.Context, id string) (*models.Team, error) {
	var team models.Team
	filter := bson.M{"_id": id}
	err := ts.collection.FindOne(ctx, filter).Decode(&team)
	if err != nil {
		return nil, err // Returns mongo.ErrNoDocuments if not found
	}
	return &team, nil
}

// GetTeamsByIDs retrieves the teams matching the given IDs. The result may
// contain fewer documents than requested when a reference dangles.
func (ts *TeamStore) GetTeamsByIDs(ctx context.Context, ids []string) ([]models.Team, error) {
	var teams []models.Team
	cursor, err := ts.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to find teams by ids: %w", err)
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &teams); err != nil {
		return nil, fmt.Errorf("failed to decode teams by ids: %w", err)
	}
	return teams, nil
}

// FindByRoster retrieves a team with exactly the given roster in the given
// bracket, used for find-or-create semantics on team creation.
func (ts *TeamStore) FindByRoster(ctx context.Context, playerIDs []string, bracket string) (*models.Team, error) {
	var team models.Team
	filter := bson.M{"player_ids": playerIDs, "bracket": bracket}
	err := ts.collection.FindOne(ctx, filter).Decode(&team)
	if err != nil {
		return nil, err
	}
	return &team, nil
}

// GetTeamsByPlayerID retrieves every team whose roster contains the player.
func (ts *TeamStore) GetTeamsByPlayerID(ctx context.Context, playerID string) ([]models.Team, error) {
	var teams []models.Team
	cursor, err := ts.collection.Find(ctx, bson.M{"player_ids": playerID})
	if err != nil {
		return nil, fmt.Errorf("failed to find teams for player %s: %w", playerID, err)
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &teams); err != nil {
		return nil, fmt.Errorf("failed to decode teams for player %s: %w", playerID, err)
	}
	return teams, nil
}

// GetAllTeams retrieves all team documents.
func (ts *TeamStore) GetAllTeams(ctx context.Context) ([]models.Team, error) {
	var teams []models.Team
	cursor, err := ts.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to find all teams: %w", err)
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &teams); err != nil {
		return nil, fmt.Errorf("failed to decode all teams: %w", err)
	}
	return teams, nil
}

// UpdateTeamAvgRating updates the cached mean member rating for a team.
func (ts *TeamStore) UpdateTeamAvgRating(ctx context.Context, teamID string, avgRating int64) error {
	filter := bson.M{"_id": teamID}
	update := bson.M{
		"$set": bson.M{"avg_rating": avgRating, "last_updated": time.Now()},
	}
	res, err := ts.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update avg rating for team %s: %w", teamID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("team %s not found for avg rating update", teamID)
	}
	return nil
}

// AggregateTeamRatings joins each team's roster against the players
// collection and computes the mean member rating per team.
func (ts *TeamStore) AggregateTeamRatings(ctx context.Context, playersCollection string) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: playersCollection},
			{Key: "localField", Value: "player_ids"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "members"},
		}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "calculatedAvg", Value: bson.D{{Key: "$avg", Value: "$members.rating"}}},
		}}},
	}

	cursor, err := ts.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("error running aggregation for team ratings: %w", err)
	}
	defer cursor.Close(ctx)

	teamRatings := make(map[string]int64)
	for cursor.Next(ctx) {
		var result struct {
			TeamID        string   `bson:"_id"`
			CalculatedAvg *float64 `bson:"calculatedAvg"`
		}
		if err := cursor.Decode(&result); err != nil {
			log.Printf("WARN: Error decoding aggregation result: %v", err) // Log and continue
			continue
		}
		if result.CalculatedAvg == nil {
			continue // Roster resolved to no players
		}
		teamRatings[result.TeamID] = int64(*result.CalculatedAvg)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("error during aggregation cursor iteration: %w", err)
	}
	return teamRatings, nil
}
