// shared/models/team.go
package models

import "time"

// Team is a unit of competition inside one bracket. Membership is historical:
// a player may appear on many teams over time.
type Team struct {
	ID          string     `bson:"_id" json:"id"`
	PlayerIDs   []string   `bson:"player_ids" json:"playerIDs"`
	Bracket     string     `bson:"bracket" json:"bracket"`
	AvgRating   int64      `bson:"avg_rating" json:"avgRating"` // Cached mean member rating, refreshed by the sync job
	CreatedAt   *time.Time `bson:"created_at,omitempty" json:"createdAt"`
	LastUpdated *time.Time `bson:"last_updated,omitempty" json:"lastUpdated"`
}
