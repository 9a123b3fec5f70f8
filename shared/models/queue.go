package models

import "time"

// Queue entry states.
const (
	QueueStateWaiting = "waiting"
	QueueStateMatched = "matched"
	QueueStateExpired = "expired"
)

// Queue is a player's request to be matched inside a bracket. MatchID is set
// once the pairing worker places the entry into a match.
type Queue struct {
	ID        string     `bson:"_id" json:"id"`
	PlayerID  string     `bson:"player_id" json:"playerID"`
	Bracket   string     `bson:"bracket" json:"bracket"`
	State     string     `bson:"state" json:"state"`
	MatchID   string     `bson:"match_id,omitempty" json:"matchID,omitempty"`
	CreatedAt *time.Time `bson:"created_at,omitempty" json:"createdAt"`
}
