package models

import "time"

// MatchState is the lifecycle state of a match. Settled is terminal; the only
// legal transition into it is from InProgress, enforced by the settlement
// compare-and-swap.
type MatchState string

const (
	MatchStatePending    MatchState = "pending"
	MatchStateInProgress MatchState = "in_progress"
	MatchStateSettled    MatchState = "settled"
)

// Match is a contest between exactly two teams of one bracket. Score is the
// recorded outcome ("<teamA>-<teamB>", e.g. "2-1") and is only present once
// the match is settled.
type Match struct {
	ID        string     `bson:"_id" json:"id"`
	TeamIDs   []string   `bson:"team_ids" json:"teamIDs"`
	Bracket   string     `bson:"bracket" json:"bracket"`
	State     MatchState `bson:"state" json:"state"`
	Score     string     `bson:"score,omitempty" json:"score,omitempty"`
	CreatedAt *time.Time `bson:"created_at,omitempty" json:"createdAt"`
	SettledAt *time.Time `bson:"settled_at,omitempty" json:"settledAt,omitempty"`
}

// SettlementResult is the outcome of settling one match: the new rating for
// every player on both teams. It is returned to the caller and never stored
// as its own document.
type SettlementResult struct {
	MatchID   string           `json:"matchID"`
	Score     string           `json:"score"`
	NewRating map[string]int64 `json:"newRatings"` // player ID -> rating after settlement
}
