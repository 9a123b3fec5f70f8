package models

import "time"

// DefaultRating is the rating assigned to a player on their first join of a
// bracket.
const DefaultRating int64 = 1000

// Player represents a user's entry into one bracket, stored persistently in
// MongoDB. Rating is the only field that changes after creation, and only the
// settlement write path may change it.
type Player struct {
	ID        string     `bson:"_id" json:"id"`
	UserID    string     `bson:"user_id" json:"userID"`
	Bracket   string     `bson:"bracket" json:"bracket"`
	Rating    int64      `bson:"rating" json:"rating"`
	CreatedAt *time.Time `bson:"created_at,omitempty" json:"createdAt"`
}
