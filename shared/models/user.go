package models

import "time"

// User is an account holder. A user may enter any number of brackets, each
// entry being a separate Player document.
type User struct {
	ID        string     `bson:"_id" json:"id"`
	Name      string     `bson:"name" json:"name"`
	DiscordID string     `bson:"discord_id" json:"discordID"`
	CreatedAt *time.Time `bson:"created_at,omitempty" json:"createdAt"`
}
