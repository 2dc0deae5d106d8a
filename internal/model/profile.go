// internal/model/profile.go
package model

import "database/sql"

type Profile struct {
	ID              string         `db:"id" json:"id"`
	UserID          string         `db:"user_id" json:"user_id"`
	DiscordID       sql.NullString `db:"discord_id" json:"discord_id,omitempty"`
	DiscordUsername sql.NullString `db:"discord_username" json:"discord_username,omitempty"`
	Email           string         `db:"email" json:"email"`
}
