package domain

import "time"

type VerifiedEmail struct {
	ID        string    `json:"id"`
	GuildID   int64     `json:"guild_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
