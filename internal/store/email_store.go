package store

import (
	"context"

	"github.com/Priya8975/guildlog/internal/domain"
	"github.com/Priya8975/guildlog/internal/errdef"
	"github.com/google/uuid"
)

// InsertVerifiedEmail appends a verified address for a guild. Duplicates are kept.
func (s *PostgresStore) InsertVerifiedEmail(ctx context.Context, guildID int64, email string) (*domain.VerifiedEmail, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, errdef.NewStore("generating email id: %w", err)
	}

	var v domain.VerifiedEmail
	err = s.pool.QueryRow(ctx, `
		INSERT INTO verified_emails (id, guild_id, email)
		VALUES ($1::uuid, $2, $3)
		RETURNING id::text, guild_id, email, created_at
	`, id.String(), guildID, email).Scan(&v.ID, &v.GuildID, &v.Email, &v.CreatedAt)
	if err != nil {
		return nil, errdef.NewStore("inserting verified email: %w", err)
	}
	return &v, nil
}
