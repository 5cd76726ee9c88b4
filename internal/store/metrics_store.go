package store

import (
	"context"

	"github.com/Priya8975/guildlog/internal/domain"
	"github.com/Priya8975/guildlog/internal/errdef"
)

// CountEvents returns the number of records per event type and guild.
func (s *PostgresStore) CountEvents(ctx context.Context) ([]domain.EventCount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT event_type, guild_id, COUNT(*)
		FROM events
		GROUP BY event_type, guild_id
	`)
	if err != nil {
		return nil, errdef.NewStore("querying event counts: %w", err)
	}
	defer rows.Close()

	var counts []domain.EventCount
	for rows.Next() {
		var c domain.EventCount
		if err := rows.Scan(&c.EventType, &c.GuildID, &c.Count); err != nil {
			return nil, errdef.NewStore("scanning event count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errdef.NewStore("iterating event counts: %w", err)
	}

	return counts, nil
}
