package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/Priya8975/guildlog/internal/domain"
	"github.com/Priya8975/guildlog/internal/errdef"
	"github.com/google/uuid"
)

// InsertEvent appends one immutable event record. The database assigns created_at.
func (s *PostgresStore) InsertEvent(ctx context.Context, rec domain.NewEventRecord) (*domain.EventRecord, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, errdef.NewStore("generating event id: %w", err)
	}

	args := rec.Args
	if args == nil {
		args = domain.Args{}
	}

	var event domain.EventRecord
	err = s.pool.QueryRow(ctx, `
		INSERT INTO events (id, event_type, guild_id, args)
		VALUES ($1::uuid, $2, $3, $4)
		RETURNING id::text, event_type, guild_id, args, created_at
	`, id.String(), rec.EventType, rec.GuildID, args).Scan(
		&event.ID, &event.EventType, &event.GuildID, &event.Args, &event.CreatedAt,
	)
	if err != nil {
		return nil, errdef.NewStore("inserting event: %w", err)
	}
	return &event, nil
}

// ListEventsPage returns up to limit records matching filter, newest first,
// starting after the position encoded in cursor.
func (s *PostgresStore) ListEventsPage(ctx context.Context, filter domain.EventFilter, cursor string, limit int) (*domain.EventPage, error) {
	query, args := buildPageQuery(filter, cursor, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errdef.NewStore("querying events: %w", err)
	}
	defer rows.Close()

	var events []domain.EventRecord
	for rows.Next() {
		var e domain.EventRecord
		if err := rows.Scan(&e.ID, &e.EventType, &e.GuildID, &e.Args, &e.CreatedAt); err != nil {
			return nil, errdef.NewStore("scanning event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errdef.NewStore("iterating events: %w", err)
	}

	return buildPage(events, limit), nil
}

// buildPageQuery fetches one row more than limit so the caller can tell
// whether another page exists.
func buildPageQuery(filter domain.EventFilter, cursor string, limit int) (string, []any) {
	query := `SELECT id::text, event_type, guild_id, args, created_at FROM events`
	args := []any{}
	argIdx := 1
	conditions := []string{}

	if filter.GuildID != nil {
		conditions = append(conditions, fmt.Sprintf("guild_id = $%d", argIdx))
		args = append(args, *filter.GuildID)
		argIdx++
	}
	if filter.EventType != "" {
		conditions = append(conditions, fmt.Sprintf("event_type = $%d", argIdx))
		args = append(args, filter.EventType)
		argIdx++
	}
	if pos, ok := decodeCursor(cursor); ok {
		conditions = append(conditions, fmt.Sprintf("(created_at, id) < ($%d, $%d::uuid)", argIdx, argIdx+1))
		args = append(args, pos.CreatedAt, pos.ID)
		argIdx += 2
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY created_at DESC, id DESC"
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, limit+1)

	return query, args
}
