package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Priya8975/guildlog/internal/domain"
	"github.com/Priya8975/guildlog/internal/errdef"
	"github.com/google/uuid"
)

// MemoryStore keeps records in process memory with the same ordering and
// cursor semantics as PostgresStore. Contents are lost on exit.
type MemoryStore struct {
	mu     sync.RWMutex
	events []domain.EventRecord
	emails []domain.VerifiedEmail
	now    func() time.Time
}

func NewMemory() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) InsertEvent(_ context.Context, rec domain.NewEventRecord) (*domain.EventRecord, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, errdef.NewStore("generating event id: %w", err)
	}

	args := make(domain.Args, len(rec.Args))
	for k, v := range rec.Args {
		args[k] = append([]string(nil), v...)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	event := domain.EventRecord{
		ID:        id.String(),
		EventType: rec.EventType,
		GuildID:   rec.GuildID,
		Args:      args,
		CreatedAt: s.now().UTC(),
	}
	s.events = append(s.events, event)

	out := event
	return &out, nil
}

func (s *MemoryStore) ListEventsPage(_ context.Context, filter domain.EventFilter, cursor string, limit int) (*domain.EventPage, error) {
	pos, hasCursor := decodeCursor(cursor)

	s.mu.RLock()
	var matched []domain.EventRecord
	for _, e := range s.events {
		if !filter.Matches(e) {
			continue
		}
		if hasCursor && !pos.after(e) {
			continue
		}
		matched = append(matched, e)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return positionOf(matched[i]).after(matched[j])
	})

	if len(matched) > limit+1 {
		matched = matched[:limit+1]
	}
	return buildPage(matched, limit), nil
}

func (s *MemoryStore) CountEvents(context.Context) ([]domain.EventCount, error) {
	type key struct {
		eventType string
		guildID   int64
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	byKey := make(map[key]int)
	var order []key
	for _, e := range s.events {
		k := key{e.EventType, e.GuildID}
		if _, ok := byKey[k]; !ok {
			order = append(order, k)
		}
		byKey[k]++
	}

	counts := make([]domain.EventCount, 0, len(order))
	for _, k := range order {
		counts = append(counts, domain.EventCount{EventType: k.eventType, GuildID: k.guildID, Count: byKey[k]})
	}
	return counts, nil
}

func (s *MemoryStore) InsertVerifiedEmail(_ context.Context, guildID int64, email string) (*domain.VerifiedEmail, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, errdef.NewStore("generating email id: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v := domain.VerifiedEmail{
		ID:        id.String(),
		GuildID:   guildID,
		Email:     email,
		CreatedAt: s.now().UTC(),
	}
	s.emails = append(s.emails, v)

	out := v
	return &out, nil
}

// VerifiedEmails returns the stored addresses for a guild in insertion order.
func (s *MemoryStore) VerifiedEmails(guildID int64) []domain.VerifiedEmail {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.VerifiedEmail
	for _, v := range s.emails {
		if v.GuildID == guildID {
			out = append(out, v)
		}
	}
	return out
}

// Len returns the number of stored event records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
