package store

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/Priya8975/guildlog/internal/domain"
	"github.com/google/uuid"
)

// position is a point in the (created_at DESC, id DESC) ordering.
type position struct {
	CreatedAt time.Time
	ID        string
}

func positionOf(rec domain.EventRecord) position {
	return position{CreatedAt: rec.CreatedAt, ID: rec.ID}
}

// after reports whether rec sorts strictly after p, i.e. is older.
func (p position) after(rec domain.EventRecord) bool {
	if rec.CreatedAt.Equal(p.CreatedAt) {
		return rec.ID < p.ID
	}
	return rec.CreatedAt.Before(p.CreatedAt)
}

func encodeCursor(p position) string {
	raw := strconv.FormatInt(p.CreatedAt.UnixNano(), 10) + "|" + p.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// decodeCursor returns ok=false for an empty or malformed cursor; callers
// start from the beginning in that case.
func decodeCursor(s string) (position, bool) {
	if s == "" {
		return position{}, false
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return position{}, false
	}
	ts, id, found := strings.Cut(string(raw), "|")
	if !found {
		return position{}, false
	}
	nanos, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return position{}, false
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return position{}, false
	}
	return position{CreatedAt: time.Unix(0, nanos).UTC(), ID: parsed.String()}, true
}

// ValidCursor reports whether s is a cursor this package issued. An empty
// string is not a cursor.
func ValidCursor(s string) bool {
	_, ok := decodeCursor(s)
	return ok
}

// buildPage trims rows fetched with limit+1 down to one page.
func buildPage(rows []domain.EventRecord, limit int) *domain.EventPage {
	page := &domain.EventPage{Events: rows}
	if len(rows) > limit {
		page.Events = rows[:limit]
		page.More = true
		page.NextCursor = encodeCursor(positionOf(page.Events[limit-1]))
	}
	if page.Events == nil {
		page.Events = []domain.EventRecord{}
	}
	return page
}
