package domain

import (
	"time"
)

// Args is the opaque payload submitted with an event.
type Args map[string][]string

// EventRecord is one immutable log entry for an observed bot or guild event.
type EventRecord struct {
	ID        string    `json:"id"`
	EventType string    `json:"event_type"`
	GuildID   int64     `json:"guild_id"`
	Args      Args      `json:"args"`
	CreatedAt time.Time `json:"created_at"`
}

// NewEventRecord holds the fields a caller supplies; ID and CreatedAt are assigned by the store.
type NewEventRecord struct {
	EventType string
	GuildID   int64
	Args      Args
}

// EventFilter narrows a log query. Zero values mean "no filter".
type EventFilter struct {
	GuildID   *int64
	EventType string
}

// Matches reports whether rec passes the filter.
func (f EventFilter) Matches(rec EventRecord) bool {
	if f.GuildID != nil && rec.GuildID != *f.GuildID {
		return false
	}
	if f.EventType != "" && rec.EventType != f.EventType {
		return false
	}
	return true
}

// EventPage is one page of a log query.
type EventPage struct {
	Events     []EventRecord
	NextCursor string
	More       bool
}

// EventCount is the number of records stored for one event type and guild.
type EventCount struct {
	EventType string
	GuildID   int64
	Count     int
}

// KnownEventTypes lists the Discord events the bot reports, in display order.
// Reordering the list changes every assigned color.
var KnownEventTypes = []string{
	"message_delete",
	"bulk_message_delete",
	"message_edit",
	"reaction_add",
	"reaction_remove",
	"reaction_clear",
	"guild_channel_update",
	"guild_channel_pins_update",
	"guild_integrations_update",
	"webhooks_update",
	"member_join",
	"member_remove",
	"member_update",
	"user_update",
	"guild_role_create",
	"guild_role_delete",
	"guild_role_update",
	"guild_emojis_update",
	"voice_state_update",
	"member_ban",
	"member_unban",
}
