package worker

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/Priya8975/guildlog/internal/domain"
	"github.com/Priya8975/guildlog/internal/logging"
)

// Sink is the transport an event is written to. The Kafka producer in
// internal/stream satisfies it.
type Sink interface {
	Publish(ctx context.Context, key string, value interface{}) error
}

// Message is the payload written for every mirrored event.
type Message struct {
	ID        string              `json:"id"`
	EventType string              `json:"event_type"`
	GuildID   int64               `json:"guild_id"`
	Args      map[string][]string `json:"args"`
	CreatedAt time.Time           `json:"created_at"`
}

func newMessage(rec domain.EventRecord) Message {
	return Message{
		ID:        rec.ID,
		EventType: rec.EventType,
		GuildID:   rec.GuildID,
		Args:      rec.Args,
		CreatedAt: rec.CreatedAt,
	}
}

// Publisher writes one event to a Sink, keyed by guild so that a guild's
// events stay on one partition.
type Publisher struct {
	sink    Sink
	log     *slog.Logger
	timeout time.Duration
}

func NewPublisher(sink Sink, log *slog.Logger, timeout time.Duration) *Publisher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Publisher{
		sink:    sink,
		log:     log,
		timeout: timeout,
	}
}

// Publish reports whether the event reached the sink. Failures are logged.
func (p *Publisher) Publish(ctx context.Context, rec domain.EventRecord) bool {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	key := strconv.FormatInt(rec.GuildID, 10)
	if err := p.sink.Publish(ctx, key, newMessage(rec)); err != nil {
		p.log.Error("mirroring event failed",
			slog.String("event_id", rec.ID),
			slog.String("event_type", rec.EventType),
			logging.Err(err),
		)
		return false
	}

	p.log.Debug("event mirrored",
		slog.String("event_id", rec.ID),
		slog.Int64("guild_id", rec.GuildID),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return true
}
