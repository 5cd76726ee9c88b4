package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Priya8975/guildlog/internal/colors"
	"github.com/Priya8975/guildlog/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// EventStore is the read and append surface of the event log.
type EventStore interface {
	InsertEvent(ctx context.Context, rec domain.NewEventRecord) (*domain.EventRecord, error)
	ListEventsPage(ctx context.Context, filter domain.EventFilter, cursor string, limit int) (*domain.EventPage, error)
	CountEvents(ctx context.Context) ([]domain.EventCount, error)
}

type EmailStore interface {
	InsertVerifiedEmail(ctx context.Context, guildID int64, email string) (*domain.VerifiedEmail, error)
}

// NameResolver turns a guild id into something to show. It never fails.
type NameResolver interface {
	Resolve(ctx context.Context, guildID int64) string
}

// EventMirror receives every stored event after the response is decided.
type EventMirror interface {
	Submit(rec domain.EventRecord) bool
}

// Deps are the collaborators the router wires into its handlers. Mirror,
// Checks and Circuit are optional; a zero NameBudget means DefaultNameBudget.
type Deps struct {
	Log        *slog.Logger
	Events     EventStore
	Emails     EmailStore
	Names      NameResolver
	Palette    *colors.Palette
	NameBudget time.Duration
	Token      string
	Mirror     EventMirror
	Version    string
	Checks     map[string]Pinger
	Circuit    CircuitReporter
}

// NewRouter creates and configures the HTTP router.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(d.Log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	ingest := NewIngestHandler(d.Events, d.Emails, d.Mirror, d.Token, d.Log)
	summary := NewSummaryHandler(d.Events, d.Names, d.Palette, d.NameBudget, d.Log)
	logs := NewLogsHandler(d.Events, d.Names, d.Palette, d.NameBudget, d.Log)

	r.Get("/", summary.Show)
	r.Get("/health", HealthHandler(d.Version, d.Checks, d.Circuit))

	r.Route("/logs", func(r chi.Router) {
		r.Get("/", logs.List)
		r.Get("/type/{name:[a-z_]+}", logs.List)
		r.Get("/guild/{id:[0-9]+}", logs.List)
		r.Get("/guild/{id:[0-9]+}/type/{name:[a-z_]+}", logs.List)
	})

	r.Route("/data", func(r chi.Router) {
		r.Post("/", ingest.Event)
		r.Post("/verify", ingest.VerifiedEmail)
	})

	return r
}
