package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Priya8975/guildlog/internal/colors"
	"github.com/Priya8975/guildlog/internal/domain"
	"github.com/Priya8975/guildlog/internal/errdef"
	"github.com/Priya8975/guildlog/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// PageSize is the number of records on one log page.
const PageSize = 20

type LogsHandler struct {
	events EventStore
	render renderer
	log    *slog.Logger
}

func NewLogsHandler(events EventStore, names NameResolver, palette *colors.Palette, budget time.Duration, log *slog.Logger) *LogsHandler {
	return &LogsHandler{
		events: events,
		render: newRenderer(names, palette, budget),
		log:    log,
	}
}

type logsPage struct {
	Events    []domain.EventRecord
	Total     int
	More      bool
	NextURL   string
	GuildID   *int64
	EventType string
}

// List handles GET /logs with optional /guild/{id} and /type/{name} filters.
func (h *LogsHandler) List(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(
		slog.String("op", "api.logs.list"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	filter, err := logFilter(r)
	if err != nil {
		respondErr(w, log, err)
		return
	}

	cursor := r.URL.Query().Get("cursor")
	if cursor != "" && !store.ValidCursor(cursor) {
		log.Debug("malformed cursor, starting from the newest record", slog.String("cursor", cursor))
		cursor = ""
	}

	page, err := h.events.ListEventsPage(r.Context(), filter, cursor, PageSize)
	if err != nil {
		respondErr(w, log, err)
		return
	}

	data := logsPage{
		Events:    page.Events,
		Total:     len(page.Events),
		More:      page.More,
		GuildID:   filter.GuildID,
		EventType: filter.EventType,
	}
	if page.More {
		data.NextURL = r.URL.Path + "?cursor=" + url.QueryEscape(page.NextCursor)
	}

	names := h.render.resolveNames(r.Context(), pageGuilds(data))
	if err := h.render.render(w, log, "logs.html", data, names); err != nil {
		respondErr(w, log, err)
	}
}

// pageGuilds lists the guild ids a log page shows, the filter guild first.
func pageGuilds(p logsPage) []int64 {
	ids := make([]int64, 0, len(p.Events)+1)
	if p.GuildID != nil {
		ids = append(ids, *p.GuildID)
	}
	for _, e := range p.Events {
		ids = append(ids, e.GuildID)
	}
	return ids
}

func logFilter(r *http.Request) (domain.EventFilter, error) {
	var f domain.EventFilter

	if raw := chi.URLParam(r, "id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return f, errdef.NewValidation("guild id %q: %w", raw, err)
		}
		f.GuildID = &id
	}
	f.EventType = chi.URLParam(r, "name")

	return f, nil
}
