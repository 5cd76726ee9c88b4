package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Priya8975/guildlog/internal/colors"
	"github.com/Priya8975/guildlog/internal/domain"
	"github.com/go-chi/chi/v5/middleware"
)

// noGuild is shown as the most active guild while the store is empty.
const noGuild = "—"

type SummaryHandler struct {
	events EventStore
	render renderer
	log    *slog.Logger
}

func NewSummaryHandler(events EventStore, names NameResolver, palette *colors.Palette, budget time.Duration, log *slog.Logger) *SummaryHandler {
	return &SummaryHandler{
		events: events,
		render: newRenderer(names, palette, budget),
		log:    log,
	}
}

type summaryPage struct {
	Total             int
	Shares            []domain.EventShare
	GuildCount        int
	EventTypeCount    int
	MostFrequentGuild string
	Legend            []string
}

// Show handles GET /.
func (h *SummaryHandler) Show(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(
		slog.String("op", "api.summary.show"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	counts, err := h.events.CountEvents(r.Context())
	if err != nil {
		respondErr(w, log, err)
		return
	}

	s := domain.NewSummary(counts)
	page := summaryPage{
		Total:             s.Total,
		Shares:            s.Shares(),
		GuildCount:        len(s.Guilds),
		EventTypeCount:    len(s.Events),
		MostFrequentGuild: noGuild,
		Legend:            h.render.palette.Types(),
	}
	if s.HasMostFrequent {
		names := h.render.resolveNames(r.Context(), []int64{s.MostFrequentGuild})
		page.MostFrequentGuild = names.lookup(s.MostFrequentGuild)
	}

	if err := h.render.render(w, log, "index.html", page, nil); err != nil {
		respondErr(w, log, err)
	}
}
