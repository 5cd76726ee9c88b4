package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Priya8975/guildlog/internal/domain"
	"github.com/Priya8975/guildlog/internal/errdef"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	maxFormBytes    = 1 << 20
	maxEventTypeLen = 64
)

// IngestHandler accepts writes from the bot process. Requests without the
// shared token get an empty 200 and change nothing.
type IngestHandler struct {
	events EventStore
	emails EmailStore
	mirror EventMirror
	auth   tokenChecker
	log    *slog.Logger
}

func NewIngestHandler(events EventStore, emails EmailStore, mirror EventMirror, token string, log *slog.Logger) *IngestHandler {
	return &IngestHandler{
		events: events,
		emails: emails,
		mirror: mirror,
		auth:   newTokenChecker(token),
		log:    log,
	}
}

// authorize parses the form and checks the token. It returns false once the
// response has been written.
func (h *IngestHandler) authorize(w http.ResponseWriter, r *http.Request, log *slog.Logger) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	err := r.ParseForm()
	if err != nil {
		err = errdef.NewAuth("unreadable form: %w", err)
	} else {
		err = h.auth.check(r.Form.Get("__token"))
	}
	if err != nil {
		respondErr(w, log, err)
		return false
	}
	return true
}

// Event handles POST /data.
func (h *IngestHandler) Event(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(
		slog.String("op", "api.ingest.event"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if !h.authorize(w, r, log) {
		return
	}

	rec, err := parseEventForm(r.Form)
	if err != nil {
		respondErr(w, log, err)
		return
	}

	stored, err := h.events.InsertEvent(r.Context(), rec)
	if err != nil {
		respondErr(w, log, err)
		return
	}

	log.Debug("event stored",
		slog.String("event_id", stored.ID),
		slog.String("event_type", stored.EventType),
		slog.Int64("guild_id", stored.GuildID),
	)
	w.WriteHeader(http.StatusOK)

	if h.mirror != nil {
		h.mirror.Submit(*stored)
	}
}

// VerifiedEmail handles POST /data/verify.
func (h *IngestHandler) VerifiedEmail(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(
		slog.String("op", "api.ingest.verified_email"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if !h.authorize(w, r, log) {
		return
	}

	guildID, err := parseGuildID(r.Form.Get("guild_id"))
	if err != nil {
		respondErr(w, log, err)
		return
	}

	email, err := url.QueryUnescape(r.Form.Get("email"))
	if err != nil {
		respondErr(w, log, errdef.NewValidation("email: %w", err))
		return
	}
	email = strings.TrimSpace(email)
	if email == "" {
		respondErr(w, log, errdef.NewValidation("email is required"))
		return
	}

	if _, err := h.emails.InsertVerifiedEmail(r.Context(), guildID, email); err != nil {
		respondErr(w, log, err)
		return
	}

	log.Debug("verified email stored", slog.Int64("guild_id", guildID))
	w.WriteHeader(http.StatusOK)
}

func parseEventForm(form url.Values) (domain.NewEventRecord, error) {
	table := form.Get("table")
	if table == "" {
		return domain.NewEventRecord{}, errdef.NewValidation("table is required")
	}
	if len(table) > maxEventTypeLen {
		return domain.NewEventRecord{}, errdef.NewValidation("table longer than %d bytes", maxEventTypeLen)
	}

	guildID, err := parseGuildID(form.Get("guild_id"))
	if err != nil {
		return domain.NewEventRecord{}, err
	}

	return domain.NewEventRecord{
		EventType: table,
		GuildID:   guildID,
		Args:      parseArgs(form.Get("args")),
	}, nil
}

func parseGuildID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, errdef.NewValidation("guild_id: %w", err)
	}
	return id, nil
}

// parseArgs decodes a query string split on both '&' and ';'. Blank values
// and keys left with no values are dropped. A component with a bad escape
// is kept as sent instead of failing the event.
func parseArgs(raw string) domain.Args {
	args := make(domain.Args)
	for _, pair := range strings.FieldsFunc(raw, isArgSeparator) {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || v == "" {
			continue
		}
		key, val := unescapeArg(k), unescapeArg(v)
		if val == "" {
			continue
		}
		args[key] = append(args[key], val)
	}
	return args
}

func isArgSeparator(r rune) bool {
	return r == '&' || r == ';'
}

func unescapeArg(s string) string {
	if u, err := url.QueryUnescape(s); err == nil {
		return u
	}
	return strings.ReplaceAll(s, "+", " ")
}
