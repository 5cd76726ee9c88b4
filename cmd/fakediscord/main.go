// Command fakediscord serves the guild lookup endpoint of the Discord API for
// local runs. Point DISCORD_API_URL at http://localhost:9090/api.
package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Priya8975/guildlog/internal/logging"
	"github.com/go-chi/chi/v5"
)

const (
	modeOK   = "ok"
	modeSlow = "slow"
	modeFail = "fail"
)

type fake struct {
	mode     string
	delay    time.Duration
	names    map[string]string
	requests atomic.Int64
	log      *slog.Logger
}

func main() {
	port := "9090"
	if p := os.Getenv("PORT"); p != "" {
		port = p
	}
	mode := os.Getenv("FAKE_DISCORD_MODE")
	if mode == "" {
		mode = modeOK
	}

	log := logging.New(logging.EnvLocal, logging.ParseLevel(os.Getenv("LOG_LEVEL")))
	f := &fake{
		mode:  mode,
		delay: 3 * time.Second,
		names: parseNames(os.Getenv("FAKE_DISCORD_GUILDS")),
		log:   log,
	}

	log.Info("fake discord starting",
		slog.String("port", port),
		slog.String("mode", mode),
		slog.Int("named_guilds", len(f.names)),
	)
	if err := http.ListenAndServe(":"+port, f.routes()); err != nil {
		log.Error("server error", logging.Err(err))
		os.Exit(1)
	}
}

// parseNames reads "id=name,id=name".
func parseNames(s string) map[string]string {
	names := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		id, name, ok := strings.Cut(pair, "=")
		if ok && id != "" && name != "" {
			names[strings.TrimSpace(id)] = strings.TrimSpace(name)
		}
	}
	return names
}

func (f *fake) routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/api/guilds/{id:[0-9]+}", f.guild)
	r.Get("/stats", f.stats)
	return r
}

func (f *fake) guild(w http.ResponseWriter, r *http.Request) {
	n := f.requests.Add(1)
	id := chi.URLParam(r, "id")

	status := http.StatusOK
	defer func() {
		f.log.Info("guild lookup",
			slog.Int64("n", n),
			slog.String("guild_id", id),
			slog.Int("status", status),
			slog.String("user_agent", r.UserAgent()),
		)
	}()

	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bot ") {
		status = http.StatusUnauthorized
		writeJSON(w, status, map[string]any{"message": "401: Unauthorized", "code": 0})
		return
	}

	switch f.mode {
	case modeFail:
		status = http.StatusInternalServerError
		writeJSON(w, status, map[string]string{"message": "internal server error"})
		return
	case modeSlow:
		select {
		case <-time.After(f.delay):
		case <-r.Context().Done():
			return
		}
	}

	name, ok := f.names[id]
	if !ok {
		name = "Guild " + id
	}
	writeJSON(w, status, map[string]string{"id": id, "name": name})
}

func (f *fake) stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int64{"total_requests": f.requests.Load()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
