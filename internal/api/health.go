package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/Priya8975/guildlog/internal/engine"
	"github.com/Priya8975/guildlog/internal/resolver"
)

// Pinger is a dependency the health check can ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CircuitReporter exposes the guild-name upstream's circuit state.
type CircuitReporter interface {
	Snapshot(ctx context.Context, upstream string) engine.BreakerSnapshot
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status   string                  `json:"status"`
	Version  string                  `json:"version"`
	Checks   map[string]string       `json:"checks,omitempty"`
	Upstream *engine.BreakerSnapshot `json:"upstream,omitempty"`
}

// HealthHandler reports "healthy" when every check passes and "degraded"
// with a 503 otherwise. An open upstream circuit is reported but does not
// degrade the service, since names fall back to ids.
func HealthHandler(version string, checks map[string]Pinger, circuit CircuitReporter) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := HealthResponse{
			Status:  "healthy",
			Version: version,
		}

		if len(names) > 0 {
			resp.Checks = make(map[string]string, len(names))
		}
		for _, name := range names {
			if err := checks[name].Ping(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				continue
			}
			resp.Checks[name] = "ok"
		}

		if circuit != nil {
			snap := circuit.Snapshot(ctx, resolver.Upstream)
			resp.Upstream = &snap
		}

		status := http.StatusOK
		if resp.Status != "healthy" {
			status = http.StatusServiceUnavailable
		}
		respondJSON(w, status, resp)
	}
}
