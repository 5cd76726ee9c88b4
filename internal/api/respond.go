package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Priya8975/guildlog/internal/errdef"
	"github.com/Priya8975/guildlog/internal/logging"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	http.Error(w, msg, status)
}

// respondErr maps an error kind to a response. Auth failures get an empty 200
// so callers without the secret learn nothing. Validation messages are shown
// to the caller; everything else is logged and reported as an internal error.
func respondErr(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errdef.IsAuth(err):
		log.Warn("unauthenticated write ignored", logging.Err(err))
		w.WriteHeader(http.StatusOK)
	case errdef.IsValidation(err):
		log.Info("rejected request", logging.Err(err))
		respondError(w, http.StatusBadRequest, err.Error())
	case errdef.IsStore(err):
		log.Error("store failure", logging.Err(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	default:
		log.Error("request failed", logging.Err(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
