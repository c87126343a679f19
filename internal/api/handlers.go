package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hearthapp/secretary/internal/scheduler"
)

// StatsSource aggregates entity counts for the stats endpoint.
type StatsSource interface {
	Snapshot(ctx context.Context) (StatsSnapshot, error)
}

// StatsSnapshot is the stats endpoint's payload.
type StatsSnapshot struct {
	Users            int `json:"users"`
	Memos            int `json:"memos"`
	Todos            int `json:"todos"`
	TodosDone        int `json:"todos_done"`
	Events           int `json:"events"`
	Reminders        int `json:"reminders"`
	RemindersPending int `json:"reminders_pending"`
}

// statusResponse is the status endpoint's payload.
type statusResponse struct {
	Status        string          `json:"status"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	Platforms     []string        `json:"platforms"`
	Scheduler     scheduler.Stats `json:"scheduler"`
}

func handleStatus(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, statusResponse{
			Status:        "ok",
			UptimeSeconds: int64(time.Since(deps.StartedAt).Seconds()),
			Platforms:     deps.Platforms.Platforms(),
			Scheduler:     deps.Scheduler.Stats(),
		})
	}
}

func handleStats(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := deps.Stats.Snapshot(r.Context())
		if err != nil {
			if deps.Logger != nil {
				deps.Logger.Error("failed to gather stats",
					slog.String("error", err.Error()))
			}
			respondJSON(w, http.StatusInternalServerError,
				map[string]string{"error": "failed to gather stats"})
			return
		}

		respondJSON(w, http.StatusOK, snapshot)
	}
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; an encode failure here is unrecoverable
	_ = json.NewEncoder(w).Encode(payload)
}
