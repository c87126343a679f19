// Package api exposes the operational HTTP surface: health, status and
// aggregate statistics. Chat platforms are the user-facing interface; this
// server exists for operators and monitoring.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hearthapp/secretary/internal/scheduler"
)

// SchedulerStatus reports the polling loop's liveness and counters.
type SchedulerStatus interface {
	Stats() scheduler.Stats
}

// PlatformLister reports which notification platforms have channels
// registered.
type PlatformLister interface {
	Platforms() []string
}

// Deps carries the collaborators the ops endpoints read from.
type Deps struct {
	Scheduler SchedulerStatus
	Platforms PlatformLister
	Stats     StatsSource
	StartedAt time.Time
	Logger    *slog.Logger
}

// NewRouter builds the ops router.
func NewRouter(deps Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/status", handleStatus(deps))
		r.Get("/stats", handleStats(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
