package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/Rrens/rag-chatbot/internal/api/response"
	"github.com/rs/zerolog/log"
)

const readyTimeout = 3 * time.Second

// ReadinessCheck probes one backing service
type ReadinessCheck func(ctx context.Context) error

// HealthCheck returns a simple health check response
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"status": "ok",
	})
}

// ReadyCheck returns readiness status including backing service connectivity
func ReadyCheck(checks map[string]ReadinessCheck) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		status := "ready"
		results := make(map[string]string, len(checks))
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				log.Warn().Err(err).Str("dependency", name).Msg("Readiness check failed")
				results[name] = "unavailable"
				status = "not ready"
				continue
			}
			results[name] = "ok"
		}

		code := http.StatusOK
		if status != "ready" {
			code = http.StatusServiceUnavailable
		}
		response.JSON(w, code, map[string]any{
			"status": status,
			"checks": results,
		})
	}
}
