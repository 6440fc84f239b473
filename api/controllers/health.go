package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/inkdrop-studio/inkdrop-backend/api/responses"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/config"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/logger"
)

const envHeader = "X-Inkdrop-Env"

// Pinger is any dependency the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings each wired dependency with a short deadline and reports
// per-dependency status. Any failure turns the probe 503.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		statuses := map[string]string{}
		healthy := true
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				healthy = false
				statuses[name] = "down"
				if logg != nil {
					logg.Error(logg.WithField(ctx, "dependency", name), "readiness check failed", err)
				}
				continue
			}
			statuses[name] = "ok"
		}

		status := http.StatusOK
		overall := "ready"
		if !healthy {
			status = http.StatusServiceUnavailable
			overall = "degraded"
		}
		responses.WriteSuccessStatus(w, status, map[string]any{
			"status":       overall,
			"dependencies": statuses,
		})
	}
}
