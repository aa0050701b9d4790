package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/fourmis-app/fourmis-backend/api/responses"
	"github.com/fourmis-app/fourmis-backend/pkg/config"
	"github.com/fourmis-app/fourmis-backend/pkg/db"
	pkgerrors "github.com/fourmis-app/fourmis-backend/pkg/errors"
	"github.com/fourmis-app/fourmis-backend/pkg/logger"
	"github.com/fourmis-app/fourmis-backend/pkg/redis"
)

const readinessTimeout = 5 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Fourmis-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness only when every backing dependency answers.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Fourmis-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		components := map[string]string{}
		healthy := true

		check := func(name string, ping func(context.Context) error) {
			if ping == nil {
				components[name] = "not configured"
				healthy = false
				return
			}
			if err := ping(ctx); err != nil {
				components[name] = "unreachable"
				healthy = false
				if logg != nil {
					logg.Error(ctx, "health.ready."+name, err)
				}
				return
			}
			components[name] = "ok"
		}

		if dbP != nil {
			check("database", dbP.Ping)
		} else {
			check("database", nil)
		}
		if redisP != nil {
			check("redis", redisP.Ping)
		} else {
			check("redis", nil)
		}

		if !healthy {
			err := pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").WithDetails(components)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"status":     "ready",
			"components": components,
		})
	}
}
