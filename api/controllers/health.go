package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/reventa-uy/reventa-backend/api/responses"
	"github.com/reventa-uy/reventa-backend/pkg/config"
	"github.com/reventa-uy/reventa-backend/pkg/db"
	pkgerrors "github.com/reventa-uy/reventa-backend/pkg/errors"
	"github.com/reventa-uy/reventa-backend/pkg/logger"
	"github.com/reventa-uy/reventa-backend/pkg/redis"
)

const readinessTimeout = 5 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Reventa-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when the hard dependencies answer.
// Pingers left nil are skipped so workers can reuse the probe.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Reventa-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database not ready"))
				return
			}
		}
		if redisP != nil {
			if err := redisP.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis not ready"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
