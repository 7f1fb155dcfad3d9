package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/reventa-uy/reventa-backend/api/responses"
	"github.com/reventa-uy/reventa-backend/internal/cron"
	pkgerrors "github.com/reventa-uy/reventa-backend/pkg/errors"
	"github.com/reventa-uy/reventa-backend/pkg/logger"
)

// RunJob triggers a single registered job run by name. Admin only. The
// sweep jobs tolerate overlapping runs with the cron worker.
func RunJob(registry *cron.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if registry == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "job registry unavailable"))
			return
		}

		name := strings.TrimSpace(chi.URLParam(r, "jobName"))
		var job cron.Job
		for _, candidate := range registry.Jobs() {
			if candidate.Name() == name {
				job = candidate
				break
			}
		}
		if job == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("unknown job %q", name)))
			return
		}

		logCtx := logg.WithField(r.Context(), "job", name)
		logg.Info(logCtx, "manual job run requested")
		if err := job.Run(r.Context()); err != nil {
			responses.WriteError(logCtx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("job %q failed", name)))
			return
		}
		responses.WriteSuccess(w, map[string]any{"job": name, "completed": true})
	}
}
