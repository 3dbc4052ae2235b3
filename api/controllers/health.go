package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/lagunahotels/channelsync-backend/api/responses"
	"github.com/lagunahotels/channelsync-backend/pkg/config"
	pkgerrors "github.com/lagunahotels/channelsync-backend/pkg/errors"
	"github.com/lagunahotels/channelsync-backend/pkg/logger"
)

const readinessTimeout = 5 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ChannelSync-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady checks every named probe and fails fast on the first broken
// dependency so orchestrators stop routing traffic to this instance.
func HealthReady(cfg *config.Config, logg *logger.Logger, probes map[string]func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ChannelSync-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		for name, probe := range probes {
			if probe == nil {
				continue
			}
			if err := probe(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
