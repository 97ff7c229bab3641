package controllers

import (
	"net/http"

	"github.com/karimsaleh/freshbasket-backend/api/responses"
	"github.com/karimsaleh/freshbasket-backend/pkg/config"
	pkgerrors "github.com/karimsaleh/freshbasket-backend/pkg/errors"
	"github.com/karimsaleh/freshbasket-backend/pkg/logger"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FreshBasket-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// Prober checks a backing dependency.
type Prober func(r *http.Request) error

func HealthReady(cfg *config.Config, logg *logger.Logger, probes ...Prober) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FreshBasket-Env", cfg.App.Env)
		for _, probe := range probes {
			if probe == nil {
				continue
			}
			if err := probe(r); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dependency not ready"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
