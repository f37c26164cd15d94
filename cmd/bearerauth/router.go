package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lpforge/bearerauth"
	"github.com/lpforge/bearerauth/core"
)

// keyStatus reports the state of the signing key cache for /healthz.
type keyStatus interface {
	Len() int
	FetchedAt() time.Time
}

type routerDeps struct {
	validator core.Validator
	keys      keyStatus
	gatherer  prometheus.Gatherer
	metrics   core.Metrics
	logger    bearerauth.Logger
}

func newRouter(deps routerDeps) (http.Handler, error) {
	opts := []bearerauth.Option{
		bearerauth.WithValidator(deps.validator),
	}
	if deps.metrics != nil {
		opts = append(opts, bearerauth.WithMetrics(deps.metrics))
	}
	if deps.logger != nil {
		opts = append(opts, bearerauth.WithLogger(deps.logger))
	}
	auth, err := bearerauth.New(opts...)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		body := map[string]any{"status": "ok", "keys": deps.keys.Len()}
		if fetchedAt := deps.keys.FetchedAt(); !fetchedAt.IsZero() {
			body["keys_fetched_at"] = fetchedAt.UTC().Format(time.RFC3339)
		}
		writeJSON(w, http.StatusOK, body)
	})
	r.Handle("/metrics", promhttp.HandlerFor(deps.gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(auth.CheckJWT)
		r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
			outcome, err := core.GetOutcome(r.Context())
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "no authentication outcome"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"subject": outcome.Subject(),
				"claims":  outcome.Claims(),
			})
		})
	})

	return r, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
