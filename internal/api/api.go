// Package api exposes the HTTP surface: webhook ingestion, the current
// alert and its image, the overlay event stream, health, and metrics.
package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ninjacatsolana/nc-buyboy-v2/internal/feed"
	"github.com/ninjacatsolana/nc-buyboy-v2/internal/ingest"
	"github.com/ninjacatsolana/nc-buyboy-v2/internal/publisher"
)

// API holds dependencies for the HTTP handlers.
type API struct {
	pipeline *ingest.Pipeline
	pub      *publisher.Publisher
	hub      *feed.Hub
	secret   string
	logger   zerolog.Logger
}

// New creates the API handler set.
func New(pipeline *ingest.Pipeline, pub *publisher.Publisher, hub *feed.Hub, secret string, logger zerolog.Logger) *API {
	return &API{
		pipeline: pipeline,
		pub:      pub,
		hub:      hub,
		secret:   secret,
		logger:   logger.With().Str("component", "api").Logger(),
	}
}

// Router assembles the route tree.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.With(a.requireSecret).Post("/webhook", a.handleWebhook)

	r.Route("/api", func(r chi.Router) {
		r.Get("/alert", a.handleCurrentAlert)
		r.Get("/alert/image", a.handleCurrentImage)
		r.Get("/events", a.handleEvents)
	})

	r.Get("/healthz", a.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// requireSecret rejects webhook requests whose Authorization header does
// not match the configured shared secret. Comparison is constant-time.
// An empty configured secret disables the check.
func (a *API) requireSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.secret != "" {
			got := []byte(r.Header.Get("Authorization"))
			if subtle.ConstantTimeCompare(got, []byte(a.secret)) != 1 {
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
