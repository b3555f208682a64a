package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/phrazzld/scroll-api/internal/api"
	apiMiddleware "github.com/phrazzld/scroll-api/internal/api/middleware"
)

// setupRouter configures the application router with all routes and
// middleware.
func setupRouter(engine api.FeedEngine, registry *prometheus.Registry, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.Trace)

	feedHandler := api.NewFeedHandler(engine, logger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/feed", feedHandler.GetFeed)
		r.Post("/feed/next", feedHandler.NextCard)
		r.Post("/feed/displayed", feedHandler.CardDisplayed)
		r.Get("/feed/events", feedHandler.StreamEvents)
		r.Put("/preferences", feedHandler.UpdatePreferences)
	})

	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
