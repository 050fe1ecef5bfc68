package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter wires the API routes. Trigger endpoints run pipeline stages
// synchronously, so the request timeout has to cover a full scrape pass.
func NewRouter(articles *ArticleHandler, analytics *AnalyticsHandler, triggers *TriggerHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Minute))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/scrape", triggers.Scrape)
		r.Post("/analyze", triggers.Analyze)

		r.Get("/articles", articles.List)
		r.Get("/articles/{id}", articles.Get)

		r.Get("/analytics/overview", analytics.Overview)
		r.Get("/analytics/bias-distribution", analytics.BiasDistribution)
	})

	return r
}
