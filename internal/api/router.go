package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/Tally/internal/config"
	"github.com/MikeSquared-Agency/Tally/internal/events"
	"github.com/MikeSquared-Agency/Tally/internal/scoring"
	"github.com/MikeSquared-Agency/Tally/internal/store"
)

// NewRouter builds the public API. ev may be nil when events are disabled.
func NewRouter(s store.Store, ev events.Client, cfg *config.Config, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(cfg.HTTP.RateLimitPerSecond, cfg.HTTP.RateLimitBurst))

	d := &deps{
		store:  s,
		events: ev,
		eval:   scoring.NewEvaluator(cfg.WeightPolicy(), cfg.Scale()),
		logger: logger,
	}
	matrices := &MatricesHandler{d}
	criteria := &CriteriaHandler{d}
	options := &OptionsHandler{d}
	results := &ResultsHandler{d}
	shares := &SharesHandler{d}
	admin := &AdminHandler{d}

	r.Route("/api/v1", func(r chi.Router) {
		// Admin routes authenticate by token; they are how users get created.
		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(cfg.Server.AdminToken))
			r.Post("/users", admin.CreateUser)
			r.Get("/stats", admin.Stats)
		})

		r.Group(func(r chi.Router) {
			r.Use(UserIDMiddleware(s))

			r.Post("/matrices", matrices.Create)
			r.Get("/matrices", matrices.List)
			r.Get("/matrices/{id}", matrices.Get)
			r.Patch("/matrices/{id}", matrices.Update)
			r.Delete("/matrices/{id}", matrices.Delete)

			r.Post("/matrices/{id}/criteria", criteria.Create)
			r.Patch("/criteria/{id}", criteria.Update)
			r.Delete("/criteria/{id}", criteria.Delete)

			r.Post("/matrices/{id}/options", options.Create)
			r.Patch("/options/{id}", options.Update)
			r.Delete("/options/{id}", options.Delete)
			r.Put("/options/{id}/scores/{criterion_id}", options.PutScore)

			r.Get("/matrices/{id}/results", results.Results)
			r.Get("/matrices/{id}/weights", results.Weights)

			r.Post("/matrices/{id}/shares", shares.Create)
			r.Get("/matrices/{id}/shares", shares.List)
			r.Delete("/matrices/{id}/shares/{user_id}", shares.Delete)
		})
	})

	return r
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
