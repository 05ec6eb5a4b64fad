package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	mw "matlog/internal/middleware"
	"matlog/internal/services"
)

type RouterConfig struct {
	Service        *services.TrainingService
	Health         Pinger
	Auth           *mw.AuthMiddleware
	Origin         *mw.OriginGuard
	AllowedOrigins []string
	Logger         *zap.Logger
}

// NewRouter wires every route. Under /api the session check runs before the
// origin check, so an anonymous cross-site write gets 401.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.ZapRequestLogger(cfg.Logger))
	r.Use(mw.ZapRecoverer(cfg.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	health := NewHealthHandler(cfg.Health, cfg.Logger)
	profile := NewProfileHandler(cfg.Service, cfg.Logger)
	journal := NewJournalHandler(cfg.Service, cfg.Logger)
	progress := NewProgressHandler(cfg.Service, cfg.Logger)
	dashboard := NewDashboardHandler(cfg.Service, cfg.Logger)

	r.Get("/healthz", health.Get)

	r.Route("/api", func(api chi.Router) {
		api.Use(cfg.Auth.RequireAuth)
		api.Use(cfg.Origin.RequireSameOrigin)

		api.Get("/belts", progress.Belts)
		api.Get("/dashboard", dashboard.Get)

		api.Get("/profile", profile.Get)
		api.Post("/profile", profile.Create)
		api.Patch("/profile", profile.Update)

		api.Get("/journal", journal.List)
		api.Post("/journal", journal.Create)
		api.Get("/journal/title-suggestion", journal.SuggestTitle)
		api.Get("/journal/{id}", journal.Get)
		api.Delete("/journal/{id}", journal.Delete)

		api.Get("/promotions", progress.ListPromotions)
		api.Post("/promotions", progress.CreatePromotion)
	})
	return r
}
