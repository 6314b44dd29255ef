package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/palmlore/palmd/internal/api"
	"github.com/palmlore/palmd/internal/api/handlers"
	"github.com/palmlore/palmd/internal/api/middleware"
)

type RouterConfig struct {
	AnalyzeHandler *handlers.AnalyzeHandler
	SearchHandler  *handlers.SearchHandler
	DiagHandler    *handlers.DiagHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Palm photos arrive inline as base64 data URIs.
	const maxBodyBytes int64 = 20 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.CORS)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		api.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.Error(w, http.StatusNotFound, "not found")
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/analyze", cfg.AnalyzeHandler.Analyze)
	r.Post("/analyze-stream", cfg.AnalyzeHandler.AnalyzeStream)
	r.Post("/search-knowledge", cfg.SearchHandler.Search)

	r.Get("/test", cfg.DiagHandler.Config)
	r.Get("/test-store", cfg.DiagHandler.Store)

	return r
}
