package handler

import (
	"net/http"

	"github.com/wadjakorntonsri/clicklink/pkg/config"
	"github.com/wadjakorntonsri/clicklink/pkg/ports"
)

// NewRouter creates and configures the main application router
func NewRouter(cfg *config.Config, service ports.LinkService) http.Handler {
	h := NewHTTPHandler(service)
	mw := NewMiddleware(cfg)

	mux := http.NewServeMux()

	// Public Routes
	mux.HandleFunc("GET /healthz", h.Health)
	mux.HandleFunc("GET /{code}", h.Redirect)
	mux.HandleFunc("GET /{$}", h.Redirect) // no code: 400

	if cfg.GoogleLoginEnabled() {
		authHandler := NewAuthHandler(cfg)
		mux.HandleFunc("GET /auth/google/login", authHandler.Login)
		mux.HandleFunc("GET /auth/google/callback", authHandler.Callback)
		mux.HandleFunc("GET /auth/logout", authHandler.Logout)
	}

	// Admin API
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("GET /api/links", h.List)
	apiMux.HandleFunc("POST /api/links", h.Create)
	apiMux.HandleFunc("GET /api/links/{code}", h.Get)
	apiMux.HandleFunc("DELETE /api/links/{code}", h.Delete)
	apiMux.HandleFunc("GET /api/links/{$}", h.Get)
	apiMux.HandleFunc("DELETE /api/links/{$}", h.Delete)

	var api http.Handler = apiMux
	if cfg.AuthEnabled() {
		api = mw.AuthMiddleware(api)
	}
	mux.Handle("/api/", api)

	return RequestID(Logging(Recover(mw.BodyLimit(mux))))
}
