// Package gateway is the single public entry point for the editing suite: it
// terminates auth, applies rate and body limits, and proxies to the timeline
// and preview services, which themselves trust the forwarded identity.
package gateway

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func Router(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	r.Use(corsMiddleware(cfg.AllowedOrigin))
	r.Use(middleware.RequestID)
	r.Use(stripTrustedHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(rateLimitMiddleware(newRateLimiter(cfg.PublicRPS), rateKeyIP))

	studioProxy := mustNewReverseProxy(cfg.StudioURL)
	previewProxy := mustNewReverseProxy(cfg.PreviewURL)

	// The websocket subscription skips the timeout stack: it is held open
	// for the whole editing session.
	r.HandleFunc("/ws", previewProxy.ServeHTTP)

	api := chi.NewRouter()
	api.Use(middleware.Timeout(30 * time.Second))

	api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"service": "gateway",
		})
	})

	api.Group(func(r chi.Router) {
		r.Use(jwtAuthMiddleware(cfg.JWTSecret))
		r.Use(rateLimitMiddleware(newRateLimiter(cfg.AuthedRPS), rateKeyUserOrIP))

		// Timeline service.
		r.Method(http.MethodPost, "/projects/{projectId}/timeline", studioProxy)
		r.Method(http.MethodGet, "/timelines/{id}", studioProxy)
		r.Method(http.MethodPost, "/timelines/{id}/clips", studioProxy)
		r.Method(http.MethodPatch, "/timelines/{id}/clips/{clipId}", studioProxy)
		r.Method(http.MethodDelete, "/timelines/{id}/clips/{clipId}", studioProxy)
		r.Method(http.MethodPut, "/timelines/{id}/clips/order", studioProxy)

		// Asset catalog.
		r.With(bodySizeLimitMiddleware(cfg.AssetBodyLimit)).
			Method(http.MethodPost, "/assets", studioProxy)
		r.Method(http.MethodGet, "/assets", studioProxy)
		r.Method(http.MethodGet, "/assets/{id}", studioProxy)

		// Broadcast injection, for tools that publish without touching the
		// timeline (render pipelines, migration scripts).
		r.Method(http.MethodPost, "/events", previewProxy)
	})

	r.Mount("/", api)
	return r
}
