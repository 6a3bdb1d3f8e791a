package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/avolkov/website/internal/logger"
)

// Router assembles the site's routes.
func Router(h *Handlers, log *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	r.Get("/", h.handleHome)
	r.Get("/login", h.handleLoginForm)
	r.Post("/auth/magic-link", h.handleMagicLinkRequest)
	r.Get("/auth/verify", h.handleMagicLinkVerify)
	r.Post("/logout", h.handleLogout)

	r.Get("/posts/{slug}", h.handlePost)
	r.Get("/rankings", h.handleRankings)

	r.Get("/admin", h.auth.RequireAdmin(h.handleAdmin))

	r.Get("/healthz", h.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

// requestLogger emits one structured record per request.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.InfoContext(r.Context(), "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("latency", time.Since(start)),
				logger.Component("server"),
			)
		})
	}
}
