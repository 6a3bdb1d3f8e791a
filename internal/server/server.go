// Package server exposes the website's HTTP surface: login and magic-link
// endpoints, guarded admin pages, post pages with read tracking, and the
// operational endpoints (health, metrics).
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/avolkov/website/internal/config"
	"github.com/avolkov/website/internal/logger"
)

// New builds an *http.Server with the configured timeouts.
// Timeouts are not optional: a missing ReadTimeout lets a slow client hold a
// connection open indefinitely.
func New(cfg config.HTTP, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      h,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

// Run serves until ctx is canceled, then shuts down gracefully within the
// configured shutdown timeout.
func Run(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, log *slog.Logger) error {
	errCh := make(chan error, 1)

	go func() {
		log.Info("http server listening", logger.Component("server"), slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("http server shutting down", logger.Component("server"))
	return srv.Shutdown(shutdownCtx)
}
