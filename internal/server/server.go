package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"poppy/internal/config"
	"poppy/internal/handler"
)

// Server is the HTTP server for the departure board.
type Server struct {
	mux      *http.ServeMux
	cfg      *config.Config
	logger   *slog.Logger
	apiToken string
}

// New creates a new Server with all routes registered. static holds the
// files served under /static/. The handlers own the loading view shown
// before the first board is published.
func New(cfg *config.Config, h *handler.Handler, static fs.FS, logger *slog.Logger) *Server {
	mux := http.NewServeMux()
	s := &Server{mux: mux, cfg: cfg, logger: logger, apiToken: cfg.APIToken}

	// Static files, versioned URLs get immutable caching
	fileServer := http.FileServer(http.FS(static))
	mux.Handle("GET /static/", http.StripPrefix("/static/", staticCacheHandler(fileServer)))

	// Pages
	mux.HandleFunc("GET /", h.Home)

	// API
	mux.HandleFunc("GET /board", h.Board)
	mux.HandleFunc("POST /refresh", h.Refresh)
	mux.HandleFunc("POST /location", h.UpdateLocation)
	mux.HandleFunc("GET /healthz", h.Healthz)

	// SSE
	mux.HandleFunc("GET /sse/board", h.SSEBoard)

	return s
}

// Handler returns the routes wrapped in middleware.
func (s *Server) Handler() http.Handler {
	return withMiddleware(s.mux, s.logger, s.apiToken)
}

// ListenAndServe starts the HTTP server and shuts it down gracefully when
// ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
