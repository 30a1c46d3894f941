// Package api exposes the HTTP surface: baby and event CRUD, the
// analysis endpoint and the administrative index rebuild, behind a
// recovery / request-ID / logging / rate-limit middleware stack.
package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"babytrack/internal/knowledge"
	"babytrack/internal/log"
	"babytrack/internal/store"
)

// ServerConfig contains everything the API server depends on.
type ServerConfig struct {
	Logger    log.Logger
	Store     *store.Store    // Required
	DB        *sql.DB         // Optional: nil disables the db ping in /ready
	Analyzer  Analyzer        // Required
	Builder   IndexBuilder    // Optional: nil disables /api/v1/index/rebuild
	Cache     *knowledge.Cache // Optional: refreshed after a rebuild
	RateBurst int             // 0 = default 60
	Now       func() time.Time // Optional: test clock
}

// Server is the JSON API HTTP server.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger
}

// NewServer creates the server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	if cfg.Analyzer == nil {
		return nil, errors.New("analyzer is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	bh := &babyHandler{store: cfg.Store, logger: logger}
	eh := &eventHandler{store: cfg.Store, logger: logger, now: now}
	ah := &analysisHandler{store: cfg.Store, analyzer: cfg.Analyzer, logger: logger, now: now}
	rh := &reportHandler{store: cfg.Store, logger: logger}
	ch := &conversationHandler{store: cfg.Store, logger: logger}
	ih := &indexHandler{builder: cfg.Builder, cache: cfg.Cache, logger: logger}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/babies", bh.create)
	mux.HandleFunc("GET /api/v1/babies", bh.list)
	mux.HandleFunc("GET /api/v1/babies/{id}", bh.get)
	mux.HandleFunc("PATCH /api/v1/babies/{id}", bh.update)
	mux.HandleFunc("DELETE /api/v1/babies/{id}", bh.delete)

	mux.HandleFunc("POST /api/v1/babies/{id}/feedings", eh.addFeeding)
	mux.HandleFunc("GET /api/v1/babies/{id}/feedings", eh.listFeedings)
	mux.HandleFunc("DELETE /api/v1/feedings/{id}", eh.deleteFeeding)

	mux.HandleFunc("POST /api/v1/babies/{id}/weights", eh.addWeight)
	mux.HandleFunc("GET /api/v1/babies/{id}/weights", eh.listWeights)
	mux.HandleFunc("DELETE /api/v1/weights/{id}", eh.deleteWeight)

	mux.HandleFunc("POST /api/v1/babies/{id}/diapers", eh.addDiaper)
	mux.HandleFunc("GET /api/v1/babies/{id}/diapers", eh.listDiapers)
	mux.HandleFunc("DELETE /api/v1/diapers/{id}", eh.deleteDiaper)

	mux.HandleFunc("POST /api/v1/babies/{id}/analysis", ah.analyze)

	mux.HandleFunc("GET /api/v1/babies/{id}/reports", rh.list)
	mux.HandleFunc("GET /api/v1/reports/{id}", rh.get)
	mux.HandleFunc("DELETE /api/v1/reports/{id}", rh.delete)

	mux.HandleFunc("POST /api/v1/babies/{id}/conversations", ch.create)
	mux.HandleFunc("GET /api/v1/babies/{id}/conversations", ch.list)
	mux.HandleFunc("GET /api/v1/conversations/{id}", ch.get)
	mux.HandleFunc("PATCH /api/v1/conversations/{id}", ch.update)
	mux.HandleFunc("DELETE /api/v1/conversations/{id}", ch.delete)

	mux.HandleFunc("POST /api/v1/index/rebuild", ih.rebuild)

	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}
	rl := newRateLimiter(1.0, burst)

	// Middleware stack, outermost first:
	//   Recovery -> RequestID -> Logging -> RateLimit -> Routes
	// RequestID runs before Logging so request_id is in log attributes.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, logger)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Health probes bypass the middleware stack.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health(logger))
	topMux.Handle("GET /ready", readiness(cfg.DB, logger))
	topMux.Handle("/", handler)

	return &Server{mux: topMux, logger: logger}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Analysis requests block on the reasoning service.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	s.logger.Info("http server stopped")
	return <-errCh
}
