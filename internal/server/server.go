// Package server implements the HTTP API, middleware, and request handlers for the application.
package server

import (
	"net/http"

	"github.com/woozymasta/mtabot/internal/config"
)

// New creates a new Server instance. clock may be nil.
func New(q PlayerQuerier, history History, clock ClockReporter, cfg *config.Config) *Server {
	return &Server{
		querier:        q,
		history:        history,
		clock:          clock,
		authToken:      cfg.Server.AuthToken,
		trustProxy:     cfg.Server.TrustProxy,
		hardLimitCount: cfg.RateLimit.HardLimitCount,
		hardLimitWin:   cfg.RateLimit.HardLimitWin,

		shutdown: make(chan struct{}),
	}
}

// Stop signals background routines to exit and waits for them.
func (s *Server) Stop() {
	close(s.shutdown)
	s.wg.Wait()
}

// Run configures the HTTP routes and returns the main handler.
func (s *Server) Run() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /api/players", s.RateLimitMiddleware(http.HandlerFunc(s.handlePlayers)))
	mux.Handle("GET /api/history", AdminAuthMiddleware(s.authToken, http.HandlerFunc(s.handleHistory)))
	mux.Handle("GET /api/stats", AdminAuthMiddleware(s.authToken, http.HandlerFunc(s.handleStats)))
	mux.Handle("GET /api/clock", http.HandlerFunc(s.handleClock))
	mux.Handle("GET /api/version", http.HandlerFunc(s.handleVersion))

	return s.LoggingMiddleware(mux)
}
