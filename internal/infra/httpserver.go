package infra

import (
	"context"
	"net/http"
	"time"
)

// HTTPServer wraps http.Server for the job API process: timeouts come from
// Config, startup and shutdown are explicit calls so main owns the lifecycle.
type HTTPServer struct {
	server *http.Server
}

// NewHTTPServer builds the server around the job API router. Read, write, and
// idle timeouts are configured; video downloads ride on the write timeout, so
// it should cover the largest artifact served from local storage.
func NewHTTPServer(cfg *Config, handler http.Handler) *HTTPServer {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		MaxHeaderBytes:    1 << 20,
	}

	return &HTTPServer{server: srv}
}

// Start blocks serving requests until Shutdown or failure.
func (s *HTTPServer) Start() error {
	if s.server == nil {
		return nil
	}
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests until the context expires.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
