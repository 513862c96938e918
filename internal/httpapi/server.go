package httpapi

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// shutdownTimeout is the maximum time to wait for in-flight requests
// during graceful shutdown.
const shutdownTimeout = 30 * time.Second

// ServerConfig holds the configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddr is the address to listen on (e.g., ":8787").
	ListenAddr string

	// Handler serves requests, normally the router from NewRouter.
	Handler http.Handler

	// TLSConfig enables HTTPS when set.
	TLSConfig *tls.Config
}

// Server runs the HTTP listener until its context is cancelled.
type Server struct {
	config   ServerConfig
	listener net.Listener
	ready    chan struct{}
}

// NewServer creates a Server with the given configuration.
func NewServer(cfg ServerConfig) *Server {
	return &Server{config: cfg, ready: make(chan struct{})}
}

// ListenAndServe starts the server and blocks until ctx is cancelled. On
// cancellation it stops accepting connections and waits up to
// shutdownTimeout for in-flight requests to finish.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return err
	}
	if s.config.TLSConfig != nil {
		ln = tls.NewListener(ln, s.config.TLSConfig)
	}
	s.listener = ln
	close(s.ready)

	srv := &http.Server{
		Handler:           s.config.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("HTTP server listening",
		"addr", ln.Addr().String(),
		"tls_enabled", s.config.TLSConfig != nil,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("shutdown timeout reached, forcing close", "error", err)
		_ = srv.Close()
	} else {
		slog.Info("all requests completed")
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Ready is closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the listener address, or empty string if not listening.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}
