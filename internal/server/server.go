// Package server owns the HTTP listener lifecycle: startup, signal
// handling, and draining both in-flight requests and background
// workers on the way down.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// ShutdownFunc drains one component during graceful shutdown.
type ShutdownFunc func(ctx context.Context) error

// Server wraps http.Server with signal-driven graceful shutdown.
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          *slog.Logger
	shutdownFuncs   []ShutdownFunc
	shutdownNames   []string
	mu              sync.Mutex
}

// New creates a new Server instance.
func New(handler http.Handler, port int, readTimeout, writeTimeout, shutdownTimeout time.Duration, logger *slog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      handler,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
		},
		shutdownTimeout: shutdownTimeout,
		logger:          logger,
	}
}

// OnShutdown registers a component to drain during graceful shutdown.
// Components drain in reverse registration order (LIFO) after the HTTP
// listener stops accepting requests, so something registered early
// (the audit worker, say) outlives the traffic that feeds it.
func (s *Server) OnShutdown(name string, fn ShutdownFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdownFuncs = append(s.shutdownFuncs, fn)
	s.shutdownNames = append(s.shutdownNames, name)
}

// Run starts the listener and blocks until SIGINT/SIGTERM or a fatal
// listener error.
func (s *Server) Run() error {
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)

	go func() {
		s.logger.Info("listener starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		s.logger.Info("shutdown signal received", "signal", sig.String())
		return s.gracefulShutdown()
	}
}

// gracefulShutdown stops the listener, then drains registered
// components. The whole sequence shares one timeout.
func (s *Server) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	s.logger.Info("draining HTTP listener", "timeout", s.shutdownTimeout)
	s.httpServer.SetKeepAlivesEnabled(false)

	if err := s.httpServer.Shutdown(ctx); err != nil {
		// Keep going: background components still deserve their drain.
		s.logger.Error("HTTP listener shutdown error", "error", err)
	}

	s.mu.Lock()
	funcs := s.shutdownFuncs
	names := s.shutdownNames
	s.mu.Unlock()

	s.logger.Info("draining background components", "count", len(funcs))

	var failed int
	var firstErr error
	for i := len(funcs) - 1; i >= 0; i-- {
		s.logger.Info("draining component", "name", names[i])
		if err := funcs[i](ctx); err != nil {
			s.logger.Error("component drain error", "name", names[i], "error", err)
			failed++
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		s.logger.Info("component drained", "name", names[i])
	}

	if failed > 0 {
		s.logger.Error("shutdown finished with errors", "failed", failed)
		return firstErr
	}

	s.logger.Info("server stopped cleanly")
	return nil
}

// Addr returns the listener address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}
