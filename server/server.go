// Package server runs the HTTP API with graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"user_server_go/config"
)

// Server wraps an http.Server bound to the configured port.
type Server struct {
	http            *http.Server
	log             *slog.Logger
	shutdownTimeout time.Duration

	mu       sync.Mutex
	listener net.Listener
	// done is closed once Serve returns; serveErr is set before that.
	done     chan struct{}
	serveErr error
}

// New builds a server for handler using the timeouts in cfg.
func New(cfg *config.ServerConfig, handler http.Handler, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		http: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			ErrorLog:     slog.NewLogLogger(log.Handler(), slog.LevelError),
		},
		log:             log,
		shutdownTimeout: cfg.ShutdownTimeout,
	}
}

// Start binds the listener and serves in the background. It returns the
// bound address, which is useful with port 0.
func (s *Server) Start() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return "", errors.New("server already started")
	}
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return "", fmt.Errorf("listen on %s: %w", s.http.Addr, err)
	}
	s.listener = ln
	done := make(chan struct{})
	s.done = done

	go func() {
		err := s.http.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.serveErr = err
		close(done)
	}()

	addr := ln.Addr().String()
	s.log.Info("HTTP server started", "addr", addr)
	return addr, nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
// It is safe to call more than once and after serving has failed.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		return nil
	}
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("shutdown: %w", ctx.Err())
	}
	s.log.Info("HTTP server stopped")
	return s.serveErr
}

// Run starts the server and blocks until ctx is cancelled or serving fails.
func (s *Server) Run(ctx context.Context) error {
	if _, err := s.Start(); err != nil {
		return err
	}

	select {
	case <-s.done:
		return s.serveErr
	case <-ctx.Done():
	}

	timeout := s.shutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}
