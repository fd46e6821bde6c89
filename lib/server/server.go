// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

// Package server runs the supervisor's HTTP listener: the webhook
// endpoint and a health check, with request logging and graceful
// shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Config configures a Server.
type Config struct {
	// Address is the TCP listen address (e.g. ":8080",
	// "127.0.0.1:9000"). Port 0 lets the OS choose; Addr reports the
	// result. Required.
	Address string

	// Handler serves every request. Routes builds the production
	// handler: the webhook endpoint, /healthz and request logging.
	// Required.
	Handler http.Handler

	// ShutdownTimeout is the maximum time to wait for in-flight
	// requests to complete once the context is cancelled. GitHub
	// itself gives up on a webhook after 10 seconds. Defaults to 10
	// seconds if zero.
	ShutdownTimeout time.Duration

	// Logger receives lifecycle messages and net/http's own errors
	// (TLS handshakes, malformed requests) at warn level. Required.
	Logger *slog.Logger
}

// Server serves HTTP on a TCP listener. Serve blocks until its context
// is cancelled and active requests drain; the caller owns routing,
// signature verification and payload processing through the handler.
type Server struct {
	address string
	handler http.Handler
	logger  *slog.Logger

	// shutdownTimeout is the maximum time to wait for active
	// requests to complete after the context is cancelled.
	shutdownTimeout time.Duration

	// ready is closed after the listener is bound and the server is
	// accepting connections.
	ready chan struct{}

	// addr is the resolved listen address, valid once ready is
	// closed.
	addr net.Addr
}

// New creates a server that will listen on the configured address.
// Nothing is bound until Serve is called. It panics if Address,
// Handler or Logger is missing.
func New(config Config) *Server {
	if config.Address == "" {
		panic("server: Address is required")
	}
	if config.Handler == nil {
		panic("server: Handler is required")
	}
	if config.Logger == nil {
		panic("server: Logger is required")
	}
	timeout := config.ShutdownTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Server{
		address:         config.Address,
		handler:         config.Handler,
		logger:          config.Logger,
		shutdownTimeout: timeout,
		ready:           make(chan struct{}),
	}
}

// Ready returns a channel that is closed once the server is bound and
// accepting connections.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound address. Only valid after Ready is closed;
// with port 0 it carries the port the OS chose.
func (s *Server) Addr() net.Addr {
	return s.addr
}

// Serve starts accepting HTTP connections and blocks until ctx is
// cancelled. Shutdown is graceful: the listener closes, idle
// connections are dropped, and active requests get up to the shutdown
// timeout to finish.
//
// A listen failure is returned immediately and Ready is never closed.
// A serve failure after startup is returned without waiting for ctx.
// Cancellation followed by a clean drain returns nil.
func (s *Server) Serve(ctx context.Context) error {
	// Bind early so the resolved address is known and readiness can
	// be signalled before the serve loop starts.
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.address, err)
	}
	s.addr = listener.Addr()
	close(s.ready)

	// Timeouts bound slow clients. Webhook payloads are read in full
	// before the handler answers, so ReadTimeout covers the largest
	// delivery GitHub sends.
	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	s.logger.Info("http server listening", "address", s.addr.String())

	// http.Server.Serve returns ErrServerClosed after Shutdown; any
	// other error means the listener failed.
	serveDone := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveDone <- err
		}
		close(serveDone)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("http server shutting down")
	case err := <-serveDone:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}
