// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

// Package errreport sends event processing failures to an error
// monitor. [New] returns a Sentry-backed [Reporter] when a DSN is
// configured and a no-op one otherwise, so callers never branch on
// whether monitoring is enabled.
package errreport

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
)

// Reporter receives errors that were already logged and need human
// attention.
type Reporter interface {
	// Report records err with the given tags. It must not block on
	// the network.
	Report(ctx context.Context, err error, tags map[string]string)

	// Flush waits up to timeout for buffered reports to be sent and
	// reports whether everything was delivered.
	Flush(timeout time.Duration) bool
}

// Config selects and configures the monitor.
type Config struct {
	// DSN is the Sentry project DSN. Empty disables reporting.
	DSN string

	Environment string
	Release     string

	// TracesSampleRate is passed through to Sentry; zero disables
	// performance tracing.
	TracesSampleRate float64
}

// New returns a Sentry reporter for config, or Nop when config.DSN is
// empty.
func New(config Config, logger *slog.Logger) (Reporter, error) {
	if config.DSN == "" {
		return Nop(), nil
	}
	reporter, err := newSentry(sentry.ClientOptions{
		Dsn:              config.DSN,
		Environment:      config.Environment,
		Release:          config.Release,
		TracesSampleRate: config.TracesSampleRate,
		AttachStacktrace: true,
	})
	if err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Info("error reporting enabled", "environment", config.Environment)
	}
	return reporter, nil
}

type nop struct{}

// Nop returns a Reporter that discards everything.
func Nop() Reporter { return nop{} }

func (nop) Report(context.Context, error, map[string]string) {}
func (nop) Flush(time.Duration) bool                         { return true }

// Sentry reports through a dedicated hub so it never touches the
// global sentry state.
type Sentry struct {
	hub *sentry.Hub
}

func newSentry(options sentry.ClientOptions) (*Sentry, error) {
	client, err := sentry.NewClient(options)
	if err != nil {
		return nil, fmt.Errorf("creating sentry client: %w", err)
	}
	return &Sentry{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

// Report captures err on a scope carrying tags. A hub attached to ctx
// by sentry middleware takes precedence over the reporter's own.
func (reporter *Sentry) Report(ctx context.Context, err error, tags map[string]string) {
	if err == nil {
		return
	}
	hub := reporter.hub
	if contextHub := sentry.GetHubFromContext(ctx); contextHub != nil {
		hub = contextHub
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		hub.CaptureException(err)
	})
}

// Flush waits for queued events.
func (reporter *Sentry) Flush(timeout time.Duration) bool {
	return reporter.hub.Flush(timeout)
}
