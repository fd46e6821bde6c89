// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/issuesupervisor/issuesupervisor/lib/errreport"
	"github.com/issuesupervisor/issuesupervisor/lib/github"
)

// ErrQueueFull is returned by Enqueue when the queue has no room.
var ErrQueueFull = errors.New("webhook: event queue is full")

// HandlerFunc processes one event. ctx carries the per-event deadline.
type HandlerFunc func(ctx context.Context, event IssueEvent) error

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	// QueueSize is the number of events that may wait behind the one
	// being processed. Defaults to 64.
	QueueSize int

	// EventTimeout bounds each handler call. Defaults to 60 seconds.
	EventTimeout time.Duration

	// Reporter receives handler failures. Defaults to errreport.Nop.
	Reporter errreport.Reporter

	// Logger is required.
	Logger *slog.Logger
}

// Dispatcher runs queued events through the handler registered for
// their kind, one at a time and in arrival order.
type Dispatcher struct {
	handlers     map[string]HandlerFunc
	queue        chan IssueEvent
	eventTimeout time.Duration
	reporter     errreport.Reporter
	logger       *slog.Logger
}

// NewDispatcher returns a Dispatcher with no handlers. Register every
// handler before calling Run.
func NewDispatcher(config DispatcherConfig) *Dispatcher {
	if config.Logger == nil {
		panic("webhook.Dispatcher: Logger is required")
	}
	queueSize := config.QueueSize
	if queueSize <= 0 {
		queueSize = 64
	}
	eventTimeout := config.EventTimeout
	if eventTimeout <= 0 {
		eventTimeout = 60 * time.Second
	}
	reporter := config.Reporter
	if reporter == nil {
		reporter = errreport.Nop()
	}
	return &Dispatcher{
		handlers:     make(map[string]HandlerFunc),
		queue:        make(chan IssueEvent, queueSize),
		eventTimeout: eventTimeout,
		reporter:     reporter,
		logger:       config.Logger,
	}
}

// Register sets the handler for kind. It panics on a nil handler or a
// kind that already has one.
func (d *Dispatcher) Register(kind string, handler HandlerFunc) {
	if handler == nil {
		panic("webhook.Dispatcher: nil handler for " + kind)
	}
	if _, exists := d.handlers[kind]; exists {
		panic("webhook.Dispatcher: duplicate handler for " + kind)
	}
	d.handlers[kind] = handler
}

// Handles reports whether kind has a registered handler.
func (d *Dispatcher) Handles(kind string) bool {
	_, exists := d.handlers[kind]
	return exists
}

// Enqueue queues event for Run without blocking.
func (d *Dispatcher) Enqueue(event IssueEvent) error {
	select {
	case d.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run processes queued events until ctx is cancelled. Events still
// queued at that point are dropped; GitHub shows them as delivered, so
// they must be redelivered by hand. Run always returns nil after
// cancellation.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("dispatcher started", "queue_size", cap(d.queue))
	for {
		select {
		case <-ctx.Done():
			if pending := len(d.queue); pending > 0 {
				d.logger.Warn("dispatcher stopping with queued events", "dropped", pending)
			}
			d.logger.Info("dispatcher stopped")
			return nil
		case event := <-d.queue:
			d.Dispatch(ctx, event)
		}
	}
}

// Dispatch runs the handler for event synchronously under the event
// deadline. Failures, including panics, are logged, reported and
// returned. Two kinds of failure are logged but not reported: GitHub
// rate limiting, which clears on its own and is logged at warn, and
// cancellation caused by shutdown.
func (d *Dispatcher) Dispatch(ctx context.Context, event IssueEvent) (err error) {
	logger := d.logger.With(
		"event_kind", event.Kind,
		"delivery_id", event.DeliveryID,
		"trace_id", event.TraceID,
		"issue", event.Reference(),
	)
	handler, exists := d.handlers[event.Kind]
	if !exists {
		logger.Debug("no handler for event kind")
		return nil
	}

	eventCtx, cancel := context.WithTimeout(ctx, d.eventTimeout)
	defer cancel()

	started := time.Now()
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("handler panic: %v", recovered)
			logger.Error("event handler panicked", "panic", recovered, "stack", string(debug.Stack()))
		}
		if err != nil {
			if github.IsRateLimited(err) {
				logger.Warn("event failed on GitHub rate limit", "error", err, "duration", time.Since(started))
				return
			}
			if !errors.Is(err, context.Canceled) || ctx.Err() == nil {
				d.reporter.Report(eventCtx, err, event.Tags())
			}
			logger.Error("event failed", "error", err, "duration", time.Since(started))
			return
		}
		logger.Info("event processed", "duration", time.Since(started))
	}()

	return handler(eventCtx, event)
}
