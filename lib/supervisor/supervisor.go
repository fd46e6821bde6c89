// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

// Package supervisor handles issue opened and edited events: it binds
// the event to live tracker handles, reconciles the issue's tasklist
// and, when enabled, adds the issue to a project.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/issuesupervisor/issuesupervisor/lib/github"
	"github.com/issuesupervisor/issuesupervisor/lib/tasklist"
	"github.com/issuesupervisor/issuesupervisor/lib/webhook"
)

// ErrNotImplemented is returned by AddToProject.
var ErrNotImplemented = errors.New("not implemented")

// Binder resolves a webhook event into tracker handles.
// githubtracker.Connector is the production Binder.
type Binder interface {
	Bind(ctx context.Context, event webhook.IssueEvent) (tasklist.Event, error)
}

// Config configures a Supervisor.
type Config struct {
	// Binder is required.
	Binder Binder

	// Reconciler is required.
	Reconciler *tasklist.Reconciler

	// AddToProject enables the project step after the tasklist.
	AddToProject bool

	// Logger defaults to discarding output.
	Logger *slog.Logger
}

// Supervisor is the issue event handler.
type Supervisor struct {
	binder       Binder
	reconciler   *tasklist.Reconciler
	addToProject bool
	logger       *slog.Logger
}

// New returns a Supervisor. It panics if Binder or Reconciler is nil.
func New(config Config) *Supervisor {
	if config.Binder == nil {
		panic("supervisor: Binder is required")
	}
	if config.Reconciler == nil {
		panic("supervisor: Reconciler is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Supervisor{
		binder:       config.Binder,
		reconciler:   config.Reconciler,
		addToProject: config.AddToProject,
		logger:       logger,
	}
}

// Register installs HandleIssue for the event kinds it serves.
func (supervisor *Supervisor) Register(dispatcher *webhook.Dispatcher) {
	dispatcher.Register(webhook.KindIssueOpened, supervisor.HandleIssue)
	dispatcher.Register(webhook.KindIssueEdited, supervisor.HandleIssue)
}

// HandleIssue binds event, reconciles the tasklist when the issue has
// a body, then adds the issue to a project when that is enabled. The
// first error ends processing.
func (supervisor *Supervisor) HandleIssue(ctx context.Context, event webhook.IssueEvent) error {
	logger := supervisor.logger.With(
		"event_kind", event.Kind,
		"trace_id", event.TraceID,
		"issue", event.Reference(),
	)

	bound, err := supervisor.binder.Bind(ctx, event)
	if err != nil {
		return err
	}

	if bound.Issue.Body() != "" {
		result, err := supervisor.reconciler.Reconcile(ctx, bound)
		logResult(logger, result)
		if err != nil {
			logRejectedFields(logger, err)
			return fmt.Errorf("reconciling tasklist of %s: %w", tasklist.Reference(bound.Issue), err)
		}
	} else {
		logger.Debug("issue has no body, skipping tasklist")
	}

	if supervisor.addToProject {
		if err := AddToProject(ctx, bound.Issue); err != nil {
			return fmt.Errorf("adding %s to project: %w", tasklist.Reference(bound.Issue), err)
		}
	}
	return nil
}

// AddToProject adds issue to the organization's project board. Project
// integration does not exist yet; it always fails with
// ErrNotImplemented.
func AddToProject(ctx context.Context, issue tasklist.Issue) error {
	return ErrNotImplemented
}

// logRejectedFields logs the field-level reasons GitHub gave for a 422,
// which the error string only summarizes.
func logRejectedFields(logger *slog.Logger, err error) {
	var apiError *github.APIError
	if !github.IsValidationFailed(err) || !errors.As(err, &apiError) {
		return
	}
	for _, rejected := range apiError.Errors {
		logger.Warn("github rejected request field",
			"resource", rejected.Resource,
			"field", rejected.Field,
			"code", rejected.Code,
			"message", rejected.Message,
			"documentation_url", apiError.DocumentationURL,
		)
	}
}

func logResult(logger *slog.Logger, result tasklist.Result) {
	if len(result.Created)+len(result.Closed)+len(result.Reopened) == 0 && !result.BodyUpdated {
		return
	}
	logger.Info("tasklist reconciled",
		"created", result.Created,
		"closed", result.Closed,
		"reopened", result.Reopened,
		"body_updated", result.BodyUpdated,
	)
}
