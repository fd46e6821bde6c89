// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

package tasklist

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// bracketedTaskPattern matches "[repo] title".
var bracketedTaskPattern = regexp.MustCompile(`^\[(.+?)\] (.+)`)

// Options adjusts how task tokens are resolved.
type Options struct {
	// QualifyWithOwner retries a repository name that does not
	// resolve as "<event repository owner>/<name>", so bare names of
	// sibling repositories work. Off by default: bare names are looked
	// up as given.
	QualifyWithOwner bool
}

// Result summarizes one reconciliation. References are
// "owner/name#number", in task order.
type Result struct {
	// Created lists issues opened for tasks that were not references.
	Created []string

	// Closed and Reopened list referenced issues whose state changed.
	Closed   []string
	Reopened []string

	// BodyUpdated reports whether the rewritten body was saved. It is
	// false both when nothing changed and when processing stopped on
	// an error before the save.
	BodyUpdated bool
}

// Reconciler processes tasklists. It holds no per-event state and may
// be shared.
type Reconciler struct {
	options Options
	logger  *slog.Logger
}

// NewReconciler returns a Reconciler. A nil logger discards output.
func NewReconciler(options Options, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reconciler{options: options, logger: logger}
}

// Reconcile processes every task of event.Issue's body in order,
// synchronizing referenced issues and creating the rest, then saves
// the rewritten body if it changed. The caller checks that the body is
// non-empty.
//
// The first error stops processing. Issues already created or edited
// stay that way and the body is not saved, so the partial Result is
// returned alongside the error.
func (reconciler *Reconciler) Reconcile(ctx context.Context, event Event) (Result, error) {
	var result Result
	issue := event.Issue
	original := issue.Body()
	body := original

	logger := reconciler.logger.With("issue", Reference(issue))

	for _, task := range ParseTasks(original) {
		if strings.TrimSpace(task.Text) == "" {
			logger.Debug("skipping empty task")
			continue
		}

		linked, found, err := ResolveReference(ctx, event.Client, event.Repository, task.Text)
		if err != nil {
			return result, fmt.Errorf("task %q: %w", task.Text, err)
		}

		if found {
			transition, err := SyncState(ctx, task.Checked, linked)
			if err != nil {
				return result, fmt.Errorf("task %q: %w", task.Text, err)
			}
			reference := Reference(linked)
			switch transition {
			case TransitionClosed:
				result.Closed = append(result.Closed, reference)
			case TransitionReopened:
				result.Reopened = append(result.Reopened, reference)
			}
			if transition != TransitionNone {
				logger.Info("linked issue state synchronized",
					"linked", reference,
					"transition", transition.String(),
				)
			}
			continue
		}

		created, err := reconciler.createForTask(ctx, event, task.Text)
		if err != nil {
			return result, fmt.Errorf("task %q: %w", task.Text, err)
		}
		reference := Reference(created)
		result.Created = append(result.Created, reference)

		// Every occurrence of the token is replaced, not only the
		// line it came from.
		body = strings.ReplaceAll(body, task.Text, reference)

		logger.Info("created issue for task",
			"task", task.Text,
			"created", reference,
			"title", created.Title(),
		)
	}

	if body == original {
		return result, nil
	}
	if err := issue.EditBody(ctx, body); err != nil {
		return result, fmt.Errorf("saving tasklist of %s: %w", Reference(issue), err)
	}
	result.BodyUpdated = true
	logger.Info("tasklist body updated", "created", len(result.Created))
	return result, nil
}

// createForTask decides where the issue for an unresolved token goes
// and what it is called, then creates it.
func (reconciler *Reconciler) createForTask(ctx context.Context, event Event, token string) (Issue, error) {
	repositoryName, title := token, event.Issue.Title()
	if match := bracketedTaskPattern.FindStringSubmatch(token); match != nil {
		repositoryName, title = match[1], match[2]
	}

	var ownerLogin string
	if reconciler.options.QualifyWithOwner {
		ownerLogin = event.Repository.OwnerLogin()
	}

	target, found, err := ResolveRepository(ctx, event.Client, repositoryName, ownerLogin)
	if err != nil {
		return nil, fmt.Errorf("resolving repository %q: %w", repositoryName, err)
	}
	if !found {
		// Not a repository after all: the whole token becomes the
		// title of an issue next to the parent.
		target, title = event.Repository, token
	}

	created, err := target.CreateIssue(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("creating issue in %s: %w", target.FullName(), err)
	}
	return created, nil
}
