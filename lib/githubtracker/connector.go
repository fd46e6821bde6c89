// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

package githubtracker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/issuesupervisor/issuesupervisor/lib/github"
	"github.com/issuesupervisor/issuesupervisor/lib/tasklist"
	"github.com/issuesupervisor/issuesupervisor/lib/webhook"
)

// Connector binds webhook events to live tracker handles.
type Connector struct {
	client *github.Client
	logger *slog.Logger

	mu            sync.Mutex
	installations map[int64]*Tracker
}

// NewConnector returns a Connector over client. In App mode client is
// the App-level client and each event is served by a client for the
// installation it was delivered to.
func NewConnector(client *github.Client, logger *slog.Logger) *Connector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Connector{
		client:        client,
		logger:        logger,
		installations: make(map[int64]*Tracker),
	}
}

// Bind resolves event into a tasklist.Event. The issue is fetched
// again rather than taken from the payload, since the payload may be
// older than an edit made since. When it is, the difference is logged
// at debug level and the fetched issue wins.
func (connector *Connector) Bind(ctx context.Context, event webhook.IssueEvent) (tasklist.Event, error) {
	tracker, err := connector.trackerFor(event.InstallationID)
	if err != nil {
		return tasklist.Event{}, err
	}

	owner, name, err := eventRepositoryName(event.Repository)
	if err != nil {
		return tasklist.Event{}, err
	}
	repository := &repositoryHandle{client: tracker.client, owner: owner, name: name}

	issue, err := repository.GetIssue(ctx, event.Issue.Number)
	if err != nil {
		return tasklist.Event{}, fmt.Errorf("binding %s: %w", event.Reference(), err)
	}
	connector.logStaleSnapshot(event, issue)
	return tasklist.Event{Client: tracker, Repository: repository, Issue: issue}, nil
}

// eventRepositoryName prefers the owner login and name GitHub sent and
// falls back to splitting the full name.
func eventRepositoryName(ref webhook.RepositoryRef) (owner, name string, err error) {
	if ref.Owner != "" && ref.Name != "" {
		return ref.Owner, ref.Name, nil
	}
	owner, name, ok := github.SplitFullName(ref.FullName)
	if !ok {
		return "", "", fmt.Errorf("event repository %q is not owner/name", ref.FullName)
	}
	return owner, name, nil
}

func (connector *Connector) logStaleSnapshot(event webhook.IssueEvent, issue tasklist.Issue) {
	snapshot := event.Issue
	var changed []string
	if snapshot.Title != issue.Title() {
		changed = append(changed, "title")
	}
	if snapshot.Body != issue.Body() {
		changed = append(changed, "body")
	}
	if snapshot.State != string(issue.State()) {
		changed = append(changed, "state")
	}
	if len(changed) == 0 {
		return
	}
	connector.logger.Debug("issue changed since delivery",
		"issue", event.Reference(),
		"trace_id", event.TraceID,
		"changed", changed,
	)
}

// trackerFor returns the Tracker for an installation, creating and
// caching it on first use so installation tokens are reused across
// events. Events without an installation use the configured client.
func (connector *Connector) trackerFor(installationID int64) (*Tracker, error) {
	if !connector.client.IsApp() || installationID == 0 {
		return New(connector.client), nil
	}

	connector.mu.Lock()
	defer connector.mu.Unlock()

	if tracker, exists := connector.installations[installationID]; exists {
		return tracker, nil
	}
	client, err := connector.client.ForInstallation(installationID)
	if err != nil {
		return nil, fmt.Errorf("client for installation %d: %w", installationID, err)
	}
	tracker := New(client)
	connector.installations[installationID] = tracker
	connector.logger.Info("installation client created", "installation_id", installationID)
	return tracker, nil
}
