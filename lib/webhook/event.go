// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

package webhook

import (
	"strconv"

	"github.com/google/go-github/v72/github"
)

// Event kinds with registered handlers in the supervisor.
const (
	KindIssueOpened = "issues.opened"
	KindIssueEdited = "issues.edited"
)

// IssueEvent is the part of an "issues" webhook the supervisor needs.
type IssueEvent struct {
	// Kind is "issues.<action>".
	Kind string

	// DeliveryID is the X-GitHub-Delivery header, possibly empty.
	DeliveryID string

	// TraceID is assigned on receipt and follows the event through
	// logs and error reports.
	TraceID string

	// InstallationID is the GitHub App installation the event was
	// delivered for. Zero for repository webhooks.
	InstallationID int64

	Repository RepositoryRef
	Issue      IssueSnapshot
}

// RepositoryRef identifies the repository an event came from.
type RepositoryRef struct {
	ID       int64
	FullName string
	Owner    string
	Name     string
}

// IssueSnapshot is the issue as it was when GitHub sent the event.
// Handlers that edit the issue should fetch it again.
type IssueSnapshot struct {
	Number        int
	Title         string
	Body          string
	State         string
	IsPullRequest bool
}

// Reference renders "owner/name#number" for logs.
func (event IssueEvent) Reference() string {
	return event.Repository.FullName + "#" + strconv.Itoa(event.Issue.Number)
}

// Tags returns the identifying fields of event for error reports.
func (event IssueEvent) Tags() map[string]string {
	tags := map[string]string{
		"event_kind": event.Kind,
		"repository": event.Repository.FullName,
		"issue":      event.Reference(),
		"trace_id":   event.TraceID,
	}
	if event.DeliveryID != "" {
		tags["delivery_id"] = event.DeliveryID
	}
	if event.Repository.ID != 0 {
		tags["repository_id"] = strconv.FormatInt(event.Repository.ID, 10)
	}
	if event.Issue.IsPullRequest {
		tags["pull_request"] = "true"
	}
	return tags
}

// newIssueEvent flattens a parsed go-github payload.
func newIssueEvent(payload *github.IssuesEvent, deliveryID, traceID string) IssueEvent {
	repository := payload.GetRepo()
	issue := payload.GetIssue()
	return IssueEvent{
		Kind:           "issues." + payload.GetAction(),
		DeliveryID:     deliveryID,
		TraceID:        traceID,
		InstallationID: payload.GetInstallation().GetID(),
		Repository: RepositoryRef{
			ID:       repository.GetID(),
			FullName: repository.GetFullName(),
			Owner:    repository.GetOwner().GetLogin(),
			Name:     repository.GetName(),
		},
		Issue: IssueSnapshot{
			Number:        issue.GetNumber(),
			Title:         issue.GetTitle(),
			Body:          issue.GetBody(),
			State:         issue.GetState(),
			IsPullRequest: issue.IsPullRequest(),
		},
	}
}
