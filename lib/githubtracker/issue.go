// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

package githubtracker

import (
	"context"

	"github.com/issuesupervisor/issuesupervisor/lib/github"
	"github.com/issuesupervisor/issuesupervisor/lib/tasklist"
)

// issueHandle is a tasklist.Issue handle. data is the last representation
// GitHub returned; edits replace it with the PATCH response.
type issueHandle struct {
	repository *repositoryHandle
	data       github.Issue
}

func (issue *issueHandle) Repository() tasklist.Repository { return issue.repository }
func (issue *issueHandle) Number() int                     { return issue.data.Number }
func (issue *issueHandle) Title() string                   { return issue.data.Title }
func (issue *issueHandle) Body() string                    { return issue.data.Body }
func (issue *issueHandle) State() tasklist.State           { return tasklist.State(issue.data.State) }

// EditBody replaces the body and nothing else.
func (issue *issueHandle) EditBody(ctx context.Context, body string) error {
	return issue.update(ctx, github.UpdateIssueRequest{Body: &body})
}

// EditState opens or closes the issue and nothing else.
func (issue *issueHandle) EditState(ctx context.Context, state tasklist.State) error {
	value := string(state)
	return issue.update(ctx, github.UpdateIssueRequest{State: &value})
}

func (issue *issueHandle) update(ctx context.Context, request github.UpdateIssueRequest) error {
	repository := issue.repository
	data, err := repository.client.UpdateIssue(ctx, repository.owner, repository.name, issue.data.Number, request)
	if err != nil {
		return translate(err)
	}
	issue.data = *data
	return nil
}
