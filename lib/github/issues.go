// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"context"
	"fmt"
	"strconv"
)

// CreateIssueRequest is the body of POST /repos/{owner}/{repo}/issues.
// Issues are opened with a title only; labels, assignees and
// milestones are left to whoever triages them.
type CreateIssueRequest struct {
	Title string `json:"title"`
}

// UpdateIssueRequest is the body of PATCH /repos/{owner}/{repo}/issues/{n}.
// Nil fields are omitted, so each request is a partial update.
type UpdateIssueRequest struct {
	Body  *string `json:"body,omitempty"`
	State *string `json:"state,omitempty"` // "open" or "closed"
}

// CreateIssue opens a new issue in owner/repo.
func (client *Client) CreateIssue(ctx context.Context, owner, repo string, request CreateIssueRequest) (*Issue, error) {
	var issue Issue
	if err := client.post(ctx, repoPath(owner, repo, "/issues"), request, &issue); err != nil {
		return nil, fmt.Errorf("creating issue in %s/%s: %w", owner, repo, err)
	}
	return &issue, nil
}

// GetIssue fetches issue number from owner/repo.
func (client *Client) GetIssue(ctx context.Context, owner, repo string, number int) (*Issue, error) {
	var issue Issue
	if err := client.get(ctx, repoPath(owner, repo, "/issues/"+strconv.Itoa(number)), &issue); err != nil {
		return nil, fmt.Errorf("getting issue %s/%s#%d: %w", owner, repo, number, err)
	}
	return &issue, nil
}

// UpdateIssue applies a partial update to issue number in owner/repo.
func (client *Client) UpdateIssue(ctx context.Context, owner, repo string, number int, request UpdateIssueRequest) (*Issue, error) {
	var issue Issue
	if err := client.patch(ctx, repoPath(owner, repo, "/issues/"+strconv.Itoa(number)), request, &issue); err != nil {
		return nil, fmt.Errorf("updating issue %s/%s#%d: %w", owner, repo, number, err)
	}
	return &issue, nil
}
