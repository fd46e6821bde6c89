// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

package githubtracker

import (
	"context"

	"github.com/issuesupervisor/issuesupervisor/lib/github"
	"github.com/issuesupervisor/issuesupervisor/lib/tasklist"
)

// repositoryHandle is a tasklist.Repository handle on owner/name.
type repositoryHandle struct {
	client *github.Client
	owner  string
	name   string
}

func (repository *repositoryHandle) FullName() string   { return repository.owner + "/" + repository.name }
func (repository *repositoryHandle) OwnerLogin() string { return repository.owner }

// GetIssue fetches the issue. Pull requests share the issue number
// space and come back as issues too.
func (repository *repositoryHandle) GetIssue(ctx context.Context, number int) (tasklist.Issue, error) {
	data, err := repository.client.GetIssue(ctx, repository.owner, repository.name, number)
	if err != nil {
		return nil, translate(err)
	}
	return &issueHandle{repository: repository, data: *data}, nil
}

// CreateIssue opens an issue carrying only a title.
func (repository *repositoryHandle) CreateIssue(ctx context.Context, title string) (tasklist.Issue, error) {
	data, err := repository.client.CreateIssue(ctx, repository.owner, repository.name,
		github.CreateIssueRequest{Title: title})
	if err != nil {
		return nil, translate(err)
	}
	return &issueHandle{repository: repository, data: *data}, nil
}
