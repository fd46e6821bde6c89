// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

package githubtracker

import (
	"context"
	"fmt"

	"github.com/issuesupervisor/issuesupervisor/lib/github"
	"github.com/issuesupervisor/issuesupervisor/lib/tasklist"
)

// Tracker is a tasklist.RepositoryClient backed by one GitHub client.
type Tracker struct {
	client *github.Client
}

// New returns a Tracker that issues every request through client.
func New(client *github.Client) *Tracker {
	return &Tracker{client: client}
}

// GetRepository fetches fullName. Names that are not "owner/name" can
// never exist on GitHub, so they are reported as not found without a
// request.
func (tracker *Tracker) GetRepository(ctx context.Context, fullName string) (tasklist.Repository, error) {
	owner, name, ok := github.SplitFullName(fullName)
	if !ok {
		return nil, fmt.Errorf("repository %q: %w", fullName, tasklist.ErrNotFound)
	}
	data, err := tracker.client.GetRepository(ctx, owner, name)
	if err != nil {
		return nil, translate(err)
	}
	return tracker.repository(data), nil
}

func (tracker *Tracker) repository(data *github.Repository) *repositoryHandle {
	owner, name, ok := github.SplitFullName(data.FullName)
	if !ok {
		owner, name = data.Owner.Login, data.Name
	}
	return &repositoryHandle{
		client: tracker.client,
		owner:  owner,
		name:   name,
	}
}

// translate marks missing and gone resources with tasklist.ErrNotFound
// while keeping the API error reachable through errors.As.
func translate(err error) error {
	if github.IsNotFound(err) || github.IsGone(err) {
		return fmt.Errorf("%w: %w", tasklist.ErrNotFound, err)
	}
	return err
}
