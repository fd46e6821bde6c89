// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"context"
	"fmt"
	"strings"
)

// GetRepository fetches owner/repo. Renamed repositories are followed
// by the HTTP client's redirect handling, so the returned FullName may
// differ from the one requested.
func (client *Client) GetRepository(ctx context.Context, owner, repo string) (*Repository, error) {
	var repository Repository
	if err := client.get(ctx, repoPath(owner, repo, ""), &repository); err != nil {
		return nil, fmt.Errorf("getting repository %s/%s: %w", owner, repo, err)
	}
	return &repository, nil
}

// SplitFullName splits "owner/name" into its parts. ok is false unless
// there is exactly one slash with non-empty text on both sides.
func SplitFullName(fullName string) (owner, name string, ok bool) {
	owner, name, found := strings.Cut(fullName, "/")
	if !found || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", false
	}
	return owner, name, true
}
