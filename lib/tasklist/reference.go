// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

package tasklist

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// ResolveReference fetches the issue a "#" token points at. Tokens
// without "#" are not references: ok is false and nothing is looked up.
//
// The token is split at the first "#". An empty repository part means
// repository; otherwise it must be an exact "owner/name" and is looked
// up with no fallback. Lookup failures, including a missing repository
// or issue, are returned as errors.
func ResolveReference(ctx context.Context, client RepositoryClient, repository Repository, token string) (Issue, bool, error) {
	repositoryName, numberText, found := strings.Cut(token, "#")
	if !found {
		return nil, false, nil
	}

	number, err := strconv.Atoi(strings.TrimSpace(numberText))
	if err != nil {
		return nil, false, fmt.Errorf("%w %q: issue number %q is not an integer",
			ErrMalformedReference, token, numberText)
	}

	target := repository
	if repositoryName != "" {
		if !isFullName(repositoryName) {
			return nil, false, fmt.Errorf("%w %q: repository %q is not owner/name",
				ErrMalformedReference, token, repositoryName)
		}
		target, err = client.GetRepository(ctx, repositoryName)
		if err != nil {
			return nil, false, fmt.Errorf("resolving repository for %q: %w", token, err)
		}
	}

	issue, err := target.GetIssue(ctx, number)
	if err != nil {
		return nil, false, fmt.Errorf("fetching %s#%d: %w", target.FullName(), number, err)
	}
	return issue, true, nil
}

// isFullName reports whether name is exactly "owner/name" with no
// whitespace.
func isFullName(name string) bool {
	owner, repo, found := strings.Cut(name, "/")
	return found && owner != "" && repo != "" &&
		!strings.Contains(repo, "/") && !strings.ContainsAny(name, " \t")
}
