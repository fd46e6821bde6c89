// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

package tasklist

import (
	"context"
	"errors"
)

// ResolveRepository looks up name, which may be bare or "owner/name".
// When the direct lookup finds nothing and ownerLogin is set, it tries
// "<ownerLogin>/<name>" once. A repository that cannot be found either
// way gives ok=false with a nil error; any other lookup failure is
// returned.
func ResolveRepository(ctx context.Context, client RepositoryClient, name, ownerLogin string) (Repository, bool, error) {
	candidates := []string{name}
	if ownerLogin != "" {
		candidates = append(candidates, ownerLogin+"/"+name)
	}

	for _, candidate := range candidates {
		repository, err := client.GetRepository(ctx, candidate)
		if err == nil {
			return repository, true, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, false, err
		}
	}
	return nil, false, nil
}
