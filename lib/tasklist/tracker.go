// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

package tasklist

import (
	"context"
	"errors"
	"strconv"
)

// State is the open/closed state of an issue. The values match the
// strings GitHub uses in the issues API.
type State string

const (
	// StateOpen is an issue whose task is still to do.
	StateOpen State = "open"

	// StateClosed is an issue whose task is done (or abandoned; the
	// reconciler does not distinguish close reasons).
	StateClosed State = "closed"
)

var (
	// ErrNotFound is wrapped by tracker implementations when a
	// repository or issue does not exist or is not visible.
	ErrNotFound = errors.New("not found")

	// ErrMalformedReference is returned for a "#" token whose issue
	// number is not an integer or whose repository part is not
	// "owner/name".
	ErrMalformedReference = errors.New("malformed issue reference")
)

// RepositoryClient looks up repositories by full name. It is the only
// entry point to repositories other than the one the event came from.
// Implementations must be safe to call sequentially with a shared
// context; the reconciler never calls them concurrently.
type RepositoryClient interface {
	// GetRepository returns the named repository. A missing
	// repository is an error wrapping ErrNotFound.
	GetRepository(ctx context.Context, fullName string) (Repository, error)
}

// Repository is a handle on one tracker repository.
type Repository interface {
	// FullName is "owner/name". References written into issue bodies
	// are built from it.
	FullName() string

	// OwnerLogin is the owner part of FullName, used to qualify bare
	// repository names when that is enabled.
	OwnerLogin() string

	// GetIssue fetches the issue's current state. A missing issue is
	// an error wrapping ErrNotFound.
	GetIssue(ctx context.Context, number int) (Issue, error)

	// CreateIssue opens an issue with the given title and nothing else.
	CreateIssue(ctx context.Context, title string) (Issue, error)
}

// Issue is a handle on one issue. The accessors report the issue as
// the handle last saw it: when it was fetched or created, or after the
// handle's own most recent edit.
type Issue interface {
	Repository() Repository
	Number() int
	Title() string
	Body() string
	State() State

	// EditBody replaces the body. Title, state and every other field
	// are left as they are on the tracker.
	EditBody(ctx context.Context, body string) error

	// EditState opens or closes the issue without touching its body.
	EditState(ctx context.Context, state State) error
}

// Event is the input of one reconciliation: the client to resolve
// other repositories with, the repository the webhook came from and
// the issue that was opened or edited.
type Event struct {
	Client     RepositoryClient
	Repository Repository
	Issue      Issue
}

// Reference renders the canonical "owner/name#number" for issue.
func Reference(issue Issue) string {
	return issue.Repository().FullName() + "#" + strconv.Itoa(issue.Number())
}
