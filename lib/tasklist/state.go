// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

package tasklist

import (
	"context"
	"fmt"
)

// Transition is what SyncState did to an issue.
type Transition int

const (
	// TransitionNone means the state already matched the checkbox.
	TransitionNone Transition = iota

	// TransitionClosed means a checked task closed an open issue.
	TransitionClosed

	// TransitionReopened means an unchecked task reopened a closed
	// issue.
	TransitionReopened
)

func (transition Transition) String() string {
	switch transition {
	case TransitionClosed:
		return "closed"
	case TransitionReopened:
		return "reopened"
	default:
		return "none"
	}
}

// SyncState makes issue's state match its checkbox: a checked task
// closes an open issue, an unchecked task reopens a closed one. Every
// other combination is left alone, so repeated calls are no-ops.
func SyncState(ctx context.Context, checked bool, issue Issue) (Transition, error) {
	var target State
	var transition Transition
	switch state := issue.State(); {
	case checked && state == StateOpen:
		target, transition = StateClosed, TransitionClosed
	case !checked && state == StateClosed:
		target, transition = StateOpen, TransitionReopened
	default:
		return TransitionNone, nil
	}

	if err := issue.EditState(ctx, target); err != nil {
		return TransitionNone, fmt.Errorf("setting %s to %s: %w", Reference(issue), target, err)
	}
	return transition, nil
}
