// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

// Package githubtracker implements the tasklist tracker interfaces on
// top of the GitHub REST client in lib/github.
//
// [Tracker] resolves repositories by full name. Its repository and
// issue handles translate tasklist operations into GitHub API calls and
// map 404 and 410 responses to [tasklist.ErrNotFound]. [Connector]
// turns an inbound webhook event into a [tasklist.Event], choosing the
// client for the event's App installation and fetching the issue fresh
// so the reconciliation sees its current body and state.
package githubtracker
