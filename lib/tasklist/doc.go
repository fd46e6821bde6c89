// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

// Package tasklist reconciles the checkbox tasklist in an issue body
// with the issues it points at.
//
// A tasklist line has the form
//
//	- [x] <token>
//
// where the mark is "x" for a checked task and any other single
// character for an unchecked one. The token takes one of three shapes:
//
//	owner/repo#12          an existing issue in another repository
//	#12                    an existing issue in this repository
//	[repo] Some title      an issue to create in repo titled "Some title"
//	repo-or-title          an issue to create in repo (reusing the parent
//	                       issue's title) if repo resolves, otherwise an
//	                       issue titled repo-or-title in this repository
//
// Reconciler.Reconcile walks the tasks in line order. Tokens that
// reference an existing issue drive that issue's state: a checked box
// closes it, an unchecked box reopens it. Every other token creates an
// issue and is replaced in the body by the new issue's reference. The
// body is written back once, at the end, and only if it changed. Since
// the rewritten body consists of references, reprocessing it (the edit
// fires another "edited" webhook) only synchronizes state.
//
// The package talks to the tracker through the RepositoryClient,
// Repository and Issue interfaces; package githubtracker provides the
// GitHub implementation.
package tasklist
