// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

// Issue-supervisor is a GitHub webhook service that keeps issue
// tasklists in sync with the issues they reference.
//
// When an issue is opened or edited, every "- [ ] ..." line of its
// body is examined. A line naming an existing issue ("#12" or
// "owner/repo#12") closes or reopens that issue to match the checkbox.
// Any other line becomes a new issue, and the line is rewritten to
// reference it.
//
// Usage:
//
//	issue-supervisor [--config path] [--env-file path] [--listen addr] [--version]
//
// The config path may also come from ISSUE_SUPERVISOR_CONFIG. A .env
// file in the working directory, or the one named by --env-file, is
// loaded into the environment first so the config file can reference
// its values as ${VAR}.
package main
