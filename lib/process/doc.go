// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds entrypoint helpers for the supervisor binary:
// reporting an error that happened before the structured logger
// existed, and exiting.
package process
