// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts the time source so that components with
// time-dependent behavior (GitHub rate limit waits, webhook delivery
// deduplication windows) can be driven deterministically in tests.
//
// Production code uses Real. Tests use Fake and move time forward
// explicitly with Advance.
package clock
