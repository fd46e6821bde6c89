// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

// Package github is a small typed client for the parts of the GitHub
// REST API the supervisor touches: repository lookup and issue
// create/get/update.
//
// The client authenticates with a personal access token or as a GitHub
// App installation (RS256 JWT exchanged for short-lived installation
// tokens, rotated before expiry). It tracks X-RateLimit-* headers and
// blocks before a request when the quota is exhausted, retries a
// rate-limited request once after the advertised backoff, sends
// If-None-Match for GETs it has seen before, and maps non-2xx responses
// to *APIError.
//
// Only HTTPS base URLs are accepted.
package github
