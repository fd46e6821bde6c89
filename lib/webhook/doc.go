// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

// Package webhook receives GitHub issue webhooks and runs them through
// registered handlers one at a time.
//
// [Handler] is the HTTP side: it verifies the HMAC-SHA256 signature in
// X-Hub-Signature-256, drops redelivered events, parses "issues"
// payloads with go-github and queues the resulting [IssueEvent].
// Everything else GitHub sends (ping, installation, other event types
// and unregistered actions) is acknowledged with 200 and ignored.
//
// [Dispatcher] owns the queue. A single worker drains it, looking up
// the handler for each event's kind ("issues.opened", "issues.edited")
// and running it under a per-event deadline. Handler failures are
// logged and passed to an errreport.Reporter; the HTTP response has
// already been sent by then.
package webhook
