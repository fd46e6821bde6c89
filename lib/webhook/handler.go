// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

package webhook

import (
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/go-github/v72/github"
	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/issuesupervisor/issuesupervisor/lib/clock"
)

// maxBodySize bounds the payload read. GitHub caps webhook payloads at
// 25 MB.
const maxBodySize = 32 * 1024 * 1024

// deduplicationWindow is how long delivery keys are remembered.
// GitHub redelivers within minutes.
const deduplicationWindow = 1 * time.Hour

// Sink accepts parsed events. Dispatcher is the production Sink.
type Sink interface {
	// Handles reports whether events of kind have a handler.
	Handles(kind string) bool

	// Enqueue queues event without blocking. It returns ErrQueueFull
	// when there is no room.
	Enqueue(event IssueEvent) error
}

// HandlerConfig configures a Handler.
type HandlerConfig struct {
	// Secret is the webhook secret configured on the GitHub App or
	// repository webhook. Every delivery's X-Hub-Signature-256 is
	// checked against it. Required.
	Secret []byte

	// Sink receives every verified, new issue event whose kind it
	// handles. Required.
	Sink Sink

	// Clock drives the deduplication window. Defaults to the real
	// clock.
	Clock clock.Clock

	// Logger is required.
	Logger *slog.Logger
}

// Handler is the http.Handler GitHub delivers webhooks to. It does no
// processing itself: a verified delivery becomes an IssueEvent on the
// Sink and the response goes back before any GitHub API call is made.
// Safe for concurrent use.
type Handler struct {
	secret []byte
	sink   Sink
	clock  clock.Clock
	logger *slog.Logger

	// mu guards deliveries, which maps a delivery key to when it was
	// first accepted. Keys older than deduplicationWindow are pruned
	// lazily.
	mu         sync.Mutex
	deliveries map[string]time.Time
}

// NewHandler returns a Handler. It panics if Secret, Sink or Logger is
// missing, since a handler without them would reject or lose every
// delivery.
func NewHandler(config HandlerConfig) *Handler {
	if len(config.Secret) == 0 {
		panic("webhook.Handler: Secret is required")
	}
	if config.Sink == nil {
		panic("webhook.Handler: Sink is required")
	}
	if config.Logger == nil {
		panic("webhook.Handler: Logger is required")
	}
	eventClock := config.Clock
	if eventClock == nil {
		eventClock = clock.Real()
	}
	return &Handler{
		secret:     config.Secret,
		sink:       config.Sink,
		clock:      eventClock,
		logger:     config.Logger,
		deliveries: make(map[string]time.Time),
	}
}

// ServeHTTP verifies, deduplicates, parses and queues one delivery.
// Checks run in order and the first failure decides the response:
//
//	405  method is not POST
//	400  empty body
//	401  X-Hub-Signature-256 missing, not sha256, or not matching
//	400  X-GitHub-Event missing
//	200  event type other than "issues" (ping, installation, ...)
//	400  payload does not parse or lacks the issue or repository
//	200  action without a registered handler
//	200  delivery already accepted within the deduplication window
//	503  queue full; GitHub may redeliver
//	500  any other enqueue failure
//	202  queued
//
// Duplicates answer 200 rather than an error so GitHub records the
// delivery as successful.
func (h *Handler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		http.Error(writer, "", http.StatusMethodNotAllowed)
		return
	}

	// The signature covers the raw bytes, so read them first.
	body, err := io.ReadAll(io.LimitReader(request.Body, maxBodySize))
	if err != nil {
		h.logger.Error("webhook: reading body failed", "error", err)
		http.Error(writer, "", http.StatusInternalServerError)
		return
	}
	if len(body) == 0 {
		http.Error(writer, "", http.StatusBadRequest)
		return
	}

	// ValidateSignature also accepts sha1, which this header never
	// legitimately carries.
	signature := request.Header.Get(github.SHA256SignatureHeader)
	if !strings.HasPrefix(signature, "sha256=") {
		h.logger.Warn("webhook: missing sha256 signature", "remote_addr", request.RemoteAddr)
		http.Error(writer, "", http.StatusUnauthorized)
		return
	}
	if err := github.ValidateSignature(signature, body, h.secret); err != nil {
		h.logger.Warn("webhook: signature verification failed",
			"error", err,
			"remote_addr", request.RemoteAddr,
		)
		http.Error(writer, "", http.StatusUnauthorized)
		return
	}

	eventType := github.WebHookType(request)
	deliveryID := github.DeliveryID(request)
	if eventType == "" {
		h.logger.Warn("webhook: missing X-GitHub-Event header", "delivery_id", deliveryID)
		http.Error(writer, "", http.StatusBadRequest)
		return
	}

	if eventType != "issues" {
		// ping, installation and any event type the app is
		// subscribed to but does not act on.
		h.logger.Debug("webhook: ignoring event type",
			"event_type", eventType,
			"delivery_id", deliveryID,
		)
		writer.WriteHeader(http.StatusOK)
		return
	}

	parsed, err := github.ParseWebHook(eventType, body)
	if err != nil {
		h.logger.Warn("webhook: unparseable payload",
			"event_type", eventType,
			"delivery_id", deliveryID,
			"error", err,
		)
		http.Error(writer, "", http.StatusBadRequest)
		return
	}
	payload, ok := parsed.(*github.IssuesEvent)
	if !ok || payload.GetIssue() == nil || payload.GetRepo() == nil {
		h.logger.Warn("webhook: issues payload without issue or repository",
			"delivery_id", deliveryID,
		)
		http.Error(writer, "", http.StatusBadRequest)
		return
	}

	event := newIssueEvent(payload, deliveryID, uuid.NewString())
	logger := h.logger.With(
		"event_kind", event.Kind,
		"delivery_id", deliveryID,
		"trace_id", event.TraceID,
		"issue", event.Reference(),
	)

	if !h.sink.Handles(event.Kind) {
		logger.Debug("webhook: no handler for event kind")
		writer.WriteHeader(http.StatusOK)
		return
	}

	key := deliveryKey(deliveryID, body)
	if h.seen(key) {
		logger.Info("webhook: duplicate delivery, ignoring")
		// 200 so GitHub stops redelivering.
		writer.WriteHeader(http.StatusOK)
		return
	}

	if err := h.sink.Enqueue(event); err != nil {
		// Forget the key so GitHub's redelivery is accepted.
		h.forget(key)
		if errors.Is(err, ErrQueueFull) {
			logger.Warn("webhook: queue full, asking GitHub to redeliver")
			http.Error(writer, "", http.StatusServiceUnavailable)
			return
		}
		logger.Error("webhook: enqueue failed", "error", err)
		http.Error(writer, "", http.StatusInternalServerError)
		return
	}

	logger.Info("webhook accepted")
	writer.WriteHeader(http.StatusAccepted)
}

// deliveryKey identifies a delivery for deduplication. Deliveries
// without an X-GitHub-Delivery header are keyed by a hash of the
// signed body.
func deliveryKey(deliveryID string, body []byte) string {
	if deliveryID != "" {
		return "id:" + deliveryID
	}
	sum := blake3.Sum256(body)
	return "body:" + hex.EncodeToString(sum[:])
}

// seen records key and reports whether it was already recorded within
// the deduplication window. Expired keys are pruned on every call.
func (h *Handler) seen(key string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.clock.Now()
	for existing, receivedAt := range h.deliveries {
		if now.Sub(receivedAt) > deduplicationWindow {
			delete(h.deliveries, existing)
		}
	}

	if _, exists := h.deliveries[key]; exists {
		return true
	}
	h.deliveries[key] = now
	return false
}

func (h *Handler) forget(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.deliveries, key)
}
