// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/issuesupervisor/issuesupervisor/lib/clock"
)

const testSecret = "test-secret-for-hmac"

func signPayload(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// recordingSink accepts the kinds it was built with and records every
// queued event.
type recordingSink struct {
	kinds map[string]bool

	mu     sync.Mutex
	events []IssueEvent
	err    error
}

func newRecordingSink(kinds ...string) *recordingSink {
	sink := &recordingSink{kinds: make(map[string]bool)}
	for _, kind := range kinds {
		sink.kinds[kind] = true
	}
	return sink
}

func (sink *recordingSink) Handles(kind string) bool { return sink.kinds[kind] }

func (sink *recordingSink) Enqueue(event IssueEvent) error {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.err != nil {
		return sink.err
	}
	sink.events = append(sink.events, event)
	return nil
}

func (sink *recordingSink) setErr(err error) {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	sink.err = err
}

func (sink *recordingSink) queued() []IssueEvent {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	return append([]IssueEvent(nil), sink.events...)
}

type handlerFixture struct {
	handler *Handler
	sink    *recordingSink
	clock   *clock.FakeClock
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	sink := newRecordingSink(KindIssueOpened, KindIssueEdited)
	fakeClock := clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	handler := NewHandler(HandlerConfig{
		Secret: []byte(testSecret),
		Sink:   sink,
		Clock:  fakeClock,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return &handlerFixture{handler: handler, sink: sink, clock: fakeClock}
}

// deliver signs body, posts it with the given event type and delivery
// ID (either may be empty) and returns the status code.
func (fixture *handlerFixture) deliver(eventType, deliveryID string, body []byte) int {
	request := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(string(body)))
	request.Header.Set("X-Hub-Signature-256", signPayload([]byte(testSecret), body))
	if eventType != "" {
		request.Header.Set("X-GitHub-Event", eventType)
	}
	if deliveryID != "" {
		request.Header.Set("X-GitHub-Delivery", deliveryID)
	}
	recorder := httptest.NewRecorder()
	fixture.handler.ServeHTTP(recorder, request)
	return recorder.Code
}

func issuesPayload(t *testing.T, action string, pullRequest bool) []byte {
	t.Helper()
	issue := map[string]any{
		"number": 7,
		"title":  "Epic",
		"body":   "- [ ] octo/repo#8",
		"state":  "open",
	}
	if pullRequest {
		issue["pull_request"] = map[string]any{"url": "https://api.github.com/repos/octo/repo/pulls/7"}
	}
	body, err := json.Marshal(map[string]any{
		"action": action,
		"issue":  issue,
		"repository": map[string]any{
			"id":        1296269,
			"name":      "repo",
			"full_name": "octo/repo",
			"owner":     map[string]any{"login": "octo"},
		},
		"installation": map[string]any{"id": 4242},
	})
	require.NoError(t, err)
	return body
}

func TestHandlerRejectsNonPOST(t *testing.T) {
	fixture := newHandlerFixture(t)
	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			fixture.handler.ServeHTTP(recorder, httptest.NewRequest(method, "/webhook", nil))
			assert.Equal(t, http.StatusMethodNotAllowed, recorder.Code)
		})
	}
}

func TestHandlerRejectsEmptyBody(t *testing.T) {
	fixture := newHandlerFixture(t)
	request := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(""))
	request.Header.Set("X-Hub-Signature-256", "sha256=irrelevant")
	recorder := httptest.NewRecorder()
	fixture.handler.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestHandlerRejectsBadSignatures(t *testing.T) {
	fixture := newHandlerFixture(t)
	body := issuesPayload(t, "opened", false)

	digest := hmac.New(sha256.New, []byte(testSecret))
	digest.Write(body)

	tests := map[string]string{
		"missing":      "",
		"wrong digest": "sha256=" + strings.Repeat("ab", 32),
		"not hex":      "sha256=zz",
		"wrong secret": signPayload([]byte("other-secret"), body),
		"sha1 prefix":  "sha1=" + hex.EncodeToString(digest.Sum(nil)),
	}
	for name, signature := range tests {
		t.Run(name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(string(body)))
			if signature != "" {
				request.Header.Set("X-Hub-Signature-256", signature)
			}
			request.Header.Set("X-GitHub-Event", "issues")
			recorder := httptest.NewRecorder()
			fixture.handler.ServeHTTP(recorder, request)
			assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		})
	}
	assert.Empty(t, fixture.sink.queued())
}

func TestHandlerRejectsMissingEventType(t *testing.T) {
	fixture := newHandlerFixture(t)
	assert.Equal(t, http.StatusBadRequest, fixture.deliver("", "d-1", issuesPayload(t, "opened", false)))
}

func TestHandlerRejectsUnparseablePayloads(t *testing.T) {
	fixture := newHandlerFixture(t)
	assert.Equal(t, http.StatusBadRequest, fixture.deliver("issues", "d-1", []byte("{not json")))
	assert.Equal(t, http.StatusBadRequest, fixture.deliver("issues", "d-2", []byte(`{"action":"opened"}`)))
	assert.Empty(t, fixture.sink.queued())
}

func TestHandlerQueuesIssueEvent(t *testing.T) {
	fixture := newHandlerFixture(t)

	status := fixture.deliver("issues", "delivery-1", issuesPayload(t, "edited", false))
	require.Equal(t, http.StatusAccepted, status)

	queued := fixture.sink.queued()
	require.Len(t, queued, 1)
	event := queued[0]
	assert.Equal(t, KindIssueEdited, event.Kind)
	assert.Equal(t, "delivery-1", event.DeliveryID)
	assert.NotEmpty(t, event.TraceID)
	assert.Equal(t, int64(4242), event.InstallationID)
	assert.Equal(t, RepositoryRef{ID: 1296269, FullName: "octo/repo", Owner: "octo", Name: "repo"}, event.Repository)
	assert.Equal(t, IssueSnapshot{Number: 7, Title: "Epic", Body: "- [ ] octo/repo#8", State: "open"}, event.Issue)
	assert.Equal(t, "octo/repo#7", event.Reference())
}

func TestHandlerMarksPullRequests(t *testing.T) {
	fixture := newHandlerFixture(t)
	require.Equal(t, http.StatusAccepted, fixture.deliver("issues", "d-pr", issuesPayload(t, "opened", true)))
	queued := fixture.sink.queued()
	require.Len(t, queued, 1)
	assert.True(t, queued[0].Issue.IsPullRequest)
}

func TestHandlerIgnoresOtherEvents(t *testing.T) {
	fixture := newHandlerFixture(t)

	ping := []byte(`{"zen":"Responsive is better than fast."}`)
	assert.Equal(t, http.StatusOK, fixture.deliver("ping", "d-ping", ping))
	assert.Equal(t, http.StatusOK, fixture.deliver("push", "d-push", []byte(`{"ref":"refs/heads/main"}`)))
	assert.Equal(t, http.StatusOK, fixture.deliver("issues", "d-closed", issuesPayload(t, "closed", false)))
	assert.Empty(t, fixture.sink.queued())
}

func TestHandlerDeduplicatesDeliveries(t *testing.T) {
	fixture := newHandlerFixture(t)
	body := issuesPayload(t, "opened", false)

	require.Equal(t, http.StatusAccepted, fixture.deliver("issues", "delivery-abc", body))
	assert.Equal(t, http.StatusOK, fixture.deliver("issues", "delivery-abc", body))
	assert.Len(t, fixture.sink.queued(), 1)

	// A different delivery of the same payload is a new event.
	assert.Equal(t, http.StatusAccepted, fixture.deliver("issues", "delivery-def", body))
	assert.Len(t, fixture.sink.queued(), 2)
}

func TestHandlerDeduplicatesByBodyWithoutDeliveryID(t *testing.T) {
	fixture := newHandlerFixture(t)

	require.Equal(t, http.StatusAccepted, fixture.deliver("issues", "", issuesPayload(t, "opened", false)))
	assert.Equal(t, http.StatusOK, fixture.deliver("issues", "", issuesPayload(t, "opened", false)))
	assert.Equal(t, http.StatusAccepted, fixture.deliver("issues", "", issuesPayload(t, "edited", false)))
	assert.Len(t, fixture.sink.queued(), 2)
}

func TestHandlerDeduplicationWindowExpires(t *testing.T) {
	fixture := newHandlerFixture(t)
	body := issuesPayload(t, "opened", false)

	require.Equal(t, http.StatusAccepted, fixture.deliver("issues", "delivery-abc", body))
	fixture.clock.Advance(deduplicationWindow - time.Minute)
	assert.Equal(t, http.StatusOK, fixture.deliver("issues", "delivery-abc", body))

	fixture.clock.Advance(2 * time.Minute)
	assert.Equal(t, http.StatusAccepted, fixture.deliver("issues", "delivery-abc", body))
	assert.Len(t, fixture.sink.queued(), 2)
}

func TestHandlerQueueFullAllowsRedelivery(t *testing.T) {
	fixture := newHandlerFixture(t)
	body := issuesPayload(t, "edited", false)

	fixture.sink.setErr(ErrQueueFull)
	assert.Equal(t, http.StatusServiceUnavailable, fixture.deliver("issues", "delivery-busy", body))

	fixture.sink.setErr(nil)
	assert.Equal(t, http.StatusAccepted, fixture.deliver("issues", "delivery-busy", body))
	assert.Len(t, fixture.sink.queued(), 1)
}

func TestHandlerEnqueueFailure(t *testing.T) {
	fixture := newHandlerFixture(t)
	fixture.sink.setErr(errors.New("closed"))
	assert.Equal(t, http.StatusInternalServerError,
		fixture.deliver("issues", "delivery-x", issuesPayload(t, "opened", false)))
}

func TestNewHandlerPanics(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sink := newRecordingSink()
	tests := map[string]HandlerConfig{
		"no secret": {Sink: sink, Logger: logger},
		"no sink":   {Secret: []byte("s"), Logger: logger},
		"no logger": {Secret: []byte("s"), Sink: sink},
	}
	for name, config := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Panics(t, func() { NewHandler(config) })
		})
	}
}
