// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

package errreport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithoutDSNIsNop(t *testing.T) {
	reporter, err := New(Config{}, nil)
	require.NoError(t, err)
	assert.Equal(t, Nop(), reporter)

	reporter.Report(context.Background(), errors.New("ignored"), nil)
	assert.True(t, reporter.Flush(time.Millisecond))
}

func TestNewRejectsInvalidDSN(t *testing.T) {
	_, err := New(Config{DSN: "not a dsn"}, nil)
	require.Error(t, err)
}

func TestSentryReportCarriesTags(t *testing.T) {
	var mu sync.Mutex
	var captured []*sentry.Event
	reporter, err := newSentry(sentry.ClientOptions{
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			mu.Lock()
			defer mu.Unlock()
			captured = append(captured, event)
			return nil
		},
	})
	require.NoError(t, err)

	cause := fmt.Errorf("reconciling octo/repo#1: %w", errors.New("boom"))
	reporter.Report(context.Background(), cause, map[string]string{
		"event_kind": "issues.edited",
		"issue":      "octo/repo#1",
	})
	reporter.Report(context.Background(), nil, map[string]string{"ignored": "yes"})
	reporter.Flush(time.Second)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, captured, 1)
	assert.Equal(t, "issues.edited", captured[0].Tags["event_kind"])
	assert.Equal(t, "octo/repo#1", captured[0].Tags["issue"])
	require.NotEmpty(t, captured[0].Exception)
}

func TestSentryReportDoesNotLeakScope(t *testing.T) {
	var mu sync.Mutex
	var captured []*sentry.Event
	reporter, err := newSentry(sentry.ClientOptions{
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			mu.Lock()
			defer mu.Unlock()
			captured = append(captured, event)
			return nil
		},
	})
	require.NoError(t, err)

	reporter.Report(context.Background(), errors.New("first"), map[string]string{"delivery": "a"})
	reporter.Report(context.Background(), errors.New("second"), nil)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, captured, 2)
	assert.NotContains(t, captured[1].Tags, "delivery")
}
