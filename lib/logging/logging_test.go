// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buffer bytes.Buffer
	logger, err := New(&buffer, Config{
		Level:  "info",
		Format: "json",
		Attrs:  []slog.Attr{slog.String("environment", "staging")},
	})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("event processed", "issue", "octo/repo#1")

	lines := strings.Split(strings.TrimSpace(buffer.String()), "\n")
	require.Len(t, lines, 1)
	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &record))
	assert.Equal(t, "event processed", record["msg"])
	assert.Equal(t, "octo/repo#1", record["issue"])
	assert.Equal(t, "staging", record["environment"])
}

func TestNewTextDebug(t *testing.T) {
	var buffer bytes.Buffer
	logger, err := New(&buffer, Config{Level: "debug", Format: "text"})
	require.NoError(t, err)

	logger.Debug("skipping empty task")
	assert.Contains(t, buffer.String(), "level=DEBUG")
	assert.Contains(t, buffer.String(), `msg="skipping empty task"`)
}

func TestNewDefaults(t *testing.T) {
	var buffer bytes.Buffer
	logger, err := New(&buffer, Config{})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buffer.String(), "hidden")
	assert.True(t, json.Valid(bytes.TrimSpace(buffer.Bytes())))
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(&bytes.Buffer{}, Config{Level: "loud"})
	assert.Error(t, err)
	_, err = New(&bytes.Buffer{}, Config{Format: "xml"})
	assert.Error(t, err)
}
