// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Routes builds the service mux: webhook at webhookPath and a JSON
// health check at GET /healthz reporting release. Every request is
// logged.
func Routes(webhookPath string, webhook http.Handler, release string, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(webhookPath, webhook)
	mux.HandleFunc("GET /healthz", func(writer http.ResponseWriter, _ *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		json.NewEncoder(writer).Encode(map[string]string{
			"status":  "ok",
			"version": release,
		})
	})
	return logRequests(mux, logger)
}

// statusRecorder captures the status code written by a handler.
// Handlers that never call WriteHeader answered 200.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (recorder *statusRecorder) WriteHeader(status int) {
	recorder.status = status
	recorder.ResponseWriter.WriteHeader(status)
}

// logRequests logs every request after it completes: at debug level
// normally, at warn level for 5xx responses. Webhook outcomes are
// logged in more detail by the webhook handler itself.
func logRequests(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		started := time.Now()
		recorder := &statusRecorder{ResponseWriter: writer, status: http.StatusOK}
		next.ServeHTTP(recorder, request)
		level := slog.LevelDebug
		if recorder.status >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		logger.Log(request.Context(), level, "http request",
			"method", request.Method,
			"path", request.URL.Path,
			"status", recorder.status,
			"duration", time.Since(started),
			"remote_addr", request.RemoteAddr,
		)
	})
}
