// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

// Package logging builds the process logger from configuration.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Config selects the handler.
type Config struct {
	// Level is debug, info, warn or error.
	Level string

	// Format is json or text.
	Format string

	// Attrs are attached to every record, e.g. the environment.
	Attrs []slog.Attr
}

// New returns a logger writing to w. An empty level means info and an
// empty format means json.
func New(w io.Writer, config Config) (*slog.Logger, error) {
	var level slog.Level
	if config.Level != "" {
		if err := level.UnmarshalText([]byte(config.Level)); err != nil {
			return nil, fmt.Errorf("logging level %q: %w", config.Level, err)
		}
	}
	options := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(config.Format) {
	case "", "json":
		handler = slog.NewJSONHandler(w, options)
	case "text":
		handler = slog.NewTextHandler(w, options)
	default:
		return nil, fmt.Errorf("logging format %q: want json or text", config.Format)
	}
	if len(config.Attrs) > 0 {
		handler = handler.WithAttrs(config.Attrs)
	}
	return slog.New(handler), nil
}
