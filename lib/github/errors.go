// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx response from the GitHub REST API.
type APIError struct {
	StatusCode       int
	Message          string
	DocumentationURL string

	// Errors holds field-level failures from 422 responses.
	Errors []ValidationError
}

// ValidationError is one field-level failure in a 422 response.
type ValidationError struct {
	Resource string `json:"resource"`
	Code     string `json:"code"`
	Field    string `json:"field"`
	Message  string `json:"message"`
}

func (err *APIError) Error() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "github: HTTP %d: %s", err.StatusCode, err.Message)
	for _, validation := range err.Errors {
		detail := validation.Message
		if detail == "" {
			detail = validation.Code
		}
		fmt.Fprintf(&builder, "; %s.%s: %s", validation.Resource, validation.Field, detail)
	}
	return builder.String()
}

// IsNotFound reports whether err is a 404 from the API. GitHub also
// answers 404 for private resources the caller cannot see.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsRateLimited reports whether err is a primary (403) or secondary
// (429) rate limit response.
func IsRateLimited(err error) bool {
	var apiError *APIError
	if !errors.As(err, &apiError) {
		return false
	}
	return apiError.StatusCode == http.StatusTooManyRequests ||
		(apiError.StatusCode == http.StatusForbidden && isRateLimitMessage(apiError.Message))
}

// IsValidationFailed reports whether err is a 422 response.
func IsValidationFailed(err error) bool {
	return hasStatus(err, http.StatusUnprocessableEntity)
}

// IsGone reports whether err is a 410, which GitHub returns for issues
// in repositories that have issues disabled or for deleted issues.
func IsGone(err error) bool {
	return hasStatus(err, http.StatusGone)
}

func hasStatus(err error, status int) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.StatusCode == status
}

func isRateLimitMessage(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "rate limit") || strings.Contains(lower, "abuse detection")
}

// parseAPIError builds an APIError from a status and body. Bodies that
// are not GitHub's JSON error shape are kept verbatim as the message.
func parseAPIError(statusCode int, body []byte) *APIError {
	apiError := &APIError{StatusCode: statusCode}

	var wire struct {
		Message          string            `json:"message"`
		DocumentationURL string            `json:"documentation_url"`
		Errors           []ValidationError `json:"errors"`
	}
	if json.Unmarshal(body, &wire) == nil && wire.Message != "" {
		apiError.Message = wire.Message
		apiError.DocumentationURL = wire.DocumentationURL
		apiError.Errors = wire.Errors
	} else {
		apiError.Message = string(body)
	}
	return apiError
}
