// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

package github

// User is a GitHub account reference.
type User struct {
	Login string `json:"login"`
}

// Repository is a GitHub repository.
type Repository struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"` // "owner/name"
	Owner    User   `json:"owner"`
}

// Issue is a GitHub issue. Pull requests share the issues API and
// decode into the same shape.
type Issue struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	State  string `json:"state"` // "open" or "closed"
}
