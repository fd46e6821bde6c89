// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateIssue(t *testing.T) {
	var receivedBody map[string]any
	var receivedPath, receivedMethod string

	server := httptest.NewTLSServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		receivedPath = request.URL.Path
		receivedMethod = request.Method
		json.NewDecoder(request.Body).Decode(&receivedBody)
		writer.WriteHeader(http.StatusCreated)
		json.NewEncoder(writer).Encode(Issue{Number: 42, Title: "Test Issue", State: "open"})
	}))
	defer server.Close()

	client := newTestClient(t, server)
	issue, err := client.CreateIssue(context.Background(), "owner", "repo", CreateIssueRequest{Title: "Test Issue"})
	if err != nil {
		t.Fatalf("CreateIssue: %v", err)
	}

	if receivedMethod != http.MethodPost {
		t.Errorf("method = %s, want POST", receivedMethod)
	}
	if receivedPath != "/repos/owner/repo/issues" {
		t.Errorf("path = %s, want /repos/owner/repo/issues", receivedPath)
	}
	if len(receivedBody) != 1 || receivedBody["title"] != "Test Issue" {
		t.Errorf("request body = %v, want only the title", receivedBody)
	}
	if issue.Number != 42 {
		t.Errorf("issue.Number = %d, want 42", issue.Number)
	}
}

func TestGetIssue(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/repos/owner/repo/issues/7" {
			t.Errorf("unexpected path: %s", request.URL.Path)
		}
		json.NewEncoder(writer).Encode(Issue{Number: 7, Title: "Fix bug", State: "closed"})
	}))
	defer server.Close()

	client := newTestClient(t, server)
	issue, err := client.GetIssue(context.Background(), "owner", "repo", 7)
	if err != nil {
		t.Fatalf("GetIssue: %v", err)
	}
	if issue.State != "closed" {
		t.Errorf("State = %q, want closed", issue.State)
	}
}

func TestUpdateIssueSendsOnlySetFields(t *testing.T) {
	var rawBody string
	server := httptest.NewTLSServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.Method != http.MethodPatch {
			t.Errorf("method = %s, want PATCH", request.Method)
		}
		data, _ := io.ReadAll(request.Body)
		rawBody = string(data)
		json.NewEncoder(writer).Encode(Issue{Number: 3, State: "closed"})
	}))
	defer server.Close()

	client := newTestClient(t, server)
	state := "closed"
	if _, err := client.UpdateIssue(context.Background(), "owner", "repo", 3, UpdateIssueRequest{State: &state}); err != nil {
		t.Fatalf("UpdateIssue: %v", err)
	}
	if rawBody != `{"state":"closed"}` {
		t.Errorf("request body = %s, want {\"state\":\"closed\"}", rawBody)
	}
}
