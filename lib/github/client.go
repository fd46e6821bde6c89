// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/issuesupervisor/issuesupervisor/lib/clock"
)

const (
	apiVersion     = "2022-11-28"
	defaultBaseURL = "https://api.github.com"

	// maxResponseSize bounds every response body read.
	maxResponseSize int64 = 32 << 20
)

// Config holds configuration for creating a Client.
//
// Exactly one authentication mode must be configured:
//   - App authentication: AppID and PrivateKey. InstallationID may be
//     left zero when the caller derives per-installation clients with
//     ForInstallation.
//   - Token authentication: Token.
type Config struct {
	// BaseURL defaults to https://api.github.com. GitHub Enterprise
	// installs use https://<host>/api/v3.
	BaseURL string

	AppID          int64
	PrivateKey     []byte // PEM, PKCS1 or PKCS8
	InstallationID int64

	Token string

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Clock defaults to clock.Real().
	Clock clock.Clock

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Client is a GitHub REST API client. Safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	auth       authenticator
	app        *appCredentials // nil in token mode
	rateLimit  *rateLimitTracker
	etags      *etagCache
	clock      clock.Clock
	logger     *slog.Logger
}

// NewClient validates config and returns a Client.
func NewClient(config Config) (*Client, error) {
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("github: API client requires HTTPS (got %q)", baseURL)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	hasApp := config.AppID != 0 || len(config.PrivateKey) > 0 || config.InstallationID != 0
	hasToken := config.Token != ""
	switch {
	case hasApp && hasToken:
		return nil, fmt.Errorf("github: cannot configure both App auth and token auth")
	case !hasApp && !hasToken:
		return nil, fmt.Errorf("github: no authentication configured (set AppID+PrivateKey or Token)")
	}

	client := &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		rateLimit:  newRateLimitTracker(clk),
		etags:      newETagCache(etagCacheSize),
		clock:      clk,
		logger:     logger,
	}

	if hasToken {
		client.auth = newTokenAuth(config.Token)
		return client, nil
	}

	if config.AppID == 0 {
		return nil, fmt.Errorf("github: AppID is required for App auth")
	}
	if len(config.PrivateKey) == 0 {
		return nil, fmt.Errorf("github: PrivateKey is required for App auth")
	}
	credentials, err := parseAppCredentials(config.AppID, config.PrivateKey)
	if err != nil {
		return nil, err
	}
	client.app = credentials
	if config.InstallationID != 0 {
		client.auth = client.newInstallationAuth(config.InstallationID)
	} else {
		client.auth = missingInstallationAuth{}
	}
	return client, nil
}

// ForInstallation returns a client that authenticates as the given App
// installation. It shares the parent's transport, key, clock and
// logger but has its own token, rate limit state and ETag cache, since
// GitHub accounts quota per installation. Token-mode clients return
// themselves.
func (client *Client) ForInstallation(installationID int64) (*Client, error) {
	if client.app == nil {
		return client, nil
	}
	if installationID == 0 {
		return nil, fmt.Errorf("github: installation ID is required for App auth")
	}
	return &Client{
		baseURL:    client.baseURL,
		httpClient: client.httpClient,
		auth:       client.newInstallationAuth(installationID),
		app:        client.app,
		rateLimit:  newRateLimitTracker(client.clock),
		etags:      newETagCache(etagCacheSize),
		clock:      client.clock,
		logger:     client.logger.With("installation_id", installationID),
	}, nil
}

// IsApp reports whether the client authenticates as a GitHub App.
func (client *Client) IsApp() bool { return client.app != nil }

// do executes an authenticated request against a path relative to the
// base URL and returns the response body. Non-2xx responses become
// *APIError. A rate-limited response is retried once after the
// advertised backoff.
func (client *Client) do(ctx context.Context, method, path string, requestBody any) ([]byte, error) {
	target := client.baseURL + path

	// The entry is held for the whole call so a 304 can be answered
	// even if the cache evicts it meanwhile.
	var cached etagEntry
	if method == http.MethodGet {
		cached, _ = client.etags.lookup(target)
	}

	for attempt := 0; ; attempt++ {
		status, header, body, err := client.send(ctx, method, target, requestBody, cached.etag)
		if err != nil {
			return nil, err
		}

		if status == http.StatusNotModified && cached.etag != "" {
			return cached.body, nil
		}

		if status >= 200 && status < 300 {
			if method == http.MethodGet {
				client.etags.put(target, header.Get("ETag"), body)
			}
			return body, nil
		}

		rateLimited := status == http.StatusTooManyRequests ||
			(status == http.StatusForbidden && isRateLimitMessage(string(body)))
		if attempt == 0 && rateLimited {
			if backoff := client.rateLimit.retryAfter(header); backoff > 0 {
				client.logger.Info("github rate limited, backing off",
					"duration", backoff,
					"method", method,
					"path", path,
				)
				select {
				case <-client.clock.After(backoff):
					continue
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
		}

		return nil, parseAPIError(status, body)
	}
}

// send performs one HTTP round trip and returns the status, headers and
// bounded body. A non-empty ifNoneMatch makes the request conditional.
func (client *Client) send(ctx context.Context, method, target string, requestBody any, ifNoneMatch string) (int, http.Header, []byte, error) {
	if err := client.rateLimit.wait(ctx); err != nil {
		return 0, nil, nil, err
	}

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return 0, nil, nil, fmt.Errorf("github: encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("github: creating request: %w", err)
	}

	authorization, err := client.auth.AuthorizationHeader(ctx)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("github: authentication: %w", err)
	}
	request.Header.Set("Authorization", authorization)
	request.Header.Set("Accept", "application/vnd.github+json")
	request.Header.Set("X-GitHub-Api-Version", apiVersion)
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if ifNoneMatch != "" {
		request.Header.Set("If-None-Match", ifNoneMatch)
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("github: %s %s: %w", method, target, err)
	}
	defer response.Body.Close()

	client.rateLimit.update(response.Header)

	body, err := readBounded(response.Body)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("github: reading response body: %w", err)
	}
	return response.StatusCode, response.Header, body, nil
}

func (client *Client) get(ctx context.Context, path string, result any) error {
	body, err := client.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, result)
}

func (client *Client) post(ctx context.Context, path string, requestBody, result any) error {
	body, err := client.do(ctx, http.MethodPost, path, requestBody)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, result)
}

func (client *Client) patch(ctx context.Context, path string, requestBody, result any) error {
	body, err := client.do(ctx, http.MethodPatch, path, requestBody)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, result)
}

// repoPath builds /repos/{owner}/{repo}<suffix> with escaped segments.
func repoPath(owner, repo, suffix string) string {
	return "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo) + suffix
}

func readBounded(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, maxResponseSize))
}
