// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/issuesupervisor/issuesupervisor/lib/clock"
)

// authenticator yields the Authorization header for one request.
type authenticator interface {
	AuthorizationHeader(ctx context.Context) (string, error)
}

// Installation tokens live for one hour; rotate five minutes early so
// a token never expires mid-request.
const tokenRotationMargin = 5 * time.Minute

type tokenAuth struct {
	header string
}

func newTokenAuth(token string) *tokenAuth {
	return &tokenAuth{header: "Bearer " + token}
}

func (auth *tokenAuth) AuthorizationHeader(context.Context) (string, error) {
	return auth.header, nil
}

// missingInstallationAuth is used by an App client configured without
// an installation. Requests fail until ForInstallation is used.
type missingInstallationAuth struct{}

func (missingInstallationAuth) AuthorizationHeader(context.Context) (string, error) {
	return "", errors.New("github: App client has no installation; use ForInstallation")
}

// appCredentials is the App identity shared by every installation
// client derived from one parent.
type appCredentials struct {
	appID      int64
	privateKey *rsa.PrivateKey
}

func parseAppCredentials(appID int64, privateKeyPEM []byte) (*appCredentials, error) {
	block, _ := pem.Decode(privateKeyPEM)
	if block == nil {
		return nil, fmt.Errorf("github: failed to decode PEM block from private key")
	}

	privateKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		parsed, pkcs8Err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if pkcs8Err != nil {
			return nil, fmt.Errorf("github: parsing private key: %w (also tried PKCS8: %v)", err, pkcs8Err)
		}
		var ok bool
		if privateKey, ok = parsed.(*rsa.PrivateKey); !ok {
			return nil, fmt.Errorf("github: private key is not RSA")
		}
	}
	return &appCredentials{appID: appID, privateKey: privateKey}, nil
}

// signJWT returns an RS256 JWT identifying the App, valid for ten
// minutes with iat backdated a minute for clock skew.
func (credentials *appCredentials) signJWT(now time.Time) (string, error) {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"RS256","typ":"JWT"}`))

	claims, err := json.Marshal(struct {
		IssuedAt  int64  `json:"iat"`
		ExpiresAt int64  `json:"exp"`
		Issuer    string `json:"iss"`
	}{
		IssuedAt:  now.Add(-time.Minute).Unix(),
		ExpiresAt: now.Add(10 * time.Minute).Unix(),
		Issuer:    strconv.FormatInt(credentials.appID, 10),
	})
	if err != nil {
		return "", fmt.Errorf("marshaling claims: %w", err)
	}

	signingInput := header + "." + base64.RawURLEncoding.EncodeToString(claims)
	digest := sha256.Sum256([]byte(signingInput))
	signature, err := rsa.SignPKCS1v15(rand.Reader, credentials.privateKey, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("signing JWT: %w", err)
	}
	return signingInput + "." + base64.RawURLEncoding.EncodeToString(signature), nil
}

// installationAuth exchanges App JWTs for installation access tokens
// and caches the token until shortly before it expires.
type installationAuth struct {
	credentials    *appCredentials
	installationID int64
	httpClient     *http.Client
	baseURL        string
	clock          clock.Clock

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func (client *Client) newInstallationAuth(installationID int64) *installationAuth {
	return &installationAuth{
		credentials:    client.app,
		installationID: installationID,
		httpClient:     client.httpClient,
		baseURL:        client.baseURL,
		clock:          client.clock,
	}
}

func (auth *installationAuth) AuthorizationHeader(ctx context.Context) (string, error) {
	auth.mu.Lock()
	defer auth.mu.Unlock()

	if auth.token != "" && auth.clock.Now().Before(auth.expiresAt.Add(-tokenRotationMargin)) {
		return "Bearer " + auth.token, nil
	}

	token, expiresAt, err := auth.exchange(ctx)
	if err != nil {
		return "", err
	}
	auth.token = token
	auth.expiresAt = expiresAt
	return "Bearer " + token, nil
}

// exchange trades a fresh JWT for an installation token. Called with
// auth.mu held.
func (auth *installationAuth) exchange(ctx context.Context) (string, time.Time, error) {
	jwt, err := auth.credentials.signJWT(auth.clock.Now())
	if err != nil {
		return "", time.Time{}, fmt.Errorf("github: generating JWT: %w", err)
	}

	target := auth.baseURL + "/app/installations/" + strconv.FormatInt(auth.installationID, 10) + "/access_tokens"
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, target, nil)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("github: creating token exchange request: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+jwt)
	request.Header.Set("Accept", "application/vnd.github+json")
	request.Header.Set("X-GitHub-Api-Version", apiVersion)

	response, err := auth.httpClient.Do(request)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("github: token exchange request: %w", err)
	}
	defer response.Body.Close()

	body, err := readBounded(response.Body)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("github: reading token exchange response: %w", err)
	}
	if response.StatusCode != http.StatusCreated {
		return "", time.Time{}, fmt.Errorf("github: token exchange for installation %d: %w",
			auth.installationID, parseAPIError(response.StatusCode, body))
	}

	var result struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", time.Time{}, fmt.Errorf("github: decoding token exchange response: %w", err)
	}
	if result.Token == "" {
		return "", time.Time{}, fmt.Errorf("github: token exchange returned empty token")
	}
	return result.Token, result.ExpiresAt, nil
}
