// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"fmt"
	"os"
)

// WebhookSecret returns the inline secret or the contents of
// webhook.secret_file.
func (c *Config) WebhookSecret() ([]byte, error) {
	if c.Webhook.Secret != "" {
		return []byte(c.Webhook.Secret), nil
	}
	return readSecretFile("webhook.secret_file", c.Webhook.SecretFile)
}

// GitHubToken returns the configured token, or "" in App mode.
func (c *Config) GitHubToken() (string, error) {
	if c.GitHub.Token != "" || c.GitHub.TokenFile == "" {
		return c.GitHub.Token, nil
	}
	token, err := readSecretFile("github.token_file", c.GitHub.TokenFile)
	return string(token), err
}

// GitHubPrivateKey returns the App private key PEM, or nil in token
// mode.
func (c *Config) GitHubPrivateKey() ([]byte, error) {
	if c.GitHub.PrivateKeyFile == "" {
		return nil, nil
	}
	key, err := os.ReadFile(c.GitHub.PrivateKeyFile)
	if err != nil {
		return nil, fmt.Errorf("reading github.private_key_file: %w", err)
	}
	return key, nil
}

// readSecretFile reads a secret and trims surrounding whitespace, so
// files written with a trailing newline work.
func readSecretFile(field, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", field, err)
	}
	secret := bytes.TrimSpace(data)
	if len(secret) == 0 {
		return nil, fmt.Errorf("%s %s is empty", field, path)
	}
	return secret, nil
}
