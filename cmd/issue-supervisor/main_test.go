// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/issuesupervisor/issuesupervisor/lib/config"
)

func TestParseFlags(t *testing.T) {
	opts, help, err := parseFlags([]string{"--config", "/etc/supervisor.yaml", "--listen", ":9999", "--env-file", "prod.env"})
	require.NoError(t, err)
	assert.False(t, help)
	assert.Equal(t, options{configPath: "/etc/supervisor.yaml", envFile: "prod.env", listen: ":9999"}, opts)

	opts, _, err = parseFlags([]string{"--version"})
	require.NoError(t, err)
	assert.True(t, opts.showVersion)

	_, help, err = parseFlags([]string{"--help"})
	require.NoError(t, err)
	assert.True(t, help)

	_, _, err = parseFlags([]string{"--no-such-flag"})
	assert.Error(t, err)

	_, _, err = parseFlags([]string{"serve"})
	assert.ErrorContains(t, err, "unexpected argument")
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadEnvFileFeedsConfigExpansion(t *testing.T) {
	dir := t.TempDir()
	envFile := writeFile(t, dir, "test.env", "SUPERVISOR_TEST_SECRET=from-dotenv\nSUPERVISOR_TEST_TOKEN=ghp_dotenv\n")
	configPath := writeFile(t, dir, "supervisor.yaml", `
webhook:
  secret: ${SUPERVISOR_TEST_SECRET}
github:
  token: ${SUPERVISOR_TEST_TOKEN}
`)
	t.Setenv("SUPERVISOR_TEST_SECRET", "")
	t.Setenv("SUPERVISOR_TEST_TOKEN", "")
	os.Unsetenv("SUPERVISOR_TEST_SECRET")
	os.Unsetenv("SUPERVISOR_TEST_TOKEN")

	require.NoError(t, loadEnvFile(envFile))
	cfg, err := loadConfig(options{configPath: configPath, listen: "127.0.0.1:0"})
	require.NoError(t, err)

	assert.Equal(t, "from-dotenv", cfg.Webhook.Secret)
	assert.Equal(t, "ghp_dotenv", cfg.GitHub.Token)
	assert.Equal(t, "127.0.0.1:0", cfg.Listen)
}

func TestLoadEnvFileMissing(t *testing.T) {
	assert.Error(t, loadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	configPath := writeFile(t, t.TempDir(), "supervisor.yaml", "listen: \":8080\"\n")
	_, err := loadConfig(options{configPath: configPath})
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestNewGitHubClient(t *testing.T) {
	t.Run("token", func(t *testing.T) {
		cfg := config.Default()
		cfg.GitHub.Token = "ghp_example"
		client, err := newGitHubClient(cfg, nil)
		require.NoError(t, err)
		assert.False(t, client.IsApp())
	})

	t.Run("app", func(t *testing.T) {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		keyPath := writeFile(t, t.TempDir(), "app.pem", string(pem.EncodeToMemory(&pem.Block{
			Type:  "RSA PRIVATE KEY",
			Bytes: x509.MarshalPKCS1PrivateKey(key),
		})))

		cfg := config.Default()
		cfg.GitHub.AppID = 1234
		cfg.GitHub.PrivateKeyFile = keyPath
		client, err := newGitHubClient(cfg, nil)
		require.NoError(t, err)
		assert.True(t, client.IsApp())
	})

	t.Run("missing token file", func(t *testing.T) {
		cfg := config.Default()
		cfg.GitHub.TokenFile = filepath.Join(t.TempDir(), "missing")
		_, err := newGitHubClient(cfg, nil)
		assert.Error(t, err)
	})
}
