// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable Load reads the config path
// from.
const EnvVar = "ISSUE_SUPERVISOR_CONFIG"

// Environment is the deployment type.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Config is the supervisor configuration.
type Config struct {
	Environment Environment `yaml:"environment"`

	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`

	Webhook  WebhookConfig  `yaml:"webhook"`
	GitHub   GitHubConfig   `yaml:"github"`
	Logging  LoggingConfig  `yaml:"logging"`
	Sentry   SentryConfig   `yaml:"sentry"`
	Tasklist TasklistConfig `yaml:"tasklist"`
	Project  ProjectConfig  `yaml:"project"`

	// Per-environment overrides, applied after the base values.
	Development *Overrides `yaml:"development,omitempty"`
	Staging     *Overrides `yaml:"staging,omitempty"`
	Production  *Overrides `yaml:"production,omitempty"`
}

// Overrides holds the fields an environment section may replace.
type Overrides struct {
	Logging *LoggingConfig `yaml:"logging,omitempty"`
	Sentry  *SentryConfig  `yaml:"sentry,omitempty"`
	Webhook *WebhookConfig `yaml:"webhook,omitempty"`
}

// WebhookConfig configures webhook intake.
type WebhookConfig struct {
	// Path is the URL path GitHub delivers to. Default: /webhook
	Path string `yaml:"path"`

	// Secret is the webhook secret, usually "${GITHUB_WEBHOOK_SECRET}".
	// Mutually exclusive with SecretFile.
	Secret string `yaml:"secret"`

	// SecretFile is a file holding the webhook secret.
	SecretFile string `yaml:"secret_file"`

	// QueueSize bounds events waiting for the worker. Default: 64
	QueueSize int `yaml:"queue_size"`

	// EventTimeout bounds processing of one event. Default: 60s
	EventTimeout time.Duration `yaml:"event_timeout"`
}

// GitHubConfig configures GitHub API access. Either a token (Token or
// TokenFile) or App credentials (AppID and PrivateKeyFile) are used.
type GitHubConfig struct {
	// BaseURL defaults to https://api.github.com.
	BaseURL string `yaml:"base_url"`

	Token     string `yaml:"token"`
	TokenFile string `yaml:"token_file"`

	AppID          int64  `yaml:"app_id"`
	PrivateKeyFile string `yaml:"private_key_file"`

	// InstallationID pins every request to one installation. Zero
	// means each event uses the installation it was delivered for.
	InstallationID int64 `yaml:"installation_id"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	// Level is debug, info, warn or error. Default: info
	Level string `yaml:"level"`

	// Format is json or text. Default: text (development), json
	// otherwise.
	Format string `yaml:"format"`
}

// SentryConfig configures error reporting.
type SentryConfig struct {
	// DSN enables Sentry when non-empty. Default: ${SENTRY_DSN}
	DSN string `yaml:"dsn"`

	// TracesSampleRate is in [0, 1]. Default: 1
	TracesSampleRate float64 `yaml:"traces_sample_rate"`
}

// TasklistConfig adjusts tasklist reconciliation.
type TasklistConfig struct {
	// QualifyBareNames retries a repository name that does not resolve
	// under the event repository's owner.
	QualifyBareNames bool `yaml:"qualify_bare_names"`
}

// ProjectConfig configures the add-to-project step.
type ProjectConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the base configuration the file is merged into.
func Default() *Config {
	return &Config{
		Environment: Development,
		Listen:      ":8080",
		Webhook: WebhookConfig{
			Path:         "/webhook",
			QueueSize:    64,
			EventTimeout: 60 * time.Second,
		},
		GitHub: GitHubConfig{
			BaseURL: "https://api.github.com",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Sentry: SentryConfig{
			DSN:              "${SENTRY_DSN}",
			TracesSampleRate: 1,
		},
	}
}

// Load loads the file named by ISSUE_SUPERVISOR_CONFIG.
func Load() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your config file, or use --config", EnvVar)
	}
	return LoadFile(path)
}

// LoadFile loads configuration from path. It does not validate.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if isJSON(path) {
		data = jsonc.ToJSON(data)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()
	return cfg, nil
}

func isJSON(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".json") || strings.HasSuffix(lower, ".jsonc")
}

// applyEnvironmentOverrides merges the section for c.Environment.
// Production without a section of its own logs JSON.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *Overrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		if overrides == nil {
			overrides = &Overrides{Logging: &LoggingConfig{Format: "json"}}
		}
	}
	if overrides == nil {
		return
	}

	if overrides.Logging != nil {
		if overrides.Logging.Level != "" {
			c.Logging.Level = overrides.Logging.Level
		}
		if overrides.Logging.Format != "" {
			c.Logging.Format = overrides.Logging.Format
		}
	}
	if overrides.Sentry != nil {
		if overrides.Sentry.DSN != "" {
			c.Sentry.DSN = overrides.Sentry.DSN
		}
		if overrides.Sentry.TracesSampleRate != 0 {
			c.Sentry.TracesSampleRate = overrides.Sentry.TracesSampleRate
		}
	}
	if overrides.Webhook != nil {
		if overrides.Webhook.QueueSize != 0 {
			c.Webhook.QueueSize = overrides.Webhook.QueueSize
		}
		if overrides.Webhook.EventTimeout != 0 {
			c.Webhook.EventTimeout = overrides.Webhook.EventTimeout
		}
	}
}

// expandVariables expands ${VAR} references in every string value
// that may name a secret or a location.
func (c *Config) expandVariables() {
	for _, field := range []*string{
		&c.Listen,
		&c.Webhook.Path,
		&c.Webhook.Secret,
		&c.Webhook.SecretFile,
		&c.GitHub.BaseURL,
		&c.GitHub.Token,
		&c.GitHub.TokenFile,
		&c.GitHub.PrivateKeyFile,
		&c.Sentry.DSN,
	} {
		*field = expandVars(*field)
	}
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars replaces ${VAR} with the environment value of VAR and
// ${VAR:-default} with default when VAR is unset or empty.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Validate reports every configuration problem joined into one error.
func (c *Config) Validate() error {
	var errs []error

	if !slices.Contains([]Environment{Development, Staging, Production}, c.Environment) {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}
	if c.Listen == "" {
		errs = append(errs, errors.New("listen is required"))
	}

	if !strings.HasPrefix(c.Webhook.Path, "/") {
		errs = append(errs, fmt.Errorf("webhook.path must start with /: %q", c.Webhook.Path))
	}
	switch {
	case c.Webhook.Secret == "" && c.Webhook.SecretFile == "":
		errs = append(errs, errors.New("webhook.secret or webhook.secret_file is required"))
	case c.Webhook.Secret != "" && c.Webhook.SecretFile != "":
		errs = append(errs, errors.New("webhook.secret and webhook.secret_file are mutually exclusive"))
	}
	if c.Webhook.QueueSize <= 0 {
		errs = append(errs, errors.New("webhook.queue_size must be positive"))
	}
	if c.Webhook.EventTimeout <= 0 {
		errs = append(errs, errors.New("webhook.event_timeout must be positive"))
	}

	errs = append(errs, c.GitHub.validate()...)

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level must be one of debug, info, warn, error: %q", c.Logging.Level))
	}
	if !slices.Contains([]string{"json", "text"}, c.Logging.Format) {
		errs = append(errs, fmt.Errorf("logging.format must be json or text: %q", c.Logging.Format))
	}
	if c.Sentry.TracesSampleRate < 0 || c.Sentry.TracesSampleRate > 1 {
		errs = append(errs, fmt.Errorf("sentry.traces_sample_rate must be in [0, 1]: %v", c.Sentry.TracesSampleRate))
	}

	return errors.Join(errs...)
}

func (g GitHubConfig) validate() []error {
	var errs []error
	if !strings.HasPrefix(g.BaseURL, "https://") {
		errs = append(errs, fmt.Errorf("github.base_url must be https: %q", g.BaseURL))
	}

	tokenModes := 0
	for _, value := range []string{g.Token, g.TokenFile} {
		if value != "" {
			tokenModes++
		}
	}
	hasApp := g.AppID != 0 || g.PrivateKeyFile != ""
	switch {
	case tokenModes > 1:
		errs = append(errs, errors.New("github.token and github.token_file are mutually exclusive"))
	case tokenModes == 1 && hasApp:
		errs = append(errs, errors.New("github: configure either a token or App credentials, not both"))
	case tokenModes == 0 && !hasApp:
		errs = append(errs, errors.New("github: a token, token_file or app_id with private_key_file is required"))
	case hasApp && (g.AppID == 0 || g.PrivateKeyFile == ""):
		errs = append(errs, errors.New("github: app_id and private_key_file must be set together"))
	}
	if g.InstallationID != 0 && !hasApp {
		errs = append(errs, errors.New("github.installation_id requires App credentials"))
	}
	return errs
}
