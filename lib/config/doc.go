// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the issue supervisor's configuration.
//
// Configuration comes from a single file named by the --config flag
// (via [LoadFile]) or the ISSUE_SUPERVISOR_CONFIG environment variable
// (via [Load]). There is no discovery and no fallback search path.
// Files ending in .json or .jsonc are accepted as JSON with comments
// and trailing commas; everything else is parsed as YAML.
//
// Loading applies [Default], then the file, then the section for the
// selected environment (development, staging, production), then
// expands ${VAR} and ${VAR:-default} in string values from the process
// environment. Secrets are normally given as files (webhook.secret_file,
// github.token_file, github.private_key_file) or as inline ${VAR}
// references.
//
// Key exports:
//
//   - [Config] -- the whole configuration
//   - [Default] -- development defaults
//   - [Load] and [LoadFile] -- the entry points
//   - [Config.Validate] -- reports every problem at once
package config
