// Copyright 2026 The Issue Supervisor Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/issuesupervisor/issuesupervisor/lib/config"
	"github.com/issuesupervisor/issuesupervisor/lib/errreport"
	"github.com/issuesupervisor/issuesupervisor/lib/github"
	"github.com/issuesupervisor/issuesupervisor/lib/githubtracker"
	"github.com/issuesupervisor/issuesupervisor/lib/logging"
	"github.com/issuesupervisor/issuesupervisor/lib/process"
	"github.com/issuesupervisor/issuesupervisor/lib/server"
	"github.com/issuesupervisor/issuesupervisor/lib/supervisor"
	"github.com/issuesupervisor/issuesupervisor/lib/tasklist"
	"github.com/issuesupervisor/issuesupervisor/lib/version"
	"github.com/issuesupervisor/issuesupervisor/lib/webhook"
)

const binaryName = "issue-supervisor"

func main() {
	if err := run(os.Args[1:]); err != nil {
		process.Fatal(err)
	}
}

type options struct {
	configPath  string
	envFile     string
	listen      string
	showVersion bool
}

// parseFlags parses args. help is true when usage was printed and the
// process should exit successfully.
func parseFlags(args []string) (opts options, help bool, err error) {
	flagSet := pflag.NewFlagSet(binaryName, pflag.ContinueOnError)
	flagSet.StringVar(&opts.configPath, "config", "", "path to the config file (default: $"+config.EnvVar+")")
	flagSet.StringVar(&opts.envFile, "env-file", "", "load environment variables from this file (default: .env if present)")
	flagSet.StringVar(&opts.listen, "listen", "", "HTTP listen address, overrides the config file")
	flagSet.BoolVar(&opts.showVersion, "version", false, "print version information and exit")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return opts, true, nil
		}
		return opts, false, err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return opts, false, fmt.Errorf("unexpected argument: %s", rest[0])
	}
	return opts, false, nil
}

func run(args []string) error {
	opts, help, err := parseFlags(args)
	if err != nil || help {
		return err
	}
	if opts.showVersion {
		version.Print(os.Stdout, binaryName)
		return nil
	}

	if err := loadEnvFile(opts.envFile); err != nil {
		return err
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger, err := logging.New(os.Stderr, logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Attrs: []slog.Attr{
			slog.String("service", binaryName),
			slog.String("environment", string(cfg.Environment)),
		},
	})
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	reporter, err := errreport.New(errreport.Config{
		DSN:              cfg.Sentry.DSN,
		Environment:      string(cfg.Environment),
		Release:          version.Release(),
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
	}, logger)
	if err != nil {
		return err
	}
	defer reporter.Flush(2 * time.Second)

	secret, err := cfg.WebhookSecret()
	if err != nil {
		return err
	}
	client, err := newGitHubClient(cfg, logger)
	if err != nil {
		return err
	}

	dispatcher := webhook.NewDispatcher(webhook.DispatcherConfig{
		QueueSize:    cfg.Webhook.QueueSize,
		EventTimeout: cfg.Webhook.EventTimeout,
		Reporter:     reporter,
		Logger:       logger,
	})
	supervisor.New(supervisor.Config{
		Binder: githubtracker.NewConnector(client, logger),
		Reconciler: tasklist.NewReconciler(tasklist.Options{
			QualifyWithOwner: cfg.Tasklist.QualifyBareNames,
		}, logger),
		AddToProject: cfg.Project.Enabled,
		Logger:       logger,
	}).Register(dispatcher)

	handler := webhook.NewHandler(webhook.HandlerConfig{
		Secret: secret,
		Sink:   dispatcher,
		Logger: logger,
	})
	httpServer := server.New(server.Config{
		Address: cfg.Listen,
		Handler: server.Routes(cfg.Webhook.Path, handler, version.Release(), logger),
		Logger:  logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dispatcherDone := make(chan error, 1)
	go func() {
		dispatcherDone <- dispatcher.Run(ctx)
	}()

	logger.Info("issue supervisor starting",
		"version", version.Info(),
		"listen", cfg.Listen,
		"webhook_path", cfg.Webhook.Path,
		"github_app", client.IsApp(),
		"add_to_project", cfg.Project.Enabled,
	)

	serveErr := httpServer.Serve(ctx)
	// Serve only returns early on a listener failure; stop the
	// dispatcher either way before exiting.
	stop()
	<-dispatcherDone
	logger.Info("shut down")
	return serveErr
}

// loadEnvFile loads path into the environment, or ./.env when path is
// empty and the file exists. Variables already set are kept.
func loadEnvFile(path string) error {
	if path == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

func loadConfig(opts options) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if opts.configPath != "" {
		cfg, err = config.LoadFile(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if opts.listen != "" {
		cfg.Listen = opts.listen
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return cfg, nil
}

// newGitHubClient builds a token client or an App client from cfg.
func newGitHubClient(cfg *config.Config, logger *slog.Logger) (*github.Client, error) {
	token, err := cfg.GitHubToken()
	if err != nil {
		return nil, err
	}
	privateKey, err := cfg.GitHubPrivateKey()
	if err != nil {
		return nil, err
	}
	clientConfig := github.Config{
		BaseURL: cfg.GitHub.BaseURL,
		Logger:  logger,
	}
	if token != "" {
		clientConfig.Token = token
	} else {
		clientConfig.AppID = cfg.GitHub.AppID
		clientConfig.PrivateKey = privateKey
		clientConfig.InstallationID = cfg.GitHub.InstallationID
	}
	return github.NewClient(clientConfig)
}
