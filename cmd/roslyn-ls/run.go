// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/MikhailSiarko/roslyn-language-server/cmd/roslyn-ls/config"
	"github.com/MikhailSiarko/roslyn-language-server/pkg/logging"
	"github.com/MikhailSiarko/roslyn-language-server/services/proxy/server"
	"github.com/MikhailSiarko/roslyn-language-server/services/proxy/session"
	"github.com/MikhailSiarko/roslyn-language-server/services/proxy/telemetry"
	"github.com/MikhailSiarko/roslyn-language-server/services/proxy/workspace"
)

// =============================================================================
// Configuration
// =============================================================================

// loadConfig reads the config file named by --config or $ROSLYN_LS_CONFIG
// and applies the flags the user set on top of it.
func loadConfig(fs *pflag.FlagSet, o *cliOptions) (config.Config, error) {
	cfg, err := config.Load(config.ResolvePath(o.configPath))
	if err != nil {
		return config.Config{}, err
	}
	applyFlags(fs, o, &cfg)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// applyFlags overrides cfg with every flag explicitly set in fs.
func applyFlags(fs *pflag.FlagSet, o *cliOptions, cfg *config.Config) {
	if fs.Changed("cmd") {
		cfg.Server.Path = o.serverPath
	}
	if fs.Changed("logs-dir") {
		cfg.Server.LogsDir = o.logsDir
	}
	if fs.Changed("working-dir") {
		cfg.Workspace.WorkingDir = o.workingDir
	}
	if fs.Changed("solution-path") {
		cfg.Workspace.SolutionPath = o.solutionPath
	}
	if fs.Changed("project-paths") {
		cfg.Workspace.ProjectPaths = o.projectPaths
	}
	if fs.Changed("log-level") {
		cfg.Logging.Level = o.logLevel
	}
	if fs.Changed("log-json") {
		cfg.Logging.JSON = o.logJSON
	}
	if fs.Changed("diagnose-on-open") {
		cfg.Hooks.DiagnoseOnOpen = o.diagnoseOnOpen
	}
}

// sessionConfig maps the file format onto session.Config.
func sessionConfig(cfg config.Config) session.Config {
	return session.Config{
		ServerPath:     cfg.Server.Path,
		LogsDir:        cfg.Server.LogsDir,
		ServerLogLevel: cfg.Server.LogLevel,
		ShutdownGrace:  cfg.Server.Grace(),

		WorkingDir:   cfg.Workspace.WorkingDir,
		SolutionPath: cfg.Workspace.SolutionPath,
		ProjectPaths: cfg.Workspace.ProjectPaths,
		Discover:     cfg.Workspace.DiscoverOptions(),

		DiagnoseOnOpen:                        cfg.Hooks.DiagnoseOnOpen,
		SuppressProjectInitializationComplete: cfg.Hooks.SuppressProjectInitializationComplete,
		ForwardRestoreNotification:            cfg.Hooks.ForwardRestoreNotification,
		StrictHooks:                           cfg.Hooks.Strict,
	}
}

// newLogger builds the proxy logger. Every entry is also counted by
// exporter, which reports through the telemetry meter.
func newLogger(cfg config.LoggingConfig, stderr io.Writer, exporter logging.LogExporter) (*logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Config{
		Level:    level,
		LogDir:   cfg.Dir,
		Service:  "roslyn-ls",
		JSON:     cfg.JSON,
		Quiet:    cfg.Quiet,
		Output:   stderr,
		Exporter: exporter,
	})
}

// =============================================================================
// Commands
// =============================================================================

// runProxy is the root command: one session on stdin/stdout.
func runProxy(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd.Flags(), &opts)
	if err != nil {
		return err
	}
	if cfg.Server.Path == "" {
		return fmt.Errorf("%w: pass --cmd or set server.path", session.ErrNoServer)
	}

	logMetrics, err := telemetry.NewLogMetrics()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Logging, cmd.ErrOrStderr(), logMetrics)
	if err != nil {
		return err
	}
	defer logger.Close()
	log := logger.Slog()

	if f, ok := cmd.InOrStdin().(*os.File); ok && isTerminal(f) {
		log.Warn("stdin is a terminal; roslyn-ls expects an editor to speak LSP on stdio")
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Telemetry.ServiceVersion = version
	cfg.Telemetry.Output = cmd.ErrOrStderr()
	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			log.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()
	if endpoint := telemetry.MetricsEndpoint(); endpoint != "" {
		log.Info("Serving metrics", slog.String("endpoint", endpoint))
	}

	s, err := session.New(sessionConfig(cfg), log)
	if err != nil {
		return err
	}
	log.Info("Starting language server",
		slog.String("server", s.Binary().String()),
		slog.String("version", version),
	)
	return s.Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
}

// runDiscover prints the target a session started in dir would open.
func runDiscover(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd.Flags(), &opts)
	if err != nil {
		return err
	}

	dir := cfg.Workspace.WorkingDir
	if len(args) == 1 {
		dir = args[0]
	}
	if dir == "" {
		if dir, err = os.Getwd(); err != nil {
			return err
		}
	}

	resolver := workspace.Resolver{
		SolutionPath: cfg.Workspace.SolutionPath,
		ProjectPaths: cfg.Workspace.ProjectPaths,
		WorkingDir:   dir,
		Options:      cfg.Workspace.DiscoverOptions(),
	}
	target, _, err := resolver.Static()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if target.IsSolution() {
		fmt.Fprintf(out, "solution %s\n", target.SolutionPath())
	} else {
		for _, p := range target.ProjectPaths() {
			fmt.Fprintf(out, "project %s\n", p)
		}
	}

	if cfg.Server.Path != "" {
		bin, err := server.ResolveBinary(cfg.Server.Path, server.CurrentPlatform())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "server %s\n", bin)
	}
	return nil
}

func runVersion(cmd *cobra.Command, _ []string) {
	fmt.Fprintf(cmd.OutOrStdout(), "roslyn-ls %s\n", version)
}

// =============================================================================
// Helpers
// =============================================================================

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
