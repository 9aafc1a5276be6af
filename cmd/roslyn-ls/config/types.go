// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config holds the roslyn-ls configuration file format.
package config

import (
	"time"

	"github.com/MikhailSiarko/roslyn-language-server/services/proxy/server"
	"github.com/MikhailSiarko/roslyn-language-server/services/proxy/telemetry"
	"github.com/MikhailSiarko/roslyn-language-server/services/proxy/workspace"
)

// Config is the full roslyn-ls configuration. Flags given on the command
// line override the file.
type Config struct {
	// Server: where the Roslyn server lives and how it is run
	Server ServerConfig `yaml:"server" toml:"server"`

	// Workspace: which solution or projects to open
	Workspace WorkspaceConfig `yaml:"workspace" toml:"workspace"`

	// Hooks: optional proxy behaviors
	Hooks HooksConfig `yaml:"hooks" toml:"hooks"`

	// Logging: the proxy's own log
	Logging LoggingConfig `yaml:"logging" toml:"logging"`

	// Telemetry: traces and metrics
	Telemetry telemetry.Config `yaml:"telemetry" toml:"telemetry"`
}

type ServerConfig struct {
	Path          string `yaml:"path" toml:"path"`                                                              // executable, .dll or unpacked package
	LogsDir       string `yaml:"logs_dir" toml:"logs_dir"`                                                      // e.g. ~/.cache/roslyn-ls/logs
	LogLevel      string `yaml:"log_level" toml:"log_level" validate:"omitempty,oneof=Trace Debug Information Warning Error Critical None"`
	ShutdownGrace string `yaml:"shutdown_grace" toml:"shutdown_grace" validate:"omitempty,duration"` // e.g. 5s
}

type WorkspaceConfig struct {
	WorkingDir   string   `yaml:"working_dir" toml:"working_dir"`
	SolutionPath string   `yaml:"solution_path" toml:"solution_path"`
	ProjectPaths []string `yaml:"project_paths" toml:"project_paths" validate:"dive,required"`
	MaxDepth     int      `yaml:"max_depth" toml:"max_depth" validate:"gte=0"`
	SkipDirs     []string `yaml:"skip_dirs" toml:"skip_dirs" validate:"dive,required"`
}

type HooksConfig struct {
	DiagnoseOnOpen                        bool `yaml:"diagnose_on_open" toml:"diagnose_on_open"`
	SuppressProjectInitializationComplete bool `yaml:"suppress_project_initialization_complete" toml:"suppress_project_initialization_complete"`
	ForwardRestoreNotification            bool `yaml:"forward_restore_notification" toml:"forward_restore_notification"`
	Strict                                bool `yaml:"strict" toml:"strict"` // hook errors end the session
}

type LoggingConfig struct {
	Level string `yaml:"level" toml:"level" validate:"omitempty,oneof=debug info warn warning error DEBUG INFO WARN WARNING ERROR"`
	Dir   string `yaml:"dir" toml:"dir"` // JSON log file directory, off when empty
	JSON  bool   `yaml:"json" toml:"json"`
	Quiet bool   `yaml:"quiet" toml:"quiet"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			LogLevel:      server.DefaultLogLevel,
			ShutdownGrace: server.DefaultShutdownGrace.String(),
		},
		Workspace: WorkspaceConfig{
			SkipDirs: append([]string(nil), workspace.DefaultSkipDirs...),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Telemetry: telemetry.DefaultConfig(),
	}
}

// Grace returns the parsed shutdown grace, or the default when unset.
// Call after Validate.
func (c ServerConfig) Grace() time.Duration {
	if c.ShutdownGrace == "" {
		return server.DefaultShutdownGrace
	}
	d, err := time.ParseDuration(c.ShutdownGrace)
	if err != nil {
		return server.DefaultShutdownGrace
	}
	return d
}

// DiscoverOptions converts the workspace section for workspace.Discover.
func (c WorkspaceConfig) DiscoverOptions() workspace.DiscoverOptions {
	return workspace.DiscoverOptions{
		SkipDirs: c.SkipDirs,
		MaxDepth: c.MaxDepth,
	}
}
