// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MikhailSiarko/roslyn-language-server/services/proxy/server"
	"github.com/MikhailSiarko/roslyn-language-server/services/proxy/telemetry"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// TestDefault verifies the defaults validate and match the server package.
func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Server.LogLevel != server.DefaultLogLevel {
		t.Errorf("Server.LogLevel = %q, want %q", cfg.Server.LogLevel, server.DefaultLogLevel)
	}
	if cfg.Server.Grace() != server.DefaultShutdownGrace {
		t.Errorf("Server.Grace() = %v, want %v", cfg.Server.Grace(), server.DefaultShutdownGrace)
	}
	if len(cfg.Workspace.SkipDirs) == 0 {
		t.Error("Workspace.SkipDirs should default to the standard skip list")
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "roslyn-ls.yaml", `
server:
  path: /opt/roslyn
  shutdown_grace: 2s
workspace:
  project_paths:
    - /src/A.csproj
    - /src/B.csproj
  max_depth: 3
hooks:
  diagnose_on_open: true
logging:
  level: debug
telemetry:
  metric_exporter: prometheus
  prometheus_addr: 127.0.0.1:9999
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Path != "/opt/roslyn" {
		t.Errorf("Server.Path = %q", cfg.Server.Path)
	}
	if cfg.Server.Grace() != 2*time.Second {
		t.Errorf("Server.Grace() = %v, want 2s", cfg.Server.Grace())
	}
	if got := cfg.Workspace.ProjectPaths; len(got) != 2 || got[1] != "/src/B.csproj" {
		t.Errorf("Workspace.ProjectPaths = %v", got)
	}
	if opts := cfg.Workspace.DiscoverOptions(); opts.MaxDepth != 3 {
		t.Errorf("DiscoverOptions().MaxDepth = %d, want 3", opts.MaxDepth)
	}
	if !cfg.Hooks.DiagnoseOnOpen {
		t.Error("Hooks.DiagnoseOnOpen should be true")
	}
	if cfg.Telemetry.MetricExporter != telemetry.ExporterPrometheus || cfg.Telemetry.PrometheusAddr != "127.0.0.1:9999" {
		t.Errorf("Telemetry = %+v", cfg.Telemetry)
	}
	// Untouched keys keep their defaults.
	if cfg.Server.LogLevel != server.DefaultLogLevel {
		t.Errorf("Server.LogLevel = %q, want default", cfg.Server.LogLevel)
	}
}

func TestLoad_TOML(t *testing.T) {
	path := writeConfig(t, "roslyn-ls.toml", `
[server]
path = "/opt/roslyn/Microsoft.CodeAnalysis.LanguageServer.dll"
log_level = "Debug"

[workspace]
solution_path = "/src/App.sln"

[hooks]
suppress_project_initialization_complete = true
forward_restore_notification = true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.LogLevel != "Debug" {
		t.Errorf("Server.LogLevel = %q, want Debug", cfg.Server.LogLevel)
	}
	if cfg.Workspace.SolutionPath != "/src/App.sln" {
		t.Errorf("Workspace.SolutionPath = %q", cfg.Workspace.SolutionPath)
	}
	if !cfg.Hooks.SuppressProjectInitializationComplete || !cfg.Hooks.ForwardRestoreNotification {
		t.Errorf("Hooks = %+v", cfg.Hooks)
	}
}

func TestLoad_EmptyYAMLKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "empty.yml", ""))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Grace() != server.DefaultShutdownGrace {
		t.Errorf("Server.Grace() = %v", cfg.Server.Grace())
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantIs  error
		wantMsg string
	}{
		{"unsupported extension", "config.json", `{}`, ErrUnsupportedFormat, ""},
		{"unknown yaml key", "c.yaml", "server:\n  pth: /x\n", nil, "pth"},
		{"unknown toml key", "c.toml", "[hooks]\ndiagnose = true\n", nil, ""},
		{"bad server log level", "c.yaml", "server:\n  log_level: Verbose\n", ErrInvalid, "LogLevel"},
		{"bad grace", "c.yaml", "server:\n  shutdown_grace: soon\n", ErrInvalid, "ShutdownGrace"},
		{"negative grace", "c.toml", "[server]\nshutdown_grace = \"-1s\"\n", ErrInvalid, "ShutdownGrace"},
		{"negative depth", "c.yaml", "workspace:\n  max_depth: -1\n", ErrInvalid, "MaxDepth"},
		{"empty project path", "c.yaml", "workspace:\n  project_paths: [\"\"]\n", ErrInvalid, "ProjectPaths"},
		{"bad exporter", "c.yaml", "telemetry:\n  trace_exporter: zipkin\n", ErrInvalid, "TraceExporter"},
		{"bad prometheus addr", "c.yaml", "telemetry:\n  prometheus_addr: nope\n", ErrInvalid, "PrometheusAddr"},
		{"bad logging level", "c.yaml", "logging:\n  level: loud\n", ErrInvalid, "Level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.file, tt.content))
			if err == nil {
				t.Fatal("Load() should fail")
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("Load() error = %v, want %v", err, tt.wantIs)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Load() error = %v, want it to mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() error = %v, want os.ErrNotExist", err)
	}
}

func TestResolvePath(t *testing.T) {
	t.Setenv(EnvConfigPath, "/etc/roslyn-ls.yaml")

	if got := ResolvePath("/flag.toml"); got != "/flag.toml" {
		t.Errorf("ResolvePath(flag) = %q", got)
	}
	if got := ResolvePath(""); got != "/etc/roslyn-ls.yaml" {
		t.Errorf("ResolvePath(\"\") = %q, want env value", got)
	}

	t.Setenv(EnvConfigPath, "")
	if got := ResolvePath(""); got != "" {
		t.Errorf("ResolvePath(\"\") = %q, want empty", got)
	}
}
