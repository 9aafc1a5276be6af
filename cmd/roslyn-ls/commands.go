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
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// cliOptions holds the raw flag values. They only take effect for flags
// the user actually set; see applyFlags.
type cliOptions struct {
	configPath     string
	serverPath     string
	workingDir     string
	solutionPath   string
	projectPaths   []string
	logsDir        string
	logLevel       string
	logJSON        bool
	diagnoseOnOpen bool
}

// --- Global Command Variables ---
var (
	opts cliOptions

	rootCmd = &cobra.Command{
		Use:   "roslyn-ls",
		Short: "Run the Roslyn language server for any LSP editor",
		Long: `roslyn-ls starts Microsoft.CodeAnalysis.LanguageServer and relays LSP
between it and the editor on stdio, opening the solution or projects the
server expects and answering its custom requests.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runProxy, // Defined in run.go
	}

	discoverCmd = &cobra.Command{
		Use:   "discover [dir]",
		Short: "Print the solution or projects roslyn-ls would open",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runDiscover, // Defined in run.go
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the roslyn-ls version",
		Args:  cobra.NoArgs,
		Run:   runVersion, // Defined in run.go
	}
)

func init() {
	bindFlags(rootCmd.PersistentFlags(), &opts)

	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(versionCmd)
}

// bindFlags registers every roslyn-ls flag on fs, storing values in o.
func bindFlags(fs *pflag.FlagSet, o *cliOptions) {
	fs.StringVar(&o.configPath, "config", "", "config file (.yaml, .yml or .toml); default $ROSLYN_LS_CONFIG")

	// Server
	fs.StringVarP(&o.serverPath, "cmd", "c", "", "language server executable, .dll, or unpacked package directory")
	fs.StringVar(&o.logsDir, "logs-dir", "", "directory for the language server's own logs")

	// Workspace
	fs.StringVarP(&o.workingDir, "working-dir", "w", "", "directory searched for a solution or projects at startup")
	fs.StringVarP(&o.solutionPath, "solution-path", "s", "", "solution to open")
	fs.StringArrayVarP(&o.projectPaths, "project-paths", "p", nil, "project to open when no solution is given (repeatable)")

	// Proxy
	fs.StringVar(&o.logLevel, "log-level", "", "proxy log level: debug, info, warn, error")
	fs.BoolVar(&o.logJSON, "log-json", false, "write proxy logs to stderr as JSON")
	fs.BoolVar(&o.diagnoseOnOpen, "diagnose-on-open", false, "request diagnostics whenever a document is opened")
}
