// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package session assembles one proxy session: the Roslyn server process,
// the hook pipeline, and the transport between the editor and the server.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/MikhailSiarko/roslyn-language-server/pkg/logging"
	"github.com/MikhailSiarko/roslyn-language-server/services/proxy"
	"github.com/MikhailSiarko/roslyn-language-server/services/proxy/hooks"
	"github.com/MikhailSiarko/roslyn-language-server/services/proxy/server"
	"github.com/MikhailSiarko/roslyn-language-server/services/proxy/workspace"
)

// ErrNoServer is returned by Run when no server path was configured.
var ErrNoServer = errors.New("no language server configured")

// Config configures a Session.
type Config struct {
	// ServerPath is the server executable, .dll, or unpacked package.
	ServerPath string

	// Platform selects the server build inside a package.
	// Default: server.CurrentPlatform()
	Platform *server.Platform

	// LogsDir is the server's log directory.
	// Default: server.DefaultLogsDir(ServerPath)
	LogsDir string

	// ServerLogLevel is the server's own log level.
	// Default: server.DefaultLogLevel
	ServerLogLevel string

	// ShutdownGrace bounds how long the server may run after the editor
	// disconnects.
	// Default: server.DefaultShutdownGrace
	ShutdownGrace time.Duration

	// WorkingDir is searched for a solution or projects at startup and is
	// the server's working directory.
	WorkingDir string

	// SolutionPath is opened instead of searching.
	SolutionPath string

	// ProjectPaths are opened when no solution is given.
	ProjectPaths []string

	// Discover tunes the workspace search.
	Discover workspace.DiscoverOptions

	// DiagnoseOnOpen, SuppressProjectInitializationComplete and
	// ForwardRestoreNotification are passed to the hooks.
	DiagnoseOnOpen                        bool
	SuppressProjectInitializationComplete bool
	ForwardRestoreNotification            bool

	// StrictHooks makes any hook error end the session.
	StrictHooks bool
}

// Session is one editor connection to one Roslyn server.
//
// Description:
//
//	New wires the shared state, correlation table, id allocator, hook
//	pipeline and workspace resolver. When the target can be decided from
//	configuration alone it is resolved in New, so a bad configuration
//	fails before the editor sends anything.
//
// Thread Safety:
//
//	Run or RunWithStreams may be called once.
type Session struct {
	cfg      Config
	logger   *slog.Logger
	state    *proxy.State
	table    *proxy.CorrelationTable
	ids      *proxy.IDAllocator
	pipeline *proxy.Pipeline

	target workspace.Target
	binary server.Binary
}

// New builds a session.
//
// Outputs:
//
//	*Session - Ready to Run.
//	error - Wraps proxy.ErrConfiguration when WorkingDir holds no
//	        solution or project, or server.ErrProcessSpawn when ServerPath
//	        does not resolve.
func New(cfg Config, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}

	resolver := workspace.Resolver{
		SolutionPath: cfg.SolutionPath,
		ProjectPaths: cfg.ProjectPaths,
		WorkingDir:   cfg.WorkingDir,
		Options:      cfg.Discover,
	}
	target, ok, err := resolver.Static()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", proxy.ErrConfiguration, err)
	}
	if ok {
		resolver = pinned(target)
		logger.Info("Workspace resolved", slog.String("target", target.String()))
	}

	s := &Session{
		cfg:    cfg,
		logger: logger,
		state:  proxy.NewState(),
		table:  proxy.NewCorrelationTable(),
		ids:    proxy.NewIDAllocator(),
		target: target,
	}

	if cfg.ServerPath != "" {
		platform := server.CurrentPlatform()
		if cfg.Platform != nil {
			platform = *cfg.Platform
		}
		s.binary, err = server.ResolveBinary(cfg.ServerPath, platform)
		if err != nil {
			return nil, err
		}
	}

	s.pipeline = proxy.NewPipeline(s.table, proxy.PipelineConfig{
		Logger:      logger,
		StrictHooks: cfg.StrictHooks,
	})
	hooks.RegisterAll(s.pipeline, s.state, s.ids, hooks.Options{
		Resolver:                              resolver,
		DiagnoseOnOpen:                        cfg.DiagnoseOnOpen,
		SuppressProjectInitializationComplete: cfg.SuppressProjectInitializationComplete,
		ForwardRestoreNotification:            cfg.ForwardRestoreNotification,
		Logger:                                logger,
	})
	return s, nil
}

// pinned returns a resolver that always yields t, so the search done at
// startup is not repeated on initialize.
func pinned(t workspace.Target) workspace.Resolver {
	if t.IsSolution() {
		return workspace.Resolver{SolutionPath: t.SolutionPath()}
	}
	return workspace.Resolver{ProjectPaths: t.ProjectPaths()}
}

// Target returns the target resolved at startup, if any.
func (s *Session) Target() (workspace.Target, bool) {
	return s.target, !s.target.IsZero()
}

// Binary returns the resolved server command.
func (s *Session) Binary() server.Binary {
	return s.binary
}

// Run starts the server and relays between it and the editor.
//
// Inputs:
//
//	ctx - Cancelling ctx stops the session and the server.
//	clientIn - Editor messages, normally os.Stdin.
//	clientOut - Messages to the editor, normally os.Stdout.
//
// Outputs:
//
//	error - Nil when both sides ended cleanly. Otherwise the transport
//	        failures joined with an abnormal server exit.
func (s *Session) Run(ctx context.Context, clientIn io.Reader, clientOut io.Writer) error {
	if s.binary.Path == "" {
		return ErrNoServer
	}

	logsDir := s.cfg.LogsDir
	if logsDir == "" {
		logsDir = server.DefaultLogsDir(s.cfg.ServerPath)
	}
	logsDir, err := logging.EnsureDir(logsDir)
	if err != nil {
		return fmt.Errorf("server logs: %w", err)
	}

	sup := server.NewSupervisor(server.Config{
		Binary:        s.binary,
		LogsDir:       logsDir,
		LogLevel:      s.cfg.ServerLogLevel,
		WorkingDir:    s.cfg.WorkingDir,
		ShutdownGrace: s.cfg.ShutdownGrace,
		Logger:        s.logger,
	})
	if err := sup.Start(ctx); err != nil {
		return err
	}

	serverOut, serverIn, err := sup.Streams()
	if err != nil {
		return errors.Join(err, sup.Terminate())
	}

	runErr := s.run(ctx, proxy.Streams{
		ClientIn:  clientIn,
		ClientOut: clientOut,
		ServerIn:  serverIn,
		ServerOut: serverOut,
	}, sup.MarkDraining)

	return errors.Join(runErr, sup.Terminate())
}

// RunWithStreams relays between arbitrary streams standing in for the
// editor and the server. No process is started.
func (s *Session) RunWithStreams(ctx context.Context, streams proxy.Streams) error {
	return s.run(ctx, streams, nil)
}

func (s *Session) run(ctx context.Context, streams proxy.Streams, onDrain func()) error {
	transport := proxy.NewTransport(s.pipeline, proxy.TransportConfig{
		Logger:  s.logger,
		OnDrain: onDrain,
	})

	start := time.Now()
	err := transport.Run(ctx, streams)

	attrs := []any{
		slog.Duration("duration", time.Since(start)),
		slog.Int("pending_requests", s.table.Len()),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		s.logger.Error("Session ended", attrs...)
		return err
	}
	s.logger.Info("Session ended", attrs...)
	return nil
}
