// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

//go:build unix

package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shell returns a supervisor config running script under /bin/sh. The
// per-launch arguments land in $0 and $@.
func shell(t *testing.T, script string) Config {
	t.Helper()
	return Config{
		Binary:        Binary{Path: "/bin/sh", Args: []string{"-c", script}},
		LogsDir:       t.TempDir(),
		ShutdownGrace: DefaultShutdownGrace,
		Stderr:        io.Discard,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func waitDone(t *testing.T, s *Supervisor) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("server did not exit")
	}
}

func TestSupervisor_EchoAndCleanExit(t *testing.T) {
	s := NewSupervisor(shell(t, "cat"))
	assert.Equal(t, StateStarting, s.State())

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, StateRunning, s.State())

	stdout, stdin, err := s.Streams()
	require.NoError(t, err)

	_, err = stdin.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, stdin.Close())
	require.NoError(t, stdin.Close())

	out, err := io.ReadAll(stdout)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(out))

	waitDone(t, s)
	assert.Equal(t, StateTerminated, s.State())
	assert.NoError(t, s.ExitErr())
	assert.NoError(t, s.Terminate())
}

func TestSupervisor_PassesServerArguments(t *testing.T) {
	cfg := shell(t, `printf '%s\n' "$0" "$@"`)
	s := NewSupervisor(cfg)
	require.NoError(t, s.Start(context.Background()))

	stdout, _, err := s.Streams()
	require.NoError(t, err)
	out, err := io.ReadAll(stdout)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	assert.Equal(t, []string{
		"--logLevel=Information",
		"--extensionLogDirectory=" + cfg.LogsDir,
		"--stdio",
	}, lines)
	require.NoError(t, s.Terminate())
}

func TestSupervisor_OutputAfterExitIsReadable(t *testing.T) {
	s := NewSupervisor(shell(t, "printf 'tail'"))
	require.NoError(t, s.Start(context.Background()))
	waitDone(t, s)

	stdout, _, err := s.Streams()
	require.NoError(t, err)
	out, err := io.ReadAll(stdout)
	require.NoError(t, err)
	assert.Equal(t, "tail", string(out))
}

func TestSupervisor_KillsAfterGrace(t *testing.T) {
	cfg := shell(t, "exec sleep 30")
	cfg.ShutdownGrace = 200 * time.Millisecond
	s := NewSupervisor(cfg)
	require.NoError(t, s.Start(context.Background()))

	_, stdin, err := s.Streams()
	require.NoError(t, err)
	start := time.Now()
	require.NoError(t, stdin.Close())

	waitDone(t, s)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.NoError(t, s.Terminate())
}

func TestSupervisor_TerminateKillsRunningServer(t *testing.T) {
	s := NewSupervisor(shell(t, "sleep 30 & wait"))
	require.NoError(t, s.Start(context.Background()))
	s.MarkDraining()
	assert.Equal(t, StateDraining, s.State())

	assert.NoError(t, s.Terminate())
	assert.Equal(t, StateTerminated, s.State())
}

func TestSupervisor_FailedExitIsReported(t *testing.T) {
	s := NewSupervisor(shell(t, "exit 3"))
	require.NoError(t, s.Start(context.Background()))
	waitDone(t, s)

	err := s.Terminate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit status 3")
}

func TestSupervisor_SpawnFailure(t *testing.T) {
	cfg := shell(t, "")
	cfg.Binary = Binary{Path: "/nonexistent/roslyn"}
	s := NewSupervisor(cfg)

	err := s.Start(context.Background())
	assert.True(t, errors.Is(err, ErrProcessSpawn))
	assert.Equal(t, StateTerminated, s.State())

	_, _, err = s.Streams()
	assert.True(t, errors.Is(err, ErrNotStarted))
}

func TestSupervisor_StartTwice(t *testing.T) {
	s := NewSupervisor(shell(t, "cat"))
	require.NoError(t, s.Start(context.Background()))
	defer s.Terminate()

	assert.True(t, errors.Is(s.Start(context.Background()), ErrAlreadyStarted))
}

func TestSupervisor_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewSupervisor(shell(t, "cat")).Start(ctx)
	assert.True(t, errors.Is(err, ErrProcessSpawn))
}

func TestSupervisor_StderrIsForwarded(t *testing.T) {
	var stderr bytes.Buffer
	cfg := shell(t, "echo oops >&2")
	cfg.Stderr = &stderr
	s := NewSupervisor(cfg)
	require.NoError(t, s.Start(context.Background()))
	waitDone(t, s)
	require.NoError(t, s.Terminate())

	assert.Equal(t, "oops\n", stderr.String())
}
