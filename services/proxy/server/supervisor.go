// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultShutdownGrace is how long the server may keep running after its
// input is closed before it is killed.
const DefaultShutdownGrace = 5 * time.Second

// DefaultLogLevel is the server's own log level.
const DefaultLogLevel = "Information"

// =============================================================================
// STATE
// =============================================================================

// State is the lifecycle state of the language server process.
type State int

const (
	// StateStarting is the state before the process is running.
	StateStarting State = iota

	// StateRunning means messages flow in both directions.
	StateRunning

	// StateDraining means the editor side has stopped and the server is
	// finishing its remaining output.
	StateDraining

	// StateTerminated means the process has exited or never started.
	StateTerminated
)

// String returns a human-readable state name.
func (s State) String() string {
	names := []string{"starting", "running", "draining", "terminated"}
	if int(s) >= 0 && int(s) < len(names) {
		return names[s]
	}
	return "unknown"
}

// =============================================================================
// SUPERVISOR
// =============================================================================

// Config configures a Supervisor.
type Config struct {
	// Binary is the resolved server to start.
	Binary Binary

	// LogsDir is passed to the server as its log directory.
	LogsDir string

	// LogLevel is the server's own log level.
	// Default: DefaultLogLevel
	LogLevel string

	// WorkingDir is the process working directory.
	// Default: inherited
	WorkingDir string

	// ShutdownGrace bounds how long the server may run after its input closes.
	// Default: DefaultShutdownGrace
	ShutdownGrace time.Duration

	// Stderr receives the server's stderr.
	// Default: os.Stderr
	Stderr io.Writer

	// Logger receives lifecycle events.
	// Default: slog.Default()
	Logger *slog.Logger
}

// Supervisor owns the language server child process.
//
// Description:
//
//	Start spawns the server with piped stdin and stdout. Closing the stdin
//	returned by Streams tells the server to exit and arms a kill timer of
//	ShutdownGrace. Terminate kills whatever is left and waits for exit.
//	On Unix the server runs in its own process group, which is killed as
//	a whole.
//
// Thread Safety:
//
//	Safe for concurrent use after Start returns.
type Supervisor struct {
	cfg    Config
	logger *slog.Logger

	mu    sync.RWMutex
	state State

	cmd    *exec.Cmd
	stdin  *stdinCloser
	stdout *os.File

	done    chan struct{}
	exitErr error
	killed  atomic.Bool

	timerMu sync.Mutex
	timer   *time.Timer
}

// NewSupervisor creates a supervisor (not started).
func NewSupervisor(cfg Config) *Supervisor {
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = DefaultShutdownGrace
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		cfg:    cfg,
		logger: logger,
		state:  StateStarting,
		done:   make(chan struct{}),
	}
}

// Args returns the per-launch arguments passed to the server.
func (s *Supervisor) Args() []string {
	return []string{
		"--logLevel=" + s.cfg.LogLevel,
		"--extensionLogDirectory=" + s.cfg.LogsDir,
		"--stdio",
	}
}

// Start spawns the server process.
//
// Inputs:
//
//	ctx - Checked before spawning. The process outlives ctx; use Terminate.
//
// Outputs:
//
//	error - Non-nil if the process could not be started.
//
// Errors:
//
//	ErrAlreadyStarted - Start was already called.
//	ErrProcessSpawn - The pipes or the process could not be created.
func (s *Supervisor) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrProcessSpawn, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd != nil || s.state != StateStarting {
		return ErrAlreadyStarted
	}

	cmd := s.cfg.Binary.Command(s.Args()...)
	cmd.Dir = s.cfg.WorkingDir
	cmd.Stderr = s.cfg.Stderr
	setProcessGroup(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		s.state = StateTerminated
		return fmt.Errorf("%w: stdin pipe: %w", ErrProcessSpawn, err)
	}

	// cmd.Wait never closes a caller supplied *os.File, so output still
	// buffered in the pipe when the process exits can be read to EOF.
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		_ = stdin.Close()
		s.state = StateTerminated
		return fmt.Errorf("%w: stdout pipe: %w", ErrProcessSpawn, err)
	}
	cmd.Stdout = stdoutW

	s.logger.Info("Starting language server",
		slog.String("command", s.cfg.Binary.String()),
		slog.String("logs_dir", s.cfg.LogsDir),
		slog.String("working_dir", s.cfg.WorkingDir),
	)

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		_ = stdoutR.Close()
		_ = stdoutW.Close()
		s.state = StateTerminated
		return fmt.Errorf("%w: %s: %w", ErrProcessSpawn, s.cfg.Binary.Path, err)
	}
	_ = stdoutW.Close()

	s.cmd = cmd
	s.stdout = stdoutR
	s.stdin = &stdinCloser{WriteCloser: stdin, onClose: s.armKill}
	s.state = StateRunning

	s.logger.Info("Language server started", slog.Int("pid", cmd.Process.Pid))

	go s.wait()
	return nil
}

// wait reaps the process and records how it exited.
func (s *Supervisor) wait() {
	err := s.cmd.Wait()

	s.mu.Lock()
	s.exitErr = err
	s.state = StateTerminated
	s.mu.Unlock()

	s.stopTimer()
	close(s.done)

	attrs := []any{slog.Int("pid", s.cmd.Process.Pid), slog.Bool("killed", s.killed.Load())}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.Info("Language server exited", attrs...)
}

// Streams returns the server's stdout and stdin.
//
// Closing stdin starts the shutdown grace period. Both are safe to close
// more than once.
func (s *Supervisor) Streams() (io.ReadCloser, io.WriteCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cmd == nil {
		return nil, nil, ErrNotStarted
	}
	return s.stdout, s.stdin, nil
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// MarkDraining records that the editor side has stopped.
func (s *Supervisor) MarkDraining() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRunning {
		s.state = StateDraining
		s.logger.Debug("Language server draining")
	}
}

// Done is closed when the process has exited.
func (s *Supervisor) Done() <-chan struct{} {
	return s.done
}

// ExitErr returns the process exit error once Done is closed.
func (s *Supervisor) ExitErr() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exitErr
}

// Terminate kills the process group if the server is still running and
// waits for it to exit.
//
// Outputs:
//
//	error - The exit error of a server that exited on its own with a
//	        failure status. Nil if the server was killed here or by the
//	        shutdown timer.
func (s *Supervisor) Terminate() error {
	s.mu.Lock()
	cmd := s.cmd
	if cmd == nil {
		s.state = StateTerminated
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	select {
	case <-s.done:
	default:
		s.kill("terminate")
		<-s.done
	}
	s.stopTimer()
	_ = s.stdin.Close()
	_ = s.stdout.Close()

	if s.killed.Load() {
		return nil
	}
	if err := s.ExitErr(); err != nil {
		return fmt.Errorf("language server exited: %w", err)
	}
	return nil
}

// armKill starts the shutdown grace timer once.
func (s *Supervisor) armKill() {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	if s.timer != nil {
		return
	}
	select {
	case <-s.done:
		return
	default:
	}
	s.timer = time.AfterFunc(s.cfg.ShutdownGrace, func() {
		s.kill("shutdown grace elapsed")
	})
}

func (s *Supervisor) stopTimer() {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
}

// kill sends SIGKILL to the process group unless the process already exited.
func (s *Supervisor) kill(reason string) {
	select {
	case <-s.done:
		return
	default:
	}
	s.killed.Store(true)
	s.logger.Warn("Killing language server", slog.String("reason", reason))
	if err := killProcessGroup(s.cmd); err != nil {
		s.logger.Warn("Kill failed", slog.String("error", err.Error()))
	}
}

// =============================================================================
// STDIN
// =============================================================================

// stdinCloser closes the server's stdin once and reports it.
type stdinCloser struct {
	io.WriteCloser

	once    sync.Once
	err     error
	onClose func()
}

// Close closes the pipe and starts the shutdown grace period.
func (c *stdinCloser) Close() error {
	c.once.Do(func() {
		c.err = c.WriteCloser.Close()
		if c.onClose != nil {
			c.onClose()
		}
	})
	return c.err
}
