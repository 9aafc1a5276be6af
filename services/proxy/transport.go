// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/MikhailSiarko/roslyn-language-server/services/proxy/jsonrpc"
)

// Streams are the four ends the proxy sits between.
type Streams struct {
	// ClientIn carries editor messages (the proxy's stdin).
	ClientIn io.Reader

	// ClientOut carries messages to the editor (the proxy's stdout).
	ClientOut io.Writer

	// ServerIn carries messages to the server (the child's stdin). It is
	// closed when the editor side ends so the server sees end of input.
	ServerIn io.WriteCloser

	// ServerOut carries server messages (the child's stdout).
	ServerOut io.Reader
}

// TransportConfig configures a Transport.
type TransportConfig struct {
	// Logger receives pump lifecycle events.
	// Default: slog.Default()
	Logger *slog.Logger

	// OnDrain is called once, when the first pump stops.
	OnDrain func()
}

// Transport runs the two pumps of a session.
//
// Description:
//
//	The client pump reads editor messages and writes them toward the
//	server; the server pump does the reverse. Each message is dispatched
//	through the Pipeline and its primary is written before its extras.
//	Both pumps share one encoder per output, so frames written by either
//	pump never interleave.
//
//	When the client pump stops, the server's input is closed and the
//	server pump keeps flushing until the server closes its output. When
//	the server pump stops, the client pump stops after its current
//	message. A pump never abandons a frame halfway through a write.
//
// Thread Safety:
//
//	Run may be called once per Transport.
type Transport struct {
	pipeline  *Pipeline
	logger    *slog.Logger
	onDrain   func()
	drainOnce sync.Once
}

// NewTransport creates a transport dispatching through pipeline.
func NewTransport(pipeline *Pipeline, cfg TransportConfig) *Transport {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{
		pipeline: pipeline,
		logger:   logger,
		onDrain:  cfg.OnDrain,
	}
}

// outputs holds one encoder per direction.
type outputs [2]*jsonrpc.Encoder

func (o outputs) to(dir Direction) *jsonrpc.Encoder {
	return o[dir]
}

// Run relays messages until both pumps stop.
//
// Inputs:
//
//	ctx - Cancelling ctx drains both pumps.
//	s - The editor and server streams.
//
// Outputs:
//
//	error - Nil when both sides closed cleanly. Otherwise the failures of
//	        the client pump and the server pump, joined in that order.
func (t *Transport) Run(ctx context.Context, s Streams) error {
	if ctx == nil {
		return fmt.Errorf("ctx must not be nil")
	}

	var out outputs
	out[ToServer] = jsonrpc.NewEncoder(s.ServerIn)
	out[ToClient] = jsonrpc.NewEncoder(s.ClientOut)

	// A failed pump cancels gctx, which stops the client pump. The server
	// pump runs on ctx so it can flush what the server sends after the
	// editor side is gone.
	g, gctx := errgroup.WithContext(ctx)
	clientCtx, stopClient := context.WithCancel(gctx)
	defer stopClient()

	var clientErr, serverErr error

	g.Go(func() error {
		clientErr = t.pump(clientCtx, ToServer, jsonrpc.NewDecoder(s.ClientIn), out)
		t.drain(ToServer, clientErr)
		if err := s.ServerIn.Close(); err != nil && !IsGracefulClose(err) {
			t.logger.Warn("Closing server input failed", slog.String("error", err.Error()))
		}
		return clientErr
	})

	g.Go(func() error {
		serverErr = t.pump(ctx, ToClient, jsonrpc.NewDecoder(s.ServerOut), out)
		t.drain(ToClient, serverErr)
		// A clean server exit leaves gctx alive, so stop the client here.
		stopClient()
		return serverErr
	})

	if err := g.Wait(); err == nil {
		return nil
	}

	if clientErr != nil {
		recordPumpFailure(ctx, ToServer)
		clientErr = fmt.Errorf("client pump: %w", clientErr)
	}
	if serverErr != nil {
		recordPumpFailure(ctx, ToClient)
		serverErr = fmt.Errorf("server pump: %w", serverErr)
	}
	return errors.Join(clientErr, serverErr)
}

// drain notes that a pump stopped and fires OnDrain for the first one.
func (t *Transport) drain(dir Direction, err error) {
	if err != nil {
		t.logger.Error("Pump stopped",
			slog.String("direction", dir.String()),
			slog.String("error", err.Error()),
		)
	} else {
		t.logger.Info("Pump stopped", slog.String("direction", dir.String()))
	}
	t.drainOnce.Do(func() {
		if t.onDrain != nil {
			t.onDrain()
		}
	})
}

type decoded struct {
	msg jsonrpc.Message
	err error
}

// pump relays messages read by dec in direction dir.
//
// A reader goroutine feeds decoded messages over an unbuffered channel,
// so a cancelled pump stops waiting for input without interrupting a
// write. The reader exits on its next read error or when the pump is gone.
func (t *Transport) pump(ctx context.Context, dir Direction, dec *jsonrpc.Decoder, out outputs) error {
	next := make(chan decoded)
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			msg, err := dec.Decode()
			select {
			case next <- decoded{msg: msg, err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case d := <-next:
			if d.err != nil {
				if IsGracefulClose(d.err) {
					return nil
				}
				return d.err
			}
			if err := t.cycle(ctx, dir, d.msg, out); err != nil {
				if IsGracefulClose(err) {
					return nil
				}
				return err
			}
		}
	}
}

// cycle dispatches one message and writes the result.
func (t *Transport) cycle(ctx context.Context, dir Direction, msg jsonrpc.Message, out outputs) error {
	outcome, err := t.pipeline.Dispatch(ctx, dir, msg)
	if err != nil {
		return err
	}

	if !outcome.Suppressed() {
		if err := out.to(dir).Encode(outcome.Primary); err != nil {
			return err
		}
	}

	for _, extra := range outcome.Extras {
		err := out.to(extra.Direction).Encode(extra.Message)
		if err == nil {
			continue
		}
		// The other side may already be closed while this pump drains.
		if extra.Direction != dir && IsGracefulClose(err) {
			t.logger.Warn("Dropped message for closed stream",
				slog.String("direction", extra.Direction.String()),
				slog.String("method", jsonrpc.MethodOf(extra.Message)),
			)
			continue
		}
		return err
	}
	return nil
}
