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
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/MikhailSiarko/roslyn-language-server/services/proxy/jsonrpc"
)

// PipelineConfig configures a Pipeline.
type PipelineConfig struct {
	// Logger receives hook failures and suppressed responses.
	// Default: slog.Default()
	Logger *slog.Logger

	// StrictHooks makes every hook error fatal to the pump that saw it.
	// Default: false (log and forward the message unchanged)
	StrictHooks bool
}

// Pipeline dispatches messages to the hooks registered for their method.
//
// Description:
//
//	Hooks are registered under an exact method name and run in
//	registration order. Every request that passes through is recorded in
//	the CorrelationTable so its response can be matched; every response
//	resolves its entry. Responses to requests the proxy made up itself
//	are consumed here.
//
// Thread Safety:
//
//	Register must be called before the first Dispatch. Dispatch is safe
//	for concurrent use by both pumps.
type Pipeline struct {
	hooks  map[string][]Hook
	table  *CorrelationTable
	logger *slog.Logger
	strict bool
}

// NewPipeline creates a pipeline that records requests in table.
func NewPipeline(table *CorrelationTable, cfg PipelineConfig) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		hooks:  make(map[string][]Hook),
		table:  table,
		logger: logger,
		strict: cfg.StrictHooks,
	}
}

// Register adds hook for method after any hooks already registered for it.
func (p *Pipeline) Register(method string, hook Hook) {
	p.hooks[method] = append(p.hooks[method], hook)
}

// Methods returns the number of methods with at least one hook.
func (p *Pipeline) Methods() int {
	return len(p.hooks)
}

// Dispatch runs msg, travelling in dir, through its hooks.
//
// Inputs:
//
//	ctx - Context passed to hooks.
//	dir - Direction msg is travelling.
//	msg - The decoded message.
//
// Outputs:
//
//	Outcome - What to write: the primary in dir, extras in their own
//	          directions. Extra requests are already recorded as
//	          synthetic in the CorrelationTable.
//	error - Non-nil only when the message must stop the pump: a hook
//	        returned ErrConfiguration, or any hook failed under StrictHooks.
func (p *Pipeline) Dispatch(ctx context.Context, dir Direction, msg jsonrpc.Message) (Outcome, error) {
	ctx, span := startDispatchSpan(ctx, dir, msg)
	defer span.End()
	start := time.Now()

	var (
		out Outcome
		err error
	)
	switch m := msg.(type) {
	case *jsonrpc.Request:
		out, err = p.run(ctx, m.Method, msg)
	case *jsonrpc.Notification:
		out, err = p.run(ctx, m.Method, msg)
	case *jsonrpc.Response:
		out, err = p.dispatchResponse(ctx, dir, m)
	default:
		err = fmt.Errorf("%w: unsupported message type %T", ErrHook, msg)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Outcome{}, err
	}

	if req, ok := out.Primary.(*jsonrpc.Request); ok {
		if !p.table.Track(dir, req.ID, req.Method, false) {
			p.logger.Warn("Request id collides with a proxy request, its response will be consumed",
				slog.String("direction", dir.String()),
				slog.String("method", req.Method),
				slog.String("id", req.ID.String()),
			)
		}
	}
	for _, extra := range out.Extras {
		if req, ok := extra.Message.(*jsonrpc.Request); ok {
			p.table.Track(extra.Direction, req.ID, req.Method, true)
		}
		recordSynthetic(ctx, extra.Direction, jsonrpc.MethodOf(extra.Message))
	}

	recordDispatch(ctx, dir, msg, time.Since(start))
	return out, nil
}

// dispatchResponse matches a response against the request it answers.
func (p *Pipeline) dispatchResponse(ctx context.Context, dir Direction, resp *jsonrpc.Response) (Outcome, error) {
	pending, ok := p.table.Resolve(dir.Reverse(), resp.ID)
	if !ok {
		return Forward(resp), nil
	}
	if pending.Synthetic {
		p.logger.Debug("Consumed response to proxy request",
			slog.String("method", pending.Method),
			slog.String("id", resp.ID.String()),
			slog.Bool("error", resp.Error != nil),
		)
		return Suppress(), nil
	}
	return p.run(ctx, pending.Method, resp)
}

// run invokes the hooks registered for method on msg.
func (p *Pipeline) run(ctx context.Context, method string, msg jsonrpc.Message) (Outcome, error) {
	hooks := p.hooks[method]
	out := Forward(msg)

	for _, hook := range hooks {
		if out.Suppressed() {
			break
		}

		next, err := invoke(ctx, hook, method, out.Primary)
		if err != nil {
			if errors.Is(err, ErrConfiguration) {
				recordHook(ctx, method, "fatal")
				return Outcome{}, err
			}
			recordHook(ctx, method, "error")
			hookErr := fmt.Errorf("%w: %T on %s: %w", ErrHook, hook, method, err)
			if p.strict {
				return Outcome{}, hookErr
			}
			p.logger.Warn("Hook failed, forwarding message unchanged",
				slog.String("method", method),
				slog.String("error", hookErr.Error()),
			)
			continue
		}
		recordHook(ctx, method, "ok")

		extras := make([]Outbound, 0, len(out.Extras)+len(next.Extras))
		extras = append(extras, out.Extras...)
		extras = append(extras, next.Extras...)
		out = Outcome{Primary: next.Primary, Extras: extras}
	}
	return out, nil
}

// invoke calls the hook method matching the shape of msg.
func invoke(ctx context.Context, hook Hook, method string, msg jsonrpc.Message) (Outcome, error) {
	switch m := msg.(type) {
	case *jsonrpc.Request:
		return hook.OnRequest(ctx, m)
	case *jsonrpc.Notification:
		return hook.OnNotification(ctx, m)
	case *jsonrpc.Response:
		if rh, ok := hook.(ResponseHook); ok {
			return rh.OnResponse(ctx, method, m)
		}
		return Forward(m), nil
	default:
		return Forward(msg), nil
	}
}
