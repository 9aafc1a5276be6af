// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/MikhailSiarko/roslyn-language-server/services/proxy"
	"github.com/MikhailSiarko/roslyn-language-server/services/proxy/jsonrpc"
	"github.com/MikhailSiarko/roslyn-language-server/services/proxy/workspace"
)

// Initialize tells the server which solution or projects to load.
//
// Description:
//
//	Forwards the editor's initialize request unchanged and follows it with
//	a solution/open or project/open notification to the server. The
//	target comes from the resolver, searching the request's root when
//	nothing is configured. The notification is sent once per session.
//
// Errors:
//
//	Returns proxy.ErrConfiguration when no target can be resolved.
type Initialize struct {
	proxy.Passthrough

	resolver workspace.Resolver
	logger   *slog.Logger
	sent     atomic.Bool
}

// NewInitialize creates the hook.
func NewInitialize(resolver workspace.Resolver, logger *slog.Logger) *Initialize {
	if logger == nil {
		logger = slog.Default()
	}
	return &Initialize{resolver: resolver, logger: logger}
}

// OnRequest implements proxy.Hook.
func (h *Initialize) OnRequest(_ context.Context, req *jsonrpc.Request) (proxy.Outcome, error) {
	if h.sent.Load() {
		return proxy.Forward(req), nil
	}

	root := workspaceRoot(req.Params)
	target, err := h.resolver.Resolve(root)
	if err != nil {
		return proxy.Outcome{}, fmt.Errorf("%w: %w", proxy.ErrConfiguration, err)
	}

	open, err := target.Notification()
	if err != nil {
		return proxy.Outcome{}, fmt.Errorf("%w: %w", proxy.ErrConfiguration, err)
	}
	h.sent.Store(true)

	h.logger.Info("Opening workspace",
		slog.String("method", open.Method),
		slog.String("target", target.String()),
		slog.String("root", root),
	)
	return proxy.Forward(req).With(proxy.ToServer, open), nil
}
