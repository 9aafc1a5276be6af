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

	"github.com/MikhailSiarko/roslyn-language-server/services/proxy"
	"github.com/MikhailSiarko/roslyn-language-server/services/proxy/jsonrpc"
)

// ProjectInitializationComplete refreshes diagnostics for the open
// document once the server has finished loading projects.
//
// Editors open a document before the server has loaded it, so the first
// diagnostics they see are empty. When loading completes this hook sends
// a pull diagnostic request for the tracked document.
type ProjectInitializationComplete struct {
	proxy.Passthrough

	state    *proxy.State
	ids      *proxy.IDAllocator
	suppress bool
}

// NewProjectInitializationComplete creates the hook. With suppress set the
// notification is not forwarded to the editor when a request was sent.
func NewProjectInitializationComplete(state *proxy.State, ids *proxy.IDAllocator, suppress bool) *ProjectInitializationComplete {
	return &ProjectInitializationComplete{state: state, ids: ids, suppress: suppress}
}

// OnNotification implements proxy.Hook.
func (h *ProjectInitializationComplete) OnNotification(_ context.Context, n *jsonrpc.Notification) (proxy.Outcome, error) {
	uri, ok := h.state.OpenedDocument()
	if !ok {
		return proxy.Forward(n), nil
	}

	req, err := diagnosticRequest(h.ids, uri)
	if err != nil {
		return proxy.Outcome{}, err
	}

	out := proxy.Forward(n)
	if h.suppress {
		out = proxy.Suppress()
	}
	return out.With(proxy.ToServer, req), nil
}
