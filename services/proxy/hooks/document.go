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

// DocumentDidOpen records the opened document in the session state.
//
// With diagnose set it also asks the server for diagnostics of the
// document straight away.
type DocumentDidOpen struct {
	proxy.Passthrough

	state    *proxy.State
	ids      *proxy.IDAllocator
	diagnose bool
}

// NewDocumentDidOpen creates the hook.
func NewDocumentDidOpen(state *proxy.State, ids *proxy.IDAllocator, diagnose bool) *DocumentDidOpen {
	return &DocumentDidOpen{state: state, ids: ids, diagnose: diagnose}
}

// OnNotification implements proxy.Hook.
func (h *DocumentDidOpen) OnNotification(_ context.Context, n *jsonrpc.Notification) (proxy.Outcome, error) {
	uri, err := documentURI(n.Params)
	if err != nil {
		return proxy.Outcome{}, err
	}
	h.state.Open(uri)

	out := proxy.Forward(n)
	if !h.diagnose {
		return out, nil
	}
	req, err := diagnosticRequest(h.ids, uri)
	if err != nil {
		return proxy.Outcome{}, err
	}
	return out.With(proxy.ToServer, req), nil
}

// DocumentDidClose forgets the closed document if it is the tracked one.
type DocumentDidClose struct {
	proxy.Passthrough

	state *proxy.State
}

// NewDocumentDidClose creates the hook.
func NewDocumentDidClose(state *proxy.State) *DocumentDidClose {
	return &DocumentDidClose{state: state}
}

// OnNotification implements proxy.Hook.
func (h *DocumentDidClose) OnNotification(_ context.Context, n *jsonrpc.Notification) (proxy.Outcome, error) {
	uri, err := documentURI(n.Params)
	if err != nil {
		return proxy.Outcome{}, err
	}
	h.state.Close(uri)
	return proxy.Forward(n), nil
}
