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

	"github.com/google/uuid"
	"github.com/tidwall/sjson"

	"github.com/MikhailSiarko/roslyn-language-server/services/proxy"
	"github.com/MikhailSiarko/roslyn-language-server/services/proxy/jsonrpc"
)

// RoslynNeedsRestore answers the server's restore prompt by asking it to
// restore right away.
//
// Each notification produces one workspace/_roslyn_restore request with
// a fresh random partialResultToken.
type RoslynNeedsRestore struct {
	proxy.Passthrough

	ids     *proxy.IDAllocator
	forward bool
	token   func() (string, error)
}

// NewRoslynNeedsRestore creates the hook. With forward unset the
// notification is not passed on to the editor.
func NewRoslynNeedsRestore(ids *proxy.IDAllocator, forward bool) *RoslynNeedsRestore {
	return &RoslynNeedsRestore{ids: ids, forward: forward, token: NewRestoreToken}
}

// NewRestoreToken returns a random version 4 UUID in canonical lowercase form.
func NewRestoreToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate restore token: %w", err)
	}
	return id.String(), nil
}

// OnNotification implements proxy.Hook.
func (h *RoslynNeedsRestore) OnNotification(_ context.Context, n *jsonrpc.Notification) (proxy.Outcome, error) {
	token, err := h.token()
	if err != nil {
		return proxy.Outcome{}, err
	}
	params, err := sjson.SetBytes([]byte(`{}`), "partialResultToken", token)
	if err != nil {
		return proxy.Outcome{}, fmt.Errorf("build %s params: %w", MethodRestore, err)
	}
	restore := &jsonrpc.Request{ID: h.ids.Next(), Method: MethodRestore, Params: params}

	out := proxy.Suppress()
	if h.forward {
		out = proxy.Forward(n)
	}
	return out.With(proxy.ToServer, restore), nil
}
