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

// RemoveParams drops the params of a message. Roslyn sends params with
// its refresh requests that some editors reject.
type RemoveParams struct{}

// OnRequest implements proxy.Hook.
func (RemoveParams) OnRequest(_ context.Context, req *jsonrpc.Request) (proxy.Outcome, error) {
	if req.Params == nil {
		return proxy.Forward(req), nil
	}
	return proxy.Forward(&jsonrpc.Request{ID: req.ID, Method: req.Method}), nil
}

// OnNotification implements proxy.Hook.
func (RemoveParams) OnNotification(_ context.Context, n *jsonrpc.Notification) (proxy.Outcome, error) {
	if n.Params == nil {
		return proxy.Forward(n), nil
	}
	return proxy.Forward(&jsonrpc.Notification{Method: n.Method}), nil
}

var _ proxy.Hook = RemoveParams{}
