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

	"github.com/MikhailSiarko/roslyn-language-server/services/proxy/jsonrpc"
)

// =============================================================================
// DIRECTION
// =============================================================================

// Direction is the way a message travels through the proxy.
type Direction int

const (
	// ToServer is editor to language server.
	ToServer Direction = iota

	// ToClient is language server to editor.
	ToClient
)

// String returns the direction name used in logs and metric attributes.
func (d Direction) String() string {
	switch d {
	case ToServer:
		return "to_server"
	case ToClient:
		return "to_client"
	default:
		return "unknown"
	}
}

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction {
	if d == ToServer {
		return ToClient
	}
	return ToServer
}

// =============================================================================
// OUTCOME
// =============================================================================

// Outbound is a message paired with the direction it must be written in.
type Outbound struct {
	Direction Direction
	Message   jsonrpc.Message
}

// Outcome is the result of dispatching one message.
//
// Description:
//
//	Primary replaces the dispatched message and keeps its direction. A nil
//	Primary suppresses it. Extras are written after the primary, in order,
//	each toward its own direction, and are never dispatched again.
type Outcome struct {
	Primary jsonrpc.Message
	Extras  []Outbound
}

// Forward returns an outcome that passes msg through with no extras.
func Forward(msg jsonrpc.Message) Outcome {
	return Outcome{Primary: msg}
}

// Suppress returns an outcome that drops the dispatched message.
func Suppress() Outcome {
	return Outcome{}
}

// With returns a copy of o with one more extra appended.
func (o Outcome) With(dir Direction, msg jsonrpc.Message) Outcome {
	extras := make([]Outbound, 0, len(o.Extras)+1)
	extras = append(extras, o.Extras...)
	o.Extras = append(extras, Outbound{Direction: dir, Message: msg})
	return o
}

// Suppressed reports whether the primary message is dropped.
func (o Outcome) Suppressed() bool {
	return o.Primary == nil
}

// =============================================================================
// HOOK
// =============================================================================

// Hook intercepts messages of the methods it is registered for.
//
// Description:
//
//	A hook receives the current primary message, which may already have
//	been rewritten by hooks registered before it. Embed Passthrough to get
//	forward-unchanged defaults and implement only the shapes of interest.
//
// Errors:
//
//	Returning an error wrapping ErrConfiguration stops the session.
//	Any other error is logged and the message passes through unchanged,
//	unless the pipeline runs with StrictHooks.
type Hook interface {
	OnRequest(ctx context.Context, req *jsonrpc.Request) (Outcome, error)
	OnNotification(ctx context.Context, n *jsonrpc.Notification) (Outcome, error)
}

// ResponseHook is implemented by hooks that want to see responses to the
// requests of the method they are registered for.
type ResponseHook interface {
	OnResponse(ctx context.Context, method string, resp *jsonrpc.Response) (Outcome, error)
}

// Passthrough forwards every message unchanged.
type Passthrough struct{}

// OnRequest implements Hook.
func (Passthrough) OnRequest(_ context.Context, req *jsonrpc.Request) (Outcome, error) {
	return Forward(req), nil
}

// OnNotification implements Hook.
func (Passthrough) OnNotification(_ context.Context, n *jsonrpc.Notification) (Outcome, error) {
	return Forward(n), nil
}

var _ Hook = Passthrough{}
