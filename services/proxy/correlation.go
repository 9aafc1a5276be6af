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
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/MikhailSiarko/roslyn-language-server/services/proxy/jsonrpc"
)

// Pending describes a request that has not been answered yet.
type Pending struct {
	// Method is the method of the request.
	Method string

	// Synthetic is true when the proxy made the request up itself, in which
	// case the answer is consumed by the proxy and never forwarded.
	Synthetic bool
}

type pendingKey struct {
	origin Direction
	id     jsonrpc.ID
}

// CorrelationTable maps outstanding request ids to their methods.
//
// Description:
//
//	The editor and the server number their requests independently, so
//	entries are keyed by the direction the request travelled as well as
//	by id. Entries whose response never arrives stay until the session
//	ends.
//
// Thread Safety:
//
//	Safe for concurrent use. The lock is held for a single map access.
type CorrelationTable struct {
	mu      sync.Mutex
	pending map[pendingKey]Pending
}

// NewCorrelationTable creates an empty table.
func NewCorrelationTable() *CorrelationTable {
	return &CorrelationTable{pending: make(map[pendingKey]Pending)}
}

// Track records a request travelling in origin.
//
// A forwarded request never replaces an outstanding proxy request with the
// same id; Track keeps the proxy entry and returns false so the caller can
// report the collision. In every other case it returns true.
func (c *CorrelationTable) Track(origin Direction, id jsonrpc.ID, method string, synthetic bool) bool {
	key := pendingKey{origin: origin, id: id}

	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.pending[key]; ok && prev.Synthetic && !synthetic {
		return false
	}
	c.pending[key] = Pending{Method: method, Synthetic: synthetic}
	return true
}

// Resolve removes and returns the entry for a request that travelled in
// origin. The matching response travels the opposite way.
func (c *CorrelationTable) Resolve(origin Direction, id jsonrpc.ID) (Pending, bool) {
	key := pendingKey{origin: origin, id: id}

	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.pending[key]
	if ok {
		delete(c.pending, key)
	}
	return p, ok
}

// Len returns the number of outstanding requests.
func (c *CorrelationTable) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// =============================================================================
// SYNTHETIC IDS
// =============================================================================

// SyntheticIDPrefix starts every id the proxy allocates.
const SyntheticIDPrefix = "roslyn-ls/"

// IDAllocator hands out ids for proxy-made requests.
//
// Description:
//
//	Ids have the form roslyn-ls/<nonce>/<n>. The nonce is random per
//	allocator, so an editor that happens to use string ids under
//	SyntheticIDPrefix still cannot predict the ids of one session.
//
// Thread Safety:
//
//	Safe for concurrent use.
type IDAllocator struct {
	prefix string
	next   atomic.Int64
}

// NewIDAllocator creates an allocator starting at 1 with a fresh nonce.
func NewIDAllocator() *IDAllocator {
	nonce := uuid.NewString()[:8]
	return &IDAllocator{prefix: SyntheticIDPrefix + nonce + "/"}
}

// Prefix returns the string every id of this allocator starts with.
func (a *IDAllocator) Prefix() string {
	return a.prefix
}

// Next returns a fresh id.
func (a *IDAllocator) Next() jsonrpc.ID {
	return jsonrpc.StringID(a.prefix + strconv.FormatInt(a.next.Add(1), 10))
}
