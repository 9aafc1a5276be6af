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

import "sync"

// State is the per-session view of what the editor has open.
//
// Description:
//
//	Tracks the most recently opened document that has not been closed.
//	Written by the didOpen and didClose hooks on the client pump, read by
//	hooks on the server pump.
//
// Thread Safety:
//
//	Safe for concurrent use. The lock is held for a single access.
type State struct {
	mu       sync.RWMutex
	document string
	open     bool
}

// NewState creates a state with no open document.
func NewState() *State {
	return &State{}
}

// OpenedDocument returns the tracked document URI, if any.
func (s *State) OpenedDocument() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.document, s.open
}

// Open replaces the tracked document with uri.
func (s *State) Open(uri string) {
	s.mu.Lock()
	s.document = uri
	s.open = true
	s.mu.Unlock()
}

// Close forgets the tracked document if it equals uri. A close for any
// other document is stale and leaves the state unchanged.
//
// Outputs:
//
//	bool - True if the tracked document was cleared.
func (s *State) Close(uri string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open || s.document != uri {
		return false
	}
	s.document = ""
	s.open = false
	return true
}
