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
	"errors"
	"io"
	"os"
	"syscall"
)

// Sentinel errors for proxy sessions.
var (
	// ErrConfiguration indicates no solution or project could be resolved
	// for the workspace, or the session was configured inconsistently.
	// Hooks return it to stop the session.
	ErrConfiguration = errors.New("proxy configuration error")

	// ErrHook indicates a hook could not produce an outcome for a message.
	ErrHook = errors.New("hook failed")
)

// IsGracefulClose reports whether err means the peer closed its stream.
//
// Clean end of input and writes to a closed pipe end a pump quietly.
func IsGracefulClose(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, os.ErrClosed) ||
		errors.Is(err, syscall.EPIPE)
}
