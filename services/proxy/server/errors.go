// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package server

import "errors"

var (
	// ErrProcessSpawn indicates the language server could not be started.
	ErrProcessSpawn = errors.New("language server spawn failed")

	// ErrAlreadyStarted is returned by Start on a supervisor that was
	// already started.
	ErrAlreadyStarted = errors.New("language server already started")

	// ErrNotStarted is returned when streams are requested before Start.
	ErrNotStarted = errors.New("language server not started")
)
