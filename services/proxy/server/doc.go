// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package server locates and runs the Roslyn language server.
//
// ResolveBinary maps a server path to the program to execute, picking the
// build for the host's .NET runtime identifier from an unpacked server
// package. Supervisor runs that program as a child process speaking LSP
// over stdio and makes sure it does not outlive the proxy.
package server
