// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package hooks holds the Roslyn specific message hooks.
//
// Roslyn speaks standard LSP with a few gaps: it waits for the editor to
// name a solution or project, it expects the editor to answer its restore
// prompts, and it does not refresh diagnostics for documents opened before
// project loading finished. The hooks here fill those gaps so an ordinary
// LSP editor can drive it.
package hooks

import (
	"log/slog"

	"github.com/MikhailSiarko/roslyn-language-server/services/proxy"
	"github.com/MikhailSiarko/roslyn-language-server/services/proxy/workspace"
)

// LSP and Roslyn method names the hooks are registered under.
const (
	MethodInitialize                    = "initialize"
	MethodDidOpen                       = "textDocument/didOpen"
	MethodDidClose                      = "textDocument/didClose"
	MethodDiagnostic                    = "textDocument/diagnostic"
	MethodProjectInitializationComplete = "workspace/projectInitializationComplete"
	MethodProjectNeedsRestore           = "workspace/_roslyn_projectNeedsRestore"
	MethodRestore                       = "workspace/_roslyn_restore"
	MethodDiagnosticRefresh             = "workspace/diagnostic/refresh"
	MethodInlayHintRefresh              = "workspace/inlayHint/refresh"
	MethodCodeLensRefresh               = "workspace/codeLens/refresh"
)

// Options selects the optional behaviors of the hooks.
type Options struct {
	// Resolver picks the solution or projects to open.
	Resolver workspace.Resolver

	// DiagnoseOnOpen requests diagnostics as soon as a document opens.
	DiagnoseOnOpen bool

	// SuppressProjectInitializationComplete hides the notification from the
	// editor when the proxy already asked for diagnostics.
	SuppressProjectInitializationComplete bool

	// ForwardRestoreNotification passes the restore prompt on to the editor
	// in addition to answering it.
	ForwardRestoreNotification bool

	// Logger is used by hooks that log.
	Logger *slog.Logger
}

// RegisterAll registers the Roslyn hooks on p.
func RegisterAll(p *proxy.Pipeline, state *proxy.State, ids *proxy.IDAllocator, opts Options) {
	p.Register(MethodInitialize, NewInitialize(opts.Resolver, opts.Logger))
	p.Register(MethodDidOpen, NewDocumentDidOpen(state, ids, opts.DiagnoseOnOpen))
	p.Register(MethodDidClose, NewDocumentDidClose(state))
	p.Register(MethodProjectInitializationComplete,
		NewProjectInitializationComplete(state, ids, opts.SuppressProjectInitializationComplete))
	p.Register(MethodProjectNeedsRestore, NewRoslynNeedsRestore(ids, opts.ForwardRestoreNotification))

	for _, method := range []string{MethodDiagnosticRefresh, MethodInlayHintRefresh, MethodCodeLensRefresh} {
		p.Register(method, RemoveParams{})
	}
}
