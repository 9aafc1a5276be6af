// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package proxy relays LSP traffic between an editor and the Roslyn
// language server, rewriting a handful of methods on the way.
//
// # Architecture
//
//	┌────────┐  stdin   ┌──────────────────────────────┐  stdin   ┌────────┐
//	│ editor │ ───────► │ client pump ─► Pipeline ─┐   │ ───────► │ Roslyn │
//	│        │ ◄─────── │ server pump ◄─ Pipeline ◄┘   │ ◄─────── │        │
//	└────────┘  stdout  └──────────────────────────────┘  stdout  └────────┘
//
// # Components
//
//   - Pipeline: method-keyed hook registry; turns one message into a primary
//     message plus extras
//   - CorrelationTable: request id to method, per direction
//   - State: the document most recently opened by the editor
//   - IDAllocator: ids for requests the proxy makes up itself
//   - Transport: the two pumps and the drain protocol between them
//
// # Thread Safety
//
// Pipeline registration must finish before Transport.Run. After that every
// exported type is safe for use by both pumps.
//
// # Example
//
//	state := proxy.NewState()
//	table := proxy.NewCorrelationTable()
//	pipeline := proxy.NewPipeline(table, proxy.PipelineConfig{Logger: logger})
//	pipeline.Register("textDocument/didOpen", hooks.NewDocumentDidOpen(state, ids, false))
//
//	transport := proxy.NewTransport(pipeline, proxy.TransportConfig{Logger: logger})
//	err := transport.Run(ctx, proxy.Streams{...})
package proxy
