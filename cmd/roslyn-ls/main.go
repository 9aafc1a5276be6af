// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command roslyn-ls runs the Roslyn language server behind a proxy that
// adapts it to editors speaking plain LSP over stdio.
package main

import (
	"fmt"
	"os"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// stdout carries LSP traffic, so errors only ever go to stderr.
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "roslyn-ls: %v\n", err)
		os.Exit(1)
	}
}
