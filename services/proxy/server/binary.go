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

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// serverName is the file name of the Roslyn language server, without
// extension.
const serverName = "Microsoft.CodeAnalysis.LanguageServer"

// dotnetHost runs framework-dependent server builds.
const dotnetHost = "dotnet"

// muslLoaderGlob matches the musl dynamic loader on musl based distros.
var muslLoaderGlob = "/lib/ld-musl-*.so.1"

// =============================================================================
// PLATFORM
// =============================================================================

// Platform identifies the host a server build must match.
type Platform struct {
	// OS is a GOOS value.
	OS string

	// Arch is a GOARCH value.
	Arch string

	// Musl is true on Linux hosts using the musl C library.
	Musl bool
}

// CurrentPlatform describes the running host.
func CurrentPlatform() Platform {
	p := Platform{OS: runtime.GOOS, Arch: runtime.GOARCH}
	if p.OS == "linux" {
		matches, _ := filepath.Glob(muslLoaderGlob)
		p.Musl = len(matches) > 0
	}
	return p
}

// RID returns the .NET runtime identifier of the platform, or "neutral"
// when no platform specific build exists for it.
func (p Platform) RID() string {
	var arch string
	switch p.Arch {
	case "amd64":
		arch = "x64"
	case "arm64":
		arch = "arm64"
	default:
		return "neutral"
	}

	switch p.OS {
	case "windows":
		return "win-" + arch
	case "linux":
		if p.Musl {
			return "linux-" + arch + "-musl"
		}
		return "linux-" + arch
	case "darwin":
		return "osx-" + arch
	default:
		return "neutral"
	}
}

// serverFile returns the server file name for the platform's build.
func (p Platform) serverFile() string {
	switch {
	case p.RID() == "neutral", p.OS == "darwin":
		return serverName + ".dll"
	case p.OS == "windows":
		return serverName + ".exe"
	default:
		return serverName
	}
}

// =============================================================================
// BINARY
// =============================================================================

// Binary is a resolved way to start the language server.
type Binary struct {
	// Path is the program to execute.
	Path string

	// Args are passed before any per-launch arguments.
	Args []string
}

// String returns the command line prefix.
func (b Binary) String() string {
	return strings.Join(append([]string{b.Path}, b.Args...), " ")
}

// Command builds the command that starts the server with extra args.
func (b Binary) Command(args ...string) *exec.Cmd {
	all := make([]string, 0, len(b.Args)+len(args))
	all = append(all, b.Args...)
	all = append(all, args...)
	return exec.Command(b.Path, all...)
}

// ResolveBinary finds the server to run under serverPath.
//
// Description:
//
//	A file is run directly, or through "dotnet exec" when it is a .dll.
//	A directory is treated as an unpacked server package and resolved to
//	content/LanguageServer/<rid>/ for the platform.
//
// Errors:
//
//	ErrProcessSpawn - serverPath or the platform's server file is missing.
func ResolveBinary(serverPath string, p Platform) (Binary, error) {
	info, err := os.Stat(serverPath)
	if err != nil {
		return Binary{}, fmt.Errorf("%w: language server path %q: %w", ErrProcessSpawn, serverPath, err)
	}

	path := serverPath
	if info.IsDir() {
		path = filepath.Join(serverPath, "content", "LanguageServer", p.RID(), p.serverFile())
		if _, err := os.Stat(path); err != nil {
			return Binary{}, fmt.Errorf("%w: no %s build in %q: %w", ErrProcessSpawn, p.RID(), serverPath, err)
		}
	}

	if strings.EqualFold(filepath.Ext(path), ".dll") {
		return Binary{Path: dotnetHost, Args: []string{"exec", path}}, nil
	}
	return Binary{Path: path}, nil
}

// DefaultLogsDir returns the directory the server writes its own logs to
// when none is configured: a "logs" directory next to the server.
func DefaultLogsDir(serverPath string) string {
	if info, err := os.Stat(serverPath); err == nil && info.IsDir() {
		return filepath.Join(serverPath, "logs")
	}
	return filepath.Join(filepath.Dir(serverPath), "logs")
}
