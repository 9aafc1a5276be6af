// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package workspace decides which solution or projects the language
// server should load, from explicit configuration or by searching the
// workspace directory.
package workspace

import (
	"errors"
	"fmt"

	"github.com/tidwall/sjson"

	"github.com/MikhailSiarko/roslyn-language-server/services/proxy/jsonrpc"
)

// Methods the server understands for loading a workspace.
const (
	MethodSolutionOpen = "solution/open"
	MethodProjectOpen  = "project/open"
)

// ErrNoTarget indicates neither a solution nor a project could be found.
var ErrNoTarget = errors.New("no solution or project found")

// Target is the build unit the server loads: one solution or a list of
// projects. Entries are opaque strings, either paths or file URIs.
type Target struct {
	solution string
	projects []string
}

// Solution returns a target naming one solution.
func Solution(solution string) Target {
	return Target{solution: solution}
}

// Projects returns a target naming one or more projects.
func Projects(projects ...string) Target {
	return Target{projects: append([]string(nil), projects...)}
}

// IsZero reports whether the target names nothing.
func (t Target) IsZero() bool {
	return t.solution == "" && len(t.projects) == 0
}

// IsSolution reports whether the target is a solution.
func (t Target) IsSolution() bool {
	return t.solution != ""
}

// SolutionPath returns the solution, or "" for a project target.
func (t Target) SolutionPath() string {
	return t.solution
}

// ProjectPaths returns a copy of the projects, or nil for a solution target.
func (t Target) ProjectPaths() []string {
	return append([]string(nil), t.projects...)
}

// String renders the target for logs.
func (t Target) String() string {
	if t.IsSolution() {
		return "solution " + t.solution
	}
	return fmt.Sprintf("projects %v", t.projects)
}

// Notification builds the solution/open or project/open notification.
func (t Target) Notification() (*jsonrpc.Notification, error) {
	if t.IsZero() {
		return nil, ErrNoTarget
	}

	var (
		method string
		params []byte
		err    error
	)
	if t.IsSolution() {
		method = MethodSolutionOpen
		params, err = sjson.SetBytes([]byte(`{}`), "solution", t.solution)
	} else {
		method = MethodProjectOpen
		params, err = sjson.SetBytes([]byte(`{}`), "projects", t.projects)
	}
	if err != nil {
		return nil, fmt.Errorf("build %s params: %w", method, err)
	}
	return &jsonrpc.Notification{Method: method, Params: params}, nil
}
