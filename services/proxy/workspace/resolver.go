// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package workspace

import (
	"fmt"
)

// Resolver picks the Target for a session.
//
// Description:
//
//	Priority, highest first:
//	  1. SolutionPath
//	  2. ProjectPaths
//	  3. the shallowest solution found by searching the workspace
//	  4. every project found by searching the workspace
//	The workspace is WorkingDir when set, otherwise the root the editor
//	names in its initialize request. Explicit paths are passed to the
//	server verbatim; discovered files are sent as file URIs.
//
// Thread Safety:
//
//	Resolver is a read-only value and safe for concurrent use.
type Resolver struct {
	// SolutionPath is an explicitly configured solution.
	SolutionPath string

	// ProjectPaths are explicitly configured projects.
	ProjectPaths []string

	// WorkingDir is searched instead of the editor's workspace root.
	WorkingDir string

	// Options tunes the search.
	Options DiscoverOptions
}

// Explicit returns the configured target, if any, without touching the
// filesystem.
func (r Resolver) Explicit() (Target, bool) {
	if r.SolutionPath != "" {
		return Solution(r.SolutionPath), true
	}
	if len(r.ProjectPaths) > 0 {
		return Projects(r.ProjectPaths...), true
	}
	return Target{}, false
}

// Static resolves the target from configuration alone.
//
// Outputs:
//
//	Target - The resolved target when bool is true.
//	bool - False when the target depends on the editor's workspace root.
//	error - ErrNoTarget if WorkingDir holds nothing, or a search failure.
func (r Resolver) Static() (Target, bool, error) {
	if t, ok := r.Explicit(); ok {
		return t, true, nil
	}
	if r.WorkingDir == "" {
		return Target{}, false, nil
	}
	t, err := r.discover(r.WorkingDir)
	if err != nil {
		return Target{}, false, err
	}
	return t, true, nil
}

// Resolve returns the target for a session whose editor reported root.
//
// Inputs:
//
//	root - Workspace root from the initialize request, as a file URI or a
//	       path. May be empty.
//
// Outputs:
//
//	Target - The resolved target.
//	error - ErrNoTarget if nothing is configured and nothing is found.
func (r Resolver) Resolve(root string) (Target, error) {
	t, ok, err := r.Static()
	if err != nil || ok {
		return t, err
	}
	if root == "" {
		return Target{}, fmt.Errorf("%w: no workspace root in initialize request and none configured", ErrNoTarget)
	}
	dir, err := URIToPath(root)
	if err != nil {
		return Target{}, fmt.Errorf("workspace root: %w", err)
	}
	return r.discover(dir)
}

func (r Resolver) discover(dir string) (Target, error) {
	d, err := Discover(dir, r.Options)
	if err != nil {
		return Target{}, err
	}
	t, ok := d.Target()
	if !ok {
		return Target{}, fmt.Errorf("%w under %s", ErrNoTarget, d.Root)
	}
	return t, nil
}
