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
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	solutionExt = ".sln"
	projectExt  = ".csproj"
)

// DefaultSkipDirs are directory names never searched. Hidden directories
// are always skipped as well.
var DefaultSkipDirs = []string{"bin", "obj", "node_modules"}

// DiscoverOptions tunes the workspace search.
type DiscoverOptions struct {
	// SkipDirs are directory names not descended into.
	// Default: DefaultSkipDirs
	SkipDirs []string

	// MaxDepth limits how many directory levels below the root are
	// searched. Zero means unlimited.
	MaxDepth int
}

// Discovery lists the solution and project files under a root, each list
// ordered shallowest first, then lexicographically.
type Discovery struct {
	Root      string
	Solutions []string
	Projects  []string
}

// Target picks the solution if any was found, else all projects. Paths
// are converted to file URIs.
//
// Outputs:
//
//	Target - The chosen target.
//	bool - False if nothing was found.
func (d Discovery) Target() (Target, bool) {
	if len(d.Solutions) > 0 {
		return Solution(PathToURI(d.Solutions[0])), true
	}
	if len(d.Projects) > 0 {
		uris := make([]string, len(d.Projects))
		for i, p := range d.Projects {
			uris[i] = PathToURI(p)
		}
		return Projects(uris...), true
	}
	return Target{}, false
}

// Discover searches root for solution and project files.
//
// Description:
//
//	Walks the tree below root, skipping hidden directories and the
//	configured skip list. Unreadable subdirectories are ignored; an
//	unreadable root is an error.
//
// Inputs:
//
//	root - Directory to search. Made absolute before walking.
//	opts - Search options.
//
// Outputs:
//
//	Discovery - The files found, possibly none.
//	error - Non-nil if root cannot be read or is not a directory.
func Discover(root string, opts DiscoverOptions) (Discovery, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Discovery{}, fmt.Errorf("resolve workspace root %q: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Discovery{}, fmt.Errorf("stat workspace root: %w", err)
	}
	if !info.IsDir() {
		return Discovery{}, fmt.Errorf("workspace root %q is not a directory", abs)
	}

	skip := opts.SkipDirs
	if skip == nil {
		skip = DefaultSkipDirs
	}
	skipSet := make(map[string]struct{}, len(skip))
	for _, name := range skip {
		skipSet[name] = struct{}{}
	}

	d := Discovery{Root: abs}
	walkErr := filepath.WalkDir(abs, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == abs {
				return err
			}
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if entry.IsDir() {
			if path == abs {
				return nil
			}
			name := entry.Name()
			if _, ok := skipSet[name]; ok || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if opts.MaxDepth > 0 && depth(abs, path) > opts.MaxDepth {
				return filepath.SkipDir
			}
			return nil
		}

		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case solutionExt:
			d.Solutions = append(d.Solutions, path)
		case projectExt:
			d.Projects = append(d.Projects, path)
		}
		return nil
	})
	if walkErr != nil {
		return Discovery{}, fmt.Errorf("search workspace %q: %w", abs, walkErr)
	}

	sortShallowFirst(abs, d.Solutions)
	sortShallowFirst(abs, d.Projects)
	return d, nil
}

// depth counts directories between root and path.
func depth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(filepath.ToSlash(rel), "/") + 1
}

func sortShallowFirst(root string, paths []string) {
	sort.SliceStable(paths, func(i, j int) bool {
		di, dj := depth(root, paths[i]), depth(root, paths[j])
		if di != dj {
			return di < dj
		}
		return paths[i] < paths[j]
	})
}
