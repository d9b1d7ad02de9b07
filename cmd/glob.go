// Copyright © 2024 The wlscope authors

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/halirutan/wlscope/analysis"
)

// expandArgs expands arguments, resolving patterns ending with "/..." and
// directories to all source files found recursively below them.  Other
// arguments pass through unchanged.  Paths matching one of excludes are
// dropped.
func expandArgs(args []string, excludes []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		dir, recursive := strings.CutSuffix(arg, "/...")
		if recursive && dir == "" {
			dir = "."
		}
		if !recursive {
			if info, err := os.Stat(arg); err == nil && info.IsDir() {
				dir, recursive = arg, true
			}
		}
		if !recursive {
			out = append(out, arg)
			continue
		}
		files, err := analysis.ListSourceFiles(dir, func(path string) bool {
			return matchesAny(path, excludes)
		})
		if err != nil {
			return nil, fmt.Errorf("expanding %s: %w", arg, err)
		}
		out = append(out, files...)
	}
	return filterExcludes(out, excludes), nil
}

// filterExcludes removes paths matching any of the exclude patterns.
func filterExcludes(paths []string, excludes []string) []string {
	if len(excludes) == 0 {
		return paths
	}
	var out []string
	for _, p := range paths {
		if !matchesAny(p, excludes) {
			out = append(out, p)
		}
	}
	return out
}

// matchesAny reports whether path matches one of patterns, either as a
// whole or in one of its path components.
func matchesAny(path string, patterns []string) bool {
	path = filepath.ToSlash(filepath.Clean(path))
	components := splitPath(path)
	for _, pat := range patterns {
		if ok, _ := filepath.Match(pat, path); ok {
			return true
		}
		for _, c := range components {
			if ok, _ := filepath.Match(pat, c); ok {
				return true
			}
		}
	}
	return false
}

// splitPath returns the components of a slash separated path.
func splitPath(path string) []string {
	var out []string
	for _, c := range strings.Split(path, "/") {
		if c != "" && c != "." {
			out = append(out, c)
		}
	}
	return out
}
