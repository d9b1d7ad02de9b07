// Copyright © 2024 The wlscope authors

package analysis

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/halirutan/wlscope/parser"
	"github.com/halirutan/wlscope/parser/token"
)

// SourceExtensions lists the file extensions of Wolfram Language sources.
var SourceExtensions = []string{".wl", ".m", ".wls", ".wlt"}

// IsSourceFile reports whether path has a Wolfram Language extension.
func IsSourceFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SourceExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ExternalSymbol is a file-level definition found while scanning a
// workspace.
type ExternalSymbol struct {
	Name    string
	Context string
	File    string
	Source  *token.Location
}

// FileSummary holds what a workspace scan learns about one file.
type FileSummary struct {
	Path    string
	Symbols []ExternalSymbol
	// SyntaxErrors counts the syntax errors of the file.
	SyntaxErrors int
}

// SummarizeFile parses src and collects its file-level definitions.
func SummarizeFile(path string, src []byte) FileSummary {
	tree := parser.ParseFile(path, string(src))
	sum := FileSummary{Path: path, SyntaxErrors: len(tree.Errors)}
	for _, decl := range FileGlobals(tree.Root).Definitions() {
		sum.Symbols = append(sum.Symbols, ExternalSymbol{
			Name:    decl.Name,
			Context: decl.Context,
			File:    path,
			Source:  decl.Source,
		})
	}
	return sum
}

// ListSourceFiles returns the sorted source files below root.  Hidden
// directories are skipped, as are paths for which exclude returns true.
func ListSourceFiles(root string, exclude func(path string) bool) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable dirs
		}
		if exclude != nil && path != root && exclude(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if shouldSkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if IsSourceFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// shouldSkipDir returns true for hidden directories such as .git, but not
// for "." or "..".
func shouldSkipDir(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return len(name) > 0 && name[0] == '.'
}

// ScanFiles summarizes paths in parallel using up to jobs goroutines (all
// processors when jobs <= 0).  Unreadable files are skipped.  The result
// keeps the order of paths.
func ScanFiles(ctx context.Context, paths []string, jobs int) ([]FileSummary, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]*FileSummary, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))
	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			src, err := os.ReadFile(path) //nolint:gosec // CLI tool reads user-specified files
			if err != nil {
				filesScanned.WithLabelValues("error").Inc()
				log.Debugf("skipping %s: %v", path, err)
				return nil
			}
			sum := SummarizeFile(path, src)
			results[i] = &sum
			filesScanned.WithLabelValues("ok").Inc()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]FileSummary, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

// ScanWorkspace lists and summarizes every source file below root.
func ScanWorkspace(ctx context.Context, root string, exclude func(string) bool, jobs int) ([]FileSummary, error) {
	files, err := ListSourceFiles(root, exclude)
	if err != nil {
		return nil, err
	}
	sums, err := ScanFiles(ctx, files, jobs)
	if err != nil {
		return nil, err
	}
	log.Debugf("scanned %d files below %s", len(sums), root)
	return sums, nil
}

// WorkspaceSymbols flattens the definitions of sums, keyed by name.
func WorkspaceSymbols(sums []FileSummary) map[string][]ExternalSymbol {
	out := make(map[string][]ExternalSymbol)
	for _, s := range sums {
		for _, sym := range s.Symbols {
			out[sym.Name] = append(out[sym.Name], sym)
		}
	}
	return out
}
