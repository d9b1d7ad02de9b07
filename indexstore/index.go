// Copyright © 2024 The wlscope authors

package indexstore

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/halirutan/wlscope/analysis"
)

// Stats counts the outcome of an indexing run.
type Stats struct {
	Files   int
	Hits    int
	Parsed  int
	Skipped int
	Removed int
}

// IndexWorkspace summarizes every source file below root, reusing stored
// summaries for unchanged content.  Paths recorded by an earlier run that
// no longer exist are forgotten.
func (s *Store) IndexWorkspace(ctx context.Context, root string, exclude func(string) bool, jobs int) ([]analysis.FileSummary, Stats, error) {
	var stats Stats
	files, err := analysis.ListSourceFiles(root, exclude)
	if err != nil {
		return nil, stats, err
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]*analysis.FileSummary, len(files))
	hits := make([]bool, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(files))))
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			src, err := os.ReadFile(path) //nolint:gosec // indexing reads workspace files
			if err != nil {
				log.Debugf("skipping %s: %v", path, err)
				return nil
			}
			sum, hit, err := s.Summarize(path, src)
			if err != nil {
				return err
			}
			results[i], hits[i] = &sum, hit
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stats, err
	}

	live := make(map[string]bool, len(files))
	out := make([]analysis.FileSummary, 0, len(files))
	for i, r := range results {
		if r == nil {
			stats.Skipped++
			continue
		}
		live[r.Path] = true
		stats.Files++
		if hits[i] {
			stats.Hits++
		} else {
			stats.Parsed++
		}
		out = append(out, *r)
	}

	known, err := s.Paths()
	if err != nil {
		return nil, stats, err
	}
	for _, p := range known {
		if live[p] || !withinRoot(root, p) {
			continue
		}
		if err := s.Forget(p); err != nil {
			return nil, stats, err
		}
		stats.Removed++
	}
	log.Debugf("indexed %s: %+v", root, stats)
	return out, stats, nil
}

// withinRoot reports whether path lies below root.
func withinRoot(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
