// Copyright © 2024 The wlscope authors

package lsp

import (
	"context"
	"os"
	"sort"
	"sync"

	"github.com/halirutan/wlscope/analysis"
	"github.com/halirutan/wlscope/indexstore"
	"github.com/halirutan/wlscope/parser/token"
)

// workspaceIndex holds the file-level definitions of every workspace file.
type workspaceIndex struct {
	mu      sync.RWMutex
	files   map[string]analysis.FileSummary
	symbols map[string][]analysis.ExternalSymbol
}

func newWorkspaceIndex() *workspaceIndex {
	return &workspaceIndex{
		files:   make(map[string]analysis.FileSummary),
		symbols: make(map[string][]analysis.ExternalSymbol),
	}
}

// replace swaps the whole index for sums.
func (w *workspaceIndex) replace(sums []analysis.FileSummary) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.files = make(map[string]analysis.FileSummary, len(sums))
	for _, sum := range sums {
		w.files[sum.Path] = sum
	}
	w.rebuild()
}

// put adds or replaces the summary of one file.
func (w *workspaceIndex) put(sum analysis.FileSummary) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.files[sum.Path] = sum
	w.rebuild()
}

// remove drops a file from the index.
func (w *workspaceIndex) remove(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.files[path]; !ok {
		return
	}
	delete(w.files, path)
	w.rebuild()
}

// rebuild recomputes the symbol table.  The caller holds the write lock.
func (w *workspaceIndex) rebuild() {
	paths := make([]string, 0, len(w.files))
	for p := range w.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	sums := make([]analysis.FileSummary, len(paths))
	for i, p := range paths {
		sums[i] = w.files[p]
	}
	w.symbols = analysis.WorkspaceSymbols(sums)
	workspaceFiles.Set(float64(len(w.files)))
}

// lookup returns the definitions of name in files other than exclude.  An
// empty context matches any context.
func (w *workspaceIndex) lookup(name, context, exclude string) []analysis.ExternalSymbol {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var out []analysis.ExternalSymbol
	for _, sym := range w.symbols[name] {
		if sym.File == exclude {
			continue
		}
		if context != "" && effectiveContext(sym.Context) != context {
			continue
		}
		out = append(out, sym)
	}
	return out
}

// all returns every definition of the index in file order.
func (w *workspaceIndex) all() []analysis.ExternalSymbol {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var out []analysis.ExternalSymbol
	for _, syms := range w.symbols {
		out = append(out, syms...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		li, ci := lineCol(out[i].Source)
		lj, cj := lineCol(out[j].Source)
		if li != lj {
			return li < lj
		}
		return ci < cj
	})
	return out
}

// lineCol orders definitions without a location first.  Summaries read
// back from the index store carry lines and columns but no offsets.
func lineCol(loc *token.Location) (int, int) {
	if loc == nil {
		return 0, 0
	}
	return loc.Line, loc.Col
}

func (w *workspaceIndex) len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.files)
}

func effectiveContext(ctx string) string {
	if ctx == "" {
		return analysis.DefaultContext
	}
	return ctx
}

// ensureWorkspaceIndex builds the workspace index once.  It is safe to
// call from any goroutine.
func (s *Server) ensureWorkspaceIndex() {
	s.indexOnce.Do(func() {
		if s.rootPath == "" {
			return
		}
		if err := s.buildWorkspaceIndex(context.Background()); err != nil {
			log.Warningf("indexing %s: %v", s.rootPath, err)
		}
	})
}

// buildWorkspaceIndex scans the workspace root, reusing cached summaries
// when an index store is configured.
func (s *Server) buildWorkspaceIndex(ctx context.Context) error {
	var (
		sums []analysis.FileSummary
		err  error
	)
	if s.store != nil {
		var stats indexstore.Stats
		sums, stats, err = s.store.IndexWorkspace(ctx, s.rootPath, s.excluded, 0)
		if err == nil {
			log.Infof("indexed %s: %+v", s.rootPath, stats)
		}
	} else {
		sums, err = analysis.ScanWorkspace(ctx, s.rootPath, s.excluded, 0)
	}
	if err != nil {
		return err
	}
	s.workspace.replace(sums)
	log.Debugf("workspace index holds %d files", s.workspace.len())
	return nil
}

// reindexFile refreshes the workspace entry of path after it changed on
// disk.
func (s *Server) reindexFile(path string) {
	if !analysis.IsSourceFile(path) || s.excluded(path) {
		return
	}
	src, err := os.ReadFile(path) //nolint:gosec // workspace files
	if err != nil {
		s.workspace.remove(path)
		if s.store != nil {
			_ = s.store.Forget(path)
		}
		return
	}
	if s.store != nil {
		sum, _, err := s.store.Summarize(path, src)
		if err != nil {
			log.Warningf("index store: %v", err)
			sum = analysis.SummarizeFile(path, src)
		}
		s.workspace.put(sum)
		return
	}
	s.workspace.put(analysis.SummarizeFile(path, src))
}
