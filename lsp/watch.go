// Copyright © 2024 The wlscope authors

package lsp

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/halirutan/wlscope/analysis"
)

// watcher re-indexes workspace files that change on disk.
type watcher struct {
	fs   *fsnotify.Watcher
	done chan struct{}
}

// startWatcher watches every directory below the workspace root.
func (s *Server) startWatcher() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w := &watcher{fs: fw, done: make(chan struct{})}
	if err := w.addTree(s.rootPath, s.excluded); err != nil {
		_ = fw.Close()
		return err
	}
	s.watchMu.Lock()
	s.watcher = w
	s.watchMu.Unlock()
	go w.run(s)
	return nil
}

// addTree adds dir and its non-hidden subdirectories.
func (w *watcher) addTree(dir string, exclude func(string) bool) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable dirs
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && (strings.HasPrefix(d.Name(), ".") || exclude(path)) {
			return filepath.SkipDir
		}
		return w.fs.Add(path)
	})
}

func (w *watcher) run(s *Server) {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(s, ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.Warningf("watch: %v", err)
		}
	}
}

func (w *watcher) handle(s *Server, ev fsnotify.Event) {
	switch {
	case ev.Has(fsnotify.Create) && isDir(ev.Name):
		if err := w.addTree(ev.Name, s.excluded); err != nil {
			log.Warningf("watch %s: %v", ev.Name, err)
		}
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		s.workspace.remove(ev.Name)
		if s.store != nil {
			_ = s.store.Forget(ev.Name)
		}
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		if analysis.IsSourceFile(ev.Name) {
			log.Debugf("re-indexing %s", ev.Name)
			s.reindexFile(ev.Name)
		}
	}
}

// Close stops the watcher and waits for its loop to exit.
func (w *watcher) Close() error {
	err := w.fs.Close()
	<-w.done
	return err
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
