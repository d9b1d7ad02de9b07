// Copyright © 2024 The wlscope authors

package analysis

import (
	"sync"

	"github.com/halirutan/wlscope/ast"
)

// File owns the current tree of one source file together with the caches
// derived from it.  Every tree change must go through Update so that
// cached resolutions are discarded before the next query.
type File struct {
	mu       sync.RWMutex
	tree     *ast.File
	resolved *Cache[*ast.Node, *Binding]
	globals  *Cache[struct{}, *Globals]
}

// NewFile returns a File holding tree.
func NewFile(tree *ast.File) *File {
	return &File{
		tree:     tree,
		resolved: NewCache[*ast.Node, *Binding]("resolve"),
		globals:  NewCache[struct{}, *Globals]("globals"),
	}
}

// Update replaces the tree and invalidates the caches.
func (f *File) Update(tree *ast.File) {
	f.mu.Lock()
	f.tree = tree
	f.mu.Unlock()
	f.Invalidate()
}

// Invalidate discards cached results without replacing the tree.
func (f *File) Invalidate() {
	f.resolved.Invalidate()
	f.globals.Invalidate()
	log.Debugf("invalidated analysis cache of %s", f.Name())
}

// Tree returns the current tree.
func (f *File) Tree() *ast.File {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.tree
}

// Root returns the root node of the current tree, or nil.
func (f *File) Root() *ast.Node {
	if t := f.Tree(); t != nil {
		return t.Root
	}
	return nil
}

// Name returns the file name of the current tree.
func (f *File) Name() string {
	if t := f.Tree(); t != nil {
		return t.Name
	}
	return ""
}

// Globals returns the file-level definitions of the current tree.
func (f *File) Globals() *Globals {
	root := f.Root()
	g := f.globals.GetOrCompute(struct{}{}, func() *Globals {
		return FileGlobals(root)
	})
	if g.root != root {
		// The tree changed while the value was being computed.
		return FileGlobals(root)
	}
	return g
}

// Contains reports whether n belongs to the current tree.
func (f *File) Contains(n *ast.Node) bool {
	root := f.Root()
	return root != nil && n != nil && n.Root() == root
}

// CacheLen returns the number of memoized resolutions.
func (f *File) CacheLen() int {
	return f.resolved.Len()
}
