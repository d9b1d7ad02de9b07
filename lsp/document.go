// Copyright © 2024 The wlscope authors

package lsp

import (
	"sync"

	"github.com/halirutan/wlscope/analysis"
	"github.com/halirutan/wlscope/parser"
	"github.com/halirutan/wlscope/parser/lexer"
	"github.com/halirutan/wlscope/parser/token"
)

// Document represents an open text document tracked by the LSP server.
type Document struct {
	mu       sync.Mutex
	URI      string
	Version  int32
	Content  string
	file     *analysis.File
	comments []*token.Token
	result   *analysis.Result
}

// parse parses the document content.  The analysis.File is kept across
// edits and updated in place so its caches are invalidated rather than
// rebuilt.
func (d *Document) parse() {
	path := uriToPath(d.URI)
	tree := parser.ParseFile(path, d.Content)
	if d.file == nil {
		d.file = analysis.NewFile(tree)
	} else {
		d.file.Update(tree)
	}
	d.comments = lexer.Comments(path, d.Content)
	d.result = nil
}

// snapshot is a consistent view of a document taken under its lock.
type snapshot struct {
	uri      string
	content  string
	file     *analysis.File
	comments []*token.Token
	result   *analysis.Result
}

// snapshot returns the current state of d, resolving it first if needed.
func (d *Document) snapshot(r *analysis.Resolver) snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.result == nil {
		d.result = analysis.Analyze(r, d.file)
	}
	return snapshot{
		uri:      d.URI,
		content:  d.Content,
		file:     d.file,
		comments: d.comments,
		result:   d.result,
	}
}

// DocumentStore manages open documents with thread-safe access.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewDocumentStore creates an empty document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string]*Document)}
}

// Open adds a document to the store and parses it.
func (s *DocumentStore) Open(uri string, version int32, content string) *Document {
	doc := &Document{
		URI:     uri,
		Version: version,
		Content: content,
	}
	doc.parse()
	s.mu.Lock()
	s.docs[uri] = doc
	s.mu.Unlock()
	return doc
}

// Change updates a document's content (full sync) and re-parses it.
func (s *DocumentStore) Change(uri string, version int32, content string) *Document {
	s.mu.Lock()
	doc, ok := s.docs[uri]
	if !ok {
		doc = &Document{URI: uri}
		s.docs[uri] = doc
	}
	s.mu.Unlock()

	doc.mu.Lock()
	doc.Version = version
	doc.Content = content
	doc.parse()
	doc.mu.Unlock()
	return doc
}

// Close removes a document from the store.
func (s *DocumentStore) Close(uri string) {
	s.mu.Lock()
	delete(s.docs, uri)
	s.mu.Unlock()
}

// Get retrieves a document by URI. Returns nil if not found.
func (s *DocumentStore) Get(uri string) *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs[uri]
}

// All returns the open documents.
func (s *DocumentStore) All() []*Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]*Document, 0, len(s.docs))
	for _, d := range s.docs {
		docs = append(docs, d)
	}
	return docs
}

// snapshot returns the snapshot of the open document uri.
func (s *Server) snapshot(uri string) (snapshot, bool) {
	doc := s.docs.Get(uri)
	if doc == nil {
		return snapshot{}, false
	}
	return doc.snapshot(s.resolver), true
}
