// Copyright © 2024 The wlscope authors

// Package lsp implements a Language Server Protocol server for Wolfram
// Language sources.  It provides diagnostics, hover, go-to-definition,
// references, highlights, completion, signature help, document and
// workspace symbols, semantic tokens, folding and rename support.
package lsp

import (
	"os"
	"sync"
	"time"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	glspserver "github.com/tliron/glsp/server"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/halirutan/wlscope/analysis"
	"github.com/halirutan/wlscope/catalog"
	"github.com/halirutan/wlscope/indexstore"
	"github.com/halirutan/wlscope/lint"
	"github.com/halirutan/wlscope/project"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

const serverName = "wlscope-lsp"

// Version is reported to clients in the initialize response.
var Version = "0.1.0"

var log = commonlog.GetLogger("wlscope.lsp")

// Server is the Wolfram Language server.
type Server struct {
	handler  protocol.Handler
	glspSrv  *glspserver.Server
	docs     *DocumentStore
	rootURI  string
	rootPath string

	resolver *analysis.Resolver
	tracer   trace.Tracer

	// linter is replaced when a project manifest is read.
	linterMu sync.RWMutex
	linter   *lint.Linter
	project  *project.Project

	// Workspace definitions gathered at initialization.
	workspace *workspaceIndex
	store     *indexstore.Store
	indexOnce sync.Once
	watch     bool
	watchMu   sync.Mutex
	watcher   *watcher

	// Debouncer for didChange notifications.
	debounceMu sync.Mutex
	debounce   map[string]*time.Timer

	// Context for sending notifications (captured from latest request).
	notifyMu sync.Mutex
	notify   glsp.NotifyFunc

	// exitFn is called on the LSP exit notification. Defaults to os.Exit.
	// Overridable for testing.
	exitFn func(int)
}

// Option configures the LSP server.
type Option func(*Server)

// WithResolver sets the resolver used for all documents.
func WithResolver(r *analysis.Resolver) Option {
	return func(s *Server) { s.resolver = r }
}

// WithLanguageLevel sets the language level passed to the linter.  A
// project manifest found at initialization overrides it.
func WithLanguageLevel(level float64) Option {
	return func(s *Server) { s.linter.LanguageLevel = level }
}

// WithAnalyzers replaces the default lint analyzers.
func WithAnalyzers(analyzers []*lint.Analyzer) Option {
	return func(s *Server) { s.linter.Analyzers = analyzers }
}

// WithIndexStore caches workspace summaries in st.
func WithIndexStore(st *indexstore.Store) Option {
	return func(s *Server) { s.store = st }
}

// WithTracerProvider sets the provider of request spans.  The global
// provider is used by default.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Server) { s.tracer = tp.Tracer(tracerName) }
}

// WithWatch enables re-indexing of workspace files changed on disk.
func WithWatch(enabled bool) Option {
	return func(s *Server) { s.watch = enabled }
}

// New creates a new language server.
func New(opts ...Option) *Server {
	s := &Server{
		docs:      NewDocumentStore(),
		linter:    &lint.Linter{Analyzers: lint.DefaultAnalyzers()},
		workspace: newWorkspaceIndex(),
		tracer:    otel.GetTracerProvider().Tracer(tracerName),
		debounce:  make(map[string]*time.Timer),
		exitFn:    os.Exit,
	}
	for _, o := range opts {
		o(s)
	}
	if s.resolver == nil {
		s.resolver = analysis.NewResolver(catalog.Default())
	}
	s.linter.Resolver = s.resolver

	s.handler = protocol.Handler{
		Initialize:  request(s, "initialize", s.initialize),
		Initialized: notification(s, "initialized", s.initialized),
		Shutdown:    s.shutdown,
		Exit:        s.exit,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   notification(s, "textDocument/didOpen", s.textDocumentDidOpen),
		TextDocumentDidChange: notification(s, "textDocument/didChange", s.textDocumentDidChange),
		TextDocumentDidSave:   notification(s, "textDocument/didSave", s.textDocumentDidSave),
		TextDocumentDidClose:  notification(s, "textDocument/didClose", s.textDocumentDidClose),

		TextDocumentHover:              request(s, "textDocument/hover", s.textDocumentHover),
		TextDocumentDefinition:         request(s, "textDocument/definition", s.textDocumentDefinition),
		TextDocumentCompletion:         request(s, "textDocument/completion", s.textDocumentCompletion),
		TextDocumentReferences:         request(s, "textDocument/references", s.textDocumentReferences),
		TextDocumentDocumentHighlight:  request(s, "textDocument/documentHighlight", s.textDocumentDocumentHighlight),
		TextDocumentDocumentSymbol:     request(s, "textDocument/documentSymbol", s.textDocumentDocumentSymbol),
		TextDocumentRename:             request(s, "textDocument/rename", s.textDocumentRename),
		TextDocumentPrepareRename:      request(s, "textDocument/prepareRename", s.textDocumentPrepareRename),
		TextDocumentSignatureHelp:      request(s, "textDocument/signatureHelp", s.textDocumentSignatureHelp),
		TextDocumentFoldingRange:       request(s, "textDocument/foldingRange", s.textDocumentFoldingRange),
		TextDocumentSemanticTokensFull: request(s, "textDocument/semanticTokens/full", s.textDocumentSemanticTokensFull),
		WorkspaceSymbol:                request(s, "workspace/symbol", s.workspaceSymbol),
	}

	s.glspSrv = glspserver.NewServer(&s.handler, serverName, false)
	return s
}

// RunStdio starts the server using stdio transport.
func (s *Server) RunStdio() error {
	return s.glspSrv.RunStdio()
}

// RunTCP starts the server listening on the given address.
func (s *Server) RunTCP(addr string) error {
	return s.glspSrv.RunTCP(addr)
}

// initialize handles the LSP initialize request.
func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	s.captureNotify(ctx)

	if params.RootURI != nil {
		s.rootURI = *params.RootURI
		s.rootPath = uriToPath(s.rootURI)
	} else if params.RootPath != nil {
		s.rootPath = *params.RootPath
		s.rootURI = pathToURI(s.rootPath)
	}
	if s.rootPath != "" {
		s.loadProject(s.rootPath)
	}

	capabilities := s.handler.CreateServerCapabilities()

	// Override text document sync to full.
	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
		Save:      &protocol.SaveOptions{IncludeText: boolPtr(false)},
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{"`"},
	}

	capabilities.RenameProvider = &protocol.RenameOptions{
		PrepareProvider: boolPtr(true),
	}

	capabilities.SignatureHelpProvider = &protocol.SignatureHelpOptions{
		TriggerCharacters:   []string{"[", ","},
		RetriggerCharacters: []string{",", "]"},
	}

	capabilities.SemanticTokensProvider = &protocol.SemanticTokensOptions{
		Legend: semanticTokenLegend(),
		Full:   true,
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &Version,
		},
	}, nil
}

// initialized builds the workspace index once the client is ready.
func (s *Server) initialized(ctx *glsp.Context, _ *protocol.InitializedParams) error {
	s.captureNotify(ctx)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("workspace index: %v", r)
			}
		}()
		s.ensureWorkspaceIndex()
		if s.watch && s.rootPath != "" {
			if err := s.startWatcher(); err != nil {
				log.Warningf("cannot watch %s: %v", s.rootPath, err)
			}
		}
	}()
	return nil
}

// loadProject applies the manifest of the project containing root, if any.
func (s *Server) loadProject(root string) {
	p, err := project.Discover(root)
	if err != nil {
		log.Warningf("ignoring project manifest: %v", err)
		return
	}
	if p == nil {
		return
	}
	s.linterMu.Lock()
	defer s.linterMu.Unlock()
	l := *s.linter
	if p.Manifest.LanguageLevel != "" || l.LanguageLevel == 0 {
		l.LanguageLevel = p.Manifest.Level()
	}
	l.Analyzers = lint.Disable(l.Analyzers, p.Manifest.Lint.Disable)
	s.linter = &l
	s.project = p
	log.Infof("using project %s (language level %.1f)", p.Path, l.LanguageLevel)
}

func (s *Server) currentLinter() *lint.Linter {
	s.linterMu.RLock()
	defer s.linterMu.RUnlock()
	return s.linter
}

// excluded reports whether the project manifest excludes path.
func (s *Server) excluded(path string) bool {
	s.linterMu.RLock()
	p := s.project
	s.linterMu.RUnlock()
	return p != nil && p.Excluded(path)
}

// shutdown handles the LSP shutdown request.
func (s *Server) shutdown(_ *glsp.Context) error {
	// Cancel any pending debounce timers.
	s.debounceMu.Lock()
	for _, t := range s.debounce {
		t.Stop()
	}
	s.debounce = make(map[string]*time.Timer)
	s.debounceMu.Unlock()

	s.watchMu.Lock()
	w := s.watcher
	s.watcher = nil
	s.watchMu.Unlock()
	if w != nil {
		return w.Close()
	}
	return nil
}

// exit handles the LSP exit notification by terminating the process.
func (s *Server) exit(_ *glsp.Context) error {
	s.exitFn(0)
	return nil
}

// setTrace handles the $/setTrace notification (required by some clients).
func (s *Server) setTrace(_ *glsp.Context, _ *protocol.SetTraceParams) error {
	return nil
}

// captureNotify stores the notification function from the context for
// async use (e.g., publishing diagnostics after a debounce).
func (s *Server) captureNotify(ctx *glsp.Context) {
	if ctx == nil || ctx.Notify == nil {
		return
	}
	s.notifyMu.Lock()
	s.notify = ctx.Notify
	s.notifyMu.Unlock()
}

// sendNotification sends a notification to the client.
func (s *Server) sendNotification(method string, params any) {
	s.notifyMu.Lock()
	fn := s.notify
	s.notifyMu.Unlock()
	if fn != nil {
		fn(method, params)
	}
}

func boolPtr(b bool) *bool {
	return &b
}

func strPtr(s string) *string {
	return &s
}
