// Copyright © 2024 The wlscope authors

package lsp

import (
	"time"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/halirutan/wlscope/lint"
)

const debounceDelay = 300 * time.Millisecond

// textDocumentDidOpen handles the textDocument/didOpen notification.
func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.captureNotify(ctx)
	doc := s.docs.Open(
		params.TextDocument.URI,
		int32(params.TextDocument.Version),
		params.TextDocument.Text,
	)
	s.analyzeAndPublish(doc)
	return nil
}

// textDocumentDidChange handles the textDocument/didChange notification.
func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	s.captureNotify(ctx)
	// With full sync, the last content change is the complete document.
	var content string
	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			content = c.Text
		case protocol.TextDocumentContentChangeEvent:
			content = c.Text
		}
	}

	doc := s.docs.Change(
		params.TextDocument.URI,
		int32(params.TextDocument.Version),
		content,
	)

	// Debounce: delay lint runs during rapid edits.
	s.debounceMu.Lock()
	if t, ok := s.debounce[doc.URI]; ok {
		t.Stop()
	}
	s.debounce[doc.URI] = time.AfterFunc(debounceDelay, func() {
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("diagnostics for %s: %v", doc.URI, r)
			}
		}()
		if d := s.docs.Get(doc.URI); d != nil {
			s.analyzeAndPublish(d)
		}
	})
	s.debounceMu.Unlock()
	return nil
}

// textDocumentDidSave handles the textDocument/didSave notification.
func (s *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	s.captureNotify(ctx)
	s.cancelDebounce(params.TextDocument.URI)

	if doc := s.docs.Get(params.TextDocument.URI); doc != nil {
		s.analyzeAndPublish(doc)
	}
	// The watcher sees the write too, but it may be disabled.
	if s.rootPath != "" {
		s.reindexFile(uriToPath(params.TextDocument.URI))
	}
	return nil
}

// textDocumentDidClose handles the textDocument/didClose notification.
func (s *Server) textDocumentDidClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.cancelDebounce(params.TextDocument.URI)

	// Clear diagnostics for the closed file.
	s.sendNotification(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})

	s.docs.Close(params.TextDocument.URI)
	return nil
}

func (s *Server) cancelDebounce(uri string) {
	s.debounceMu.Lock()
	if t, ok := s.debounce[uri]; ok {
		t.Stop()
		delete(s.debounce, uri)
	}
	s.debounceMu.Unlock()
}

// analyzeAndPublish lints a document and publishes the resulting
// diagnostics to the client.  Syntax errors are part of the lint result.
func (s *Server) analyzeAndPublish(doc *Document) {
	snap := doc.snapshot(s.resolver)

	diags := []protocol.Diagnostic{}
	lintDiags, err := s.currentLinter().LintTree(snap.file, snap.comments)
	if err != nil {
		log.Warningf("lint %s: %v", snap.uri, err)
	}
	for _, d := range lintDiags {
		diags = append(diags, convertLintDiagnostic(d))
		diagnosticsPublished.WithLabelValues(d.Severity.String()).Inc()
	}

	s.sendNotification(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         snap.uri,
		Diagnostics: diags,
	})
}

// convertLintDiagnostic converts a lint.Diagnostic to an LSP Diagnostic.
func convertLintDiagnostic(d lint.Diagnostic) protocol.Diagnostic {
	start := toLSPPosition(d.Pos.Line, d.Pos.Col)
	end := start // Default: zero-width range.
	if d.Pos.EndLine > 0 {
		end = toLSPPosition(d.Pos.EndLine, d.Pos.EndCol)
	}
	sev := mapLintSeverity(d.Severity)
	source := "wlscope-lint"
	if d.Analyzer == lint.SyntaxAnalyzer {
		source = "wlscope"
	}
	message := d.Message
	for _, n := range d.Notes {
		message += "\nnote: " + n
	}
	return protocol.Diagnostic{
		Range:    protocol.Range{Start: start, End: end},
		Severity: &sev,
		Source:   strPtr(source),
		Code:     &protocol.IntegerOrString{Value: d.Analyzer},
		Message:  message,
	}
}

// mapLintSeverity converts a lint.Severity to a protocol.DiagnosticSeverity.
func mapLintSeverity(sev lint.Severity) protocol.DiagnosticSeverity {
	switch sev {
	case lint.SeverityError:
		return protocol.DiagnosticSeverityError
	case lint.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case lint.SeverityInfo:
		return protocol.DiagnosticSeverityInformation
	default:
		return protocol.DiagnosticSeverityWarning
	}
}
