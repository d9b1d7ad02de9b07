// Copyright © 2024 The wlscope authors

package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/halirutan/wlscope/analysis"
	"github.com/halirutan/wlscope/ast"
)

// textDocumentDefinition handles the textDocument/definition request.
// Locals, patterns and file definitions jump to their declaring symbol.
// Names this file does not define jump to their definitions elsewhere in
// the workspace.
func (s *Server) textDocumentDefinition(_ *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	snap, ok := s.snapshot(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	sym, b := s.bindingAt(snap, params.Position)
	if sym == nil {
		return nil, nil
	}

	switch b.Kind {
	case analysis.BindingBuiltin:
		// Builtins have no navigable source.
		return nil, nil
	case analysis.BindingUnresolved:
		locs := s.workspaceLocations(snap, sym)
		if len(locs) == 0 {
			return nil, nil
		}
		return locs, nil
	}
	return protocol.Location{
		URI:   snap.uri,
		Range: nodeRange(b.Node),
	}, nil
}

// workspaceLocations returns the definitions of sym in other workspace
// files.
func (s *Server) workspaceLocations(snap snapshot, sym *ast.Node) []protocol.Location {
	var locs []protocol.Location
	for _, ext := range s.workspace.lookup(sym.Name, sym.Context, uriToPath(snap.uri)) {
		locs = append(locs, protocol.Location{
			URI:   pathToURI(ext.File),
			Range: toLSPRange(ext.Source, len([]rune(ext.Name))),
		})
	}
	return locs
}

// textDocumentDocumentHighlight handles the textDocument/documentHighlight
// request.  Declarations are highlighted as writes.
func (s *Server) textDocumentDocumentHighlight(_ *glsp.Context, params *protocol.DocumentHighlightParams) ([]protocol.DocumentHighlight, error) {
	snap, ok := s.snapshot(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	sym, b := s.bindingAt(snap, params.Position)
	if sym == nil {
		return nil, nil
	}
	var out []protocol.DocumentHighlight
	for _, occ := range occurrences(snap.result, sym, b) {
		kind := protocol.DocumentHighlightKindRead
		if b.Node != nil && occ == b.Node {
			kind = protocol.DocumentHighlightKindWrite
		}
		out = append(out, protocol.DocumentHighlight{Range: nodeRange(occ), Kind: &kind})
	}
	return out, nil
}

// occurrences returns the symbols of res that denote the same thing as
// sym, whose binding is b.  Unresolved symbols match by full name.
func occurrences(res *analysis.Result, sym *ast.Node, b *analysis.Binding) []*ast.Node {
	var out []*ast.Node
	if b.IsUnresolved() {
		ctx := effectiveContext(sym.Context)
		for _, u := range res.Unresolved {
			if u.Name == sym.Name && effectiveContext(u.Context) == ctx {
				out = append(out, u.Node)
			}
		}
		return out
	}
	for _, ref := range res.ReferencesTo(b) {
		out = append(out, ref.Node)
	}
	return out
}
