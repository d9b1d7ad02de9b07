// Copyright © 2024 The wlscope authors

package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentDocumentSymbol handles the textDocument/documentSymbol
// request.  It lists the file-level definitions of the document.
func (s *Server) textDocumentDocumentSymbol(_ *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	snap, ok := s.snapshot(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	root := snap.file.Root()
	symbols := []protocol.DocumentSymbol{}
	for _, b := range snap.file.Globals().Bindings() {
		if b.Node == nil || b.Node.Source == nil || b.Node.Source.Line == 0 {
			continue
		}
		sel := nodeRange(b.Node)
		full := sel
		if stmt := root.ChildContaining(b.Node); stmt != nil && stmt.Source != nil {
			full = toLSPRange(stmt.Source, 0)
		}
		detail := b.Description()
		symbols = append(symbols, protocol.DocumentSymbol{
			Name:           b.Context + b.Name,
			Detail:         &detail,
			Kind:           mapSymbolKind(b),
			Range:          full,
			SelectionRange: sel,
		})
	}
	return symbols, nil
}
