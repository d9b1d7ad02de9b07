// Copyright © 2024 The wlscope authors

package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/halirutan/wlscope/analysis"
)

// textDocumentReferences handles the textDocument/references request.
func (s *Server) textDocumentReferences(_ *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	snap, ok := s.snapshot(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	sym, b := s.bindingAt(snap, params.Position)
	if sym == nil {
		return nil, nil
	}

	var locs []protocol.Location
	for _, occ := range occurrences(snap.result, sym, b) {
		if !params.Context.IncludeDeclaration && b.Node != nil && occ == b.Node {
			continue
		}
		locs = append(locs, protocol.Location{URI: snap.uri, Range: nodeRange(occ)})
	}

	// Names defined at file level may be defined in other files too.
	if params.Context.IncludeDeclaration && (b.IsUnresolved() || b.Kind == analysis.BindingFileGlobal) {
		locs = append(locs, s.workspaceLocations(snap, sym)...)
	}
	return locs, nil
}
