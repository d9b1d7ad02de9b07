// Copyright © 2024 The wlscope authors

package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/halirutan/wlscope/ast"
	"github.com/halirutan/wlscope/astutil"
)

// textDocumentFoldingRange handles the textDocument/foldingRange request.
// It returns folding ranges for multi-line calls, lists and associations
// and for multi-line comments.
func (s *Server) textDocumentFoldingRange(_ *glsp.Context, params *protocol.FoldingRangeParams) ([]protocol.FoldingRange, error) {
	snap, ok := s.snapshot(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	var ranges []protocol.FoldingRange
	region := string(protocol.FoldingRangeKindRegion)
	astutil.Inspect(snap.file.Root(), func(n *ast.Node) bool {
		switch n.Kind {
		case ast.KindCall, ast.KindList, ast.KindAssociation:
		default:
			return true
		}
		if n.Source != nil && n.Source.Line > 0 && n.Source.EndLine > n.Source.Line {
			ranges = append(ranges, protocol.FoldingRange{
				StartLine: uinteger(n.Source.Line - 1),
				EndLine:   uinteger(n.Source.EndLine - 1),
				Kind:      &region,
			})
		}
		return true
	})

	comment := string(protocol.FoldingRangeKindComment)
	for _, c := range snap.comments {
		if c.Source != nil && c.Source.EndLine > c.Source.Line {
			ranges = append(ranges, protocol.FoldingRange{
				StartLine: uinteger(c.Source.Line - 1),
				EndLine:   uinteger(c.Source.EndLine - 1),
				Kind:      &comment,
			})
		}
	}
	return ranges, nil
}
