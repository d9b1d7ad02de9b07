// Copyright © 2024 The wlscope authors

package lsp

import (
	"errors"
	"fmt"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/halirutan/wlscope/analysis"
	"github.com/halirutan/wlscope/parser"
)

var (
	errNoSymbol        = errors.New("no symbol at position")
	errInvalidNewName  = errors.New("not a valid symbol name")
	errNotRenameable   = errors.New("symbol cannot be renamed")
	errDocumentMissing = errors.New("document not found")
)

// renameable reports whether occurrences bound by b may be renamed.
// Builtins belong to the system and unresolved names have no declaration
// whose occurrences are known.
func renameable(b *analysis.Binding) bool {
	return b != nil && b.Node != nil && !b.IsUnresolved() && b.Kind != analysis.BindingBuiltin
}

// textDocumentPrepareRename validates that the symbol under the cursor
// is renameable and returns its range.
func (s *Server) textDocumentPrepareRename(_ *glsp.Context, params *protocol.PrepareRenameParams) (any, error) {
	snap, ok := s.snapshot(params.TextDocument.URI)
	if !ok {
		return nil, nil // no document, rename not applicable
	}
	sym, b := s.bindingAt(snap, params.Position)
	// prepareRename returns null, not an error, for non-renameable symbols.
	if sym == nil || !renameable(b) {
		return nil, nil
	}
	return &protocol.RangeWithPlaceholder{
		Range:       nodeRange(sym),
		Placeholder: sym.Name,
	}, nil
}

// textDocumentRename handles the textDocument/rename request.  Every
// occurrence resolving to the same binding is renamed; explicit contexts
// are kept.
func (s *Server) textDocumentRename(_ *glsp.Context, params *protocol.RenameParams) (*protocol.WorkspaceEdit, error) {
	snap, ok := s.snapshot(params.TextDocument.URI)
	if !ok {
		return nil, errDocumentMissing
	}
	sym, b := s.bindingAt(snap, params.Position)
	if sym == nil {
		return nil, errNoSymbol
	}
	if !renameable(b) {
		return nil, fmt.Errorf("%w: %s (%s)", errNotRenameable, sym.Name, b.Description())
	}
	if !validSymbolName(params.NewName) {
		return nil, fmt.Errorf("%w: %q", errInvalidNewName, params.NewName)
	}

	var edits []protocol.TextEdit
	for _, ref := range snap.result.ReferencesTo(b) {
		edits = append(edits, protocol.TextEdit{
			Range:   nodeRange(ref.Node),
			NewText: ref.Node.Context + params.NewName,
		})
	}
	return &protocol.WorkspaceEdit{
		Changes: map[protocol.DocumentUri][]protocol.TextEdit{snap.uri: edits},
	}, nil
}

// validSymbolName reports whether name parses as a single unqualified
// symbol.
func validSymbolName(name string) bool {
	n, err := parser.ParseExpression(name)
	return err == nil && n.IsSymbol() && n.Context == "" && n.Name == name
}
