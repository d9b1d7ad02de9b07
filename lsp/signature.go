// Copyright © 2024 The wlscope authors

package lsp

import (
	"unicode/utf16"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/halirutan/wlscope/analysis"
	"github.com/halirutan/wlscope/ast"
	"github.com/halirutan/wlscope/catalog"
)

// textDocumentSignatureHelp handles textDocument/signatureHelp requests.
// It finds the innermost call around the cursor whose head is a builtin
// and offers the usage forms of its catalog entry.
func (s *Server) textDocumentSignatureHelp(_ *glsp.Context, params *protocol.SignatureHelpParams) (*protocol.SignatureHelp, error) {
	snap, ok := s.snapshot(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	line, col := fromLSPPosition(params.Position)
	n := nodeAt(snap, params.Position)
	if n == nil {
		return nil, nil
	}

	for call := enclosingCallOrSelf(n); call != nil; call = enclosingCallOrSelf(call.Parent) {
		b := s.resolver.Resolve(snap.file, call.Head())
		if b.Kind != analysis.BindingBuiltin || len(b.Entry.Forms) == 0 {
			continue
		}
		return buildSignatureHelp(b.Entry, activeArgument(call, line, col)), nil
	}
	return nil, nil
}

// enclosingCallOrSelf returns n when it is a call with a symbol head, or
// the nearest such ancestor.
func enclosingCallOrSelf(n *ast.Node) *ast.Node {
	for ; n != nil; n = n.Parent {
		if n.Kind == ast.KindCall && n.Head().IsSymbol() {
			return n
		}
	}
	return nil
}

// activeArgument returns the 0-based index of the argument the cursor is
// in: the last argument starting at or before line:col.
func activeArgument(call *ast.Node, line, col int) int {
	idx := 0
	for i, arg := range call.Args() {
		src := arg.Source
		if src == nil || src.Line == 0 {
			continue
		}
		if src.Line < line || (src.Line == line && src.Col <= col) {
			idx = i
		}
	}
	return idx
}

// buildSignatureHelp constructs an LSP SignatureHelp from the forms of e.
// The active signature is the first form with enough parameters.
func buildSignatureHelp(e *catalog.Entry, activeParam int) *protocol.SignatureHelp {
	var sigs []protocol.SignatureInformation
	activeSig := -1
	for i, form := range e.Forms {
		sigs = append(sigs, signatureInformation(form))
		if activeSig < 0 && activeParam < len(form.Params) {
			activeSig = i
		}
	}
	if activeSig < 0 {
		activeSig = len(sigs) - 1
	}
	active := uinteger(activeParam)
	return &protocol.SignatureHelp{
		Signatures:      sigs,
		ActiveSignature: uintPtr(uinteger(activeSig)),
		ActiveParameter: &active,
	}
}

// signatureInformation labels each parameter by its UTF-16 offsets in
// the form's label.
func signatureInformation(form catalog.CallForm) protocol.SignatureInformation {
	label := form.String()
	var params []protocol.ParameterInformation
	offset := utf16Len(form.Name + "[")
	for i, p := range form.Params {
		end := offset + utf16Len(p)
		params = append(params, protocol.ParameterInformation{
			Label: []protocol.UInteger{uinteger(offset), uinteger(end)},
		})
		offset = end
		if i < len(form.Params)-1 {
			offset += utf16Len(", ")
		}
	}
	return protocol.SignatureInformation{
		Label:      label,
		Parameters: params,
	}
}

func utf16Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}

func uintPtr(v protocol.UInteger) *protocol.UInteger {
	return &v
}
