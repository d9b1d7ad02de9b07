// Copyright © 2024 The wlscope authors

package lsp

import (
	"net/url"
	"path/filepath"
	"strings"

	"fortio.org/safecast"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/halirutan/wlscope/analysis"
	"github.com/halirutan/wlscope/ast"
	"github.com/halirutan/wlscope/astutil"
	"github.com/halirutan/wlscope/parser/token"
)

// uinteger converts a non-negative int to protocol.UInteger, clamping
// values that do not fit to zero.
func uinteger(n int) protocol.UInteger {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		return 0
	}
	return protocol.UInteger(v)
}

// toLSPPosition converts a 1-based line and column to a 0-based LSP
// position.
func toLSPPosition(line, col int) protocol.Position {
	return protocol.Position{
		Line:      uinteger(line - 1),
		Character: uinteger(col - 1),
	}
}

// toLSPRange converts a source location to an LSP range.  The end of the
// location is exclusive like the end of an LSP range.  Locations without
// end information get a range of width characters.
func toLSPRange(loc *token.Location, width int) protocol.Range {
	if loc == nil || loc.Line == 0 {
		return protocol.Range{}
	}
	start := toLSPPosition(loc.Line, loc.Col)
	if loc.EndLine > 0 && loc.EndCol > 0 {
		return protocol.Range{Start: start, End: toLSPPosition(loc.EndLine, loc.EndCol)}
	}
	return protocol.Range{
		Start: start,
		End:   protocol.Position{Line: start.Line, Character: start.Character + uinteger(width)},
	}
}

// nodeRange returns the range of a symbol node.
func nodeRange(n *ast.Node) protocol.Range {
	return toLSPRange(n.Source, len([]rune(n.Context+n.Name)))
}

// fromLSPPosition converts a 0-based LSP position to a 1-based line and
// column.
func fromLSPPosition(pos protocol.Position) (line, col int) {
	return int(pos.Line) + 1, int(pos.Character) + 1
}

// symbolAt returns the symbol node under the cursor, or nil.
func symbolAt(snap snapshot, pos protocol.Position) *ast.Node {
	line, col := fromLSPPosition(pos)
	return astutil.SymbolAt(snap.file.Root(), line, col)
}

// nodeAt returns the innermost node under the cursor or just before it,
// or nil.
func nodeAt(snap snapshot, pos protocol.Position) *ast.Node {
	line, col := fromLSPPosition(pos)
	root := snap.file.Root()
	if n := astutil.NodeAt(root, line, col); n != nil {
		return n
	}
	if col > 1 {
		return astutil.NodeAt(root, line, col-1)
	}
	return nil
}

// bindingAt returns the symbol under the cursor and its binding.
func (s *Server) bindingAt(snap snapshot, pos protocol.Position) (*ast.Node, *analysis.Binding) {
	sym := symbolAt(snap, pos)
	if sym == nil {
		return nil, nil
	}
	return sym, s.resolver.Resolve(snap.file, sym)
}

// mapSymbolKind converts a binding to an LSP SymbolKind.
func mapSymbolKind(b *analysis.Binding) protocol.SymbolKind {
	switch b.Kind {
	case analysis.BindingFileGlobal:
		if definesFunction(b.Node) {
			return protocol.SymbolKindFunction
		}
		return protocol.SymbolKindVariable
	case analysis.BindingBuiltin:
		return protocol.SymbolKindFunction
	case analysis.BindingPattern:
		return protocol.SymbolKindTypeParameter
	default:
		return protocol.SymbolKindVariable
	}
}

// mapCompletionItemKind converts a binding to an LSP CompletionItemKind.
func mapCompletionItemKind(b *analysis.Binding) protocol.CompletionItemKind {
	switch b.Kind {
	case analysis.BindingFileGlobal:
		if definesFunction(b.Node) {
			return protocol.CompletionItemKindFunction
		}
		return protocol.CompletionItemKindVariable
	case analysis.BindingBuiltin:
		if b.Entry != nil && b.Entry.Function {
			return protocol.CompletionItemKindFunction
		}
		return protocol.CompletionItemKindConstant
	case analysis.BindingPattern:
		return protocol.CompletionItemKindTypeParameter
	default:
		return protocol.CompletionItemKindVariable
	}
}

// definesFunction reports whether the defining symbol is the head of a
// call on an assignment's left-hand side, as in f[x_] := x.
func definesFunction(decl *ast.Node) bool {
	if decl == nil || decl.Parent == nil {
		return false
	}
	p := decl.Parent
	return p.Kind == ast.KindCall && p.Head() == decl
}

// uriToPath converts a file:// URI to a filesystem path.
func uriToPath(uri string) string {
	path, ok := strings.CutPrefix(uri, "file://")
	if !ok {
		return uri
	}
	if unescaped, err := url.PathUnescape(path); err == nil {
		path = unescaped
	}
	return filepath.FromSlash(path)
}

// pathToURI converts a filesystem path to a file:// URI.
func pathToURI(path string) string {
	if !filepath.IsAbs(path) {
		return path
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}
