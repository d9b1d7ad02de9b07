// Copyright © 2024 The wlscope authors

package lsp

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/halirutan/wlscope/analysis"
	"github.com/halirutan/wlscope/ast"
	"github.com/halirutan/wlscope/catalog"
)

// textDocumentHover handles the textDocument/hover request.
func (s *Server) textDocumentHover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	snap, ok := s.snapshot(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	sym, b := s.bindingAt(snap, params.Position)
	if sym == nil {
		return nil, nil
	}

	var content string
	if b.Kind == analysis.BindingBuiltin {
		content = builtinHover(b.Entry)
	} else {
		content = s.bindingHover(snap, sym, b)
	}
	r := nodeRange(sym)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: content,
		},
		Range: &r,
	}, nil
}

// builtinHover renders the catalog entry of a builtin.
func builtinHover(e *catalog.Entry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s**", e.FullName)
	if len(e.Forms) > 0 {
		sb.WriteString("\n\n```wolfram\n")
		for _, f := range e.Forms {
			sb.WriteString(f.String())
			sb.WriteByte('\n')
		}
		sb.WriteString("```")
	} else if e.CallPattern != "" {
		fmt.Fprintf(&sb, "\n\n```wolfram\n%s\n```", e.CallPattern)
	}
	if len(e.Attributes) > 0 {
		fmt.Fprintf(&sb, "\n\nAttributes: %s", strings.Join(e.Attributes, ", "))
	}
	if len(e.Options) > 0 {
		fmt.Fprintf(&sb, "\n\nOptions: %s", strings.Join(e.Options, ", "))
	}
	if e.Version > 0 {
		fmt.Fprintf(&sb, "\n\n*Introduced in %.1f*", e.Version)
	}
	return sb.String()
}

// bindingHover renders a local, pattern, file-level or unresolved name.
func (s *Server) bindingHover(snap snapshot, sym *ast.Node, b *analysis.Binding) string {
	var sb strings.Builder
	name := sym.Context + sym.Name
	fmt.Fprintf(&sb, "**%s**: %s", name, b.Description())
	if b.Node != nil && b.Node.Source != nil {
		if b.Kind == analysis.BindingLocal {
			if init := declInitializer(b.Scope, b.Node); init != nil {
				fmt.Fprintf(&sb, "\n\n```wolfram\n%s = %s\n```", b.Name, init)
			}
		}
		fmt.Fprintf(&sb, "\n\n*Declared at line %d*", b.Node.Source.Line)
	}
	if b.IsUnresolved() {
		for _, ext := range s.workspace.lookup(sym.Name, sym.Context, uriToPath(snap.uri)) {
			if ext.Source == nil {
				fmt.Fprintf(&sb, "\n\n*Defined in %s*", s.relativePath(ext.File))
				continue
			}
			fmt.Fprintf(&sb, "\n\n*Defined in %s:%d*", s.relativePath(ext.File), ext.Source.Line)
		}
	}
	return sb.String()
}

// relativePath returns path relative to the workspace root when possible.
func (s *Server) relativePath(path string) string {
	if s.rootPath == "" {
		return path
	}
	if rel, err := filepath.Rel(s.rootPath, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

// declInitializer returns the value assigned to decl in the declaration
// list of a Module-like scope, or nil.
func declInitializer(scope, decl *ast.Node) *ast.Node {
	list := scope.Arg(0)
	if !list.IsList() {
		return nil
	}
	entry := list.ChildContaining(decl)
	if entry == nil || (entry.Kind != ast.KindSet && entry.Kind != ast.KindSetDelayed) || len(entry.Children) < 2 {
		return nil
	}
	if entry.Children[0] != decl {
		return nil
	}
	return entry.Children[1]
}
