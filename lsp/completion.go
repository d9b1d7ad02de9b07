// Copyright © 2024 The wlscope authors

package lsp

import (
	"fmt"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/halirutan/wlscope/analysis"
)

// textDocumentCompletion handles the textDocument/completion request.
func (s *Server) textDocumentCompletion(_ *glsp.Context, params *protocol.CompletionParams) (any, error) {
	snap, ok := s.snapshot(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	prefix := ""
	at := symbolAt(snap, params.Position)
	if at != nil {
		prefix = at.Name
	} else if at = nodeAt(snap, params.Position); at != nil && len(at.Children) > 0 {
		// Between the arguments of a construct its own locals are
		// visible, as they are from its last argument.
		at = at.Children[len(at.Children)-1]
	}

	var items []protocol.CompletionItem
	seen := make(map[string]bool)
	for _, c := range s.resolver.Completions(snap.file, at, prefix) {
		seen[c.Name] = true
		items = append(items, completionItem(c))
	}

	// Definitions of other workspace files rank just below this file's.
	for _, ext := range s.workspace.all() {
		if seen[ext.Name] || ext.File == uriToPath(snap.uri) || !samePrefix(ext.Name, prefix) {
			continue
		}
		seen[ext.Name] = true
		kind := protocol.CompletionItemKindVariable
		detail := fmt.Sprintf("File Symbol (%s)", s.relativePath(ext.File))
		items = append(items, protocol.CompletionItem{
			Label:    ext.Name,
			Kind:     &kind,
			Detail:   &detail,
			SortText: sortText(analysis.PriorityGlobal - 1),
		})
	}
	return items, nil
}

func completionItem(c analysis.Candidate) protocol.CompletionItem {
	kind := mapCompletionItemKind(c.Binding)
	item := protocol.CompletionItem{
		Label:    c.Name,
		Kind:     &kind,
		SortText: sortText(c.Priority),
	}
	if c.Detail != "" {
		item.Detail = strPtr(c.Detail)
	}
	if e := c.Binding.Entry; e != nil && len(e.Forms) > 0 {
		forms := make([]string, len(e.Forms))
		for i, f := range e.Forms {
			forms[i] = f.String()
		}
		item.Documentation = &protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: "```wolfram\n" + strings.Join(forms, "\n") + "\n```",
		}
	}
	return item
}

// sortText orders higher priorities first.  The text is always five digits
// so that string order matches priority order.
func sortText(priority int) *string {
	return strPtr(fmt.Sprintf("%05d", min(99999, max(0, 99999-priority))))
}

// samePrefix applies the first-letter filter of Resolver.Completions.
func samePrefix(name, prefix string) bool {
	if prefix == "" {
		return true
	}
	return strings.HasPrefix(name, string([]rune(prefix)[:1]))
}
