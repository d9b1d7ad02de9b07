// Copyright © 2024 The wlscope authors

package lsp

import (
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// workspaceSymbol handles the workspace/symbol request.
// It returns all file-level definitions across the workspace whose name
// contains the query, ignoring case.  An empty query returns all symbols.
func (s *Server) workspaceSymbol(_ *glsp.Context, params *protocol.WorkspaceSymbolParams) ([]protocol.SymbolInformation, error) {
	s.ensureWorkspaceIndex()

	query := strings.ToLower(params.Query)
	results := []protocol.SymbolInformation{}
	seen := make(map[string]bool)

	// Open documents first, since they may be newer than the index.
	for _, doc := range s.docs.All() {
		snap := doc.snapshot(s.resolver)
		path := uriToPath(snap.uri)
		seen[path] = true
		for _, b := range snap.file.Globals().Bindings() {
			if !matchesQuery(b.Name, query) {
				continue
			}
			results = append(results, symbolInformation(b.Name, effectiveContext(b.Context), mapSymbolKind(b),
				protocol.Location{URI: snap.uri, Range: nodeRange(b.Node)}))
		}
	}

	for _, ext := range s.workspace.all() {
		if seen[ext.File] || !matchesQuery(ext.Name, query) {
			continue
		}
		results = append(results, symbolInformation(ext.Name, effectiveContext(ext.Context), protocol.SymbolKindVariable,
			protocol.Location{URI: pathToURI(ext.File), Range: toLSPRange(ext.Source, len([]rune(ext.Name)))}))
	}
	return results, nil
}

func symbolInformation(name, context string, kind protocol.SymbolKind, loc protocol.Location) protocol.SymbolInformation {
	return protocol.SymbolInformation{
		Name:          name,
		Kind:          kind,
		Location:      loc,
		ContainerName: &context,
	}
}

// matchesQuery reports whether name contains the lowercased query.
func matchesQuery(name, query string) bool {
	return query == "" || strings.Contains(strings.ToLower(name), query)
}
