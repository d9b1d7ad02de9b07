// Copyright © 2024 The wlscope authors

package lsp

import (
	"sort"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/halirutan/wlscope/analysis"
	"github.com/halirutan/wlscope/ast"
	"github.com/halirutan/wlscope/astutil"
	"github.com/halirutan/wlscope/parser/token"
)

// Semantic token type indices; must match the order in semanticTokenLegend().
const (
	semTokenNamespace = iota
	semTokenParameter
	semTokenVariable
	semTokenFunction
	semTokenComment
	semTokenString
	semTokenNumber
)

// Semantic token modifier bit flags; must match the order in semanticTokenLegend().
const (
	semModDeclaration = 1 << iota
	semModDefaultLibrary
	semModReadonly
)

// semanticTokenLegend returns the legend that the client uses to decode tokens.
func semanticTokenLegend() protocol.SemanticTokensLegend {
	return protocol.SemanticTokensLegend{
		TokenTypes: []string{
			"namespace", // 0
			"parameter", // 1
			"variable",  // 2
			"function",  // 3
			"comment",   // 4
			"string",    // 5
			"number",    // 6
		},
		TokenModifiers: []string{
			"declaration",    // bit 0
			"defaultLibrary", // bit 1
			"readonly",       // bit 2
		},
	}
}

// rawToken is an intermediate representation before delta encoding.
type rawToken struct {
	line      int // 0-based
	startChar int // 0-based
	length    int
	tokenType int
	modifiers int
}

// textDocumentSemanticTokensFull handles the textDocument/semanticTokens/full
// request.  Symbols are colored by what binds them: pattern variables as
// parameters, locals as variables, file definitions as functions or
// variables, and builtins with the defaultLibrary modifier.  Unresolved
// symbols get no token.
func (s *Server) textDocumentSemanticTokensFull(_ *glsp.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	snap, ok := s.snapshot(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	var tokens []rawToken
	for _, ref := range snap.result.References {
		if tok, ok := symbolToken(ref); ok {
			tokens = append(tokens, tok)
		}
	}
	astutil.Inspect(snap.file.Root(), func(n *ast.Node) bool {
		switch n.Kind {
		case ast.KindNumber:
			tokens = appendSpan(tokens, n.Source, semTokenNumber, 0)
		case ast.KindString:
			tokens = appendSpan(tokens, n.Source, semTokenString, 0)
		}
		return true
	})
	for _, c := range snap.comments {
		tokens = appendSpan(tokens, c.Source, semTokenComment, 0)
	}

	// Sort by position (line, then character).
	sort.Slice(tokens, func(i, j int) bool {
		if tokens[i].line != tokens[j].line {
			return tokens[i].line < tokens[j].line
		}
		return tokens[i].startChar < tokens[j].startChar
	})

	return &protocol.SemanticTokens{Data: deltaEncode(tokens)}, nil
}

// symbolToken classifies one resolved occurrence.
func symbolToken(ref *analysis.Reference) (rawToken, bool) {
	b := ref.Binding
	var typ, mods int
	switch b.Kind {
	case analysis.BindingPattern:
		typ = semTokenParameter
	case analysis.BindingLocal:
		typ = semTokenVariable
		if b.ScopeKind == analysis.ScopeModule && b.Scope.HeadName() == "With" {
			mods |= semModReadonly
		}
	case analysis.BindingFileGlobal:
		typ = semTokenVariable
		if definesFunction(b.Node) {
			typ = semTokenFunction
		}
	case analysis.BindingBuiltin:
		typ = semTokenVariable
		if b.Entry.Function {
			typ = semTokenFunction
		}
		mods |= semModDefaultLibrary
	default:
		return rawToken{}, false
	}
	if ref.IsDeclaration() {
		mods |= semModDeclaration
	}
	toks := appendSpan(nil, ref.Source, typ, mods)
	if len(toks) == 0 {
		return rawToken{}, false
	}
	return toks[0], true
}

// appendSpan adds a token for loc.  Tokens spanning lines are skipped;
// the server does not announce multiline token support.
func appendSpan(tokens []rawToken, loc *token.Location, typ, mods int) []rawToken {
	if loc == nil || loc.Line == 0 || loc.Col == 0 || loc.EndLine != loc.Line || loc.EndCol <= loc.Col {
		return tokens
	}
	return append(tokens, rawToken{
		line:      loc.Line - 1,
		startChar: loc.Col - 1,
		length:    loc.EndCol - loc.Col,
		tokenType: typ,
		modifiers: mods,
	})
}

// deltaEncode converts sorted raw tokens into the LSP delta-encoded format.
// Each token is 5 integers: [deltaLine, deltaStartChar, length, tokenType, tokenModifiers].
func deltaEncode(tokens []rawToken) []protocol.UInteger {
	data := make([]protocol.UInteger, 0, len(tokens)*5)
	prevLine := 0
	prevChar := 0
	for _, tok := range tokens {
		deltaLine := tok.line - prevLine
		deltaChar := tok.startChar
		if deltaLine == 0 {
			deltaChar = tok.startChar - prevChar
		}
		data = append(data,
			uinteger(deltaLine),
			uinteger(deltaChar),
			uinteger(tok.length),
			uinteger(tok.tokenType),
			uinteger(tok.modifiers),
		)
		prevLine = tok.line
		prevChar = tok.startChar
	}
	return data
}
