// Copyright © 2024 The wlscope authors

package analysis

import "github.com/halirutan/wlscope/ast"

// Pattern combinators whose first argument is the pattern they qualify.
var firstArgCombinators = map[string]bool{
	"Longest":     true,
	"Shortest":    true,
	"Repeated":    true,
	"Optional":    true,
	"PatternTest": true,
	"Condition":   true,
}

// PatternVariables returns the symbols that matching pattern binds, in
// source order.  Duplicates are kept.
func PatternVariables(pattern *ast.Node) []*ast.Node {
	var syms []*ast.Node
	collectPatternVariables(pattern, &syms)
	return syms
}

func collectPatternVariables(n *ast.Node, syms *[]*ast.Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.KindBlank, ast.KindBlankSequence, ast.KindBlankNullSequence:
		if name := n.PatternName(); name != nil {
			*syms = append(*syms, name)
		}
	case ast.KindPattern:
		if name := n.PatternName(); name != nil {
			*syms = append(*syms, name)
		}
		for _, c := range n.Children {
			collectPatternVariables(c, syms)
		}
	case ast.KindOptional, ast.KindCondition, ast.KindPatternTest:
		collectPatternVariables(n.FirstChild(), syms)
	case ast.KindCall:
		switch h := n.Head(); {
		case h.IsSymbolNamed("Verbatim"):
		case h.IsSymbol() && (h.Context == "" || h.Context == "System`") && firstArgCombinators[h.Name]:
			collectPatternVariables(n.Arg(0), syms)
		default:
			for _, c := range n.Children {
				collectPatternVariables(c, syms)
			}
		}
	case ast.KindOperator:
		if firstArgCombinators[n.Name] {
			collectPatternVariables(n.FirstChild(), syms)
			return
		}
		for _, c := range n.Children {
			collectPatternVariables(c, syms)
		}
	default:
		for _, c := range n.Children {
			collectPatternVariables(c, syms)
		}
	}
}
