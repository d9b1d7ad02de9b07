// Copyright © 2024 The wlscope authors

// Package astutil provides shared tree walking utilities for expression
// trees.
//
// These helpers are used by the analysis, lint and lsp packages.
package astutil

import "github.com/halirutan/wlscope/ast"

// Walk calls fn for every node in the trees, depth-first in source order.
// parent is nil for the nodes passed in.
func Walk(nodes []*ast.Node, fn func(node *ast.Node, parent *ast.Node, depth int)) {
	for _, n := range nodes {
		walkNode(n, nil, 0, fn)
	}
}

func walkNode(node *ast.Node, parent *ast.Node, depth int, fn func(*ast.Node, *ast.Node, int)) {
	if node == nil {
		return
	}
	fn(node, parent, depth)
	for _, child := range node.Children {
		walkNode(child, node, depth+1, fn)
	}
}

// Inspect walks the tree rooted at n depth-first.  When fn returns false
// the children of that node are skipped.
func Inspect(n *ast.Node, fn func(*ast.Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		Inspect(c, fn)
	}
}

// WalkCalls calls fn for every call node whose head is a symbol.
func WalkCalls(nodes []*ast.Node, fn func(call *ast.Node, depth int)) {
	Walk(nodes, func(node *ast.Node, _ *ast.Node, depth int) {
		if node.Kind == ast.KindCall && node.Head().IsSymbol() {
			fn(node, depth)
		}
	})
}

// Symbols returns every symbol node below n in source order.  The pattern
// names of blanks are included.
func Symbols(n *ast.Node) []*ast.Node {
	var syms []*ast.Node
	Inspect(n, func(c *ast.Node) bool {
		if c.IsSymbol() {
			syms = append(syms, c)
		}
		return true
	})
	return syms
}

// NodeAt returns the innermost node under n whose source span contains the
// 1-based position line:col, or nil.
func NodeAt(n *ast.Node, line, col int) *ast.Node {
	if n == nil {
		return nil
	}
	if n.Kind != ast.KindFile && (n.Source == nil || !n.Source.Contains(line, col)) {
		return nil
	}
	for _, c := range n.Children {
		if found := NodeAt(c, line, col); found != nil {
			return found
		}
	}
	if n.Kind == ast.KindFile {
		return nil
	}
	return n
}

// SymbolAt returns the symbol node at line:col, or nil.  A position just
// past the end of a symbol still selects it, so a cursor placed after the
// last typed letter finds the symbol.
func SymbolAt(n *ast.Node, line, col int) *ast.Node {
	if s := NodeAt(n, line, col); s.IsSymbol() {
		return s
	}
	if col > 1 {
		if s := NodeAt(n, line, col-1); s.IsSymbol() {
			return s
		}
	}
	return nil
}

// EnclosingCall returns the nearest call ancestor of n whose head is a
// symbol, or nil.
func EnclosingCall(n *ast.Node) *ast.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Kind == ast.KindCall && p.Head().IsSymbol() && p.Head() != n {
			return p
		}
	}
	return nil
}

// ArgIndex returns the index of the call argument of call that contains n,
// or -1 when n lies in the head or outside call.
func ArgIndex(call, n *ast.Node) int {
	c := call.ChildContaining(n)
	if c == nil {
		return -1
	}
	return call.ChildIndex(c) - 1
}

// SourceOf returns the best source location for a node.  It prefers the
// node's own location and falls back to its first child's.
func SourceOf(n *ast.Node) *ast.Node {
	if n.Source != nil && n.Source.Line > 0 {
		return n
	}
	if c := n.FirstChild(); c != nil && c.Source != nil {
		return c
	}
	return n
}
