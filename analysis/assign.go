// Copyright © 2024 The wlscope authors

package analysis

import "github.com/halirutan/wlscope/ast"

// AssignmentSymbols returns the symbols a top-level statement defines:
//
//	x = 1              x
//	f[x_] := x         f
//	f[a][b_] := b      f (SubValues)
//	{a, {b, c}} = v    a, b, c
//	g /: h[g] := 1     g
//	h[g, k[z]] ^= 1    g, k
//	a = 1; b = 2       a, b
//
// Conditions and HoldPattern around a left-hand side are looked through.
func AssignmentSymbols(stmt *ast.Node) []*ast.Node {
	if stmt == nil {
		return nil
	}
	switch stmt.Kind {
	case ast.KindCompoundExpression:
		var syms []*ast.Node
		for _, c := range stmt.Children {
			syms = append(syms, AssignmentSymbols(c)...)
		}
		return syms
	case ast.KindGroup:
		return AssignmentSymbols(stmt.FirstChild())
	case ast.KindSet, ast.KindSetDelayed:
		return lhsSymbols(unwrapLHS(stmt.FirstChild()))
	case ast.KindTagSet, ast.KindTagSetDelayed:
		if tag := stmt.FirstChild(); tag.IsSymbol() {
			return []*ast.Node{tag}
		}
	case ast.KindUpSet, ast.KindUpSetDelayed:
		return upValueSymbols(unwrapLHS(stmt.FirstChild()))
	}
	return nil
}

func unwrapLHS(lhs *ast.Node) *ast.Node {
	for lhs != nil {
		switch {
		case lhs.Kind == ast.KindCondition, lhs.Kind == ast.KindGroup:
			lhs = lhs.FirstChild()
		case lhs.Kind == ast.KindCall && lhs.Head().IsSymbolNamed("HoldPattern"):
			lhs = lhs.Arg(0)
		default:
			return lhs
		}
	}
	return nil
}

func lhsSymbols(lhs *ast.Node) []*ast.Node {
	switch {
	case lhs.IsSymbol():
		return []*ast.Node{lhs}
	case lhs == nil:
		return nil
	case lhs.Kind == ast.KindCall:
		if h := innermostHead(lhs); h.IsSymbol() {
			return []*ast.Node{h}
		}
	case lhs.IsList():
		return listSymbols(lhs)
	}
	return nil
}

// innermostHead returns f for f[a], f[a][b] and f[a][b][c].
func innermostHead(call *ast.Node) *ast.Node {
	h := call.Head()
	for h != nil && h.Kind == ast.KindCall {
		h = h.Head()
	}
	return h
}

// listSymbols returns the symbols of arbitrarily nested lists.
func listSymbols(list *ast.Node) []*ast.Node {
	var syms []*ast.Node
	for _, c := range list.Children {
		switch {
		case c.IsSymbol():
			syms = append(syms, c)
		case c.IsList():
			syms = append(syms, listSymbols(c)...)
		}
	}
	return syms
}

func upValueSymbols(lhs *ast.Node) []*ast.Node {
	if lhs == nil || lhs.Kind != ast.KindCall {
		return nil
	}
	var syms []*ast.Node
	for _, arg := range lhs.Args() {
		switch {
		case arg.IsSymbol():
			syms = append(syms, arg)
		case arg.Kind == ast.KindCall:
			if h := innermostHead(arg); h.IsSymbol() {
				syms = append(syms, h)
			}
		}
	}
	return syms
}

// Globals holds the file-level definitions of one tree.  The first
// definition of a name is its binding; later ones refer to it.
type Globals struct {
	root  *ast.Node
	order []*ast.Node
	first map[string]*ast.Node
}

// FileGlobals collects the definitions made by the top-level statements of
// root.
func FileGlobals(root *ast.Node) *Globals {
	g := &Globals{root: root, first: make(map[string]*ast.Node)}
	if root == nil {
		return g
	}
	for _, stmt := range root.Children {
		for _, sym := range AssignmentSymbols(stmt) {
			key := effectiveContext(sym) + sym.Name
			if _, ok := g.first[key]; ok {
				continue
			}
			g.first[key] = sym
			g.order = append(g.order, sym)
		}
	}
	return g
}

// Lookup returns the defining occurrence of the global that occ refers to.
func (g *Globals) Lookup(occ *ast.Node) (*ast.Node, bool) {
	if occ.Context != "" {
		decl, ok := g.first[occ.Context+occ.Name]
		return decl, ok
	}
	if decl, ok := g.first[DefaultContext+occ.Name]; ok {
		return decl, true
	}
	// An unqualified occurrence also sees a definition made with an
	// explicit context.
	for _, decl := range g.order {
		if decl.Name == occ.Name {
			return decl, true
		}
	}
	return nil, false
}

// Definitions returns the defining occurrences in source order.
func (g *Globals) Definitions() []*ast.Node {
	return g.order
}

// Bindings returns the globals as bindings in source order.
func (g *Globals) Bindings() []*Binding {
	bs := make([]*Binding, 0, len(g.order))
	for _, decl := range g.order {
		bs = append(bs, newFileGlobal(decl, g.root))
	}
	return bs
}
