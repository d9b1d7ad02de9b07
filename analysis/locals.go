// Copyright © 2024 The wlscope authors

package analysis

import "github.com/halirutan/wlscope/ast"

// LocalVariables returns the symbols a scoping call of the given kind
// declares, in source order.  Duplicates are kept.  A call whose arguments
// do not have the shape the construct expects declares nothing.
func LocalVariables(kind ScopeKind, call *ast.Node) []*ast.Node {
	if call == nil || call.Kind != ast.KindCall {
		return nil
	}
	args := call.Args()
	switch kind {
	case ScopeFunction:
		return functionLocals(args)
	case ScopeModule:
		return moduleLocals(args)
	case ScopeTable:
		return tableLocals(args)
	case ScopeManipulate:
		return manipulateLocals(args)
	case ScopeCompile:
		return compileLocals(args)
	case ScopeLimit:
		return limitLocals(args)
	default:
		return nil
	}
}

// functionLocals handles Function[x, body], Function[{x, y}, body] and
// Function[params, body, attrs].  Function[body] uses slots.
func functionLocals(args []*ast.Node) []*ast.Node {
	switch len(args) {
	case 2:
		params := args[0]
		if params.IsSymbol() {
			return []*ast.Node{params}
		}
		return nestedListSymbols(params)
	case 3:
		params := args[0]
		if params.IsSymbol() {
			if params.IsSymbolNamed("Null") {
				return nil
			}
			return []*ast.Node{params}
		}
		return nestedListSymbols(params)
	}
	return nil
}

// nestedListSymbols returns the symbols of a list and of the lists directly
// nested in it.
func nestedListSymbols(list *ast.Node) []*ast.Node {
	if !list.IsList() {
		return nil
	}
	var syms []*ast.Node
	for _, c := range list.Children {
		switch {
		case c.IsSymbol():
			syms = append(syms, c)
		case c.IsList():
			for _, cc := range c.Children {
				if cc.IsSymbol() {
					syms = append(syms, cc)
				}
			}
		}
	}
	return syms
}

// moduleLocals handles Module[{x, y = init, z := init}, body].
func moduleLocals(args []*ast.Node) []*ast.Node {
	if len(args) < 1 || !args[0].IsList() {
		return nil
	}
	var syms []*ast.Node
	for _, c := range args[0].Children {
		switch {
		case c.IsSymbol():
			syms = append(syms, c)
		case c.Kind == ast.KindSet || c.Kind == ast.KindSetDelayed:
			if lhs := c.FirstChild(); lhs.IsSymbol() {
				syms = append(syms, lhs)
			}
		}
	}
	return syms
}

// Initializer returns the initializer of a Module-like declaration list
// entry that contains n, or nil.  Initializers are evaluated outside the
// construct, so occurrences inside them are not bound by it.
func Initializer(call, n *ast.Node) *ast.Node {
	decls := call.Arg(0)
	if !decls.IsList() {
		return nil
	}
	decl := decls.ChildContaining(n)
	if decl == nil || (decl.Kind != ast.KindSet && decl.Kind != ast.KindSetDelayed) || len(decl.Children) < 2 {
		return nil
	}
	if init := decl.Children[1]; init.Contains(n) {
		return init
	}
	return nil
}

// tableLocals handles iterator specifications {i, imax}, {i, imin, imax}
// and {i, imin, imax, di} in every argument after the first.
func tableLocals(args []*ast.Node) []*ast.Node {
	if len(args) < 2 {
		return nil
	}
	var syms []*ast.Node
	for _, spec := range args[1:] {
		if !spec.IsList() {
			continue
		}
		if v := spec.FirstChild(); v.IsSymbol() {
			syms = append(syms, v)
		}
	}
	return syms
}

// manipulateLocals handles control specifications {u, umin, umax} and
// {{u, uinit}, umin, umax}.
func manipulateLocals(args []*ast.Node) []*ast.Node {
	if len(args) < 2 {
		return nil
	}
	var syms []*ast.Node
	for _, spec := range args[1:] {
		if !spec.IsList() {
			continue
		}
		v := spec.FirstChild()
		switch {
		case v.IsSymbol():
			syms = append(syms, v)
		case v.IsList():
			if vv := v.FirstChild(); vv.IsSymbol() {
				syms = append(syms, vv)
			}
		}
	}
	return syms
}

// compileLocals handles Compile[x, body] and typed argument lists
// Compile[{{x, _Real}, {y, _Integer}}, body].
func compileLocals(args []*ast.Node) []*ast.Node {
	if len(args) < 1 {
		return nil
	}
	params := args[0]
	if params.IsSymbol() {
		return []*ast.Node{params}
	}
	if !params.IsList() {
		return nil
	}
	var syms []*ast.Node
	for _, c := range params.Children {
		if !c.IsList() {
			continue
		}
		if v := c.FirstChild(); v.IsSymbol() {
			syms = append(syms, v)
		}
	}
	return syms
}

// limitLocals handles Limit[f, x -> x0].
func limitLocals(args []*ast.Node) []*ast.Node {
	if len(args) < 2 {
		return nil
	}
	rule := args[1]
	if rule.Kind != ast.KindRule || len(rule.Children) != 2 {
		return nil
	}
	if v := rule.FirstChild(); v.IsSymbol() {
		return []*ast.Node{v}
	}
	return nil
}
