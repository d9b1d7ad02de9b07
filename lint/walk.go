// Copyright © 2024 The wlscope authors

package lint

import (
	"sync"

	"github.com/halirutan/wlscope/analysis"
	"github.com/halirutan/wlscope/ast"
	"github.com/halirutan/wlscope/astutil"
	"github.com/halirutan/wlscope/catalog"
)

var defaultResolver = sync.OnceValue(func() *analysis.Resolver {
	return analysis.NewResolver(catalog.Default())
})

// ScopingCalls calls fn for every call of the file whose head is a scoping
// construct, outermost first.
func ScopingCalls(pass *Pass, fn func(call *ast.Node, kind analysis.ScopeKind)) {
	classifier := pass.Resolver.Classifier()
	astutil.WalkCalls(pass.Statements(), func(call *ast.Node, _ int) {
		if kind := classifier.ClassifyCall(call); kind != analysis.ScopeNone {
			fn(call, kind)
		}
	})
}

// HeadFullName returns the catalog name of a call's symbol head, or "".
func HeadFullName(call *ast.Node) string {
	h := call.Head()
	if !h.IsSymbol() {
		return ""
	}
	return catalog.QualifiedName(h.FullName())
}

// sameName reports whether two declaring symbols spell the same name.
func sameName(a, b *ast.Node) bool {
	return a.Name == b.Name && contextOf(a) == contextOf(b)
}

func contextOf(sym *ast.Node) string {
	if sym.Context == "" {
		return analysis.DefaultContext
	}
	return sym.Context
}

// inDeclarations reports whether n lies in the declaration argument of a
// Module-like call.
func inDeclarations(call, n *ast.Node) bool {
	decls := call.Arg(0)
	return decls != nil && decls.Contains(n)
}
