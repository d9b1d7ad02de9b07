// Copyright © 2024 The wlscope authors

// Package analysis resolves symbol occurrences in Wolfram Language
// expression trees.
//
// Scope in the language is not lexical.  A call introduces local names when
// its head is a builtin scoping construct, and which argument positions
// declare names depends on the construct.  The Classifier maps heads to a
// ScopeKind, LocalVariables and PatternVariables extract the declared
// symbols, and the Resolver walks outward from an occurrence to the
// innermost scope that binds it before falling back to file-level
// definitions and the builtin catalog.
package analysis

import (
	"github.com/halirutan/wlscope/ast"
	"github.com/halirutan/wlscope/astutil"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("wlscope.analysis")

// Result holds the resolution of every symbol occurrence of a file.
type Result struct {
	File       *File
	Globals    []*Binding
	References []*Reference
	Unresolved []*UnresolvedRef
}

// Analyze resolves every symbol occurrence of f in source order.  Pattern
// names of blanks are occurrences too.
func Analyze(r *Resolver, f *File) *Result {
	res := &Result{File: f, Globals: f.Globals().Bindings()}
	for _, sym := range astutil.Symbols(f.Root()) {
		b := r.Resolve(f, sym)
		if b.IsUnresolved() {
			res.Unresolved = append(res.Unresolved, &UnresolvedRef{
				Name:    sym.Name,
				Context: sym.Context,
				Source:  sym.Source,
				Node:    sym,
			})
			continue
		}
		res.References = append(res.References, &Reference{Binding: b, Source: sym.Source, Node: sym})
	}
	return res
}

// ReferencesTo returns the references of res that resolve to the same
// binding as b, in source order.
func (res *Result) ReferencesTo(b *Binding) []*Reference {
	var refs []*Reference
	for _, ref := range res.References {
		if ref.Binding.Same(b) {
			refs = append(refs, ref)
		}
	}
	return refs
}

// ReferenceAt returns the reference whose node is n, or nil.
func (res *Result) ReferenceAt(n *ast.Node) *Reference {
	for _, ref := range res.References {
		if ref.Node == n {
			return ref
		}
	}
	return nil
}
