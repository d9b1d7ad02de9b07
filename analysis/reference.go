// Copyright © 2024 The wlscope authors

package analysis

import (
	"github.com/halirutan/wlscope/ast"
	"github.com/halirutan/wlscope/parser/token"
)

// Reference records a resolved symbol occurrence.
type Reference struct {
	Binding *Binding
	Source  *token.Location
	Node    *ast.Node
}

// IsDeclaration reports whether the occurrence is the declaring symbol of
// its binding.
func (r *Reference) IsDeclaration() bool {
	return r.Binding != nil && r.Binding.Node == r.Node
}

// UnresolvedRef records a symbol occurrence that nothing binds.
type UnresolvedRef struct {
	Name    string
	Context string
	Source  *token.Location
	Node    *ast.Node
}
