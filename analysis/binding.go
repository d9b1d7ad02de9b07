// Copyright © 2024 The wlscope authors

package analysis

import (
	"github.com/halirutan/wlscope/ast"
	"github.com/halirutan/wlscope/catalog"
)

// BindingKind classifies what introduced a name.
type BindingKind int

const (
	BindingUnresolved BindingKind = iota // no binding found, an implicit global
	BindingLocal                         // declared by a scoping construct
	BindingPattern                       // bound by a pattern in an assignment or rule
	BindingFileGlobal                    // defined by a top-level assignment
	BindingBuiltin                       // a catalog entry
)

func (k BindingKind) String() string {
	switch k {
	case BindingUnresolved:
		return "unresolved"
	case BindingLocal:
		return "local"
	case BindingPattern:
		return "pattern"
	case BindingFileGlobal:
		return "file-global"
	case BindingBuiltin:
		return "builtin"
	default:
		return "unknown"
	}
}

// Binding associates a name with the construct that introduces it.
type Binding struct {
	Kind    BindingKind
	Name    string
	Context string
	// Node is the declaring symbol occurrence.  It is nil for builtins and
	// for Unresolved.
	Node *ast.Node
	// Scope is the scoping call, the assignment or rule binding a pattern,
	// or the file root for file globals.
	Scope     *ast.Node
	ScopeKind ScopeKind
	Entry     *catalog.Entry
}

// Unresolved is returned for occurrences that no scope, file definition or
// builtin binds.
var Unresolved = &Binding{Kind: BindingUnresolved}

// IsUnresolved reports whether b is missing or the Unresolved sentinel.
func (b *Binding) IsUnresolved() bool {
	return b == nil || b.Kind == BindingUnresolved
}

// FullName returns the name of the binding including its context.
func (b *Binding) FullName() string {
	return b.Context + b.Name
}

// Same reports whether b and other denote the same binding.
func (b *Binding) Same(other *Binding) bool {
	if b == nil || other == nil || b.Kind != other.Kind {
		return false
	}
	switch b.Kind {
	case BindingBuiltin:
		return b.Entry == other.Entry
	case BindingUnresolved:
		return b.FullName() == other.FullName()
	default:
		return b.Node == other.Node
	}
}

func (b *Binding) key() string {
	if b.Context == "" {
		return DefaultContext + b.Name
	}
	return b.Context + b.Name
}

// Description returns the usage type shown by find-usages and hover.
func (b *Binding) Description() string {
	switch b.Kind {
	case BindingLocal:
		return "Localized in " + scopeHeadName(b.Scope)
	case BindingPattern:
		return "Pattern in " + b.Scope.Kind.String()
	case BindingFileGlobal:
		return "File Symbol"
	case BindingBuiltin:
		return "Builtin (" + b.Context + ")"
	default:
		return "Unresolved"
	}
}

func scopeHeadName(scope *ast.Node) string {
	if name := scope.HeadName(); name != "" {
		return name
	}
	return "scope"
}

func newLocal(decl, scope *ast.Node, kind ScopeKind) *Binding {
	return &Binding{
		Kind:      BindingLocal,
		Name:      decl.Name,
		Context:   decl.Context,
		Node:      decl,
		Scope:     scope,
		ScopeKind: kind,
	}
}

func newPattern(decl, scope *ast.Node) *Binding {
	return &Binding{
		Kind:    BindingPattern,
		Name:    decl.Name,
		Context: decl.Context,
		Node:    decl,
		Scope:   scope,
	}
}

func newFileGlobal(decl, root *ast.Node) *Binding {
	return &Binding{
		Kind:    BindingFileGlobal,
		Name:    decl.Name,
		Context: decl.Context,
		Node:    decl,
		Scope:   root,
	}
}

func newBuiltin(e *catalog.Entry) *Binding {
	return &Binding{
		Kind:    BindingBuiltin,
		Name:    e.Name,
		Context: e.Context,
		Entry:   e,
	}
}

// DefaultContext is the context of unqualified user symbols.
const DefaultContext = "Global`"

// effectiveContext returns the context a symbol occurrence lives in.
func effectiveContext(sym *ast.Node) string {
	if sym.Context == "" {
		return DefaultContext
	}
	return sym.Context
}

// nameEqual reports whether the declaring symbol decl binds the occurrence
// occ.  An unqualified occurrence matches on the name alone.  A qualified
// occurrence also needs the contexts to agree.
func nameEqual(decl, occ *ast.Node) bool {
	if decl.Name != occ.Name {
		return false
	}
	if occ.Context == "" {
		return true
	}
	return effectiveContext(decl) == occ.Context
}
