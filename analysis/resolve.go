// Copyright © 2024 The wlscope authors

package analysis

import (
	"github.com/halirutan/wlscope/ast"
	"github.com/halirutan/wlscope/catalog"
)

// Resolver finds the binding of symbol occurrences.  A Resolver holds only
// read-only data and is safe for concurrent use.
type Resolver struct {
	cat        *catalog.Catalog
	classifier *Classifier
}

// NewResolver returns a resolver backed by cat.  A nil cat is treated as a
// degraded catalog.
func NewResolver(cat *catalog.Catalog) *Resolver {
	if cat == nil {
		cat = catalog.Empty()
	}
	return &Resolver{cat: cat, classifier: NewClassifier(cat)}
}

// Catalog returns the catalog the resolver consults.
func (r *Resolver) Catalog() *catalog.Catalog {
	return r.cat
}

// Classifier returns the scoping classifier of the resolver.
func (r *Resolver) Classifier() *Classifier {
	return r.classifier
}

// Resolve returns the binding of the symbol occurrence occ in f.  Enclosing
// scopes are searched innermost first, then the file-level definitions of
// f, then the builtin catalog.  An occurrence nothing binds resolves to
// Unresolved, as does any node that is not a symbol of f's current tree.
// Results are memoized until f changes.
func (r *Resolver) Resolve(f *File, occ *ast.Node) *Binding {
	if !occ.IsSymbol() || !f.Contains(occ) {
		return Unresolved
	}
	return f.resolved.GetOrCompute(occ, func() *Binding {
		return r.resolve(f.Globals(), occ)
	})
}

// ResolveLocal searches only the enclosing scopes of occ.  It returns nil
// when no scope binds it.
func (r *Resolver) ResolveLocal(occ *ast.Node) *Binding {
	if !occ.IsSymbol() {
		return nil
	}
	for child, scope := occ, occ.Parent; scope != nil; child, scope = scope, scope.Parent {
		if b := r.bindingIn(scope, child, occ); b != nil {
			return b
		}
	}
	return nil
}

func (r *Resolver) resolve(globals *Globals, occ *ast.Node) *Binding {
	if b := r.ResolveLocal(occ); b != nil {
		return b
	}
	if decl, ok := globals.Lookup(occ); ok {
		return newFileGlobal(decl, globals.root)
	}
	if e, ok := r.cat.Lookup(occ.FullName()); ok {
		return newBuiltin(e)
	}
	return Unresolved
}

// bindingIn returns the binding scope gives occ, which lies inside child,
// a direct child of scope.
func (r *Resolver) bindingIn(scope, child, occ *ast.Node) *Binding {
	switch scope.Kind {
	case ast.KindCall:
		kind := r.classifier.ClassifyCall(scope)
		if kind == ScopeNone || child == scope.Head() {
			return nil
		}
		if kind == ScopeModule && Initializer(scope, occ) != nil {
			return nil
		}
		if decl := lastMatch(LocalVariables(kind, scope), occ); decl != nil {
			return newLocal(decl, scope, kind)
		}
	case ast.KindSetDelayed, ast.KindUpSetDelayed, ast.KindRuleDelayed, ast.KindCondition:
		if decl := lastMatch(PatternVariables(scope.FirstChild()), occ); decl != nil {
			return newPattern(decl, scope)
		}
	case ast.KindTagSetDelayed:
		if decl := lastMatch(PatternVariables(scope.Arg(1)), occ); decl != nil {
			return newPattern(decl, scope)
		}
	case ast.KindSet, ast.KindUpSet, ast.KindRule:
		if isDeclaredBy(PatternVariables(scope.FirstChild()), occ) {
			return newPattern(occ, scope)
		}
	case ast.KindTagSet:
		if isDeclaredBy(PatternVariables(scope.Arg(1)), occ) {
			return newPattern(occ, scope)
		}
	}
	return nil
}

// lastMatch returns the last declaration binding occ.
func lastMatch(decls []*ast.Node, occ *ast.Node) *ast.Node {
	for i := len(decls) - 1; i >= 0; i-- {
		if nameEqual(decls[i], occ) {
			return decls[i]
		}
	}
	return nil
}

func isDeclaredBy(decls []*ast.Node, occ *ast.Node) bool {
	for _, d := range decls {
		if d == occ {
			return true
		}
	}
	return false
}

// CollectBindings returns the bindings scope introduces, one per name.  A
// file root yields its file-level definitions; a scoping call its local
// variables; an assignment, rule or condition its pattern variables.  Any
// other node introduces nothing.  When a name is declared twice the later
// declaration is kept at the position of the first.
func (r *Resolver) CollectBindings(scope *ast.Node) []*Binding {
	if scope == nil {
		return nil
	}
	switch scope.Kind {
	case ast.KindFile:
		return FileGlobals(scope).Bindings()
	case ast.KindCall:
		kind := r.classifier.ClassifyCall(scope)
		if kind == ScopeNone {
			return nil
		}
		return dedupe(LocalVariables(kind, scope), func(decl *ast.Node) *Binding {
			return newLocal(decl, scope, kind)
		})
	case ast.KindTagSet, ast.KindTagSetDelayed:
		return dedupe(PatternVariables(scope.Arg(1)), func(decl *ast.Node) *Binding {
			return newPattern(decl, scope)
		})
	case ast.KindSet, ast.KindSetDelayed, ast.KindUpSet, ast.KindUpSetDelayed,
		ast.KindRule, ast.KindRuleDelayed, ast.KindCondition:
		return dedupe(PatternVariables(scope.FirstChild()), func(decl *ast.Node) *Binding {
			return newPattern(decl, scope)
		})
	}
	return nil
}

func dedupe(decls []*ast.Node, bind func(*ast.Node) *Binding) []*Binding {
	var out []*Binding
	index := make(map[string]int, len(decls))
	for _, decl := range decls {
		key := effectiveContext(decl) + decl.Name
		if i, ok := index[key]; ok {
			out[i] = bind(decl)
			continue
		}
		index[key] = len(out)
		out = append(out, bind(decl))
	}
	return out
}

// Visible returns the bindings visible at n, innermost scope first and one
// per name: locals and pattern variables of the enclosing scopes, then the
// file-level definitions of f.  Builtins are not included.
func (r *Resolver) Visible(f *File, n *ast.Node) []*Binding {
	var out []*Binding
	seen := make(map[string]bool)
	add := func(b *Binding) {
		key := b.key()
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, b)
	}
	for child, scope := n, n.Parent; scope != nil; child, scope = scope, scope.Parent {
		if scope.Kind == ast.KindFile {
			break
		}
		if scope.Kind == ast.KindCall && child == scope.Head() {
			continue
		}
		if scope.Kind == ast.KindCall && r.classifier.ClassifyCall(scope) == ScopeModule && Initializer(scope, n) != nil {
			continue
		}
		switch scope.Kind {
		case ast.KindSet, ast.KindUpSet, ast.KindRule, ast.KindTagSet:
			// These bind only their own pattern occurrences.
			continue
		}
		for _, b := range r.CollectBindings(scope) {
			add(b)
		}
	}
	for _, b := range f.Globals().Bindings() {
		add(b)
	}
	return out
}
