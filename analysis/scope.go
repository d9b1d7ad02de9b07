// Copyright © 2024 The wlscope authors

package analysis

import (
	"github.com/halirutan/wlscope/ast"
	"github.com/halirutan/wlscope/catalog"
)

// ScopeKind classifies how a scoping construct declares its variables.
type ScopeKind int

const (
	ScopeNone       ScopeKind = iota // not a scoping construct
	ScopeFunction                    // Function[x, body]
	ScopeModule                      // Module, Block, With
	ScopeTable                       // Table, Sum, Do and other iterators
	ScopeCompile                     // Compile typed argument lists
	ScopeManipulate                  // Manipulate control specifications
	ScopeLimit                       // Limit[f, x -> x0]
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeNone:
		return "none"
	case ScopeFunction:
		return "function"
	case ScopeModule:
		return "module"
	case ScopeTable:
		return "table"
	case ScopeCompile:
		return "compile"
	case ScopeManipulate:
		return "manipulate"
	case ScopeLimit:
		return "limit"
	default:
		return "unknown"
	}
}

// ParseScopeKind maps a catalog localization name to its ScopeKind.
func ParseScopeKind(localization string) ScopeKind {
	switch localization {
	case "Function":
		return ScopeFunction
	case "Module":
		return ScopeModule
	case "Table":
		return ScopeTable
	case "Compile":
		return ScopeCompile
	case "Manipulate":
		return ScopeManipulate
	case "Limit":
		return ScopeLimit
	default:
		return ScopeNone
	}
}

// Classifier maps call heads to their ScopeKind using the localization
// facts of a catalog.  Only builtins carry scoping behavior, so user
// defined heads are always ScopeNone.
type Classifier struct {
	kinds map[string]ScopeKind
}

// NewClassifier indexes the localization facts of cat.
func NewClassifier(cat *catalog.Catalog) *Classifier {
	c := &Classifier{kinds: make(map[string]ScopeKind)}
	for _, e := range cat.Entries() {
		if k := ParseScopeKind(e.Localization); k != ScopeNone {
			c.kinds[e.FullName] = k
		}
	}
	return c
}

// Classify returns the ScopeKind of a head name.  Names without a context
// are looked up in System`.
func (c *Classifier) Classify(headName string) ScopeKind {
	return c.kinds[catalog.QualifiedName(headName)]
}

// ClassifyCall returns the ScopeKind of call, or ScopeNone when call is not
// a call with a symbol head.
func (c *Classifier) ClassifyCall(call *ast.Node) ScopeKind {
	if call == nil || call.Kind != ast.KindCall {
		return ScopeNone
	}
	h := call.Head()
	if !h.IsSymbol() {
		return ScopeNone
	}
	return c.Classify(h.FullName())
}
