// Copyright © 2024 The wlscope authors

// Package catalog provides the static metadata of builtin Wolfram Language
// symbols: contexts, relevance weights, call patterns, attributes, options,
// the language version that introduced a symbol, and the localization
// behavior of scoping constructs.
//
// A Catalog is immutable once loaded.  Binaries share one instance through
// Default; libraries and tests pass an explicit *Catalog to constructors.
package catalog

import (
	"errors"
	"sort"
	"strings"
)

// SystemContext is the context of the builtin symbols.
const SystemContext = "System`"

// ErrMetadataLoad is wrapped by every error returned from Load.
var ErrMetadataLoad = errors.New("metadata load failure")

// Fact is a tri-state answer.  Degraded catalogs answer FactUnknown.
type Fact uint8

const (
	FactUnknown Fact = iota
	FactTrue
	FactFalse
)

func (f Fact) String() string {
	switch f {
	case FactTrue:
		return "true"
	case FactFalse:
		return "false"
	default:
		return "unknown"
	}
}

func factOf(b bool) Fact {
	if b {
		return FactTrue
	}
	return FactFalse
}

// Entry describes one builtin symbol.
type Entry struct {
	FullName string // e.g. System`Table
	Name     string // e.g. Table
	Context  string // e.g. System`
	Weight   int
	// Attributes lists the symbol attributes, e.g. HoldAll, Protected.
	Attributes []string
	// CallPattern is the usage template with its outer braces removed.
	CallPattern string
	Forms       []CallForm
	Function    bool
	Options     []string
	// Version is the language version that introduced the symbol, or 0 when
	// it is not recorded.
	Version float64
	// Localization names the scoping behavior of the symbol (Function,
	// Module, Table, Compile, Manipulate or Limit), or "".
	Localization string
}

// HasAttribute reports whether the entry carries attr.
func (e *Entry) HasAttribute(attr string) bool {
	for _, a := range e.Attributes {
		if a == attr {
			return true
		}
	}
	return false
}

// Catalog is a read-only table of builtin symbol metadata.
type Catalog struct {
	entries  map[string]*Entry
	ranked   []*Entry
	contexts map[string]struct{}
	degraded bool
}

// Empty returns a degraded catalog that knows no builtin facts.
func Empty() *Catalog {
	return &Catalog{
		entries:  map[string]*Entry{},
		contexts: map[string]struct{}{},
		degraded: true,
	}
}

// Degraded reports whether the catalog failed to load.  Degraded catalogs
// answer every question with FactUnknown.
func (c *Catalog) Degraded() bool {
	return c.degraded
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// QualifiedName returns name qualified with the System` context when it
// carries no context of its own.
func QualifiedName(name string) string {
	if strings.ContainsRune(name, '`') {
		return name
	}
	return SystemContext + name
}

// Lookup returns the entry for name.  Unqualified names are looked up in
// the System` context.
func (c *Catalog) Lookup(name string) (*Entry, bool) {
	e, ok := c.entries[QualifiedName(name)]
	return e, ok
}

// IsBuiltin reports whether name is a builtin symbol.
func (c *Catalog) IsBuiltin(name string) Fact {
	if c.degraded {
		return FactUnknown
	}
	_, ok := c.Lookup(name)
	return factOf(ok)
}

// Version returns the language version that introduced name.
func (c *Catalog) Version(name string) (float64, Fact) {
	if c.degraded {
		return 0, FactUnknown
	}
	e, ok := c.Lookup(name)
	if !ok || e.Version == 0 {
		return 0, FactFalse
	}
	return e.Version, FactTrue
}

// IsContext reports whether ctx (with trailing backtick) is a known context.
func (c *Catalog) IsContext(ctx string) bool {
	_, ok := c.contexts[ctx]
	return ok
}

// Contexts returns the known contexts in sorted order.
func (c *Catalog) Contexts() []string {
	ctxs := make([]string, 0, len(c.contexts))
	for ctx := range c.contexts {
		ctxs = append(ctxs, ctx)
	}
	sort.Strings(ctxs)
	return ctxs
}

// Entries returns all entries ordered by descending weight and then name.
// The returned slice must not be modified.
func (c *Catalog) Entries() []*Entry {
	return c.ranked
}

// WithPrefix returns the entries whose unqualified name starts with prefix
// in ranked order.
func (c *Catalog) WithPrefix(prefix string) []*Entry {
	var out []*Entry
	for _, e := range c.ranked {
		if strings.HasPrefix(e.Name, prefix) {
			out = append(out, e)
		}
	}
	return out
}

func (c *Catalog) rank() {
	c.ranked = make([]*Entry, 0, len(c.entries))
	for _, e := range c.entries {
		c.ranked = append(c.ranked, e)
	}
	sort.Slice(c.ranked, func(i, j int) bool {
		a, b := c.ranked[i], c.ranked[j]
		if a.Weight != b.Weight {
			return a.Weight > b.Weight
		}
		return a.FullName < b.FullName
	})
}
