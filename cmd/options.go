// Copyright © 2024 The wlscope authors

package cmd

import (
	"github.com/halirutan/wlscope/analysis"
	"github.com/halirutan/wlscope/catalog"
)

// Option configures an exported command factory (LintCommand, DocCommand).
type Option func(*cmdConfig)

type cmdConfig struct {
	catalog  *catalog.Catalog
	resolver *analysis.Resolver
}

// WithCatalog injects the builtin symbol table used for resolution and
// documentation in place of the embedded one.
func WithCatalog(cat *catalog.Catalog) Option {
	return func(c *cmdConfig) { c.catalog = cat }
}

// WithResolver injects a fully configured resolver.  Its catalog is used
// for documentation queries too.
func WithResolver(r *analysis.Resolver) Option {
	return func(c *cmdConfig) { c.resolver = r }
}

func newCmdConfig(opts []Option) *cmdConfig {
	var cfg cmdConfig
	for _, o := range opts {
		o(&cfg)
	}
	return &cfg
}

// resolveResolver returns the best available resolver from the options.
// An injected resolver is preferred, then one over an injected catalog,
// falling back to the embedded catalog.
func (c *cmdConfig) resolveResolver() *analysis.Resolver {
	if c.resolver != nil {
		return c.resolver
	}
	return analysis.NewResolver(c.resolveCatalog())
}

// resolveCatalog returns the catalog documentation is read from.
func (c *cmdConfig) resolveCatalog() *catalog.Catalog {
	switch {
	case c.resolver != nil:
		return c.resolver.Catalog()
	case c.catalog != nil:
		return c.catalog
	default:
		return catalog.Default()
	}
}
