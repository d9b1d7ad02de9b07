// Copyright © 2024 The wlscope authors

package catalog

import (
	"embed"
	"io/fs"
	"sync"

	"github.com/tliron/commonlog"
)

//go:embed data/*.properties
var data embed.FS

var log = commonlog.GetLogger("wlscope.catalog")

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Data returns the embedded metadata resources.
func Data() fs.FS {
	sub, err := fs.Sub(data, "data")
	if err != nil {
		panic(err)
	}
	return sub
}

// Default returns the catalog built from the embedded resources.  It is
// loaded on first use.  When loading fails the error is logged and a
// degraded catalog is returned; DefaultErr reports the failure.
func Default() *Catalog {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Load(Data())
		if defaultErr != nil {
			log.Errorf("builtin metadata unavailable: %v", defaultErr)
			defaultCatalog = Empty()
			return
		}
		log.Debugf("loaded %d builtin symbols in %d contexts", defaultCatalog.Len(), len(defaultCatalog.contexts))
	})
	return defaultCatalog
}

// DefaultErr returns the error from loading the default catalog, if any.
func DefaultErr() error {
	Default()
	return defaultErr
}
