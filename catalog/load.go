// Copyright © 2024 The wlscope authors

package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/magiconair/properties"
)

// Resource file names read by Load.
const (
	SymbolsFile      = "symbols.properties"
	ContextsFile     = "contexts.properties"
	VersionsFile     = "versions.properties"
	LocalizationFile = "localization.properties"
)

// Load reads the metadata resources from fsys.  The symbols resource is
// required; the others are optional.  Each symbols record has the form
//
//	System`Table=weight;attributes;reserved;callPattern;{options}
//
// where attributes are separated by spaces and options by ", ".  A weight
// that is not an integer is read as 0, a version that is not a number is
// ignored, and missing fields are empty.  Every returned error wraps
// ErrMetadataLoad.
func Load(fsys fs.FS) (*Catalog, error) {
	syms, err := readProperties(fsys, SymbolsFile, true)
	if err != nil {
		return nil, err
	}
	c := &Catalog{
		entries:  make(map[string]*Entry, syms.Len()),
		contexts: make(map[string]struct{}),
	}
	for _, key := range syms.Keys() {
		val, _ := syms.Get(key)
		e := parseEntry(key, val)
		c.entries[e.FullName] = e
		c.contexts[e.Context] = struct{}{}
	}

	ctxs, err := readProperties(fsys, ContextsFile, false)
	if err != nil {
		return nil, err
	}
	for _, key := range ctxs.Keys() {
		if !strings.HasSuffix(key, "`") {
			key += "`"
		}
		c.contexts[key] = struct{}{}
	}

	versions, err := readProperties(fsys, VersionsFile, false)
	if err != nil {
		return nil, err
	}
	for _, key := range versions.Keys() {
		val, _ := versions.Get(key)
		v, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			log.Debugf("%s: ignoring version %q of %s", VersionsFile, val, key)
			continue
		}
		if e, ok := c.entries[QualifiedName(key)]; ok {
			e.Version = v
		}
	}

	locs, err := readProperties(fsys, LocalizationFile, false)
	if err != nil {
		return nil, err
	}
	for _, key := range locs.Keys() {
		val, _ := locs.Get(key)
		if e, ok := c.entries[QualifiedName(key)]; ok {
			e.Localization = strings.TrimSpace(val)
		}
	}

	c.rank()
	return c, nil
}

func readProperties(fsys fs.FS, name string, required bool) (*properties.Properties, error) {
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return properties.NewProperties(), nil
		}
		return nil, fmt.Errorf("%w: %v", ErrMetadataLoad, err)
	}
	p, err := properties.Load(b, properties.UTF8)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMetadataLoad, name, err)
	}
	return p, nil
}

func parseEntry(fullName, record string) *Entry {
	e := &Entry{FullName: fullName}
	e.Context, e.Name = splitContext(fullName)
	if e.Context == "" {
		e.Context = SystemContext
		e.FullName = SystemContext + fullName
	}
	parts := strings.Split(record, ";")
	field := func(i int) string {
		if i < len(parts) {
			return strings.TrimSpace(parts[i])
		}
		return ""
	}
	if w, err := strconv.Atoi(field(0)); err == nil {
		e.Weight = w
	}
	e.Attributes = strings.Fields(field(1))
	e.CallPattern = stripBraces(field(3))
	e.Function = e.CallPattern != ""
	if e.Function {
		// A template the pattern grammar cannot read still keeps its raw
		// text for hover.
		forms, err := ParseCallPattern(e.CallPattern)
		if err != nil {
			log.Debugf("%s: %v", fullName, err)
		}
		e.Forms = forms
	}
	if opts := stripBraces(field(4)); opts != "" {
		for _, o := range strings.Split(opts, ",") {
			if o = strings.TrimSpace(o); o != "" {
				e.Options = append(e.Options, o)
			}
		}
	}
	return e
}

func splitContext(name string) (context, short string) {
	i := strings.LastIndexByte(name, '`')
	if i < 0 {
		return "", name
	}
	return name[:i+1], name[i+1:]
}

func stripBraces(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}
