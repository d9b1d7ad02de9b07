// Copyright © 2024 The wlscope authors

package repl

import (
	"sort"
	"strings"
	"unicode"
)

// symbolCompleter implements readline.AutoCompleter with the names
// visible in the session: its definitions and the builtins.
type symbolCompleter struct {
	sess *Session
}

func isSymbolRune(r rune) bool {
	return r == '$' || r == '`' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (c *symbolCompleter) Do(line []rune, pos int) ([][]rune, int) {
	// Extract the symbol being typed, backwards from the cursor.
	start := pos
	for start > 0 && isSymbolRune(line[start-1]) {
		start--
	}
	prefix := string(line[start:pos])
	if prefix == "" {
		return nil, 0
	}

	candidates := c.collectSymbols(prefix)
	if len(candidates) == 0 {
		return nil, 0
	}

	// Build completions: each entry is the suffix to append.
	result := make([][]rune, 0, len(candidates))
	prefixLen := len([]rune(prefix))
	for _, sym := range candidates {
		result = append(result, []rune(sym)[prefixLen:])
	}
	return result, prefixLen
}

func (c *symbolCompleter) collectSymbols(prefix string) []string {
	seen := make(map[string]bool)
	var result []string
	add := func(name string) {
		if strings.HasPrefix(name, prefix) && !seen[name] {
			seen[name] = true
			result = append(result, name)
		}
	}

	if i := strings.LastIndexByte(prefix, '`'); i > 0 {
		// Qualified names complete within the catalog.
		ctx := prefix[:i+1]
		for _, e := range c.sess.resolver.Catalog().WithPrefix(prefix[i+1:]) {
			if e.Context == ctx {
				add(e.FullName)
			}
		}
	} else {
		for _, cand := range c.sess.resolver.Completions(c.sess.file, nil, prefix) {
			add(cand.Name)
		}
	}

	sort.Strings(result)
	return result
}
