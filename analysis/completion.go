// Copyright © 2024 The wlscope authors

package analysis

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/halirutan/wlscope/ast"
)

// Completion priorities.  Builtins count down from PriorityBuiltin by
// catalog rank.
const (
	PriorityLocal   = 10000
	PriorityGlobal  = 9000
	PriorityBuiltin = 8000
)

// Candidate is one completion proposal.
type Candidate struct {
	Name     string
	Detail   string
	Priority int
	Binding  *Binding
}

// Completions returns the names visible at the node at, typically the
// symbol being typed.  Only names sharing the first letter of prefix are
// returned; an empty prefix returns everything.  The symbol at itself is
// never proposed.
func (r *Resolver) Completions(f *File, at *ast.Node, prefix string) []Candidate {
	first, _ := utf8.DecodeRuneInString(prefix)
	keep := func(name string) bool {
		if prefix == "" {
			return true
		}
		c, _ := utf8.DecodeRuneInString(name)
		return c == first
	}

	var out []Candidate
	seen := make(map[string]bool)
	add := func(c Candidate) {
		key := c.Binding.key()
		if seen[key] || !keep(c.Name) {
			return
		}
		if at != nil && c.Binding.Node == at {
			return
		}
		seen[key] = true
		out = append(out, c)
	}

	if at != nil {
		for _, b := range r.Visible(f, at) {
			prio := PriorityLocal
			if b.Kind == BindingFileGlobal {
				prio = PriorityGlobal
			}
			add(Candidate{Name: b.Name, Detail: b.Description(), Priority: prio, Binding: b})
		}
	} else {
		for _, b := range f.Globals().Bindings() {
			add(Candidate{Name: b.Name, Detail: b.Description(), Priority: PriorityGlobal, Binding: b})
		}
	}
	for rank, e := range r.cat.Entries() {
		if e.Context != DefaultContext && e.Context != "System`" {
			continue
		}
		prio := PriorityBuiltin - rank
		if prio < 1 {
			prio = 1
		}
		detail := e.CallPattern
		if detail == "" {
			detail = e.FullName
		}
		add(Candidate{Name: e.Name, Detail: detail, Priority: prio, Binding: newBuiltin(e)})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return strings.Compare(out[i].Name, out[j].Name) < 0
	})
	return out
}
