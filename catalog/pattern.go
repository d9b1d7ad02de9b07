// Copyright © 2024 The wlscope authors

package catalog

import (
	"fmt"
	"strings"

	parsec "github.com/prataprc/goparsec"
)

// CallForm is one usage form of a builtin, such as Table[expr, {i, imax}].
type CallForm struct {
	Name   string
	Params []string
}

func (f CallForm) String() string {
	return f.Name + "[" + strings.Join(f.Params, ", ") + "]"
}

/*
ParseCallPattern parses the call pattern template of a catalog entry.

	forms  := <form> (',' <form>)*
	form   := <name> <group> <group>*
	group  := '[' <args> ']'
	args   := (<arg> (',' <arg>)*)?
	arg    := <piece> <piece>*
	piece  := '{' <args> '}' | <group> | <text>
	text   := /[^,\[\]{}]+/

An argument keeps its source text, so {x1, ..., xn} -> {x01, ..., x0n} is
one parameter.  A curried form such as Derivative[n][f] is named by
everything before its last group.  The template may still be wrapped in
braces.
*/
func ParseCallPattern(template string) ([]CallForm, error) {
	template = stripBraces(template)
	if template == "" {
		return nil, nil
	}
	s := parsec.NewScanner([]byte(template))
	root, s := newTemplateParser(template)(s)
	_, s = s.SkipWS()
	if root == nil || !s.Endof() {
		return nil, fmt.Errorf("malformed call pattern at offset %d: %q", s.GetCursor(), template)
	}
	forms, ok := root.([]CallForm)
	if !ok {
		return nil, fmt.Errorf("malformed call pattern: %q", template)
	}
	return forms, nil
}

// span is a byte range of the template.
type span struct {
	start, end int
}

// group is a bracketed argument sequence.
type group struct {
	span
	args []string
}

func terminalSpan(t *parsec.Terminal) span {
	return span{t.Position, t.Position + len(t.Value)}
}

func newTemplateParser(template string) parsec.Parser {
	openB := parsec.Atom("[", "OPENB")
	closeB := parsec.Atom("]", "CLOSEB")
	openC := parsec.Atom("{", "OPENC")
	closeC := parsec.Atom("}", "CLOSEC")
	comma := parsec.Atom(",", "COMMA")
	name := parsec.Token("[$A-Za-z][$A-Za-z0-9`]*", "NAME")
	text := parsec.Token(`[^,\[\]{}]+`, "TEXT")

	var arg parsec.Parser // forward declaration allows for recursive parsing
	args := parsec.Kleene(joinArgs, &arg, comma)
	list := parsec.And(func(nodes []parsec.ParsecNode) parsec.ParsecNode {
		return span{terminalSpan(nodes[0].(*parsec.Terminal)).start, terminalSpan(nodes[2].(*parsec.Terminal)).end}
	}, openC, args, closeC)
	grp := parsec.And(func(nodes []parsec.ParsecNode) parsec.ParsecNode {
		return group{
			span: span{terminalSpan(nodes[0].(*parsec.Terminal)).start, terminalSpan(nodes[2].(*parsec.Terminal)).end},
			args: argStrings(nodes[1]),
		}
	}, openB, args, closeB)
	piece := parsec.OrdChoice(func(nodes []parsec.ParsecNode) parsec.ParsecNode {
		switch n := nodes[0].(type) {
		case span:
			return n
		case group:
			return n.span
		case *parsec.Terminal:
			return terminalSpan(n)
		}
		return nil
	}, list, grp, text)
	arg = parsec.Many(func(nodes []parsec.ParsecNode) parsec.ParsecNode {
		first, _ := nodes[0].(span)
		last, _ := nodes[len(nodes)-1].(span)
		return strings.TrimSpace(template[first.start:last.end])
	}, piece)

	suffixes := parsec.Kleene(func(nodes []parsec.ParsecNode) parsec.ParsecNode {
		groups := make([]group, 0, len(nodes))
		for _, n := range nodes {
			if g, ok := n.(group); ok {
				groups = append(groups, g)
			}
		}
		return groups
	}, grp)
	form := parsec.And(func(nodes []parsec.ParsecNode) parsec.ParsecNode {
		head, ok := nodes[0].(*parsec.Terminal)
		if !ok {
			return nil
		}
		last, _ := nodes[1].(group)
		if more, _ := nodes[2].([]group); len(more) > 0 {
			last = more[len(more)-1]
		}
		return CallForm{
			Name:   strings.TrimSpace(template[head.Position:last.start]),
			Params: last.args,
		}
	}, name, grp, suffixes)

	return parsec.Kleene(func(nodes []parsec.ParsecNode) parsec.ParsecNode {
		var forms []CallForm
		for _, n := range nodes {
			if f, ok := n.(CallForm); ok {
				forms = append(forms, f)
			}
		}
		return forms
	}, form, comma)
}

// joinArgs collects the argument strings of a Kleene match, dropping
// separators.
func joinArgs(nodes []parsec.ParsecNode) parsec.ParsecNode {
	var out []string
	for _, n := range nodes {
		if s, ok := n.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func argStrings(n parsec.ParsecNode) []string {
	if args, ok := n.([]string); ok {
		return args
	}
	return nil
}
