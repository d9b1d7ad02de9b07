// Copyright © 2024 The wlscope authors

package repl

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/halirutan/wlscope/analysis"
	"github.com/halirutan/wlscope/ast"
	"github.com/halirutan/wlscope/catalog"
	"github.com/halirutan/wlscope/diagnostic"
	"github.com/halirutan/wlscope/parser"
	"github.com/halirutan/wlscope/parser/token"
)

// sessionFile is the file name of REPL input in locations.
const sessionFile = "<repl>"

// ErrQuit is returned by Eval for the :quit command.
var ErrQuit = errors.New("quit")

// errSyntax is returned by Eval when rejected input had syntax errors.
var errSyntax = errors.New("syntax error")

// Session accumulates REPL inputs into a single file so that definitions
// of earlier inputs are visible to later ones.
type Session struct {
	Color    diagnostic.ColorMode
	resolver *analysis.Resolver
	src      string
	file     *analysis.File
}

// NewSession returns an empty session resolving with r.
func NewSession(r *analysis.Resolver) *Session {
	s := &Session{resolver: r}
	s.file = analysis.NewFile(parser.ParseFile(sessionFile, ""))
	return s
}

// Source returns the accepted inputs.
func (s *Session) Source() string {
	return s.src
}

// Eval handles one complete input, writing its report to w.  Input
// starting with a colon is a command.
func (s *Session) Eval(w io.Writer, input string) error {
	trimmed := strings.TrimSpace(input)
	if strings.HasPrefix(trimmed, ":") {
		return s.command(w, trimmed)
	}

	src := s.src
	if src != "" {
		src += "\n"
	}
	firstLine := strings.Count(src, "\n") + 1
	src += input

	tree := parser.ParseFile(sessionFile, src)
	if len(tree.Errors) > 0 {
		s.renderErrors(w, src, tree.Errors)
		return errSyntax
	}
	s.src = src
	s.file.Update(tree)
	s.report(w, firstLine)
	return nil
}

// report prints every symbol occurrence starting at or after firstLine.
func (s *Session) report(w io.Writer, firstLine int) {
	res := analysis.Analyze(s.resolver, s.file)
	type row struct {
		node *ast.Node
		text string
	}
	var rows []row
	for _, ref := range res.References {
		if ref.Source == nil || ref.Source.Line < firstLine {
			continue
		}
		rows = append(rows, row{ref.Node, describe(ref.Node, ref.Binding, ref.IsDeclaration(), firstLine)})
	}
	for _, u := range res.Unresolved {
		if u.Source == nil || u.Source.Line < firstLine {
			continue
		}
		rows = append(rows, row{u.Node, describe(u.Node, analysis.Unresolved, false, firstLine)})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].node.Source.Pos < rows[j].node.Source.Pos
	})
	for _, r := range rows {
		fmt.Fprintln(w, r.text) //nolint:errcheck // best-effort REPL output
	}
}

// describe formats one occurrence.  Positions are relative to the input
// when the target is in it, and prefixed by "in" for earlier inputs.
func describe(n *ast.Node, b *analysis.Binding, decl bool, firstLine int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-16s %-6s %s", n.Context+n.Name, position(n.Source, firstLine), b.Description())
	switch {
	case decl:
		sb.WriteString(" (declaration)")
	case b.Node != nil && b.Node.Source != nil:
		fmt.Fprintf(&sb, " -> %s", position(b.Node.Source, firstLine))
	}
	return sb.String()
}

func position(loc *token.Location, firstLine int) string {
	if loc.Line < firstLine {
		return fmt.Sprintf("in:%d:%d", loc.Line, loc.Col)
	}
	return fmt.Sprintf("%d:%d", loc.Line-firstLine+1, loc.Col)
}

func (s *Session) command(w io.Writer, cmd string) error {
	name, arg, _ := strings.Cut(cmd, " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case ":quit", ":q":
		return ErrQuit
	case ":reset":
		s.src = ""
		s.file.Update(parser.ParseFile(sessionFile, ""))
		fmt.Fprintln(w, "session cleared") //nolint:errcheck // best-effort REPL output
	case ":globals":
		for _, b := range s.file.Globals().Bindings() {
			fmt.Fprintf(w, "%-16s %d:%d\n", b.FullName(), b.Node.Source.Line, b.Node.Source.Col) //nolint:errcheck // best-effort REPL output
		}
	case ":source":
		fmt.Fprintln(w, s.src) //nolint:errcheck // best-effort REPL output
	case ":doc":
		e, ok := s.resolver.Catalog().Lookup(arg)
		if !ok {
			return s.fail(w, fmt.Errorf("%s is not a builtin", arg))
		}
		fmt.Fprintln(w, entrySummary(e)) //nolint:errcheck // best-effort REPL output
	case ":help":
		fmt.Fprint(w, helpText) //nolint:errcheck // best-effort REPL output
	default:
		return s.fail(w, fmt.Errorf("unknown command %s (try :help)", name))
	}
	return nil
}

func (s *Session) fail(w io.Writer, err error) error {
	r := &diagnostic.Renderer{Color: s.Color}
	_ = r.Render(w, diagnostic.Diagnostic{Severity: diagnostic.SeverityError, Message: err.Error()})
	return err
}

const helpText = `Enter Wolfram Language input to see how each symbol resolves.
Commands:
  :doc NAME   show the catalog entry of a builtin
  :globals    list the definitions made so far
  :source     print the session input
  :reset      forget all input
  :quit       leave the REPL
`

// entrySummary renders a catalog entry in a few lines.
func entrySummary(e *catalog.Entry) string {
	var sb strings.Builder
	sb.WriteString(e.FullName)
	for _, f := range e.Forms {
		sb.WriteString("\n  ")
		sb.WriteString(f.String())
	}
	if len(e.Attributes) > 0 {
		fmt.Fprintf(&sb, "\n  Attributes: %s", strings.Join(e.Attributes, ", "))
	}
	if e.Version > 0 {
		fmt.Fprintf(&sb, "\n  Introduced in %.1f", e.Version)
	}
	return sb.String()
}
