// Copyright © 2024 The wlscope authors

package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/halirutan/wlscope/analysis"
	"github.com/halirutan/wlscope/ast"
	"github.com/halirutan/wlscope/lint"
	"github.com/halirutan/wlscope/parser"
	"github.com/halirutan/wlscope/parser/token"
)

// Occurrence is one resolved symbol as printed by "wlscope resolve".
type Occurrence struct {
	Symbol      string    `json:"symbol" yaml:"symbol"`
	Line        int       `json:"line" yaml:"line"`
	Col         int       `json:"col" yaml:"col"`
	Kind        string    `json:"kind" yaml:"kind"`
	Binding     string    `json:"binding" yaml:"binding"`
	Declaration bool      `json:"declaration,omitempty" yaml:"declaration,omitempty"`
	DeclaredAt  *Position `json:"declared_at,omitempty" yaml:"declared_at,omitempty"`
}

// Position is a 1-based line and column.
type Position struct {
	Line int `json:"line" yaml:"line"`
	Col  int `json:"col" yaml:"col"`
}

// ResolveCommand creates the "resolve" cobra command.
func ResolveCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)
	var format string

	cmd := &cobra.Command{
		Use:   "resolve [flags] FILE",
		Short: "Print every symbol occurrence of a file and what binds it",
		Long: `Print every symbol occurrence of a Wolfram Language file together with
the construct that binds it.

Each occurrence is one of:
  Localized in <Head>   a local of Module, Block, With, Function, Table, ...
  Pattern in <Kind>     a pattern variable of a definition or rule
  File Symbol           a top-level definition of the file
  Builtin (System` + "`" + `)      a symbol of the builtin catalog
  Unresolved            nothing binds it

Declaring occurrences are marked; other occurrences point to their
declaration.  Use "-" as FILE to read from stdin.

Examples:
  wlscope resolve Package.wl
  wlscope resolve --format=json Package.wl
  echo 'Module[{x}, x]' | wlscope resolve -`,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, formatText, formatJSON, formatYAML); err != nil {
				return err
			}
			tree, err := readTree(cmd.InOrStdin(), args[0])
			if err != nil {
				return usageError(err)
			}
			r := cfg.resolveResolver()
			f := analysis.NewFile(tree)
			occs := occurrences(analysis.Analyze(r, f))

			if format == formatText {
				err = writeOccurrences(cmd.OutOrStdout(), occs)
			} else {
				err = writeStructured(cmd.OutOrStdout(), format, occs)
			}
			if err != nil {
				return err
			}
			if len(tree.Errors) == 0 {
				return nil
			}
			syntax, err := (&lint.Linter{Resolver: r}).LintTree(f, nil)
			if err != nil {
				return err
			}
			if err := renderLintDiagnostics(cmd.ErrOrStderr(), syntax); err != nil {
				return err
			}
			return errProblems
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatText,
		"Output format: text, json or yaml.")
	return cmd
}

// readTree parses the file at path, or stdin when path is "-".
func readTree(stdin io.Reader, path string) (*ast.File, error) {
	if path == "-" {
		src, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return parser.ParseFile("<stdin>", string(src)), nil
	}
	tree, err := parser.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: no such file", path)
		}
		return nil, err
	}
	return tree, nil
}

// occurrences flattens resolved and unresolved references into source
// order.
func occurrences(res *analysis.Result) []Occurrence {
	type located struct {
		pos int
		occ Occurrence
	}
	var all []located
	for _, ref := range res.References {
		occ := newOccurrence(ref.Node, ref.Binding)
		if ref.IsDeclaration() {
			occ.Declaration = true
		} else if ref.Binding.Node != nil && ref.Binding.Node.Source != nil {
			src := ref.Binding.Node.Source
			occ.DeclaredAt = &Position{Line: src.Line, Col: src.Col}
		}
		all = append(all, located{offset(ref.Source), occ})
	}
	for _, u := range res.Unresolved {
		all = append(all, located{offset(u.Source), newOccurrence(u.Node, analysis.Unresolved)})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].pos < all[j].pos })

	out := make([]Occurrence, len(all))
	for i, l := range all {
		out[i] = l.occ
	}
	return out
}

func newOccurrence(sym *ast.Node, b *analysis.Binding) Occurrence {
	occ := Occurrence{
		Symbol:  sym.Context + sym.Name,
		Kind:    b.Kind.String(),
		Binding: b.Description(),
	}
	if sym.Source != nil {
		occ.Line, occ.Col = sym.Source.Line, sym.Source.Col
	}
	return occ
}

func offset(loc *token.Location) int {
	if loc == nil {
		return -1
	}
	return loc.Pos
}

func writeOccurrences(w io.Writer, occs []Occurrence) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, o := range occs {
		note := ""
		switch {
		case o.Declaration:
			note = "declaration"
		case o.DeclaredAt != nil:
			note = fmt.Sprintf("-> %d:%d", o.DeclaredAt.Line, o.DeclaredAt.Col)
		}
		fmt.Fprintf(tw, "%d:%d\t%s\t%s\t%s\n", o.Line, o.Col, o.Symbol, o.Binding, note)
	}
	return tw.Flush()
}
