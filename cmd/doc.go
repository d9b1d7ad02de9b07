// Copyright © 2024 The wlscope authors

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"

	"github.com/halirutan/wlscope/analysis"
	"github.com/halirutan/wlscope/catalog"
	"github.com/halirutan/wlscope/docs"
)

var errNoEntry = errors.New("no builtin")

type docFlags struct {
	prefix       bool
	listContexts bool
	guide        bool
	width        int
}

// DocCommand creates the "doc" cobra command.
func DocCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)
	var flags docFlags

	cmd := &cobra.Command{
		Use:   "doc [flags] NAME",
		Short: "Show the catalog entry of a builtin symbol",
		Long: `Show what the symbol catalog knows about a builtin: its usage forms,
attributes, options, the version that introduced it and the way it
localizes variables.

Unqualified names are looked up in the System context.  Use -p to list
all builtins whose name starts with NAME, and -l to list the contexts of
the catalog.

Examples:
  wlscope doc Table            Show the entry of Table
  wlscope doc System` + "`" + `Module     Show a qualified entry
  wlscope doc -p Plot          List builtins starting with Plot
  wlscope doc -l               List known contexts
  wlscope doc --guide          Explain how symbols are resolved`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := bufio.NewWriter(cmd.OutOrStdout())
			defer out.Flush() //nolint:errcheck // best-effort flush on exit
			if flags.guide {
				_, err := out.WriteString(docs.ScopingGuide)
				return err
			}
			cat := cfg.resolveCatalog()
			if cat.Degraded() {
				log.Warningf("the symbol catalog could not be loaded; lookups will fail")
			}
			if flags.listContexts {
				return renderContexts(out, cat)
			}
			if len(args) != 1 {
				return usageError(errors.New("doc requires exactly one NAME"))
			}
			if flags.prefix {
				return renderPrefix(out, cat, args[0])
			}
			e, ok := cat.Lookup(args[0])
			if !ok {
				return fmt.Errorf("%w: %q", errNoEntry, args[0])
			}
			return renderEntry(out, e, flags.width)
		},
	}

	cmd.Flags().BoolVarP(&flags.prefix, "prefix", "p", false,
		"Interpret the argument as a name prefix and list matching builtins.")
	cmd.Flags().BoolVarP(&flags.listContexts, "list-contexts", "l", false,
		"List all contexts of the catalog with their number of symbols.")
	cmd.Flags().BoolVar(&flags.guide, "guide", false,
		"Print the reference of how symbols are resolved.")
	cmd.Flags().IntVarP(&flags.width, "width", "w", 72,
		"Wrap descriptive text at this column.")
	return cmd
}

// renderEntry writes the documentation of e to w.
func renderEntry(w io.Writer, e *catalog.Entry, width int) error {
	if _, err := fmt.Fprintln(w, e.FullName); err != nil {
		return err
	}
	var forms []string
	for _, f := range e.Forms {
		forms = append(forms, f.String())
	}
	if len(forms) == 0 && e.CallPattern != "" {
		forms = append(forms, e.CallPattern)
	}
	if len(forms) > 0 {
		if _, err := fmt.Fprintln(w, indent.String(strings.Join(forms, "\n"), 2)); err != nil {
			return err
		}
	}

	var facts []string
	if e.Function {
		facts = append(facts, "function")
	}
	if kind := analysis.ParseScopeKind(e.Localization); kind != analysis.ScopeNone {
		facts = append(facts, "localizes variables like "+e.Localization)
	}
	if e.Version > 0 {
		facts = append(facts, fmt.Sprintf("introduced in %.1f", e.Version))
	}
	sections := []struct {
		title string
		items []string
	}{
		{"Attributes", e.Attributes},
		{"Options", e.Options},
		{"Notes", facts},
	}
	for _, s := range sections {
		if len(s.items) == 0 {
			continue
		}
		if err := renderSection(w, s.title, strings.Join(s.items, ", "), width); err != nil {
			return err
		}
	}
	return nil
}

func renderSection(w io.Writer, title, body string, width int) error {
	text := indent.String(wordwrap.String(body, max(width-4, 20)), 4)
	_, err := fmt.Fprintf(w, "\n  %s:\n%s\n", title, strings.TrimSuffix(text, "\n"))
	return err
}

// renderPrefix lists the builtins whose name starts with prefix in ranked
// order, one per line with their first usage form.
func renderPrefix(w io.Writer, cat *catalog.Catalog, prefix string) error {
	entries := cat.WithPrefix(prefix)
	if len(entries) == 0 {
		return fmt.Errorf("%w starting with %q", errNoEntry, prefix)
	}
	for _, e := range entries {
		line := fmt.Sprintf("  %-24s", e.FullName)
		if len(e.Forms) > 0 {
			line += "  " + e.Forms[0].String()
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	return nil
}

// renderContexts lists the contexts of cat with the number of entries in
// each.
func renderContexts(w io.Writer, cat *catalog.Catalog) error {
	counts := make(map[string]int)
	for _, e := range cat.Entries() {
		counts[e.Context]++
	}
	for _, ctx := range cat.Contexts() {
		line := fmt.Sprintf("  %-24s", ctx)
		if n := counts[ctx]; n > 0 {
			line += fmt.Sprintf(" (%d symbols)", n)
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	return nil
}
