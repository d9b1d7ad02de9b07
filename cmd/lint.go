// Copyright © 2024 The wlscope authors

package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/halirutan/wlscope/analysis"
	"github.com/halirutan/wlscope/lint"
	"github.com/halirutan/wlscope/project"
)

type lintFlags struct {
	json      bool
	checks    string
	listAll   bool
	excludes  []string
	jobs      int
	noProject bool
}

// LintCommand creates the "lint" cobra command.  Embedders can pass
// WithCatalog or WithResolver so that their own symbols resolve.
func LintCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)
	var flags lintFlags

	cmd := &cobra.Command{
		Use:   "lint [flags] [files...]",
		Short: "Run static analysis checks on Wolfram Language source files",
		Long: `Run static analysis checks on Wolfram Language source files.

The linter reports likely scoping mistakes, similar to "go vet" for Go.
Each check is an independent analyzer that examines the resolved symbols
of a file and reports diagnostics.

With no files, reads from stdin.  Directories and patterns ending in
"/..." are searched recursively for .wl, .m, .wls and .wlt files.

Exit codes:
  0  No problems found
  1  One or more problems were reported
  2  Bad invocation (invalid flags, unreadable files)

To suppress a specific diagnostic, add a comment on the same line:
  Module[{tmp}, 1] (* nolint:unused-local *)

To suppress all checks on a line:
  Module[{tmp}, 1] (* nolint *)

The nearest wlproject.toml above the first file sets the language level,
excluded paths and disabled checks.

Available checks (use --checks to select specific ones):
` + analyzerDoc(lint.DefaultAnalyzers()) + `
Examples:
  wlscope lint file.wl                          # Lint a single file
  wlscope lint ./...                            # Lint a directory tree
  wlscope lint --json file.wl                   # Output diagnostics as JSON
  wlscope lint --checks=unused-local file.wl    # Run only specific checks
  wlscope lint --language-level=12 ./...        # Check against version 12
  wlscope lint --exclude='Tests' ./...          # Exclude a directory
  cat file.wl | wlscope lint                    # Lint from stdin`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.listAll {
				for _, a := range lint.DefaultAnalyzers() {
					fmt.Fprintln(cmd.OutOrStdout(), a.Name)
				}
				return nil
			}
			return runLint(cmd, cfg, &flags, args)
		},
	}

	cmd.Flags().BoolVar(&flags.json, "json", false,
		"Output diagnostics as JSON.")
	cmd.Flags().StringVar(&flags.checks, "checks", "",
		"Comma-separated list of checks to run (default: all not disabled by the project).")
	cmd.Flags().BoolVar(&flags.listAll, "list", false,
		"List available checks and exit.")
	cmd.Flags().StringArrayVar(&flags.excludes, "exclude", nil,
		"Glob pattern for files to exclude (may be repeated).")
	cmd.Flags().IntVarP(&flags.jobs, "jobs", "j", 0,
		"Number of files linted in parallel (default: number of CPUs).")
	cmd.Flags().BoolVar(&flags.noProject, "no-project", false,
		"Ignore wlproject.toml manifests.")
	return cmd
}

func runLint(cmd *cobra.Command, cfg *cmdConfig, flags *lintFlags, args []string) error {
	proj, err := lintProject(flags, args)
	if err != nil {
		return usageError(err)
	}
	level, err := languageLevel(proj)
	if err != nil {
		return err
	}

	analyzers := lint.DefaultAnalyzers()
	if flags.checks != "" {
		analyzers, err = lint.Select(analyzers, strings.Split(flags.checks, ","))
		if err != nil {
			return usageError(err)
		}
	} else if proj != nil {
		analyzers = lint.Disable(analyzers, proj.Manifest.Lint.Disable)
	}

	l := &lint.Linter{
		Analyzers:     analyzers,
		Resolver:      cfg.resolveResolver(),
		LanguageLevel: level,
	}

	var diags []lint.Diagnostic
	if len(args) == 0 {
		src, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return usageError(fmt.Errorf("reading stdin: %w", err))
		}
		diags, err = l.LintFile(src, "<stdin>")
		if err != nil {
			return err
		}
	} else {
		paths, err := expandArgs(args, flags.excludes)
		if err != nil {
			return usageError(err)
		}
		if proj != nil {
			paths = keepIncluded(proj, paths)
		}
		log.Debugf("linting %d files at language level %.1f", len(paths), level)
		diags, err = l.LintFiles(cmd.Context(), paths, flags.jobs)
		if err != nil {
			return usageError(err)
		}
	}

	if len(diags) == 0 {
		return nil
	}
	if flags.json {
		if err := lint.FormatJSON(cmd.OutOrStdout(), diags); err != nil {
			return err
		}
	} else if err := renderLintDiagnostics(cmd.ErrOrStderr(), diags); err != nil {
		return err
	}
	return errProblems
}

// lintProject discovers the manifest governing the first argument, or the
// working directory when reading stdin.
func lintProject(flags *lintFlags, args []string) (*project.Project, error) {
	if flags.noProject {
		return nil, nil
	}
	dir := "."
	if len(args) > 0 {
		first, _ := strings.CutSuffix(args[0], "/...")
		if first == "" {
			first = "."
		}
		if analysis.IsSourceFile(first) {
			first = filepath.Dir(first)
		}
		dir = first
	}
	return project.Discover(dir)
}

// keepIncluded drops the paths excluded by the project manifest.
func keepIncluded(proj *project.Project, paths []string) []string {
	var out []string
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err == nil && proj.Excluded(abs) {
			log.Debugf("skipping %s: excluded by %s", p, proj.Path)
			continue
		}
		out = append(out, p)
	}
	return out
}

// analyzerDoc lists analyzers with the first line of their documentation.
func analyzerDoc(analyzers []*lint.Analyzer) string {
	var sb strings.Builder
	for _, a := range analyzers {
		summary, _, _ := strings.Cut(a.Doc, "\n")
		fmt.Fprintf(&sb, "  %-20s %s\n", a.Name, summary)
	}
	return sb.String()
}
