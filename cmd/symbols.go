// Copyright © 2024 The wlscope authors

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/halirutan/wlscope/analysis"
)

// FileSymbols lists the file-level definitions of one file.
type FileSymbols struct {
	File    string   `json:"file" yaml:"file"`
	Symbols []Symbol `json:"symbols" yaml:"symbols"`
}

// Symbol is a file-level definition.
type Symbol struct {
	Name    string `json:"name" yaml:"name"`
	Context string `json:"context,omitempty" yaml:"context,omitempty"`
	Line    int    `json:"line" yaml:"line"`
	Col     int    `json:"col" yaml:"col"`
}

// SymbolsCommand creates the "symbols" cobra command.
func SymbolsCommand() *cobra.Command {
	var (
		format   string
		excludes []string
		jobs     int
	)

	cmd := &cobra.Command{
		Use:   "symbols [flags] PATH...",
		Short: "List the file-level definitions of source files",
		Long: `List the symbols defined by top-level assignments of Wolfram Language
source files: x = ..., f[...] := ..., {a, b} = ..., tag definitions and the
like.  Only the first definition of a name in a file is listed.

Directories and patterns ending in "/..." are searched recursively.

Examples:
  wlscope symbols Package.wl
  wlscope symbols --format=json ./...`,
		Args:          cobra.MinimumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, formatYAML, formatJSON); err != nil {
				return err
			}
			paths, err := expandArgs(args, excludes)
			if err != nil {
				return usageError(err)
			}
			sums, err := analysis.ScanFiles(cmd.Context(), paths, jobs)
			if err != nil {
				return err
			}
			return writeStructured(cmd.OutOrStdout(), format, fileSymbols(sums))
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatYAML,
		"Output format: yaml or json.")
	cmd.Flags().StringArrayVar(&excludes, "exclude", nil,
		"Glob pattern for files to exclude (may be repeated).")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0,
		"Number of files scanned in parallel (default: number of CPUs).")
	return cmd
}

func fileSymbols(sums []analysis.FileSummary) []FileSymbols {
	out := make([]FileSymbols, 0, len(sums))
	for _, s := range sums {
		fs := FileSymbols{File: s.Path, Symbols: []Symbol{}}
		for _, ext := range s.Symbols {
			sym := Symbol{Name: ext.Name, Context: ext.Context}
			if ext.Source != nil {
				sym.Line, sym.Col = ext.Source.Line, ext.Source.Col
			}
			fs.Symbols = append(fs.Symbols, sym)
		}
		out = append(out, fs)
	}
	return out
}
