// Copyright © 2024 The wlscope authors

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/halirutan/wlscope/indexstore"
	"github.com/halirutan/wlscope/project"
)

// IndexCommand creates the "index" cobra command.
func IndexCommand() *cobra.Command {
	var (
		cacheDir string
		jobs     int
		verbose  bool
	)

	cmd := &cobra.Command{
		Use:   "index [flags] [ROOT]",
		Short: "Build or refresh the on-disk workspace index",
		Long: `Summarize the file-level definitions of every source file below ROOT
(default: the current directory) and store them in a persistent index keyed
by file content.  Unchanged files are not parsed again, and files that no
longer exist are dropped from the index.  Paths excluded by wlproject.toml
are skipped.

The language server reads the same index when started with --cache.

Examples:
  wlscope index                          Index the current directory
  wlscope index --cache /tmp/idx ./src   Use a custom index directory`,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			root, err := filepath.Abs(root)
			if err != nil {
				return usageError(err)
			}
			proj, err := project.Discover(root)
			if err != nil {
				return usageError(err)
			}
			if cacheDir == "" {
				if cacheDir, err = defaultCacheDir(); err != nil {
					return usageError(err)
				}
			}

			st, err := indexstore.Open(indexstore.Options{Dir: cacheDir})
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck // closed on exit

			sums, stats, err := st.IndexWorkspace(cmd.Context(), root, proj.Excluded, jobs)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if verbose {
				for _, s := range sums {
					fmt.Fprintf(out, "%s: %d symbols\n", s.Path, len(s.Symbols))
				}
			}
			fmt.Fprintf(out, "indexed %d files in %s (%d cached, %d parsed, %d skipped, %d removed)\n",
				stats.Files, cacheDir, stats.Hits, stats.Parsed, stats.Skipped, stats.Removed)
			return nil
		},
	}
	cmd.Flags().StringVar(&cacheDir, "cache", "",
		"Index directory (default: the user cache directory)")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0,
		"Number of files summarized in parallel (default: number of CPUs).")
	cmd.Flags().BoolVarP(&verbose, "list", "l", false,
		"List every indexed file with its number of definitions.")
	return cmd
}

func defaultCacheDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("locating cache directory: %w", err)
	}
	return filepath.Join(dir, "wlscope", "index"), nil
}
