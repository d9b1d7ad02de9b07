// Copyright © 2024 The wlscope authors

package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/halirutan/wlscope/repl"
)

// ReplCommand creates the "repl" cobra command.
func ReplCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)

	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive scope inspector",
		Long: `Start an interactive session that resolves Wolfram Language input.

Each input is appended to the session source and every symbol occurrence
of the new input is printed with the construct that binds it.  Definitions
of earlier inputs stay visible as file symbols.  Input spanning several
lines is read until brackets balance.  Line editing, history and symbol
completion are supported via readline.  Use Ctrl-D or :quit to exit.

Example session:
  wlscope> f[x_] := Module[{y = x}, y + z]
  f                1:1    File Symbol (declaration)
  x                1:3    Pattern in SetDelayed (declaration)
  Module           1:10   Builtin (System` + "`" + `)
  y                1:18   Localized in Module (declaration)
  x                1:22   Pattern in SetDelayed -> 1:3
  ...
  wlscope> :doc Module
  System` + "`" + `Module
    Module[{x, y, ...}, expr]
    ...

Commands: :globals, :source, :reset, :doc NAME, :help, :quit`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return repl.RunRepl(filepath.Base(os.Args[0])+"> ",
				repl.WithResolver(cfg.resolveResolver()),
				repl.WithColor(colorMode()),
			)
		},
	}
}
