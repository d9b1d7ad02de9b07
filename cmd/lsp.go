// Copyright © 2024 The wlscope authors

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/halirutan/wlscope/indexstore"
	"github.com/halirutan/wlscope/lsp"
)

type lspFlags struct {
	stdio       bool
	port        int
	metricsAddr string
	watch       bool
	cacheDir    string
}

// LSPCommand creates the "lsp" cobra command with optional embedder
// configuration. Embedders can pass WithCatalog or WithResolver to inject
// their own builtin symbols for semantic analysis.
func LSPCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)
	var flags lspFlags

	cmd := &cobra.Command{
		Use:   "lsp [flags]",
		Short: "Start the Wolfram Language Server Protocol server",
		Long: `Start an LSP server for Wolfram Language source files.

The language server provides real-time IDE features including diagnostics,
hover documentation, go-to-definition, find references, document highlights,
completion, signature help, document and workspace symbols, semantic tokens,
folding ranges and rename support.

Transport modes:
  --stdio      Use stdin/stdout for LSP communication (default)
  --port N     Listen for an LSP client on TCP port N

Workspace files are indexed when the client initializes with a root folder
and re-indexed when they change on disk.  With --cache the index survives
restarts of the server.

Examples:
  wlscope lsp                                Start with stdio transport
  wlscope lsp --port 7998                    Start with TCP on port 7998
  wlscope lsp --metrics-addr localhost:9090  Serve Prometheus metrics
  wlscope lsp --cache ~/.cache/wlscope       Keep the workspace index on disk

Editor configuration (VS Code):
  Install a generic LSP client extension and configure it to run
  "wlscope lsp --stdio" for .wl, .m and .wls files.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLSP(cmd.Context(), cfg, &flags)
		},
	}

	cmd.Flags().BoolVar(&flags.stdio, "stdio", false,
		"Use stdin/stdout for LSP communication (default behavior)")
	cmd.Flags().IntVar(&flags.port, "port", 0,
		"TCP port for LSP server (use instead of --stdio)")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "",
		"Serve Prometheus metrics at http://ADDR/metrics")
	cmd.Flags().BoolVar(&flags.watch, "watch", true,
		"Re-index workspace files when they change on disk")
	cmd.Flags().StringVar(&flags.cacheDir, "cache", "",
		"Directory of the persistent workspace index")
	return cmd
}

func runLSP(ctx context.Context, cfg *cmdConfig, flags *lspFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverOpts := []lsp.Option{
		lsp.WithResolver(cfg.resolveResolver()),
		lsp.WithWatch(flags.watch),
	}
	if viper.GetString(keyLanguageLevel) != "" {
		level, err := languageLevel(nil)
		if err != nil {
			return err
		}
		serverOpts = append(serverOpts, lsp.WithLanguageLevel(level))
	}
	if flags.cacheDir != "" {
		st, err := indexstore.Open(indexstore.Options{Dir: flags.cacheDir})
		if err != nil {
			return usageError(err)
		}
		defer st.Close() //nolint:errcheck // closed on exit
		serverOpts = append(serverOpts, lsp.WithIndexStore(st))
	}

	if flags.metricsAddr != "" {
		go func() {
			if err := lsp.ServeMetrics(ctx, flags.metricsAddr); err != nil {
				log.Errorf("metrics server: %v", err)
			}
		}()
	}

	srv := lsp.New(serverOpts...)
	var err error
	if !flags.stdio && flags.port > 0 {
		addr := fmt.Sprintf("localhost:%d", flags.port)
		log.Infof("wlscope LSP server listening on %s", addr)
		err = srv.RunTCP(addr)
	} else {
		err = srv.RunStdio()
	}
	if err != nil {
		return fmt.Errorf("lsp server: %w", err)
	}
	return nil
}
