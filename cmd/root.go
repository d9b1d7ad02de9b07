// Copyright © 2024 The wlscope authors

package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple" // default log backend

	"github.com/halirutan/wlscope/diagnostic"
	"github.com/halirutan/wlscope/project"
)

// Exit codes of the wlscope binary.
const (
	ExitOK       = 0
	ExitProblems = 1
	ExitUsage    = 2
)

// Configuration keys shared by flags, the config file and WLSCOPE_*
// environment variables.
const (
	keyColor         = "color"
	keyVerbose       = "verbose"
	keyLogFile       = "log-file"
	keyLanguageLevel = "language-level"
)

var cfgFile string

var envKeyReplacer = strings.NewReplacer("-", "_")

// errProblems is returned by commands that completed but found problems.
var errProblems = errors.New("problems found")

// exitError carries a process exit code through cobra's RunE.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

// usageError marks err as a bad invocation.
func usageError(err error) error {
	return &exitError{code: ExitUsage, err: err}
}

// exitCode maps an error returned by a command to a process exit code.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, errProblems) {
		return ExitProblems
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitUsage
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = NewRootCommand()

// NewRootCommand returns the wlscope command tree.  Embedders can pass
// WithCatalog or WithResolver to analyze against their own symbol table.
func NewRootCommand(opts ...Option) *cobra.Command {
	root := &cobra.Command{
		Use:   "wlscope",
		Short: "wlscope: symbol resolution for the Wolfram Language",
		Long: `wlscope resolves every symbol of Wolfram Language source code to the
construct that binds it: a local of Module, Block, With, Function, Table or
another scoping construct, a pattern variable of a rule or definition, a
file-level definition, or a builtin of the System context.

Getting started:
  wlscope resolve file.wl      Print each symbol and what binds it
  wlscope symbols ./...        List file-level definitions
  wlscope lint file.wl         Run static analysis checks
  wlscope doc Table            Show the usage of a builtin
  wlscope repl                 Inspect scoping interactively
  wlscope lsp                  Start the language server

Configuration:
  Flags can also be set in $HOME/.wlscope.yaml or through environment
  variables such as WLSCOPE_COLOR and WLSCOPE_LANGUAGE_LEVEL.  A project
  manifest named wlproject.toml sets the language level, excluded paths
  and disabled lint checks of the directory tree it lives in.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return configureLogging()
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.wlscope.yaml)")
	root.PersistentFlags().String(keyColor, "auto",
		`Control colored output: "auto", "always", or "never".`)
	root.PersistentFlags().CountP(keyVerbose, "v",
		"Increase log verbosity (may be repeated).")
	root.PersistentFlags().String(keyLogFile, "",
		"Write logs to this file instead of stderr.")
	root.PersistentFlags().String(keyLanguageLevel, "",
		`Oldest Wolfram Language version the code must run on, such as "12.3" (default from wlproject.toml).`)
	for _, key := range []string{keyColor, keyVerbose, keyLogFile, keyLanguageLevel} {
		_ = viper.BindPFlag(key, root.PersistentFlags().Lookup(key))
	}

	root.AddCommand(
		LintCommand(opts...),
		ResolveCommand(opts...),
		SymbolsCommand(),
		DocCommand(opts...),
		LSPCommand(opts...),
		ReplCommand(opts...),
		IndexCommand(),
	)
	return root
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errProblems) {
		fmt.Fprintln(os.Stderr, "wlscope:", err)
	}
	os.Exit(exitCode(err))
}

func init() {
	cobra.OnInitialize(initConfig)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		// Search config in home directory with name ".wlscope" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".wlscope")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("wlscope")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Infof("using config file %s", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintf(os.Stderr, "wlscope: reading config: %v\n", err)
	}
}

var log = commonlog.GetLogger("wlscope.cmd")

func configureLogging() error {
	var path *string
	if p := viper.GetString(keyLogFile); p != "" {
		path = &p
	}
	commonlog.Configure(viper.GetInt(keyVerbose), path)
	return nil
}

// colorMode returns the configured color mode, falling back to auto
// detection for unknown values.
func colorMode() diagnostic.ColorMode {
	mode, err := diagnostic.ParseColorMode(viper.GetString(keyColor))
	if err != nil {
		log.Warningf("%v", err)
	}
	return mode
}

// languageLevel returns the configured language level, or the level of
// proj when none is configured.
func languageLevel(proj *project.Project) (float64, error) {
	if s := viper.GetString(keyLanguageLevel); s != "" {
		level, err := project.ParseLanguageLevel(s)
		if err != nil {
			return 0, usageError(fmt.Errorf("--%s: %w", keyLanguageLevel, err))
		}
		return level, nil
	}
	if proj != nil {
		return proj.Manifest.Level(), nil
	}
	var m project.Manifest
	return m.Level(), nil
}
