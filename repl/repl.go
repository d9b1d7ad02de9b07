// Copyright © 2024 The wlscope authors

// Package repl implements an interactive scope inspector.  Each input is
// appended to a session file and every symbol it contains is printed with
// the binding it resolves to.
package repl

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"
	"github.com/tliron/commonlog"

	"github.com/halirutan/wlscope/analysis"
	"github.com/halirutan/wlscope/catalog"
	"github.com/halirutan/wlscope/diagnostic"
	"github.com/halirutan/wlscope/parser"
)

var log = commonlog.GetLogger("wlscope.repl")

type config struct {
	stdin    io.ReadCloser
	stderr   io.WriteCloser
	resolver *analysis.Resolver
	color    diagnostic.ColorMode
}

func newConfig(opts ...Option) *config {
	config := &config{}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

type Option func(*config)

// WithStdin allows overriding the input to the REPL.
func WithStdin(stdin io.ReadCloser) Option {
	return func(c *config) {
		c.stdin = stdin
	}
}

// WithStderr allows overriding the output to the REPL.
func WithStderr(stderr io.WriteCloser) Option {
	return func(c *config) {
		c.stderr = stderr
	}
}

// WithResolver sets the resolver used for the session.  The default
// catalog is used otherwise.
func WithResolver(r *analysis.Resolver) Option {
	return func(c *config) {
		c.resolver = r
	}
}

// WithColor sets the color mode of rendered syntax errors.
func WithColor(mode diagnostic.ColorMode) Option {
	return func(c *config) {
		c.color = mode
	}
}

// RunRepl reads inputs until EOF or :quit.  Inputs that are incomplete,
// such as an open bracket, continue on the next line.
func RunRepl(prompt string, opts ...Option) error {
	cfg := newConfig(opts...)
	if cfg.resolver == nil {
		cfg.resolver = analysis.NewResolver(catalog.Default())
	}
	out := io.Writer(os.Stderr)
	if cfg.stderr != nil {
		out = cfg.stderr
	}
	cont := strings.Repeat(" ", max(len(prompt)-2, 0)) + "> "

	sess := NewSession(cfg.resolver)
	sess.Color = cfg.color

	historyFile := historyPath()
	ensureHistoryFilePermissions(historyFile)
	rlCfg := &readline.Config{
		Stdout:            out,
		Stderr:            out,
		Prompt:            prompt,
		HistoryFile:       historyFile,
		HistorySearchFold: true,
		AutoComplete:      &symbolCompleter{sess: sess},
	}
	if cfg.stdin != nil {
		rlCfg.Stdin = cfg.stdin
	}
	rl, err := readline.NewEx(rlCfg)
	if err != nil {
		return fmt.Errorf("starting line editor: %w", err)
	}
	defer rl.Close() //nolint:errcheck // best-effort cleanup

	var pending strings.Builder
	for {
		line, err := rl.ReadLine()
		if errors.Is(err, readline.ErrInterrupt) {
			pending.Reset()
			rl.SetPrompt(prompt)
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if pending.Len() > 0 {
			pending.WriteByte('\n')
		}
		pending.WriteString(line)
		input := pending.String()
		if strings.TrimSpace(input) == "" {
			pending.Reset()
			continue
		}
		if !strings.HasPrefix(strings.TrimSpace(input), ":") && parser.Incomplete(input) {
			rl.SetPrompt(cont)
			continue
		}
		pending.Reset()
		rl.SetPrompt(prompt)
		if err := sess.Eval(out, input); err != nil {
			if errors.Is(err, ErrQuit) {
				return nil
			}
			log.Debugf("eval: %v", err)
		}
	}
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".wlscope_history")
}

// ensureHistoryFilePermissions creates path if needed and restricts it to
// the current user.
func ensureHistoryFilePermissions(path string) {
	if path == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0o600) //nolint:gosec // path is under the home directory
	if err != nil {
		log.Debugf("history file: %v", err)
		return
	}
	_ = f.Close()
	if err := os.Chmod(path, 0o600); err != nil {
		log.Debugf("history file: %v", err)
	}
}
