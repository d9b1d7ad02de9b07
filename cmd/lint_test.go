// Copyright © 2024 The wlscope authors

package cmd

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halirutan/wlscope/analysis"
	"github.com/halirutan/wlscope/catalog"
	"github.com/halirutan/wlscope/lint"
)

func TestLintCommand_DefaultFlags(t *testing.T) {
	cmd := LintCommand()
	assert.Equal(t, "lint [flags] [files...]", cmd.Use)

	for _, name := range []string{"json", "checks", "list", "exclude", "jobs", "no-project"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "missing flag: %s", name)
	}
}

func TestLintCommand_List(t *testing.T) {
	cmd := LintCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--list"})
	require.NoError(t, cmd.Execute())

	var names []string
	for _, a := range lint.DefaultAnalyzers() {
		names = append(names, a.Name)
	}
	assert.Equal(t, strings.Join(names, "\n")+"\n", out.String())
}

func TestLintCommand_JSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "unused.wl")
	writeTestFile(t, path, "Module[{x, y}, x]\n")

	cmd := LintCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--json", "--no-project", path})
	err := cmd.Execute()
	require.ErrorIs(t, err, errProblems)
	assert.Equal(t, ExitProblems, exitCode(err))

	var diags []lint.Diagnostic
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &diags))
	require.Len(t, diags, 1)
	assert.Equal(t, "unused-local", diags[0].Analyzer)
	assert.Equal(t, path, diags[0].Pos.File)
	assert.Equal(t, 1, diags[0].Pos.Line)
	assert.Empty(t, stderr.String())
}

func TestLintCommand_MountedUnderParent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "unused.wl")
	writeTestFile(t, path, "Module[{x, y}, x]\n")

	parent := &cobra.Command{Use: "tool"}
	parent.AddCommand(LintCommand())
	var stdout, stderr bytes.Buffer
	parent.SetOut(&stdout)
	parent.SetErr(&stderr)
	parent.SetArgs([]string{"lint", "--json", "--no-project", path})
	require.ErrorIs(t, parent.Execute(), errProblems)

	var diags []lint.Diagnostic
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &diags), "stdout: %s", stdout.String())
	require.Len(t, diags, 1)
	assert.NotContains(t, stderr.String(), "Usage:")
}

func TestSubcommands_Silenced(t *testing.T) {
	for _, cmd := range []*cobra.Command{
		LintCommand(), ResolveCommand(), SymbolsCommand(), DocCommand(),
		LSPCommand(), ReplCommand(), IndexCommand(),
	} {
		assert.True(t, cmd.SilenceUsage, cmd.Name())
		assert.True(t, cmd.SilenceErrors, cmd.Name())
	}
}

func TestLintCommand_Clean(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "clean.wl"), "f[x_] := Module[{y = x}, y^2]\n")

	cmd := LintCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--no-project", dir + "/..."})
	require.NoError(t, cmd.Execute())
	assert.Empty(t, stdout.String())
	assert.Empty(t, stderr.String())
}

func TestLintCommand_RenderedToStderr(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dup.wl")
	writeTestFile(t, path, "Module[{x, x}, x]\n")

	cmd := LintCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--no-project", "--checks=duplicate-local", path})
	require.ErrorIs(t, cmd.Execute(), errProblems)
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "(duplicate-local)")
	assert.Contains(t, stderr.String(), "nolint:duplicate-local")
}

func TestLintCommand_Stdin(t *testing.T) {
	cmd := LintCommand()
	var stdout bytes.Buffer
	cmd.SetIn(strings.NewReader("Module[{unused}, 1]"))
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--json", "--no-project"})
	require.ErrorIs(t, cmd.Execute(), errProblems)

	var diags []lint.Diagnostic
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &diags))
	require.NotEmpty(t, diags)
	assert.Equal(t, "<stdin>", diags[0].Pos.File)
}

func TestLintCommand_UnknownCheck(t *testing.T) {
	cmd := LintCommand()
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs([]string{"--checks=no-such-check"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitUsage, exitCode(err))
}

func TestLintCommand_MissingFile(t *testing.T) {
	cmd := LintCommand()
	cmd.SetArgs([]string{"--no-project", filepath.Join(t.TempDir(), "missing.wl")})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitUsage, exitCode(err))
}

func TestLintCommand_ProjectManifest(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "wlproject.toml"), `
exclude = ["vendor"]

[lint]
disable = ["unused-local"]
`)
	writeTestFile(t, filepath.Join(dir, "main.wl"), "Module[{y}, 1]\n")
	writeTestFile(t, filepath.Join(dir, "vendor", "dup.wl"), "Module[{x, x}, x]\n")

	cmd := LintCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--json", dir})
	require.NoError(t, cmd.Execute())
	assert.Empty(t, stdout.String())
}

func TestLintCommand_WithCatalog(t *testing.T) {
	var cfg cmdConfig
	cat := catalog.Empty()
	WithCatalog(cat)(&cfg)
	assert.Same(t, cat, cfg.resolveCatalog())
	assert.Same(t, cat, cfg.resolveResolver().Catalog())
}

func TestLintCommand_WithResolverPreferred(t *testing.T) {
	r := analysis.NewResolver(catalog.Default())

	var cfg cmdConfig
	WithCatalog(catalog.Empty())(&cfg)
	WithResolver(r)(&cfg)

	assert.Same(t, r, cfg.resolveResolver(),
		"an injected resolver takes precedence over a catalog")
	assert.Same(t, r.Catalog(), cfg.resolveCatalog())
}

func TestLintDiagToDiagnostic(t *testing.T) {
	d := lintDiagToDiagnostic(lint.Diagnostic{
		Pos:      lint.Position{File: "a.wl", Line: 2, Col: 9, EndLine: 2, EndCol: 12},
		Message:  "local variable y is never used",
		Analyzer: "unused-local",
		Severity: lint.SeverityWarning,
	})
	assert.Equal(t, "local variable y is never used (unused-local)", d.Message)
	require.Len(t, d.Spans, 1)
	assert.Equal(t, 9, d.Spans[0].Col)
	assert.Equal(t, 11, d.Spans[0].EndCol, "end column is inclusive")
	assert.Contains(t, d.Notes[len(d.Notes)-1], "(* nolint:unused-local *)")

	syntax := lintDiagToDiagnostic(lint.Diagnostic{
		Pos:      lint.Position{File: "a.wl", Line: 1, Col: 4},
		Message:  "unexpected ]",
		Analyzer: lint.SyntaxAnalyzer,
		Severity: lint.SeverityError,
	})
	assert.Empty(t, syntax.Notes, "syntax errors cannot be suppressed")
	assert.Zero(t, syntax.Spans[0].EndCol)
}
