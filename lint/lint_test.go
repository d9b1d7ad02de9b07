// Copyright © 2024 The wlscope authors

package lint

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/halirutan/wlscope/analysis"
	"github.com/halirutan/wlscope/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lintSource runs all default analyzers on the given source and returns diagnostics.
func lintSource(t *testing.T, source string) []Diagnostic {
	t.Helper()
	l := &Linter{Analyzers: DefaultAnalyzers()}
	diags, err := l.LintFile([]byte(source), "test.wl")
	require.NoError(t, err)
	return diags
}

// lintCheck runs a single analyzer on the given source.
func lintCheck(t *testing.T, analyzer *Analyzer, source string) []Diagnostic {
	t.Helper()
	return lintCheckLevel(t, analyzer, 0, source)
}

func lintCheckLevel(t *testing.T, analyzer *Analyzer, level float64, source string) []Diagnostic {
	t.Helper()
	l := &Linter{Analyzers: []*Analyzer{analyzer}, LanguageLevel: level}
	diags, err := l.LintFile([]byte(source), "test.wl")
	require.NoError(t, err)
	return diags
}

// assertHasDiag checks that at least one diagnostic contains the given substring.
func assertHasDiag(t *testing.T, diags []Diagnostic, substr string) {
	t.Helper()
	for _, d := range diags {
		if strings.Contains(d.Message, substr) {
			return
		}
	}
	var msgs []string
	for _, d := range diags {
		msgs = append(msgs, d.String())
	}
	t.Errorf("expected diagnostic containing %q, got: %v", substr, msgs)
}

// assertNoDiags checks that there are no diagnostics.
func assertNoDiags(t *testing.T, diags []Diagnostic) {
	t.Helper()
	if len(diags) > 0 {
		var msgs []string
		for _, d := range diags {
			msgs = append(msgs, d.String())
		}
		t.Errorf("expected no diagnostics, got %d: %v", len(diags), msgs)
	}
}

// assertDiagOnLine checks that a diagnostic exists on the given line with the given substring.
func assertDiagOnLine(t *testing.T, diags []Diagnostic, line int, substr string) {
	t.Helper()
	for _, d := range diags {
		if d.Pos.Line == line && strings.Contains(d.Message, substr) {
			return
		}
	}
	var msgs []string
	for _, d := range diags {
		msgs = append(msgs, fmt.Sprintf("line %d: %s", d.Pos.Line, d.Message))
	}
	t.Errorf("expected diagnostic on line %d containing %q, got: %v", line, substr, msgs)
}

// --- Position.String() ---

func TestPosition_String(t *testing.T) {
	assert.Equal(t, "test.wl", Position{File: "test.wl"}.String())
	assert.Equal(t, "test.wl:10", Position{File: "test.wl", Line: 10}.String())
	assert.Equal(t, "test.wl:10:5", Position{File: "test.wl", Line: 10, Col: 5}.String())
}

// --- Diagnostic.String() ---

func TestDiagnostic_String(t *testing.T) {
	d := Diagnostic{
		Pos:      Position{File: "test.wl", Line: 10},
		Message:  "local variable y is declared but not used in Module",
		Analyzer: "unused-local",
		Notes:    []string{"remove it"},
	}
	assert.Equal(t, "test.wl:10: local variable y is declared but not used in Module (unused-local)\n  = note: remove it", d.String())
}

// --- Framework ---

func TestLintFile_AnalyzerError(t *testing.T) {
	errAnalyzer := &Analyzer{
		Name: "fail",
		Doc:  "Always fails.",
		Run: func(pass *Pass) error {
			return fmt.Errorf("intentional failure")
		},
	}
	l := &Linter{Analyzers: []*Analyzer{errAnalyzer}}
	_, err := l.LintFile([]byte("1 + 2"), "test.wl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analyzer fail")
}

func TestLintFile_SyntaxErrors(t *testing.T) {
	diags := lintSource(t, "f[x_] := x\ng[y")
	require.NotEmpty(t, diags)
	assert.Equal(t, SyntaxAnalyzer, diags[0].Analyzer)
	assert.Equal(t, SeverityError, diags[0].Severity)
	assert.Equal(t, "test.wl", diags[0].Pos.File)
	assert.NotZero(t, diags[0].Pos.Line)
}

func TestLintFile_DefaultSeverity(t *testing.T) {
	a := &Analyzer{
		Name:     "always",
		Severity: SeverityInfo,
		Run: func(pass *Pass) error {
			pass.Reportf(nil, "found")
			return nil
		},
	}
	diags := lintCheck(t, a, "x")
	require.Len(t, diags, 1)
	assert.Equal(t, SeverityInfo, diags[0].Severity)
	assert.Equal(t, "always", diags[0].Analyzer)
	assert.Equal(t, "test.wl", diags[0].Pos.File)
}

func TestLintFile_Clean(t *testing.T) {
	assertNoDiags(t, lintSource(t, "f[x_] := Module[{y = x}, y^2]\ng[n_Integer] := Table[i^2, {i, n}]"))
}

// --- unsupported-version ---

func TestUnsupportedVersion_Positive(t *testing.T) {
	diags := lintCheckLevel(t, AnalyzerUnsupportedVersion, 9.0, "a = Association[b -> 1]\nc = <|d -> 2|>")
	assertDiagOnLine(t, diags, 1, "Association requires version 10.0 but the language level is 9.0")
	assertDiagOnLine(t, diags, 2, "<|...|> requires version 10.0")
	assert.Equal(t, SeverityWarning, diags[0].Severity)
	assert.NotEmpty(t, diags[0].Notes)
}

func TestUnsupportedVersion_NestedWith(t *testing.T) {
	diags := lintCheckLevel(t, AnalyzerUnsupportedVersion, 10.0, "With[{a = 1}, {b = a}, b]")
	assertHasDiag(t, diags, "With with several declaration lists requires version 10.3")
	assertNoDiags(t, lintCheckLevel(t, AnalyzerUnsupportedVersion, 10.0, "With[{a = 1}, a]"))
}

func TestUnsupportedVersion_Negative(t *testing.T) {
	assertNoDiags(t, lintCheckLevel(t, AnalyzerUnsupportedVersion, 12.0, "Association[b -> 1]"))
	// No language level disables the check.
	assertNoDiags(t, lintCheck(t, AnalyzerUnsupportedVersion, "Association[b -> 1]"))
	// A local named like a builtin is not a builtin.
	assertNoDiags(t, lintCheckLevel(t, AnalyzerUnsupportedVersion, 9.0, "Module[{Association}, Association]"))
}

func TestUnsupportedVersion_DegradedCatalog(t *testing.T) {
	l := &Linter{
		Analyzers:     []*Analyzer{AnalyzerUnsupportedVersion},
		Resolver:      analysis.NewResolver(catalog.Empty()),
		LanguageLevel: 9.0,
	}
	diags, err := l.LintFile([]byte("Association[b -> 1]"), "test.wl")
	require.NoError(t, err)
	assertNoDiags(t, diags)
}

// --- unused-local ---

func TestUnusedLocal_Positive(t *testing.T) {
	diags := lintCheck(t, AnalyzerUnusedLocal, "Module[{x, y}, x]")
	require.Len(t, diags, 1)
	assertDiagOnLine(t, diags, 1, "local variable y is declared but not used in Module")
	assert.Equal(t, 12, diags[0].Pos.Col)
}

func TestUnusedLocal_Positive_Shadowed(t *testing.T) {
	diags := lintCheck(t, AnalyzerUnusedLocal, "Module[{x = 1},\n  Module[{x}, x]]")
	require.Len(t, diags, 1)
	assertDiagOnLine(t, diags, 1, "local variable x")
}

func TestUnusedLocal_Positive_With(t *testing.T) {
	assertHasDiag(t, lintCheck(t, AnalyzerUnusedLocal, "With[{a = 1, b = 2}, a]"), "local variable b")
}

func TestUnusedLocal_Negative(t *testing.T) {
	tests := []string{
		"Module[{x}, x = 1]",
		"With[{a = 1}, a]",
		"Module[{x, x}, x]",
		"Module[{x = 1}, Module[{y = x}, y]]",
		"Block[{$RecursionLimit = 20}, f[]]",
		"Table[1, {i, 3}]",
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			assertNoDiags(t, lintCheck(t, AnalyzerUnusedLocal, src))
		})
	}
}

// --- duplicate-local ---

func TestDuplicateLocal_Positive(t *testing.T) {
	diags := lintCheck(t, AnalyzerDuplicateLocal, "Module[{x, y, x}, x + y]")
	require.Len(t, diags, 1)
	assertHasDiag(t, diags, "x is declared more than once in Module")
	assert.Equal(t, []string{"first declared at line 1"}, diags[0].Notes)
	assert.Equal(t, 15, diags[0].Pos.Col)

	assertHasDiag(t, lintCheck(t, AnalyzerDuplicateLocal, "Function[{a, a}, a]"), "a is declared more than once in Function")
}

func TestDuplicateLocal_Negative(t *testing.T) {
	assertNoDiags(t, lintCheck(t, AnalyzerDuplicateLocal, "Module[{x, y}, x + y]"))
	assertNoDiags(t, lintCheck(t, AnalyzerDuplicateLocal, "Table[i, {i, 3}, {i, 2}]"))
	assertNoDiags(t, lintCheck(t, AnalyzerDuplicateLocal, "Module[{x, Private`x}, x]"))
}

// --- shadowed-local ---

func TestShadowedLocal_Positive(t *testing.T) {
	diags := lintCheck(t, AnalyzerShadowedLocal, "Module[{x},\n  Table[x, {x, 3}]]")
	require.Len(t, diags, 1)
	assertDiagOnLine(t, diags, 2, "x shadows x (Localized in Module) declared at line 1")
	assert.Equal(t, SeverityInfo, diags[0].Severity)

	diags = lintCheck(t, AnalyzerShadowedLocal, "f[x_] := Module[{x}, x]")
	assertHasDiag(t, diags, "x shadows x (Pattern in SetDelayed)")
}

func TestShadowedLocal_Negative(t *testing.T) {
	assertNoDiags(t, lintCheck(t, AnalyzerShadowedLocal, "y = 1; Module[{y}, y]"))
	assertNoDiags(t, lintCheck(t, AnalyzerShadowedLocal, "Module[{x}, Module[{y}, x + y]]"))
	assertNoDiags(t, lintCheck(t, AnalyzerShadowedLocal, "Module[{x = 1}, x] + Module[{x = 2}, x]"))
}

// --- malformed-scope ---

func TestMalformedScope(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"Module[x, x]", "malformed Module: the first argument must be a list of local variables"},
		{"Module[{x}]", "expected a list of local variables and a body"},
		{"Module[{x}, x, y]", "expected 2 arguments, got 3"},
		{"With[{a = 1}, b, a]", "every argument but the last must be a list"},
		{"Function[1, x]", "parameters must be a symbol or a list of symbols"},
		{"Function[]", "expected 1 to 3 arguments, got 0"},
		{"Table[]", "missing expression and iterators"},
		{"Compile[{{x, _Real}}]", "expected a parameter list and a body"},
		{"Limit[x]", "expected an expression and a rule"},
		{"Limit[f, 0]", "the second argument must be a rule"},
		{"Manipulate[x]", "expected an expression and at least one control"},
	}
	for _, test := range tests {
		t.Run(test.src, func(t *testing.T) {
			assertHasDiag(t, lintCheck(t, AnalyzerMalformedScope, test.src), test.want)
		})
	}
}

func TestMalformedScope_Negative(t *testing.T) {
	tests := []string{
		"Module[{x}, x]",
		"With[{a = 1}, {b = a}, b]",
		"Function[x^2]",
		"Function[x, x^2]",
		"Function[Null, #, Listable]",
		"Table[x, 10]",
		"Compile[{{x, _Real}}, x]",
		"Limit[f[x], x -> 0]",
		"Manipulate[x, {x, 0, 1}]",
		"myModule[x, x]",
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			assertNoDiags(t, lintCheck(t, AnalyzerMalformedScope, src))
		})
	}
}

// --- suppression ---

func TestNolint(t *testing.T) {
	assertNoDiags(t, lintSource(t, "Module[{x, y}, x] (* nolint *)"))
	assertNoDiags(t, lintSource(t, "Module[{x, y}, x] (* nolint:unused-local *)"))
	assertNoDiags(t, lintSource(t, "Module[{x, y}, x] (* nolint: duplicate-local, unused-local *)"))

	diags := lintSource(t, "Module[{x, y}, x] (* nolint:duplicate-local *)")
	assertHasDiag(t, diags, "local variable y")

	diags = lintSource(t, "(* nolint *)\nModule[{x, y}, x]")
	assertDiagOnLine(t, diags, 2, "local variable y")

	// Not a directive.
	assertHasDiag(t, lintSource(t, "Module[{x, y}, x] (* nolinting *)"), "local variable y")
}

// --- selection ---

func TestSelectAndDisable(t *testing.T) {
	all := DefaultAnalyzers()
	sel, err := Select(all, []string{"shadowed-local", "unused-local"})
	require.NoError(t, err)
	require.Len(t, sel, 2)
	assert.Equal(t, "unused-local", sel[0].Name)
	assert.Equal(t, "shadowed-local", sel[1].Name)

	_, err = Select(all, []string{"unused-local", "no-such-check"})
	assert.EqualError(t, err, `unknown check "no-such-check"`)

	rest := Disable(all, []string{"unsupported-version"})
	assert.Len(t, rest, len(all)-1)
	for _, a := range rest {
		assert.NotEqual(t, "unsupported-version", a.Name)
	}
}

func TestDefaultAnalyzers_Documented(t *testing.T) {
	seen := make(map[string]bool)
	for _, a := range DefaultAnalyzers() {
		assert.NotEmpty(t, a.Name)
		assert.NotEmpty(t, a.Doc, a.Name)
		assert.NotEqual(t, severityUnset, a.Severity, a.Name)
		assert.False(t, seen[a.Name], "duplicate analyzer %s", a.Name)
		seen[a.Name] = true
	}
}

// --- output ---

func TestFormatJSON(t *testing.T) {
	diags := lintCheck(t, AnalyzerUnusedLocal, "Module[{x}, 1]")
	var buf bytes.Buffer
	require.NoError(t, FormatJSON(&buf, diags))
	assert.Contains(t, buf.String(), `"severity": "warning"`)
	assert.Contains(t, buf.String(), `"analyzer": "unused-local"`)

	var text bytes.Buffer
	FormatText(&text, diags)
	assert.Equal(t, "test.wl:1:9: local variable x is declared but not used in Module (unused-local)\n", text.String())
}

func TestSeverity_JSON(t *testing.T) {
	var s Severity
	require.NoError(t, s.UnmarshalJSON([]byte(`"info"`)))
	assert.Equal(t, SeverityInfo, s)
	assert.Error(t, s.UnmarshalJSON([]byte(`"fatal"`)))
	b, err := severityUnset.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"warning"`, string(b))
}

// --- LintFiles ---

func TestLintFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.wl")
	b := filepath.Join(dir, "b.wl")
	require.NoError(t, os.WriteFile(a, []byte("Module[{x}, 1]"), 0o600))
	require.NoError(t, os.WriteFile(b, []byte("ok = 1\nModule[{y, y}, y]"), 0o600))

	l := &Linter{Analyzers: DefaultAnalyzers()}
	diags, err := l.LintFiles(context.Background(), []string{b, a}, 2)
	require.NoError(t, err)
	require.Len(t, diags, 2)
	assert.Equal(t, a, diags[0].Pos.File)
	assert.Equal(t, "unused-local", diags[0].Analyzer)
	assert.Equal(t, b, diags[1].Pos.File)
	assert.Equal(t, "duplicate-local", diags[1].Analyzer)

	_, err = l.LintFiles(context.Background(), []string{filepath.Join(dir, "missing.wl")}, 1)
	assert.Error(t, err)
}
