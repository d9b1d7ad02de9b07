// Copyright © 2024 The wlscope authors

// Package lint provides static analysis for Wolfram Language source files.
//
// The linter is modeled after go vet: each check is an independent Analyzer
// that receives a parsed and resolved file and reports diagnostics.  The
// framework handles parsing, resolution, running analyzers, suppression and
// formatting output.
package lint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/halirutan/wlscope/analysis"
	"github.com/halirutan/wlscope/ast"
	"github.com/halirutan/wlscope/parser"
	"github.com/halirutan/wlscope/parser/lexer"
	"github.com/halirutan/wlscope/parser/token"
)

// Severity indicates the severity level of a lint diagnostic.
type Severity int

const (
	severityUnset Severity = iota // unexported zero sentinel for default detection
	SeverityError
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// MarshalJSON serializes the severity as a JSON string.
// An unset severity (zero value) is marshaled as "warning".
func (s Severity) MarshalJSON() ([]byte, error) {
	if s == severityUnset {
		return json.Marshal("warning")
	}
	return json.Marshal(s.String())
}

// UnmarshalJSON deserializes a severity from a JSON string.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	switch str {
	case "error":
		*s = SeverityError
	case "warning":
		*s = SeverityWarning
	case "info":
		*s = SeverityInfo
	default:
		return fmt.Errorf("unknown severity: %q", str)
	}
	return nil
}

// SyntaxAnalyzer is the name diagnostics for syntax errors carry.
const SyntaxAnalyzer = "syntax"

// Analyzer defines a single lint check.
type Analyzer struct {
	// Name is a short identifier for this check (e.g. "unused-local").
	Name string

	// Doc is a human-readable description. The first line is a short summary.
	Doc string

	// Severity is the default severity for diagnostics from this analyzer.
	Severity Severity

	// Run executes the check. It should call pass.Report() for each finding.
	Run func(pass *Pass) error
}

// Pass provides context to a running analyzer.
type Pass struct {
	// Analyzer is the currently running check.
	Analyzer *Analyzer

	// Filename is the source file being analyzed.
	Filename string

	// File holds the parsed tree and its resolution caches.
	File *analysis.File

	// Resolver resolves occurrences of File.
	Resolver *analysis.Resolver

	// Semantics holds the resolution of every occurrence of File.
	Semantics *analysis.Result

	// LanguageLevel is the oldest language version the code must run on.
	// Zero disables version checks.
	LanguageLevel float64

	// diagnostics collects reported findings.
	diagnostics []Diagnostic
}

// Report records a diagnostic finding.
func (p *Pass) Report(d Diagnostic) {
	d.Analyzer = p.Analyzer.Name
	if d.Severity == severityUnset {
		d.Severity = p.Analyzer.Severity
	}
	p.diagnostics = append(p.diagnostics, d)
}

// ReportWithNotes records a diagnostic with additional hint text.
func (p *Pass) ReportWithNotes(d Diagnostic, notes ...string) {
	d.Notes = append(d.Notes, notes...)
	p.Report(d)
}

// Reportf is a convenience for reporting a diagnostic at a position.
func (p *Pass) Reportf(source *token.Location, format string, args ...interface{}) {
	p.Report(Diagnostic{
		Pos:     positionOf(source),
		Message: fmt.Sprintf(format, args...),
	})
}

// Statements returns the top-level statements of the file.
func (p *Pass) Statements() []*ast.Node {
	return p.File.Tree().Statements()
}

// Diagnostic is a single reported problem.
type Diagnostic struct {
	// Pos is the source location of the problem.
	Pos Position `json:"pos"`

	// Message is a human-readable description of the problem.
	Message string `json:"message"`

	// Analyzer is the name of the check that found this problem.
	Analyzer string `json:"analyzer"`

	// Severity is the severity level of the diagnostic.
	Severity Severity `json:"severity"`

	// Notes are optional hint text lines for the user.
	Notes []string `json:"notes,omitempty"`
}

// Position identifies a location in source code.
type Position struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Col     int    `json:"col,omitempty"`
	EndLine int    `json:"end_line,omitempty"`
	EndCol  int    `json:"end_col,omitempty"`
}

func positionOf(source *token.Location) Position {
	if source == nil {
		return Position{}
	}
	return Position{
		File:    source.File,
		Line:    source.Line,
		Col:     source.Col,
		EndLine: source.EndLine,
		EndCol:  source.EndCol,
	}
}

// String returns the position in file:line format.
func (p Position) String() string {
	if p.Line == 0 {
		return p.File
	}
	if p.Col > 0 {
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
	}
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

// String returns the diagnostic in go vet style: file:line: message (analyzer)
// with optional note lines appended.
func (d Diagnostic) String() string {
	s := fmt.Sprintf("%s: %s (%s)", d.Pos, d.Message, d.Analyzer)
	for _, n := range d.Notes {
		s += "\n  = note: " + n
	}
	return s
}

// Linter runs a set of analyzers over source files.
type Linter struct {
	Analyzers []*Analyzer

	// Resolver resolves symbols.  When nil a resolver over the default
	// catalog is used.
	Resolver *analysis.Resolver

	// LanguageLevel is passed to every Pass.
	LanguageLevel float64
}

func (l *Linter) resolver() *analysis.Resolver {
	if l.Resolver != nil {
		return l.Resolver
	}
	return defaultResolver()
}

// LintFile parses, resolves and lints a single source file.  Syntax errors
// are reported as diagnostics of the "syntax" analyzer.
func (l *Linter) LintFile(source []byte, filename string) ([]Diagnostic, error) {
	tree := parser.ParseFile(filename, string(source))
	return l.LintTree(analysis.NewFile(tree), lexer.Comments(filename, string(source)))
}

// LintTree lints an already parsed file.  comments are the comment tokens
// of its source and are searched for nolint directives.
func (l *Linter) LintTree(f *analysis.File, comments []*token.Token) ([]Diagnostic, error) {
	r := l.resolver()
	filename := f.Name()
	semantics := analysis.Analyze(r, f)

	var all []Diagnostic
	for _, err := range f.Tree().Errors {
		all = append(all, syntaxDiagnostic(filename, err))
	}

	for _, analyzer := range l.Analyzers {
		pass := &Pass{
			Analyzer:      analyzer,
			Filename:      filename,
			File:          f,
			Resolver:      r,
			Semantics:     semantics,
			LanguageLevel: l.LanguageLevel,
		}
		if err := analyzer.Run(pass); err != nil {
			return nil, fmt.Errorf("%s: analyzer %s: %w", filename, analyzer.Name, err)
		}
		// Set file on diagnostics that don't have one
		for i := range pass.diagnostics {
			if pass.diagnostics[i].Pos.File == "" {
				pass.diagnostics[i].Pos.File = filename
			}
		}
		all = append(all, pass.diagnostics...)
	}

	all = filterSuppressed(all, comments)
	sortDiagnostics(all)
	return all, nil
}

func syntaxDiagnostic(filename string, err error) Diagnostic {
	d := Diagnostic{
		Pos:      Position{File: filename},
		Message:  err.Error(),
		Analyzer: SyntaxAnalyzer,
		Severity: SeverityError,
	}
	var lerr *token.LocationError
	if errors.As(err, &lerr) {
		d.Message = lerr.Err.Error()
		if lerr.Source != nil {
			d.Pos = positionOf(lerr.Source)
			d.Pos.File = filename
		}
	}
	return d
}

func sortDiagnostics(all []Diagnostic) {
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Pos.File != all[j].Pos.File {
			return all[i].Pos.File < all[j].Pos.File
		}
		if all[i].Pos.Line != all[j].Pos.Line {
			return all[i].Pos.Line < all[j].Pos.Line
		}
		return all[i].Pos.Col < all[j].Pos.Col
	})
}

// LintFiles lints paths in parallel using up to jobs goroutines.  The
// diagnostics of all files are returned sorted by position.
func (l *Linter) LintFiles(ctx context.Context, paths []string, jobs int) ([]Diagnostic, error) {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([][]Diagnostic, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(paths))))
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			src, err := os.ReadFile(path) //nolint:gosec // CLI tool reads user-specified files
			if err != nil {
				return err
			}
			diags, err := l.LintFile(src, path)
			if err != nil {
				return err
			}
			results[i] = diags
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var all []Diagnostic
	for _, diags := range results {
		all = append(all, diags...)
	}
	sortDiagnostics(all)
	return all, nil
}

// filterSuppressed removes diagnostics on lines with (* nolint *) comments.
func filterSuppressed(diags []Diagnostic, comments []*token.Token) []Diagnostic {
	// line -> "" (all) or "analyzer1,analyzer2"
	nolintLines := make(map[int]string)
	for _, c := range comments {
		checkNolintToken(c, nolintLines)
	}
	if len(nolintLines) == 0 {
		return diags
	}

	var filtered []Diagnostic
	for _, d := range diags {
		directive, ok := nolintLines[d.Pos.Line]
		if !ok {
			filtered = append(filtered, d)
			continue
		}
		// Empty directive = suppress all
		if directive == "" {
			continue
		}
		suppressed := false
		for _, name := range strings.Split(directive, ",") {
			if strings.TrimSpace(name) == d.Analyzer {
				suppressed = true
				break
			}
		}
		if !suppressed {
			filtered = append(filtered, d)
		}
	}
	return filtered
}

func checkNolintToken(tok *token.Token, lines map[int]string) {
	if tok == nil || tok.Source == nil {
		return
	}
	text := strings.TrimSpace(tok.Text)
	text = strings.TrimPrefix(text, "(*")
	text = strings.TrimSuffix(text, "*)")
	text = strings.TrimSpace(text)

	if !strings.HasPrefix(text, "nolint") {
		return
	}
	rest := strings.TrimPrefix(text, "nolint")
	if rest == "" {
		lines[tok.Source.Line] = ""
		return
	}
	if strings.HasPrefix(rest, ":") {
		lines[tok.Source.Line] = strings.TrimSpace(strings.TrimPrefix(rest, ":"))
	}
}

// FormatText writes diagnostics in go vet text format.
func FormatText(w io.Writer, diags []Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(w, d.String()) //nolint:errcheck // best-effort output to writer
	}
}

// FormatJSON writes diagnostics as JSON.
func FormatJSON(w io.Writer, diags []Diagnostic) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(diags)
}

// DefaultAnalyzers returns the built-in set of lint checks.
func DefaultAnalyzers() []*Analyzer {
	return []*Analyzer{
		AnalyzerUnsupportedVersion,
		AnalyzerUnusedLocal,
		AnalyzerDuplicateLocal,
		AnalyzerShadowedLocal,
		AnalyzerMalformedScope,
	}
}

// Select returns the analyzers of all whose names are in names, keeping the
// order of all, and an error naming the first unknown name.
func Select(all []*Analyzer, names []string) ([]*Analyzer, error) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[strings.TrimSpace(n)] = true
	}
	var out []*Analyzer
	for _, a := range all {
		if want[a.Name] {
			out = append(out, a)
			delete(want, a.Name)
		}
	}
	for _, n := range names {
		if want[strings.TrimSpace(n)] {
			return nil, fmt.Errorf("unknown check %q", n)
		}
	}
	return out, nil
}

// Disable returns the analyzers of all whose names are not in names.
func Disable(all []*Analyzer, names []string) []*Analyzer {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[strings.TrimSpace(n)] = true
	}
	var out []*Analyzer
	for _, a := range all {
		if !skip[a.Name] {
			out = append(out, a)
		}
	}
	return out
}
