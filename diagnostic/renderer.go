// Copyright © 2024 The wlscope authors

package diagnostic

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// Renderer formats diagnostics as Rust-style annotated source snippets.
type Renderer struct {
	// Color controls ANSI color output. Default is ColorAuto.
	Color ColorMode

	// SourceReader reads source file contents. If nil, os.ReadFile is used.
	SourceReader func(string) ([]byte, error)
}

// Render writes a single diagnostic to w.
func (r *Renderer) Render(w io.Writer, d Diagnostic) error {
	p := choosePalette(r.Color, w)
	bw := bufio.NewWriter(w)
	ew := &errWriter{w: bw}

	// Header: "error: message" or "warning: message"
	r.writeHeader(ew, d, p)

	for _, span := range d.Spans {
		r.writeSpan(ew, span, p)
	}

	for _, note := range d.Notes {
		ew.printf("   %s note: %s\n", p.boldCyan("="), note)
	}

	if ew.err != nil {
		return ew.err
	}
	return bw.Flush()
}

// RenderAll writes all diagnostics to w separated by blank lines.
func (r *Renderer) RenderAll(w io.Writer, diags []Diagnostic) error {
	for i, d := range diags {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := r.Render(w, d); err != nil {
			return err
		}
	}
	return nil
}

// errWriter wraps a writer and captures the first error, short-circuiting
// subsequent writes. This avoids checking every fmt.Fprintf return value.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, a ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, a...)
}

func (ew *errWriter) print(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = io.WriteString(ew.w, s)
}

func (r *Renderer) writeHeader(ew *errWriter, d Diagnostic, p palette) {
	var sev string
	switch d.Severity {
	case SeverityError:
		sev = p.boldRed("error")
	case SeverityWarning:
		sev = p.yellow("warning")
	case SeverityNote:
		sev = p.boldCyan("note")
	default:
		sev = d.Severity.String()
	}
	ew.printf("%s: %s\n", sev, p.bold(d.Message))
}

func (r *Renderer) writeSpan(ew *errWriter, span Span, p palette) {
	// Location line: "  --> file:line:col"
	loc := span.File
	if span.Line > 0 {
		loc = fmt.Sprintf("%s:%d", span.File, span.Line)
		if span.Col > 0 {
			loc = fmt.Sprintf("%s:%d:%d", span.File, span.Line, span.Col)
		}
	}
	ew.printf("  %s %s\n", p.boldBlue("-->"), loc)

	source := r.readSourceLine(span.File, span.Line)
	if source == "" {
		ew.printf("   %s\n", p.boldBlue("|"))
		return
	}

	lineStr := fmt.Sprintf("%d", span.Line)
	pad := strings.Repeat(" ", len(lineStr))
	gutter := p.boldBlue(pad + " |")

	ew.printf(" %s\n", gutter)

	// Replace tabs with spaces for consistent alignment
	displaySource := strings.ReplaceAll(source, "\t", "    ")
	ew.printf(" %s  %s\n", p.boldBlue(lineStr+" |"), displaySource)

	col := span.Col
	endCol := span.EndCol
	if col <= 0 {
		col = 1
	}
	if endCol <= 0 {
		endCol = r.detectEndCol(source, col)
	}
	if endCol < col {
		endCol = col
	}
	underLen := utf8.RuneCountInString(runesBetween(source, col, endCol))
	if underLen == 0 {
		underLen = 1
	}

	underPad := strings.Repeat(" ", displayWidth(runePrefix(source, col)))
	ew.printf(" %s  %s%s", gutter, underPad, p.boldRed(strings.Repeat("^", underLen)))
	if span.Label != "" {
		ew.printf(" %s", p.boldRed(span.Label))
	}
	ew.print("\n")

	ew.printf(" %s\n", gutter)
}

func (r *Renderer) readSourceLine(file string, line int) string {
	if line <= 0 || file == "" {
		return ""
	}
	reader := r.SourceReader
	if reader == nil {
		reader = func(name string) ([]byte, error) {
			return os.ReadFile(name) //nolint:gosec // reads user-specified source files for display
		}
	}
	data, err := reader(file)
	if err != nil {
		return ""
	}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for i := 1; scanner.Scan(); i++ {
		if i == line {
			return scanner.Text()
		}
	}
	return ""
}

// runePrefix returns the runes of s before the 1-based column col.
func runePrefix(s string, col int) string {
	i := 0
	for n := 1; n < col && i < len(s); n++ {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[:i]
}

// runesBetween returns the runes of s from column col through endCol,
// both 1-based and inclusive.
func runesBetween(s string, col, endCol int) string {
	start := len(runePrefix(s, col))
	end := len(runePrefix(s, endCol+1))
	return s[start:end]
}

// detectEndCol scans from col to find the end of the current token.
func (r *Renderer) detectEndCol(source string, col int) int {
	prefix := runePrefix(source, col)
	if col <= 0 || len(prefix) >= len(source) {
		return col
	}
	end := col
	for _, ch := range source[len(prefix):] {
		if strings.ContainsRune(" \t()[]{},;", ch) {
			break
		}
		end++
	}
	if end == col {
		return col // single character
	}
	return end - 1
}

// displayWidth returns the display width of a string, expanding tabs to 4 spaces.
func displayWidth(s string) int {
	w := 0
	for _, ch := range s {
		if ch == '\t' {
			w += 4
		} else {
			w++
		}
	}
	return w
}
