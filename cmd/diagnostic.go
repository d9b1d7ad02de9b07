// Copyright © 2024 The wlscope authors

package cmd

import (
	"io"

	"github.com/halirutan/wlscope/diagnostic"
	lintpkg "github.com/halirutan/wlscope/lint"
)

func newRenderer() *diagnostic.Renderer {
	return &diagnostic.Renderer{Color: colorMode()}
}

// lintDiagToDiagnostic converts a lint.Diagnostic to a diagnostic.Diagnostic.
func lintDiagToDiagnostic(ld lintpkg.Diagnostic) diagnostic.Diagnostic {
	d := diagnostic.Diagnostic{
		Severity: diagnosticSeverity(ld.Severity),
		Message:  ld.Message + " (" + ld.Analyzer + ")",
	}
	if ld.Pos.Line > 0 {
		span := diagnostic.Span{
			File: ld.Pos.File,
			Line: ld.Pos.Line,
			Col:  ld.Pos.Col,
		}
		// Lint positions end exclusively; the renderer underlines inclusively.
		if ld.Pos.EndLine == ld.Pos.Line && ld.Pos.EndCol > ld.Pos.Col {
			span.EndCol = ld.Pos.EndCol - 1
		}
		d.Spans = append(d.Spans, span)
	}
	d.Notes = append(d.Notes, ld.Notes...)
	if ld.Analyzer != lintpkg.SyntaxAnalyzer {
		d.Notes = append(d.Notes, "to suppress: add \"(* nolint:"+ld.Analyzer+" *)\" as a comment on this line")
	}
	return d
}

func diagnosticSeverity(sev lintpkg.Severity) diagnostic.Severity {
	switch sev {
	case lintpkg.SeverityError:
		return diagnostic.SeverityError
	case lintpkg.SeverityInfo:
		return diagnostic.SeverityNote
	default:
		return diagnostic.SeverityWarning
	}
}

// renderLintDiagnostics renders lint diagnostics with diagnostic formatting to w.
func renderLintDiagnostics(w io.Writer, diags []lintpkg.Diagnostic) error {
	ds := make([]diagnostic.Diagnostic, 0, len(diags))
	for _, ld := range diags {
		ds = append(ds, lintDiagToDiagnostic(ld))
	}
	return newRenderer().RenderAll(w, ds)
}
