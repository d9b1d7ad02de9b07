// Copyright © 2024 The wlscope authors

package repl

import (
	"errors"
	"io"

	"github.com/halirutan/wlscope/diagnostic"
	"github.com/halirutan/wlscope/parser/token"
)

// renderErrors renders syntax errors of src, the session source with the
// rejected input appended.
func (s *Session) renderErrors(w io.Writer, src string, errs []error) {
	r := &diagnostic.Renderer{
		Color: s.Color,
		SourceReader: func(name string) ([]byte, error) {
			if name != sessionFile {
				return nil, errors.ErrUnsupported
			}
			return []byte(src), nil
		},
	}
	diags := make([]diagnostic.Diagnostic, 0, len(errs))
	for _, err := range errs {
		diags = append(diags, syntaxErrorToDiag(err))
	}
	_ = r.RenderAll(w, diags)
}

// syntaxErrorToDiag converts a parse error to a Diagnostic for display.
func syntaxErrorToDiag(err error) diagnostic.Diagnostic {
	d := diagnostic.Diagnostic{
		Severity: diagnostic.SeverityError,
		Message:  err.Error(),
	}
	var lerr *token.LocationError
	if errors.As(err, &lerr) && lerr.Source != nil && lerr.Source.Line > 0 {
		d.Message = lerr.Err.Error()
		span := diagnostic.Span{
			File: lerr.Source.File,
			Line: lerr.Source.Line,
			Col:  lerr.Source.Col,
		}
		if lerr.Source.EndLine == lerr.Source.Line && lerr.Source.EndCol > lerr.Source.Col {
			span.EndCol = lerr.Source.EndCol - 1
		}
		d.Spans = append(d.Spans, span)
	}
	d.Notes = append(d.Notes, "the input was not added to the session")
	return d
}
