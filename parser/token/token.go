// Copyright © 2024 The wlscope authors

package token

import "fmt"

// Token is a single lexeme of Wolfram Language source.
type Token struct {
	Type   Type
	Text   string
	Source *Location
	// NewlineBefore is true when a line break separates the token from the
	// previous one.  The parser uses it to end top-level statements.
	NewlineBefore bool
}

// End returns the byte offset just past the token text.
func (tok *Token) End() int {
	if tok.Source.EndPos > 0 {
		return tok.Source.EndPos
	}
	return tok.Source.Pos + len(tok.Text)
}

// Adjacent reports whether next starts exactly where tok ends.
func (tok *Token) Adjacent(next *Token) bool {
	return tok != nil && next != nil && tok.End() == next.Source.Pos
}

type Type uint

// Type constants used by the lexer and parser.
const (
	INVALID Type = iota
	ERROR
	EOF

	// Atoms & literals
	SYMBOL
	INT
	REAL
	STRING
	SLOT
	SLOT_SEQ

	// Blanks
	BLANK
	BLANK_SEQ
	BLANK_NULL_SEQ
	BLANK_DEFAULT

	COMMENT

	// OPERATOR covers every infix, prefix and postfix operator.  Its Text
	// holds the operator spelling.
	OPERATOR
	COMMA

	// Delimiters
	PAREN_L
	PAREN_R
	BRACKET_L
	BRACKET_R
	PART_L
	BRACE_L
	BRACE_R
	ASSOC_L
	ASSOC_R

	numTokenTypes
)

func (typ Type) String() string {
	typeStrings := [numTokenTypes]string{
		INVALID:        "invalid",
		ERROR:          "error",
		EOF:            "EOF",
		SYMBOL:         "symbol",
		INT:            "int",
		REAL:           "real",
		STRING:         "string",
		SLOT:           "#",
		SLOT_SEQ:       "##",
		BLANK:          "_",
		BLANK_SEQ:      "__",
		BLANK_NULL_SEQ: "___",
		BLANK_DEFAULT:  "_.",
		COMMENT:        "(*",
		OPERATOR:       "operator",
		COMMA:          ",",
		PAREN_L:        "(",
		PAREN_R:        ")",
		BRACKET_L:      "[",
		BRACKET_R:      "]",
		PART_L:         "[[",
		BRACE_L:        "{",
		BRACE_R:        "}",
		ASSOC_L:        "<|",
		ASSOC_R:        "|>",
	}
	if typ >= numTokenTypes {
		return typeStrings[INVALID]
	}
	return typeStrings[typ]
}

// Location is a position in a source file.  EndLine and EndCol are set on
// locations that describe a span.
type Location struct {
	File    string // a name representing the source stream
	Path    string // a physical location which may differ from File
	Pos     int
	Line    int // line number (starting at 1 when tracked)
	Col     int // line column number (starting at 1 when tracked)
	EndPos  int
	EndLine int
	EndCol  int
}

func (loc *Location) String() string {
	switch {
	case loc == nil:
		return "<unknown>"
	case loc.Pos < 0:
		return loc.File
	case loc.Line == 0:
		return fmt.Sprintf("%s[%d]", loc.File, loc.Pos)
	case loc.Col == 0:
		return fmt.Sprintf("%s:%d", loc.File, loc.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", loc.File, loc.Line, loc.Col)
	}
}

// Contains reports whether the 1-based line and column fall inside the
// span described by loc.  Locations without end information contain only
// their start position.
func (loc *Location) Contains(line, col int) bool {
	if loc == nil || loc.Line == 0 {
		return false
	}
	if line < loc.Line || (line == loc.Line && col < loc.Col) {
		return false
	}
	if loc.EndLine == 0 {
		return line == loc.Line && col == loc.Col
	}
	if line > loc.EndLine || (line == loc.EndLine && col >= loc.EndCol) {
		return false
	}
	return true
}

// LocationError is an error tied to a position in the source.
type LocationError struct {
	Err    error
	Source *Location
}

func (err *LocationError) Error() string {
	return fmt.Sprintf("%s: %s", err.Source, err.Err)
}

func (err *LocationError) Unwrap() error {
	return err.Err
}
