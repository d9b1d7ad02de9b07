// Copyright © 2024 The wlscope authors

package token

import (
	"unicode/utf8"
)

// Scanner facilitates construction of tokens from in-memory source text.
// Lines and columns are 1-based and columns count runes.
type Scanner struct {
	file string
	path string
	src  string

	start     int // byte offset of the current token
	startLine int
	startCol  int

	pos  int // byte offset of the next rune to scan
	line int
	col  int

	c rune // last accepted rune
}

// NewScanner initializes and returns a new Scanner over src.
func NewScanner(file string, src string) *Scanner {
	return &Scanner{
		file:      file,
		src:       src,
		line:      1,
		col:       1,
		startLine: 1,
		startCol:  1,
	}
}

// SetPath associates a physical location (e.g. filesystem path) with s.
func (s *Scanner) SetPath(path string) {
	s.path = path
}

// File returns the name given to the scanned stream.
func (s *Scanner) File() string {
	return s.file
}

// EmitToken returns a token containing the text scanned since the last call
// to either EmitToken or Ignore.
func (s *Scanner) EmitToken(typ Type) *Token {
	tok := &Token{
		Type:   typ,
		Text:   s.Text(),
		Source: s.LocSpan(),
	}
	s.Ignore()
	return tok
}

// Ignore causes the scanner to skip all text scanned since the last call to
// either EmitToken or Ignore.
func (s *Scanner) Ignore() {
	s.start = s.pos
	s.startLine = s.line
	s.startCol = s.col
}

// Text returns the text scanned since the last call to either EmitToken or
// Ignore.
func (s *Scanner) Text() string {
	return s.src[s.start:s.pos]
}

// Rune returns the last rune accepted by the scanner.
func (s *Scanner) Rune() rune {
	return s.c
}

// EOF reports whether every rune of the input has been accepted.
func (s *Scanner) EOF() bool {
	return s.pos >= len(s.src)
}

// Peek returns the next rune to be scanned.  Peek returns false at the end
// of the input.
func (s *Scanner) Peek() (rune, bool) {
	return s.PeekAt(0)
}

// PeekAt returns the rune n positions after the next rune to be scanned.
func (s *Scanner) PeekAt(n int) (rune, bool) {
	p := s.pos
	for {
		if p >= len(s.src) {
			return 0, false
		}
		c, size := utf8.DecodeRuneInString(s.src[p:])
		if n == 0 {
			return c, true
		}
		n--
		p += size
	}
}

// HasPrefix reports whether the unscanned input starts with prefix.
func (s *Scanner) HasPrefix(prefix string) bool {
	return len(s.src)-s.pos >= len(prefix) && s.src[s.pos:s.pos+len(prefix)] == prefix
}

// ScanRune accepts the next rune unconditionally.  ScanRune returns false
// at the end of the input.
func (s *Scanner) ScanRune() bool {
	if s.EOF() {
		return false
	}
	c, size := utf8.DecodeRuneInString(s.src[s.pos:])
	s.c = c
	s.pos += size
	if c == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return true
}

// Accept scans the next rune if fn returns true for it.
func (s *Scanner) Accept(fn func(rune) bool) bool {
	c, ok := s.Peek()
	if !ok || !fn(c) {
		return false
	}
	return s.ScanRune()
}

// AcceptRune scans the next rune if it is c.
func (s *Scanner) AcceptRune(c rune) bool {
	return s.Accept(func(r rune) bool { return r == c })
}

// AcceptString scans str if the unscanned input starts with it.
func (s *Scanner) AcceptString(str string) bool {
	if !s.HasPrefix(str) {
		return false
	}
	for range str {
		s.ScanRune()
	}
	return true
}

// AcceptSeq scans runes as long as fn returns true and reports how many
// runes were scanned.
func (s *Scanner) AcceptSeq(fn func(rune) bool) int {
	n := 0
	for s.Accept(fn) {
		n++
	}
	return n
}

// LocStart returns the location of the start of the current token.
func (s *Scanner) LocStart() *Location {
	return &Location{
		File: s.file,
		Path: s.path,
		Pos:  s.start,
		Line: s.startLine,
		Col:  s.startCol,
	}
}

// LocSpan returns the location of the current token including its end.
func (s *Scanner) LocSpan() *Location {
	loc := s.LocStart()
	loc.EndPos = s.pos
	loc.EndLine = s.line
	loc.EndCol = s.col
	return loc
}
