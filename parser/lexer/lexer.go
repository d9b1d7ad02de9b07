// Copyright © 2024 The wlscope authors

// Package lexer tokenizes Wolfram Language source text.
package lexer

import (
	"fmt"
	"sort"
	"unicode"

	"github.com/halirutan/wlscope/parser/token"
	"golang.org/x/text/unicode/norm"
)

// operators lists every operator spelling recognized by the lexer, longest
// first so that the scan is greedy.
var operators = func() []string {
	ops := []string{
		"===", "=!=", "//.", "@@@", "^:=", "...",
		":=", ":>", "->", "/;", "/.", "/@", "//", "/:", "@@", "==", "!=",
		"<=", ">=", "&&", "||", "<>", "^=", "+=", "-=", "*=", "/=", "=.",
		"..", "++", "--", ">>", ";;", "::", "~~",
		"=", ":", ";", "+", "-", "*", "/", "^", ".", "!", "?", "@", "&",
		"|", "<", ">", "'", "~",
	}
	sort.SliceStable(ops, func(i, j int) bool { return len(ops[i]) > len(ops[j]) })
	return ops
}()

// Lexer produces tokens from a token.Scanner.  Comments are not returned
// as tokens; they are collected and available from Comments.
type Lexer struct {
	scanner  *token.Scanner
	newline  bool
	comments []*token.Token
}

// New returns a Lexer reading from s.
func New(s *token.Scanner) *Lexer {
	return &Lexer{scanner: s}
}

// Tokenize lexes all of src and returns its tokens, terminated by an EOF
// token.
func Tokenize(file, src string) []*token.Token {
	lex := New(token.NewScanner(file, src))
	var toks []*token.Token
	for {
		tok := lex.ReadToken()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
}

// Comments returns every complete comment read so far as COMMENT tokens.
func (lex *Lexer) Comments() []*token.Token {
	return lex.comments
}

// Comments lexes src and returns its comments.
func Comments(file, src string) []*token.Token {
	lex := New(token.NewScanner(file, src))
	for lex.ReadToken().Type != token.EOF {
	}
	return lex.comments
}

// ReadToken returns the next token of the input.  Malformed input yields
// ERROR tokens and scanning continues after them.
func (lex *Lexer) ReadToken() *token.Token {
	tok := lex.readToken()
	tok.NewlineBefore = lex.newline
	lex.newline = false
	return tok
}

func (lex *Lexer) readToken() *token.Token {
	for {
		lex.skipWhitespace()
		if !lex.scanner.HasPrefix("(*") {
			break
		}
		if tok := lex.skipComment(); tok != nil {
			return tok
		}
	}
	s := lex.scanner
	if s.EOF() {
		return s.EmitToken(token.EOF)
	}
	c, _ := s.Peek()
	switch {
	case isSymbolStart(c) || c == '`' || s.HasPrefix(`\[`):
		return lex.readSymbol()
	case isDigit(c):
		return lex.readNumber()
	case c == '.' && lex.peekDigit(1):
		return lex.readNumber()
	case c == '"':
		return lex.readString()
	case c == '#':
		return lex.readSlot()
	case c == '_':
		return lex.readBlank()
	}
	switch {
	case s.AcceptString("[["):
		return s.EmitToken(token.PART_L)
	case s.AcceptString("<|"):
		return s.EmitToken(token.ASSOC_L)
	case s.AcceptString("|>"):
		return s.EmitToken(token.ASSOC_R)
	}
	switch c {
	case '(':
		return lex.charToken(token.PAREN_L)
	case ')':
		return lex.charToken(token.PAREN_R)
	case '[':
		return lex.charToken(token.BRACKET_L)
	case ']':
		return lex.charToken(token.BRACKET_R)
	case '{':
		return lex.charToken(token.BRACE_L)
	case '}':
		return lex.charToken(token.BRACE_R)
	case ',':
		return lex.charToken(token.COMMA)
	}
	for _, op := range operators {
		if s.AcceptString(op) {
			return s.EmitToken(token.OPERATOR)
		}
	}
	s.ScanRune()
	return lex.errorf("unexpected character %q", s.Rune())
}

func (lex *Lexer) charToken(typ token.Type) *token.Token {
	lex.scanner.ScanRune()
	return lex.scanner.EmitToken(typ)
}

func (lex *Lexer) skipWhitespace() {
	lex.scanner.AcceptSeq(func(c rune) bool {
		if c == '\n' {
			lex.newline = true
		}
		return unicode.IsSpace(c)
	})
	lex.scanner.Ignore()
}

// skipComment skips a possibly nested (* ... *) comment.  It returns an
// error token when the comment is not terminated.
func (lex *Lexer) skipComment() *token.Token {
	s := lex.scanner
	depth := 0
	for !s.EOF() {
		switch {
		case s.AcceptString("(*"):
			depth++
		case s.AcceptString("*)"):
			depth--
			if depth == 0 {
				lex.comments = append(lex.comments, s.EmitToken(token.COMMENT))
				return nil
			}
		default:
			s.ScanRune()
			if s.Rune() == '\n' {
				lex.newline = true
			}
		}
	}
	return lex.errorf("unterminated comment")
}

// readSymbol reads a possibly context-qualified symbol such as `x`,
// `Global`x` or `` `private`y ``.
func (lex *Lexer) readSymbol() *token.Token {
	s := lex.scanner
	for {
		s.AcceptRune('`')
		n := 0
		for {
			if s.HasPrefix(`\[`) {
				if !lex.acceptNamedChar() {
					return lex.errorf("malformed named character")
				}
				n++
				continue
			}
			if n == 0 {
				if !s.Accept(isSymbolStart) {
					break
				}
			} else if !s.Accept(isSymbolPart) {
				break
			}
			n++
		}
		if n == 0 {
			return lex.errorf("invalid symbol %q", s.Text())
		}
		c, ok := s.Peek()
		if !ok || c != '`' {
			break
		}
		// A trailing backtick belongs to the context; the symbol continues.
		next, ok := s.PeekAt(1)
		if !ok || !(isSymbolStart(next) || next == '\\') {
			break
		}
	}
	tok := s.EmitToken(token.SYMBOL)
	tok.Text = norm.NFC.String(tok.Text)
	return tok
}

func (lex *Lexer) acceptNamedChar() bool {
	s := lex.scanner
	s.AcceptString(`\[`)
	if s.AcceptSeq(func(c rune) bool { return unicode.IsLetter(c) || isDigit(c) }) == 0 {
		return false
	}
	return s.AcceptRune(']')
}

// readNumber reads integers and reals, including the `*^` exponent form and
// trailing precision marks like 1.5`20.
func (lex *Lexer) readNumber() *token.Token {
	s := lex.scanner
	typ := token.INT
	s.AcceptSeq(isDigit)
	if s.HasPrefix("^^") {
		s.AcceptString("^^")
		s.AcceptSeq(func(c rune) bool { return isDigit(c) || unicode.IsLetter(c) })
		return s.EmitToken(token.INT)
	}
	c, ok := s.Peek()
	if ok && c == '.' {
		next, _ := s.PeekAt(1)
		if next != '.' {
			s.ScanRune()
			s.AcceptSeq(isDigit)
			typ = token.REAL
		}
	}
	if s.HasPrefix("`") {
		s.AcceptSeq(func(c rune) bool { return c == '`' })
		s.AcceptSeq(func(c rune) bool { return isDigit(c) || c == '.' })
		typ = token.REAL
	}
	if s.HasPrefix("*^") {
		s.AcceptString("*^")
		s.Accept(func(c rune) bool { return c == '-' || c == '+' })
		if s.AcceptSeq(isDigit) == 0 {
			return lex.errorf("malformed exponent in %q", s.Text())
		}
		typ = token.REAL
	}
	return s.EmitToken(typ)
}

func (lex *Lexer) readString() *token.Token {
	s := lex.scanner
	s.ScanRune()
	for {
		if !s.ScanRune() {
			return lex.errorf("unterminated string literal")
		}
		switch s.Rune() {
		case '\\':
			if !s.ScanRune() {
				return lex.errorf("unterminated string literal")
			}
		case '"':
			return s.EmitToken(token.STRING)
		}
	}
}

// readSlot reads #, #n, #name, ## and ##n.
func (lex *Lexer) readSlot() *token.Token {
	s := lex.scanner
	s.ScanRune()
	if s.AcceptRune('#') {
		s.AcceptSeq(isDigit)
		return s.EmitToken(token.SLOT_SEQ)
	}
	if s.AcceptSeq(isDigit) == 0 && s.Accept(isSymbolStart) {
		s.AcceptSeq(isSymbolPart)
	}
	return s.EmitToken(token.SLOT)
}

// readBlank reads _, __, ___ and _. without any attached name or head.
func (lex *Lexer) readBlank() *token.Token {
	s := lex.scanner
	n := s.AcceptSeq(func(c rune) bool { return c == '_' })
	switch n {
	case 1:
		c, ok := s.Peek()
		if ok && c == '.' && !lex.peekDigit(1) {
			s.ScanRune()
			return s.EmitToken(token.BLANK_DEFAULT)
		}
		return s.EmitToken(token.BLANK)
	case 2:
		return s.EmitToken(token.BLANK_SEQ)
	case 3:
		return s.EmitToken(token.BLANK_NULL_SEQ)
	}
	return lex.errorf("too many underscores in %q", s.Text())
}

func (lex *Lexer) peekDigit(n int) bool {
	c, ok := lex.scanner.PeekAt(n)
	return ok && isDigit(c)
}

func (lex *Lexer) errorf(format string, v ...interface{}) *token.Token {
	tok := lex.scanner.EmitToken(token.ERROR)
	tok.Text = fmt.Sprintf(format, v...)
	return tok
}

func isDigit(c rune) bool {
	return '0' <= c && c <= '9'
}

func isSymbolStart(c rune) bool {
	return c == '$' || unicode.IsLetter(c)
}

func isSymbolPart(c rune) bool {
	return isSymbolStart(c) || isDigit(c) || unicode.IsMark(c)
}
