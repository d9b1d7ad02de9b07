// Copyright © 2024 The wlscope authors

package rdparser

import (
	"github.com/halirutan/wlscope/parser/lexer"
	"github.com/halirutan/wlscope/parser/token"
)

// TokenSource adds lookahead to a fully lexed token sequence.  The sequence
// always ends with an EOF token which is returned indefinitely.
type TokenSource struct {
	toks  []*token.Token
	pos   int
	Token *token.Token // the last scanned token
}

// NewTokenSource lexes src and returns a TokenSource over its tokens.
func NewTokenSource(file, src string) *TokenSource {
	return &TokenSource{toks: lexer.Tokenize(file, src)}
}

// Peek returns the next token without scanning it.
func (s *TokenSource) Peek() *token.Token {
	return s.PeekAt(0)
}

// PeekAt returns the token n positions after the next token.
func (s *TokenSource) PeekAt(n int) *token.Token {
	i := s.pos + n
	if i >= len(s.toks) {
		return s.toks[len(s.toks)-1]
	}
	return s.toks[i]
}

// Scan advances the stream and returns the scanned token.
func (s *TokenSource) Scan() *token.Token {
	s.Token = s.Peek()
	if s.pos < len(s.toks)-1 {
		s.pos++
	}
	return s.Token
}

// IsEOF reports whether the stream is exhausted.
func (s *TokenSource) IsEOF() bool {
	return s.Peek().Type == token.EOF
}

// AcceptType scans the next token if it has one of the given types.
func (s *TokenSource) AcceptType(typ ...token.Type) bool {
	next := s.Peek().Type
	for _, t := range typ {
		if next == t {
			s.Scan()
			return true
		}
	}
	return false
}

// AcceptOperator scans the next token if it is the operator op.
func (s *TokenSource) AcceptOperator(op string) bool {
	next := s.Peek()
	if next.Type == token.OPERATOR && next.Text == op {
		s.Scan()
		return true
	}
	return false
}
