// Copyright © 2024 The wlscope authors

// Package parser builds expression trees from Wolfram Language source.
package parser

import (
	"errors"
	"os"
	"strings"

	"github.com/halirutan/wlscope/ast"
	"github.com/halirutan/wlscope/parser/lexer"
	"github.com/halirutan/wlscope/parser/rdparser"
	"github.com/halirutan/wlscope/parser/token"
)

// ParseFile parses src as the file name.  The returned file always has a
// root node; syntax errors are collected in File.Errors.
func ParseFile(name, src string) *ast.File {
	p := rdparser.New(name, src)
	root := p.ParseFile()
	return &ast.File{
		Name:   name,
		Source: src,
		Root:   root,
		Errors: p.Errors(),
	}
}

// ReadFile reads and parses the file at path.
func ReadFile(path string) (*ast.File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseFile(path, string(b)), nil
}

// ParseExpression parses a single expression.  Newlines inside the
// expression do not end it.
func ParseExpression(src string) (*ast.Node, error) {
	p := rdparser.New("<input>", src)
	n := p.ParseExpression()
	return n, errors.Join(p.Errors()...)
}

// Incomplete reports whether src looks like the beginning of a longer
// input: an open bracket, string or comment, or a trailing infix operator.
func Incomplete(src string) bool {
	toks := lexer.Tokenize("<input>", src)
	depth := 0
	var last *token.Token
	for _, tok := range toks {
		switch tok.Type {
		case token.BRACKET_L, token.BRACE_L, token.PAREN_L, token.ASSOC_L:
			depth++
		case token.PART_L:
			depth += 2
		case token.BRACKET_R, token.BRACE_R, token.PAREN_R, token.ASSOC_R:
			depth--
		case token.ERROR:
			if strings.HasPrefix(tok.Text, "unterminated") {
				return true
			}
		case token.EOF:
			continue
		}
		last = tok
	}
	if depth > 0 {
		return true
	}
	if last == nil || last.Type != token.OPERATOR {
		return false
	}
	switch last.Text {
	case "&", ";", "!", "'", "++", "--", "..", "...", "=.":
		return false
	}
	return true
}
