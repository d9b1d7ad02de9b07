// Copyright © 2024 The wlscope authors

// Package rdparser implements a recursive-descent (Pratt) parser for the
// Wolfram Language.  The parser is fault tolerant: syntax errors become
// KindError nodes and parsing continues, so that editors can analyze files
// that are being typed.
package rdparser

import (
	"errors"
	"fmt"

	"github.com/halirutan/wlscope/ast"
	"github.com/halirutan/wlscope/parser/token"
)

// Parser builds ast trees from a TokenSource.
type Parser struct {
	src   *TokenSource
	file  string
	depth int // bracket nesting; newlines end statements only at depth 0
	errs  []error
}

// New returns a parser over src.
func New(file, src string) *Parser {
	return &Parser{
		src:  NewTokenSource(file, src),
		file: file,
	}
}

// Errors returns the syntax errors found so far.
func (p *Parser) Errors() []error {
	return p.errs
}

// ParseFile parses every statement of the input.
func (p *Parser) ParseFile() *ast.Node {
	root := ast.New(ast.KindFile, &token.Location{File: p.file, Line: 1, Col: 1})
	for !p.src.IsEOF() {
		if isTerminator(p.src.Peek()) {
			tok := p.src.Scan()
			p.errorAt(tok.Source, "unexpected %q", tok.Text)
			continue
		}
		root.Append(p.parseExpr(0))
	}
	if p.src.Token != nil {
		end := p.src.Token.Source
		root.Source.EndPos = end.EndPos
		root.Source.EndLine = end.EndLine
		root.Source.EndCol = end.EndCol
	}
	return root
}

// ParseExpression parses a single expression with the newline rule
// disabled, as used for interactive input.
func (p *Parser) ParseExpression() *ast.Node {
	p.depth++
	defer func() { p.depth-- }()
	if p.src.IsEOF() {
		return p.errorNode(p.src.Peek().Source, "expected expression")
	}
	n := p.parseExpr(0)
	if !p.src.IsEOF() {
		tok := p.src.Peek()
		p.errorAt(tok.Source, "unexpected %q after expression", tok.Text)
	}
	return n
}

func (p *Parser) parseExpr(minBP int) *ast.Node {
	left := p.parsePrefix()
	for {
		tok := p.src.Peek()
		if p.depth == 0 && tok.NewlineBefore {
			return left
		}
		bp, ok := infixBP(tok, left)
		if !ok || bp <= minBP {
			return left
		}
		left = p.parseInfix(left, bp)
	}
}

func (p *Parser) parsePrefix() *ast.Node {
	tok := p.src.Peek()
	switch tok.Type {
	case token.SYMBOL:
		p.src.Scan()
		sym := ast.Symbol(tok.Text, tok.Source)
		if next := p.src.Peek(); isBlankToken(next) && tok.Adjacent(next) {
			return p.parseBlank(sym)
		}
		return sym
	case token.BLANK, token.BLANK_SEQ, token.BLANK_NULL_SEQ, token.BLANK_DEFAULT:
		return p.parseBlank(nil)
	case token.INT, token.REAL:
		p.src.Scan()
		return p.literal(ast.KindNumber, tok)
	case token.STRING:
		p.src.Scan()
		return p.literal(ast.KindString, tok)
	case token.SLOT, token.SLOT_SEQ:
		p.src.Scan()
		return p.literal(ast.KindSlot, tok)
	case token.PAREN_L:
		return p.parseGroup()
	case token.BRACE_L:
		p.src.Scan()
		args := p.parseSequence(token.BRACE_R)
		return ast.New(ast.KindList, p.span(tok.Source), args...)
	case token.ASSOC_L:
		p.src.Scan()
		args := p.parseSequence(token.ASSOC_R)
		return ast.New(ast.KindAssociation, p.span(tok.Source), args...)
	case token.OPERATOR:
		return p.parsePrefixOperator()
	case token.ERROR:
		p.src.Scan()
		return p.errorNode(tok.Source, "%s", tok.Text)
	}
	if isTerminator(tok) {
		return p.errorNode(tok.Source, "expected expression before %q", tok.Text)
	}
	p.src.Scan()
	return p.errorNode(tok.Source, "unexpected %v", tok.Type)
}

func (p *Parser) parsePrefixOperator() *ast.Node {
	tok := p.src.Scan()
	unary := func(head string, bp int) *ast.Node {
		operand := p.parseExpr(bp)
		return ast.Operator(head, p.span(tok.Source), operand)
	}
	switch tok.Text {
	case "-":
		return p.negate(tok, p.parseExpr(bpMinus), tok.Source)
	case "+":
		return p.parseExpr(bpMinus)
	case "!":
		return unary("Not", bpNot)
	case "++":
		return unary("PreIncrement", bpIncrement)
	case "--":
		return unary("PreDecrement", bpIncrement)
	}
	return p.errorNode(tok.Source, "unexpected operator %q", tok.Text)
}

// negate builds -operand.  Numeric literals absorb the sign; anything else
// becomes Times[-1, operand].
func (p *Parser) negate(minus *token.Token, operand *ast.Node, start *token.Location) *ast.Node {
	if operand.Kind == ast.KindNumber && operand.Text != "" && operand.Text[0] != '-' {
		operand.Text = "-" + operand.Text
		operand.Source = p.span(start)
		return operand
	}
	minusOne := &ast.Node{Kind: ast.KindNumber, Text: "-1", Source: minus.Source}
	return ast.Operator("Times", p.span(start), minusOne, operand)
}

func (p *Parser) parseInfix(left *ast.Node, bp int) *ast.Node {
	tok := p.src.Peek()
	start := left.Source
	switch tok.Type {
	case token.BRACKET_L:
		p.src.Scan()
		args := p.parseSequence(token.BRACKET_R)
		return ast.New(ast.KindCall, p.span(start), append([]*ast.Node{left}, args...)...)
	case token.PART_L:
		p.src.Scan()
		args := p.parseSequence(token.BRACKET_R)
		if !p.src.AcceptType(token.BRACKET_R) {
			p.errorAt(p.src.Peek().Source, "expected ]] to close part specification")
		}
		return ast.Operator("Part", p.span(start), append([]*ast.Node{left}, args...)...)
	case token.OPERATOR:
	default:
		right := p.parseExpr(bpTimes)
		return p.flatten("Times", left, right, start)
	}

	p.src.Scan()
	if op, ok := structuralOps[tok.Text]; ok {
		rbp := op.bp
		if op.right {
			rbp--
		}
		right := p.parseExpr(rbp)
		return ast.New(op.kind, p.span(start), left, right)
	}
	if op, ok := binaryOps[tok.Text]; ok {
		rbp := op.bp
		if op.right {
			rbp--
		}
		right := p.parseExpr(rbp)
		if op.flatten {
			return p.flatten(op.head, left, right, start)
		}
		return ast.Operator(op.head, p.span(start), left, right)
	}
	if op, ok := postfixOps[tok.Text]; ok {
		return ast.Operator(op.head, p.span(start), left)
	}

	switch tok.Text {
	case "-":
		neg := p.negate(tok, p.parseExpr(bpPlus), tok.Source)
		return p.flatten("Plus", left, neg, start)
	case ";":
		var right *ast.Node
		if p.operandEnds() {
			right = ast.Symbol("Null", tok.Source)
		} else {
			right = p.parseExpr(bpCompound)
		}
		if left.Kind == ast.KindCompoundExpression {
			left.Append(right)
			left.Source = p.span(start)
			return left
		}
		return ast.New(ast.KindCompoundExpression, p.span(start), left, right)
	case "&":
		return ast.New(ast.KindFunction, p.span(start), left)
	case "//":
		fn := p.parseExpr(bpPostfix)
		return ast.New(ast.KindCall, p.span(start), fn, left)
	case "@":
		arg := p.parseExpr(bpPrefix - 1)
		return ast.New(ast.KindCall, p.span(start), left, arg)
	case "~":
		fn := p.parseExpr(bpCall)
		if !p.src.AcceptOperator("~") {
			p.errorAt(p.src.Peek().Source, "expected ~ to close infix application")
		}
		right := p.parseExpr(bpInfix)
		return ast.New(ast.KindCall, p.span(start), fn, left, right)
	case "::":
		tag := p.src.Peek()
		if tag.Type != token.SYMBOL && tag.Type != token.STRING {
			return ast.Operator("MessageName", p.span(start), left, p.errorNode(tag.Source, "expected message tag"))
		}
		p.src.Scan()
		msg := &ast.Node{Kind: ast.KindString, Text: `"` + tag.Text + `"`, Source: tag.Source}
		if tag.Type == token.STRING {
			msg.Text = tag.Text
		}
		return ast.Operator("MessageName", p.span(start), left, msg)
	case "=.":
		return ast.New(ast.KindUnset, p.span(start), left)
	case "/:":
		return p.parseTagSet(left, start)
	case ":":
		if left.IsSymbol() {
			right := p.parseExpr(bpPattern)
			return ast.New(ast.KindPattern, p.span(start), left, right)
		}
		right := p.parseExpr(bpOptional)
		return ast.New(ast.KindOptional, p.span(start), left, right)
	}
	return p.errorNode(tok.Source, "unexpected operator %q", tok.Text)
}

// parseTagSet parses the remainder of tag /: lhs = rhs and its := and =.
// variants.
func (p *Parser) parseTagSet(tag *ast.Node, start *token.Location) *ast.Node {
	lhs := p.parseExpr(bpSet)
	op := p.src.Peek()
	if op.Type == token.OPERATOR {
		switch op.Text {
		case "=", ":=":
			p.src.Scan()
			rhs := p.parseExpr(bpSet - 1)
			kind := ast.KindTagSet
			if op.Text == ":=" {
				kind = ast.KindTagSetDelayed
			}
			return ast.New(kind, p.span(start), tag, lhs, rhs)
		case "=.":
			p.src.Scan()
			return ast.Operator("TagUnset", p.span(start), tag, lhs)
		}
	}
	p.errorAt(op.Source, "expected = or := after /:")
	return ast.New(ast.KindTagSet, p.span(start), tag, lhs, p.errorNode(op.Source, "missing right-hand side"))
}

// parseBlank parses a blank token with an optional pattern name and an
// optional adjacent head symbol.
func (p *Parser) parseBlank(name *ast.Node) *ast.Node {
	tok := p.src.Scan()
	start := tok.Source
	if name != nil {
		start = name.Source
	}
	var kind ast.Kind
	switch tok.Type {
	case token.BLANK_SEQ:
		kind = ast.KindBlankSequence
	case token.BLANK_NULL_SEQ:
		kind = ast.KindBlankNullSequence
	default:
		kind = ast.KindBlank
	}
	blank := ast.New(kind, nil)
	if name != nil {
		blank.Named = true
		blank.Append(name)
	}
	if tok.Type != token.BLANK_DEFAULT {
		if next := p.src.Peek(); next.Type == token.SYMBOL && tok.Adjacent(next) {
			p.src.Scan()
			blank.Append(ast.Symbol(next.Text, next.Source))
		}
	}
	blank.Source = p.span(start)
	if tok.Type == token.BLANK_DEFAULT {
		return ast.New(ast.KindOptional, p.span(start), blank)
	}
	return blank
}

func (p *Parser) parseGroup() *ast.Node {
	open := p.src.Scan()
	p.depth++
	var inner *ast.Node
	if p.src.Peek().Type == token.PAREN_R {
		inner = p.errorNode(p.src.Peek().Source, "empty parentheses")
	} else {
		inner = p.parseExpr(0)
	}
	p.depth--
	if !p.src.AcceptType(token.PAREN_R) {
		p.errorAt(p.src.Peek().Source, "expected ) to close %s", open.Source)
	}
	return ast.New(ast.KindGroup, p.span(open.Source), inner)
}

// parseSequence parses comma separated elements up to and including
// closer.  Empty elements become the symbol Null.
func (p *Parser) parseSequence(closer token.Type) []*ast.Node {
	p.depth++
	defer func() { p.depth-- }()
	var elems []*ast.Node
	if p.src.AcceptType(closer) {
		return elems
	}
	for {
		next := p.src.Peek()
		if next.Type == token.COMMA || next.Type == closer {
			elems = append(elems, ast.Symbol("Null", next.Source))
		} else {
			elems = append(elems, p.parseExpr(0))
		}
		for {
			tok := p.src.Peek()
			switch tok.Type {
			case token.COMMA:
				p.src.Scan()
			case closer:
				p.src.Scan()
				return elems
			case token.EOF:
				p.errorAt(tok.Source, "expected %v before end of input", closer)
				return elems
			default:
				p.src.Scan()
				p.errorAt(tok.Source, "unexpected %q, expected %v", tok.Text, closer)
				continue
			}
			break
		}
	}
}

func (p *Parser) flatten(head string, left, right *ast.Node, start *token.Location) *ast.Node {
	if left.Kind == ast.KindOperator && left.Name == head {
		left.Append(right)
		left.Source = p.span(start)
		return left
	}
	return ast.Operator(head, p.span(start), left, right)
}

func (p *Parser) literal(kind ast.Kind, tok *token.Token) *ast.Node {
	return &ast.Node{Kind: kind, Text: tok.Text, Source: tok.Source}
}

// operandEnds reports whether the next token cannot start the optional
// operand of a trailing operator such as ;.
func (p *Parser) operandEnds() bool {
	tok := p.src.Peek()
	if isTerminator(tok) || tok.Type == token.EOF {
		return true
	}
	if tok.Type == token.OPERATOR && tok.Text == ";" {
		return true
	}
	return p.depth == 0 && tok.NewlineBefore
}

// span returns a location from start to the end of the last scanned token.
func (p *Parser) span(start *token.Location) *token.Location {
	if start == nil {
		start = p.src.Peek().Source
	}
	loc := *start
	if last := p.src.Token; last != nil && last.Source != nil && last.Source.EndPos >= loc.Pos {
		loc.EndPos = last.Source.EndPos
		loc.EndLine = last.Source.EndLine
		loc.EndCol = last.Source.EndCol
	}
	return &loc
}

func (p *Parser) errorNode(loc *token.Location, format string, v ...interface{}) *ast.Node {
	msg := fmt.Sprintf(format, v...)
	p.errs = append(p.errs, &token.LocationError{Err: errors.New(msg), Source: loc})
	return &ast.Node{Kind: ast.KindError, Text: msg, Source: loc}
}

func (p *Parser) errorAt(loc *token.Location, format string, v ...interface{}) {
	p.errs = append(p.errs, &token.LocationError{Err: fmt.Errorf(format, v...), Source: loc})
}

func isTerminator(tok *token.Token) bool {
	switch tok.Type {
	case token.COMMA, token.BRACKET_R, token.BRACE_R, token.PAREN_R, token.ASSOC_R:
		return true
	}
	return false
}

func isBlankToken(tok *token.Token) bool {
	switch tok.Type {
	case token.BLANK, token.BLANK_SEQ, token.BLANK_NULL_SEQ, token.BLANK_DEFAULT:
		return true
	}
	return false
}
