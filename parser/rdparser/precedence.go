// Copyright © 2024 The wlscope authors

package rdparser

import (
	"github.com/halirutan/wlscope/ast"
	"github.com/halirutan/wlscope/parser/token"
)

// Binding powers follow the Wolfram Language operator precedence table.
// Larger values bind tighter.
const (
	bpCompound     = 10
	bpPut          = 30
	bpSet          = 40
	bpPostfix      = 70
	bpFunction     = 90
	bpAddTo        = 100
	bpReplace      = 110
	bpRule         = 120
	bpCondition    = 130
	bpStringExpr   = 135
	bpOptional     = 140
	bpPattern      = 150
	bpAlternatives = 160
	bpRepeated     = 170
	bpOr           = 214
	bpAnd          = 215
	bpNot          = 230
	bpEqual        = 290
	bpSpan         = 305
	bpPlus         = 310
	bpTimes        = 400
	bpDivide       = 470
	bpMinus        = 480
	bpDot          = 490
	bpPower        = 590
	bpStringJoin   = 600
	bpFactorial    = 610
	bpMap          = 620
	bpInfix        = 630
	bpPrefix       = 640
	bpIncrement    = 660
	bpDerivative   = 670
	bpPatternTest  = 680
	bpCall         = 750
)

// binaryOp describes an infix operator that builds a KindOperator node.
type binaryOp struct {
	bp      int
	head    string
	right   bool
	flatten bool
}

var binaryOps = map[string]binaryOp{
	"+":   {bp: bpPlus, head: "Plus", flatten: true},
	"*":   {bp: bpTimes, head: "Times", flatten: true},
	"/":   {bp: bpDivide, head: "Divide"},
	"^":   {bp: bpPower, head: "Power", right: true},
	".":   {bp: bpDot, head: "Dot", flatten: true},
	"==":  {bp: bpEqual, head: "Equal", flatten: true},
	"!=":  {bp: bpEqual, head: "Unequal", flatten: true},
	"===": {bp: bpEqual, head: "SameQ", flatten: true},
	"=!=": {bp: bpEqual, head: "UnsameQ", flatten: true},
	"<":   {bp: bpEqual, head: "Less", flatten: true},
	">":   {bp: bpEqual, head: "Greater", flatten: true},
	"<=":  {bp: bpEqual, head: "LessEqual", flatten: true},
	">=":  {bp: bpEqual, head: "GreaterEqual", flatten: true},
	"&&":  {bp: bpAnd, head: "And", flatten: true},
	"||":  {bp: bpOr, head: "Or", flatten: true},
	"<>":  {bp: bpStringJoin, head: "StringJoin", flatten: true},
	"~~":  {bp: bpStringExpr, head: "StringExpression", flatten: true},
	"|":   {bp: bpAlternatives, head: "Alternatives", flatten: true},
	"/@":  {bp: bpMap, head: "Map", right: true},
	"@@":  {bp: bpMap, head: "Apply", right: true},
	"@@@": {bp: bpMap, head: "MapApply", right: true},
	"/.":  {bp: bpReplace, head: "ReplaceAll"},
	"//.": {bp: bpReplace, head: "ReplaceRepeated"},
	"+=":  {bp: bpAddTo, head: "AddTo", right: true},
	"-=":  {bp: bpAddTo, head: "SubtractFrom", right: true},
	"*=":  {bp: bpAddTo, head: "TimesBy", right: true},
	"/=":  {bp: bpAddTo, head: "DivideBy", right: true},
	";;":  {bp: bpSpan, head: "Span"},
	">>":  {bp: bpPut, head: "Put"},
}

// structuralOps are infix operators with a dedicated node kind.
var structuralOps = map[string]struct {
	bp    int
	kind  ast.Kind
	right bool
}{
	"=":   {bpSet, ast.KindSet, true},
	":=":  {bpSet, ast.KindSetDelayed, true},
	"^=":  {bpSet, ast.KindUpSet, true},
	"^:=": {bpSet, ast.KindUpSetDelayed, true},
	"->":  {bpRule, ast.KindRule, true},
	":>":  {bpRule, ast.KindRuleDelayed, true},
	"/;":  {bpCondition, ast.KindCondition, false},
	"?":   {bpPatternTest, ast.KindPatternTest, false},
}

// postfixOps build a single-argument operator node.
var postfixOps = map[string]struct {
	bp   int
	head string
}{
	"!":   {bpFactorial, "Factorial"},
	"'":   {bpDerivative, "Derivative"},
	"++":  {bpIncrement, "Increment"},
	"--":  {bpIncrement, "Decrement"},
	"..":  {bpRepeated, "Repeated"},
	"...": {bpRepeated, "RepeatedNull"},
}

// infixBP returns the left binding power of tok when it follows left.
func infixBP(tok *token.Token, left *ast.Node) (int, bool) {
	switch tok.Type {
	case token.BRACKET_L, token.PART_L:
		return bpCall, true
	case token.SYMBOL, token.INT, token.REAL, token.STRING, token.SLOT, token.SLOT_SEQ,
		token.BLANK, token.BLANK_SEQ, token.BLANK_NULL_SEQ, token.BLANK_DEFAULT,
		token.PAREN_L, token.BRACE_L, token.ASSOC_L:
		// implicit multiplication
		return bpTimes, true
	case token.OPERATOR:
	default:
		return 0, false
	}
	if op, ok := binaryOps[tok.Text]; ok {
		return op.bp, true
	}
	if op, ok := structuralOps[tok.Text]; ok {
		return op.bp, true
	}
	if op, ok := postfixOps[tok.Text]; ok {
		return op.bp, true
	}
	switch tok.Text {
	case "-":
		return bpPlus, true
	case ";":
		return bpCompound, true
	case "&":
		return bpFunction, true
	case "//":
		return bpPostfix, true
	case "@":
		return bpPrefix, true
	case "~":
		return bpInfix, true
	case "::":
		return bpCall, true
	case "/:", "=.":
		return bpSet, true
	case ":":
		switch {
		case left.IsSymbol():
			return bpPattern, true
		case isPatternLike(left):
			return bpOptional, true
		}
	}
	return 0, false
}

// isPatternLike reports whether n can carry an Optional default via x_:d.
func isPatternLike(n *ast.Node) bool {
	return n.Kind.IsBlank() || n.Kind == ast.KindPattern
}
