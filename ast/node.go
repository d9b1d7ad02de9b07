// Copyright © 2024 The wlscope authors

// Package ast defines the expression tree shared by the parser and every
// analysis pass.  A tree is a closed tagged variant: each Node carries a
// Kind discriminator and the payload fields that kind uses.  Trees are
// immutable once the parser returns them.
package ast

import (
	"strings"

	"github.com/halirutan/wlscope/parser/token"
)

// Kind discriminates the node variants.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindFile
	KindSymbol
	KindNumber
	KindString
	KindSlot
	KindCall
	KindList
	KindAssociation
	KindBlank
	KindBlankSequence
	KindBlankNullSequence
	KindPattern
	KindOptional
	KindCondition
	KindPatternTest
	KindSet
	KindSetDelayed
	KindUpSet
	KindUpSetDelayed
	KindTagSet
	KindTagSetDelayed
	KindUnset
	KindRule
	KindRuleDelayed
	KindFunction
	KindOperator
	KindCompoundExpression
	KindGroup
	KindError

	numKinds
)

var kindNames = [numKinds]string{
	KindInvalid:            "Invalid",
	KindFile:               "File",
	KindSymbol:             "Symbol",
	KindNumber:             "Number",
	KindString:             "String",
	KindSlot:               "Slot",
	KindCall:               "Call",
	KindList:               "List",
	KindAssociation:        "Association",
	KindBlank:              "Blank",
	KindBlankSequence:      "BlankSequence",
	KindBlankNullSequence:  "BlankNullSequence",
	KindPattern:            "Pattern",
	KindOptional:           "Optional",
	KindCondition:          "Condition",
	KindPatternTest:        "PatternTest",
	KindSet:                "Set",
	KindSetDelayed:         "SetDelayed",
	KindUpSet:              "UpSet",
	KindUpSetDelayed:       "UpSetDelayed",
	KindTagSet:             "TagSet",
	KindTagSetDelayed:      "TagSetDelayed",
	KindUnset:              "Unset",
	KindRule:               "Rule",
	KindRuleDelayed:        "RuleDelayed",
	KindFunction:           "Function",
	KindOperator:           "Operator",
	KindCompoundExpression: "CompoundExpression",
	KindGroup:              "Group",
	KindError:              "Error",
}

func (k Kind) String() string {
	if k >= numKinds {
		return kindNames[KindInvalid]
	}
	return kindNames[k]
}

// IsBlank reports whether k is one of the three blank kinds.
func (k Kind) IsBlank() bool {
	return k == KindBlank || k == KindBlankSequence || k == KindBlankNullSequence
}

// IsAssignment reports whether k is one of the assignment kinds.
func (k Kind) IsAssignment() bool {
	switch k {
	case KindSet, KindSetDelayed, KindUpSet, KindUpSetDelayed, KindTagSet, KindTagSetDelayed:
		return true
	}
	return false
}

// Node is one syntactic construct.
//
// Children are ordered.  For KindCall, Children[0] is the head and the rest
// are the arguments.  For KindTagSet and KindTagSetDelayed the children are
// tag, lhs and rhs.  A blank whose Named field is set stores the pattern
// name symbol as Children[0] and an optional head symbol after it.
type Node struct {
	Kind Kind
	// Name is the unqualified symbol name for KindSymbol and the head name
	// for KindOperator (Plus, Times, Map, ...).
	Name string
	// Context is the explicit context of a symbol including its trailing
	// backtick, or "" when the occurrence is unqualified.
	Context string
	// Text is the source text of literals and slots, and the message of
	// error nodes.
	Text     string
	Named    bool
	Children []*Node
	Parent   *Node
	Source   *token.Location
}

// New returns a node of the given kind and adopts children.
func New(kind Kind, loc *token.Location, children ...*Node) *Node {
	n := &Node{Kind: kind, Source: loc}
	n.Append(children...)
	return n
}

// Symbol returns a symbol node, splitting off any context prefix in text.
func Symbol(text string, loc *token.Location) *Node {
	n := &Node{Kind: KindSymbol, Source: loc}
	n.Context, n.Name = SplitContext(text)
	return n
}

// Operator returns a KindOperator node with the given head name.
func Operator(name string, loc *token.Location, children ...*Node) *Node {
	n := New(KindOperator, loc, children...)
	n.Name = name
	return n
}

// Append adds children to n and sets their parent pointer.  It is meant for
// tree builders only.
func (n *Node) Append(children ...*Node) {
	for _, c := range children {
		if c == nil {
			continue
		}
		c.Parent = n
		n.Children = append(n.Children, c)
	}
}

// SplitContext splits a possibly qualified symbol into its context (with
// trailing backtick) and its unqualified name.
func SplitContext(text string) (context, name string) {
	i := strings.LastIndexByte(text, '`')
	if i < 0 {
		return "", text
	}
	return text[:i+1], text[i+1:]
}

// FullName returns the symbol name including its explicit context.
func (n *Node) FullName() string {
	return n.Context + n.Name
}

// IsSymbol reports whether n is a symbol node.
func (n *Node) IsSymbol() bool {
	return n != nil && n.Kind == KindSymbol
}

// IsSymbolNamed reports whether n is a symbol spelled name, either
// unqualified or qualified with the System` context.
func (n *Node) IsSymbolNamed(name string) bool {
	if !n.IsSymbol() || n.Name != name {
		return false
	}
	return n.Context == "" || n.Context == "System`"
}

// IsList reports whether n is a {...} list.
func (n *Node) IsList() bool {
	return n != nil && n.Kind == KindList
}

// Head returns the head of a call, or nil for any other node.
func (n *Node) Head() *Node {
	if n == nil || n.Kind != KindCall || len(n.Children) == 0 {
		return nil
	}
	return n.Children[0]
}

// HeadName returns the unqualified name of a call's symbol head, or "".
func (n *Node) HeadName() string {
	h := n.Head()
	if !h.IsSymbol() {
		return ""
	}
	return h.Name
}

// Args returns the arguments of a call, or the elements of a list or
// association.  Other nodes return their children.
func (n *Node) Args() []*Node {
	if n == nil {
		return nil
	}
	if n.Kind == KindCall {
		if len(n.Children) == 0 {
			return nil
		}
		return n.Children[1:]
	}
	return n.Children
}

// Arg returns the i-th (0-based) argument of n or nil when out of range.
func (n *Node) Arg(i int) *Node {
	args := n.Args()
	if i < 0 || i >= len(args) {
		return nil
	}
	return args[i]
}

// FirstChild returns Children[0] or nil.
func (n *Node) FirstChild() *Node {
	if n == nil || len(n.Children) == 0 {
		return nil
	}
	return n.Children[0]
}

// PatternName returns the symbol naming a blank (x in x_h) or a pattern
// (x in x:p), or nil.
func (n *Node) PatternName() *Node {
	if n == nil {
		return nil
	}
	switch {
	case n.Kind.IsBlank() && n.Named:
		return n.FirstChild()
	case n.Kind == KindPattern:
		if c := n.FirstChild(); c.IsSymbol() {
			return c
		}
	}
	return nil
}

// BlankHead returns the head constraint of a blank (h in x_h), or nil.
func (n *Node) BlankHead() *Node {
	if n == nil || !n.Kind.IsBlank() {
		return nil
	}
	i := 0
	if n.Named {
		i = 1
	}
	if i < len(n.Children) {
		return n.Children[i]
	}
	return nil
}

// Root returns the topmost ancestor of n.
func (n *Node) Root() *Node {
	for n != nil && n.Parent != nil {
		n = n.Parent
	}
	return n
}

// IsAncestorOf reports whether n is a proper ancestor of other.
func (n *Node) IsAncestorOf(other *Node) bool {
	for p := other.Parent; p != nil; p = p.Parent {
		if p == n {
			return true
		}
	}
	return false
}

// Contains reports whether other is n or a descendant of n.
func (n *Node) Contains(other *Node) bool {
	return n == other || n.IsAncestorOf(other)
}

// ChildIndex returns the index of child in n.Children or -1.
func (n *Node) ChildIndex(child *Node) int {
	for i, c := range n.Children {
		if c == child {
			return i
		}
	}
	return -1
}

// ChildContaining returns the direct child of n that contains descendant,
// or nil.
func (n *Node) ChildContaining(descendant *Node) *Node {
	for c := descendant; c != nil; c = c.Parent {
		if c.Parent == n {
			return c
		}
	}
	return nil
}
