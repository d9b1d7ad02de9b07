// Copyright © 2024 The wlscope authors

package ast

import "strings"

// String returns the FullForm of n.
func (n *Node) String() string {
	var sb strings.Builder
	writeFullForm(&sb, n)
	return sb.String()
}

// FullFormHead returns the head n has in FullForm, e.g. "SetDelayed" for
// KindSetDelayed or "Plus" for an addition.
func (n *Node) FullFormHead() string {
	switch n.Kind {
	case KindCall:
		return n.Head().String()
	case KindOperator:
		return n.Name
	case KindGroup:
		if c := n.FirstChild(); c != nil {
			return c.FullFormHead()
		}
		return ""
	case KindSymbol, KindNumber, KindString, KindSlot, KindError, KindFile:
		return ""
	}
	return n.Kind.String()
}

func writeFullForm(sb *strings.Builder, n *Node) {
	if n == nil {
		sb.WriteString("Null")
		return
	}
	switch n.Kind {
	case KindSymbol:
		sb.WriteString(n.FullName())
	case KindNumber, KindString:
		sb.WriteString(n.Text)
	case KindSlot:
		writeSlot(sb, n.Text)
	case KindError:
		sb.WriteString("$Failed")
	case KindGroup:
		writeFullForm(sb, n.FirstChild())
	case KindCall:
		writeFullForm(sb, n.Head())
		writeArgs(sb, n.Args())
	case KindFile:
		for i, c := range n.Children {
			if i > 0 {
				sb.WriteString("\n")
			}
			writeFullForm(sb, c)
		}
	case KindBlank, KindBlankSequence, KindBlankNullSequence:
		blank := func() {
			sb.WriteString(n.Kind.String())
			sb.WriteString("[")
			if h := n.BlankHead(); h != nil {
				writeFullForm(sb, h)
			}
			sb.WriteString("]")
		}
		if name := n.PatternName(); name != nil {
			sb.WriteString("Pattern[")
			writeFullForm(sb, name)
			sb.WriteString(", ")
			blank()
			sb.WriteString("]")
			return
		}
		blank()
	default:
		sb.WriteString(n.FullFormHead())
		writeArgs(sb, n.Children)
	}
}

func writeArgs(sb *strings.Builder, args []*Node) {
	sb.WriteString("[")
	for i, a := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		writeFullForm(sb, a)
	}
	sb.WriteString("]")
}

func writeSlot(sb *strings.Builder, text string) {
	switch {
	case strings.HasPrefix(text, "##"):
		sb.WriteString("SlotSequence[")
		if n := text[2:]; n != "" {
			sb.WriteString(n)
		} else {
			sb.WriteString("1")
		}
	default:
		sb.WriteString("Slot[")
		switch n := text[1:]; {
		case n == "":
			sb.WriteString("1")
		case n[0] >= '0' && n[0] <= '9':
			sb.WriteString(n)
		default:
			sb.WriteString(`"` + n + `"`)
		}
	}
	sb.WriteString("]")
}
