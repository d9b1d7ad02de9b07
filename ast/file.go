// Copyright © 2024 The wlscope authors

package ast

// File is the parsed form of one source file.  Root has KindFile and holds
// the top-level statements as children.
type File struct {
	Name   string
	Source string
	Root   *Node
	Errors []error
}

// Statements returns the top-level statements of f.
func (f *File) Statements() []*Node {
	if f == nil || f.Root == nil {
		return nil
	}
	return f.Root.Children
}
