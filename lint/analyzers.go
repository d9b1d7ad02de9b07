// Copyright © 2024 The wlscope authors

package lint

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/halirutan/wlscope/analysis"
	"github.com/halirutan/wlscope/ast"
	"github.com/halirutan/wlscope/astutil"
	"github.com/halirutan/wlscope/catalog"
)

// nestedWithVersion is the version that introduced With with more than one
// declaration list.
const nestedWithVersion = 10.3

// AnalyzerUnsupportedVersion reports builtins that are newer than the
// configured language level.
var AnalyzerUnsupportedVersion = &Analyzer{
	Name:     "unsupported-version",
	Severity: SeverityWarning,
	Doc:      "Report builtins introduced after the project's language level.\n\nThe check uses the version table of the symbol catalog. Symbols whose name starts with a lowercase letter are never builtins and are skipped. Association literals <|...|> count as uses of Association, and With with several declaration lists requires 10.3. The check is disabled when no language level is set or the catalog could not be loaded.",
	Run: func(pass *Pass) error {
		cat := pass.Resolver.Catalog()
		if pass.LanguageLevel <= 0 || cat.Degraded() {
			return nil
		}
		check := func(n *ast.Node, name string, required float64) {
			if required > pass.LanguageLevel {
				pass.ReportWithNotes(Diagnostic{
					Pos:     positionOf(astutil.SourceOf(n).Source),
					Message: fmt.Sprintf("%s requires version %.1f but the language level is %.1f", name, required, pass.LanguageLevel),
				}, "raise language_level in wlproject.toml or avoid "+name)
			}
		}
		for _, ref := range pass.Semantics.References {
			b := ref.Binding
			if b.Kind != analysis.BindingBuiltin || startsLower(b.Name) {
				continue
			}
			if v, fact := cat.Version(b.FullName()); fact == catalog.FactTrue {
				check(ref.Node, b.Name, v)
			}
		}
		astutil.Walk(pass.Statements(), func(n *ast.Node, _ *ast.Node, _ int) {
			switch {
			case n.Kind == ast.KindAssociation:
				if v, fact := cat.Version("Association"); fact == catalog.FactTrue {
					check(n, "<|...|>", v)
				}
			case n.Kind == ast.KindCall && HeadFullName(n) == "System`With" && len(n.Args()) > 2:
				check(n, "With with several declaration lists", nestedWithVersion)
			}
		})
		return nil
	},
}

func startsLower(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsLower(r)
}

// AnalyzerUnusedLocal reports Module and With locals that are never used.
var AnalyzerUnusedLocal = &Analyzer{
	Name:     "unused-local",
	Severity: SeverityWarning,
	Doc:      "Report Module and With local variables that are never referenced.\n\nBlock is not checked because it localizes values for everything it calls, so a Block variable without a visible use is common and intended.",
	Run: func(pass *Pass) error {
		ScopingCalls(pass, func(call *ast.Node, kind analysis.ScopeKind) {
			if kind != analysis.ScopeModule {
				return
			}
			head := HeadFullName(call)
			if head != "System`Module" && head != "System`With" {
				return
			}
			used := make(map[*ast.Node]bool)
			for _, ref := range pass.Semantics.References {
				b := ref.Binding
				if b.Kind == analysis.BindingLocal && b.Scope == call && !inDeclarations(call, ref.Node) {
					used[b.Node] = true
				}
			}
			for _, b := range pass.Resolver.CollectBindings(call) {
				if !used[b.Node] {
					pass.Reportf(b.Node.Source, "local variable %s is declared but not used in %s", b.Name, call.HeadName())
				}
			}
		})
		return nil
	},
}

// AnalyzerDuplicateLocal reports names declared twice in one declaration
// list.
var AnalyzerDuplicateLocal = &Analyzer{
	Name:     "duplicate-local",
	Severity: SeverityWarning,
	Doc:      "Report names declared more than once in the same local variable list.\n\nOnly the last declaration takes effect, so earlier ones are dead.",
	Run: func(pass *Pass) error {
		ScopingCalls(pass, func(call *ast.Node, kind analysis.ScopeKind) {
			switch kind {
			case analysis.ScopeModule, analysis.ScopeFunction, analysis.ScopeCompile:
			default:
				return
			}
			decls := analysis.LocalVariables(kind, call)
			for i, d := range decls {
				for _, prev := range decls[:i] {
					if sameName(prev, d) {
						pass.ReportWithNotes(Diagnostic{
							Pos:     positionOf(d.Source),
							Message: fmt.Sprintf("%s is declared more than once in %s", d.FullName(), call.HeadName()),
						}, fmt.Sprintf("first declared at line %d", prev.Source.Line))
						break
					}
				}
			}
		})
		return nil
	},
}

// AnalyzerShadowedLocal reports locals that hide a binding of an enclosing
// scope.
var AnalyzerShadowedLocal = &Analyzer{
	Name:     "shadowed-local",
	Severity: SeverityInfo,
	Doc:      "Report local variables that shadow a local or pattern variable of an enclosing scope.\n\nFile-level definitions and builtins are not considered.",
	Run: func(pass *Pass) error {
		ScopingCalls(pass, func(call *ast.Node, _ analysis.ScopeKind) {
			bindings := pass.Resolver.CollectBindings(call)
			if len(bindings) == 0 {
				return
			}
			var outer []*analysis.Binding
			for _, b := range pass.Resolver.Visible(pass.File, call) {
				if b.Kind == analysis.BindingLocal || b.Kind == analysis.BindingPattern {
					outer = append(outer, b)
				}
			}
			for _, b := range bindings {
				for _, o := range outer {
					if !sameName(o.Node, b.Node) {
						continue
					}
					pass.Reportf(b.Node.Source, "%s shadows %s (%s) declared at line %d",
						b.Name, o.Name, o.Description(), o.Node.Source.Line)
					break
				}
			}
		})
		return nil
	},
}

// AnalyzerMalformedScope reports scoping constructs whose arguments do not
// have the shape the construct expects.
var AnalyzerMalformedScope = &Analyzer{
	Name:     "malformed-scope",
	Severity: SeverityInfo,
	Doc:      "Report scoping constructs with a malformed declaration shape.\n\nSuch a construct localizes nothing, so symbols in its body refer to outer or global definitions.",
	Run: func(pass *Pass) error {
		ScopingCalls(pass, func(call *ast.Node, kind analysis.ScopeKind) {
			if reason := malformedReason(kind, call); reason != "" {
				pass.Reportf(astutil.SourceOf(call).Source, "malformed %s: %s", call.HeadName(), reason)
			}
		})
		return nil
	},
}

// malformedReason describes why call does not have the shape of kind, or
// returns "".
func malformedReason(kind analysis.ScopeKind, call *ast.Node) string {
	args := call.Args()
	validParams := func(p *ast.Node) bool { return p.IsSymbol() || p.IsList() }
	switch kind {
	case analysis.ScopeFunction:
		switch len(args) {
		case 1:
			return ""
		case 2, 3:
			if !validParams(args[0]) {
				return "parameters must be a symbol or a list of symbols"
			}
			return ""
		}
		return fmt.Sprintf("expected 1 to 3 arguments, got %d", len(args))
	case analysis.ScopeModule:
		if len(args) < 2 {
			return "expected a list of local variables and a body"
		}
		if !args[0].IsList() {
			return "the first argument must be a list of local variables"
		}
		if len(args) > 2 && HeadFullName(call) == "System`With" {
			for _, a := range args[:len(args)-1] {
				if !a.IsList() {
					return "every argument but the last must be a list of local variables"
				}
			}
			return ""
		}
		if len(args) > 2 {
			return fmt.Sprintf("expected 2 arguments, got %d", len(args))
		}
	case analysis.ScopeTable:
		if len(args) == 0 {
			return "missing expression and iterators"
		}
	case analysis.ScopeCompile:
		if len(args) < 2 {
			return "expected a parameter list and a body"
		}
		if !validParams(args[0]) {
			return "parameters must be a symbol or a list of {name, type} specifications"
		}
	case analysis.ScopeManipulate:
		if len(args) < 2 {
			return "expected an expression and at least one control"
		}
	case analysis.ScopeLimit:
		if len(args) < 2 {
			return "expected an expression and a rule x -> x0"
		}
		if args[1].Kind != ast.KindRule && !args[1].IsList() {
			return "the second argument must be a rule x -> x0"
		}
	}
	return ""
}
