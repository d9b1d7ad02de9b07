// Copyright © 2024 The wlscope authors

package analysis

import (
	"testing"

	"github.com/halirutan/wlscope/ast"
	"github.com/halirutan/wlscope/astutil"
	"github.com/halirutan/wlscope/catalog"
	"github.com/halirutan/wlscope/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testResolver = NewResolver(catalog.Default())

// parseFile is a test helper that parses source into an analysis File.
func parseFile(t *testing.T, source string) *File {
	t.Helper()
	tree := parser.ParseFile("test.wl", source)
	require.Empty(t, tree.Errors)
	return NewFile(tree)
}

func parseExpr(t *testing.T, source string) *ast.Node {
	t.Helper()
	n, err := parser.ParseExpression(source)
	require.NoError(t, err)
	return n
}

// occurrences returns the symbols spelled name below n, in source order.
func occurrences(n *ast.Node, name string) []*ast.Node {
	var out []*ast.Node
	for _, s := range astutil.Symbols(n) {
		if s.Name == name {
			out = append(out, s)
		}
	}
	return out
}

func names(nodes []*ast.Node) []string {
	out := []string{}
	for _, n := range nodes {
		out = append(out, n.FullName())
	}
	return out
}

func TestClassifier(t *testing.T) {
	c := testResolver.Classifier()
	tests := []struct {
		head string
		want ScopeKind
	}{
		{"Function", ScopeFunction},
		{"Module", ScopeModule},
		{"Block", ScopeModule},
		{"With", ScopeModule},
		{"System`With", ScopeModule},
		{"Table", ScopeTable},
		{"Sum", ScopeTable},
		{"Do", ScopeTable},
		{"Plot", ScopeTable},
		{"Compile", ScopeCompile},
		{"Manipulate", ScopeManipulate},
		{"Limit", ScopeLimit},
		{"Print", ScopeNone},
		{"myModule", ScopeNone},
		{"Global`Module", ScopeNone},
	}
	for _, test := range tests {
		t.Run(test.head, func(t *testing.T) {
			assert.Equal(t, test.want, c.Classify(test.head))
		})
	}
	assert.Equal(t, ScopeNone, c.ClassifyCall(parseExpr(t, "f[{x}, x]")))
	assert.Equal(t, ScopeNone, c.ClassifyCall(parseExpr(t, "Module")))
	assert.Equal(t, ScopeModule, c.ClassifyCall(parseExpr(t, "Module[{x}, x]")))
	assert.Equal(t, ScopeTable, ParseScopeKind("Table"))
	assert.Equal(t, ScopeNone, ParseScopeKind("Unknown"))
	assert.Equal(t, "manipulate", ScopeManipulate.String())
}

func TestLocalVariables(t *testing.T) {
	tests := []struct {
		src  string
		want []string
	}{
		{"Function[x, x^2]", []string{"x"}},
		{"Function[{x, y}, x + y]", []string{"x", "y"}},
		{"Function[x^2]", []string{}},
		{"Function[{x, {y, z}}, x]", []string{"x", "y", "z"}},
		{"Function[x, x, Listable]", []string{"x"}},
		{"Function[Null, #, Listable]", []string{}},
		{"Function[{a}, a, Listable]", []string{"a"}},
		{"Function[a, b, c, d]", []string{}},
		{"Module[{x, y = 1, z := 2}, x]", []string{"x", "y", "z"}},
		{"Module[{x, x}, x]", []string{"x", "x"}},
		{"Module[5, x]", []string{}},
		{"Module[]", []string{}},
		{"With[{a = 1, f[b] = 2}, a]", []string{"a"}},
		{"Table[i, {i, 10}]", []string{"i"}},
		{"Table[i, {i, 1, 10, 2}]", []string{"i"}},
		{"Sum[a + b, {a, 0, 10}, {b, 0, 10}]", []string{"a", "b"}},
		{"Table[x, 10]", []string{}},
		{"Table[{i}]", []string{}},
		{"Do[Print[k], {{k}, 3}]", []string{}},
		{"Manipulate[Plot[Sin[a x], {x, 0, 1}], {a, 1, 2}, {{b, 1}, 0, 2}]", []string{"a", "b"}},
		{"Manipulate[x]", []string{}},
		{"Compile[{{x, _Real}, {y, _Integer}}, x + y]", []string{"x", "y"}},
		{"Compile[x, x^2]", []string{"x"}},
		{"Compile[{x, y}, x]", []string{}},
		{"Compile[1, x]", []string{}},
		{"Limit[Sin[x]/x, x -> 0]", []string{"x"}},
		{"Limit[f, x]", []string{}},
		{"Limit[f, 1 -> 0]", []string{}},
	}
	for _, test := range tests {
		t.Run(test.src, func(t *testing.T) {
			call := parseExpr(t, test.src)
			kind := testResolver.Classifier().ClassifyCall(call)
			require.NotEqual(t, ScopeNone, kind)
			assert.Equal(t, test.want, names(LocalVariables(kind, call)))
		})
	}
	assert.Empty(t, LocalVariables(ScopeNone, parseExpr(t, "Module[{x}, x]")))
	assert.Empty(t, LocalVariables(ScopeModule, parseExpr(t, "{x}")))
	assert.Empty(t, LocalVariables(ScopeModule, nil))
}

func TestPatternVariables(t *testing.T) {
	tests := []struct {
		src  string
		want []string
	}{
		{"f[x_Integer, y_: 0]", []string{"x", "y"}},
		{"Verbatim[x_]", []string{}},
		{"f[Verbatim[x_], y_]", []string{"y"}},
		{"x:{__}", []string{"x"}},
		{"f[x__, y___, z_.]", []string{"x", "y", "z"}},
		{"f[_, _Integer]", []string{}},
		{"Longest[a__]", []string{"a"}},
		{"Shortest[a__, b_]", []string{"a"}},
		{"x_?NumericQ", []string{"x"}},
		{"PatternTest[x_, f[y_]]", []string{"x"}},
		{"Condition[x_, y_]", []string{"x"}},
		{"Optional[x_, y_]", []string{"x"}},
		{"f[p:(_Integer | _Real)]", []string{"p"}},
		{"f[p:g[q_]]", []string{"p", "q"}},
		{"HoldPattern[g[a_]]", []string{"a"}},
		{"{a_, b_} /; a > b", []string{"a", "b"}},
		{"f[x_][y_]", []string{"x", "y"}},
		{"f[x_, x_]", []string{"x", "x"}},
	}
	for _, test := range tests {
		t.Run(test.src, func(t *testing.T) {
			assert.Equal(t, test.want, names(PatternVariables(parseExpr(t, test.src))))
		})
	}
	assert.Empty(t, PatternVariables(nil))
}

func TestPatternVariables_AssignmentLHS(t *testing.T) {
	f := parseFile(t, "f[x_Integer, y_: 0] := x + y\nVerbatim[x_] -> 1")
	stmts := f.Tree().Statements()
	require.Len(t, stmts, 2)
	assert.Equal(t, []string{"x", "y"}, names(PatternVariables(stmts[0].FirstChild())))
	assert.Empty(t, PatternVariables(stmts[1].FirstChild()))
}

func TestResolve_InnermostWins(t *testing.T) {
	f := parseFile(t, "Module[{x}, Module[{x}, x]]")
	xs := occurrences(f.Root(), "x")
	require.Len(t, xs, 3)
	b := testResolver.Resolve(f, xs[2])
	assert.Equal(t, BindingLocal, b.Kind)
	assert.Same(t, xs[1], b.Node)
	assert.Equal(t, ScopeModule, b.ScopeKind)
	assert.Equal(t, "Localized in Module", b.Description())

	// A declaration resolves to itself.
	assert.Same(t, xs[0], testResolver.Resolve(f, xs[0]).Node)
}

func TestResolve_NestedConstructs(t *testing.T) {
	f := parseFile(t, "f[x_] := Table[x, {x, 3}] + x")
	xs := occurrences(f.Root(), "x")
	require.Len(t, xs, 4)

	inner := testResolver.Resolve(f, xs[1])
	assert.Equal(t, BindingLocal, inner.Kind)
	assert.Same(t, xs[2], inner.Node)
	assert.Equal(t, ScopeTable, inner.ScopeKind)
	assert.Equal(t, "Localized in Table", inner.Description())

	outer := testResolver.Resolve(f, xs[3])
	assert.Equal(t, BindingPattern, outer.Kind)
	assert.Same(t, xs[0], outer.Node)
	assert.Equal(t, "Pattern in SetDelayed", outer.Description())
}

func TestResolve_ModuleInitializer(t *testing.T) {
	f := parseFile(t, "Module[{x = x}, x]")
	xs := occurrences(f.Root(), "x")
	require.Len(t, xs, 3)
	assert.Same(t, Unresolved, testResolver.Resolve(f, xs[1]))
	assert.Same(t, xs[0], testResolver.Resolve(f, xs[2]).Node)

	f = parseFile(t, "Module[{x}, With[{x = x + 1}, x]]")
	xs = occurrences(f.Root(), "x")
	require.Len(t, xs, 4)
	assert.Same(t, xs[0], testResolver.Resolve(f, xs[2]).Node)
	assert.Same(t, xs[1], testResolver.Resolve(f, xs[3]).Node)
}

func TestResolve_Patterns(t *testing.T) {
	tests := []struct {
		name string
		src  string
		// index of the occurrence of x to resolve and of its expected
		// declaration; -1 means Unresolved.
		occ, decl int
		scope     ast.Kind
	}{
		{"set-delayed", "f[x_] := x", 1, 0, ast.KindSetDelayed},
		{"set rhs", "g[x_] = x", 1, -1, 0},
		{"set lhs", "g[x_] = x", 0, 0, ast.KindSet},
		{"rule rhs", "{1} /. x_ -> x", 1, -1, 0},
		{"rule-delayed", "{1} /. x_ :> x", 1, 0, ast.KindRuleDelayed},
		{"condition", "Cases[list, x_ /; x > 0]", 1, 0, ast.KindCondition},
		{"tag-set-delayed", "g /: h[g[x_]] := x", 1, 0, ast.KindTagSetDelayed},
		{"up-set-delayed", "h[g[x_]] ^:= x", 1, 0, ast.KindUpSetDelayed},
		{"named pattern", "f[x:{__}] := Length[x]", 1, 0, ast.KindSetDelayed},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := parseFile(t, test.src)
			xs := occurrences(f.Root(), "x")
			b := testResolver.Resolve(f, xs[test.occ])
			if test.decl < 0 {
				assert.Same(t, Unresolved, b)
				return
			}
			assert.Equal(t, BindingPattern, b.Kind)
			assert.Same(t, xs[test.decl], b.Node)
			assert.Equal(t, test.scope, b.Scope.Kind)
		})
	}
}

func TestResolve_FileGlobals(t *testing.T) {
	f := parseFile(t, "a = 1;\nb := a + 1\na = 2\nf[x_] := b")
	as := occurrences(f.Root(), "a")
	require.Len(t, as, 3)
	for _, a := range as {
		b := testResolver.Resolve(f, a)
		assert.Equal(t, BindingFileGlobal, b.Kind)
		assert.Same(t, as[0], b.Node)
		assert.Same(t, f.Root(), b.Scope)
		assert.Equal(t, "File Symbol", b.Description())
	}
	bs := occurrences(f.Root(), "b")
	assert.Same(t, bs[0], testResolver.Resolve(f, bs[1]).Node)
	assert.Equal(t, BindingFileGlobal, testResolver.Resolve(f, occurrences(f.Root(), "f")[0]).Kind)
}

func TestResolve_Builtins(t *testing.T) {
	f := parseFile(t, "Sin[x] + System`Cos[y] + Global`Sin[z]")
	sin := occurrences(f.Root(), "Sin")
	require.Len(t, sin, 2)

	b := testResolver.Resolve(f, sin[0])
	assert.Equal(t, BindingBuiltin, b.Kind)
	require.NotNil(t, b.Entry)
	assert.Equal(t, "System`Sin", b.Entry.FullName)
	assert.Equal(t, "Builtin (System`)", b.Description())

	assert.Equal(t, BindingBuiltin, testResolver.Resolve(f, occurrences(f.Root(), "Cos")[0]).Kind)
	assert.Same(t, Unresolved, testResolver.Resolve(f, sin[1]))
}

func TestResolve_Contexts(t *testing.T) {
	f := parseFile(t, "Module[{x}, Global`x + Private`x]")
	xs := occurrences(f.Root(), "x")
	require.Len(t, xs, 3)
	assert.Same(t, xs[0], testResolver.Resolve(f, xs[1]).Node)
	assert.Same(t, Unresolved, testResolver.Resolve(f, xs[2]))

	f = parseFile(t, "Private`y = 1\ny + Private`y")
	ys := occurrences(f.Root(), "y")
	require.Len(t, ys, 3)
	assert.Same(t, ys[0], testResolver.Resolve(f, ys[1]).Node)
	assert.Same(t, ys[0], testResolver.Resolve(f, ys[2]).Node)
}

func TestResolve_Unresolved(t *testing.T) {
	f := parseFile(t, "undefinedThing + 1")
	b := testResolver.Resolve(f, occurrences(f.Root(), "undefinedThing")[0])
	assert.Same(t, Unresolved, b)
	assert.True(t, b.IsUnresolved())
	assert.Equal(t, "Unresolved", b.Description())

	// Non-symbols never resolve.
	assert.Same(t, Unresolved, testResolver.Resolve(f, f.Tree().Statements()[0]))
}

func TestResolve_NoCrossTree(t *testing.T) {
	f1 := parseFile(t, "x = 1")
	f2 := parseFile(t, "x")
	x2 := occurrences(f2.Root(), "x")[0]
	assert.Same(t, Unresolved, testResolver.Resolve(f2, x2))
	assert.Same(t, Unresolved, testResolver.Resolve(f1, x2))
	assert.Equal(t, BindingFileGlobal, testResolver.Resolve(f1, occurrences(f1.Root(), "x")[0]).Kind)
}

func TestResolve_Idempotent(t *testing.T) {
	f := parseFile(t, "Table[i^2, {i, 10}]")
	i := occurrences(f.Root(), "i")[0]
	first := testResolver.Resolve(f, i)
	assert.Equal(t, 1, f.CacheLen())
	second := testResolver.Resolve(f, i)
	assert.Same(t, first, second)
	assert.Equal(t, 1, f.CacheLen())
	assert.Equal(t, first, testResolver.ResolveLocal(i))
}

func TestResolve_Invalidation(t *testing.T) {
	f := parseFile(t, "y = 1\ny")
	y := occurrences(f.Root(), "y")[1]
	assert.Equal(t, BindingFileGlobal, testResolver.Resolve(f, y).Kind)

	f.Update(parser.ParseFile("test.wl", "y"))
	assert.Equal(t, 0, f.CacheLen())
	assert.True(t, f.resolved.Dirty())
	assert.Same(t, Unresolved, testResolver.Resolve(f, y), "nodes of the old tree no longer resolve")

	y = occurrences(f.Root(), "y")[0]
	assert.Same(t, Unresolved, testResolver.Resolve(f, y))
	assert.False(t, f.resolved.Dirty())
	assert.Empty(t, f.Globals().Definitions())
}

func TestResolve_DegradedCatalog(t *testing.T) {
	r := NewResolver(nil)
	f := parseFile(t, "Module[{x}, Sin[x]]")
	xs := occurrences(f.Root(), "x")
	assert.Same(t, Unresolved, r.Resolve(f, xs[1]))
	assert.Same(t, Unresolved, r.Resolve(f, occurrences(f.Root(), "Sin")[0]))
	assert.True(t, r.Catalog().Degraded())
}

func TestCollectBindings(t *testing.T) {
	call := parseExpr(t, "Module[{x, x}, x]")
	bs := testResolver.CollectBindings(call)
	require.Len(t, bs, 1)
	assert.Equal(t, "x", bs[0].Name)
	assert.Same(t, call.Arg(0).Children[1], bs[0].Node)

	bs = testResolver.CollectBindings(parseExpr(t, "Sum[a + b, {a, 0, 10}, {b, 0, 10}]"))
	require.Len(t, bs, 2)
	assert.Equal(t, "a", bs[0].Name)
	assert.Equal(t, "b", bs[1].Name)

	bs = testResolver.CollectBindings(parseExpr(t, "f[x_, x_, y_] := x"))
	require.Len(t, bs, 2)
	assert.Equal(t, BindingPattern, bs[0].Kind)

	f := parseFile(t, "a = 1; b = 2\na = 3")
	bs = testResolver.CollectBindings(f.Root())
	require.Len(t, bs, 2)
	assert.Equal(t, "a", bs[0].Name)
	assert.Equal(t, "b", bs[1].Name)

	assert.Empty(t, testResolver.CollectBindings(parseExpr(t, "g[x]")))
	assert.Empty(t, testResolver.CollectBindings(parseExpr(t, "Module[5, x]")))
	assert.Empty(t, testResolver.CollectBindings(nil))
}

func TestAssignmentSymbols(t *testing.T) {
	tests := []struct {
		src  string
		want []string
	}{
		{"x = 1", []string{"x"}},
		{"x := 1", []string{"x"}},
		{"f[x_] := x", []string{"f"}},
		{"f[a][b_] := b", []string{"f"}},
		{"f[a][b][c_] := c", []string{"f"}},
		{"{a, {b, c}} = {1, {2, 3}}", []string{"a", "b", "c"}},
		{"g /: h[g] := 1", []string{"g"}},
		{"h[g, k[z]] ^= 1", []string{"g", "k"}},
		{"a = 1; b = 2", []string{"a", "b"}},
		{"f[x_] /; x > 0 := x", []string{"f"}},
		{"HoldPattern[f[x_]] := x", []string{"f"}},
		{"Print[1]", []string{}},
		{"x =.", []string{}},
		{"1 = 2", []string{}},
	}
	for _, test := range tests {
		t.Run(test.src, func(t *testing.T) {
			f := parseFile(t, test.src)
			require.Len(t, f.Tree().Statements(), 1)
			assert.Equal(t, test.want, names(AssignmentSymbols(f.Tree().Statements()[0])))
		})
	}
	assert.Empty(t, AssignmentSymbols(nil))
}

func TestBinding_Same(t *testing.T) {
	f := parseFile(t, "Module[{x}, x + x]; Sin[1] + Sin[2]")
	xs := occurrences(f.Root(), "x")
	assert.True(t, testResolver.Resolve(f, xs[1]).Same(testResolver.Resolve(f, xs[2])))
	sins := occurrences(f.Root(), "Sin")
	assert.True(t, testResolver.Resolve(f, sins[0]).Same(testResolver.Resolve(f, sins[1])))
	assert.False(t, testResolver.Resolve(f, xs[1]).Same(testResolver.Resolve(f, sins[0])))
	assert.False(t, Unresolved.Same(nil))
	assert.Equal(t, "file-global", BindingFileGlobal.String())
}

func TestAnalyze(t *testing.T) {
	f := parseFile(t, "f[x_] := x + y")
	res := Analyze(testResolver, f)
	require.Len(t, res.Unresolved, 1)
	assert.Equal(t, "y", res.Unresolved[0].Name)
	require.Len(t, res.References, 3)
	assert.Equal(t, []string{"f", "x", "x"}, names([]*ast.Node{
		res.References[0].Node, res.References[1].Node, res.References[2].Node,
	}))
	assert.True(t, res.References[1].IsDeclaration())
	assert.False(t, res.References[2].IsDeclaration())
	assert.Len(t, res.ReferencesTo(res.References[2].Binding), 2)
	assert.Same(t, res.References[0], res.ReferenceAt(res.References[0].Node))
	require.Len(t, res.Globals, 1)
	assert.Equal(t, "f", res.Globals[0].Name)
}

func TestCompletions(t *testing.T) {
	f := parseFile(t, "abc = 1;\nModule[{alpha, beta}, a]")
	at := occurrences(f.Root(), "a")[0]
	cands := testResolver.Completions(f, at, "a")
	require.Len(t, cands, 2)
	assert.Equal(t, "alpha", cands[0].Name)
	assert.Equal(t, PriorityLocal, cands[0].Priority)
	assert.Equal(t, "Localized in Module", cands[0].Detail)
	assert.Equal(t, "abc", cands[1].Name)
	assert.Equal(t, PriorityGlobal, cands[1].Priority)

	f = parseFile(t, "Module[{Alpha}, A]")
	at = occurrences(f.Root(), "A")[0]
	cands = testResolver.Completions(f, at, "A")
	require.NotEmpty(t, cands)
	assert.Equal(t, "Alpha", cands[0].Name)
	for _, c := range cands[1:] {
		assert.Equal(t, BindingBuiltin, c.Binding.Kind)
		assert.LessOrEqual(t, c.Priority, PriorityBuiltin)
		assert.Equal(t, byte('A'), c.Name[0])
	}

	// The declaration under the cursor is not proposed.
	f = parseFile(t, "f[xyz_] := 1")
	at = occurrences(f.Root(), "xyz")[0]
	for _, c := range testResolver.Completions(f, at, "x") {
		assert.NotEqual(t, "xyz", c.Name)
	}

	cands = testResolver.Completions(parseFile(t, "gg = 1"), nil, "g")
	require.Len(t, cands, 1)
	assert.Equal(t, "gg", cands[0].Name)
}
