// Copyright © 2024 The wlscope authors

package analysis

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return root
}

func TestIsSourceFile(t *testing.T) {
	assert.True(t, IsSourceFile("a.wl"))
	assert.True(t, IsSourceFile("dir/Package.M"))
	assert.True(t, IsSourceFile("script.wls"))
	assert.True(t, IsSourceFile("tests.wlt"))
	assert.False(t, IsSourceFile("notebook.nb"))
	assert.False(t, IsSourceFile("README.md"))
	assert.False(t, IsSourceFile("wl"))
}

func TestListSourceFiles(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.wl":          "foo[x_] := x",
		"sub/b.m":       "bar = 1",
		"vendor/v.wl":   "baz = 2",
		".hidden/c.wl":  "qux = 3",
		"README.md":     "# readme",
		"sub/d.wls":     "",
		"sub/deeper/e.": "",
	})

	files, err := ListSourceFiles(root, nil)
	require.NoError(t, err)
	rel := make([]string, 0, len(files))
	for _, f := range files {
		r, err := filepath.Rel(root, f)
		require.NoError(t, err)
		rel = append(rel, filepath.ToSlash(r))
	}
	assert.Equal(t, []string{"a.wl", "sub/b.m", "sub/d.wls", "vendor/v.wl"}, rel)

	exclude := func(path string) bool {
		return strings.HasSuffix(filepath.ToSlash(path), "/vendor")
	}
	files, err = ListSourceFiles(root, exclude)
	require.NoError(t, err)
	assert.Len(t, files, 3)
	for _, f := range files {
		assert.NotContains(t, filepath.ToSlash(f), "/vendor/")
	}
}

func TestSummarizeFile(t *testing.T) {
	sum := SummarizeFile("pkg.wl", []byte("foo[x_] := x\nPrivate`bar = 1\nfoo[1]"))
	assert.Equal(t, "pkg.wl", sum.Path)
	assert.Zero(t, sum.SyntaxErrors)
	require.Len(t, sum.Symbols, 2)
	assert.Equal(t, "foo", sum.Symbols[0].Name)
	assert.Equal(t, "", sum.Symbols[0].Context)
	assert.Equal(t, "pkg.wl", sum.Symbols[0].File)
	require.NotNil(t, sum.Symbols[0].Source)
	assert.Equal(t, 1, sum.Symbols[0].Source.Line)
	assert.Equal(t, "bar", sum.Symbols[1].Name)
	assert.Equal(t, "Private`", sum.Symbols[1].Context)

	bad := SummarizeFile("bad.wl", []byte("f[x_ := x"))
	assert.NotZero(t, bad.SyntaxErrors)
}

func TestScanWorkspace(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.wl":         "foo[x_] := x",
		"sub/b.m":      "bar = 1\nfoo[y_, z_] := y",
		".hidden/c.wl": "qux = 3",
		"README.md":    "foo = 1",
	})

	sums, err := ScanWorkspace(context.Background(), root, nil, 2)
	require.NoError(t, err)
	require.Len(t, sums, 2)
	assert.Equal(t, filepath.Join(root, "a.wl"), sums[0].Path)
	assert.Equal(t, filepath.Join(root, "sub", "b.m"), sums[1].Path)

	syms := WorkspaceSymbols(sums)
	assert.Len(t, syms, 2)
	assert.Len(t, syms["foo"], 2)
	assert.Len(t, syms["bar"], 1)
	assert.NotContains(t, syms, "qux")
}

func TestScanFiles(t *testing.T) {
	root := writeTree(t, map[string]string{"a.wl": "a = 1"})
	paths := []string{filepath.Join(root, "a.wl"), filepath.Join(root, "missing.wl")}

	sums, err := ScanFiles(context.Background(), paths, 0)
	require.NoError(t, err)
	require.Len(t, sums, 1)
	assert.Equal(t, paths[0], sums[0].Path)

	sums, err = ScanFiles(context.Background(), nil, 4)
	require.NoError(t, err)
	assert.Empty(t, sums)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ScanFiles(ctx, paths, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
