package walk

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func paths(entries []FileEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Path
	}
	return out
}

func TestFilesEnumeratesSupported(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"main.py":        "def main(): pass\n",
		"lib/util.go":    "package lib\n",
		"README.md":      "# readme\n",
		"data/notes.txt": "notes\n",
	})

	entries, err := Files(root, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"lib/util.go", "main.py"}, paths(entries))

	assert.Equal(t, "go", entries[0].Language)
	assert.Equal(t, "python", entries[1].Language)
	assert.Equal(t, []byte("def main(): pass\n"), entries[1].Content)
	assert.NotEmpty(t, entries[1].Identity)
}

func TestFilesSkipsBuiltinDirs(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"app.py":                 "x = 1\n",
		"node_modules/dep/a.js":  "var a\n",
		"__pycache__/app.pyc.py": "ignored\n",
		".hidden/secret.py":      "ignored\n",
		"vendor/lib.go":          "package lib\n",
	})

	entries, err := Files(root, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"app.py"}, paths(entries))
}

func TestFilesExcludeDirsAndGlobs(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"app.py":           "x = 1\n",
		"generated/gen.py": "x = 1\n",
		"app_test.go":      "package main\n",
		"pkg/util_test.go": "package pkg\n",
		"pkg/util.go":      "package pkg\n",
	})

	entries, err := Files(root, Options{
		ExcludeDirs:  []string{"generated"},
		ExcludeGlobs: []string{"**/*_test.go", "*_test.go"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"app.py", "pkg/util.go"}, paths(entries))
}

func TestFilesLanguageFilter(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"a.py": "x = 1\n",
		"b.go": "package b\n",
		"c.rb": "x = 1\n",
	})

	entries, err := Files(root, Options{Languages: []string{"python", "ruby"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.py", "c.rb"}, paths(entries))
}

func TestFilesMaxFileSize(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"small.py": "x = 1\n",
		"big.py":   "x = '" + string(make([]byte, 1024)) + "'\n",
	})

	entries, err := Files(root, Options{MaxFileSize: 100})
	require.NoError(t, err)
	assert.Equal(t, []string{"small.py"}, paths(entries))
}

func TestFilesBadGlob(t *testing.T) {
	t.Parallel()

	_, err := Files(t.TempDir(), Options{ExcludeGlobs: []string{"[unclosed"}})
	require.Error(t, err)
}

func TestFilesRespectsGitignore(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		".gitignore":   "ignored/\n*.gen.py\n",
		"app.py":       "x = 1\n",
		"app.gen.py":   "x = 1\n",
		"ignored/b.py": "x = 1\n",
	})

	entries, err := Files(root, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"app.py"}, paths(entries))
}

func TestFilesMissingRoot(t *testing.T) {
	t.Parallel()

	_, err := Files(filepath.Join(t.TempDir(), "absent"), Options{})
	require.Error(t, err)
}

func TestIdentityChangesWithContent(t *testing.T) {
	t.Parallel()

	mtime := time.Unix(1700000000, 0)
	a := Identity([]byte("one"), mtime)
	b := Identity([]byte("two"), mtime)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Identity([]byte("one"), mtime))
}

func TestIdentityChangesWithMtime(t *testing.T) {
	t.Parallel()

	content := []byte("same")
	a := Identity(content, time.Unix(1700000000, 0))
	b := Identity(content, time.Unix(1700000001, 0))
	assert.NotEqual(t, a, b)
}
