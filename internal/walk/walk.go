// Package walk enumerates candidate source files in a repository and
// computes their content identity. The engine trusts this enumeration and
// performs no filesystem traversal of its own.
package walk

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gobwas/glob"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/kestrelworks/codegraph/internal/lang"
)

// FileEntry is one enumerated source file, handed to the engine with its
// contents and content identity already computed.
type FileEntry struct {
	Path     string // relative to repo root, slash-separated
	Language string
	Content  []byte
	Identity string
}

// Options controls enumeration.
type Options struct {
	// Languages restricts enumeration to the named languages; empty means all.
	Languages []string
	// ExcludeDirs are directory basenames skipped in addition to the
	// built-in set.
	ExcludeDirs []string
	// ExcludeGlobs are path patterns (gobwas/glob syntax) to skip.
	ExcludeGlobs []string
	// MaxFileSize skips files larger than this many bytes; 0 means no limit.
	MaxFileSize int64
}

var skipDirs = map[string]struct{}{
	"__pycache__":   {},
	"node_modules":  {},
	".git":          {},
	".hg":           {},
	".svn":          {},
	"venv":          {},
	".venv":         {},
	"env":           {},
	".env":          {},
	"build":         {},
	"dist":          {},
	"target":        {},
	"vendor":        {},
	".tox":          {},
	".mypy_cache":   {},
	".ruff_cache":   {},
	".pytest_cache": {},
	"egg-info":      {},
}

// Files enumerates parseable source files under root in sorted path order.
// Only a failure to traverse the repository itself is an error; unreadable
// individual files are skipped.
func Files(root string, opts Options) ([]FileEntry, error) {
	langSet := make(map[string]struct{}, len(opts.Languages))
	for _, l := range opts.Languages {
		langSet[l] = struct{}{}
	}

	extraDirs := make(map[string]struct{}, len(opts.ExcludeDirs))
	for _, d := range opts.ExcludeDirs {
		extraDirs[d] = struct{}{}
	}

	globs := make([]glob.Glob, 0, len(opts.ExcludeGlobs))
	for _, pattern := range opts.ExcludeGlobs {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("exclude pattern %q: %w", pattern, err)
		}
		globs = append(globs, g)
	}

	gitFiles := gitLsFiles(root)
	var gi *ignore.GitIgnore
	if gitFiles == nil {
		gi = loadGitignore(root)
	}

	var results []FileEntry

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("enumerating repository: %w", err)
			}
			return nil // skip unreadable subtrees
		}

		name := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := skipDirs[name]; skip {
				return filepath.SkipDir
			}
			if _, skip := extraDirs[name]; skip {
				return filepath.SkipDir
			}
			if strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if gitFiles != nil {
			if _, ok := gitFiles[rel]; !ok {
				return nil
			}
		} else if gi != nil && gi.MatchesPath(rel) {
			return nil
		}

		for _, g := range globs {
			if g.Match(rel) {
				return nil
			}
		}

		langName := lang.ForExtension(filepath.Ext(name))
		if langName == "" {
			return nil
		}
		if len(langSet) > 0 {
			if _, ok := langSet[langName]; !ok {
				return nil
			}
		}

		entry, ok := load(path, rel, langName, opts.MaxFileSize)
		if !ok {
			return nil
		}
		results = append(results, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})

	return results, nil
}

// load reads one file and computes its identity. ok is false for files that
// cannot be read or exceed the size limit.
func load(absPath, relPath, language string, maxSize int64) (FileEntry, bool) {
	info, err := os.Stat(absPath)
	if err != nil {
		return FileEntry{}, false
	}
	if maxSize > 0 && info.Size() > maxSize {
		return FileEntry{}, false
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return FileEntry{}, false
	}

	return FileEntry{
		Path:     relPath,
		Language: language,
		Content:  content,
		Identity: Identity(content, info.ModTime()),
	}, true
}

// Identity derives a content identity from file bytes and modification
// time. It changes if and only if the file's relevant content changes,
// which is what drives cache validity.
func Identity(content []byte, mtime time.Time) string {
	sum := sha256.Sum256(content)
	return fmt.Sprintf("%x:%d", sum, mtime.Unix())
}

func gitLsFiles(root string) map[string]struct{} {
	gitDir := filepath.Join(root, ".git")
	info, err := os.Stat(gitDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return nil
	}

	files := make(map[string]struct{})
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if line != "" {
			files[line] = struct{}{}
		}
	}
	return files
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
