// Package lang provides a language registry mapping file extensions to
// tree-sitter grammars, their embedded extraction queries, and the
// per-language hooks used to normalize syntax trees into declarations.
package lang

import (
	"embed"
	"fmt"
	"regexp"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/kestrelworks/codegraph/internal/model"
)

//go:embed queries/*.scm
var queryFS embed.FS

var whitespaceRe = regexp.MustCompile(`\s+`)

// Language holds tree-sitter configuration for a supported language.
// The extraction query is compiled once and shared; parsers are created
// per goroutine since tree-sitter parsers are not thread-safe.
type Language struct {
	Name       string
	Extensions []string
	lang       *sitter.Language
	queryOnce  sync.Once
	query      *sitter.Query
	queryErr   error

	// Qualifier returns the enclosing class name (Python/Ruby/JS style) or
	// receiver type (Go style) for a definition node. Returns "" for a
	// top-level function.
	Qualifier func(node *sitter.Node, source []byte) string

	// EnclosingDef returns the qualified name of the function or method
	// containing a call-site node (e.g. "MyClass.method" or "funcName").
	// Returns "" when the call is at file scope.
	EnclosingDef func(node *sitter.Node, source []byte) string

	// Signature returns display text for a definition node.
	Signature func(node *sitter.Node, kind model.DeclKind, source []byte) string

	// Docstring returns the documentation attached to a definition node,
	// with comment markers stripped. Optional.
	Docstring func(node *sitter.Node, source []byte) string

	// Params returns the formal parameters and declared return type for a
	// function or method definition node. Optional.
	Params func(node *sitter.Node, source []byte) ([]model.Parameter, string)
}

// GetLanguage returns the tree-sitter Language pointer.
func (l *Language) GetLanguage() *sitter.Language {
	return l.lang
}

// NewParser creates a fresh tree-sitter parser for this language.
// Each goroutine must use its own parser (not thread-safe).
func (l *Language) NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(l.lang)
	return p
}

// TagQuery returns the compiled extraction query (safe to share across goroutines).
func (l *Language) TagQuery() (*sitter.Query, error) {
	l.queryOnce.Do(func() {
		data, err := queryFS.ReadFile(fmt.Sprintf("queries/%s.scm", l.Name))
		if err != nil {
			l.queryErr = fmt.Errorf("reading query file: %w", err)
			return
		}
		q, err := sitter.NewQuery(data, l.lang)
		if err != nil {
			l.queryErr = fmt.Errorf("compiling query: %w", err)
			return
		}
		l.query = q
	})
	return l.query, l.queryErr
}

// Languages maps language names to their configuration.
// Populated by init() functions in per-language files.
var Languages = map[string]*Language{}

// extensionMap is built lazily after all init() functions have run.
var extensionMap map[string]string
var extensionOnce sync.Once

func getExtensionMap() map[string]string {
	extensionOnce.Do(func() {
		extensionMap = make(map[string]string)
		for _, l := range Languages {
			for _, ext := range l.Extensions {
				extensionMap[ext] = l.Name
			}
		}
	})
	return extensionMap
}

// ForExtension returns the language name for a file extension, or "" if unsupported.
func ForExtension(ext string) string {
	return getExtensionMap()[ext]
}

// Names returns the sorted names of all registered languages.
func Names() []string {
	names := make([]string, 0, len(Languages))
	for name := range Languages {
		names = append(names, name)
	}
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j] < names[j-1]; j-- {
			names[j], names[j-1] = names[j-1], names[j]
		}
	}
	return names
}

// NodeText returns the source text of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// FieldText returns the text of a node's named field, or "" if absent.
func FieldText(node *sitter.Node, field string, source []byte) string {
	child := node.ChildByFieldName(field)
	if child == nil {
		return ""
	}
	return NodeText(child, source)
}

// CollapseWhitespace replaces runs of whitespace with a single space and trims.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

var commentNodeTypes = map[string]struct{}{
	"comment":       {},
	"line_comment":  {},
	"block_comment": {},
}

// DocFromComments collects the contiguous run of comment siblings directly
// above a definition node and strips comment markers. Used by languages that
// document declarations with preceding comments (Go, Ruby, C-family, Java,
// JS/TS); Python overrides this with body docstrings.
func DocFromComments(node *sitter.Node, source []byte) string {
	var comments []string
	expectRow := int(node.StartPoint().Row) - 1

	for prev := node.PrevSibling(); prev != nil; prev = prev.PrevSibling() {
		if _, ok := commentNodeTypes[prev.Type()]; !ok {
			break
		}
		endRow := int(prev.EndPoint().Row)
		if endRow < expectRow {
			break // blank line separates comment from the declaration
		}
		comments = append(comments, NodeText(prev, source))
		expectRow = int(prev.StartPoint().Row) - 1
	}

	if len(comments) == 0 {
		return ""
	}
	// Reverse into document order.
	for i, j := 0, len(comments)-1; i < j; i, j = i+1, j-1 {
		comments[i], comments[j] = comments[j], comments[i]
	}
	return StripCommentMarkers(strings.Join(comments, "\n"))
}

// StripCommentMarkers removes //, #, and /* ... */ style markers from a
// comment block, returning the bare documentation text.
func StripCommentMarkers(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "/**")
		line = strings.TrimPrefix(line, "/*")
		line = strings.TrimSuffix(line, "*/")
		line = strings.TrimPrefix(line, "//")
		line = strings.TrimPrefix(line, "#")
		line = strings.TrimPrefix(line, "*")
		line = strings.TrimSpace(line)
		out = append(out, line)
	}
	joined := strings.Join(out, "\n")
	return strings.TrimSpace(joined)
}
