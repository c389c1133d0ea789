// Package extract turns parsed source files into normalized declaration
// records and unresolved call references using tree-sitter.
package extract

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/kestrelworks/codegraph/internal/lang"
	"github.com/kestrelworks/codegraph/internal/model"
)

var captureKinds = map[string]model.DeclKind{
	"definition.class":    model.Class,
	"definition.function": model.Function,
	"definition.method":   model.Method,
}

const captureCall = "reference.call"

// Result is the per-file output of extraction. It is pure with respect to
// file content: identical bytes always yield an identical Result.
type Result struct {
	Declarations []model.Declaration   `json:"declarations"`
	Calls        []model.CallReference `json:"call_references"`

	// Partial reports that the syntax tree contained error nodes; the
	// declarations cover only the regions tree-sitter could recover.
	Partial bool `json:"partial,omitempty"`
}

// rawCall is a call site before attribution to its enclosing declaration.
type rawCall struct {
	callee    string
	line      int
	enclosing string
}

// File parses one source file and extracts its declarations and call
// references. filePath is used for declaration IDs and should be the
// repo-relative path. An error is returned only for unparseable input;
// files with localized syntax errors still yield the recoverable subset.
func File(ctx context.Context, l *lang.Language, parser *sitter.Parser, source []byte, filePath string) (*Result, error) {
	if len(source) == 0 {
		return &Result{}, nil
	}

	query, err := l.TagQuery()
	if err != nil {
		return nil, fmt.Errorf("query for %s: %w", l.Name, err)
	}

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filePath, err)
	}
	defer tree.Close()

	res := &Result{Partial: tree.RootNode().HasError()}

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, tree.RootNode())

	var calls []rawCall
	seen := make(map[string]struct{})

	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		match = qc.FilterPredicates(match, source)

		var nameNode *sitter.Node
		var captureName string
		var defNode *sitter.Node

		for _, c := range match.Captures {
			cname := query.CaptureNameForId(c.Index)
			switch {
			case cname == "name":
				nameNode = c.Node
			case cname == captureCall:
				captureName = cname
				defNode = c.Node
			default:
				if _, ok := captureKinds[cname]; ok {
					captureName = cname
					defNode = c.Node
				}
			}
		}

		if nameNode == nil || captureName == "" || defNode == nil {
			continue
		}

		name := lang.NodeText(nameNode, source)
		line := int(nameNode.StartPoint().Row) + 1

		if captureName == captureCall {
			calls = append(calls, rawCall{
				callee:    name,
				line:      line,
				enclosing: l.EnclosingDef(nameNode, source),
			})
			continue
		}

		decl := buildDeclaration(l, defNode, captureKinds[captureName], name, filePath, source)
		if _, dup := seen[decl.ID]; dup {
			continue
		}
		seen[decl.ID] = struct{}{}
		res.Declarations = append(res.Declarations, decl)
	}

	res.Calls = attributeCalls(filePath, res.Declarations, calls)
	return res, nil
}

func buildDeclaration(l *lang.Language, defNode *sitter.Node, kind model.DeclKind, name, filePath string, source []byte) model.Declaration {
	qualified := name
	if kind != model.Class {
		if owner := l.Qualifier(defNode, source); owner != "" {
			kind = model.Method
			qualified = owner + "." + name
		}
	}

	decl := model.Declaration{
		Kind:          kind,
		Name:          name,
		QualifiedName: qualified,
		Signature:     l.Signature(defNode, kind, source),
		File:          filePath,
		StartLine:     int(defNode.StartPoint().Row) + 1,
		EndLine:       int(defNode.EndPoint().Row) + 1,
	}
	decl.ID = model.DeclarationID(filePath, qualified, decl.StartLine)

	if l.Docstring != nil {
		decl.Docstring = l.Docstring(defNode, source)
	}
	if kind != model.Class && l.Params != nil {
		decl.Parameters, decl.ReturnType = l.Params(defNode, source)
	}
	return decl
}

// attributeCalls maps each raw call site to the declaration whose qualified
// name matches its enclosing definition. Calls at file scope, or inside
// definitions the query did not capture, are dropped: only calls made from
// within a known declaration become references.
func attributeCalls(filePath string, decls []model.Declaration, calls []rawCall) []model.CallReference {
	byQualified := make(map[string]string, len(decls))
	for _, d := range decls {
		if _, ok := byQualified[d.QualifiedName]; !ok {
			byQualified[d.QualifiedName] = d.ID
		}
	}

	var refs []model.CallReference
	for _, c := range calls {
		if c.enclosing == "" {
			continue
		}
		callerID, ok := byQualified[c.enclosing]
		if !ok {
			continue
		}
		refs = append(refs, model.CallReference{
			CallerID: callerID,
			File:     filePath,
			Callee:   c.callee,
			Line:     c.line,
		})
	}
	return refs
}
