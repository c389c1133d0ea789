package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"

	"github.com/kestrelworks/codegraph/internal/model"
)

func init() {
	Languages["c"] = &Language{
		Name:         "c",
		Extensions:   []string{".c", ".h"},
		lang:         c.GetLanguage(),
		Qualifier:    func(*sitter.Node, []byte) string { return "" },
		EnclosingDef: cEnclosingDef,
		Signature:    cSignature,
		Docstring:    DocFromComments,
		Params:       cParams,
	}
}

// cEnclosingDef returns the name of the function containing a call-site
// node, or "" at file scope. C has no methods, so the name is never qualified.
func cEnclosingDef(node *sitter.Node, source []byte) string {
	current := node.Parent()
	for current != nil {
		if current.Type() == "function_definition" {
			return cFunctionName(current, source)
		}
		current = current.Parent()
	}
	return ""
}

// cFunctionName digs through declarator nesting (pointer returns, etc.)
// to the function's identifier.
func cFunctionName(defNode *sitter.Node, source []byte) string {
	decl := defNode.ChildByFieldName("declarator")
	for decl != nil {
		switch decl.Type() {
		case "identifier":
			return NodeText(decl, source)
		case "function_declarator", "pointer_declarator", "parenthesized_declarator":
			decl = decl.ChildByFieldName("declarator")
		default:
			return ""
		}
	}
	return ""
}

func cSignature(defNode *sitter.Node, kind model.DeclKind, source []byte) string {
	if kind == model.Class {
		return FieldText(defNode, "name", source)
	}
	name := cFunctionName(defNode, source)
	sig := name
	if fd := cFunctionDeclarator(defNode); fd != nil {
		if params := fd.ChildByFieldName("parameters"); params != nil {
			sig += CollapseWhitespace(NodeText(params, source))
		}
	}
	if ret := FieldText(defNode, "type", source); ret != "" {
		sig = CollapseWhitespace(ret) + " " + sig
	}
	return sig
}

func cFunctionDeclarator(defNode *sitter.Node) *sitter.Node {
	decl := defNode.ChildByFieldName("declarator")
	for decl != nil {
		if decl.Type() == "function_declarator" {
			return decl
		}
		decl = decl.ChildByFieldName("declarator")
	}
	return nil
}

func cParams(defNode *sitter.Node, source []byte) ([]model.Parameter, string) {
	var params []model.Parameter
	if fd := cFunctionDeclarator(defNode); fd != nil {
		if list := fd.ChildByFieldName("parameters"); list != nil {
			for i := 0; i < int(list.NamedChildCount()); i++ {
				child := list.NamedChild(i)
				if child.Type() != "parameter_declaration" {
					continue
				}
				params = append(params, model.Parameter{
					Name: cDeclaratorName(child, source),
					Type: CollapseWhitespace(FieldText(child, "type", source)),
				})
			}
		}
	}
	return params, CollapseWhitespace(FieldText(defNode, "type", source))
}

func cDeclaratorName(paramNode *sitter.Node, source []byte) string {
	decl := paramNode.ChildByFieldName("declarator")
	for decl != nil {
		switch decl.Type() {
		case "identifier":
			return NodeText(decl, source)
		case "pointer_declarator", "array_declarator", "function_declarator", "parenthesized_declarator":
			decl = decl.ChildByFieldName("declarator")
		default:
			return ""
		}
	}
	return ""
}
