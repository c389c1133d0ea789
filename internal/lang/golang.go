package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/kestrelworks/codegraph/internal/model"
)

func init() {
	Languages["go"] = &Language{
		Name:         "go",
		Extensions:   []string{".go"},
		lang:         golang.GetLanguage(),
		Qualifier:    goQualifier,
		EnclosingDef: goEnclosingDef,
		Signature:    goSignature,
		Docstring:    DocFromComments,
		Params:       goParams,
	}
}

// goQualifier returns the receiver type name for a method_declaration node,
// unwrapping a pointer receiver. Returns "" for plain functions and types.
func goQualifier(node *sitter.Node, source []byte) string {
	if node.Type() != "method_declaration" {
		return ""
	}
	recv := node.ChildByFieldName("receiver")
	if recv == nil {
		return ""
	}
	for i := 0; i < int(recv.NamedChildCount()); i++ {
		param := recv.NamedChild(i)
		if param.Type() == "parameter_declaration" {
			return goTypeName(param.ChildByFieldName("type"), source)
		}
	}
	return ""
}

// goTypeName extracts the bare type name, unwrapping pointer and generic types.
func goTypeName(typeNode *sitter.Node, source []byte) string {
	if typeNode == nil {
		return ""
	}
	switch typeNode.Type() {
	case "type_identifier":
		return NodeText(typeNode, source)
	case "pointer_type", "generic_type":
		for i := 0; i < int(typeNode.NamedChildCount()); i++ {
			inner := typeNode.NamedChild(i)
			if inner.Type() == "type_identifier" {
				return NodeText(inner, source)
			}
		}
	}
	return ""
}

// goEnclosingDef returns the qualified name of the function or method
// containing a call-site node ("Recv.Name" for methods), or "" at file scope.
func goEnclosingDef(node *sitter.Node, source []byte) string {
	current := node.Parent()
	for current != nil {
		switch current.Type() {
		case "function_declaration":
			return FieldText(current, "name", source)
		case "method_declaration":
			name := FieldText(current, "name", source)
			if name == "" {
				return ""
			}
			if recv := goQualifier(current, source); recv != "" {
				return recv + "." + name
			}
			return name
		}
		current = current.Parent()
	}
	return ""
}

func goSignature(defNode *sitter.Node, kind model.DeclKind, source []byte) string {
	if kind == model.Class {
		// Type declaration: just the type name.
		for i := 0; i < int(defNode.NamedChildCount()); i++ {
			spec := defNode.NamedChild(i)
			if spec.Type() == "type_spec" {
				return FieldText(spec, "name", source)
			}
		}
		return ""
	}

	sig := FieldText(defNode, "name", source)
	if params := FieldText(defNode, "parameters", source); params != "" {
		sig += CollapseWhitespace(params)
	}
	if result := FieldText(defNode, "result", source); result != "" {
		sig += " " + CollapseWhitespace(result)
	}
	return sig
}

func goParams(defNode *sitter.Node, source []byte) ([]model.Parameter, string) {
	var params []model.Parameter
	if list := defNode.ChildByFieldName("parameters"); list != nil {
		for i := 0; i < int(list.NamedChildCount()); i++ {
			decl := list.NamedChild(i)
			if decl.Type() != "parameter_declaration" && decl.Type() != "variadic_parameter_declaration" {
				continue
			}
			typeText := CollapseWhitespace(FieldText(decl, "type", source))
			if decl.Type() == "variadic_parameter_declaration" {
				typeText = "..." + typeText
			}
			named := false
			// A declaration like (a, b int) carries several name children
			// sharing one type.
			for j := 0; j < int(decl.NamedChildCount()); j++ {
				child := decl.NamedChild(j)
				if child.Type() == "identifier" {
					params = append(params, model.Parameter{Name: NodeText(child, source), Type: typeText})
					named = true
				}
			}
			if !named && typeText != "" {
				params = append(params, model.Parameter{Type: typeText})
			}
		}
	}
	return params, CollapseWhitespace(FieldText(defNode, "result", source))
}
