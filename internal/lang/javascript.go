package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"github.com/kestrelworks/codegraph/internal/model"
)

func init() {
	Languages["javascript"] = &Language{
		Name:         "javascript",
		Extensions:   []string{".js", ".jsx", ".mjs", ".cjs"},
		lang:         javascript.GetLanguage(),
		Qualifier:    jsQualifier,
		EnclosingDef: jsEnclosingDef,
		Signature:    jsSignature,
		Docstring:    DocFromComments,
		Params:       jsParams,
	}
}

// jsQualifier returns the name of the class whose body directly contains a
// method_definition node, or "" for standalone functions.
func jsQualifier(node *sitter.Node, source []byte) string {
	current := node.Parent()
	for current != nil {
		switch current.Type() {
		case "class_body":
			cls := current.Parent()
			if cls != nil && (cls.Type() == "class_declaration" || cls.Type() == "class") {
				return FieldText(cls, "name", source)
			}
			return ""
		case "function_declaration", "generator_function_declaration":
			// A nested function is not a method of the outer class.
			return ""
		}
		current = current.Parent()
	}
	return ""
}

// jsEnclosingDef returns the qualified name of the function or method
// containing a call-site node. Arrow functions and anonymous function
// expressions are transparent: the call is attributed to the nearest
// enclosing named definition, or "" at module scope.
func jsEnclosingDef(node *sitter.Node, source []byte) string {
	current := node.Parent()
	for current != nil {
		switch current.Type() {
		case "function_declaration", "generator_function_declaration":
			return FieldText(current, "name", source)
		case "method_definition":
			name := FieldText(current, "name", source)
			if name == "" {
				return ""
			}
			if cls := jsQualifier(current, source); cls != "" {
				return cls + "." + name
			}
			return name
		}
		current = current.Parent()
	}
	return ""
}

func jsSignature(defNode *sitter.Node, kind model.DeclKind, source []byte) string {
	if kind == model.Class {
		name := FieldText(defNode, "name", source)
		if heritage := jsClassHeritage(defNode, source); heritage != "" {
			return name + " extends " + heritage
		}
		return name
	}

	sig := FieldText(defNode, "name", source)
	if params := FieldText(defNode, "parameters", source); params != "" {
		sig += CollapseWhitespace(params)
	}
	if ret := FieldText(defNode, "return_type", source); ret != "" {
		sig += CollapseWhitespace(ret)
	}
	return sig
}

func jsClassHeritage(defNode *sitter.Node, source []byte) string {
	for i := 0; i < int(defNode.NamedChildCount()); i++ {
		child := defNode.NamedChild(i)
		if child.Type() == "class_heritage" && child.NamedChildCount() > 0 {
			return NodeText(child.NamedChild(0), source)
		}
	}
	return ""
}

func jsParams(defNode *sitter.Node, source []byte) ([]model.Parameter, string) {
	var params []model.Parameter
	list := defNode.ChildByFieldName("parameters")
	if list == nil {
		return nil, ""
	}
	for i := 0; i < int(list.NamedChildCount()); i++ {
		child := list.NamedChild(i)
		switch child.Type() {
		case "identifier":
			params = append(params, model.Parameter{Name: NodeText(child, source)})
		case "assignment_pattern":
			if left := child.ChildByFieldName("left"); left != nil {
				params = append(params, model.Parameter{Name: NodeText(left, source)})
			}
		case "rest_pattern":
			params = append(params, model.Parameter{Name: NodeText(child, source)})
		case "required_parameter", "optional_parameter":
			// TypeScript-flavored parameters share this shape.
			p := model.Parameter{Name: FieldText(child, "pattern", source)}
			if t := child.ChildByFieldName("type"); t != nil {
				p.Type = tsAnnotationType(t, source)
			}
			params = append(params, p)
		}
	}
	ret := ""
	if t := defNode.ChildByFieldName("return_type"); t != nil {
		ret = tsAnnotationType(t, source)
	}
	return params, ret
}

// tsAnnotationType unwraps a type_annotation node (": T") to its type text.
func tsAnnotationType(node *sitter.Node, source []byte) string {
	if node.Type() == "type_annotation" && node.NamedChildCount() > 0 {
		return CollapseWhitespace(NodeText(node.NamedChild(0), source))
	}
	return CollapseWhitespace(NodeText(node, source))
}
