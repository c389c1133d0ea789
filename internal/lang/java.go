package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/kestrelworks/codegraph/internal/model"
)

func init() {
	Languages["java"] = &Language{
		Name:         "java",
		Extensions:   []string{".java"},
		lang:         java.GetLanguage(),
		Qualifier:    javaQualifier,
		EnclosingDef: javaEnclosingDef,
		Signature:    javaSignature,
		Docstring:    DocFromComments,
		Params:       javaParams,
	}
}

var javaTypeDeclTypes = map[string]struct{}{
	"class_declaration":     {},
	"interface_declaration": {},
	"enum_declaration":      {},
	"record_declaration":    {},
}

// javaQualifier returns the name of the class/interface/enum enclosing a
// method or constructor declaration.
func javaQualifier(node *sitter.Node, source []byte) string {
	current := node.Parent()
	for current != nil {
		if _, ok := javaTypeDeclTypes[current.Type()]; ok {
			return FieldText(current, "name", source)
		}
		current = current.Parent()
	}
	return ""
}

// javaEnclosingDef returns the qualified name of the method or constructor
// containing a call-site node, or "" at class-body or file scope.
func javaEnclosingDef(node *sitter.Node, source []byte) string {
	current := node.Parent()
	for current != nil {
		switch current.Type() {
		case "method_declaration", "constructor_declaration":
			name := FieldText(current, "name", source)
			if name == "" {
				return ""
			}
			if cls := javaQualifier(current, source); cls != "" {
				return cls + "." + name
			}
			return name
		}
		current = current.Parent()
	}
	return ""
}

func javaSignature(defNode *sitter.Node, kind model.DeclKind, source []byte) string {
	if kind == model.Class {
		name := FieldText(defNode, "name", source)
		if super := defNode.ChildByFieldName("superclass"); super != nil {
			return name + " " + CollapseWhitespace(NodeText(super, source))
		}
		return name
	}

	sig := FieldText(defNode, "name", source)
	if params := FieldText(defNode, "parameters", source); params != "" {
		sig += CollapseWhitespace(params)
	}
	if ret := FieldText(defNode, "type", source); ret != "" {
		sig += " " + CollapseWhitespace(ret)
	}
	return sig
}

func javaParams(defNode *sitter.Node, source []byte) ([]model.Parameter, string) {
	var params []model.Parameter
	if list := defNode.ChildByFieldName("parameters"); list != nil {
		for i := 0; i < int(list.NamedChildCount()); i++ {
			child := list.NamedChild(i)
			if child.Type() != "formal_parameter" && child.Type() != "spread_parameter" {
				continue
			}
			params = append(params, model.Parameter{
				Name: FieldText(child, "name", source),
				Type: CollapseWhitespace(FieldText(child, "type", source)),
			})
		}
	}
	return params, CollapseWhitespace(FieldText(defNode, "type", source))
}
