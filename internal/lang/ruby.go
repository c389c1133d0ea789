package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/ruby"

	"github.com/kestrelworks/codegraph/internal/model"
)

func init() {
	Languages["ruby"] = &Language{
		Name:         "ruby",
		Extensions:   []string{".rb"},
		lang:         ruby.GetLanguage(),
		Qualifier:    rubyQualifier,
		EnclosingDef: rubyEnclosingDef,
		Signature:    rubySignature,
		Docstring:    DocFromComments,
		Params:       rubyParams,
	}
}

// rubyQualifier walks the parent chain looking for a class or module node.
func rubyQualifier(funcNode *sitter.Node, source []byte) string {
	node := funcNode.Parent()
	for node != nil {
		if node.Type() == "class" || node.Type() == "module" {
			return rubyClassName(node, source)
		}
		node = node.Parent()
	}
	return ""
}

// rubyClassName extracts the name from a class or module node.
func rubyClassName(node *sitter.Node, source []byte) string {
	if name := node.ChildByFieldName("name"); name != nil {
		return NodeText(name, source)
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "constant" || child.Type() == "scope_resolution" {
			return NodeText(child, source)
		}
	}
	return ""
}

// rubyEnclosingDef returns the qualified name of the method containing the
// given call-site node (e.g. "MyClass.method" or "methodName"). Returns ""
// for calls at class-body or script top-level.
func rubyEnclosingDef(node *sitter.Node, source []byte) string {
	current := node.Parent()
	for current != nil {
		switch current.Type() {
		case "method", "singleton_method":
			methodName := rubyMethodName(current, source)
			if methodName == "" {
				return ""
			}
			if cls := rubyQualifier(current, source); cls != "" {
				return cls + "." + methodName
			}
			return methodName
		}
		current = current.Parent()
	}
	return ""
}

func rubyMethodName(defNode *sitter.Node, source []byte) string {
	if name := defNode.ChildByFieldName("name"); name != nil {
		return NodeText(name, source)
	}
	// def self.foo — the method name is the last identifier, not "self".
	var methodName string
	for i := 0; i < int(defNode.ChildCount()); i++ {
		child := defNode.Child(i)
		if child.Type() == "identifier" {
			methodName = NodeText(child, source)
		}
	}
	return methodName
}

func rubySignature(defNode *sitter.Node, kind model.DeclKind, source []byte) string {
	if kind == model.Class {
		name := rubyClassName(defNode, source)
		if sc := defNode.ChildByFieldName("superclass"); sc != nil {
			for j := 0; j < int(sc.ChildCount()); j++ {
				child := sc.Child(j)
				if child.Type() == "constant" || child.Type() == "scope_resolution" {
					return name + " < " + NodeText(child, source)
				}
			}
		}
		return name
	}

	sig := rubyMethodName(defNode, source)
	if params := defNode.ChildByFieldName("parameters"); params != nil {
		sig += CollapseWhitespace(NodeText(params, source))
	}
	return sig
}

func rubyParams(defNode *sitter.Node, source []byte) ([]model.Parameter, string) {
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
		case "optional_parameter", "keyword_parameter":
			params = append(params, model.Parameter{Name: FieldText(child, "name", source)})
		case "splat_parameter", "hash_splat_parameter", "block_parameter":
			params = append(params, model.Parameter{Name: NodeText(child, source)})
		}
	}
	return params, ""
}
