package lang

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/kestrelworks/codegraph/internal/model"
)

func init() {
	Languages["python"] = &Language{
		Name:         "python",
		Extensions:   []string{".py"},
		lang:         python.GetLanguage(),
		Qualifier:    pythonQualifier,
		EnclosingDef: pythonEnclosingDef,
		Signature:    pythonSignature,
		Docstring:    pythonDocstring,
		Params:       pythonParams,
	}
}

// pythonQualifier returns the name of the class directly enclosing a
// function definition, or "" for a top-level function.
func pythonQualifier(funcNode *sitter.Node, source []byte) string {
	classNode := pythonEnclosingClass(funcNode)
	if classNode == nil {
		return ""
	}
	return FieldText(classNode, "name", source)
}

func pythonEnclosingClass(funcNode *sitter.Node) *sitter.Node {
	parent := funcNode.Parent()
	if parent == nil {
		return nil
	}

	// Direct: func -> block -> class_definition
	if parent.Type() == "block" && parent.Parent() != nil && parent.Parent().Type() == "class_definition" {
		return parent.Parent()
	}

	// Decorated: func -> decorated_definition -> block -> class_definition
	if parent.Type() == "decorated_definition" {
		gp := parent.Parent()
		if gp != nil && gp.Type() == "block" && gp.Parent() != nil && gp.Parent().Type() == "class_definition" {
			return gp.Parent()
		}
	}

	return nil
}

// pythonEnclosingDef returns the qualified name of the function or method
// containing the given call-site node (e.g. "MyClass.method" or "funcName").
// Returns "" if the call is at module top-level or class-body level.
func pythonEnclosingDef(node *sitter.Node, source []byte) string {
	current := node.Parent()
	for current != nil {
		if current.Type() == "function_definition" {
			funcName := FieldText(current, "name", source)
			if funcName == "" {
				return ""
			}
			if cls := pythonEnclosingClass(current); cls != nil {
				if clsName := FieldText(cls, "name", source); clsName != "" {
					return clsName + "." + funcName
				}
			}
			return funcName
		}
		current = current.Parent()
	}
	return ""
}

func pythonSignature(defNode *sitter.Node, kind model.DeclKind, source []byte) string {
	if kind == model.Class {
		name := FieldText(defNode, "name", source)
		if args := FieldText(defNode, "superclasses", source); args != "" {
			return name + args
		}
		return name
	}

	sig := FieldText(defNode, "name", source)
	if params := FieldText(defNode, "parameters", source); params != "" {
		sig += CollapseWhitespace(params)
	}
	if ret := FieldText(defNode, "return_type", source); ret != "" {
		sig += " -> " + ret
	}
	return sig
}

// pythonDocstring returns the docstring of a function or class definition:
// the string expression appearing as the first statement of its body.
func pythonDocstring(defNode *sitter.Node, source []byte) string {
	body := defNode.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first == nil || first.Type() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}
	str := first.NamedChild(0)
	if str == nil || str.Type() != "string" {
		return ""
	}
	return pythonStripStringLiteral(NodeText(str, source))
}

func pythonStripStringLiteral(s string) string {
	// Drop r/b/f/u prefixes before the opening quote.
	s = strings.TrimLeft(s, "rbfuRBFU")
	for _, q := range []string{`"""`, "'''", `"`, "'"} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return strings.TrimSpace(s[len(q) : len(s)-len(q)])
		}
	}
	return strings.TrimSpace(s)
}

func pythonParams(defNode *sitter.Node, source []byte) ([]model.Parameter, string) {
	var params []model.Parameter
	if list := defNode.ChildByFieldName("parameters"); list != nil {
		for i := 0; i < int(list.NamedChildCount()); i++ {
			child := list.NamedChild(i)
			switch child.Type() {
			case "identifier":
				params = append(params, model.Parameter{Name: NodeText(child, source)})
			case "typed_parameter":
				var name string
				if child.NamedChildCount() > 0 {
					name = NodeText(child.NamedChild(0), source)
				}
				params = append(params, model.Parameter{
					Name: name,
					Type: FieldText(child, "type", source),
				})
			case "default_parameter":
				params = append(params, model.Parameter{
					Name: FieldText(child, "name", source),
				})
			case "typed_default_parameter":
				params = append(params, model.Parameter{
					Name: FieldText(child, "name", source),
					Type: FieldText(child, "type", source),
				})
			case "list_splat_pattern", "dictionary_splat_pattern":
				params = append(params, model.Parameter{Name: NodeText(child, source)})
			}
		}
	}
	return params, FieldText(defNode, "return_type", source)
}
