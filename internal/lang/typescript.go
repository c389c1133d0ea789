package lang

import (
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

func init() {
	// TypeScript shares the JS tree shape for everything the extractor
	// needs; only the grammar and the extraction query differ.
	Languages["typescript"] = &Language{
		Name:         "typescript",
		Extensions:   []string{".ts", ".mts", ".cts"},
		lang:         typescript.GetLanguage(),
		Qualifier:    jsQualifier,
		EnclosingDef: jsEnclosingDef,
		Signature:    jsSignature,
		Docstring:    DocFromComments,
		Params:       jsParams,
	}
}
