package validate

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// languageFor returns a tree-sitter grammar for path, or nil for
// languages without one. Files without a grammar only get the marker
// check.
func languageFor(path string) *sitter.Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".jsx", ".mjs", ".cjs":
		return javascript.GetLanguage()
	case ".ts", ".tsx":
		return typescript.GetLanguage()
	case ".py":
		return python.GetLanguage()
	default:
		return nil
	}
}

// checkSyntax parses content with the language's grammar and rejects
// trees containing ERROR nodes.
func checkSyntax(path string, content []byte) error {
	lang := languageFor(path)
	if lang == nil {
		return nil
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return fmt.Errorf("parse %s: %v", path, err)
	}
	defer tree.Close()

	if node := firstErrorNode(tree.RootNode()); node != nil {
		return fmt.Errorf("syntax error in %s at line %d", path, node.StartPoint().Row+1)
	}
	return nil
}

func firstErrorNode(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if found := firstErrorNode(node.NamedChild(i)); found != nil {
			return found
		}
	}
	return nil
}
