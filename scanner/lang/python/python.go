// Package python extracts test functions, docstrings, and decorators from
// Python source using tree-sitter.
package python

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/agent3d/agent3d/scanner/lang"
)

func init() {
	lang.DefaultRegistry.Register("python", []string{".py"}, func() lang.Parser {
		return NewParser()
	})
}

// Parser extracts identifier-bearing constructs from Python files.
type Parser struct {
	parser *sitter.Parser
}

// NewParser creates a new Python parser.
func NewParser() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &Parser{parser: p}
}

// ParseFile parses a single Python file.
func (p *Parser) ParseFile(ctx context.Context, root, absPath string) (*lang.FileResult, error) {
	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	relPath, err := filepath.Rel(root, absPath)
	if err != nil {
		relPath = absPath
	}

	tree, err := p.parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse file: %w", err)
	}
	defer tree.Close()

	base := filepath.Base(absPath)
	result := &lang.FileResult{
		Path:       filepath.ToSlash(relPath),
		Language:   "python",
		IsTestFile: strings.HasPrefix(base, "test_") || strings.HasSuffix(base, "_test.py"),
	}

	rootNode := tree.RootNode()
	p.walk(rootNode, content, nil, result)

	return result, nil
}

// walk visits the tree collecting functions, imports, and comments.
// decorators carries decorator lines of an enclosing decorated_definition
// down to the function node they annotate.
func (p *Parser) walk(node *sitter.Node, content []byte, decorators []string, result *lang.FileResult) {
	switch node.Type() {
	case "import_statement", "import_from_statement":
		result.Imports = append(result.Imports, p.extractImports(node, content)...)
		return

	case "comment":
		result.Comments = append(result.Comments, lang.Comment{
			Line: int(node.StartPoint().Row) + 1,
			Text: strings.TrimPrefix(text(node, content), "#"),
		})
		return

	case "decorated_definition":
		decs := p.extractDecorators(node, content)
		for i := 0; i < int(node.NamedChildCount()); i++ {
			p.walk(node.NamedChild(i), content, decs, result)
		}
		return

	case "function_definition":
		fn := p.extractFunction(node, content, decorators)
		result.Functions = append(result.Functions, fn)
		// Keep walking for nested definitions and comments.
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		// Comments are anonymous nodes in some grammar versions; visit all
		// children so none are lost.
		p.walk(child, content, nil, result)
	}
}

func (p *Parser) extractFunction(node *sitter.Node, content []byte, decorators []string) lang.Function {
	fn := lang.Function{
		Line:       int(node.StartPoint().Row) + 1,
		Decorators: decorators,
	}

	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		fn.Name = text(nameNode, content)
	}
	fn.IsTest = strings.HasPrefix(fn.Name, "test_") || isPytestDecorated(decorators)

	if body := node.ChildByFieldName("body"); body != nil {
		fn.Doc = p.extractBodyDocstring(body, content)
		fn.Calls = p.extractCalls(body, content)
	}

	// Parametrize ids act as subtest labels.
	for _, dec := range decorators {
		if strings.Contains(dec, "parametrize") {
			fn.Labels = append(fn.Labels, dec)
		}
	}

	return fn
}

// extractBodyDocstring returns the leading string expression of a block.
func (p *Parser) extractBodyDocstring(body *sitter.Node, content []byte) string {
	if body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first.Type() == "expression_statement" && first.NamedChildCount() > 0 {
		expr := first.NamedChild(0)
		if expr.Type() == "string" {
			return strings.Trim(text(expr, content), `"'`)
		}
	}
	return ""
}

// extractDecorators returns the decorator lines of a decorated_definition.
func (p *Parser) extractDecorators(node *sitter.Node, content []byte) []string {
	var decorators []string
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "decorator" {
			decorators = append(decorators, text(child, content))
		}
	}
	return decorators
}

// extractImports returns imported module paths from an import statement.
func (p *Parser) extractImports(node *sitter.Node, content []byte) []string {
	var imports []string

	if node.Type() == "import_from_statement" {
		if mod := node.ChildByFieldName("module_name"); mod != nil {
			imports = append(imports, text(mod, content))
		}
		return imports
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "dotted_name":
			imports = append(imports, text(child, content))
		case "aliased_import":
			if name := child.ChildByFieldName("name"); name != nil {
				imports = append(imports, text(name, content))
			}
		}
	}
	return imports
}

// extractCalls collects invoked function names, deduplicated in order.
func (p *Parser) extractCalls(body *sitter.Node, content []byte) []string {
	var calls []string
	seen := make(map[string]bool)

	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n.Type() == "call" {
			if fn := n.ChildByFieldName("function"); fn != nil {
				name := text(fn, content)
				if name != "" && !seen[name] {
					seen[name] = true
					calls = append(calls, name)
				}
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			visit(n.NamedChild(i))
		}
	}
	visit(body)

	return calls
}

// isPytestDecorated reports whether any decorator marks the function as a
// pytest test (parametrize variants keep the test_ prefix anyway, so this
// mostly catches custom test markers).
func isPytestDecorated(decorators []string) bool {
	for _, dec := range decorators {
		if strings.Contains(dec, "pytest.mark.") {
			return true
		}
	}
	return false
}

func text(node *sitter.Node, content []byte) string {
	return string(content[node.StartByte():node.EndByte()])
}
