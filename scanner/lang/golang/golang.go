// Package golang extracts test functions, doc comments, and call graphs from
// Go source using the standard library parser.
package golang

import (
	"context"
	"fmt"
	goast "go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"github.com/agent3d/agent3d/scanner/lang"
)

func init() {
	lang.DefaultRegistry.Register("go", []string{".go"}, func() lang.Parser {
		return NewParser()
	})
}

// Parser extracts identifier-bearing constructs from Go files.
type Parser struct{}

// NewParser creates a new Go parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile parses a single Go file.
func (p *Parser) ParseFile(ctx context.Context, root, absPath string) (*lang.FileResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	relPath, err := filepath.Rel(root, absPath)
	if err != nil {
		relPath = absPath
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, absPath, content, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parse file: %w", err)
	}

	result := &lang.FileResult{
		Path:       filepath.ToSlash(relPath),
		Language:   "go",
		IsTestFile: strings.HasSuffix(absPath, "_test.go"),
	}

	for _, imp := range file.Imports {
		result.Imports = append(result.Imports, strings.Trim(imp.Path.Value, `"`))
	}

	// Doc comments are attached to declarations below; everything else is a
	// free comment that may carry identifier annotations.
	docPositions := make(map[token.Pos]bool)
	for _, decl := range file.Decls {
		if fn, ok := decl.(*goast.FuncDecl); ok && fn.Doc != nil {
			docPositions[fn.Doc.Pos()] = true
		}
	}
	if file.Doc != nil {
		docPositions[file.Doc.Pos()] = true
	}
	for _, group := range file.Comments {
		if docPositions[group.Pos()] {
			continue
		}
		result.Comments = append(result.Comments, lang.Comment{
			Line: fset.Position(group.Pos()).Line,
			Text: group.Text(),
		})
	}

	for _, decl := range file.Decls {
		fn, ok := decl.(*goast.FuncDecl)
		if !ok {
			continue
		}
		result.Functions = append(result.Functions, p.extractFunction(fset, fn, result.IsTestFile))
	}

	return result, nil
}

func (p *Parser) extractFunction(fset *token.FileSet, fn *goast.FuncDecl, testFile bool) lang.Function {
	out := lang.Function{
		Name:   fn.Name.Name,
		Line:   fset.Position(fn.Pos()).Line,
		IsTest: testFile && isTestFunc(fn),
	}

	if fn.Doc != nil {
		out.Doc = fn.Doc.Text()
	}

	if fn.Body != nil {
		out.Calls = extractCalls(fn.Body)
		out.Labels = extractRunLabels(fn.Body)
	}

	return out
}

// isTestFunc applies the go test convention: TestXxx with a single
// *testing.T-shaped parameter. The parameter type is not resolved; the name
// prefix plus arity is enough for drift mapping.
func isTestFunc(fn *goast.FuncDecl) bool {
	if fn.Recv != nil {
		return false
	}
	name := fn.Name.Name
	for _, prefix := range []string{"Test", "Benchmark", "Fuzz"} {
		if strings.HasPrefix(name, prefix) && len(name) > len(prefix) {
			return fn.Type.Params != nil && len(fn.Type.Params.List) == 1
		}
	}
	return false
}

// extractCalls collects invoked function names, deduplicated in order.
func extractCalls(block *goast.BlockStmt) []string {
	var calls []string
	seen := make(map[string]bool)

	goast.Inspect(block, func(n goast.Node) bool {
		call, ok := n.(*goast.CallExpr)
		if !ok {
			return true
		}
		var name string
		switch fn := call.Fun.(type) {
		case *goast.Ident:
			name = fn.Name
		case *goast.SelectorExpr:
			if x, ok := fn.X.(*goast.Ident); ok {
				name = x.Name + "." + fn.Sel.Name
			} else {
				name = fn.Sel.Name
			}
		}
		if name != "" && !seen[name] {
			seen[name] = true
			calls = append(calls, name)
		}
		return true
	})

	return calls
}

// extractRunLabels collects string literals passed as the first argument of
// t.Run calls. Sub-test identifiers (TC-XXX-001a) usually live there.
func extractRunLabels(block *goast.BlockStmt) []string {
	var labels []string

	goast.Inspect(block, func(n goast.Node) bool {
		call, ok := n.(*goast.CallExpr)
		if !ok {
			return true
		}
		sel, ok := call.Fun.(*goast.SelectorExpr)
		if !ok || sel.Sel.Name != "Run" || len(call.Args) == 0 {
			return true
		}
		if lit, ok := call.Args[0].(*goast.BasicLit); ok && lit.Kind == token.STRING {
			labels = append(labels, strings.Trim(lit.Value, "`\""))
		}
		return true
	})

	return labels
}
